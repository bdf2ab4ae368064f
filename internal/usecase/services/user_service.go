package services

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/repo_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/logger"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/usecase/service_interfaces"
)

// Verify that UserService implements the service_interfaces.UserService interface
var _ service_interfaces.UserService = (*UserService)(nil)

type UserService struct {
	userRepo    repo_interfaces.UserRepository
	accountRepo repo_interfaces.AccountRepository
}

func NewUserService(userRepo repo_interfaces.UserRepository, accountRepo repo_interfaces.AccountRepository) *UserService {
	return &UserService{userRepo: userRepo, accountRepo: accountRepo}
}

func (s *UserService) CreateUser(ctx context.Context, in service_interfaces.CreateUserInput) (domain.User, error) {
	logger.Info("user service create user request", logger.Fields{
		"payload": logger.SanitizePayload(in),
	})

	if err := in.Validate(); err != nil {
		logger.Error("user service create user validation failed", err, nil)
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, domain.User{
		Username:     in.Username,
		PasswordHash: string(hash),
	})
	if err != nil {
		logger.Error("user service create user failed", err, logger.Fields{
			"username": in.Username,
		})
		return domain.User{}, err
	}

	// Every user starts with a base rial account; deposit profit lands here
	// when no other rial account exists.
	if _, err := s.accountRepo.Create(ctx, domain.Account{
		UserID: user.ID,
		Name:   "Default Rial Account",
		Kind:   domain.CurrencyRial,
	}); err != nil {
		return domain.User{}, fmt.Errorf("provision base account: %w", err)
	}

	logger.Info("user service create user success", logger.Fields{
		"userId":   user.ID,
		"username": user.Username,
	})
	return user, nil
}
