package service_interfaces

import (
	"context"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

type CreateUserInput struct {
	Username string
	Password string
}

func (in CreateUserInput) Validate() error {
	if in.Username == "" {
		return domain.NewValidationError("username is required")
	}
	if len(in.Password) < 8 {
		return domain.NewValidationError("password must be at least 8 characters")
	}
	return nil
}

type UserService interface {
	CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error)
}
