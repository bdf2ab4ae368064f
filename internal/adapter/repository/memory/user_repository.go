package memory

import (
	"context"
	"time"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/repo_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/commons"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

var _ repo_interfaces.UserRepository = (*UserRepository)(nil)

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if existing.Username == user.Username {
			return domain.User{}, domain.NewValidationError("username %q is already taken", user.Username)
		}
	}

	if user.ID == "" {
		user.ID = newID()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.store.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[id]
	if !ok {
		return domain.User{}, commons.ErrRecordNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, user := range r.store.users {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, commons.ErrRecordNotFound
}
