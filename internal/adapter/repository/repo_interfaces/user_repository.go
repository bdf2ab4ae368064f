package repo_interfaces

import (
	"context"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
}
