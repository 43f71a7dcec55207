package auth

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryInterface defines the storage operations the service needs
type RepositoryInterface interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*User, error)
	CountUsers(ctx context.Context) (int64, error)
}
