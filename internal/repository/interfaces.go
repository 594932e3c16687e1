package repository

import (
	"context"

	"github.com/storehub/storehub-auth/internal/domain"
)

// UserRepository is the persistence collaborator the auth core depends
// on. Lookups by email use case-sensitive exact matching. The refresh
// token column is mutated exclusively through SetRefreshToken; an empty
// token clears it.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID int64) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	SetRefreshToken(ctx context.Context, userID int64, token string) error
}
