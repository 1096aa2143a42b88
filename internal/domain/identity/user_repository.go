package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository reads the user lookup table
type UserRepository interface {
	// FindByIDForAccount finds a user by ID within the account
	FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*User, error)
}
