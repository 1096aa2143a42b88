package identity

import (
	"github.com/google/uuid"
)

// UserStatus represents whether a user may act on the account
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User is an operator of an account. The ledger only records who
// entered a value, so it reads users for existence checks.
type User struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	Username    string
	DisplayName string
	Status      UserStatus
}

// IsActive returns true if the user may act on the account
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
