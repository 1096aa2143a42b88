// Package account provides account scoping for GORM queries.
//
// Every ledger table carries an account_id column. Repositories apply
// Scope to each statement so a row from another account is never read,
// updated or deleted.
//
// Usage:
//
//	db.WithContext(ctx).Scopes(account.Scope(accountID)).First(&bill, "id = ?", id)
package account

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is the account id column shared by every ledger table
const Column = "account_id"

// ErrAccountRequired is added to the statement when no account was given
var ErrAccountRequired = errors.New("account_id is required for scoped queries")

// Scope filters a statement to one account. A nil account makes the
// statement fail instead of running unscoped.
func Scope(accountID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if accountID == uuid.Nil {
			_ = db.AddError(ErrAccountRequired)
			return db
		}
		return db.Where(Column+" = ?", accountID)
	}
}

// TableScope is Scope for statements that join other tables, qualifying
// the column with table
func TableScope(table string, accountID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if accountID == uuid.Nil {
			_ = db.AddError(ErrAccountRequired)
			return db
		}
		return db.Where(table+"."+Column+" = ?", accountID)
	}
}
