package persistence

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// isUniqueViolation reports whether err is a unique constraint failure,
// using the dialect's translator so the original message stays available
func isUniqueViolation(db *gorm.DB, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if t, ok := db.Dialector.(gorm.ErrorTranslator); ok && errors.Is(t.Translate(err), gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "UNIQUE constraint failed")
}

// violates reports whether a unique violation came from the named index.
// PostgreSQL names the constraint. SQLite names the indexed columns
// (table.column) for plain column indexes.
func violates(err error, index string, columns ...string) bool {
	msg := err.Error()
	if strings.Contains(msg, index) {
		return true
	}
	if len(columns) == 0 {
		return false
	}
	return strings.Contains(msg, strings.Join(columns, ", "))
}

// translateNotFound maps a missing row to the domain NotFound error
func translateNotFound(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(entity, id)
	}
	return err
}
