package csvimport

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	ErrCodeCSVParsing   = "CSV_PARSE_ERROR"
	ErrCodeRequired     = "REQUIRED_FIELD"
	ErrCodeInvalidType  = "INVALID_TYPE"
	ErrCodeOutOfRange   = "OUT_OF_RANGE"
	ErrCodeTooManyRows  = "TOO_MANY_ROWS"
	ErrCodeDuplicateRow = "DUPLICATE_IN_FILE"
)

var (
	// ErrEmptyFile is returned when the input has no content
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the input is not UTF-8
	ErrInvalidEncoding = errors.New("CSV file is not valid UTF-8")

	// ErrMissingHeader is returned when the input has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")
)

// RowError describes why one row was rejected
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection keeps the first max row errors and counts the rest
type ErrorCollection struct {
	errors []RowError
	max    int
	total  int
}

// NewErrorCollection creates a collection; max <= 0 keeps every error
func NewErrorCollection(max int) *ErrorCollection {
	return &ErrorCollection{max: max}
}

// Add records err
func (c *ErrorCollection) Add(err RowError) {
	c.total++
	if c.max <= 0 || len(c.errors) < c.max {
		c.errors = append(c.errors, err)
	}
}

// Errors returns the retained errors in the order they were added
func (c *ErrorCollection) Errors() []RowError {
	return c.errors
}

// Total counts every added error, retained or not
func (c *ErrorCollection) Total() int {
	return c.total
}

// HasErrors reports whether any error was added
func (c *ErrorCollection) HasErrors() bool {
	return c.total > 0
}

// Truncated reports whether errors were dropped past max
func (c *ErrorCollection) Truncated() bool {
	return c.total > len(c.errors)
}
