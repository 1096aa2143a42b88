package csvimport

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FieldType represents the expected type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
	TypeUUID    FieldType = "uuid"
)

// DefaultDateLayouts are tried in order when a rule names no layout
var DefaultDateLayouts = []string{time.DateOnly, time.RFC3339, "2006/01/02"}

// FieldRule defines validation rules for a column
type FieldRule struct {
	Column   string
	Type     FieldType
	Required bool
	MinValue *decimal.Decimal
	Layouts  []string
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a rule for column
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Decimal expects a decimal number
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// Date expects a date in one of layouts, or DefaultDateLayouts when none given
func (b *FieldRuleBuilder) Date(layouts ...string) *FieldRuleBuilder {
	b.rule.Type = TypeDate
	b.rule.Layouts = layouts
	return b
}

// UUID expects a UUID
func (b *FieldRuleBuilder) UUID() *FieldRuleBuilder {
	b.rule.Type = TypeUUID
	return b
}

// MinValue sets the inclusive lower bound of a decimal field
func (b *FieldRuleBuilder) MinValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &v
	return b
}

// Build returns the rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// Check validates the rule's column of row
func (r FieldRule) Check(row *Row) *RowError {
	value := row.Get(r.Column)
	if value == "" {
		if r.Required {
			return &RowError{Row: row.Line, Column: r.Column, Code: ErrCodeRequired,
				Message: "value is required"}
		}
		return nil
	}

	typeErr := func() *RowError {
		return &RowError{Row: row.Line, Column: r.Column, Code: ErrCodeInvalidType,
			Message: fmt.Sprintf("expected %s", r.Type), Value: value}
	}
	switch r.Type {
	case TypeDecimal:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return typeErr()
		}
		if r.MinValue != nil && d.LessThan(*r.MinValue) {
			return &RowError{Row: row.Line, Column: r.Column, Code: ErrCodeOutOfRange,
				Message: fmt.Sprintf("must be at least %s", r.MinValue), Value: value}
		}
	case TypeDate:
		if _, err := ParseDate(value, r.Layouts...); err != nil {
			return typeErr()
		}
	case TypeUUID:
		if _, err := uuid.Parse(value); err != nil {
			return typeErr()
		}
	}
	return nil
}

// ValidateRow checks every rule against row and returns the failures
func ValidateRow(rules []FieldRule, row *Row) []RowError {
	var errs []RowError
	for _, rule := range rules {
		if err := rule.Check(row); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

// RequiredColumns lists the columns of the required rules
func RequiredColumns(rules []FieldRule) []string {
	var cols []string
	for _, rule := range rules {
		if rule.Required {
			cols = append(cols, rule.Column)
		}
	}
	return cols
}

// ParseDate parses value with the first matching layout
func ParseDate(value string, layouts ...string) (time.Time, error) {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// OptionalUUID parses the column of row, returning nil when it is blank
func OptionalUUID(row *Row, column string) (*uuid.UUID, error) {
	value := row.Get(column)
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// OptionalDecimal parses the column of row, returning nil when it is blank
func OptionalDecimal(row *Row, column string) (*decimal.Decimal, error) {
	value := row.Get(column)
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
