package persistence

import (
	"strings"

	"github.com/propledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// BillSortFields contains allowed sort fields for bills
var BillSortFields = map[string]bool{
	"created_at":           true,
	"billing_period_start": true,
	"due_date":             true,
	"total_amount":         true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"payment_date": true,
	"created_at":   true,
	"amount":       true,
}

// MeterReadingSortFields contains allowed sort fields for meter readings
var MeterReadingSortFields = map[string]bool{
	"reading_date":  true,
	"reading_value": true,
	"created_at":    true,
}

// LeaseSortFields contains allowed sort fields for leases
var LeaseSortFields = map[string]bool{
	"created_at":       true,
	"lease_start_date": true,
	"lease_no":         true,
}

// paginate applies a whitelisted ORDER BY plus LIMIT/OFFSET. created_at
// breaks ties so pages are stable.
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	filter = filter.Normalize()
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	order := field + " " + ValidateSortOrder(filter.OrderDir)
	if field != "created_at" {
		order += ", created_at DESC"
	}
	return query.Order(order).Offset(filter.Offset()).Limit(filter.Limit)
}
