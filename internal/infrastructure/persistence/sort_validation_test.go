package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"asc", "ASC"},
		{" ASC ", "ASC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"asc; DROP TABLE bills", "DESC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSortOrder(tt.input), tt.input)
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		allowed map[string]bool
		want    string
	}{
		{"allowed bill field", "due_date", BillSortFields, "due_date"},
		{"trimmed", " total_amount ", BillSortFields, "total_amount"},
		{"empty falls back", "", BillSortFields, "created_at"},
		{"unknown falls back", "tenant_id", BillSortFields, "created_at"},
		{"injection falls back", "created_at; DROP TABLE bills", BillSortFields, "created_at"},
		{"reading field", "reading_value", MeterReadingSortFields, "reading_value"},
		{"lease field", "lease_no", LeaseSortFields, "lease_no"},
		{"payment field", "amount", PaymentSortFields, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, tt.allowed, "created_at"))
		})
	}
}
