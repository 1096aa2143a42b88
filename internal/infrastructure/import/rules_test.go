package csvimport

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowOf(t *testing.T, header, line string) *Row {
	t.Helper()
	p, err := NewParser(strings.NewReader(header + "\n" + line + "\n"))
	require.NoError(t, err)
	row, err := p.Next()
	require.NoError(t, err)
	return row
}

func TestFieldRule_Check(t *testing.T) {
	rules := []FieldRule{
		Field("meter_id").Required().UUID().Build(),
		Field("reading_value").Required().Decimal().MinValue(decimal.Zero).Build(),
		Field("reading_date").Required().Date().Build(),
		Field("note").Build(),
	}
	header := "meter_id,reading_value,reading_date,note"

	tests := []struct {
		name   string
		line   string
		column string
		code   string
	}{
		{"missing meter", ",10,2025-01-01,", "meter_id", ErrCodeRequired},
		{"bad uuid", "m-1,10,2025-01-01,", "meter_id", ErrCodeInvalidType},
		{"bad decimal", "2f1c5d0e-6d4b-4a8e-9d7a-3f1e2b9c8a10,ten,2025-01-01,", "reading_value", ErrCodeInvalidType},
		{"negative", "2f1c5d0e-6d4b-4a8e-9d7a-3f1e2b9c8a10,-1,2025-01-01,", "reading_value", ErrCodeOutOfRange},
		{"bad date", "2f1c5d0e-6d4b-4a8e-9d7a-3f1e2b9c8a10,10,01.01.2025,", "reading_date", ErrCodeInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateRow(rules, rowOf(t, header, tt.line))
			require.Len(t, errs, 1)
			assert.Equal(t, tt.column, errs[0].Column)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, 2, errs[0].Row)
		})
	}

	ok := rowOf(t, header, "2f1c5d0e-6d4b-4a8e-9d7a-3f1e2b9c8a10,0,2025/01/31,")
	assert.Empty(t, ValidateRow(rules, ok))

	assert.Equal(t, []string{"meter_id", "reading_value", "reading_date"}, RequiredColumns(rules))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-04")
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)))

	d, err = ParseDate("2025-03-04T22:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 22, d.Hour())

	d, err = ParseDate("04/03/2025", "02/01/2006")
	require.NoError(t, err)
	assert.Equal(t, time.March, d.Month())

	_, err = ParseDate("2025-03-04", "02/01/2006")
	assert.Error(t, err, "explicit layouts replace the defaults")
}

func TestOptionalColumns(t *testing.T) {
	row := rowOf(t, "submeter_id,consumption,blank_id,blank_value", "2f1c5d0e-6d4b-4a8e-9d7a-3f1e2b9c8a10,12.5,,")

	id, err := OptionalUUID(row, "submeter_id")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "2f1c5d0e-6d4b-4a8e-9d7a-3f1e2b9c8a10", id.String())

	id, err = OptionalUUID(row, "blank_id")
	require.NoError(t, err)
	assert.Nil(t, id)

	v, err := OptionalDecimal(row, "consumption")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, v.Equal(decimal.RequireFromString("12.5")))

	v, err = OptionalDecimal(row, "blank_value")
	require.NoError(t, err)
	assert.Nil(t, v)
}
