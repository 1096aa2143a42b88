package metering_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	appmetering "github.com/propledger/backend/internal/application/metering"
	"github.com/propledger/backend/internal/domain/shared"
	csvimport "github.com/propledger/backend/internal/infrastructure/import"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *meterScenario) csv(rows ...string) *strings.Reader {
	return strings.NewReader("meter_id,reading_value,reading_date,consumption\n" + strings.Join(rows, "\n") + "\n")
}

// consumptions returns the stored consumption of each reading keyed by day
func (s *meterScenario) consumptions(t *testing.T) map[string]int64 {
	t.Helper()
	page, err := s.svc.ListMeterReadings(context.Background(), s.f.AccountID, appmetering.MeterReadingListFilter{MeterID: &s.meterID})
	require.NoError(t, err)
	byDate := make(map[string]int64, len(page.Results))
	for _, r := range page.Results {
		require.True(t, r.Consumption.IsInteger(), r.Consumption.String())
		byDate[r.ReadingDate.Format("2006-01-02")] = r.Consumption.IntPart()
	}
	return byDate
}

func errorCodes(result *appmetering.ReadingImportResult) map[int]string {
	codes := make(map[int]string, len(result.Errors))
	for _, e := range result.Errors {
		codes[e.Row] = e.Code
	}
	return codes
}

func TestImportReadings_AppliesInDateOrder(t *testing.T) {
	s := newMeterScenario(t)
	m := s.meterID.String()

	result, err := s.svc.ImportReadings(context.Background(), s.f.AccountID, s.csv(
		m+",110,2025-03-01,",
		m+",100,2025-01-01,",
		m+",105,2025/02/01,",
	), appmetering.ReadingImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 3, result.ImportedRows)
	assert.Zero(t, result.ErrorRows)
	assert.Empty(t, result.Errors)
	assert.Equal(t, map[string]int64{
		"2025-01-01": 0,
		"2025-02-01": 5,
		"2025-03-01": 5,
	}, s.consumptions(t))
}

func TestImportReadings_ReportsRejectedRows(t *testing.T) {
	s := newMeterScenario(t)
	m := s.meterID.String()

	// data starts on line 2; lines 3-7 are each rejected for a different reason
	result, err := s.svc.ImportReadings(context.Background(), s.f.AccountID, s.csv(
		m+",100,2025-01-01,",
		m+",,2025-01-15,",
		m+",-4,2025-01-20,",
		m+",130,2025-01-01,",
		m+",90,2025-02-01,",
		uuid.NewString()+",5,2025-02-01,",
		m+",120,2025-03-01,7",
	), appmetering.ReadingImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 7, result.TotalRows)
	assert.Equal(t, 2, result.ImportedRows)
	assert.Equal(t, 5, result.ErrorRows)
	assert.Equal(t, map[int]string{
		3: csvimport.ErrCodeRequired,
		4: csvimport.ErrCodeOutOfRange,
		5: csvimport.ErrCodeDuplicateRow,
		6: "READING_REGRESSION",
		7: "NOT_FOUND",
	}, errorCodes(result))
	assert.Equal(t, map[string]int64{
		"2025-01-01": 0,
		"2025-03-01": 7,
	}, s.consumptions(t))
}

func TestImportReadings_DryRun(t *testing.T) {
	s := newMeterScenario(t)
	m := s.meterID.String()

	result, err := s.svc.ImportReadings(context.Background(), s.f.AccountID, s.csv(
		m+",100,2025-01-01,",
		"not-a-uuid,100,2025-01-01,",
	), appmetering.ReadingImportOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.TotalRows)
	assert.Zero(t, result.ImportedRows)
	assert.Equal(t, 1, result.ErrorRows)
	assert.Equal(t, map[int]string{3: csvimport.ErrCodeInvalidType}, errorCodes(result))
	assert.Empty(t, s.consumptions(t))
}

func TestImportReadings_Limits(t *testing.T) {
	s := newMeterScenario(t)
	m := s.meterID.String()

	result, err := s.svc.ImportReadings(context.Background(), s.f.AccountID, s.csv(
		m+",1,2025-01-01,",
		m+",2,2025-01-02,",
		m+",3,2025-01-03,",
	), appmetering.ReadingImportOptions{MaxRows: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 2, result.ImportedRows)
	assert.Equal(t, map[int]string{4: csvimport.ErrCodeTooManyRows}, errorCodes(result))

	bad := strings.Repeat(m+",-1,2025-05-01,\n", 3)
	result, err = s.svc.ImportReadings(context.Background(), s.f.AccountID,
		strings.NewReader("meter_id,reading_value,reading_date\n"+bad), appmetering.ReadingImportOptions{MaxErrors: 1})
	require.NoError(t, err)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.TotalErrors)
	assert.True(t, result.IsTruncated)
}

func TestImportReadings_RejectsFile(t *testing.T) {
	s := newMeterScenario(t)
	ctx := context.Background()

	_, err := s.svc.ImportReadings(ctx, s.f.AccountID, strings.NewReader(""), appmetering.ReadingImportOptions{})
	requireDomainError(t, err, shared.KindValidation, "INVALID_IMPORT_FILE")

	_, err = s.svc.ImportReadings(ctx, s.f.AccountID, strings.NewReader("meter_id,reading_date\n"), appmetering.ReadingImportOptions{})
	requireDomainError(t, err, shared.KindValidation, "MISSING_IMPORT_COLUMNS")

	_, err = s.svc.ImportReadings(ctx, uuid.Nil, s.csv(), appmetering.ReadingImportOptions{})
	requireDomainError(t, err, shared.KindValidation, "ACCOUNT_REQUIRED")
}
