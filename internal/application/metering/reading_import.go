package metering

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	appshared "github.com/propledger/backend/internal/application/shared"
	"github.com/propledger/backend/internal/domain/shared"
	csvimport "github.com/propledger/backend/internal/infrastructure/import"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Import columns
const (
	ColumnMeterID         = "meter_id"
	ColumnSubmeterID      = "submeter_id"
	ColumnReadingValue    = "reading_value"
	ColumnReadingDate     = "reading_date"
	ColumnConsumption     = "consumption"
	ColumnEnteredByUserID = "entered_by_user_id"
)

const (
	defaultImportMaxRows   = 10000
	defaultImportMaxErrors = 100
)

// ReadingImportOptions tunes ImportReadings
type ReadingImportOptions struct {
	DryRun    bool // validate the file without recording anything
	MaxRows   int
	MaxErrors int
}

// ReadingImportResult summarises a bulk reading import
type ReadingImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	ErrorRows    int                  `json:"error_rows"`
	DryRun       bool                 `json:"dry_run,omitempty"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
}

// ReadingImportRules returns the column rules of a reading import file
func ReadingImportRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field(ColumnMeterID).Required().UUID().Build(),
		csvimport.Field(ColumnSubmeterID).UUID().Build(),
		csvimport.Field(ColumnReadingValue).Required().Decimal().MinValue(decimal.Zero).Build(),
		csvimport.Field(ColumnReadingDate).Required().Date().Build(),
		csvimport.Field(ColumnConsumption).Decimal().MinValue(decimal.Zero).Build(),
		csvimport.Field(ColumnEnteredByUserID).UUID().Build(),
	}
}

type importRow struct {
	line int
	req  CreateMeterReadingRequest
}

// ImportReadings records every reading of a CSV file. Rows are applied in
// reading-date order so consumption derives from the preceding row of the
// same series. Each row is its own transaction: a rejected row is reported
// and the remaining rows still apply.
func (s *MeterReadingService) ImportReadings(ctx context.Context, accountID uuid.UUID, r io.Reader, opts ReadingImportOptions) (*ReadingImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "meter_reading", "import")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAccountID, accountID.String(),
	)
	fail := func(err error) (*ReadingImportResult, error) {
		return nil, appshared.Fail(ctx, span, s.metrics, accountID, "meter_reading.import", err)
	}

	if err := shared.RequireAccount(accountID); err != nil {
		return fail(err)
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = defaultImportMaxRows
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = defaultImportMaxErrors
	}

	parser, err := csvimport.NewParser(r)
	if err != nil {
		return fail(shared.NewValidationError("INVALID_IMPORT_FILE", err.Error()))
	}
	rules := ReadingImportRules()
	if missing := parser.Missing(csvimport.RequiredColumns(rules)...); len(missing) > 0 {
		return fail(shared.NewValidationError("MISSING_IMPORT_COLUMNS",
			"Import file is missing columns: "+strings.Join(missing, ", ")))
	}

	result := &ReadingImportResult{DryRun: opts.DryRun}
	errs := csvimport.NewErrorCollection(opts.MaxErrors)
	rows, err := s.parseImportRows(ctx, parser, rules, opts.MaxRows, result, errs)
	if err != nil {
		return fail(err)
	}

	slices.SortStableFunc(rows, func(a, b importRow) int {
		return a.req.ReadingDate.Compare(b.req.ReadingDate)
	})

	if !opts.DryRun {
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return fail(err)
			}
			if _, err := s.CreateMeterReading(ctx, accountID, row.req); err != nil {
				de, ok := shared.AsDomainError(err)
				if !ok {
					return fail(fmt.Errorf("row %d: %w", row.line, err))
				}
				errs.Add(csvimport.RowError{Row: row.line, Code: de.Code, Message: de.Message})
				result.ErrorRows++
				continue
			}
			result.ImportedRows++
		}
	}

	result.Errors = errs.Errors()
	result.TotalErrors = errs.Total()
	result.IsTruncated = errs.Truncated()

	telemetry.SetAttributes(span,
		"import.total_rows", result.TotalRows,
		"import.imported_rows", result.ImportedRows,
		"import.error_rows", result.ErrorRows,
	)
	logger.L(ctx).Info("meter reading import finished",
		zap.Int("total_rows", result.TotalRows),
		zap.Int("imported_rows", result.ImportedRows),
		zap.Int("error_rows", result.ErrorRows),
		zap.Bool("dry_run", opts.DryRun),
	)
	return result, nil
}

// parseImportRows validates the rows of parser and converts the valid ones
// into requests. Repeated series/day pairs within the file are rejected.
func (s *MeterReadingService) parseImportRows(
	ctx context.Context,
	parser *csvimport.Parser,
	rules []csvimport.FieldRule,
	maxRows int,
	result *ReadingImportResult,
	errs *csvimport.ErrorCollection,
) ([]importRow, error) {
	var rows []importRow
	seen := make(map[string]int)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := parser.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		var rowErr csvimport.RowError
		if errors.As(err, &rowErr) {
			result.TotalRows++
			result.ErrorRows++
			errs.Add(rowErr)
			continue
		}
		if err != nil {
			return nil, err
		}

		result.TotalRows++
		if result.TotalRows > maxRows {
			result.TotalRows--
			errs.Add(csvimport.RowError{Row: row.Line, Code: csvimport.ErrCodeTooManyRows,
				Message: fmt.Sprintf("file exceeds %d rows; the rest was not read", maxRows)})
			return rows, nil
		}

		if failures := csvimport.ValidateRow(rules, row); len(failures) > 0 {
			for _, f := range failures {
				errs.Add(f)
			}
			result.ErrorRows++
			continue
		}

		req, err := toImportRequest(row)
		if err != nil {
			errs.Add(csvimport.RowError{Row: row.Line, Code: csvimport.ErrCodeInvalidType, Message: err.Error()})
			result.ErrorRows++
			continue
		}

		key := seriesDayKey(req)
		if first, dup := seen[key]; dup {
			errs.Add(csvimport.RowError{Row: row.Line, Column: ColumnReadingDate, Code: csvimport.ErrCodeDuplicateRow,
				Message: fmt.Sprintf("same meter and day as row %d", first), Value: row.Get(ColumnReadingDate)})
			result.ErrorRows++
			continue
		}
		seen[key] = row.Line
		rows = append(rows, importRow{line: row.Line, req: req})
	}
}

func toImportRequest(row *csvimport.Row) (CreateMeterReadingRequest, error) {
	var req CreateMeterReadingRequest
	var err error

	if req.MeterID, err = uuid.Parse(row.Get(ColumnMeterID)); err != nil {
		return req, err
	}
	if req.SubmeterID, err = csvimport.OptionalUUID(row, ColumnSubmeterID); err != nil {
		return req, err
	}
	if req.EnteredByUserID, err = csvimport.OptionalUUID(row, ColumnEnteredByUserID); err != nil {
		return req, err
	}
	if req.ReadingValue, err = decimal.NewFromString(row.Get(ColumnReadingValue)); err != nil {
		return req, err
	}
	if req.Consumption, err = csvimport.OptionalDecimal(row, ColumnConsumption); err != nil {
		return req, err
	}
	date, err := csvimport.ParseDate(row.Get(ColumnReadingDate))
	if err != nil {
		return req, err
	}
	req.ReadingDate = shared.DateOnly(date)
	return req, nil
}

func seriesDayKey(req CreateMeterReadingRequest) string {
	sub := uuid.Nil
	if req.SubmeterID != nil {
		sub = *req.SubmeterID
	}
	return req.MeterID.String() + "/" + sub.String() + "/" + req.ReadingDate.Format(time.DateOnly)
}
