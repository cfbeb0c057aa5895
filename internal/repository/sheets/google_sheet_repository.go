package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/incubator/internal/config"
)

var errEmptyRange = errors.New("sheet range must not be empty")

// Repository is the spreadsheet surface used by the session export.
type Repository interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements Repository on the Google Sheets v4 API.
type GoogleSheetRepository struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository opens the configured spreadsheet. opts are applied
// after the credentials file, so tests can point the client at a fake server.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id must not be empty")
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	svc, err := sheetsapi.NewService(ctx, append(clientOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("init sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		values:        sheetsapi.NewSpreadsheetsValuesService(svc),
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendRows adds rows after the last filled row of sheetRange in one call.
// Values are stored as given, without formula or date parsing.
func (r *GoogleSheetRepository) AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return errEmptyRange
	}
	if len(rows) == 0 {
		return nil
	}

	resp, err := r.values.Append(r.spreadsheetID, sheetRange, &sheetsapi.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append %d rows to %s: %w", len(rows), sheetRange, err)
	}

	fields := []zap.Field{zap.String("range", sheetRange), zap.Int("rows", len(rows))}
	if resp.Updates != nil {
		fields = append(fields, zap.String("updated_range", resp.Updates.UpdatedRange))
	}
	r.logger.Debug("rows appended to sheet", fields...)
	return nil
}

// ReadRange returns the filled cells of sheetRange, row by row.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, errEmptyRange
	}

	resp, err := r.values.Get(r.spreadsheetID, sheetRange).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheetRange, err)
	}
	return resp.Values, nil
}
