package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/kasir/internal/config"
	"github.com/mamadbah2/kasir/internal/domain/models"
)

// SalesRange is where mirrored sales are appended.
const SalesRange = "Sales!A:H"

// RowAppender appends one row below the last filled row of a range.
type RowAppender interface {
	AppendRow(ctx context.Context, sheetRange string, values []interface{}) error
}

// GoogleSheetAppender implements RowAppender with the official Google Sheets API.
type GoogleSheetAppender struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetAppender authenticates with the configured service account.
func NewGoogleSheetAppender(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetAppender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetAppender{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendRow stores values as typed, so contacts such as "0812..." keep their leading zero.
func (a *GoogleSheetAppender) AppendRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}
	_, err := a.service.Spreadsheets.Values.Append(a.spreadsheetID, sheetRange, payload).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	a.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// SalesMirror appends one spreadsheet row per recorded sale.
type SalesMirror struct {
	rows     RowAppender
	location *time.Location
}

// NewSalesMirror writes sale rows through rows, stamping dates in loc.
func NewSalesMirror(rows RowAppender, loc *time.Location) *SalesMirror {
	if loc == nil {
		loc = time.UTC
	}
	return &SalesMirror{rows: rows, location: loc}
}

// AppendSale writes the sale as a single row.
func (m *SalesMirror) AppendSale(ctx context.Context, sale models.Sale) error {
	if err := m.rows.AppendRow(ctx, SalesRange, SaleRow(sale, m.location)); err != nil {
		return fmt.Errorf("mirror sale %s: %w", sale.ID, err)
	}
	return nil
}

// SaleRow lays a sale out as: date, id, buyer, contact, items, total, paid, change.
func SaleRow(sale models.Sale, loc *time.Location) []interface{} {
	items := make([]string, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, fmt.Sprintf("%s x%d", item.Name, item.Quantity))
	}

	return []interface{}{
		sale.Date.In(loc).Format("2006-01-02 15:04:05"),
		sale.ID,
		sale.BuyerName,
		sale.BuyerContact,
		strings.Join(items, ", "),
		sale.Total.String(),
		sale.AmountPaid.String(),
		sale.Change.String(),
	}
}
