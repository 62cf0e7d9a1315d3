package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/kasir/internal/domain/models"
	"github.com/mamadbah2/kasir/pkg/currency"
)

// ProductSource lists the catalog.
type ProductSource interface {
	List(ctx context.Context) ([]models.Product, error)
}

// SaleSource replays the ledger.
type SaleSource interface {
	List(ctx context.Context) ([]models.Sale, error)
}

// Archive stores daily summaries.
type Archive interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
	ListDailyReports(ctx context.Context, limit int64) ([]models.DailyReport, error)
}

// SalesReport is everything the analytics screen shows.
type SalesReport struct {
	Period    Period              `json:"period"`
	Daily     []models.DailyTotal `json:"daily"`
	TopDays   []models.DailyTotal `json:"topDays"`
	PeakHours []models.HourCount  `json:"peakHours"`
	Years     []int               `json:"years"`
	Summary   models.SalesSummary `json:"summary"`
}

// Service derives stock and sales reports from live snapshots.
type Service struct {
	products ProductSource
	sales    SaleSource
	archive  Archive
	location *time.Location
	logger   *zap.Logger
}

// NewService wires a new reporting service instance. archive may be nil.
func NewService(products ProductSource, sales SaleSource, archive Archive, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		products: products,
		sales:    sales,
		archive:  archive,
		location: orUTC(loc),
		logger:   logger,
	}
}

// Location is the timezone reports are bucketed in.
func (s *Service) Location() *time.Location {
	return s.location
}

// StockReport loads the catalog and the ledger concurrently and joins them.
func (s *Service) StockReport(ctx context.Context, query string) ([]models.StockStatus, error) {
	var (
		products []models.Product
		sales    []models.Sale
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.List(gctx)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sales, err = s.sales.List(gctx)
		if err != nil {
			return fmt.Errorf("load sales: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return BuildStockReport(products, sales, query), nil
}

// SalesReport computes the analytics for period. Top days, peak hours and
// years always cover the whole ledger.
func (s *Service) SalesReport(ctx context.Context, period Period) (SalesReport, error) {
	sales, err := s.sales.List(ctx)
	if err != nil {
		return SalesReport{}, fmt.Errorf("load sales: %w", err)
	}

	inPeriod := make([]models.Sale, 0, len(sales))
	for _, sale := range sales {
		if !sale.Date.IsZero() && period.Contains(sale.Date.In(s.location)) {
			inPeriod = append(inPeriod, sale)
		}
	}

	return SalesReport{
		Period:    period,
		Daily:     SalesByDate(sales, period, s.location),
		TopDays:   TopDaysBySales(sales, DefaultTopDays, s.location),
		PeakHours: PeakHours(sales, DefaultPeakHours, s.location),
		Years:     Years(sales, s.location),
		Summary:   Summarize(inPeriod),
	}, nil
}

// GenerateDailyReport summarizes the local calendar day containing day,
// archives it when an archive is configured, and renders the message sent to
// the manager.
func (s *Service) GenerateDailyReport(ctx context.Context, day time.Time) (models.DailyReport, string, error) {
	sales, err := s.sales.List(ctx)
	if err != nil {
		return models.DailyReport{}, "", fmt.Errorf("load sales: %w", err)
	}

	local := day.In(s.location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
	end := start.AddDate(0, 0, 1)

	var todays []models.Sale
	for _, sale := range sales {
		if !sale.Date.Before(start) && sale.Date.Before(end) {
			todays = append(todays, sale)
		}
	}

	summary := Summarize(todays)
	report := models.DailyReport{
		Date:          start,
		Transactions:  summary.Transactions,
		Revenue:       summary.Revenue.InexactFloat64(),
		ItemsSold:     summary.ItemsSold,
		AverageTicket: summary.AverageTicket.InexactFloat64(),
		MedianTicket:  summary.MedianTicket.InexactFloat64(),
		PeakHour:      -1,
		CreatedAt:     time.Now().UTC(),
	}
	if peaks := PeakHours(todays, 1, s.location); len(peaks) > 0 {
		report.PeakHour = peaks[0].Hour
	}

	if s.archive != nil {
		if err := s.archive.SaveDailyReport(ctx, report); err != nil {
			s.logger.Error("failed to archive daily report", zap.Time("date", start), zap.Error(err))
		}
	}

	return report, FormatDailyReport(report, summary), nil
}

// RecentDailyReports returns the latest archived summaries, newest first.
func (s *Service) RecentDailyReports(ctx context.Context, limit int64) ([]models.DailyReport, error) {
	if s.archive == nil {
		return []models.DailyReport{}, nil
	}
	reports, err := s.archive.ListDailyReports(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list daily reports: %w", err)
	}
	return reports, nil
}

// FormatDailyReport renders the WhatsApp message for a daily summary.
func FormatDailyReport(report models.DailyReport, summary models.SalesSummary) string {
	date := report.Date.Format(dateLayout)
	if report.Transactions == 0 {
		return fmt.Sprintf("Daily sales (%s): no transactions recorded.", date)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Daily sales (%s)\n", date)
	fmt.Fprintf(&b, "Transactions: %d\n", report.Transactions)
	fmt.Fprintf(&b, "Items sold: %d\n", report.ItemsSold)
	fmt.Fprintf(&b, "Revenue: %s\n", currency.Format(summary.Revenue))
	fmt.Fprintf(&b, "Average ticket: %s\n", currency.Format(summary.AverageTicket))
	fmt.Fprintf(&b, "Median ticket: %s\n", currency.Format(summary.MedianTicket))
	if report.PeakHour >= 0 {
		fmt.Fprintf(&b, "Busiest hour: %02d:00-%02d:00", report.PeakHour, (report.PeakHour+1)%24)
	}
	return strings.TrimRight(b.String(), "\n")
}
