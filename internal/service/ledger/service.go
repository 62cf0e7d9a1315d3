package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/domain/models"
	"github.com/mamadbah2/kasir/internal/repository/realtime"
	"github.com/mamadbah2/kasir/pkg/currency"
)

// SalesCollection holds every finalized sale.
const SalesCollection = "sales"

// Mirror receives a copy of every recorded sale, e.g. a spreadsheet.
type Mirror interface {
	AppendSale(ctx context.Context, sale models.Sale) error
}

// FinalizeRequest carries the checkout form.
type FinalizeRequest struct {
	Lines        []models.CartLine
	BuyerName    string
	BuyerContact string
	AmountPaid   string
}

// Service appends and replays sales.
type Service struct {
	store  realtime.Store
	mirror Mirror
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates the ledger. mirror may be nil.
func NewService(store realtime.Store, mirror Mirror, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		mirror: mirror,
		now:    time.Now,
		logger: logger.Named("svc.ledger"),
	}
}

// Finalize validates the checkout and records the sale. The cart is left
// untouched; settling it is up to the caller.
func (s *Service) Finalize(ctx context.Context, req FinalizeRequest) (*models.Sale, error) {
	lines := make([]models.CartLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.Quantity > 0 {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, models.ErrEmptyCart
	}

	subtotal := models.Subtotal(lines)
	paid, ok := currency.ParseAmount(req.AmountPaid)
	if !ok {
		return nil, fmt.Errorf("amount %q: %w", req.AmountPaid, models.ErrInvalidPayment)
	}
	if paid.LessThan(subtotal) {
		return nil, fmt.Errorf("paid %s of %s: %w", paid, subtotal, models.ErrInvalidPayment)
	}

	name := strings.TrimSpace(req.BuyerName)
	contact := strings.TrimSpace(req.BuyerContact)
	if name == "" || contact == "" {
		return nil, models.ErrIncompleteBuyerInfo
	}

	sale := models.Sale{
		Date:         s.now().UTC(),
		Items:        models.SaleItemsFromCart(lines),
		Total:        subtotal,
		AmountPaid:   paid,
		Change:       paid.Sub(subtotal),
		BuyerName:    name,
		BuyerContact: contact,
	}

	raw, err := models.EncodeSale(sale)
	if err != nil {
		return nil, fmt.Errorf("encode sale: %w", err)
	}
	id, err := s.store.Push(ctx, SalesCollection, raw)
	if err != nil {
		return nil, fmt.Errorf("record sale: %w: %w", models.ErrPersistence, err)
	}
	sale.ID = id

	s.logger.Info("sale recorded",
		zap.String("sale_id", id),
		zap.String("total", sale.Total.String()),
		zap.String("change", sale.Change.String()),
		zap.Int("items", sale.UnitsSold()),
	)

	if s.mirror != nil {
		if err := s.mirror.AppendSale(ctx, sale); err != nil {
			s.logger.Error("failed to mirror sale", zap.String("sale_id", id), zap.Error(err))
		}
	}

	return &sale, nil
}

// Get returns one sale by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Sale, error) {
	if id == "" || strings.Contains(id, "/") {
		return nil, fmt.Errorf("sale %q: %w", id, models.ErrSaleNotFound)
	}
	raw, err := s.store.Get(ctx, realtime.Join(SalesCollection, id))
	if err != nil {
		return nil, fmt.Errorf("get sale %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("sale %s: %w", id, models.ErrSaleNotFound)
	}
	sale, err := models.DecodeSale(id, raw)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// List replays the whole ledger ordered by date.
func (s *Service) List(ctx context.Context) ([]models.Sale, error) {
	snap, err := s.store.List(ctx, SalesCollection)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	sales := make([]models.Sale, 0, len(snap))
	for id, raw := range snap {
		sale, err := models.DecodeSale(id, raw)
		if err != nil {
			s.logger.Warn("skipping unreadable sale", zap.String("sale_id", id), zap.Error(err))
			continue
		}
		sales = append(sales, sale)
	}
	sort.SliceStable(sales, func(i, j int) bool {
		if !sales[i].Date.Equal(sales[j].Date) {
			return sales[i].Date.Before(sales[j].Date)
		}
		return sales[i].ID < sales[j].ID
	})
	return sales, nil
}
