package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/domain/models"
	"github.com/mamadbah2/kasir/internal/repository/realtime"
)

// ProductsCollection is where every product node lives.
const ProductsCollection = "products"

// Service reads and maintains the product catalog.
type Service struct {
	store  realtime.Store
	logger *zap.Logger
}

// NewProduct describes a product created from the stock screen.
type NewProduct struct {
	Name    string
	Barcode string
	Price   decimal.Decimal
	Stock   int
}

// NewService creates the catalog service.
func NewService(store realtime.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger.Named("svc.catalog")}
}

// ProductPath returns the store path of a product key.
func ProductPath(id string) string {
	return realtime.Join(ProductsCollection, id)
}

// List returns every product ordered by name.
func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	snap, err := s.store.List(ctx, ProductsCollection)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return s.decode(snap), nil
}

// Product returns a single product by storage key.
func (s *Service) Product(ctx context.Context, id string) (models.Product, error) {
	if !validKey(id) {
		return models.Product{}, fmt.Errorf("product %q: %w", id, models.ErrProductNotFound)
	}
	raw, err := s.store.Get(ctx, ProductPath(id))
	if err != nil {
		return models.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	if raw == nil {
		return models.Product{}, fmt.Errorf("product %s: %w", id, models.ErrProductNotFound)
	}
	return models.DecodeProduct(id, raw)
}

// FindByBarcode locates a product by barcode. Storage keys may differ from
// barcodes, so the whole collection is scanned.
func (s *Service) FindByBarcode(ctx context.Context, barcode string) (models.Product, error) {
	barcode = strings.TrimSpace(barcode)
	products, err := s.List(ctx)
	if err != nil {
		return models.Product{}, err
	}
	for _, p := range products {
		if p.Barcode == barcode {
			return p, nil
		}
	}
	return models.Product{}, fmt.Errorf("barcode %s: %w", barcode, models.ErrProductNotFound)
}

// Subscribe streams the catalog after every change until ctx is done.
func (s *Service) Subscribe(ctx context.Context) (<-chan []models.Product, error) {
	updates, err := s.store.Watch(ctx, ProductsCollection)
	if err != nil {
		return nil, fmt.Errorf("watch products: %w", err)
	}

	out := make(chan []models.Product, 1)
	go func() {
		defer close(out)
		for snap := range updates {
			select {
			case out <- s.decode(snap):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// SetStock overwrites the stock of a product, keeping its other fields.
func (s *Service) SetStock(ctx context.Context, id string, stock int) error {
	if stock < 0 {
		return fmt.Errorf("stock %d: %w", stock, models.ErrInvalidQuantity)
	}
	if !validKey(id) {
		return fmt.Errorf("product %q: %w", id, models.ErrProductNotFound)
	}

	path := ProductPath(id)
	res, err := s.store.Transact(ctx, []string{path}, func(current map[string][]byte) (map[string][]byte, error) {
		raw := current[path]
		if raw == nil {
			return nil, fmt.Errorf("product %s: %w", id, models.ErrProductNotFound)
		}
		next, err := models.PatchDocument(raw, map[string]any{"stock": stock})
		if err != nil {
			return nil, err
		}
		return map[string][]byte{path: next}, nil
	})
	if err != nil {
		return fmt.Errorf("set stock %s: %w", id, err)
	}
	if !res.Committed {
		return fmt.Errorf("set stock %s: %w", id, models.ErrReservationConflict)
	}

	s.logger.Info("stock updated", zap.String("product_id", id), zap.Int("stock", stock))
	return nil
}

// CreateProduct stores a new product under its barcode. A barcode already in
// the catalog is rejected, whatever key the existing product is stored under.
func (s *Service) CreateProduct(ctx context.Context, in NewProduct) (models.Product, error) {
	p := models.Product{
		ID:        strings.TrimSpace(in.Barcode),
		Name:      strings.TrimSpace(in.Name),
		Barcode:   strings.TrimSpace(in.Barcode),
		UnitPrice: in.Price,
		Stock:     in.Stock,
	}
	switch {
	case p.Name == "":
		return models.Product{}, fmt.Errorf("name is required: %w", models.ErrInvalidProduct)
	case !validKey(p.Barcode):
		return models.Product{}, fmt.Errorf("barcode %q: %w", p.Barcode, models.ErrInvalidProduct)
	case p.UnitPrice.IsNegative():
		return models.Product{}, fmt.Errorf("price must not be negative: %w", models.ErrInvalidProduct)
	case p.Stock < 0:
		return models.Product{}, fmt.Errorf("stock must not be negative: %w", models.ErrInvalidProduct)
	}

	if _, err := s.FindByBarcode(ctx, p.Barcode); err == nil {
		return models.Product{}, fmt.Errorf("barcode %s: %w", p.Barcode, models.ErrProductExists)
	} else if !errors.Is(err, models.ErrProductNotFound) {
		return models.Product{}, fmt.Errorf("create product %s: %w", p.Barcode, err)
	}

	raw, err := models.EncodeProduct(p)
	if err != nil {
		return models.Product{}, fmt.Errorf("encode product: %w", err)
	}

	// The key node must still be absent at commit time.
	path := ProductPath(p.ID)
	res, err := s.store.Transact(ctx, []string{path}, func(current map[string][]byte) (map[string][]byte, error) {
		if current[path] != nil {
			return nil, fmt.Errorf("barcode %s: %w", p.Barcode, models.ErrProductExists)
		}
		return map[string][]byte{path: raw}, nil
	})
	if err != nil {
		return models.Product{}, fmt.Errorf("create product %s: %w", p.Barcode, err)
	}
	if !res.Committed {
		return models.Product{}, fmt.Errorf("create product %s: %w", p.Barcode, models.ErrReservationConflict)
	}

	s.logger.Info("product created", zap.String("barcode", p.Barcode), zap.String("name", p.Name))
	return p, nil
}

// UpdateStockByBarcode sets the stock of the product carrying barcode.
func (s *Service) UpdateStockByBarcode(ctx context.Context, barcode string, stock int) error {
	p, err := s.FindByBarcode(ctx, barcode)
	if err != nil {
		return err
	}
	return s.SetStock(ctx, p.ID, stock)
}

// DeleteByBarcode removes the product carrying barcode.
func (s *Service) DeleteByBarcode(ctx context.Context, barcode string) error {
	p, err := s.FindByBarcode(ctx, barcode)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, ProductPath(p.ID)); err != nil {
		return fmt.Errorf("delete product %s: %w", p.ID, err)
	}

	s.logger.Info("product deleted", zap.String("barcode", p.Barcode), zap.String("product_id", p.ID))
	return nil
}

func (s *Service) decode(snap realtime.Snapshot) []models.Product {
	products := make([]models.Product, 0, len(snap))
	for key, raw := range snap {
		p, err := models.DecodeProduct(key, raw)
		if err != nil {
			s.logger.Warn("skipping unreadable product", zap.String("product_id", key), zap.Error(err))
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name != products[j].Name {
			return products[i].Name < products[j].Name
		}
		return products[i].ID < products[j].ID
	})
	return products
}

func validKey(key string) bool {
	return key != "" && !strings.Contains(key, "/")
}
