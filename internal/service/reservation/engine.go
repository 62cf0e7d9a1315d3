// Package reservation keeps the shared cart and product stock consistent.
//
// Every change to a cart line moves the same number of units out of (or back
// into) the product's stock inside one store transaction over both nodes, so
// stock + reserved quantity is constant for every product at every committed
// state.
package reservation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/domain/models"
	"github.com/mamadbah2/kasir/internal/repository/realtime"
	"github.com/mamadbah2/kasir/internal/service/catalog"
)

// DefaultCartID is the single cart shared by every terminal.
const DefaultCartID = "global"

const clearPasses = 5

// CheckoutLease bounds how long a checkout claim blocks other terminals when
// its holder never releases it.
const CheckoutLease = 30 * time.Second

// Engine mutates the shared cart.
type Engine struct {
	store  realtime.Store
	cartID string
	now    func() time.Time
	logger *zap.Logger
}

// NewEngine creates an engine for the cart identified by cartID.
func NewEngine(store realtime.Store, cartID string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cartID == "" {
		cartID = DefaultCartID
	}
	return &Engine{
		store:  store,
		cartID: cartID,
		now:    time.Now,
		logger: logger.Named("svc.reservation").With(zap.String("cart_id", cartID)),
	}
}

// ItemsPath is the collection holding the cart lines.
func (e *Engine) ItemsPath() string {
	return realtime.Join("cart", e.cartID, "items")
}

func (e *Engine) linePath(productID string) string {
	return realtime.Join(e.ItemsPath(), productID)
}

// target computes the wanted line quantity from the product and the current
// line, which is nil when the product is not in the cart. Zero drops the line.
type target func(product models.Product, line *models.CartLine) (int, error)

// Add reserves one more unit of the product, opening a line if needed.
func (e *Engine) Add(ctx context.Context, productID string) (models.CartLine, error) {
	if !validID(productID) {
		return models.CartLine{}, fmt.Errorf("add %q: %w", productID, models.ErrProductNotFound)
	}

	// Cheap rejection on a possibly stale read; the transaction checks again.
	raw, err := e.store.Get(ctx, catalog.ProductPath(productID))
	if err != nil {
		return models.CartLine{}, fmt.Errorf("add %s: %w", productID, err)
	}
	if raw == nil {
		return models.CartLine{}, fmt.Errorf("add %s: %w", productID, models.ErrProductNotFound)
	}
	if p, err := models.DecodeProduct(productID, raw); err == nil && !p.Available() {
		return models.CartLine{}, fmt.Errorf("add %s: %w", productID, models.ErrInsufficientStock)
	}

	line, err := e.adjust(ctx, productID, func(_ models.Product, line *models.CartLine) (int, error) {
		if line == nil {
			return 1, nil
		}
		return line.Quantity + 1, nil
	})
	if err != nil {
		return models.CartLine{}, fmt.Errorf("add %s: %w", productID, err)
	}

	e.logger.Debug("unit reserved", zap.String("product_id", productID), zap.Int("quantity", line.Quantity))
	return line, nil
}

// SetQuantity sets the reserved quantity of an existing line to n.
func (e *Engine) SetQuantity(ctx context.Context, productID string, n int) (models.CartLine, error) {
	if n < 1 || n > models.MaxQuantity {
		return models.CartLine{}, fmt.Errorf("set quantity %s to %d: %w", productID, n, models.ErrInvalidQuantity)
	}
	if !validID(productID) {
		return models.CartLine{}, fmt.Errorf("set quantity %q: %w", productID, models.ErrLineNotFound)
	}

	line, err := e.adjust(ctx, productID, func(_ models.Product, line *models.CartLine) (int, error) {
		if line == nil {
			return 0, models.ErrLineNotFound
		}
		return n, nil
	})
	if err != nil {
		return models.CartLine{}, fmt.Errorf("set quantity %s to %d: %w", productID, n, err)
	}
	return line, nil
}

// SetQuantityInput applies a quantity typed by the cashier. Anything that is
// not a positive whole number is rejected and the line keeps its quantity.
func (e *Engine) SetQuantityInput(ctx context.Context, productID, input string) (models.CartLine, error) {
	n, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil || !n.IsPositive() || !models.QuantityInRange(n) {
		return models.CartLine{}, fmt.Errorf("quantity %q: %w", input, models.ErrInvalidQuantity)
	}
	return e.SetQuantity(ctx, productID, int(n.IntPart()))
}

// Increment reserves one more unit on an existing line.
func (e *Engine) Increment(ctx context.Context, productID string) (models.CartLine, error) {
	if !validID(productID) {
		return models.CartLine{}, fmt.Errorf("increment %q: %w", productID, models.ErrLineNotFound)
	}
	line, err := e.adjust(ctx, productID, func(_ models.Product, line *models.CartLine) (int, error) {
		if line == nil {
			return 0, models.ErrLineNotFound
		}
		return line.Quantity + 1, nil
	})
	if err != nil {
		return models.CartLine{}, fmt.Errorf("increment %s: %w", productID, err)
	}
	return line, nil
}

// Decrement releases one unit of an existing line. A line at quantity 1 is
// left alone; Remove drops it.
func (e *Engine) Decrement(ctx context.Context, productID string) (models.CartLine, error) {
	if !validID(productID) {
		return models.CartLine{}, fmt.Errorf("decrement %q: %w", productID, models.ErrLineNotFound)
	}
	line, err := e.adjust(ctx, productID, func(_ models.Product, line *models.CartLine) (int, error) {
		if line == nil {
			return 0, models.ErrLineNotFound
		}
		if line.Quantity <= 1 {
			return 0, models.ErrInvalidQuantity
		}
		return line.Quantity - 1, nil
	})
	if err != nil {
		return models.CartLine{}, fmt.Errorf("decrement %s: %w", productID, err)
	}
	return line, nil
}

// adjust runs the joint transaction over the product and its cart line.
func (e *Engine) adjust(ctx context.Context, productID string, want target) (models.CartLine, error) {
	productPath := catalog.ProductPath(productID)
	linePath := e.linePath(productID)

	var result models.CartLine
	res, err := e.store.Transact(ctx, []string{productPath, linePath}, func(current map[string][]byte) (map[string][]byte, error) {
		rawProduct := current[productPath]
		if rawProduct == nil {
			return nil, models.ErrProductNotFound
		}
		product, err := models.DecodeProduct(productID, rawProduct)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrInvalidProduct, err)
		}

		var line *models.CartLine
		if raw := current[linePath]; raw != nil {
			decoded, err := models.DecodeCartLine(productID, raw)
			if err != nil {
				return nil, err
			}
			line = &decoded
		}

		quantity, err := want(product, line)
		if err != nil {
			return nil, err
		}

		held := 0
		if line != nil {
			held = line.Quantity
		}
		delta := quantity - held
		if delta > product.Stock {
			return nil, models.ErrInsufficientStock
		}

		nextProduct, err := models.PatchDocument(rawProduct, map[string]any{"stock": product.Stock - delta})
		if err != nil {
			return nil, err
		}
		next := map[string][]byte{productPath: nextProduct}

		if quantity <= 0 {
			result = models.CartLine{}
			next[linePath] = nil
			return next, nil
		}

		base := models.NewCartLine(product)
		if line != nil {
			base = *line
		}
		result = base.WithQuantity(quantity)
		nextLine, err := models.EncodeCartLine(result)
		if err != nil {
			return nil, err
		}
		next[linePath] = nextLine
		return next, nil
	})
	if err != nil {
		return models.CartLine{}, err
	}
	if !res.Committed {
		return models.CartLine{}, models.ErrReservationConflict
	}
	return result, nil
}

// Remove drops the line and returns its units to stock. Removing a product
// that is not in the cart does nothing.
func (e *Engine) Remove(ctx context.Context, productID string) error {
	if !validID(productID) {
		return nil
	}

	productPath := catalog.ProductPath(productID)
	linePath := e.linePath(productID)

	var (
		released int
		orphaned bool
	)
	res, err := e.store.Transact(ctx, []string{productPath, linePath}, func(current map[string][]byte) (map[string][]byte, error) {
		released, orphaned = 0, false

		rawLine := current[linePath]
		if rawLine == nil {
			return map[string][]byte{}, nil
		}
		line, err := models.DecodeCartLine(productID, rawLine)
		if err != nil {
			return nil, err
		}
		released = line.Quantity

		rawProduct := current[productPath]
		if rawProduct == nil {
			orphaned = true
			return map[string][]byte{linePath: nil}, nil
		}
		product, err := models.DecodeProduct(productID, rawProduct)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrInvalidProduct, err)
		}

		restock := line.Quantity
		if restock < 0 {
			restock = 0
		}
		nextProduct, err := models.PatchDocument(rawProduct, map[string]any{"stock": product.Stock + restock})
		if err != nil {
			return nil, err
		}
		return map[string][]byte{productPath: nextProduct, linePath: nil}, nil
	})
	if err != nil {
		return fmt.Errorf("remove %s: %w", productID, err)
	}
	if !res.Committed {
		return fmt.Errorf("remove %s: %w", productID, models.ErrReservationConflict)
	}

	if orphaned {
		e.logger.Warn("dropped line of deleted product, stock not restored",
			zap.String("product_id", productID), zap.Int("quantity", released))
	}
	return nil
}

// ClearAll returns every reserved unit to stock and empties the cart. Each
// line is released in its own transaction so no reservation is lost if a line
// is added while clearing. Clearing an empty cart does nothing.
func (e *Engine) ClearAll(ctx context.Context) error {
	for pass := 0; pass < clearPasses; pass++ {
		snap, err := e.store.List(ctx, e.ItemsPath())
		if err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		if len(snap) == 0 {
			return nil
		}

		ids := make([]string, 0, len(snap))
		for id := range snap {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		var errs []error
		for _, id := range ids {
			if err := e.Remove(ctx, id); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("clear cart: %w", errors.Join(errs...))
		}
		e.logger.Info("cart cleared", zap.Int("lines", len(ids)), zap.Int("pass", pass+1))
	}
	return fmt.Errorf("clear cart: lines kept appearing: %w", models.ErrReservationConflict)
}

// Settle releases the sold quantities from the cart after checkout. The units
// now belong to a sale, so stock is left as it is. A line that grew after the
// snapshot keeps the extra units reserved.
func (e *Engine) Settle(ctx context.Context, sold []models.CartLine) error {
	var errs []error
	for _, item := range sold {
		if err := e.settleLine(ctx, item); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("settle cart: %w", errors.Join(errs...))
	}
	return nil
}

func (e *Engine) settleLine(ctx context.Context, sold models.CartLine) error {
	if !validID(sold.ProductID) || sold.Quantity <= 0 {
		return nil
	}
	path := e.linePath(sold.ProductID)

	res, err := e.store.Transact(ctx, []string{path}, func(current map[string][]byte) (map[string][]byte, error) {
		raw := current[path]
		if raw == nil {
			return map[string][]byte{}, nil
		}
		line, err := models.DecodeCartLine(sold.ProductID, raw)
		if err != nil {
			return nil, err
		}
		left := line.Quantity - sold.Quantity
		if left <= 0 {
			return map[string][]byte{path: nil}, nil
		}
		next, err := models.EncodeCartLine(line.WithQuantity(left))
		if err != nil {
			return nil, err
		}
		return map[string][]byte{path: next}, nil
	})
	if err != nil {
		return fmt.Errorf("settle %s: %w", sold.ProductID, err)
	}
	if !res.Committed {
		return fmt.Errorf("settle %s: %w", sold.ProductID, models.ErrReservationConflict)
	}
	return nil
}

type checkoutClaim struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (e *Engine) checkoutPath() string {
	return realtime.Join("checkouts", e.cartID)
}

// ClaimCheckout makes the caller the only terminal checking out the cart until
// release is called or CheckoutLease passes. A live claim held by another
// terminal gives ErrCheckoutInProgress.
func (e *Engine) ClaimCheckout(ctx context.Context) (release func(), err error) {
	path := e.checkoutPath()
	token := uuid.NewString()

	res, err := e.store.Transact(ctx, []string{path}, func(current map[string][]byte) (map[string][]byte, error) {
		now := e.now()
		if raw := current[path]; raw != nil {
			var held checkoutClaim
			if err := json.Unmarshal(raw, &held); err == nil && held.ExpiresAt.After(now) {
				return nil, models.ErrCheckoutInProgress
			}
		}
		next, err := json.Marshal(checkoutClaim{Token: token, ExpiresAt: now.Add(CheckoutLease).UTC()})
		if err != nil {
			return nil, err
		}
		return map[string][]byte{path: next}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim checkout: %w", err)
	}
	if !res.Committed {
		return nil, fmt.Errorf("claim checkout: %w", models.ErrReservationConflict)
	}

	release = func() {
		if err := e.releaseCheckout(context.WithoutCancel(ctx), token); err != nil {
			e.logger.Warn("failed to release checkout claim", zap.Error(err))
		}
	}
	return release, nil
}

// releaseCheckout drops the claim only while it still carries token, so an
// expired claim taken over by another terminal is left alone.
func (e *Engine) releaseCheckout(ctx context.Context, token string) error {
	path := e.checkoutPath()
	res, err := e.store.Transact(ctx, []string{path}, func(current map[string][]byte) (map[string][]byte, error) {
		var held checkoutClaim
		if raw := current[path]; raw == nil || json.Unmarshal(raw, &held) != nil || held.Token != token {
			return map[string][]byte{}, nil
		}
		return map[string][]byte{path: nil}, nil
	})
	if err != nil {
		return err
	}
	if !res.Committed {
		return models.ErrReservationConflict
	}
	return nil
}

// Cart returns the current lines ordered by name.
func (e *Engine) Cart(ctx context.Context) ([]models.CartLine, error) {
	snap, err := e.store.List(ctx, e.ItemsPath())
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	return e.decode(snap), nil
}

// Watch streams the cart lines after every change until ctx is done.
func (e *Engine) Watch(ctx context.Context) (<-chan []models.CartLine, error) {
	updates, err := e.store.Watch(ctx, e.ItemsPath())
	if err != nil {
		return nil, fmt.Errorf("watch cart: %w", err)
	}

	out := make(chan []models.CartLine, 1)
	go func() {
		defer close(out)
		for snap := range updates {
			select {
			case out <- e.decode(snap):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (e *Engine) decode(snap realtime.Snapshot) []models.CartLine {
	lines := make([]models.CartLine, 0, len(snap))
	for id, raw := range snap {
		line, err := models.DecodeCartLine(id, raw)
		if err != nil {
			e.logger.Warn("skipping unreadable cart line", zap.String("product_id", id), zap.Error(err))
			continue
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Name != lines[j].Name {
			return lines[i].Name < lines[j].Name
		}
		return lines[i].ProductID < lines[j].ProductID
	})
	return lines
}

func validID(id string) bool {
	return id != "" && !strings.Contains(id, "/")
}
