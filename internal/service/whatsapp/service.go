package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/config"
	"github.com/mamadbah2/kasir/internal/domain/models"
	client "github.com/mamadbah2/kasir/pkg/clients/whatsapp"
	"github.com/mamadbah2/kasir/pkg/currency"
)

const (
	shareBaseURL = "https://wa.me/"
	sendTimeout  = 10 * time.Second
)

// ReceiptService renders receipts and delivers messages over WhatsApp.
type ReceiptService struct {
	cfg    config.WhatsAppConfig
	client client.Client
	loc    *time.Location
	logger *zap.Logger
}

// NewReceiptService wires a new service instance. A nil client keeps
// rendering and share links working while delivery reports ErrDeliveryUnavailable.
func NewReceiptService(cfg config.WhatsAppConfig, client client.Client, loc *time.Location, logger *zap.Logger) *ReceiptService {
	svc := &ReceiptService{
		cfg:    cfg,
		client: client,
		loc:    loc,
		logger: logger,
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	svc.logger = svc.logger.Named("svc.whatsapp")
	return svc
}

// Receipt renders the sale and its wa.me share link.
func (s *ReceiptService) Receipt(sale models.Sale) models.Receipt {
	text := ReceiptText(sale, s.loc)
	receipt := models.Receipt{SaleID: sale.ID, Text: text}

	if number := NormalizeNumber(sale.BuyerContact, s.cfg.CountryCode); number != "" {
		receipt.ShareLink = shareBaseURL + number + "?text=" + url.QueryEscape(text)
	}
	return receipt
}

// SendReceipt delivers the receipt to the buyer's WhatsApp number.
func (s *ReceiptService) SendReceipt(ctx context.Context, sale models.Sale) error {
	to := NormalizeNumber(sale.BuyerContact, s.cfg.CountryCode)
	if to == "" {
		return fmt.Errorf("send receipt %s: %w", sale.ID, models.ErrIncompleteBuyerInfo)
	}

	if err := s.send(ctx, to, ReceiptText(sale, s.loc)); err != nil {
		return fmt.Errorf("send receipt %s: %w", sale.ID, err)
	}

	s.logger.Info("receipt sent", zap.String("sale_id", sale.ID))
	return nil
}

// SendOutbound pushes a free-form notification, e.g. the daily report.
func (s *ReceiptService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	to := NormalizeNumber(req.To, s.cfg.CountryCode)
	if to == "" || strings.TrimSpace(req.Message) == "" {
		return errors.New("outbound message needs a recipient and a body")
	}
	return s.send(ctx, to, req.Message)
}

func (s *ReceiptService) send(ctx context.Context, to, body string) error {
	if s.client == nil {
		return models.ErrDeliveryUnavailable
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:   to,
		Body: body,
	})
	return err
}

// ReceiptText renders a sale as a WhatsApp-formatted receipt.
func ReceiptText(sale models.Sale, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	at := sale.Date.In(loc)

	var b strings.Builder
	b.WriteString("*Receipt Details*\n")
	fmt.Fprintf(&b, "Buyer: %s\n", sale.BuyerName)
	fmt.Fprintf(&b, "Date: %s\n", at.Format("02/01/2006"))
	fmt.Fprintf(&b, "Time: %s\n", at.Format("15.04.05"))
	b.WriteString("\n*Items:*\n")
	for _, item := range sale.Items {
		fmt.Fprintf(&b, "%s x %d = %s\n", item.Name, item.Quantity, currency.Format(item.LineTotal()))
	}
	fmt.Fprintf(&b, "\n*Total:* %s\n", currency.Format(sale.Total))
	fmt.Fprintf(&b, "*Paid:* %s\n", currency.Format(sale.AmountPaid))
	fmt.Fprintf(&b, "*Change:* %s", currency.Format(sale.Change))
	return b.String()
}

// NormalizeNumber strips everything but digits and replaces a leading trunk
// zero with the country code, so "0812-345" becomes "62812345".
func NormalizeNumber(raw, countryCode string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "0") && countryCode != "" {
		raw = countryCode + raw[1:]
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
}
