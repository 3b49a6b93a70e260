package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jinsharnammedia/commerce/internal/domain"
	"github.com/jinsharnammedia/commerce/internal/gateway"
	"github.com/jinsharnammedia/commerce/internal/repository"
	apperrors "github.com/jinsharnammedia/commerce/pkg/errors"
)

// IntentCreator creates payment intents at the gateway.
// gateway.Client satisfies this.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount int64, receipt string) (*gateway.Intent, error)
	KeyID() string
	Currency() string
}

// SignatureVerifier validates gateway payment signatures.
// gateway.SignatureVerifier satisfies this.
type SignatureVerifier interface {
	Verify(intentID, paymentID, signature string) error
}

// CartLine is a single client cart entry. The struct is deliberately closed:
// clients name a product and a quantity, nothing else. Prices come from the
// catalog alone.
type CartLine struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

// maxLineQuantity bounds a single cart line. Keeps quantity*unit_price well
// inside int64 and rejects obviously bogus carts.
const maxLineQuantity = 10_000

// resolveCart turns client cart lines into priced order items using a single
// batched catalog read. Quantities below 1 are clamped to 1; quantities above
// maxLineQuantity are rejected. Any product that is unknown or inactive fails
// the whole resolution.
func resolveCart(ctx context.Context, products repository.ProductRepository, lines []CartLine) ([]domain.OrderItem, int64, error) {
	if len(lines) == 0 {
		return nil, 0, apperrors.InvalidInput("cart is empty")
	}

	ids := make([]string, len(lines))
	for i, line := range lines {
		if line.ProductID == "" {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("cart line %d: product_id is required", i))
		}
		ids[i] = line.ProductID
	}

	catalog, err := products.GetActiveByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve cart products: %w", err)
	}

	var subtotal int64
	items := make([]domain.OrderItem, len(lines))
	for i, line := range lines {
		product, ok := catalog[line.ProductID]
		if !ok {
			return nil, 0, apperrors.InvalidInput(
				fmt.Sprintf("product %s is unavailable", line.ProductID))
		}

		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		if qty > maxLineQuantity {
			return nil, 0, apperrors.InvalidInput(
				fmt.Sprintf("quantity for product %s exceeds the maximum of %d", line.ProductID, maxLineQuantity))
		}

		items[i] = domain.OrderItem{
			ID:        uuid.New().String(),
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.UnitPrice,
			Quantity:  qty,
		}
		subtotal += items[i].LineTotal()
	}

	return items, subtotal, nil
}

// CheckoutService implements cart resolution, payment intent creation, and
// payment verification.
type CheckoutService struct {
	products    repository.ProductRepository
	orders      *OrderService
	gateway     IntentCreator
	verifier    SignatureVerifier
	deliveryFee int64
	logger      *slog.Logger
}

// NewCheckoutService creates a new checkout service. deliveryFee is the flat
// per-order delivery charge in minor units.
func NewCheckoutService(
	products repository.ProductRepository,
	orders *OrderService,
	gw IntentCreator,
	verifier SignatureVerifier,
	deliveryFee int64,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		products:    products,
		orders:      orders,
		gateway:     gw,
		verifier:    verifier,
		deliveryFee: deliveryFee,
		logger:      logger,
	}
}

// ResolveCart prices the given cart lines against the catalog. It is a pure
// read; nothing is reserved or persisted.
func (s *CheckoutService) ResolveCart(ctx context.Context, lines []CartLine) ([]domain.OrderItem, int64, error) {
	return resolveCart(ctx, s.products, lines)
}

// CreateIntentInput holds the parameters for creating a payment intent.
type CreateIntentInput struct {
	Items []CartLine `json:"items" validate:"required,min=1,dive"`
}

// PaymentIntentOutput is what the client needs to open the payment widget.
// The gateway secret never appears here.
type PaymentIntentOutput struct {
	IntentID string `json:"intent_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

// CreatePaymentIntent resolves the cart and registers a payment intent for
// subtotal plus delivery at the gateway. Nothing is persisted: a failed or
// abandoned intent leaves no trace, and the client may simply retry.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, session domain.Session, input *CreateIntentInput) (*PaymentIntentOutput, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("checkout input is required")
	}

	_, subtotal, err := s.ResolveCart(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	grandTotal := subtotal + s.deliveryFee

	receipt := uuid.New().String()
	intent, err := s.gateway.CreateIntent(ctx, grandTotal, receipt)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "payment intent issued",
		slog.String("user_id", session.UserID),
		slog.String("intent_id", intent.ID),
		slog.Int64("amount", grandTotal),
	)

	return &PaymentIntentOutput{
		IntentID: intent.ID,
		Amount:   grandTotal,
		Currency: intent.Currency,
		KeyID:    s.gateway.KeyID(),
	}, nil
}

// VerifyPaymentInput holds a completed payment claim together with the cart
// it pays for.
type VerifyPaymentInput struct {
	IntentID        string          `json:"intent_id" validate:"required"`
	PaymentID       string          `json:"payment_id" validate:"required"`
	Signature       string          `json:"signature" validate:"required"`
	Items           []CartLine      `json:"items" validate:"required,min=1,dive"`
	ShippingAddress *domain.Address `json:"shipping_address"`
}

// VerifyAndCreateOrder checks the payment claim's HMAC signature and, if it
// holds, persists the paid order. The cart is re-priced from the catalog; the
// client's idea of the total is never consulted.
func (s *CheckoutService) VerifyAndCreateOrder(ctx context.Context, session domain.Session, input *VerifyPaymentInput) (*domain.Order, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("verification input is required")
	}

	if err := s.verifier.Verify(input.IntentID, input.PaymentID, input.Signature); err != nil {
		s.logger.WarnContext(ctx, "payment verification failed",
			slog.String("user_id", session.UserID),
			slog.String("intent_id", input.IntentID),
			slog.String("payment_id", input.PaymentID),
		)
		return nil, err
	}

	paymentStatus := domain.PaymentStatusPaid
	order, err := s.orders.CreateOrder(ctx, session, CreateOrderInput{
		Items:           input.Items,
		ShippingAddress: input.ShippingAddress,
		PaymentID:       &input.PaymentID,
		PaymentStatus:   &paymentStatus,
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}
