package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jinsharnammedia/commerce/internal/domain"
	"github.com/jinsharnammedia/commerce/internal/event"
	"github.com/jinsharnammedia/commerce/internal/notify"
	"github.com/jinsharnammedia/commerce/internal/repository"
	apperrors "github.com/jinsharnammedia/commerce/pkg/errors"
)

// OrderCache is the subset of the Redis cache the order service uses. All
// calls are best-effort.
type OrderCache interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	Set(ctx context.Context, order *domain.Order) error
	Invalidate(ctx context.Context, id string) error
}

// OrderService implements order persistence, retrieval, and the admin status
// machine.
type OrderService struct {
	repo        repository.OrderRepository
	products    repository.ProductRepository
	users       repository.UserRepository
	cache       OrderCache
	producer    *event.Producer
	sender      notify.Sender
	deliveryFee int64
	logger      *slog.Logger
}

// NewOrderService creates a new order service. cache may be nil when Redis
// is not configured. deliveryFee is the flat per-order delivery charge in
// minor units.
func NewOrderService(
	repo repository.OrderRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	cache OrderCache,
	producer *event.Producer,
	sender notify.Sender,
	deliveryFee int64,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		repo:        repo,
		products:    products,
		users:       users,
		cache:       cache,
		producer:    producer,
		sender:      sender,
		deliveryFee: deliveryFee,
		logger:      logger,
	}
}

// CreateOrderInput holds the parameters for creating an order. Items carry
// product ids and quantities only; prices are resolved server-side.
type CreateOrderInput struct {
	Items           []CartLine      `json:"items" validate:"required,min=1,dive"`
	ShippingAddress *domain.Address `json:"shipping_address"`

	// Set by the verified-payment path, never taken from a request body.
	PaymentID     *string `json:"-"`
	PaymentStatus *string `json:"-"`
}

// CreateOrder re-resolves the cart against the catalog and persists the
// order header plus all item snapshots in one transaction. When a payment id
// is supplied and an order for it already exists, the existing order is
// returned unchanged: one payment buys exactly one order.
func (s *OrderService) CreateOrder(ctx context.Context, session domain.Session, input CreateOrderInput) (*domain.Order, error) {
	if session.UserID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	items, subtotal, err := resolveCart(ctx, s.products, input.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	orderID := uuid.New().String()
	for i := range items {
		items[i].OrderID = orderID
	}

	order := &domain.Order{
		ID:              orderID,
		UserID:          session.UserID,
		Status:          domain.OrderStatusPending,
		PaymentID:       input.PaymentID,
		PaymentStatus:   input.PaymentStatus,
		Items:           items,
		DeliveryAmount:  s.deliveryFee,
		TotalAmount:     subtotal + s.deliveryFee,
		ShippingAddress: input.ShippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) && input.PaymentID != nil {
			existing, lookupErr := s.repo.GetByPaymentID(ctx, *input.PaymentID)
			if lookupErr != nil {
				return nil, fmt.Errorf("load order for replayed payment: %w", lookupErr)
			}
			// A replay only counts as idempotent for the user who placed the
			// order; anyone else holding the claim gets nothing back.
			if existing.UserID != session.UserID {
				s.logger.WarnContext(ctx, "replayed payment from another user",
					slog.String("payment_id", *input.PaymentID),
					slog.String("order_user_id", existing.UserID),
					slog.String("session_user_id", session.UserID),
				)
				return nil, apperrors.Forbidden("payment is already bound to another user's order")
			}
			s.logger.InfoContext(ctx, "replayed payment, returning existing order",
				slog.String("payment_id", *input.PaymentID),
				slog.String("order_id", existing.ID),
			)
			return existing, nil
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.Int64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// GetOrder retrieves an order by its ID. Non-admin sessions may only read
// their own orders.
func (s *OrderService) GetOrder(ctx context.Context, session domain.Session, id string) (*domain.Order, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "order cache read failed",
				slog.String("order_id", id),
				slog.String("error", err.Error()),
			)
		} else if cached != nil {
			if !session.IsAdmin && cached.UserID != session.UserID {
				return nil, apperrors.Forbidden("order belongs to another user")
			}
			return cached, nil
		}
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}

	if !session.IsAdmin && order.UserID != session.UserID {
		return nil, apperrors.Forbidden("order belongs to another user")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, order); err != nil {
			s.logger.WarnContext(ctx, "order cache write failed",
				slog.String("order_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return order, nil
}

// ListOrders returns a filtered, paginated list of orders. Non-admin sessions
// always see their own orders only, regardless of the requested filter.
func (s *OrderService) ListOrders(ctx context.Context, session domain.Session, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if !session.IsAdmin {
		filter.UserID = &session.UserID
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

// UpdateOrderStatus transitions the order to a new status. Admin only; the
// transition must appear in the domain transition table. The notification
// and event that follow a successful transition are best-effort: their
// failure is logged and never undoes the committed write.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, session domain.Session, id string, newStatus string) (*domain.Order, error) {
	if !session.IsAdmin {
		return nil, apperrors.Forbidden("only administrators can change order status")
	}

	if !domain.IsValidStatus(newStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s",
			newStatus, strings.Join(domain.ValidStatuses(), ", ")))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}

	if !order.CanTransitionTo(newStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cannot transition from %q to %q", order.Status, newStatus))
	}

	oldStatus := order.Status

	// Compare-and-set against the status just read: a concurrent transition
	// in between surfaces as Conflict instead of silently bypassing the table.
	if err := s.repo.UpdateStatus(ctx, id, oldStatus, newStatus); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = newStatus

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "order cache invalidation failed",
				slog.String("order_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishOrderStatusChanged(ctx, id, oldStatus, newStatus); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.notifyStatusChange(ctx, order)

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id),
		slog.String("old_status", oldStatus),
		slog.String("new_status", newStatus),
	)

	return order, nil
}

// notifyStatusChange emails the order owner about the new status. Failures
// are logged and swallowed: the transition is already committed.
func (s *OrderService) notifyStatusChange(ctx context.Context, order *domain.Order) {
	contact, err := s.users.GetContact(ctx, order.UserID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load contact for status notification",
			slog.String("order_id", order.ID),
			slog.String("user_id", order.UserID),
			slog.String("error", err.Error()),
		)
		return
	}

	email, err := notify.StatusEmail(contact, order)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to render status notification",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.sender.Send(ctx, email); err != nil {
		s.logger.ErrorContext(ctx, "failed to send status notification",
			slog.String("order_id", order.ID),
			slog.String("sender", s.sender.Name()),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.InfoContext(ctx, "status notification sent",
		slog.String("order_id", order.ID),
		slog.String("to", email.To),
	)
}
