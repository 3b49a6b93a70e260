package repository

import (
	"context"

	"github.com/jinsharnammedia/commerce/internal/domain"
)

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	UserID  *string
	Status  *string
	Page    int
	PerPage int
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts a new order and its items into the store atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier, including items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByPaymentID retrieves the order created for the given gateway
	// payment id, including items.
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error)

	// List returns orders matching the given filter along with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus moves the fulfilment status of an order from fromStatus
	// to toStatus. The write only lands if the stored status still equals
	// fromStatus; a concurrent change surfaces as ErrConflict.
	UpdateStatus(ctx context.Context, id string, fromStatus, toStatus string) error
}

// ProductRepository provides read access to the catalog for price resolution.
type ProductRepository interface {
	// GetActiveByIDs returns the active products among the given ids, keyed
	// by product id. Missing or inactive ids are simply absent from the map.
	GetActiveByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

// UserRepository provides read access to user contact details for
// notifications.
type UserRepository interface {
	// GetContact returns the name and email of the given user.
	GetContact(ctx context.Context, id string) (*domain.UserContact, error)
}
