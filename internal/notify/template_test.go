package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinsharnammedia/commerce/internal/domain"
)

func TestStatusEmail_RendersAllSections(t *testing.T) {
	contact := &domain.UserContact{Name: "Asha", Email: "asha@example.com"}
	order := &domain.Order{
		ID:     "ord-1",
		Status: domain.OrderStatusShipped,
		Items: []domain.OrderItem{
			{Name: "Annual Subscription", UnitPrice: 29900, Quantity: 2},
			{Name: "Tote Bag", UnitPrice: 5000, Quantity: 1},
		},
		DeliveryAmount: 4000,
		TotalAmount:    68800,
		ShippingAddress: &domain.Address{
			FullName:    "Asha K",
			AddressLine: "12 Park Street",
			City:        "Kochi",
			State:       "KL",
			PostalCode:  "682001",
			Country:     "IN",
		},
	}

	email, err := StatusEmail(contact, order)
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", email.To)
	assert.Equal(t, "Asha", email.ToName)
	assert.Equal(t, "Order ord-1: shipped", email.Subject)

	assert.Contains(t, email.Body, "Hi Asha,")
	assert.Contains(t, email.Body, "Your order ord-1 is now shipped.")
	assert.Contains(t, email.Body, "2 x Annual Subscription - 598.00")
	assert.Contains(t, email.Body, "1 x Tote Bag - 50.00")
	assert.Contains(t, email.Body, "Delivery: 40.00")
	assert.Contains(t, email.Body, "Total: 688.00")
	assert.Contains(t, email.Body, "12 Park Street")
}

func TestStatusEmail_NoAddress(t *testing.T) {
	contact := &domain.UserContact{Name: "Ravi", Email: "ravi@example.com"}
	order := &domain.Order{
		ID:     "ord-2",
		Status: domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{Name: "Sticker Pack", UnitPrice: 199, Quantity: 1},
		},
		TotalAmount: 199,
	}

	email, err := StatusEmail(contact, order)
	require.NoError(t, err)

	assert.NotContains(t, email.Body, "Shipping to:")
	assert.Contains(t, email.Body, "Total: 1.99")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", formatAmount(0))
	assert.Equal(t, "0.05", formatAmount(5))
	assert.Equal(t, "1.99", formatAmount(199))
	assert.Equal(t, "648.00", formatAmount(64800))
	assert.Equal(t, "-1.50", formatAmount(-150))
}
