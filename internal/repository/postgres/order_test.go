package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinsharnammedia/commerce/internal/domain"
	"github.com/jinsharnammedia/commerce/internal/repository"
	"github.com/jinsharnammedia/commerce/pkg/database"
	apperrors "github.com/jinsharnammedia/commerce/pkg/errors"
)

// --- Test Helpers ---

func newTestRepo(t *testing.T) (*OrderRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewOrderRepository(mock)
	return repo, mock
}

func sampleAddress() *domain.Address {
	return &domain.Address{
		FullName:    "Asha Rao",
		AddressLine: "14 Lakeview Road",
		City:        "Bengaluru",
		State:       "Karnataka",
		PostalCode:  "560034",
		Country:     "IN",
		Phone:       "+919855512345",
	}
}

func strPtr(s string) *string { return &s }

func sampleOrder() *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Order{
		ID:              "order-001",
		UserID:          "user-001",
		Status:          domain.OrderStatusPending,
		PaymentID:       strPtr("pay-001"),
		PaymentStatus:   strPtr(domain.PaymentStatusPaid),
		DeliveryAmount:  4000,
		TotalAmount:     64800,
		ShippingAddress: sampleAddress(),
		CreatedAt:       now,
		UpdatedAt:       now,
		Items: []domain.OrderItem{
			{
				ID:        "item-001",
				OrderID:   "order-001",
				ProductID: "prod-001",
				Name:      "Annual Subscription",
				UnitPrice: 29900,
				Quantity:  2,
			},
			{
				ID:        "item-002",
				OrderID:   "order-001",
				ProductID: "prod-002",
				Name:      "Tote Bag",
				UnitPrice: 1000,
				Quantity:  1,
			},
		},
	}
}

// --- Create Tests ---

func TestOrderRepository_Create_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	o := sampleOrder()

	mock.ExpectBegin()

	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.UserID, o.Status,
			o.PaymentID, o.PaymentStatus,
			o.DeliveryAmount, o.TotalAmount,
			pgxmock.AnyArg(), // shipping JSON
			o.CreatedAt, o.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	for _, item := range o.Items {
		mock.ExpectExec("INSERT INTO order_items").
			WithArgs(
				item.ID, item.OrderID, item.ProductID,
				item.Name, item.UnitPrice, item.Quantity,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	mock.ExpectCommit()

	err := repo.Create(context.Background(), o)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_DuplicatePaymentID(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.UserID, o.Status,
			o.PaymentID, o.PaymentStatus,
			o.DeliveryAmount, o.TotalAmount,
			pgxmock.AnyArg(),
			o.CreatedAt, o.UpdatedAt,
		).
		WillReturnError(&pgconn.PgError{
			Code:           uniqueViolationCode,
			ConstraintName: "orders_payment_id_key",
		})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), o)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_BeginError(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), sampleOrder())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_ItemInsertError(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			o.ID, o.UserID, o.Status,
			o.PaymentID, o.PaymentStatus,
			o.DeliveryAmount, o.TotalAmount,
			pgxmock.AnyArg(),
			o.CreatedAt, o.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// First item succeeds.
	item0 := o.Items[0]
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(
			item0.ID, item0.OrderID, item0.ProductID,
			item0.Name, item0.UnitPrice, item0.Quantity,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// Second item fails.
	item1 := o.Items[1]
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(
			item1.ID, item1.OrderID, item1.ProductID,
			item1.Name, item1.UnitPrice, item1.Quantity,
		).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), o)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert order item")

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- GetByID / GetByPaymentID Tests ---

func orderRowColumns() []string {
	return []string{
		"id", "user_id", "status", "payment_id", "payment_status",
		"delivery_amount", "total_amount", "shipping_address",
		"created_at", "updated_at", "items",
	}
}

func TestOrderRepository_GetByID_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	now := time.Now().UTC().Truncate(time.Microsecond)

	shippingJSON, err := json.Marshal(sampleAddress())
	require.NoError(t, err)

	itemsJSON, err := json.Marshal([]map[string]any{
		{
			"id":         "item-001",
			"order_id":   "order-001",
			"product_id": "prod-001",
			"name":       "Annual Subscription",
			"unit_price": 29900,
			"quantity":   2,
		},
		{
			"id":         "item-002",
			"order_id":   "order-001",
			"product_id": "prod-002",
			"name":       "Tote Bag",
			"unit_price": 1000,
			"quantity":   1,
		},
	})
	require.NoError(t, err)

	rows := pgxmock.NewRows(orderRowColumns()).AddRow(
		"order-001", "user-001", "pending",
		strPtr("pay-001"), strPtr("paid"),
		int64(4000), int64(64800),
		shippingJSON, now, now,
		itemsJSON,
	)

	mock.ExpectQuery("SELECT").
		WithArgs("order-001").
		WillReturnRows(rows)

	order, err := repo.GetByID(context.Background(), "order-001")
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, "order-001", order.ID)
	assert.Equal(t, "user-001", order.UserID)
	assert.Equal(t, "pending", order.Status)
	require.NotNil(t, order.PaymentID)
	assert.Equal(t, "pay-001", *order.PaymentID)
	require.NotNil(t, order.PaymentStatus)
	assert.Equal(t, "paid", *order.PaymentStatus)
	assert.Equal(t, int64(4000), order.DeliveryAmount)
	assert.Equal(t, int64(64800), order.TotalAmount)

	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, "Asha Rao", order.ShippingAddress.FullName)
	assert.Equal(t, "Bengaluru", order.ShippingAddress.City)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "item-001", order.Items[0].ID)
	assert.Equal(t, "Annual Subscription", order.Items[0].Name)
	assert.Equal(t, int64(29900), order.Items[0].UnitPrice)
	assert.Equal(t, "item-002", order.Items[1].ID)
	assert.Equal(t, 1, order.Items[1].Quantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_NoItemsNoPayment(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	now := time.Now().UTC().Truncate(time.Microsecond)

	rows := pgxmock.NewRows(orderRowColumns()).AddRow(
		"order-002", "user-002", "pending",
		nil, nil,
		int64(4000), int64(4000),
		nil, now, now,
		[]byte("[]"),
	)

	mock.ExpectQuery("SELECT").
		WithArgs("order-002").
		WillReturnRows(rows)

	order, err := repo.GetByID(context.Background(), "order-002")
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, "order-002", order.ID)
	assert.Nil(t, order.PaymentID)
	assert.Nil(t, order.PaymentStatus)
	assert.Nil(t, order.ShippingAddress)
	assert.Empty(t, order.Items)
	assert.NotNil(t, order.Items) // should be [] not nil

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectQuery("SELECT").
		WithArgs("nonexistent-id").
		WillReturnError(pgx.ErrNoRows)

	order, err := repo.GetByID(context.Background(), "nonexistent-id")
	assert.Nil(t, order)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByPaymentID_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	now := time.Now().UTC().Truncate(time.Microsecond)

	rows := pgxmock.NewRows(orderRowColumns()).AddRow(
		"order-003", "user-003", "pending",
		strPtr("pay-repeat"), strPtr("paid"),
		int64(4000), int64(9000),
		nil, now, now,
		[]byte("[]"),
	)

	mock.ExpectQuery("SELECT").
		WithArgs("pay-repeat").
		WillReturnRows(rows)

	order, err := repo.GetByPaymentID(context.Background(), "pay-repeat")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "order-003", order.ID)
	require.NotNil(t, order.PaymentID)
	assert.Equal(t, "pay-repeat", *order.PaymentID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByPaymentID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectQuery("SELECT").
		WithArgs("pay-unknown").
		WillReturnError(pgx.ErrNoRows)

	order, err := repo.GetByPaymentID(context.Background(), "pay-unknown")
	assert.Nil(t, order)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- List Tests ---

func listRowColumns() []string {
	return []string{
		"id", "user_id", "status", "payment_id", "payment_status",
		"delivery_amount", "total_amount", "shipping_address",
		"created_at", "updated_at", "total_count",
	}
}

func TestOrderRepository_List_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	now := time.Now().UTC().Truncate(time.Microsecond)

	shippingJSON, err := json.Marshal(sampleAddress())
	require.NoError(t, err)

	// Main query returns 2 orders with count(*) OVER() = 2.
	orderRows := pgxmock.NewRows(listRowColumns()).
		AddRow(
			"order-001", "user-001", "pending",
			strPtr("pay-001"), strPtr("paid"),
			int64(4000), int64(64800),
			shippingJSON, now, now, 2,
		).
		AddRow(
			"order-002", "user-001", "shipped",
			nil, nil,
			int64(4000), int64(9000),
			nil, now, now, 2,
		)

	mock.ExpectQuery("SELECT .+ FROM orders").
		WithArgs(10, 0).
		WillReturnRows(orderRows)

	// Batch items query.
	itemRows := pgxmock.NewRows([]string{
		"id", "order_id", "product_id", "name", "unit_price", "quantity",
	}).
		AddRow("item-001", "order-001", "prod-001", "Annual Subscription", int64(29900), 2).
		AddRow("item-002", "order-002", "prod-002", "Tote Bag", int64(5000), 1)

	mock.ExpectQuery("SELECT .+ FROM order_items").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(itemRows)

	filter := repository.OrderFilter{Page: 1, PerPage: 10}
	orders, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, 2, total)
	require.Len(t, orders, 2)

	assert.Equal(t, "order-001", orders[0].ID)
	require.NotNil(t, orders[0].ShippingAddress)
	assert.Equal(t, "Asha Rao", orders[0].ShippingAddress.FullName)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "item-001", orders[0].Items[0].ID)

	assert.Equal(t, "order-002", orders[1].ID)
	assert.Nil(t, orders[1].ShippingAddress)
	require.Len(t, orders[1].Items, 1)
	assert.Equal(t, "item-002", orders[1].Items[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_List_WithUserAndStatusFilter(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	now := time.Now().UTC().Truncate(time.Microsecond)
	userID := "user-filtered"
	status := "shipped"

	orderRows := pgxmock.NewRows(listRowColumns()).AddRow(
		"order-100", userID, status,
		nil, nil,
		int64(0), int64(3000),
		nil, now, now, 1,
	)

	// With both filters: args are user_id, status, limit, offset.
	mock.ExpectQuery("SELECT .+ FROM orders").
		WithArgs(userID, status, 20, 0).
		WillReturnRows(orderRows)

	itemRows := pgxmock.NewRows([]string{
		"id", "order_id", "product_id", "name", "unit_price", "quantity",
	}).AddRow("item-100", "order-100", "prod-100", "Item", int64(3000), 1)

	mock.ExpectQuery("SELECT .+ FROM order_items").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(itemRows)

	filter := repository.OrderFilter{UserID: &userID, Status: &status, Page: 1, PerPage: 20}
	orders, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "order-100", orders[0].ID)
	assert.Equal(t, userID, orders[0].UserID)
	assert.Equal(t, status, orders[0].Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_List_Empty(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	orderRows := pgxmock.NewRows(listRowColumns())

	mock.ExpectQuery("SELECT .+ FROM orders").
		WithArgs(20, 0).
		WillReturnRows(orderRows)

	// No batch items query expected because orders slice is empty.

	filter := repository.OrderFilter{Page: 1, PerPage: 20}
	orders, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, 0, total)
	assert.Empty(t, orders)
	assert.NotNil(t, orders) // should be [] not nil

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_List_DefaultPerPage(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	now := time.Now().UTC().Truncate(time.Microsecond)

	orderRows := pgxmock.NewRows(listRowColumns()).AddRow(
		"order-300", "user-020", "pending",
		nil, nil,
		int64(0), int64(1000),
		nil, now, now, 1,
	)

	// PerPage=0 should default to 20; args: limit=20, offset=0.
	mock.ExpectQuery("SELECT .+ FROM orders").
		WithArgs(20, 0).
		WillReturnRows(orderRows)

	itemRows := pgxmock.NewRows([]string{
		"id", "order_id", "product_id", "name", "unit_price", "quantity",
	})

	mock.ExpectQuery("SELECT .+ FROM order_items").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(itemRows)

	filter := repository.OrderFilter{Page: 0, PerPage: 0}
	orders, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "order-300", orders[0].ID)
	assert.Empty(t, orders[0].Items)
	assert.NotNil(t, orders[0].Items)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_List_QueryError(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectQuery("SELECT .+ FROM orders").
		WithArgs(20, 0).
		WillReturnError(errors.New("database timeout"))

	filter := repository.OrderFilter{Page: 1, PerPage: 20}
	orders, total, err := repo.List(context.Background(), filter)
	assert.Nil(t, orders)
	assert.Equal(t, 0, total)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "list orders")

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- UpdateStatus Tests ---

func TestOrderRepository_UpdateStatus_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectExec("UPDATE orders").
		WithArgs("processing", pgxmock.AnyArg(), "order-001", "pending").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateStatus(context.Background(), "order-001", "pending", "processing")
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_StaleStatusConflict(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectExec("UPDATE orders").
		WithArgs("shipped", pgxmock.AnyArg(), "order-002", "processing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), "order-002", "processing", "shipped")
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_ExecError(t *testing.T) {
	repo, mock := newTestRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectExec("UPDATE orders").
		WithArgs("cancelled", pgxmock.AnyArg(), "order-003", "pending").
		WillReturnError(errors.New("write conflict"))

	err := repo.UpdateStatus(context.Background(), "order-003", "pending", "cancelled")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "update order status")

	assert.NoError(t, mock.ExpectationsWereMet())
}
