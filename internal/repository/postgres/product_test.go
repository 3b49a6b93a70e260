package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinsharnammedia/commerce/pkg/database"
	apperrors "github.com/jinsharnammedia/commerce/pkg/errors"
)

// --- ProductRepository Tests ---

func TestProductRepository_GetActiveByIDs_Success(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewProductRepository(mock)

	ids := []string{"prod-001", "prod-002", "prod-inactive"}

	// prod-inactive is filtered out by the active predicate.
	rows := pgxmock.NewRows([]string{"id", "name", "unit_price", "active"}).
		AddRow("prod-001", "Annual Subscription", int64(29900), true).
		AddRow("prod-002", "Tote Bag", int64(5000), true)

	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(ids).
		WillReturnRows(rows)

	products, err := repo.GetActiveByIDs(context.Background(), ids)
	require.NoError(t, err)

	require.Len(t, products, 2)
	assert.Equal(t, "Annual Subscription", products["prod-001"].Name)
	assert.Equal(t, int64(29900), products["prod-001"].UnitPrice)
	assert.Equal(t, int64(5000), products["prod-002"].UnitPrice)
	_, ok := products["prod-inactive"]
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetActiveByIDs_NoneFound(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewProductRepository(mock)

	ids := []string{"prod-404"}

	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "unit_price", "active"}))

	products, err := repo.GetActiveByIDs(context.Background(), ids)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NotNil(t, products)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetActiveByIDs_QueryError(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs([]string{"prod-001"}).
		WillReturnError(errors.New("database timeout"))

	products, err := repo.GetActiveByIDs(context.Background(), []string{"prod-001"})
	assert.Nil(t, products)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "query products")

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- UserRepository Tests ---

func TestUserRepository_GetContact_Success(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewUserRepository(mock)

	rows := pgxmock.NewRows([]string{"id", "name", "email"}).
		AddRow("user-001", "Asha Rao", "asha@example.com")

	mock.ExpectQuery("SELECT .+ FROM users").
		WithArgs("user-001").
		WillReturnRows(rows)

	contact, err := repo.GetContact(context.Background(), "user-001")
	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.Equal(t, "Asha Rao", contact.Name)
	assert.Equal(t, "asha@example.com", contact.Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetContact_NotFound(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewUserRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM users").
		WithArgs("user-404").
		WillReturnError(pgx.ErrNoRows)

	contact, err := repo.GetContact(context.Background(), "user-404")
	assert.Nil(t, contact)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
