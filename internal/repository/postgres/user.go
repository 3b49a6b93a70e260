package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jinsharnammedia/commerce/internal/domain"
	"github.com/jinsharnammedia/commerce/pkg/database"
	apperrors "github.com/jinsharnammedia/commerce/pkg/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetContact returns the name and email of the given user.
func (r *UserRepository) GetContact(ctx context.Context, id string) (_ *domain.UserContact, err error) {
	query := `SELECT id, name, email FROM users WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetUserContact", query)
	defer func() { end(err) }()

	var c domain.UserContact
	err = r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user contact: %w", err)
	}

	return &c, nil
}
