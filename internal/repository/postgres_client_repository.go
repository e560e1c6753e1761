package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/karimfarra/invoice-billing-service/internal/database"
	"github.com/karimfarra/invoice-billing-service/internal/domain"
)

// PostgresClientRepository implements ClientRepository using PostgreSQL.
type PostgresClientRepository struct {
	db database.Pool
}

// NewPostgresClientRepository creates a new PostgreSQL client repository.
func NewPostgresClientRepository(db database.Pool) *PostgresClientRepository {
	return &PostgresClientRepository{db: db}
}

// List returns all clients ordered by creation.
func (r *PostgresClientRepository) List(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, address, email, phone, category, created_at
		FROM clients
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	clients := []domain.Client{}
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Email, &c.Phone, &c.Category, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}
	return clients, nil
}

// Get retrieves a client by ID.
func (r *PostgresClientRepository) Get(ctx context.Context, id int64) (*domain.Client, error) {
	var c domain.Client
	err := r.db.QueryRow(ctx, `
		SELECT id, name, address, email, phone, category, created_at
		FROM clients
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Address, &c.Email, &c.Phone, &c.Category, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: client %d", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

// Create inserts a client and returns it with its assigned ID.
func (r *PostgresClientRepository) Create(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (name, address, email, phone, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, client.Name, client.Address, client.Email, client.Phone, client.Category).Scan(&client.ID, &client.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert client: %w", err)
	}
	return client, nil
}

// Update rewrites a client's mutable fields.
func (r *PostgresClientRepository) Update(ctx context.Context, client *domain.Client) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE clients
		SET name = $1, address = $2, email = $3, phone = $4, category = $5
		WHERE id = $6
	`, client.Name, client.Address, client.Email, client.Phone, client.Category, client.ID)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: client %d", domain.ErrNotFound, client.ID)
	}
	return nil
}

// Delete removes a client. A foreign key violation (client still referenced
// by invoices) surfaces as a conflict; the service layer additionally blocks
// this case up front.
func (r *PostgresClientRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: client %d still has invoices", domain.ErrConflict, id)
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: client %d", domain.ErrNotFound, id)
	}
	return nil
}
