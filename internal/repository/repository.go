// Package repository defines the storage interfaces consumed by the billing
// service together with their PostgreSQL implementations. Each call is
// transactional: multi-row mutations run inside an explicit transaction and
// are never observable half-applied.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/karimfarra/invoice-billing-service/internal/backup"
	"github.com/karimfarra/invoice-billing-service/internal/domain"
)

// ClientRepository provides CRUD access to clients.
type ClientRepository interface {
	List(ctx context.Context) ([]domain.Client, error)
	Get(ctx context.Context, id int64) (*domain.Client, error)
	Create(ctx context.Context, client *domain.Client) (*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id int64) error
}

// InvoiceRepository provides CRUD and sweep access to invoices. Line items
// always travel with their invoice: Create/Update replace the item set
// wholesale and Delete cascades to items.
type InvoiceRepository interface {
	List(ctx context.Context, statusFilter string) ([]domain.Invoice, error)
	ListByClient(ctx context.Context, clientID int64, statusFilter string) ([]domain.Invoice, error)
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error)
	Update(ctx context.Context, inv *domain.Invoice) error
	Delete(ctx context.Context, id int64) error

	// UpdateStatus changes only the lifecycle status of one invoice.
	UpdateStatus(ctx context.Context, id int64, status domain.Status) error
	// MarkOverdue promotes the given invoices to Overdue as one atomic batch.
	MarkOverdue(ctx context.Context, ids []int64) error
	// ListDueOnOrBefore returns unpaid invoices whose due date is on or
	// before the given day, the sweep's candidate set.
	ListDueOnOrBefore(ctx context.Context, day domain.Date) ([]domain.Invoice, error)

	// CountForClient reports how many invoices reference a client.
	CountForClient(ctx context.Context, clientID int64) (int, error)
	// CountForClientInYear counts a client's invoices issued in a calendar
	// year, the numbering scheme's input.
	CountForClientInYear(ctx context.Context, clientID int64, year int) (int, error)
}

// SettingsRepository provides access to the singleton key/value settings.
type SettingsRepository interface {
	GetAll(ctx context.Context) (domain.Settings, error)
	Update(ctx context.Context, settings domain.Settings) error
}

// DatasetRepository reads and destructively replaces the entire dataset for
// export/import.
type DatasetRepository interface {
	ReadAll(ctx context.Context) (*backup.Dataset, error)
	// ReplaceAll wipes the dataset and inserts the given one in FK order
	// with identifiers preserved, all within a single transaction.
	ReplaceAll(ctx context.Context, ds *backup.Dataset) error
}

// isUniqueViolation reports whether the error is a unique constraint
// violation (Postgres error class 23505).
func isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23505"
}

// isForeignKeyViolation reports whether the error is a foreign key
// constraint violation (Postgres error class 23503).
func isForeignKeyViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23503"
}
