package repository

import (
	"context"
	"fmt"

	"github.com/karimfarra/invoice-billing-service/internal/backup"
	"github.com/karimfarra/invoice-billing-service/internal/database"
	"github.com/karimfarra/invoice-billing-service/internal/domain"
)

// PostgresDatasetRepository implements DatasetRepository using PostgreSQL.
type PostgresDatasetRepository struct {
	db database.Pool
}

// NewPostgresDatasetRepository creates a new PostgreSQL dataset repository.
func NewPostgresDatasetRepository(db database.Pool) *PostgresDatasetRepository {
	return &PostgresDatasetRepository{db: db}
}

// ReadAll snapshots the entire dataset in portable record form.
func (r *PostgresDatasetRepository) ReadAll(ctx context.Context) (*backup.Dataset, error) {
	clients, err := NewPostgresClientRepository(r.db).List(ctx)
	if err != nil {
		return nil, err
	}
	invoices, err := r.listInvoicesWithItems(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := NewPostgresSettingsRepository(r.db).GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return backup.FromDomain(clients, invoices, settings), nil
}

func (r *PostgresDatasetRepository) listInvoicesWithItems(ctx context.Context) ([]domain.Invoice, error) {
	invoiceRepo := NewPostgresInvoiceRepository(r.db)
	invoices, err := invoiceRepo.queryInvoices(ctx,
		`SELECT `+invoiceColumns+` FROM invoices ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		if invoices[i].Items, err = invoiceRepo.loadItems(ctx, invoices[i].ID); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// ReplaceAll wipes the dataset and inserts the given one, preserving the
// original identifiers. Everything runs in a single transaction: a
// constraint violation at any point rolls the whole import back and the
// previous dataset stays intact.
func (r *PostgresDatasetRepository) ReplaceAll(ctx context.Context, ds *backup.Dataset) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback if not committed

	// Children first so FK constraints never fire during the wipe.
	for _, table := range []string{"invoice_items", "invoices", "clients", "settings"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, s := range ds.Settings {
		if _, err := tx.Exec(ctx, `INSERT INTO settings (key, value) VALUES ($1, $2)`, s.Key, s.Value); err != nil {
			return fmt.Errorf("failed to import setting %s: %w", s.Key, err)
		}
	}

	for _, rec := range ds.Clients {
		c, err := rec.ToDomainClient()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO clients (id, name, address, email, phone, category, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))
		`, c.ID, c.Name, c.Address, c.Email, c.Phone, c.Category, nullableTime(c))
		if err != nil {
			return fmt.Errorf("failed to import client %d: %w", c.ID, err)
		}
	}

	for _, rec := range ds.Invoices {
		inv, err := rec.ToDomainInvoice()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO invoices (id, client_id, invoice_number, date_issued, due_date, status, total_amount, vat_exempt, vat_exempt_reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, inv.ID, inv.ClientID, inv.InvoiceNumber, inv.DateIssued.Time, inv.DueDate.Time,
			string(inv.Status), inv.TotalAmount, inv.VatExempt, inv.VatExemptReason)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: invoice %s references unknown client %d", domain.ErrIntegrity, inv.InvoiceNumber, inv.ClientID)
			}
			return fmt.Errorf("failed to import invoice %s: %w", inv.InvoiceNumber, err)
		}
	}

	for _, item := range ds.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, description, quantity, rate, amount)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, item.InvoiceID, item.Description, item.Quantity, item.Rate, item.Amount)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: line item %d references unknown invoice %d", domain.ErrIntegrity, item.ID, item.InvoiceID)
			}
			return fmt.Errorf("failed to import line item %d: %w", item.ID, err)
		}
	}

	// IDs were caller-supplied; advance the sequences past them so future
	// inserts don't collide.
	for _, table := range []string{"clients", "invoices", "invoice_items"} {
		query := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))`,
			table, table,
		)
		if _, err := tx.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to advance %s id sequence: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nullableTime(c domain.Client) any {
	if c.CreatedAt.IsZero() {
		return nil
	}
	return c.CreatedAt
}
