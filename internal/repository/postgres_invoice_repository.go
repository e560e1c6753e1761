package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/karimfarra/invoice-billing-service/internal/database"
	"github.com/karimfarra/invoice-billing-service/internal/domain"
)

// PostgresInvoiceRepository implements InvoiceRepository using PostgreSQL.
type PostgresInvoiceRepository struct {
	db database.Pool
}

// NewPostgresInvoiceRepository creates a new PostgreSQL invoice repository.
func NewPostgresInvoiceRepository(db database.Pool) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{db: db}
}

const invoiceColumns = `id, client_id, invoice_number, date_issued, due_date, status, total_amount, vat_exempt, vat_exempt_reason`

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	var status string
	err := row.Scan(
		&inv.ID, &inv.ClientID, &inv.InvoiceNumber, &inv.DateIssued.Time, &inv.DueDate.Time,
		&status, &inv.TotalAmount, &inv.VatExempt, &inv.VatExemptReason,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = domain.Status(status)
	return &inv, nil
}

// List returns invoices, optionally filtered by status, newest first. Line
// items are not loaded for listings.
func (r *PostgresInvoiceRepository) List(ctx context.Context, statusFilter string) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY date_issued DESC, id DESC`
	args := []any{}
	if statusFilter != "" {
		query = `SELECT ` + invoiceColumns + ` FROM invoices WHERE status = $1 ORDER BY date_issued DESC, id DESC`
		args = append(args, statusFilter)
	}
	return r.queryInvoices(ctx, query, args...)
}

// ListByClient returns one client's invoices, optionally filtered by status.
func (r *PostgresInvoiceRepository) ListByClient(ctx context.Context, clientID int64, statusFilter string) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE client_id = $1 ORDER BY date_issued DESC, id DESC`
	args := []any{clientID}
	if statusFilter != "" {
		query = `SELECT ` + invoiceColumns + ` FROM invoices WHERE client_id = $1 AND status = $2 ORDER BY date_issued DESC, id DESC`
		args = append(args, statusFilter)
	}
	return r.queryInvoices(ctx, query, args...)
}

// ListDueOnOrBefore returns unpaid invoices due on or before the given day.
func (r *PostgresInvoiceRepository) ListDueOnOrBefore(ctx context.Context, day domain.Date) ([]domain.Invoice, error) {
	return r.queryInvoices(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE due_date <= $1 AND status <> $2 ORDER BY id`,
		day.Time, string(domain.StatusPaid),
	)
}

func (r *PostgresInvoiceRepository) queryInvoices(ctx context.Context, query string, args ...any) ([]domain.Invoice, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	invoices := []domain.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}
	return invoices, nil
}

// GetByID retrieves an invoice with its line items.
func (r *PostgresInvoiceRepository) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice %d", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if inv.Items, err = r.loadItems(ctx, inv.ID); err != nil {
		return nil, err
	}
	return inv, nil
}

// GetByNumber retrieves an invoice by its human-facing number with its line
// items.
func (r *PostgresInvoiceRepository) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_number = $1`, number)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice %s", domain.ErrNotFound, number)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if inv.Items, err = r.loadItems(ctx, inv.ID); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *PostgresInvoiceRepository) loadItems(ctx context.Context, invoiceID int64) ([]domain.LineItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, description, quantity, rate, amount
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice items: %w", err)
	}
	defer rows.Close()

	items := []domain.LineItem{}
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.Rate, &item.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice items: %w", err)
	}
	return items, nil
}

// Create inserts an invoice and its items in one transaction. A duplicate
// invoice number surfaces as a retryable conflict.
func (r *PostgresInvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback if not committed

	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (client_id, invoice_number, date_issued, due_date, status, total_amount, vat_exempt, vat_exempt_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, inv.ClientID, inv.InvoiceNumber, inv.DateIssued.Time, inv.DueDate.Time,
		string(inv.Status), inv.TotalAmount, inv.VatExempt, inv.VatExemptReason).Scan(&inv.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: invoice number %s already exists", domain.ErrConflict, inv.InvoiceNumber)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: client %d", domain.ErrNotFound, inv.ClientID)
		}
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	if err := insertItems(ctx, tx, inv.ID, inv.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inv, nil
}

// Update rewrites an invoice and replaces its item set wholesale in one
// transaction.
func (r *PostgresInvoiceRepository) Update(ctx context.Context, inv *domain.Invoice) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback if not committed

	tag, err := tx.Exec(ctx, `
		UPDATE invoices
		SET client_id = $1, invoice_number = $2, date_issued = $3, due_date = $4,
		    status = $5, total_amount = $6, vat_exempt = $7, vat_exempt_reason = $8
		WHERE id = $9
	`, inv.ClientID, inv.InvoiceNumber, inv.DateIssued.Time, inv.DueDate.Time,
		string(inv.Status), inv.TotalAmount, inv.VatExempt, inv.VatExemptReason, inv.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: invoice number %s already exists", domain.ErrConflict, inv.InvoiceNumber)
		}
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %d", domain.ErrNotFound, inv.ID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, inv.ID); err != nil {
		return fmt.Errorf("failed to delete invoice items: %w", err)
	}
	if err := insertItems(ctx, tx, inv.ID, inv.Items); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes an invoice and its items. The cascade is performed
// explicitly so the items-follow-invoice contract does not depend on schema
// configuration.
func (r *PostgresInvoiceRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback if not committed

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete invoice items: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %d", domain.ErrNotFound, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus changes the lifecycle status of a single invoice.
func (r *PostgresInvoiceRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %d", domain.ErrNotFound, id)
	}
	return nil
}

// MarkOverdue promotes the given invoices to Overdue as one batch.
func (r *PostgresInvoiceRepository) MarkOverdue(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`UPDATE invoices SET status = $1 WHERE id = ANY($2)`,
		string(domain.StatusOverdue), ids,
	)
	if err != nil {
		return fmt.Errorf("failed to mark invoices overdue: %w", err)
	}
	return nil
}

// CountForClient reports how many invoices reference a client.
func (r *PostgresInvoiceRepository) CountForClient(ctx context.Context, clientID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE client_id = $1`, clientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return count, nil
}

// CountForClientInYear counts a client's invoices issued within a calendar
// year.
func (r *PostgresInvoiceRepository) CountForClientInYear(ctx context.Context, clientID int64, year int) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM invoices
		WHERE client_id = $1 AND EXTRACT(YEAR FROM date_issued) = $2
	`, clientID, year).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count invoices for year: %w", err)
	}
	return count, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, invoiceID int64, items []domain.LineItem) error {
	for i := range items {
		item := &items[i]
		item.InvoiceID = invoiceID
		err := tx.QueryRow(ctx, `
			INSERT INTO invoice_items (invoice_id, description, quantity, rate, amount)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, invoiceID, item.Description, item.Quantity, item.Rate, item.Amount).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to insert invoice item: %w", err)
		}
	}
	return nil
}
