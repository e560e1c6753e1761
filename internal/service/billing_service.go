// Package service implements the billing business logic on top of the
// repository layer: invoice CRUD with recomputed totals, the lifecycle
// sweep, numbering, document building and dataset export/import.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/karimfarra/invoice-billing-service/internal/backup"
	"github.com/karimfarra/invoice-billing-service/internal/billing"
	"github.com/karimfarra/invoice-billing-service/internal/domain"
	"github.com/karimfarra/invoice-billing-service/internal/layout"
	"github.com/karimfarra/invoice-billing-service/internal/notifier"
	"github.com/karimfarra/invoice-billing-service/internal/repository"
)

// LineItemInput is one item of an invoice create/update request.
type LineItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
}

// InvoiceInput carries an invoice create/update request. Zero dates default
// to today and today+14 respectively; an empty status defaults to Draft.
type InvoiceInput struct {
	ClientID        int64           `json:"client_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	DateIssued      domain.Date     `json:"date_issued"`
	DueDate         domain.Date     `json:"due_date"`
	Status          string          `json:"status"`
	VatExempt       bool            `json:"vat_exempt"`
	VatExemptReason string          `json:"vat_exempt_reason"`
	Items           []LineItemInput `json:"items"`
}

// SweepResult reports what one overdue sweep did.
type SweepResult struct {
	NewlyOverdue []string `json:"newly_overdue"` // invoice numbers promoted to Overdue
	DueToday     []string `json:"due_today"`     // invoice numbers reminded, unchanged
}

// BillingService is the interface the transport layer consumes.
type BillingService interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
	GetClient(ctx context.Context, id int64) (*domain.Client, error)
	CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error)
	UpdateClient(ctx context.Context, client *domain.Client) error
	DeleteClient(ctx context.Context, id int64) error
	ListClientInvoices(ctx context.Context, clientID int64, statusFilter string) (*domain.Client, []domain.Invoice, error)

	ListInvoices(ctx context.Context, statusFilter string) ([]domain.Invoice, error)
	GetInvoice(ctx context.Context, ref string) (*domain.Invoice, error)
	CreateInvoice(ctx context.Context, input InvoiceInput) (*domain.Invoice, error)
	UpdateInvoice(ctx context.Context, ref string, input InvoiceInput) (*domain.Invoice, error)
	DeleteInvoice(ctx context.Context, ref string) error
	UpdateInvoiceStatus(ctx context.Context, ref string, status string) (*domain.Invoice, error)
	MarkInvoicePaid(ctx context.Context, ref string) (*domain.Invoice, error)

	NextInvoiceNumber(ctx context.Context, clientID int64) (string, error)
	PreviewTotals(ctx context.Context, items []LineItemInput, exempt bool) (billing.Totals, error)
	BuildDocument(ctx context.Context, ref string) (*layout.Document, error)

	GetSettings(ctx context.Context) (domain.Settings, error)
	UpdateSettings(ctx context.Context, settings domain.Settings) error
	TestWebhook(ctx context.Context, webhookURL string) error

	ExportDataset(ctx context.Context) ([]byte, error)
	ImportDataset(ctx context.Context, raw []byte) error

	RunOverdueSweep(ctx context.Context, today domain.Date) (*SweepResult, error)
}

// BillingServiceImpl implements BillingService.
type BillingServiceImpl struct {
	clients  repository.ClientRepository
	invoices repository.InvoiceRepository
	settings repository.SettingsRepository
	dataset  repository.DatasetRepository
	notify   notifier.Notifier
	log      zerolog.Logger
	now      func() time.Time
	importMu sync.Mutex
}

// NewBillingService wires the service with its collaborators.
func NewBillingService(
	clients repository.ClientRepository,
	invoices repository.InvoiceRepository,
	settings repository.SettingsRepository,
	dataset repository.DatasetRepository,
	notify notifier.Notifier,
	log zerolog.Logger,
) *BillingServiceImpl {
	return &BillingServiceImpl{
		clients:  clients,
		invoices: invoices,
		settings: settings,
		dataset:  dataset,
		notify:   notify,
		log:      log,
		now:      time.Now,
	}
}

// SetClock overrides the time source used for defaults and numbering. Tests
// use this to pin "today".
func (s *BillingServiceImpl) SetClock(now func() time.Time) {
	s.now = now
}

// ListClients returns all clients.
func (s *BillingServiceImpl) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.clients.List(ctx)
}

// GetClient returns one client by ID.
func (s *BillingServiceImpl) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	return s.clients.Get(ctx, id)
}

// CreateClient validates and stores a new client.
func (s *BillingServiceImpl) CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	if client.Name == "" {
		return nil, fmt.Errorf("%w: client name is required", domain.ErrValidation)
	}
	return s.clients.Create(ctx, client)
}

// UpdateClient validates and rewrites a client.
func (s *BillingServiceImpl) UpdateClient(ctx context.Context, client *domain.Client) error {
	if client.Name == "" {
		return fmt.Errorf("%w: client name is required", domain.ErrValidation)
	}
	return s.clients.Update(ctx, client)
}

// DeleteClient removes a client. Deletion is blocked while the client still
// has invoices; financial records never disappear as a side effect of
// client management.
func (s *BillingServiceImpl) DeleteClient(ctx context.Context, id int64) error {
	count, err := s.invoices.CountForClient(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: client %d has %d invoices", domain.ErrConflict, id, count)
	}
	return s.clients.Delete(ctx, id)
}

// ListClientInvoices returns a client together with its invoices.
func (s *BillingServiceImpl) ListClientInvoices(ctx context.Context, clientID int64, statusFilter string) (*domain.Client, []domain.Invoice, error) {
	client, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}
	invoices, err := s.invoices.ListByClient(ctx, clientID, statusFilter)
	if err != nil {
		return nil, nil, err
	}
	return client, invoices, nil
}

// ListInvoices returns invoices, optionally filtered by status.
func (s *BillingServiceImpl) ListInvoices(ctx context.Context, statusFilter string) ([]domain.Invoice, error) {
	if statusFilter != "" && statusFilter != "All" {
		if _, err := domain.ParseStatus(statusFilter); err != nil {
			return nil, err
		}
	} else {
		statusFilter = ""
	}
	return s.invoices.List(ctx, statusFilter)
}

// GetInvoice resolves an invoice by numeric ID or by invoice number.
func (s *BillingServiceImpl) GetInvoice(ctx context.Context, ref string) (*domain.Invoice, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: invoice reference is required", domain.ErrValidation)
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.invoices.GetByID(ctx, id)
	}
	return s.invoices.GetByNumber(ctx, ref)
}

// CreateInvoice validates the input, applies date defaults, recomputes the
// total from the item set and stores everything atomically.
func (s *BillingServiceImpl) CreateInvoice(ctx context.Context, input InvoiceInput) (*domain.Invoice, error) {
	inv, err := s.buildInvoice(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.invoices.Create(ctx, inv)
}

// UpdateInvoice replaces an invoice's fields and item set wholesale, with
// the total recomputed from the new items.
func (s *BillingServiceImpl) UpdateInvoice(ctx context.Context, ref string, input InvoiceInput) (*domain.Invoice, error) {
	existing, err := s.GetInvoice(ctx, ref)
	if err != nil {
		return nil, err
	}
	inv, err := s.buildInvoice(ctx, input)
	if err != nil {
		return nil, err
	}
	inv.ID = existing.ID
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *BillingServiceImpl) buildInvoice(ctx context.Context, input InvoiceInput) (*domain.Invoice, error) {
	if input.ClientID <= 0 {
		return nil, fmt.Errorf("%w: client_id is required", domain.ErrValidation)
	}
	if input.InvoiceNumber == "" {
		return nil, fmt.Errorf("%w: invoice_number is required", domain.ErrValidation)
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: an invoice needs at least one line item", domain.ErrValidation)
	}
	if _, err := s.clients.Get(ctx, input.ClientID); err != nil {
		return nil, err
	}

	status := domain.StatusDraft
	if input.Status != "" {
		parsed, err := domain.ParseStatus(input.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	issued := input.DateIssued
	if issued.IsZero() {
		issued = domain.DateOf(s.now())
	}
	due := input.DueDate
	if due.IsZero() {
		due = issued.AddDays(14)
	}
	if due.Before(issued) {
		return nil, fmt.Errorf("%w: due date %s precedes issue date %s", domain.ErrValidation, due, issued)
	}

	items := make([]domain.LineItem, 0, len(input.Items))
	for i, in := range input.Items {
		if in.Description == "" {
			return nil, fmt.Errorf("%w: item[%d] needs a description", domain.ErrValidation, i)
		}
		amount, err := billing.LineAmount(in.Quantity, in.Rate)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, err)
		}
		items = append(items, domain.LineItem{
			Description: in.Description,
			Quantity:    in.Quantity,
			Rate:        in.Rate,
			Amount:      amount,
		})
	}
	total, err := billing.InvoiceTotal(items)
	if err != nil {
		return nil, err
	}

	return &domain.Invoice{
		ClientID:        input.ClientID,
		InvoiceNumber:   input.InvoiceNumber,
		DateIssued:      issued,
		DueDate:         due,
		Status:          status,
		TotalAmount:     total,
		VatExempt:       input.VatExempt,
		VatExemptReason: input.VatExemptReason,
		Items:           items,
	}, nil
}

// DeleteInvoice removes an invoice and its items.
func (s *BillingServiceImpl) DeleteInvoice(ctx context.Context, ref string) error {
	inv, err := s.GetInvoice(ctx, ref)
	if err != nil {
		return err
	}
	return s.invoices.Delete(ctx, inv.ID)
}

// UpdateInvoiceStatus applies a user-driven status transition.
func (s *BillingServiceImpl) UpdateInvoiceStatus(ctx context.Context, ref string, status string) (*domain.Invoice, error) {
	target, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	inv, err := s.GetInvoice(ctx, ref)
	if err != nil {
		return nil, err
	}
	if inv.Status == target {
		return inv, nil // no-op
	}
	if err := billing.ValidateTransition(inv.Status, target); err != nil {
		return nil, err
	}
	if err := s.invoices.UpdateStatus(ctx, inv.ID, target); err != nil {
		return nil, err
	}
	inv.Status = target
	return inv, nil
}

// MarkInvoicePaid marks an invoice Paid. Re-marking a paid invoice is an
// idempotent no-op.
func (s *BillingServiceImpl) MarkInvoicePaid(ctx context.Context, ref string) (*domain.Invoice, error) {
	inv, err := s.GetInvoice(ctx, ref)
	if err != nil {
		return nil, err
	}
	if inv.Status == domain.StatusPaid {
		return inv, nil
	}
	if err := s.invoices.UpdateStatus(ctx, inv.ID, domain.StatusPaid); err != nil {
		return nil, err
	}
	inv.Status = domain.StatusPaid
	return inv, nil
}

// NextInvoiceNumber derives the advisory next number for a client. The value
// can race under concurrent creation; the store's unique index decides.
func (s *BillingServiceImpl) NextInvoiceNumber(ctx context.Context, clientID int64) (string, error) {
	client, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return "", err
	}
	year := s.now().Year()
	count, err := s.invoices.CountForClientInYear(ctx, clientID, year)
	if err != nil {
		return "", err
	}
	return billing.NextInvoiceNumber(client.Name, client.ID, count, year), nil
}

// PreviewTotals computes the financial breakdown for a prospective item set
// using the configured VAT rate.
func (s *BillingServiceImpl) PreviewTotals(ctx context.Context, items []LineItemInput, exempt bool) (billing.Totals, error) {
	settings, err := s.settings.GetAll(ctx)
	if err != nil {
		return billing.Totals{}, err
	}
	domainItems := make([]domain.LineItem, 0, len(items))
	for _, in := range items {
		domainItems = append(domainItems, domain.LineItem{Quantity: in.Quantity, Rate: in.Rate})
	}
	return billing.ComputeTotals(domainItems, settings.VatPercent(), exempt)
}

// BuildDocument assembles the layout tree for an invoice.
func (s *BillingServiceImpl) BuildDocument(ctx context.Context, ref string) (*layout.Document, error) {
	inv, err := s.GetInvoice(ctx, ref)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.Get(ctx, inv.ClientID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		client = &domain.Client{Name: "Unknown Client"}
	}
	settings, err := s.settings.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	doc := layout.BuildDocument(*inv, *client, settings)
	return &doc, nil
}

// GetSettings returns the stored settings map.
func (s *BillingServiceImpl) GetSettings(ctx context.Context) (domain.Settings, error) {
	return s.settings.GetAll(ctx)
}

// UpdateSettings upserts the given keys after checking they are known.
func (s *BillingServiceImpl) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	for key := range settings {
		if !domain.IsKnownSettingKey(key) {
			return fmt.Errorf("%w: unknown settings key %q", domain.ErrValidation, key)
		}
	}
	return s.settings.Update(ctx, settings)
}

// TestWebhook sends a test message to the given webhook URL.
func (s *BillingServiceImpl) TestWebhook(ctx context.Context, webhookURL string) error {
	if webhookURL == "" {
		return fmt.Errorf("%w: webhook URL is required", domain.ErrValidation)
	}
	return s.notify.SendTest(ctx, webhookURL)
}

// ExportDataset serializes the whole dataset as a JSON document.
func (s *BillingServiceImpl) ExportDataset(ctx context.Context) ([]byte, error) {
	ds, err := s.dataset.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return backup.Encode(ds)
}

// ImportDataset destructively replaces the dataset with the decoded payload.
// Only one import may run at a time; a concurrent attempt is rejected as a
// conflict rather than interleaved.
func (s *BillingServiceImpl) ImportDataset(ctx context.Context, raw []byte) error {
	if !s.importMu.TryLock() {
		return fmt.Errorf("%w: another import is in progress", domain.ErrConflict)
	}
	defer s.importMu.Unlock()

	ds, err := backup.Decode(raw)
	if err != nil {
		return err
	}
	if err := s.dataset.ReplaceAll(ctx, ds); err != nil {
		return err
	}
	s.log.Info().
		Int("clients", len(ds.Clients)).
		Int("invoices", len(ds.Invoices)).
		Int("items", len(ds.Items)).
		Msg("dataset imported")
	return nil
}

// RunOverdueSweep promotes past-due unpaid invoices to Overdue in one batch
// and raises notification intents: one overdue alert per promoted invoice
// and one reminder per invoice due today. Status mutations commit before any
// delivery is attempted; delivery failures are logged and swallowed.
func (s *BillingServiceImpl) RunOverdueSweep(ctx context.Context, today domain.Date) (*SweepResult, error) {
	candidates, err := s.invoices.ListDueOnOrBefore(ctx, today)
	if err != nil {
		return nil, err
	}
	plan := billing.PlanSweep(candidates, today)

	ids := make([]int64, 0, len(plan.NewlyOverdue))
	for _, inv := range plan.NewlyOverdue {
		ids = append(ids, inv.ID)
	}
	if err := s.invoices.MarkOverdue(ctx, ids); err != nil {
		return nil, err
	}

	result := &SweepResult{NewlyOverdue: []string{}, DueToday: []string{}}
	intents := make([]notifier.Intent, 0, len(plan.NewlyOverdue)+len(plan.DueToday))
	for _, inv := range plan.NewlyOverdue {
		result.NewlyOverdue = append(result.NewlyOverdue, inv.InvoiceNumber)
		intents = append(intents, s.intentFor(ctx, notifier.IntentOverdue, inv))
	}
	for _, inv := range plan.DueToday {
		result.DueToday = append(result.DueToday, inv.InvoiceNumber)
		intents = append(intents, s.intentFor(ctx, notifier.IntentReminder, inv))
	}

	s.log.Info().
		Int("newly_overdue", len(result.NewlyOverdue)).
		Int("due_today", len(result.DueToday)).
		Str("today", today.String()).
		Msg("overdue sweep completed")

	s.dispatchNotifications(ctx, intents)
	return result, nil
}

func (s *BillingServiceImpl) intentFor(ctx context.Context, kind notifier.IntentType, inv domain.Invoice) notifier.Intent {
	clientName := "Unknown Client"
	if client, err := s.clients.Get(ctx, inv.ClientID); err == nil {
		clientName = client.Name
	}
	return notifier.Intent{
		Type:          kind,
		InvoiceNumber: inv.InvoiceNumber,
		ClientName:    clientName,
		DueDate:       inv.DueDate,
		TotalAmount:   inv.TotalAmount,
	}
}

// dispatchNotifications delivers intents best-effort, after the sweep's
// status mutations are already committed.
func (s *BillingServiceImpl) dispatchNotifications(ctx context.Context, intents []notifier.Intent) {
	if len(intents) == 0 {
		return
	}
	settings, err := s.settings.GetAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("cannot load settings for notification dispatch")
		return
	}
	webhookURL := settings.Get(domain.SettingWebhookURL)
	if webhookURL == "" {
		return
	}
	for _, intent := range intents {
		if err := s.notify.Send(ctx, webhookURL, intent); err != nil {
			s.log.Warn().
				Err(err).
				Str("invoice", intent.InvoiceNumber).
				Str("type", string(intent.Type)).
				Msg("notification delivery failed")
		}
	}
}
