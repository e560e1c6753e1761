package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/karimfarra/invoice-billing-service/internal/backup"
	"github.com/karimfarra/invoice-billing-service/internal/domain"
	"github.com/karimfarra/invoice-billing-service/internal/notifier"
)

// In-memory fakes for the repository and notifier interfaces. They mimic
// the store's constraint behavior (not-found, unique invoice numbers) so
// service logic can be exercised without a database.

type fakeClientRepo struct {
	mu      sync.Mutex
	nextID  int64
	clients map[int64]domain.Client
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{nextID: 1, clients: map[int64]domain.Client{}}
}

func (r *fakeClientRepo) List(ctx context.Context) ([]domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeClientRepo) Get(ctx context.Context, id int64) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: client %d", domain.ErrNotFound, id)
	}
	return &c, nil
}

func (r *fakeClientRepo) Create(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client.ID = r.nextID
	r.nextID++
	r.clients[client.ID] = *client
	return client, nil
}

func (r *fakeClientRepo) Update(ctx context.Context, client *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[client.ID]; !ok {
		return fmt.Errorf("%w: client %d", domain.ErrNotFound, client.ID)
	}
	r.clients[client.ID] = *client
	return nil
}

func (r *fakeClientRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return fmt.Errorf("%w: client %d", domain.ErrNotFound, id)
	}
	delete(r.clients, id)
	return nil
}

type fakeInvoiceRepo struct {
	mu         sync.Mutex
	nextID     int64
	nextItemID int64
	invoices   map[int64]domain.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{nextID: 1, nextItemID: 1, invoices: map[int64]domain.Invoice{}}
}

// assignItemIDs mirrors the store's insertItems: items get generated ids
// and are stamped with their invoice's id.
func (r *fakeInvoiceRepo) assignItemIDs(inv *domain.Invoice) {
	for i := range inv.Items {
		item := &inv.Items[i]
		item.InvoiceID = inv.ID
		item.ID = r.nextItemID
		r.nextItemID++
	}
}

func (r *fakeInvoiceRepo) add(inv domain.Invoice) domain.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv.ID == 0 {
		inv.ID = r.nextID
		r.nextID++
	}
	r.invoices[inv.ID] = inv
	return inv
}

func (r *fakeInvoiceRepo) sorted() []domain.Invoice {
	out := make([]domain.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeInvoiceRepo) List(ctx context.Context, statusFilter string) ([]domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Invoice
	for _, inv := range r.sorted() {
		if statusFilter == "" || string(inv.Status) == statusFilter {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) ListByClient(ctx context.Context, clientID int64, statusFilter string) ([]domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Invoice
	for _, inv := range r.sorted() {
		if inv.ClientID != clientID {
			continue
		}
		if statusFilter == "" || string(inv.Status) == statusFilter {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%w: invoice %d", domain.ErrNotFound, id)
	}
	return &inv, nil
}

func (r *fakeInvoiceRepo) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.InvoiceNumber == number {
			return &inv, nil
		}
	}
	return nil, fmt.Errorf("%w: invoice %s", domain.ErrNotFound, number)
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invoices {
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return nil, fmt.Errorf("%w: invoice number %s already exists", domain.ErrConflict, inv.InvoiceNumber)
		}
	}
	inv.ID = r.nextID
	r.nextID++
	r.assignItemIDs(inv)
	r.invoices[inv.ID] = *inv
	return inv, nil
}

func (r *fakeInvoiceRepo) Update(ctx context.Context, inv *domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[inv.ID]; !ok {
		return fmt.Errorf("%w: invoice %d", domain.ErrNotFound, inv.ID)
	}
	r.assignItemIDs(inv)
	r.invoices[inv.ID] = *inv
	return nil
}

func (r *fakeInvoiceRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[id]; !ok {
		return fmt.Errorf("%w: invoice %d", domain.ErrNotFound, id)
	}
	delete(r.invoices, id)
	return nil
}

func (r *fakeInvoiceRepo) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return fmt.Errorf("%w: invoice %d", domain.ErrNotFound, id)
	}
	inv.Status = status
	r.invoices[id] = inv
	return nil
}

func (r *fakeInvoiceRepo) MarkOverdue(ctx context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if inv, ok := r.invoices[id]; ok {
			inv.Status = domain.StatusOverdue
			r.invoices[id] = inv
		}
	}
	return nil
}

func (r *fakeInvoiceRepo) ListDueOnOrBefore(ctx context.Context, day domain.Date) ([]domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Invoice
	for _, inv := range r.sorted() {
		if inv.Status == domain.StatusPaid {
			continue
		}
		if inv.DueDate.Before(day) || inv.DueDate.Equal(day) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) CountForClient(ctx context.Context, clientID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, inv := range r.invoices {
		if inv.ClientID == clientID {
			count++
		}
	}
	return count, nil
}

func (r *fakeInvoiceRepo) CountForClientInYear(ctx context.Context, clientID int64, year int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, inv := range r.invoices {
		if inv.ClientID == clientID && inv.DateIssued.Year() == year {
			count++
		}
	}
	return count, nil
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings domain.Settings
}

func newFakeSettingsRepo(settings domain.Settings) *fakeSettingsRepo {
	if settings == nil {
		settings = domain.Settings{}
	}
	return &fakeSettingsRepo{settings: settings}
}

func (r *fakeSettingsRepo) GetAll(ctx context.Context) (domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(domain.Settings, len(r.settings))
	for k, v := range r.settings {
		out[k] = v
	}
	return out, nil
}

func (r *fakeSettingsRepo) Update(ctx context.Context, settings domain.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range settings {
		r.settings[k] = v
	}
	return nil
}

type fakeDatasetRepo struct {
	clients  *fakeClientRepo
	invoices *fakeInvoiceRepo
	settings *fakeSettingsRepo
	replaced *backup.Dataset
}

func (r *fakeDatasetRepo) ReadAll(ctx context.Context) (*backup.Dataset, error) {
	clients, _ := r.clients.List(ctx)
	invoices, _ := r.invoices.List(ctx, "")
	settings, _ := r.settings.GetAll(ctx)
	return backup.FromDomain(clients, invoices, settings), nil
}

func (r *fakeDatasetRepo) ReplaceAll(ctx context.Context, ds *backup.Dataset) error {
	r.replaced = ds
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []notifier.Intent
	urls    []string
	tests   []string
	sendErr error
}

func (n *fakeNotifier) Send(ctx context.Context, webhookURL string, intent notifier.Intent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, intent)
	n.urls = append(n.urls, webhookURL)
	return nil
}

func (n *fakeNotifier) SendTest(ctx context.Context, webhookURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.tests = append(n.tests, webhookURL)
	return nil
}
