package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karimfarra/invoice-billing-service/internal/billing"
	"github.com/karimfarra/invoice-billing-service/internal/domain"
	"github.com/karimfarra/invoice-billing-service/internal/layout"
	"github.com/karimfarra/invoice-billing-service/internal/service"
)

// stubService implements service.BillingService with overridable funcs so
// each test controls exactly the calls it expects.
type stubService struct {
	listClients        func(ctx context.Context) ([]domain.Client, error)
	getClient          func(ctx context.Context, id int64) (*domain.Client, error)
	createClient       func(ctx context.Context, client *domain.Client) (*domain.Client, error)
	updateClient       func(ctx context.Context, client *domain.Client) error
	deleteClient       func(ctx context.Context, id int64) error
	listClientInvoices func(ctx context.Context, clientID int64, statusFilter string) (*domain.Client, []domain.Invoice, error)
	listInvoices       func(ctx context.Context, statusFilter string) ([]domain.Invoice, error)
	getInvoice         func(ctx context.Context, ref string) (*domain.Invoice, error)
	createInvoice      func(ctx context.Context, input service.InvoiceInput) (*domain.Invoice, error)
	updateInvoice      func(ctx context.Context, ref string, input service.InvoiceInput) (*domain.Invoice, error)
	deleteInvoice      func(ctx context.Context, ref string) error
	updateStatus       func(ctx context.Context, ref string, status string) (*domain.Invoice, error)
	markPaid           func(ctx context.Context, ref string) (*domain.Invoice, error)
	nextNumber         func(ctx context.Context, clientID int64) (string, error)
	previewTotals      func(ctx context.Context, items []service.LineItemInput, exempt bool) (billing.Totals, error)
	buildDocument      func(ctx context.Context, ref string) (*layout.Document, error)
	getSettings        func(ctx context.Context) (domain.Settings, error)
	updateSettings     func(ctx context.Context, settings domain.Settings) error
	testWebhook        func(ctx context.Context, webhookURL string) error
	exportDataset      func(ctx context.Context) ([]byte, error)
	importDataset      func(ctx context.Context, raw []byte) error
	runSweep           func(ctx context.Context, today domain.Date) (*service.SweepResult, error)
}

func (s *stubService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.listClients(ctx)
}
func (s *stubService) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	return s.getClient(ctx, id)
}
func (s *stubService) CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	return s.createClient(ctx, client)
}
func (s *stubService) UpdateClient(ctx context.Context, client *domain.Client) error {
	return s.updateClient(ctx, client)
}
func (s *stubService) DeleteClient(ctx context.Context, id int64) error {
	return s.deleteClient(ctx, id)
}
func (s *stubService) ListClientInvoices(ctx context.Context, clientID int64, statusFilter string) (*domain.Client, []domain.Invoice, error) {
	return s.listClientInvoices(ctx, clientID, statusFilter)
}
func (s *stubService) ListInvoices(ctx context.Context, statusFilter string) ([]domain.Invoice, error) {
	return s.listInvoices(ctx, statusFilter)
}
func (s *stubService) GetInvoice(ctx context.Context, ref string) (*domain.Invoice, error) {
	return s.getInvoice(ctx, ref)
}
func (s *stubService) CreateInvoice(ctx context.Context, input service.InvoiceInput) (*domain.Invoice, error) {
	return s.createInvoice(ctx, input)
}
func (s *stubService) UpdateInvoice(ctx context.Context, ref string, input service.InvoiceInput) (*domain.Invoice, error) {
	return s.updateInvoice(ctx, ref, input)
}
func (s *stubService) DeleteInvoice(ctx context.Context, ref string) error {
	return s.deleteInvoice(ctx, ref)
}
func (s *stubService) UpdateInvoiceStatus(ctx context.Context, ref string, status string) (*domain.Invoice, error) {
	return s.updateStatus(ctx, ref, status)
}
func (s *stubService) MarkInvoicePaid(ctx context.Context, ref string) (*domain.Invoice, error) {
	return s.markPaid(ctx, ref)
}
func (s *stubService) NextInvoiceNumber(ctx context.Context, clientID int64) (string, error) {
	return s.nextNumber(ctx, clientID)
}
func (s *stubService) PreviewTotals(ctx context.Context, items []service.LineItemInput, exempt bool) (billing.Totals, error) {
	return s.previewTotals(ctx, items, exempt)
}
func (s *stubService) BuildDocument(ctx context.Context, ref string) (*layout.Document, error) {
	return s.buildDocument(ctx, ref)
}
func (s *stubService) GetSettings(ctx context.Context) (domain.Settings, error) {
	return s.getSettings(ctx)
}
func (s *stubService) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	return s.updateSettings(ctx, settings)
}
func (s *stubService) TestWebhook(ctx context.Context, webhookURL string) error {
	return s.testWebhook(ctx, webhookURL)
}
func (s *stubService) ExportDataset(ctx context.Context) ([]byte, error) {
	return s.exportDataset(ctx)
}
func (s *stubService) ImportDataset(ctx context.Context, raw []byte) error {
	return s.importDataset(ctx, raw)
}
func (s *stubService) RunOverdueSweep(ctx context.Context, today domain.Date) (*service.SweepResult, error) {
	return s.runSweep(ctx, today)
}

func newRouter(svc service.BillingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api")
	NewClientHandler(svc).RegisterRoutes(api)
	NewInvoiceHandler(svc).RegisterRoutes(api)
	NewSettingsHandler(svc).RegisterRoutes(api)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetInvoiceEndpoint(t *testing.T) {
	svc := &stubService{
		getInvoice: func(ctx context.Context, ref string) (*domain.Invoice, error) {
			if ref != "ACM-7-001-2025" {
				return nil, fmt.Errorf("%w: invoice %s", domain.ErrNotFound, ref)
			}
			return &domain.Invoice{
				ID:            10,
				ClientID:      7,
				InvoiceNumber: ref,
				DateIssued:    domain.NewDate(2025, time.March, 1),
				DueDate:       domain.NewDate(2025, time.March, 15),
				Status:        domain.StatusSent,
				TotalAmount:   333,
			}, nil
		},
	}
	router := newRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/api/invoices/ACM-7-001-2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ACM-7-001-2025", got["invoice_number"])
	assert.Equal(t, "2025-03-01", got["date_issued"])

	rec = doRequest(t, router, http.MethodGet, "/api/invoices/GONE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateInvoiceEndpoint(t *testing.T) {
	svc := &stubService{
		createInvoice: func(ctx context.Context, input service.InvoiceInput) (*domain.Invoice, error) {
			if len(input.Items) == 0 {
				return nil, fmt.Errorf("%w: an invoice needs at least one line item", domain.ErrValidation)
			}
			return &domain.Invoice{ID: 1, ClientID: input.ClientID, InvoiceNumber: input.InvoiceNumber, Status: domain.StatusDraft}, nil
		},
	}
	router := newRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/api/invoices", map[string]any{
		"client_id":      7,
		"invoice_number": "ACM-7-001-2025",
		"items":          []map[string]any{{"description": "Consulting", "quantity": 2, "rate": 100}},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/invoices", map[string]any{
		"client_id":      7,
		"invoice_number": "ACM-7-002-2025",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteClientConflictMapsTo409(t *testing.T) {
	svc := &stubService{
		deleteClient: func(ctx context.Context, id int64) error {
			return fmt.Errorf("%w: client %d has invoices", domain.ErrConflict, id)
		},
	}
	router := newRouter(svc)

	rec := doRequest(t, router, http.MethodDelete, "/api/clients/7", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Conflict", body["status"])
}

func TestUpdateStatusEndpoint(t *testing.T) {
	svc := &stubService{
		updateStatus: func(ctx context.Context, ref, status string) (*domain.Invoice, error) {
			if status == "Overdue" {
				return nil, fmt.Errorf("%w: overdue status is derived, not user-set", domain.ErrValidation)
			}
			return &domain.Invoice{ID: 10, InvoiceNumber: ref, Status: domain.Status(status)}, nil
		},
	}
	router := newRouter(svc)

	rec := doRequest(t, router, http.MethodPut, "/api/invoices/10/status", map[string]string{"status": "Sent"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/api/invoices/10/status", map[string]string{"status": "Overdue"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportEndpointStatusMapping(t *testing.T) {
	svc := &stubService{
		importDataset: func(ctx context.Context, raw []byte) error {
			switch string(raw) {
			case "conflict":
				return fmt.Errorf("%w: another import is in progress", domain.ErrConflict)
			case "broken":
				return fmt.Errorf("%w: invoice references unknown client", domain.ErrIntegrity)
			}
			return nil
		},
	}
	router := newRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/api/backup/import", "ok")
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/backup/import", bytes.NewReader([]byte("conflict")))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/backup/import", bytes.NewReader([]byte("broken")))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExportEndpointSetsAttachment(t *testing.T) {
	svc := &stubService{
		exportDataset: func(ctx context.Context) ([]byte, error) {
			return []byte(`{"clients": []}`), nil
		},
	}
	router := newRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/api/backup/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".json")
	assert.JSONEq(t, `{"clients": []}`, rec.Body.String())
}

func TestNextInvoiceNumberEndpoint(t *testing.T) {
	svc := &stubService{
		nextNumber: func(ctx context.Context, clientID int64) (string, error) {
			return "ACM-7-003-2025", nil
		},
	}
	router := newRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/api/clients/7/next-invoice-number", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ACM-7-003-2025", body["invoice_number"])

	// non-numeric id is rejected before the service is called
	rec = doRequest(t, router, http.MethodGet, "/api/clients/abc/next-invoice-number", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTestWebhookEndpointDeliveryFailure(t *testing.T) {
	svc := &stubService{
		testWebhook: func(ctx context.Context, webhookURL string) error {
			return fmt.Errorf("%w: webhook returned status 404", domain.ErrDelivery)
		},
	}
	router := newRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/api/settings/test-webhook", map[string]string{"webhook_url": "https://hooks.example.com/x"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
