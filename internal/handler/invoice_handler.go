package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/karimfarra/invoice-billing-service/internal/domain"
	"github.com/karimfarra/invoice-billing-service/internal/model"
	"github.com/karimfarra/invoice-billing-service/internal/service"
)

// InvoiceHandler handles HTTP requests for invoice operations
type InvoiceHandler struct {
	billingService service.BillingService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(billingService service.BillingService) *InvoiceHandler {
	return &InvoiceHandler{billingService: billingService}
}

// RegisterRoutes mounts the invoice routes on the given group. The :ref
// parameter accepts either a numeric invoice ID or an invoice number.
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.GET("", h.ListInvoices)
		invoices.POST("", h.CreateInvoice)
		invoices.POST("/preview-totals", h.PreviewTotals)
		invoices.POST("/sweep", h.RunSweep)
		invoices.GET("/:ref", h.GetInvoice)
		invoices.PUT("/:ref", h.UpdateInvoice)
		invoices.DELETE("/:ref", h.DeleteInvoice)
		invoices.PUT("/:ref/status", h.UpdateStatus)
		invoices.POST("/:ref/pay", h.MarkPaid)
		invoices.GET("/:ref/document", h.GetDocument)
	}
}

// ListInvoices handles the GET /invoices endpoint
// @Summary List invoices
// @Description List all invoices, optionally filtered by status
// @Tags invoices
// @Produce json
// @Param status query string false "Status filter (Draft, Sent, Overdue, Paid)"
// @Success 200 {array} model.InvoiceResponse
// @Failure 400 {object} model.ErrorResponse "Invalid status filter"
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	invoices, err := h.billingService.ListInvoices(c.Request.Context(), getQueryString(c, "status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	responses := make([]model.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, model.InvoiceFromDomain(&invoices[i], ""))
	}
	respondOK(c, responses)
}

// GetInvoice handles the GET /invoices/:ref endpoint
// @Summary Get an invoice
// @Description Fetch one invoice by numeric ID or invoice number
// @Tags invoices
// @Produce json
// @Param ref path string true "Invoice ID or invoice number"
// @Success 200 {object} model.InvoiceResponse
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Router /invoices/{ref} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	ref, err := getPathParam(c, "ref")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	inv, err := h.billingService.GetInvoice(c.Request.Context(), ref)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, model.InvoiceFromDomain(inv, ""))
}

// CreateInvoice handles the POST /invoices endpoint
// @Summary Create an invoice
// @Description Create an invoice with its line items; the total is computed server-side
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoice body service.InvoiceInput true "Invoice payload"
// @Success 201 {object} model.InvoiceResponse
// @Failure 400 {object} model.ErrorResponse "Bad request"
// @Failure 409 {object} model.ErrorResponse "Duplicate invoice number"
// @Router /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var input service.InvoiceInput
	if err := bindJSON(c, &input); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}
	inv, err := h.billingService.CreateInvoice(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, model.InvoiceFromDomain(inv, ""))
}

// UpdateInvoice handles the PUT /invoices/:ref endpoint
// @Summary Update an invoice
// @Description Replace an invoice's fields and line items wholesale
// @Tags invoices
// @Accept json
// @Produce json
// @Param ref path string true "Invoice ID or invoice number"
// @Param invoice body service.InvoiceInput true "Invoice payload"
// @Success 200 {object} model.InvoiceResponse
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Router /invoices/{ref} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	ref, err := getPathParam(c, "ref")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	var input service.InvoiceInput
	if err := bindJSON(c, &input); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}
	inv, err := h.billingService.UpdateInvoice(c.Request.Context(), ref, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, model.InvoiceFromDomain(inv, ""))
}

// DeleteInvoice handles the DELETE /invoices/:ref endpoint
// @Summary Delete an invoice
// @Description Delete an invoice and its line items
// @Tags invoices
// @Param ref path string true "Invoice ID or invoice number"
// @Success 204 "No content"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Router /invoices/{ref} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	ref, err := getPathParam(c, "ref")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if err := h.billingService.DeleteInvoice(c.Request.Context(), ref); err != nil {
		respondServiceError(c, err)
		return
	}
	respondNoContent(c)
}

// UpdateStatus handles the PUT /invoices/:ref/status endpoint
// @Summary Update invoice status
// @Description Apply a lifecycle transition. Paid invoices are immutable; Overdue cannot be set manually.
// @Tags invoices
// @Accept json
// @Produce json
// @Param ref path string true "Invoice ID or invoice number"
// @Param status body model.StatusUpdateRequest true "Target status"
// @Success 200 {object} model.InvoiceResponse
// @Failure 400 {object} model.ErrorResponse "Invalid transition"
// @Failure 409 {object} model.ErrorResponse "Invoice already paid"
// @Router /invoices/{ref}/status [put]
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	ref, err := getPathParam(c, "ref")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	var req model.StatusUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}
	inv, err := h.billingService.UpdateInvoiceStatus(c.Request.Context(), ref, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, model.InvoiceFromDomain(inv, ""))
}

// MarkPaid handles the POST /invoices/:ref/pay endpoint
// @Summary Mark an invoice paid
// @Description Mark an invoice Paid. Paying an already-paid invoice is a no-op.
// @Tags invoices
// @Produce json
// @Param ref path string true "Invoice ID or invoice number"
// @Success 200 {object} model.InvoiceResponse
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Router /invoices/{ref}/pay [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	ref, err := getPathParam(c, "ref")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	inv, err := h.billingService.MarkInvoicePaid(c.Request.Context(), ref)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, model.InvoiceFromDomain(inv, ""))
}

// GetDocument handles the GET /invoices/:ref/document endpoint
// @Summary Build an invoice document
// @Description Assemble the renderable document layout tree for an invoice
// @Tags invoices
// @Produce json
// @Param ref path string true "Invoice ID or invoice number"
// @Success 200 {object} layout.Document
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Router /invoices/{ref}/document [get]
func (h *InvoiceHandler) GetDocument(c *gin.Context) {
	ref, err := getPathParam(c, "ref")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	doc, err := h.billingService.BuildDocument(c.Request.Context(), ref)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, doc)
}

// PreviewTotals handles the POST /invoices/preview-totals endpoint
// @Summary Preview invoice totals
// @Description Compute the financial breakdown for a prospective item set using the configured VAT rate
// @Tags invoices
// @Accept json
// @Produce json
// @Param preview body model.TotalsPreviewRequest true "Items to total"
// @Success 200 {object} billing.Totals
// @Failure 400 {object} model.ErrorResponse "Bad request"
// @Router /invoices/preview-totals [post]
func (h *InvoiceHandler) PreviewTotals(c *gin.Context) {
	var req model.TotalsPreviewRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}
	items := make([]service.LineItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.LineItemInput{Quantity: it.Quantity, Rate: it.Rate})
	}
	totals, err := h.billingService.PreviewTotals(c.Request.Context(), items, req.VatExempt)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, totals)
}

// RunSweep handles the POST /invoices/sweep endpoint
// @Summary Run the overdue sweep
// @Description Promote past-due unpaid invoices to Overdue and send notifications
// @Tags invoices
// @Produce json
// @Success 200 {object} model.SweepResponse
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /invoices/sweep [post]
func (h *InvoiceHandler) RunSweep(c *gin.Context) {
	result, err := h.billingService.RunOverdueSweep(c.Request.Context(), domain.DateOf(timeNow()))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, model.SweepResponse{NewlyOverdue: result.NewlyOverdue, DueToday: result.DueToday})
}
