// Package handler exposes the billing service over HTTP with Gin.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/karimfarra/invoice-billing-service/internal/domain"
	"github.com/karimfarra/invoice-billing-service/internal/model"
	"github.com/karimfarra/invoice-billing-service/internal/service"
)

// ClientHandler handles HTTP requests for client management
type ClientHandler struct {
	billingService service.BillingService
}

// NewClientHandler creates a new client handler
func NewClientHandler(billingService service.BillingService) *ClientHandler {
	return &ClientHandler{billingService: billingService}
}

// RegisterRoutes mounts the client routes on the given group
func (h *ClientHandler) RegisterRoutes(rg *gin.RouterGroup) {
	clients := rg.Group("/clients")
	{
		clients.GET("", h.ListClients)
		clients.POST("", h.CreateClient)
		clients.GET("/:id", h.GetClient)
		clients.PUT("/:id", h.UpdateClient)
		clients.DELETE("/:id", h.DeleteClient)
		clients.GET("/:id/invoices", h.ListClientInvoices)
		clients.GET("/:id/next-invoice-number", h.NextInvoiceNumber)
	}
}

// ListClients handles the GET /clients endpoint
// @Summary List clients
// @Description List all clients ordered by name
// @Tags clients
// @Produce json
// @Success 200 {array} domain.Client
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /clients [get]
func (h *ClientHandler) ListClients(c *gin.Context) {
	clients, err := h.billingService.ListClients(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, clients)
}

// GetClient handles the GET /clients/:id endpoint
// @Summary Get a client
// @Description Fetch one client by ID
// @Tags clients
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} domain.Client
// @Failure 404 {object} model.ErrorResponse "Client not found"
// @Router /clients/{id} [get]
func (h *ClientHandler) GetClient(c *gin.Context) {
	id, err := getPathID(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}
	client, err := h.billingService.GetClient(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, client)
}

// CreateClient handles the POST /clients endpoint
// @Summary Create a client
// @Description Create a new client record
// @Tags clients
// @Accept json
// @Produce json
// @Param client body domain.Client true "Client payload"
// @Success 201 {object} domain.Client
// @Failure 400 {object} model.ErrorResponse "Bad request"
// @Router /clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var client domain.Client
	if err := bindJSON(c, &client); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}
	created, err := h.billingService.CreateClient(c.Request.Context(), &client)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, created)
}

// UpdateClient handles the PUT /clients/:id endpoint
// @Summary Update a client
// @Description Update an existing client record
// @Tags clients
// @Accept json
// @Produce json
// @Param id path int true "Client ID"
// @Param client body domain.Client true "Client payload"
// @Success 200 {object} domain.Client
// @Failure 404 {object} model.ErrorResponse "Client not found"
// @Router /clients/{id} [put]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	id, err := getPathID(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}
	var client domain.Client
	if err := bindJSON(c, &client); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}
	client.ID = id
	if err := h.billingService.UpdateClient(c.Request.Context(), &client); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, client)
}

// DeleteClient handles the DELETE /clients/:id endpoint
// @Summary Delete a client
// @Description Delete a client. Fails with 409 while the client still has invoices.
// @Tags clients
// @Param id path int true "Client ID"
// @Success 204 "No content"
// @Failure 409 {object} model.ErrorResponse "Client still has invoices"
// @Router /clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	id, err := getPathID(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}
	if err := h.billingService.DeleteClient(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondNoContent(c)
}

// ListClientInvoices handles the GET /clients/:id/invoices endpoint
// @Summary List a client's invoices
// @Description List invoices for one client, optionally filtered by status
// @Tags clients
// @Produce json
// @Param id path int true "Client ID"
// @Param status query string false "Status filter (Draft, Sent, Overdue, Paid)"
// @Success 200 {array} model.InvoiceResponse
// @Failure 404 {object} model.ErrorResponse "Client not found"
// @Router /clients/{id}/invoices [get]
func (h *ClientHandler) ListClientInvoices(c *gin.Context) {
	id, err := getPathID(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}
	client, invoices, err := h.billingService.ListClientInvoices(c.Request.Context(), id, getQueryString(c, "status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	responses := make([]model.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, model.InvoiceFromDomain(&invoices[i], client.Name))
	}
	respondOK(c, responses)
}

// NextInvoiceNumber handles the GET /clients/:id/next-invoice-number endpoint
// @Summary Suggest the next invoice number
// @Description Derive the advisory next invoice number for a client
// @Tags clients
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} model.NextNumberResponse
// @Failure 404 {object} model.ErrorResponse "Client not found"
// @Router /clients/{id}/next-invoice-number [get]
func (h *ClientHandler) NextInvoiceNumber(c *gin.Context) {
	id, err := getPathID(c, "id")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}
	number, err := h.billingService.NextInvoiceNumber(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, model.NextNumberResponse{InvoiceNumber: number})
}
