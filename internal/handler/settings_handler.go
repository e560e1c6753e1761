package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/karimfarra/invoice-billing-service/internal/domain"
	"github.com/karimfarra/invoice-billing-service/internal/model"
	"github.com/karimfarra/invoice-billing-service/internal/service"
)

// maxImportBytes bounds the accepted import payload size.
const maxImportBytes = 16 << 20

// SettingsHandler handles HTTP requests for settings, notifications and
// dataset export/import.
type SettingsHandler struct {
	billingService service.BillingService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(billingService service.BillingService) *SettingsHandler {
	return &SettingsHandler{billingService: billingService}
}

// RegisterRoutes mounts the settings and backup routes on the given group
func (h *SettingsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings", h.GetSettings)
	rg.PUT("/settings", h.UpdateSettings)
	rg.POST("/settings/test-webhook", h.TestWebhook)
	rg.GET("/backup/export", h.ExportDataset)
	rg.POST("/backup/import", h.ImportDataset)
}

// GetSettings handles the GET /settings endpoint
// @Summary Get settings
// @Description Return all stored settings as a flat key/value map
// @Tags settings
// @Produce json
// @Success 200 {object} domain.Settings
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.billingService.GetSettings(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, settings)
}

// UpdateSettings handles the PUT /settings endpoint
// @Summary Update settings
// @Description Upsert the given settings keys. Unknown keys are rejected.
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body domain.Settings true "Settings to upsert"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse "Unknown settings key"
// @Router /settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var settings domain.Settings
	if err := bindJSON(c, &settings); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}
	if err := h.billingService.UpdateSettings(c.Request.Context(), settings); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, model.MessageResponse{Message: "Settings updated"})
}

// TestWebhook handles the POST /settings/test-webhook endpoint
// @Summary Test a notification webhook
// @Description Send a test message to the given webhook URL
// @Tags settings
// @Accept json
// @Produce json
// @Param webhook body model.WebhookTestRequest true "Webhook URL"
// @Success 200 {object} model.MessageResponse
// @Failure 502 {object} model.ErrorResponse "Delivery failed"
// @Router /settings/test-webhook [post]
func (h *SettingsHandler) TestWebhook(c *gin.Context) {
	var req model.WebhookTestRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}
	if err := h.billingService.TestWebhook(c.Request.Context(), req.WebhookURL); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, model.MessageResponse{Message: "Test notification sent"})
}

// ExportDataset handles the GET /backup/export endpoint
// @Summary Export the dataset
// @Description Download the full dataset as a JSON backup document
// @Tags backup
// @Produce json
// @Success 200 {object} backup.Dataset
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /backup/export [get]
func (h *SettingsHandler) ExportDataset(c *gin.Context) {
	raw, err := h.billingService.ExportDataset(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	filename := fmt.Sprintf("billing_backup_%s.json", timeNow().Format(time.DateOnly))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", raw)
}

// ImportDataset handles the POST /backup/import endpoint
// @Summary Import a dataset
// @Description Destructively replace all data with the uploaded JSON backup document
// @Tags backup
// @Accept json
// @Produce json
// @Success 200 {object} model.MessageResponse
// @Failure 409 {object} model.ErrorResponse "Import already in progress"
// @Failure 422 {object} model.ErrorResponse "Referential integrity violation"
// @Router /backup/import [post]
func (h *SettingsHandler) ImportDataset(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		respondBadRequest(c, "Failed to read request body")
		return
	}
	if err := h.billingService.ImportDataset(c.Request.Context(), raw); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, model.MessageResponse{Message: "Dataset imported"})
}
