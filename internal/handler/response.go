package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karimfarra/invoice-billing-service/internal/domain"
	"github.com/karimfarra/invoice-billing-service/internal/model"
)

// Common error messages
const (
	ErrInvalidInput     = "Invalid input format"
	ErrInvalidID        = "Invalid ID provided"
	ErrResourceNotFound = "Resource not found"
	ErrInternalServer   = "Internal server error"
)

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, message string, details ...model.ErrorDetail) {
	response := model.ErrorResponse{
		Status:  http.StatusText(statusCode),
		Message: message,
		Details: details,
	}
	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...model.ErrorDetail) {
	respondWithError(c, http.StatusBadRequest, message, details...)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string) {
	respondWithError(c, http.StatusNotFound, message)
}

// respondConflict sends a 409 Conflict response
func respondConflict(c *gin.Context, message string) {
	respondWithError(c, http.StatusConflict, message)
}

// respondUnprocessableEntity sends a 422 Unprocessable Entity response
func respondUnprocessableEntity(c *gin.Context, message string) {
	respondWithError(c, http.StatusUnprocessableEntity, message)
}

// respondInternalServerError sends a 500 Internal Server Error response
func respondInternalServerError(c *gin.Context, message string) {
	respondWithError(c, http.StatusInternalServerError, message)
}

// respondSuccess sends a standardized success response with data
func respondSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// respondCreated sends a 201 Created response with data
func respondCreated(c *gin.Context, data interface{}) {
	respondSuccess(c, http.StatusCreated, data)
}

// respondOK sends a 200 OK response with data
func respondOK(c *gin.Context, data interface{}) {
	respondSuccess(c, http.StatusOK, data)
}

// respondNoContent sends a 204 No Content response
func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// respondServiceError maps service-layer sentinel errors onto HTTP statuses.
// Unknown errors become a generic 500 so internals never leak to clients.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondNotFound(c, err.Error())
	case errors.Is(err, domain.ErrConflict):
		respondConflict(c, err.Error())
	case errors.Is(err, domain.ErrIntegrity):
		respondUnprocessableEntity(c, err.Error())
	case errors.Is(err, domain.ErrDelivery):
		respondWithError(c, http.StatusBadGateway, err.Error())
	default:
		respondInternalServerError(c, ErrInternalServer)
	}
}

// newErrorDetail creates a new error detail
func newErrorDetail(field, message string) model.ErrorDetail {
	return model.ErrorDetail{
		Field:   field,
		Message: message,
	}
}
