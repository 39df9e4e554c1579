package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shortly/internal/entities"
	"shortly/internal/models"
	"shortly/internal/validation"
)

// respondError maps service errors to HTTP responses. Unexpected errors get
// a generic message; the detail stays in the server log.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var report *validation.Report
	switch {
	case errors.As(err, &report):
		c.JSON(http.StatusBadRequest, models.ValidationErrorResponse{
			Error:  "Validation failed",
			Fields: report.ToModels(),
		})
	case errors.Is(err, entities.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Short URL not found",
		})
	case errors.Is(err, entities.ErrExpired):
		c.JSON(http.StatusGone, gin.H{
			"error": "This short URL has expired",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
