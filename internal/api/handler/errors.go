package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"complaintdesk/backend/internal/analysis"
	"complaintdesk/backend/internal/complaint"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to status codes. Internal details are logged, never returned.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *complaint.ValidationError
	switch {
	case errors.Is(err, complaint.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Complaint not found"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, analysis.ErrEmptyText):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Complaint text cannot be empty"})
	case errors.Is(err, analysis.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analysis service unavailable"})
	default:
		h.Log.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
