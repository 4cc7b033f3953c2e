package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/approval"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store"
)

// respondError maps workflow errors to status codes. Anything unexpected is
// logged and reported as a generic 500.
func respondError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, approval.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	case errors.Is(err, approval.ErrNotPending):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only pending requests can be approved"})
	case errors.Is(err, approval.ErrNotRejectable):
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found or already processed"})
	case errors.Is(err, approval.ErrReasonRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rejection reason is required"})
	case errors.Is(err, approval.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case store.IsConflict(err):
		log.Printf("WARNING: %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusConflict, gin.H{"error": "Request is being processed by another admin, please retry"})
	default:
		log.Printf("ERROR: %s %s: %+v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// outcome is the metrics label for a decision result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, approval.ErrNotFound):
		return "not_found"
	case errors.Is(err, approval.ErrNotPending):
		return "not_pending"
	case errors.Is(err, approval.ErrNotRejectable):
		return "not_rejectable"
	case errors.Is(err, approval.ErrReasonRequired):
		return "reason_required"
	case store.IsConflict(err):
		return "conflict"
	default:
		return "error"
	}
}

func (h *Handlers) recordDecision(kind, action string, err error) {
	if h.Metrics != nil {
		h.Metrics.Decision(kind, action, outcome(err))
	}
}
