package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
)

//
// --- Ledger Handlers (read only) ---
//

// GetFees is the handler for GET /api/fees
// ?phone= returns one student's payment history.
func (h *Handlers) GetFees(c *gin.Context) {
	filter := models.FeeFilter{Phone: models.CanonicalPhone(c.Query("phone"))}

	fees, err := h.Store.ListFees(c.Request.Context(), filter)
	if err != nil {
		log.Printf("ERROR: list fees: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch fees"})
		return
	}
	c.JSON(http.StatusOK, fees)
}

// GetRevenues is the handler for GET /api/revenues
func (h *Handlers) GetRevenues(c *gin.Context) {
	revenues, err := h.Store.ListRevenues(c.Request.Context())
	if err != nil {
		log.Printf("ERROR: list revenues: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch revenues"})
		return
	}
	c.JSON(http.StatusOK, revenues)
}

// GetStudents is the handler for GET /api/students
func (h *Handlers) GetStudents(c *gin.Context) {
	students, err := h.Store.ListStudents(c.Request.Context())
	if err != nil {
		log.Printf("ERROR: list students: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch students"})
		return
	}
	c.JSON(http.StatusOK, students)
}
