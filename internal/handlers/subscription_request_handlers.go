package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
)

//
// --- Subscription Request Handlers ---
//

const subscriptionNotFound = "Subscription request not found"

// CreateSubscriptionRequest is the handler for POST /api/subscription-requests
func (h *Handlers) CreateSubscriptionRequest(c *gin.Context) {
	var input SubmitRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.Approval.SubmitSubscriptionRequest(c.Request.Context(), input.toService())
	if err != nil {
		respondError(c, err, subscriptionNotFound)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// GetSubscriptionRequests is the handler for GET /api/subscription-requests
func (h *Handlers) GetSubscriptionRequests(c *gin.Context) {
	status := models.RequestStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	list, err := h.Approval.ListSubscriptionRequests(c.Request.Context(), status)
	if err != nil {
		respondError(c, err, subscriptionNotFound)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetSubscriptionRequest is the handler for GET /api/subscription-requests/:id
func (h *Handlers) GetSubscriptionRequest(c *gin.Context) {
	req, err := h.Approval.GetSubscriptionRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, subscriptionNotFound)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ApproveSubscriptionRequest is the handler for
// POST /api/subscription-requests/:id/approve
// The student is enrolled (or matched by phone) and the fee recorded in the
// same transaction that flips the request to approved.
func (h *Handlers) ApproveSubscriptionRequest(c *gin.Context) {
	// 1. --- Run Approval ---
	res, err := h.Approval.ApproveSubscriptionRequest(c.Request.Context(), c.Param("id"))
	h.recordDecision("subscription", "approve", err)
	if err != nil {
		respondError(c, err, subscriptionNotFound)
		return
	}

	// 2. --- Send Success Response ---
	body := gin.H{
		"message":             "Subscription request approved successfully",
		"subscriptionRequest": res.Request,
		"fee":                 res.Fee,
		"student":             res.Student,
		"studentCreated":      res.StudentCreated,
	}
	if res.WhatsAppLink != "" {
		body["whatsappLink"] = res.WhatsAppLink
	}
	c.JSON(http.StatusOK, body)
}

// RejectSubscriptionRequest is the handler for
// POST /api/subscription-requests/:id/reject
func (h *Handlers) RejectSubscriptionRequest(c *gin.Context) {
	input, ok := bindReject(c)
	if !ok {
		return
	}

	res, err := h.Approval.RejectSubscriptionRequest(c.Request.Context(), c.Param("id"), input.RejectionReason)
	h.recordDecision("subscription", "reject", err)
	if err != nil {
		respondError(c, err, subscriptionNotFound)
		return
	}

	body := gin.H{"message": "Subscription request rejected successfully"}
	if res.WhatsAppLink != "" {
		body["whatsappLink"] = res.WhatsAppLink
	}
	c.JSON(http.StatusOK, body)
}
