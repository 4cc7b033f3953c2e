package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/approval"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
)

//
// --- Student Submission Input ---
//

// SubmitRequestInput is the JSON body for both payment and subscription
// submissions.
type SubmitRequestInput struct {
	StudentName     string           `json:"student_name" binding:"required"`
	Phone           string           `json:"phone" binding:"required,phone"`
	GradeID         *string          `json:"grade_id"`
	GradeName       *string          `json:"grade_name"`
	GroupID         *string          `json:"group_id"`
	GroupName       *string          `json:"group_name"`
	Amount          *decimal.Decimal `json:"amount" binding:"required"`
	Notes           *string          `json:"notes"`
	ReceiptImageURL *string          `json:"receipt_image_url"`
}

func (in SubmitRequestInput) toService() approval.SubmitInput {
	return approval.SubmitInput{
		StudentName:     in.StudentName,
		Phone:           in.Phone,
		GradeID:         in.GradeID,
		GradeName:       in.GradeName,
		GroupID:         in.GroupID,
		GroupName:       in.GroupName,
		Amount:          *in.Amount,
		Notes:           in.Notes,
		ReceiptImageURL: in.ReceiptImageURL,
	}
}

// RejectInput carries the admin's reason. An empty body is treated as a
// missing reason rather than malformed JSON.
type RejectInput struct {
	RejectionReason string `json:"rejection_reason"`
}

func bindReject(c *gin.Context) (RejectInput, bool) {
	var input RejectInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return input, false
	}
	return input, true
}

//
// --- Payment Request Handlers ---
//

// CreatePaymentRequest is the handler for POST /api/payment-requests
func (h *Handlers) CreatePaymentRequest(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input SubmitRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Store Request ---
	req, err := h.Approval.SubmitPaymentRequest(c.Request.Context(), input.toService())
	if err != nil {
		respondError(c, err, "Payment request not found")
		return
	}

	c.JSON(http.StatusCreated, req)
}

// GetPaymentRequests is the handler for GET /api/payment-requests
// An optional ?status= narrows the list.
func (h *Handlers) GetPaymentRequests(c *gin.Context) {
	status := models.RequestStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	list, err := h.Approval.ListPaymentRequests(c.Request.Context(), status)
	if err != nil {
		respondError(c, err, "Payment request not found")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetPaymentRequest is the handler for GET /api/payment-requests/:id
func (h *Handlers) GetPaymentRequest(c *gin.Context) {
	req, err := h.Approval.GetPaymentRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Payment request not found")
		return
	}
	c.JSON(http.StatusOK, req)
}

// ApprovePaymentRequest is the handler for POST /api/payment-requests/:id/approve
// It records the fee and the revenue entry and marks the request approved,
// all in one transaction.
func (h *Handlers) ApprovePaymentRequest(c *gin.Context) {
	// 1. --- Run Approval ---
	res, err := h.Approval.ApprovePaymentRequest(c.Request.Context(), c.Param("id"))
	h.recordDecision("payment", "approve", err)
	if err != nil {
		respondError(c, err, "Payment request not found")
		return
	}

	// 2. --- Send Success Response ---
	body := gin.H{
		"message":        "Payment request approved successfully",
		"paymentRequest": res.Request,
		"fee":            res.Fee,
		"revenue":        res.Revenue,
	}
	if res.WhatsAppLink != "" {
		body["whatsappLink"] = res.WhatsAppLink
	}
	c.JSON(http.StatusOK, body)
}

// RejectPaymentRequest is the handler for POST /api/payment-requests/:id/reject
func (h *Handlers) RejectPaymentRequest(c *gin.Context) {
	// 1. --- Bind JSON ---
	input, ok := bindReject(c)
	if !ok {
		return
	}

	// 2. --- Conditional Reject ---
	res, err := h.Approval.RejectPaymentRequest(c.Request.Context(), c.Param("id"), input.RejectionReason)
	h.recordDecision("payment", "reject", err)
	if err != nil {
		respondError(c, err, "Payment request not found")
		return
	}

	// 3. --- Send Success Response ---
	body := gin.H{"message": "Payment request rejected successfully"}
	if res.WhatsAppLink != "" {
		body["whatsappLink"] = res.WhatsAppLink
	}
	c.JSON(http.StatusOK, body)
}
