package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
)

//
// --- Admin Dashboard Stats ---
//

type DashboardStats struct {
	PendingPayments      int             `json:"pendingPayments"`
	PendingSubscriptions int             `json:"pendingSubscriptions"`
	Students             int             `json:"students"`
	FeesCollected        decimal.Decimal `json:"feesCollected"`
	TotalRevenue         decimal.Decimal `json:"totalRevenue"`
}

// GetDashboardStats returns KPI data for the admin dashboard
// GET /api/dashboard/stats
func (h *Handlers) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats := DashboardStats{FeesCollected: decimal.Zero, TotalRevenue: decimal.Zero}

	// 1. Requests waiting for a decision
	payments, err := h.Store.ListPaymentRequests(ctx, models.StatusPending)
	if err != nil {
		dashboardError(c, "pending payment requests", err)
		return
	}
	stats.PendingPayments = len(payments)

	subscriptions, err := h.Store.ListSubscriptionRequests(ctx, models.StatusPending)
	if err != nil {
		dashboardError(c, "pending subscription requests", err)
		return
	}
	stats.PendingSubscriptions = len(subscriptions)

	// 2. Enrolled students
	students, err := h.Store.ListStudents(ctx)
	if err != nil {
		dashboardError(c, "students", err)
		return
	}
	stats.Students = len(students)

	// 3. Ledger totals
	fees, err := h.Store.ListFees(ctx, models.FeeFilter{})
	if err != nil {
		dashboardError(c, "fees", err)
		return
	}
	for _, fee := range fees {
		stats.FeesCollected = stats.FeesCollected.Add(fee.PaidAmount)
	}

	revenues, err := h.Store.ListRevenues(ctx)
	if err != nil {
		dashboardError(c, "revenues", err)
		return
	}
	for _, rev := range revenues {
		stats.TotalRevenue = stats.TotalRevenue.Add(rev.Amount)
	}

	c.JSON(http.StatusOK, stats)
}

func dashboardError(c *gin.Context, what string, err error) {
	log.Printf("ERROR: dashboard %s: %v", what, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard stats"})
}
