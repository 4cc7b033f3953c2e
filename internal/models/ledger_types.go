package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StudentSnapshot is what was true about the student when a payment was
// approved. It is copied into ledger rows, never joined back to live data.
type StudentSnapshot struct {
	StudentID   *string `json:"student_id" db:"student_id"`
	StudentName string  `json:"student_name" db:"student_name"`
	Phone       string  `json:"phone" db:"phone"`
	GradeID     *string `json:"grade_id" db:"grade_id"`
	GradeName   *string `json:"grade_name" db:"grade_name"`
	GroupID     *string `json:"group_id" db:"group_id"`
	GroupName   *string `json:"group_name" db:"group_name"`
}

// Fee payment methods and statuses written by the approval workflow.
const (
	FeeStatusPaid = "paid"

	PaymentMethodOnline       = "online"
	PaymentMethodSubscription = "subscription"
)

// Fee is the model for the 'fees' table. Rows are immutable once written.
type Fee struct {
	ID string `json:"id" db:"id"`
	StudentSnapshot
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	Status          string          `json:"status" db:"status"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	IsOffline       bool            `json:"is_offline" db:"is_offline"`
	Notes           *string         `json:"notes" db:"notes"`
	PaymentDate     time.Time       `json:"payment_date" db:"payment_date"`
	ReceiptImageURL *string         `json:"receipt_image_url" db:"receipt_image_url"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// RevenueSourcePaymentRequest tags revenue produced by payment-request approval.
const RevenueSourcePaymentRequest = "payment_request"

// Revenue is the model for the 'revenues' table.
type Revenue struct {
	ID          string          `json:"id" db:"id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Source      string          `json:"source" db:"source"`
	Description string          `json:"description" db:"description"`
	Date        time.Time       `json:"date" db:"date"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// FeeFilter narrows ListFees. Zero value lists everything.
type FeeFilter struct {
	Phone string
}
