package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as plain JSON numbers, e.g. 500 not "500".
	decimal.MarshalJSONWithoutQuotes = true
}

// RequestStatus is the lifecycle state shared by payment and subscription requests.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is one of the known request states.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// PaymentRequest is the model for the 'payment_requests' table.
// A student submits it, an admin approves or rejects it exactly once.
type PaymentRequest struct {
	ID              string          `json:"id" db:"id"`
	StudentName     string          `json:"student_name" db:"student_name"`
	Phone           string          `json:"phone" db:"phone"`
	GradeID         *string         `json:"grade_id" db:"grade_id"`
	GradeName       *string         `json:"grade_name" db:"grade_name"`
	GroupID         *string         `json:"group_id" db:"group_id"`
	GroupName       *string         `json:"group_name" db:"group_name"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Notes           *string         `json:"notes" db:"notes"`
	ReceiptImageURL *string         `json:"receipt_image_url" db:"receipt_image_url"`
	Status          RequestStatus   `json:"status" db:"status"`
	RejectionReason *string         `json:"rejection_reason" db:"rejection_reason"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Snapshot copies the student, grade and group data as it stands right now.
func (r *PaymentRequest) Snapshot() StudentSnapshot {
	return StudentSnapshot{
		StudentName: r.StudentName,
		Phone:       r.Phone,
		GradeID:     r.GradeID,
		GradeName:   r.GradeName,
		GroupID:     r.GroupID,
		GroupName:   r.GroupName,
	}
}

// SubscriptionRequest is the model for the 'subscription_requests' table.
// Approving one also enrolls the student (looked up or created by phone).
type SubscriptionRequest struct {
	ID              string          `json:"id" db:"id"`
	StudentID       *string         `json:"student_id" db:"student_id"`
	StudentName     string          `json:"student_name" db:"student_name"`
	Phone           string          `json:"phone" db:"phone"`
	GradeID         *string         `json:"grade_id" db:"grade_id"`
	GradeName       *string         `json:"grade_name" db:"grade_name"`
	GroupID         *string         `json:"group_id" db:"group_id"`
	GroupName       *string         `json:"group_name" db:"group_name"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Notes           *string         `json:"notes" db:"notes"`
	ReceiptImageURL *string         `json:"receipt_image_url" db:"receipt_image_url"`
	Status          RequestStatus   `json:"status" db:"status"`
	RejectionReason *string         `json:"rejection_reason" db:"rejection_reason"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

func (r *SubscriptionRequest) Snapshot() StudentSnapshot {
	return StudentSnapshot{
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		Phone:       r.Phone,
		GradeID:     r.GradeID,
		GradeName:   r.GradeName,
		GroupID:     r.GroupID,
		GroupName:   r.GroupName,
	}
}
