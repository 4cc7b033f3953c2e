package approval

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store"
)

// PaymentApproval is everything an approved payment request produced.
type PaymentApproval struct {
	Request      *models.PaymentRequest
	Fee          *models.Fee
	Revenue      *models.Revenue
	WhatsAppLink string
}

// PaymentRejection carries the rejected request (when it could be re-read)
// and the student notification link.
type PaymentRejection struct {
	Request      *models.PaymentRequest
	WhatsAppLink string
}

func (s *Service) SubmitPaymentRequest(ctx context.Context, in SubmitInput) (*models.PaymentRequest, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	now := s.now()
	req := &models.PaymentRequest{
		ID:              s.newID(),
		StudentName:     in.StudentName,
		Phone:           in.Phone,
		GradeID:         in.GradeID,
		GradeName:       in.GradeName,
		GroupID:         in.GroupID,
		GroupName:       in.GroupName,
		Amount:          in.Amount,
		Notes:           in.Notes,
		ReceiptImageURL: in.ReceiptImageURL,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreatePaymentRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ApprovePaymentRequest moves a pending request to approved and records the
// payment in the fee and revenue ledgers, all in one transaction. The request
// row is locked first, so concurrent approvals of the same id serialize and
// only the first one sees it pending. Amount and student data come from the
// stored row only.
func (s *Service) ApprovePaymentRequest(ctx context.Context, id string) (*PaymentApproval, error) {
	// 1. --- Begin Transaction ---
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// 2. --- Lock & Check Status ---
	req, err := tx.LockPaymentRequest(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.Status != models.StatusPending {
		return nil, ErrNotPending
	}

	now := s.now()
	snapshot := req.Snapshot()

	// Link the fee to an enrolled student when one exists. Payment requests
	// never create students.
	student, err := tx.FindStudentByPhone(ctx, req.Phone)
	switch {
	case err == nil:
		snapshot.StudentID = &student.ID
	case !store.IsNotFound(err):
		return nil, err
	}

	// 3. --- Write Ledgers ---
	fee := &models.Fee{
		ID:              s.newID(),
		StudentSnapshot: snapshot,
		Amount:          req.Amount,
		PaidAmount:      req.Amount,
		Status:          models.FeeStatusPaid,
		PaymentMethod:   models.PaymentMethodOnline,
		IsOffline:       false,
		Notes:           req.Notes,
		PaymentDate:     now,
		ReceiptImageURL: req.ReceiptImageURL,
		CreatedAt:       now,
	}
	if err := tx.InsertFee(ctx, fee); err != nil {
		return nil, err
	}

	revenue := &models.Revenue{
		ID:          s.newID(),
		Amount:      req.Amount,
		Source:      models.RevenueSourcePaymentRequest,
		Description: fmt.Sprintf("Payment from %s (%s)", req.StudentName, req.Phone),
		Date:        now,
		CreatedAt:   now,
	}
	if err := tx.InsertRevenue(ctx, revenue); err != nil {
		return nil, err
	}

	// 4. --- Flip Status & Commit ---
	if err := tx.MarkPaymentRequestApproved(ctx, req.ID, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	req.Status = models.StatusApproved
	req.UpdatedAt = now
	s.logger.Printf("payment request %s approved: fee %s, amount %s", req.ID, fee.ID, req.Amount.String())

	link := s.notify("payment request", req.ID, func() (string, error) {
		return s.notifier.PaymentApproved(req.StudentName, req.Phone, req.Amount)
	})

	return &PaymentApproval{Request: req, Fee: fee, Revenue: revenue, WhatsAppLink: link}, nil
}

// RejectPaymentRequest rejects a pending request with a single conditional
// update. It needs no lock because nothing else is written alongside it.
func (s *Service) RejectPaymentRequest(ctx context.Context, id, reason string) (*PaymentRejection, error) {
	reason = trimReason(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	ok, err := s.store.RejectPaymentRequest(ctx, id, reason, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotRejectable
	}
	s.logger.Printf("payment request %s rejected: %s", id, reason)

	rejection := &PaymentRejection{}
	req, err := s.store.GetPaymentRequest(ctx, id)
	if err != nil {
		s.logger.Printf("WARNING: payment request %s rejected but could not be re-read: %v", id, err)
		return rejection, nil
	}
	rejection.Request = req
	rejection.WhatsAppLink = s.notify("payment request", id, func() (string, error) {
		return s.notifier.PaymentRejected(req.StudentName, req.Phone, reason)
	})
	return rejection, nil
}

func (s *Service) GetPaymentRequest(ctx context.Context, id string) (*models.PaymentRequest, error) {
	req, err := s.store.GetPaymentRequest(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// ListPaymentRequests lists requests, newest first. An empty status lists all.
func (s *Service) ListPaymentRequests(ctx context.Context, status models.RequestStatus) ([]*models.PaymentRequest, error) {
	if status != "" && !status.Valid() {
		return nil, errors.WithMessagef(ErrInvalidRequest, "unknown status %q", status)
	}
	return s.store.ListPaymentRequests(ctx, status)
}
