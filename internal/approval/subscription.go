package approval

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store"
)

// SubscriptionApproval is everything an approved subscription request produced.
type SubscriptionApproval struct {
	Request        *models.SubscriptionRequest
	Fee            *models.Fee
	Student        *models.Student
	StudentCreated bool
	WhatsAppLink   string
}

type SubscriptionRejection struct {
	Request      *models.SubscriptionRequest
	WhatsAppLink string
}

func (s *Service) SubmitSubscriptionRequest(ctx context.Context, in SubmitInput) (*models.SubscriptionRequest, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	now := s.now()
	req := &models.SubscriptionRequest{
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
	if err := s.store.CreateSubscriptionRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ApproveSubscriptionRequest approves a pending subscription request, enrolls
// the student and records the fee in one transaction. The request row is
// locked, so two approvals of the same request cannot both pass the check.
// The unique phone index decides which approval enrolls a new student.
func (s *Service) ApproveSubscriptionRequest(ctx context.Context, id string) (*SubscriptionApproval, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req, err := tx.LockSubscriptionRequest(ctx, id)
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

	student, created, err := s.lookupOrCreateStudent(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	snapshot := req.Snapshot()
	snapshot.StudentID = &student.ID

	fee := &models.Fee{
		ID:              s.newID(),
		StudentSnapshot: snapshot,
		Amount:          req.Amount,
		PaidAmount:      req.Amount,
		Status:          models.FeeStatusPaid,
		PaymentMethod:   models.PaymentMethodSubscription,
		IsOffline:       false,
		Notes:           req.Notes,
		PaymentDate:     now,
		ReceiptImageURL: req.ReceiptImageURL,
		CreatedAt:       now,
	}
	if err := tx.InsertFee(ctx, fee); err != nil {
		return nil, err
	}

	if err := tx.MarkSubscriptionRequestApproved(ctx, req.ID, student.ID, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	req.Status = models.StatusApproved
	req.StudentID = &student.ID
	req.UpdatedAt = now
	s.logger.Printf("subscription request %s approved: student %s (new: %t), fee %s", req.ID, student.ID, created, fee.ID)

	link := s.notify("subscription request", req.ID, func() (string, error) {
		return s.notifier.SubscriptionApproved(req.StudentName, req.Phone)
	})

	return &SubscriptionApproval{
		Request:        req,
		Fee:            fee,
		Student:        student,
		StudentCreated: created,
		WhatsAppLink:   link,
	}, nil
}

// lookupOrCreateStudent finds the student by phone or enrolls a new one. The
// first read takes no lock; a concurrent enrollment of the same phone makes
// the insert fail on the unique index, and the winner's row is then read
// under lock.
func (s *Service) lookupOrCreateStudent(ctx context.Context, tx store.Tx, req *models.SubscriptionRequest) (*models.Student, bool, error) {
	student, err := tx.FindStudentByPhone(ctx, req.Phone)
	if err == nil {
		return student, false, nil
	}
	if !store.IsNotFound(err) {
		return nil, false, err
	}

	now := s.now()
	student = &models.Student{
		ID:        s.newID(),
		Name:      req.StudentName,
		Phone:     req.Phone,
		GradeID:   req.GradeID,
		GroupID:   req.GroupID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = tx.InsertStudent(ctx, student)
	switch {
	case err == nil:
		return student, true, nil
	case store.IsDuplicate(err):
		existing, err := tx.LockStudentByPhone(ctx, req.Phone)
		if err != nil {
			return nil, false, errors.Wrap(err, "student exists but could not be read")
		}
		return existing, false, nil
	default:
		return nil, false, err
	}
}

func (s *Service) RejectSubscriptionRequest(ctx context.Context, id, reason string) (*SubscriptionRejection, error) {
	reason = trimReason(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	ok, err := s.store.RejectSubscriptionRequest(ctx, id, reason, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotRejectable
	}
	s.logger.Printf("subscription request %s rejected: %s", id, reason)

	rejection := &SubscriptionRejection{}
	req, err := s.store.GetSubscriptionRequest(ctx, id)
	if err != nil {
		s.logger.Printf("WARNING: subscription request %s rejected but could not be re-read: %v", id, err)
		return rejection, nil
	}
	rejection.Request = req
	rejection.WhatsAppLink = s.notify("subscription request", id, func() (string, error) {
		return s.notifier.SubscriptionRejected(req.StudentName, req.Phone, reason)
	})
	return rejection, nil
}

func (s *Service) GetSubscriptionRequest(ctx context.Context, id string) (*models.SubscriptionRequest, error) {
	req, err := s.store.GetSubscriptionRequest(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (s *Service) ListSubscriptionRequests(ctx context.Context, status models.RequestStatus) ([]*models.SubscriptionRequest, error) {
	if status != "" && !status.Valid() {
		return nil, errors.WithMessagef(ErrInvalidRequest, "unknown status %q", status)
	}
	return s.store.ListSubscriptionRequests(ctx, status)
}
