package memstore

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store"
)

// Tx holds the store's write lock from BeginTx until Commit or Rollback.
type Tx struct {
	s    *Store
	done bool

	// staged writes, applied in order on Commit
	writes   []func()
	students map[string]*models.Student // by phone, inserted in this tx
}

var _ store.Tx = (*Tx)(nil)

func (t *Tx) check(op string) error {
	if t.done {
		return errors.New("transaction already finished")
	}
	return t.s.failure(op)
}

func (t *Tx) LockPaymentRequest(ctx context.Context, id string) (*models.PaymentRequest, error) {
	if err := t.check(""); err != nil {
		return nil, err
	}
	return t.s.GetPaymentRequest(ctx, id)
}

func (t *Tx) LockSubscriptionRequest(ctx context.Context, id string) (*models.SubscriptionRequest, error) {
	if err := t.check(""); err != nil {
		return nil, err
	}
	return t.s.GetSubscriptionRequest(ctx, id)
}

func (t *Tx) LockStudentByPhone(ctx context.Context, phone string) (*models.Student, error) {
	return t.studentByPhone(phone, "failed to lock student")
}

func (t *Tx) FindStudentByPhone(ctx context.Context, phone string) (*models.Student, error) {
	return t.studentByPhone(phone, "failed to find student")
}

// studentByPhone sees this transaction's own inserts before committed rows.
func (t *Tx) studentByPhone(phone, msg string) (*models.Student, error) {
	if err := t.check(""); err != nil {
		return nil, err
	}
	if st, ok := t.students[phone]; ok {
		cp := *st
		return &cp, nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	st := t.s.studentByPhone(phone)
	if st == nil {
		return nil, errors.Wrap(store.ErrNotFound, msg)
	}
	cp := *st
	return &cp, nil
}

func (t *Tx) InsertStudent(ctx context.Context, st *models.Student) error {
	if err := t.check(OpInsertStudent); err != nil {
		return err
	}
	if _, ok := t.students[st.Phone]; ok {
		return errors.Wrap(store.ErrDuplicate, "failed to insert student")
	}
	t.s.mu.RLock()
	existing := t.s.studentByPhone(st.Phone)
	t.s.mu.RUnlock()
	if existing != nil {
		return errors.Wrap(store.ErrDuplicate, "failed to insert student")
	}

	cp := *st
	t.students[st.Phone] = &cp
	t.writes = append(t.writes, func() {
		t.s.students[cp.ID] = &cp
	})
	return nil
}

func (t *Tx) InsertFee(ctx context.Context, fee *models.Fee) error {
	if err := t.check(OpInsertFee); err != nil {
		return err
	}
	cp := *fee
	t.writes = append(t.writes, func() {
		t.s.fees = append(t.s.fees, &cp)
	})
	return nil
}

func (t *Tx) InsertRevenue(ctx context.Context, rev *models.Revenue) error {
	if err := t.check(OpInsertRevenue); err != nil {
		return err
	}
	cp := *rev
	t.writes = append(t.writes, func() {
		t.s.revenues = append(t.s.revenues, &cp)
	})
	return nil
}

func (t *Tx) MarkPaymentRequestApproved(ctx context.Context, id string, at time.Time) error {
	if err := t.check(OpMarkPaymentApproved); err != nil {
		return err
	}
	if _, err := t.s.GetPaymentRequest(ctx, id); err != nil {
		return errors.Wrap(store.ErrNotFound, "failed to approve payment request")
	}
	t.writes = append(t.writes, func() {
		req := t.s.paymentRequests[id]
		req.Status = models.StatusApproved
		req.UpdatedAt = at
	})
	return nil
}

func (t *Tx) MarkSubscriptionRequestApproved(ctx context.Context, id, studentID string, at time.Time) error {
	if err := t.check(OpMarkSubscriptionApproved); err != nil {
		return err
	}
	if _, err := t.s.GetSubscriptionRequest(ctx, id); err != nil {
		return errors.Wrap(store.ErrNotFound, "failed to approve subscription request")
	}
	t.writes = append(t.writes, func() {
		req := t.s.subscriptionRequests[id]
		req.Status = models.StatusApproved
		req.StudentID = &studentID
		req.UpdatedAt = at
	})
	return nil
}

func (t *Tx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	if err := t.s.failure(OpCommit); err != nil {
		return err
	}
	t.s.mu.Lock()
	for _, apply := range t.writes {
		apply()
	}
	t.s.mu.Unlock()
	t.finish()
	return nil
}

func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *Tx) finish() {
	t.done = true
	t.writes = nil
	t.s.release()
}
