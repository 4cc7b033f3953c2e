// Package memstore is an in-memory store.Store. Transactions are serialized
// and their writes are buffered until Commit, so a Rollback leaves no trace.
//
// There are no row or gap locks: one store-wide lock is held for the whole
// transaction and Lock* reads are plain reads under it. Tests against this
// store therefore never see deadlocks or lock waits between transactions
// touching different rows. Those paths are covered with sqlmock in mysqlstore.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store"
)

// Operation names accepted by FailOn.
const (
	OpInsertStudent            = "insert_student"
	OpInsertFee                = "insert_fee"
	OpInsertRevenue            = "insert_revenue"
	OpMarkPaymentApproved      = "mark_payment_approved"
	OpMarkSubscriptionApproved = "mark_subscription_approved"
	OpCommit                   = "commit"
	OpPing                     = "ping"
)

type Store struct {
	// writeLock is held by an open transaction and by conditional updates.
	// It plays the part of the row locks a SQL database would take.
	writeLock chan struct{}

	mu                   sync.RWMutex
	paymentRequests      map[string]*models.PaymentRequest
	paymentOrder         []string
	subscriptionRequests map[string]*models.SubscriptionRequest
	subscriptionOrder    []string
	students             map[string]*models.Student
	fees                 []*models.Fee
	revenues             []*models.Revenue
	admins               map[string]*models.Admin
	failures             map[string]error
}

func New() *Store {
	return &Store{
		writeLock:            make(chan struct{}, 1),
		paymentRequests:      make(map[string]*models.PaymentRequest),
		subscriptionRequests: make(map[string]*models.SubscriptionRequest),
		students:             make(map[string]*models.Student),
		admins:               make(map[string]*models.Admin),
		failures:             make(map[string]error),
	}
}

var _ store.Store = (*Store)(nil)

// FailOn makes the named operation return err until cleared
// with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) failure(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures[op]
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.writeLock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for write lock")
	}
}

func (s *Store) release() {
	<-s.writeLock
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.failure(OpPing); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Store) BeginTx(ctx context.Context) (store.Tx, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}
	return &Tx{s: s, students: make(map[string]*models.Student)}, nil
}

//
// --- Payment Requests ---
//

func (s *Store) CreatePaymentRequest(ctx context.Context, req *models.PaymentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paymentRequests[req.ID]; ok {
		return errors.Wrap(store.ErrDuplicate, "failed to create payment request")
	}
	cp := *req
	s.paymentRequests[req.ID] = &cp
	s.paymentOrder = append(s.paymentOrder, req.ID)
	return nil
}

func (s *Store) GetPaymentRequest(ctx context.Context, id string) (*models.PaymentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.paymentRequests[id]
	if !ok {
		return nil, errors.Wrap(store.ErrNotFound, "failed to get payment request")
	}
	cp := *req
	return &cp, nil
}

func (s *Store) ListPaymentRequests(ctx context.Context, status models.RequestStatus) ([]*models.PaymentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requests := []*models.PaymentRequest{}
	for i := len(s.paymentOrder) - 1; i >= 0; i-- {
		req := s.paymentRequests[s.paymentOrder[i]]
		if status != "" && req.Status != status {
			continue
		}
		cp := *req
		requests = append(requests, &cp)
	}
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

func (s *Store) RejectPaymentRequest(ctx context.Context, id, reason string, at time.Time) (bool, error) {
	if err := s.acquire(ctx); err != nil {
		return false, err
	}
	defer s.release()

	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.paymentRequests[id]
	if !ok || req.Status != models.StatusPending {
		return false, nil
	}
	req.Status = models.StatusRejected
	req.RejectionReason = &reason
	req.UpdatedAt = at
	return true, nil
}

//
// --- Subscription Requests ---
//

func (s *Store) CreateSubscriptionRequest(ctx context.Context, req *models.SubscriptionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscriptionRequests[req.ID]; ok {
		return errors.Wrap(store.ErrDuplicate, "failed to create subscription request")
	}
	cp := *req
	s.subscriptionRequests[req.ID] = &cp
	s.subscriptionOrder = append(s.subscriptionOrder, req.ID)
	return nil
}

func (s *Store) GetSubscriptionRequest(ctx context.Context, id string) (*models.SubscriptionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.subscriptionRequests[id]
	if !ok {
		return nil, errors.Wrap(store.ErrNotFound, "failed to get subscription request")
	}
	cp := *req
	return &cp, nil
}

func (s *Store) ListSubscriptionRequests(ctx context.Context, status models.RequestStatus) ([]*models.SubscriptionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requests := []*models.SubscriptionRequest{}
	for i := len(s.subscriptionOrder) - 1; i >= 0; i-- {
		req := s.subscriptionRequests[s.subscriptionOrder[i]]
		if status != "" && req.Status != status {
			continue
		}
		cp := *req
		requests = append(requests, &cp)
	}
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

func (s *Store) RejectSubscriptionRequest(ctx context.Context, id, reason string, at time.Time) (bool, error) {
	if err := s.acquire(ctx); err != nil {
		return false, err
	}
	defer s.release()

	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.subscriptionRequests[id]
	if !ok || req.Status != models.StatusPending {
		return false, nil
	}
	req.Status = models.StatusRejected
	req.RejectionReason = &reason
	req.UpdatedAt = at
	return true, nil
}

//
// --- Ledgers & Students ---
//

func (s *Store) ListFees(ctx context.Context, filter models.FeeFilter) ([]*models.Fee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fees := []*models.Fee{}
	for i := len(s.fees) - 1; i >= 0; i-- {
		fee := s.fees[i]
		if filter.Phone != "" && fee.Phone != filter.Phone {
			continue
		}
		cp := *fee
		fees = append(fees, &cp)
	}
	sort.SliceStable(fees, func(i, j int) bool {
		return fees[i].PaymentDate.After(fees[j].PaymentDate)
	})
	return fees, nil
}

func (s *Store) ListRevenues(ctx context.Context) ([]*models.Revenue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revenues := []*models.Revenue{}
	for i := len(s.revenues) - 1; i >= 0; i-- {
		cp := *s.revenues[i]
		revenues = append(revenues, &cp)
	}
	sort.SliceStable(revenues, func(i, j int) bool {
		return revenues[i].Date.After(revenues[j].Date)
	})
	return revenues, nil
}

func (s *Store) ListStudents(ctx context.Context) ([]*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]*models.Student, 0, len(s.students))
	for _, st := range s.students {
		cp := *st
		students = append(students, &cp)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}

// studentByPhone must be called with mu held.
func (s *Store) studentByPhone(phone string) *models.Student {
	for _, st := range s.students {
		if st.Phone == phone {
			return st
		}
	}
	return nil
}

//
// --- Admins ---
//

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	admin, ok := s.admins[email]
	if !ok {
		return nil, errors.Wrap(store.ErrNotFound, "failed to find admin")
	}
	cp := *admin
	return &cp, nil
}

func (s *Store) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[admin.Email]; ok {
		return errors.Wrap(store.ErrDuplicate, "failed to create admin")
	}
	cp := *admin
	s.admins[admin.Email] = &cp
	return nil
}
