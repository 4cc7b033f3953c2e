// Package store defines the data access contract for requests, the fee and
// revenue ledgers, students and admins.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert hits a unique key.
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict is returned when the database aborted the statement because
	// of a lock conflict (deadlock or lock wait timeout). Retrying may succeed.
	ErrConflict = errors.New("lock conflict")
)

// Store is the process-wide handle. It is created once in main and injected.
type Store interface {
	Ping(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)

	CreatePaymentRequest(ctx context.Context, req *models.PaymentRequest) error
	GetPaymentRequest(ctx context.Context, id string) (*models.PaymentRequest, error)
	ListPaymentRequests(ctx context.Context, status models.RequestStatus) ([]*models.PaymentRequest, error)
	// RejectPaymentRequest flips a pending request to rejected in a single
	// conditional update. It reports false when no pending row matched.
	RejectPaymentRequest(ctx context.Context, id, reason string, at time.Time) (bool, error)

	CreateSubscriptionRequest(ctx context.Context, req *models.SubscriptionRequest) error
	GetSubscriptionRequest(ctx context.Context, id string) (*models.SubscriptionRequest, error)
	ListSubscriptionRequests(ctx context.Context, status models.RequestStatus) ([]*models.SubscriptionRequest, error)
	RejectSubscriptionRequest(ctx context.Context, id, reason string, at time.Time) (bool, error)

	ListFees(ctx context.Context, filter models.FeeFilter) ([]*models.Fee, error)
	ListRevenues(ctx context.Context) ([]*models.Revenue, error)
	ListStudents(ctx context.Context) ([]*models.Student, error)

	FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	CreateAdmin(ctx context.Context, admin *models.Admin) error
}

// Tx is a single database transaction. Lock* reads hold a row lock until
// Commit or Rollback. Rollback after Commit is a no-op.
type Tx interface {
	LockPaymentRequest(ctx context.Context, id string) (*models.PaymentRequest, error)
	LockSubscriptionRequest(ctx context.Context, id string) (*models.SubscriptionRequest, error)
	LockStudentByPhone(ctx context.Context, phone string) (*models.Student, error)
	// FindStudentByPhone is a plain read inside the transaction. It takes no
	// lock, so a miss does not block other transactions inserting that phone.
	FindStudentByPhone(ctx context.Context, phone string) (*models.Student, error)

	InsertStudent(ctx context.Context, student *models.Student) error
	InsertFee(ctx context.Context, fee *models.Fee) error
	InsertRevenue(ctx context.Context, rev *models.Revenue) error

	MarkPaymentRequestApproved(ctx context.Context, id string, at time.Time) error
	MarkSubscriptionRequestApproved(ctx context.Context, id, studentID string, at time.Time) error

	Commit() error
	Rollback() error
}

// IsNotFound reports whether err (or its cause) is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate reports whether err (or its cause) is ErrDuplicate.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsConflict reports whether err (or its cause) is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
