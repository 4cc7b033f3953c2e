// Package approval runs the payment and subscription request workflows:
// student submissions, admin approval (which writes the fee and revenue
// ledgers) and admin rejection.
package approval

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store"
)

var (
	ErrNotFound       = errors.New("request not found")
	ErrNotPending     = errors.New("only pending requests can be approved")
	ErrNotRejectable  = errors.New("request not found or already processed")
	ErrReasonRequired = errors.New("rejection reason is required")
	ErrInvalidRequest = errors.New("invalid request")
)

// Notifier turns a decision into a message link for the student. Failures
// are logged by the service; they never undo a committed decision.
type Notifier interface {
	PaymentApproved(name, phone string, amount decimal.Decimal) (string, error)
	PaymentRejected(name, phone, reason string) (string, error)
	SubscriptionApproved(name, phone string) (string, error)
	SubscriptionRejected(name, phone, reason string) (string, error)
}

type Service struct {
	store    store.Store
	notifier Notifier
	logger   *log.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService wires the workflow to an injected store. notifier may be nil.
func NewService(st store.Store, notifier Notifier, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.New(os.Stderr, "approval: ", log.LstdFlags)
	}
	s := &Service{
		store:    st,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// maxAmount is the first value the DECIMAL(12,2) amount columns cannot hold.
var maxAmount = decimal.New(1, 10)

// SubmitInput is what a student sends with a payment or subscription request.
type SubmitInput struct {
	StudentName     string
	Phone           string
	GradeID         *string
	GradeName       *string
	GroupID         *string
	GroupName       *string
	Amount          decimal.Decimal
	Notes           *string
	ReceiptImageURL *string
}

func (in *SubmitInput) normalize() error {
	in.StudentName = strings.TrimSpace(in.StudentName)
	in.Phone = models.CanonicalPhone(in.Phone)
	if in.StudentName == "" {
		return errors.WithMessage(ErrInvalidRequest, "student_name is required")
	}
	if in.Phone == "" {
		return errors.WithMessage(ErrInvalidRequest, "phone is required")
	}
	if in.Amount.IsNegative() {
		return errors.WithMessage(ErrInvalidRequest, "amount must not be negative")
	}
	if !in.Amount.Equal(in.Amount.Truncate(2)) {
		return errors.WithMessage(ErrInvalidRequest, "amount must have at most 2 decimal places")
	}
	if in.Amount.GreaterThanOrEqual(maxAmount) {
		return errors.WithMessagef(ErrInvalidRequest, "amount must be less than %s", maxAmount)
	}
	in.GradeID = trimOptional(in.GradeID)
	in.GradeName = trimOptional(in.GradeName)
	in.GroupID = trimOptional(in.GroupID)
	in.GroupName = trimOptional(in.GroupName)
	in.Notes = trimOptional(in.Notes)
	in.ReceiptImageURL = trimOptional(in.ReceiptImageURL)
	return nil
}

// trimOptional drops blank optional strings so they are stored as NULL.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// notify calls build and logs a failure instead of returning it.
func (s *Service) notify(what, id string, build func() (string, error)) string {
	if s.notifier == nil {
		return ""
	}
	link, err := build()
	if err != nil {
		s.logger.Printf("WARNING: %s %s committed but notification link failed: %v", what, id, err)
		return ""
	}
	return link
}

func trimReason(reason string) string {
	return strings.TrimSpace(reason)
}
