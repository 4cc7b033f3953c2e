package approval

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/notify"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store/memstore"
)

var fixedNow = time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T, opts ...Option) (*Service, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	svc := NewService(st, notify.NewWhatsApp("20"), log.New(io.Discard, "", 0), opts...)
	return svc, st
}

func submitPayment(t *testing.T, svc *Service, name, phone string, amount int64) *models.PaymentRequest {
	t.Helper()
	req, err := svc.SubmitPaymentRequest(context.Background(), SubmitInput{
		StudentName: name,
		Phone:       phone,
		Amount:      decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return req
}

func submitSubscription(t *testing.T, svc *Service, name, phone string, amount int64) *models.SubscriptionRequest {
	t.Helper()
	req, err := svc.SubmitSubscriptionRequest(context.Background(), SubmitInput{
		StudentName: name,
		Phone:       phone,
		Amount:      decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return req
}

func countFees(t *testing.T, st *memstore.Store) int {
	t.Helper()
	fees, err := st.ListFees(context.Background(), models.FeeFilter{})
	require.NoError(t, err)
	return len(fees)
}

func countRevenues(t *testing.T, st *memstore.Store) int {
	t.Helper()
	revs, err := st.ListRevenues(context.Background())
	require.NoError(t, err)
	return len(revs)
}

func TestSubmitPaymentRequest(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()

	grade := "  Grade 2 "
	blank := "   "
	req, err := svc.SubmitPaymentRequest(ctx, SubmitInput{
		StudentName: " Ahmed ",
		Phone:       "01001234567",
		GradeName:   &grade,
		Notes:       &blank,
		Amount:      decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "Ahmed", req.StudentName)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, fixedNow, req.CreatedAt)
	require.NotNil(t, req.GradeName)
	assert.Equal(t, "Grade 2", *req.GradeName)
	assert.Nil(t, req.Notes)

	stored, err := st.GetPaymentRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, stored.ID)
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SubmitInput
	}{
		{name: "missing name", in: SubmitInput{Phone: "01001234567", Amount: decimal.NewFromInt(1)}},
		{name: "missing phone", in: SubmitInput{StudentName: "Ahmed", Amount: decimal.NewFromInt(1)}},
		{name: "negative amount", in: SubmitInput{StudentName: "Ahmed", Phone: "01001234567", Amount: decimal.NewFromInt(-5)}},
		{name: "fractional cents", in: SubmitInput{StudentName: "Ahmed", Phone: "01001234567", Amount: decimal.RequireFromString("500.555")}},
		{name: "amount too large", in: SubmitInput{StudentName: "Ahmed", Phone: "01001234567", Amount: decimal.New(1, 15)}},
		{name: "amount at column limit", in: SubmitInput{StudentName: "Ahmed", Phone: "01001234567", Amount: decimal.New(1, 10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitPaymentRequest(ctx, tt.in)
			assert.True(t, errors.Is(err, ErrInvalidRequest), "got %v", err)

			_, err = svc.SubmitSubscriptionRequest(ctx, tt.in)
			assert.True(t, errors.Is(err, ErrInvalidRequest), "got %v", err)
		})
	}
}

func TestSubmitAmountFitsColumn(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()

	for _, amount := range []string{"0", "500.5", "500.500", "9999999999.99"} {
		req, err := svc.SubmitPaymentRequest(ctx, SubmitInput{
			StudentName: "Ahmed",
			Phone:       "01001234567",
			Amount:      decimal.RequireFromString(amount),
		})
		require.NoError(t, err, amount)

		stored, err := st.GetPaymentRequest(ctx, req.ID)
		require.NoError(t, err)
		assert.True(t, stored.Amount.Equal(decimal.RequireFromString(amount)), amount)
	}
}

func TestSubmitCanonicalizesPhone(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	for in, want := range map[string]string{
		" 01001234567 ":    "01001234567",
		"0100 123-4567":    "01001234567",
		"(0100) 123 4567":  "01001234567",
		"+20 100 123 4567": "+201001234567",
		"0020 100 1234567": "+201001234567",
	} {
		req, err := svc.SubmitSubscriptionRequest(ctx, SubmitInput{
			StudentName: "Ahmed",
			Phone:       in,
			Amount:      decimal.NewFromInt(100),
		})
		require.NoError(t, err, in)
		assert.Equal(t, want, req.Phone, in)
	}
}

func TestApprovePaymentRequest(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	req := submitPayment(t, svc, "Ahmed", "01001234567", 500)

	res, err := svc.ApprovePaymentRequest(ctx, req.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, res.Request.Status)
	assert.Equal(t, fixedNow, res.Request.UpdatedAt)
	assert.Contains(t, res.WhatsAppLink, "https://wa.me/201001234567")

	fees, err := st.ListFees(ctx, models.FeeFilter{})
	require.NoError(t, err)
	require.Len(t, fees, 1)
	fee := fees[0]
	assert.True(t, fee.Amount.Equal(decimal.NewFromInt(500)))
	assert.True(t, fee.PaidAmount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, models.FeeStatusPaid, fee.Status)
	assert.Equal(t, models.PaymentMethodOnline, fee.PaymentMethod)
	assert.False(t, fee.IsOffline)
	assert.Equal(t, "Ahmed", fee.StudentName)
	assert.Nil(t, fee.StudentID)

	revs, err := st.ListRevenues(ctx)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.True(t, revs[0].Amount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, models.RevenueSourcePaymentRequest, revs[0].Source)

	stored, err := st.GetPaymentRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
}

func TestApprovePaymentRequestTwice(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	req := submitPayment(t, svc, "Ahmed", "01001234567", 500)

	_, err := svc.ApprovePaymentRequest(ctx, req.ID)
	require.NoError(t, err)

	_, err = svc.ApprovePaymentRequest(ctx, req.ID)
	assert.Equal(t, ErrNotPending, err)
	assert.Equal(t, 1, countFees(t, st))
	assert.Equal(t, 1, countRevenues(t, st))
}

func TestApprovePaymentRequestNotFound(t *testing.T) {
	svc, st := setup(t)

	_, err := svc.ApprovePaymentRequest(context.Background(), "missing")
	assert.Equal(t, ErrNotFound, err)
	assert.Equal(t, 0, countFees(t, st))
}

func TestApproveAfterRejectIsNoop(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	req := submitPayment(t, svc, "Ahmed", "01001234567", 500)

	_, err := svc.RejectPaymentRequest(ctx, req.ID, "receipt unclear")
	require.NoError(t, err)
	before, err := st.GetPaymentRequest(ctx, req.ID)
	require.NoError(t, err)

	_, err = svc.ApprovePaymentRequest(ctx, req.ID)
	assert.Equal(t, ErrNotPending, err)

	after, err := st.GetPaymentRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 0, countFees(t, st))
	assert.Equal(t, 0, countRevenues(t, st))
}

func TestApprovePaymentLinksExistingStudent(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()

	sub := submitSubscription(t, svc, "Ahmed", "01001234567", 300)
	enrolled, err := svc.ApproveSubscriptionRequest(ctx, sub.ID)
	require.NoError(t, err)

	req := submitPayment(t, svc, "Ahmed", "01001234567", 500)
	res, err := svc.ApprovePaymentRequest(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Fee.StudentID)
	assert.Equal(t, enrolled.Student.ID, *res.Fee.StudentID)

	students, err := st.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestApprovePaymentRollsBackOnFailure(t *testing.T) {
	for _, op := range []string{memstore.OpInsertRevenue, memstore.OpMarkPaymentApproved, memstore.OpCommit} {
		t.Run(op, func(t *testing.T) {
			svc, st := setup(t)
			ctx := context.Background()
			req := submitPayment(t, svc, "Ahmed", "01001234567", 500)

			st.FailOn(op, fmt.Errorf("simulated %s failure", op))
			_, err := svc.ApprovePaymentRequest(ctx, req.ID)
			require.Error(t, err)

			assert.Equal(t, 0, countFees(t, st))
			assert.Equal(t, 0, countRevenues(t, st))
			stored, err := st.GetPaymentRequest(ctx, req.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusPending, stored.Status)

			// the lock was released and the request is still approvable
			st.FailOn(op, nil)
			_, err = svc.ApprovePaymentRequest(ctx, req.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, countFees(t, st))
		})
	}
}

func TestConcurrentApprovalsCreateOneFee(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	req := submitPayment(t, svc, "Ahmed", "01001234567", 500)

	const workers = 16
	var (
		wg         sync.WaitGroup
		successes  int32
		notPending int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApprovePaymentRequest(ctx, req.ID)
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case err == ErrNotPending:
				atomic.AddInt32(&notPending, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, successes)
	assert.EqualValues(t, workers-1, notPending)
	assert.Equal(t, 1, countFees(t, st))
	assert.Equal(t, 1, countRevenues(t, st))
}

func TestConcurrentApproveAndReject(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	req := submitPayment(t, svc, "Ahmed", "01001234567", 500)

	var wg sync.WaitGroup
	var approveErr, rejectErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, approveErr = svc.ApprovePaymentRequest(ctx, req.ID)
	}()
	go func() {
		defer wg.Done()
		_, rejectErr = svc.RejectPaymentRequest(ctx, req.ID, "duplicate receipt")
	}()
	wg.Wait()

	stored, err := st.GetPaymentRequest(ctx, req.ID)
	require.NoError(t, err)

	if approveErr == nil {
		assert.Equal(t, ErrNotRejectable, rejectErr)
		assert.Equal(t, models.StatusApproved, stored.Status)
		assert.Equal(t, 1, countFees(t, st))
	} else {
		assert.NoError(t, rejectErr)
		assert.Equal(t, ErrNotPending, approveErr)
		assert.Equal(t, models.StatusRejected, stored.Status)
		assert.Equal(t, 0, countFees(t, st))
	}
}

func TestRejectPaymentRequest(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	req := submitPayment(t, svc, "Ahmed", "01001234567", 500)

	res, err := svc.RejectPaymentRequest(ctx, req.ID, "  receipt unclear ")
	require.NoError(t, err)
	require.NotNil(t, res.Request)
	assert.Equal(t, models.StatusRejected, res.Request.Status)
	require.NotNil(t, res.Request.RejectionReason)
	assert.Equal(t, "receipt unclear", *res.Request.RejectionReason)
	assert.NotEmpty(t, res.WhatsAppLink)
	assert.Equal(t, 0, countFees(t, st))
	assert.Equal(t, 0, countRevenues(t, st))
}

func TestRejectRequiresReason(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	req := submitPayment(t, svc, "Ahmed", "01001234567", 500)

	for _, reason := range []string{"", "   "} {
		_, err := svc.RejectPaymentRequest(ctx, req.ID, reason)
		assert.Equal(t, ErrReasonRequired, err)
	}

	stored, err := st.GetPaymentRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Nil(t, stored.RejectionReason)
}

func TestRejectTwiceAndRejectAfterApprove(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	rejected := submitPayment(t, svc, "Ahmed", "01001234567", 500)
	_, err := svc.RejectPaymentRequest(ctx, rejected.ID, "receipt unclear")
	require.NoError(t, err)
	_, err = svc.RejectPaymentRequest(ctx, rejected.ID, "again")
	assert.Equal(t, ErrNotRejectable, err)

	approved := submitPayment(t, svc, "Mona", "01112223334", 200)
	_, err = svc.ApprovePaymentRequest(ctx, approved.ID)
	require.NoError(t, err)
	_, err = svc.RejectPaymentRequest(ctx, approved.ID, "too late")
	assert.Equal(t, ErrNotRejectable, err)

	_, err = svc.RejectPaymentRequest(ctx, "missing", "whatever")
	assert.Equal(t, ErrNotRejectable, err)
}

type failingNotifier struct{}

func (failingNotifier) PaymentApproved(string, string, decimal.Decimal) (string, error) {
	return "", errors.New("boom")
}
func (failingNotifier) PaymentRejected(string, string, string) (string, error) {
	return "", errors.New("boom")
}
func (failingNotifier) SubscriptionApproved(string, string) (string, error) {
	return "", errors.New("boom")
}
func (failingNotifier) SubscriptionRejected(string, string, string) (string, error) {
	return "", errors.New("boom")
}

func TestNotifierFailureDoesNotUndoApproval(t *testing.T) {
	st := memstore.New()
	svc := NewService(st, failingNotifier{}, log.New(io.Discard, "", 0))
	ctx := context.Background()
	req := submitPayment(t, svc, "Ahmed", "01001234567", 500)

	res, err := svc.ApprovePaymentRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, res.WhatsAppLink)
	assert.Equal(t, 1, countFees(t, st))

	stored, err := st.GetPaymentRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
}

func TestListPaymentRequestsFilter(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	a := submitPayment(t, svc, "Ahmed", "01001234567", 500)
	submitPayment(t, svc, "Mona", "01112223334", 200)
	_, err := svc.ApprovePaymentRequest(ctx, a.ID)
	require.NoError(t, err)

	all, err := svc.ListPaymentRequests(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := svc.ListPaymentRequests(ctx, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Mona", pending[0].StudentName)

	_, err = svc.ListPaymentRequests(ctx, "archived")
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestGetPaymentRequestNotFound(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.GetPaymentRequest(context.Background(), "missing")
	assert.Equal(t, ErrNotFound, err)
}
