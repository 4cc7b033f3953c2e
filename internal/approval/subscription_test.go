package approval

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store/memstore"
)

func TestApproveSubscriptionCreatesStudent(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	req := submitSubscription(t, svc, "Mona", "01112223334", 300)

	res, err := svc.ApproveSubscriptionRequest(ctx, req.ID)
	require.NoError(t, err)

	assert.True(t, res.StudentCreated)
	assert.Equal(t, "Mona", res.Student.Name)
	assert.Equal(t, "01112223334", res.Student.Phone)
	assert.True(t, res.Student.IsActive)
	assert.Equal(t, models.StatusApproved, res.Request.Status)
	require.NotNil(t, res.Request.StudentID)
	assert.Equal(t, res.Student.ID, *res.Request.StudentID)

	assert.Equal(t, models.PaymentMethodSubscription, res.Fee.PaymentMethod)
	require.NotNil(t, res.Fee.StudentID)
	assert.Equal(t, res.Student.ID, *res.Fee.StudentID)

	// subscriptions do not feed the revenue ledger
	assert.Equal(t, 1, countFees(t, st))
	assert.Equal(t, 0, countRevenues(t, st))

	stored, err := st.GetSubscriptionRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
	require.NotNil(t, stored.StudentID)
	assert.Equal(t, res.Student.ID, *stored.StudentID)
}

func TestApproveSubscriptionReusesStudentByPhone(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()

	first := submitSubscription(t, svc, "Mona", "01112223334", 300)
	second := submitSubscription(t, svc, "Mona Ali", "01112223334", 300)

	r1, err := svc.ApproveSubscriptionRequest(ctx, first.ID)
	require.NoError(t, err)
	r2, err := svc.ApproveSubscriptionRequest(ctx, second.ID)
	require.NoError(t, err)

	assert.True(t, r1.StudentCreated)
	assert.False(t, r2.StudentCreated)
	assert.Equal(t, r1.Student.ID, r2.Student.ID)

	students, err := st.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 2, countFees(t, st))
}

func TestApproveSubscriptionSamePhoneTypedDifferently(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()

	first := submitSubscription(t, svc, "Mona", "01112223334", 300)
	second := submitSubscription(t, svc, "Mona", "0111 222 3334", 300)

	r1, err := svc.ApproveSubscriptionRequest(ctx, first.ID)
	require.NoError(t, err)
	r2, err := svc.ApproveSubscriptionRequest(ctx, second.ID)
	require.NoError(t, err)

	assert.True(t, r1.StudentCreated)
	assert.False(t, r2.StudentCreated)
	assert.Equal(t, r1.Student.ID, r2.Student.ID)

	students, err := st.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)

	fees, err := st.ListFees(ctx, models.FeeFilter{Phone: "01112223334"})
	require.NoError(t, err)
	assert.Len(t, fees, 2)
}

func TestConcurrentSubscriptionApprovalsSamePhone(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()

	const n = 8
	ids := make([]string, n)
	for i := range ids {
		ids[i] = submitSubscription(t, svc, "Mona", "01112223334", 300).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svc.ApproveSubscriptionRequest(ctx, id)
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	students, err := st.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, n, countFees(t, st))
}

func TestConcurrentApprovalsOfOneSubscription(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	req := submitSubscription(t, svc, "Mona", "01112223334", 300)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ApproveSubscriptionRequest(ctx, req.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, ErrNotPending, err)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, countFees(t, st))
}

func TestApproveSubscriptionRollsBackStudent(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	req := submitSubscription(t, svc, "Mona", "01112223334", 300)

	st.FailOn(memstore.OpMarkSubscriptionApproved, errors.New("simulated failure"))
	_, err := svc.ApproveSubscriptionRequest(ctx, req.ID)
	require.Error(t, err)

	students, err := st.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.Equal(t, 0, countFees(t, st))

	stored, err := st.GetSubscriptionRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Nil(t, stored.StudentID)
}

func TestApproveSubscriptionNotFound(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.ApproveSubscriptionRequest(context.Background(), uuid.NewString())
	assert.Equal(t, ErrNotFound, err)
}

func TestRejectSubscriptionRequest(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	req := submitSubscription(t, svc, "Mona", "01112223334", 300)

	_, err := svc.RejectSubscriptionRequest(ctx, req.ID, "")
	assert.Equal(t, ErrReasonRequired, err)

	res, err := svc.RejectSubscriptionRequest(ctx, req.ID, "group is full")
	require.NoError(t, err)
	require.NotNil(t, res.Request)
	assert.Equal(t, models.StatusRejected, res.Request.Status)
	assert.Contains(t, res.WhatsAppLink, "wa.me/201112223334")

	_, err = svc.ApproveSubscriptionRequest(ctx, req.ID)
	assert.Equal(t, ErrNotPending, err)
	_, err = svc.RejectSubscriptionRequest(ctx, req.ID, "again")
	assert.Equal(t, ErrNotRejectable, err)

	students, err := st.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestListSubscriptionRequestsInvalidStatus(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.ListSubscriptionRequests(context.Background(), "done")
	assert.Error(t, err)
}
