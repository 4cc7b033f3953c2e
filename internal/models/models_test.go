package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusApproved.Valid())
	assert.True(t, StatusRejected.Valid())
	assert.False(t, RequestStatus("archived").Valid())
	assert.False(t, RequestStatus("").Valid())
}

func TestPasswordMatches(t *testing.T) {
	var p Password
	require.NoError(t, p.Set("s3cret-pass"))

	ok, err := p.Matches("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Matches("wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFeeJSONFlattensSnapshot(t *testing.T) {
	grade := "Grade 3"
	fee := Fee{
		ID: "fee-1",
		StudentSnapshot: StudentSnapshot{
			StudentName: "Ahmed",
			Phone:       "01001234567",
			GradeName:   &grade,
		},
		Amount:     decimal.NewFromInt(500),
		PaidAmount: decimal.NewFromInt(500),
		Status:     FeeStatusPaid,
	}

	data, err := json.Marshal(fee)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "Ahmed", out["student_name"])
	assert.Equal(t, "Grade 3", out["grade_name"])
	assert.Equal(t, float64(500), out["amount"])
	assert.Equal(t, float64(500), out["paid_amount"])
	assert.NotContains(t, out, "StudentSnapshot")
}

func TestPaymentRequestSnapshot(t *testing.T) {
	group := "Saturday A"
	req := &PaymentRequest{StudentName: "Mona", Phone: "01112223334", GroupName: &group}

	snap := req.Snapshot()
	assert.Equal(t, "Mona", snap.StudentName)
	assert.Equal(t, "01112223334", snap.Phone)
	assert.Equal(t, &group, snap.GroupName)
	assert.Nil(t, snap.StudentID)
}
