package mysqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store"
)

// Tx wraps a *sql.Tx. Every Lock* read uses SELECT ... FOR UPDATE so the row
// stays locked until Commit or Rollback.
type Tx struct {
	tx *sql.Tx
}

var _ store.Tx = (*Tx)(nil)

func (t *Tx) LockPaymentRequest(ctx context.Context, id string) (*models.PaymentRequest, error) {
	query := "SELECT" + paymentRequestColumns + " FROM payment_requests WHERE id = ? FOR UPDATE"
	req, err := scanPaymentRequest(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "failed to lock payment request")
	}
	return req, nil
}

func (t *Tx) LockSubscriptionRequest(ctx context.Context, id string) (*models.SubscriptionRequest, error) {
	query := "SELECT" + subscriptionRequestColumns + " FROM subscription_requests WHERE id = ? FOR UPDATE"
	req, err := scanSubscriptionRequest(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "failed to lock subscription request")
	}
	return req, nil
}

// LockStudentByPhone locks the matching student row. Only call it when the
// row is known to exist: on InnoDB a miss takes a gap lock, and two
// transactions holding gap locks deadlock when both then insert.
func (t *Tx) LockStudentByPhone(ctx context.Context, phone string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE phone = ? FOR UPDATE"
	st, err := scanStudent(t.tx.QueryRowContext(ctx, query, phone))
	if err != nil {
		return nil, translate(err, "failed to lock student")
	}
	return st, nil
}

func (t *Tx) FindStudentByPhone(ctx context.Context, phone string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE phone = ?"
	st, err := scanStudent(t.tx.QueryRowContext(ctx, query, phone))
	if err != nil {
		return nil, translate(err, "failed to find student")
	}
	return st, nil
}

func (t *Tx) InsertStudent(ctx context.Context, st *models.Student) error {
	query := `
		INSERT INTO students (id, name, phone, grade_id, group_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := t.tx.ExecContext(ctx, query,
		st.ID, st.Name, st.Phone, st.GradeID, st.GroupID, st.IsActive, st.CreatedAt, st.UpdatedAt,
	)
	return translate(err, "failed to insert student")
}

func (t *Tx) InsertFee(ctx context.Context, fee *models.Fee) error {
	query := `
		INSERT INTO fees
		(id, student_id, student_name, phone, grade_id, grade_name, group_id, group_name,
		 amount, paid_amount, status, payment_method, is_offline, notes,
		 payment_date, receipt_image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := t.tx.ExecContext(ctx, query,
		fee.ID, fee.StudentID, fee.StudentName, fee.Phone,
		fee.GradeID, fee.GradeName, fee.GroupID, fee.GroupName,
		fee.Amount, fee.PaidAmount, fee.Status, fee.PaymentMethod, fee.IsOffline, fee.Notes,
		fee.PaymentDate, fee.ReceiptImageURL, fee.CreatedAt,
	)
	return translate(err, "failed to insert fee")
}

func (t *Tx) InsertRevenue(ctx context.Context, rev *models.Revenue) error {
	query := `
		INSERT INTO revenues (id, amount, source, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := t.tx.ExecContext(ctx, query, rev.ID, rev.Amount, rev.Source, rev.Description, rev.Date, rev.CreatedAt)
	return translate(err, "failed to insert revenue")
}

func (t *Tx) MarkPaymentRequestApproved(ctx context.Context, id string, at time.Time) error {
	query := "UPDATE payment_requests SET status = 'approved', updated_at = ? WHERE id = ?"
	return t.execOne(ctx, "failed to approve payment request", query, at, id)
}

func (t *Tx) MarkSubscriptionRequestApproved(ctx context.Context, id, studentID string, at time.Time) error {
	query := "UPDATE subscription_requests SET status = 'approved', student_id = ?, updated_at = ? WHERE id = ?"
	return t.execOne(ctx, "failed to approve subscription request", query, studentID, at, id)
}

// execOne runs an update that must touch exactly the locked row.
func (t *Tx) execOne(ctx context.Context, msg, query string, args ...interface{}) error {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, msg)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check affected rows")
	}
	if n == 0 {
		return errors.Wrap(store.ErrNotFound, msg)
	}
	return nil
}

func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return errors.Wrap(err, "failed to roll back transaction")
	}
	return nil
}
