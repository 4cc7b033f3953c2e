// Package mysqlstore implements store.Store on MySQL through database/sql.
package mysqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store"
)

const (
	errDuplicateEntry  = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// Store holds the injected connection pool. It does not own it; main closes it.
type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

var _ store.Store = (*Store)(nil)

// rowScanner is implemented by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// translate maps driver errors onto the store sentinels.
func translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(store.ErrNotFound, msg)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errDuplicateEntry:
			return errors.Wrap(store.ErrDuplicate, msg)
		case errDeadlock, errLockWaitTimeout:
			return errors.Wrapf(store.ErrConflict, "%s: %s", msg, myErr.Message)
		}
	}
	return errors.Wrap(err, msg)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// BeginTx starts a transaction on one pooled connection. The connection goes
// back to the pool on Commit or Rollback.
func (s *Store) BeginTx(ctx context.Context) (store.Tx, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}
	return &Tx{tx: tx}, nil
}

//
// --- Payment Requests ---
//

const paymentRequestColumns = `
	id, student_name, phone, grade_id, grade_name, group_id, group_name,
	amount, notes, receipt_image_url, status, rejection_reason, created_at, updated_at`

func scanPaymentRequest(row rowScanner) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	err := row.Scan(
		&req.ID,
		&req.StudentName,
		&req.Phone,
		&req.GradeID,
		&req.GradeName,
		&req.GroupID,
		&req.GroupName,
		&req.Amount,
		&req.Notes,
		&req.ReceiptImageURL,
		&req.Status,
		&req.RejectionReason,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) CreatePaymentRequest(ctx context.Context, req *models.PaymentRequest) error {
	query := `
		INSERT INTO payment_requests
		(id, student_name, phone, grade_id, grade_name, group_id, group_name,
		 amount, notes, receipt_image_url, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.DB.ExecContext(ctx, query,
		req.ID, req.StudentName, req.Phone, req.GradeID, req.GradeName, req.GroupID, req.GroupName,
		req.Amount, req.Notes, req.ReceiptImageURL, string(req.Status), req.CreatedAt, req.UpdatedAt,
	)
	return translate(err, "failed to create payment request")
}

func (s *Store) GetPaymentRequest(ctx context.Context, id string) (*models.PaymentRequest, error) {
	query := "SELECT" + paymentRequestColumns + " FROM payment_requests WHERE id = ?"
	req, err := scanPaymentRequest(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "failed to get payment request")
	}
	return req, nil
}

func (s *Store) ListPaymentRequests(ctx context.Context, status models.RequestStatus) ([]*models.PaymentRequest, error) {
	query := "SELECT" + paymentRequestColumns + " FROM payment_requests"
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list payment requests")
	}
	defer rows.Close()

	requests := []*models.PaymentRequest{}
	for rows.Next() {
		req, err := scanPaymentRequest(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan payment request")
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating payment requests")
	}
	return requests, nil
}

func (s *Store) RejectPaymentRequest(ctx context.Context, id, reason string, at time.Time) (bool, error) {
	query := `
		UPDATE payment_requests
		SET status = 'rejected', rejection_reason = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`

	return execAffected(ctx, s.DB, "failed to reject payment request", query, reason, at, id)
}

//
// --- Subscription Requests ---
//

const subscriptionRequestColumns = `
	id, student_id, student_name, phone, grade_id, grade_name, group_id, group_name,
	amount, notes, receipt_image_url, status, rejection_reason, created_at, updated_at`

func scanSubscriptionRequest(row rowScanner) (*models.SubscriptionRequest, error) {
	var req models.SubscriptionRequest
	err := row.Scan(
		&req.ID,
		&req.StudentID,
		&req.StudentName,
		&req.Phone,
		&req.GradeID,
		&req.GradeName,
		&req.GroupID,
		&req.GroupName,
		&req.Amount,
		&req.Notes,
		&req.ReceiptImageURL,
		&req.Status,
		&req.RejectionReason,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) CreateSubscriptionRequest(ctx context.Context, req *models.SubscriptionRequest) error {
	query := `
		INSERT INTO subscription_requests
		(id, student_name, phone, grade_id, grade_name, group_id, group_name,
		 amount, notes, receipt_image_url, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.DB.ExecContext(ctx, query,
		req.ID, req.StudentName, req.Phone, req.GradeID, req.GradeName, req.GroupID, req.GroupName,
		req.Amount, req.Notes, req.ReceiptImageURL, string(req.Status), req.CreatedAt, req.UpdatedAt,
	)
	return translate(err, "failed to create subscription request")
}

func (s *Store) GetSubscriptionRequest(ctx context.Context, id string) (*models.SubscriptionRequest, error) {
	query := "SELECT" + subscriptionRequestColumns + " FROM subscription_requests WHERE id = ?"
	req, err := scanSubscriptionRequest(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "failed to get subscription request")
	}
	return req, nil
}

func (s *Store) ListSubscriptionRequests(ctx context.Context, status models.RequestStatus) ([]*models.SubscriptionRequest, error) {
	query := "SELECT" + subscriptionRequestColumns + " FROM subscription_requests"
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list subscription requests")
	}
	defer rows.Close()

	requests := []*models.SubscriptionRequest{}
	for rows.Next() {
		req, err := scanSubscriptionRequest(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan subscription request")
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating subscription requests")
	}
	return requests, nil
}

func (s *Store) RejectSubscriptionRequest(ctx context.Context, id, reason string, at time.Time) (bool, error) {
	query := `
		UPDATE subscription_requests
		SET status = 'rejected', rejection_reason = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`

	return execAffected(ctx, s.DB, "failed to reject subscription request", query, reason, at, id)
}

// execAffected runs a conditional update and reports whether it matched a row.
func execAffected(ctx context.Context, db *sql.DB, msg, query string, args ...interface{}) (bool, error) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.Wrap(err, msg)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to check affected rows")
	}
	return rowsAffected > 0, nil
}

//
// --- Ledgers & Students ---
//

func (s *Store) ListFees(ctx context.Context, filter models.FeeFilter) ([]*models.Fee, error) {
	query := `
		SELECT id, student_id, student_name, phone, grade_id, grade_name, group_id, group_name,
		       amount, paid_amount, status, payment_method, is_offline, notes,
		       payment_date, receipt_image_url, created_at
		FROM fees`
	var args []interface{}
	if filter.Phone != "" {
		query += " WHERE phone = ?"
		args = append(args, filter.Phone)
	}
	query += " ORDER BY payment_date DESC"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list fees")
	}
	defer rows.Close()

	fees := []*models.Fee{}
	for rows.Next() {
		var fee models.Fee
		if err := rows.Scan(
			&fee.ID,
			&fee.StudentID,
			&fee.StudentName,
			&fee.Phone,
			&fee.GradeID,
			&fee.GradeName,
			&fee.GroupID,
			&fee.GroupName,
			&fee.Amount,
			&fee.PaidAmount,
			&fee.Status,
			&fee.PaymentMethod,
			&fee.IsOffline,
			&fee.Notes,
			&fee.PaymentDate,
			&fee.ReceiptImageURL,
			&fee.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan fee")
		}
		fees = append(fees, &fee)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating fees")
	}
	return fees, nil
}

func (s *Store) ListRevenues(ctx context.Context) ([]*models.Revenue, error) {
	query := `
		SELECT id, amount, source, description, date, created_at
		FROM revenues
		ORDER BY date DESC`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list revenues")
	}
	defer rows.Close()

	revenues := []*models.Revenue{}
	for rows.Next() {
		var rev models.Revenue
		if err := rows.Scan(&rev.ID, &rev.Amount, &rev.Source, &rev.Description, &rev.Date, &rev.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan revenue")
		}
		revenues = append(revenues, &rev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating revenues")
	}
	return revenues, nil
}

const studentColumns = "id, name, phone, grade_id, group_id, is_active, created_at, updated_at"

func scanStudent(row rowScanner) (*models.Student, error) {
	var st models.Student
	if err := row.Scan(&st.ID, &st.Name, &st.Phone, &st.GradeID, &st.GroupID, &st.IsActive, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) ListStudents(ctx context.Context) ([]*models.Student, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT "+studentColumns+" FROM students ORDER BY name ASC")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list students")
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan student")
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating students")
	}
	return students, nil
}

//
// --- Admins ---
//

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	query := "SELECT id, email, password_hash, full_name, created_at FROM admins WHERE email = ?"
	err := s.DB.QueryRowContext(ctx, query, email).Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.FullName,
		&admin.CreatedAt,
	)
	if err != nil {
		return nil, translate(err, "failed to find admin")
	}
	return &admin, nil
}

func (s *Store) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	query := `
		INSERT INTO admins (id, email, password_hash, full_name, created_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := s.DB.ExecContext(ctx, query, admin.ID, admin.Email, admin.PasswordHash, admin.FullName, admin.CreatedAt)
	return translate(err, "failed to create admin")
}
