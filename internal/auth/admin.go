package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/models"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store"
)

// AdminStore is the slice of the store needed to manage admin accounts.
type AdminStore interface {
	FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	CreateAdmin(ctx context.Context, admin *models.Admin) error
}

// EnsureAdmin creates the admin account if no admin with that email exists
// yet. It reports whether a new account was created. An existing account is
// left untouched, password included.
func EnsureAdmin(ctx context.Context, st AdminStore, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, errors.New("auth: admin email and password are required")
	}

	_, err := st.FindAdminByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !store.IsNotFound(err) {
		return false, errors.Wrap(err, "auth: look up admin")
	}

	var pw models.Password
	if err := pw.Set(password); err != nil {
		return false, errors.Wrap(err, "auth: hash admin password")
	}
	admin := &models.Admin{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: pw.Hash,
		FullName:     "Administrator",
		CreatedAt:    time.Now().UTC(),
	}
	if err := st.CreateAdmin(ctx, admin); err != nil {
		if store.IsDuplicate(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "auth: create admin")
	}
	return true, nil
}
