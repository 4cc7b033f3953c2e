package models

import (
	"strings"
	"time"
)

// Student is the model for the 'students' table. Phone is unique and always
// stored in CanonicalPhone form.
type Student struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	GradeID   *string   `json:"grade_id" db:"grade_id"`
	GroupID   *string   `json:"group_id" db:"group_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// CanonicalPhone drops separators so one number typed two ways maps to one
// key: "0111 222-3334" becomes "01112223334" and "0020 100..." becomes
// "+20100...". It does not validate.
func CanonicalPhone(phone string) string {
	p := phoneSeparators.Replace(strings.TrimSpace(phone))
	if strings.HasPrefix(p, "00") {
		p = "+" + p[2:]
	}
	return p
}
