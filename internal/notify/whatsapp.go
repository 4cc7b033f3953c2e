// Package notify builds WhatsApp "click to chat" links for students. It does
// not deliver anything: the admin UI opens the link.
package notify

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidPhone is returned when a phone number cannot be turned into an
// international wa.me number.
var ErrInvalidPhone = errors.New("invalid phone number")

var digitsOnly = regexp.MustCompile(`^[0-9]{8,15}$`)

// WhatsApp formats wa.me links. CountryCode is prefixed to local numbers
// that start with a single 0 (e.g. 0100... becomes 20100...).
type WhatsApp struct {
	BaseURL     string
	CountryCode string
}

func NewWhatsApp(countryCode string) *WhatsApp {
	return &WhatsApp{BaseURL: "https://wa.me", CountryCode: countryCode}
}

// InternationalNumber normalizes phone to the digits-only form wa.me expects.
func (w *WhatsApp) InternationalNumber(phone string) (string, error) {
	p := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	switch {
	case strings.HasPrefix(p, "+"):
		p = p[1:]
	case strings.HasPrefix(p, "00"):
		p = p[2:]
	case strings.HasPrefix(p, "0"):
		p = w.CountryCode + p[1:]
	}
	if !digitsOnly.MatchString(p) {
		return "", errors.Wrapf(ErrInvalidPhone, "%q", phone)
	}
	return p, nil
}

// Link returns a wa.me link that opens a chat with phone prefilled with text.
func (w *WhatsApp) Link(phone, text string) (string, error) {
	number, err := w.InternationalNumber(phone)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s?text=%s", strings.TrimRight(w.BaseURL, "/"), number, url.QueryEscape(text)), nil
}

func (w *WhatsApp) PaymentApproved(name, phone string, amount decimal.Decimal) (string, error) {
	msg := fmt.Sprintf("مرحباً %s، تم تأكيد استلام دفعتك بمبلغ %s جنيه. شكراً لك.", name, amount.StringFixed(2))
	return w.Link(phone, msg)
}

func (w *WhatsApp) PaymentRejected(name, phone, reason string) (string, error) {
	msg := fmt.Sprintf("مرحباً %s، تم رفض طلب الدفع الخاص بك. السبب: %s", name, reason)
	return w.Link(phone, msg)
}

func (w *WhatsApp) SubscriptionApproved(name, phone string) (string, error) {
	msg := fmt.Sprintf("مرحباً %s، تم قبول طلب اشتراكك وتفعيل حسابك. أهلاً بك معنا.", name)
	return w.Link(phone, msg)
}

func (w *WhatsApp) SubscriptionRejected(name, phone, reason string) (string, error) {
	msg := fmt.Sprintf("مرحباً %s، تم رفض طلب الاشتراك الخاص بك. السبب: %s", name, reason)
	return w.Link(phone, msg)
}
