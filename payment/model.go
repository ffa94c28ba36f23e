package payment

import (
	"errors"
	"net/url"
	"time"

	"robokassa/signature"
)

var ErrInvalidNotification = errors.New("notification is missing OutSum, InvId or SignatureValue")

// NotificationKind tells which callback URL delivered a notification.
type NotificationKind string

const (
	KindResult  NotificationKind = "result"
	KindSuccess NotificationKind = "success"
	KindFail    NotificationKind = "fail"
)

// Notification is a parsed callback from the gateway.
type Notification struct {
	Kind           NotificationKind
	OutSum         signature.Amount
	InvID          string
	SignatureValue string
	Fee            string
	Email          string
	PaymentMethod  string
	IncCurrLabel   string
	Culture        string
	Extra          signature.Params
}

// ParseNotification reads a callback form. OutSum keeps the literal the
// gateway sent since it is part of the signed string.
func ParseNotification(kind NotificationKind, form url.Values, prefix string) (*Notification, error) {
	outSum := form.Get("OutSum")
	invID := form.Get("InvId")
	sig := form.Get("SignatureValue")
	if outSum == "" || invID == "" || sig == "" {
		return nil, ErrInvalidNotification
	}
	amount, err := signature.ParseAmount(outSum)
	if err != nil {
		return nil, err
	}

	return &Notification{
		Kind:           kind,
		OutSum:         amount,
		InvID:          invID,
		SignatureValue: sig,
		Fee:            form.Get("Fee"),
		Email:          form.Get("EMail"),
		PaymentMethod:  form.Get("PaymentMethod"),
		IncCurrLabel:   form.Get("IncCurrLabel"),
		Culture:        form.Get("Culture"),
		Extra:          ExtraParams(form, prefix),
	}, nil
}

// NotificationRecord is a ledger row.
type NotificationRecord struct {
	ID             int64
	Kind           NotificationKind
	InvID          string
	OutSum         string
	SignatureValid bool
	Payload        []byte
	ProcessedAt    *time.Time
	ProcessError   *string
	CreatedAt      time.Time
}
