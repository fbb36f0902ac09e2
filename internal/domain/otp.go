package domain

import "time"

// OTPAction is the purpose a one-time code was issued for.
type OTPAction string

const (
	OTPRegister OTPAction = "register"
	OTPLogin    OTPAction = "login"
)

// Valid reports whether a is a known action.
func (a OTPAction) Valid() bool { return a == OTPRegister || a == OTPLogin }

// PendingVerification is the transient state behind an issued one-time code.
// It lives in the expiring key-value store keyed by the code itself and is
// consumed by exactly one successful verification.
type PendingVerification struct {
	Phone     string    `json:"phone"`
	Action    OTPAction `json:"action"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its deadline at now.
func (p PendingVerification) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
