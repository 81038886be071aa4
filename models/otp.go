package models

import (
	"time"

	"github.com/google/uuid"
)

// OTP log status values
const (
	OTPStatusPending  = "pending"
	OTPStatusVerified = "verified"
	OTPStatusExpired  = "expired"
)

// OTP purposes
const (
	OTPPurposeSignup = "signup"
	OTPPurposeLogin  = "login"
)

// PhoneOTPLog is one row of the phone_otp_logs audit trail: every issued
// code with its expiry, attempt count and final status.
type PhoneOTPLog struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	Phone      string     `json:"phone"`
	Code       string     `json:"-"`
	Purpose    string     `json:"purpose"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	Attempts   int        `json:"attempts"`
	Used       bool       `json:"used"`
	Status     string     `json:"status"` // "pending", "verified", "expired"
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Expired reports whether the code can no longer be redeemed.
func (o *PhoneOTPLog) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
