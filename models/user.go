package models

import (
	"time"

	"github.com/google/uuid"
)

// Verification status values for a user's phone number
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
)

// Subscription tiers
const (
	TierFree         = "free"
	TierStarter      = "starter"
	TierProfessional = "professional"
	TierExecutive    = "executive"
)

// User model
type User struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	Password           string     `json:"password,omitempty"`
	FullName           string     `json:"fullName"`
	Phone              string     `json:"phone,omitempty"`
	PhoneVerified      bool       `json:"phoneVerified"`
	VerificationStatus string     `json:"verificationStatus"` // "pending", "verified"
	SubscriptionTier   string     `json:"subscriptionTier"`
	SubscriptionStatus string     `json:"subscriptionStatus,omitempty"`
	IsActive           bool       `json:"isActive"`
	LastActivityAt     *time.Time `json:"lastActivityAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Response represents the standard JSON envelope for all endpoints
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
