package model

import "time"

// VerificationTarget identifies what a verification key proves ownership of.
type VerificationTarget string

const (
	VerificationTargetEmail VerificationTarget = "EMAIL"
	VerificationTargetPhone VerificationTarget = "PHONE"
)

// Verification is a one-time key sent to a user out of band.
type Verification struct {
	ID        string             `json:"id"`
	Target    VerificationTarget `json:"target"`
	Payload   string             `json:"payload"` // email address or phone number
	Key       string             `json:"-"`
	UserID    string             `json:"user_id"`
	Verified  bool               `json:"verified"`
	CreatedAt time.Time          `json:"created_at"`
}
