package domain

import "time"

// OTP is a one-time code issued after PIN verification. Only its hash is stored.
type OTP struct {
	OtpID      string     `json:"otpID"`
	TransferID string     `json:"transferID"`
	CodeHash   string     `json:"-"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	UsedAt     *time.Time `json:"usedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (o OTP) IsUsed() bool { return o.UsedAt != nil }

func (o OTP) IsExpired(now time.Time) bool { return !now.Before(o.ExpiresAt) }

// IsValid is !used && !expired.
func (o OTP) IsValid(now time.Time) bool { return !o.IsUsed() && !o.IsExpired(now) }
