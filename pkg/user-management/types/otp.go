package types

import (
	"fmt"
	"time"
)

type OTPChannel string

const (
	EmailOTP OTPChannel = "email"
	SMSOTP   OTPChannel = "sms"
)

type OTPPurpose string

const (
	OTP_PURPOSE_LOGIN        OTPPurpose = "LOGIN"
	OTP_PURPOSE_VERIFICATION OTPPurpose = "VERIFICATION"
	OTP_PURPOSE_RESET        OTPPurpose = "RESET"
)

// OTP is a stored one-time code. CodeHash is the SHA-256 digest of the
// plaintext code; the plaintext is only handed to the delivery channel.
type OTP struct {
	UserID    string     `bson:"userID" json:"userID"`
	Channel   OTPChannel `bson:"channel" json:"channel"`
	Purpose   OTPPurpose `bson:"purpose" json:"purpose"`
	CodeHash  string     `bson:"codeHash" json:"-"`
	ExpiresAt time.Time  `bson:"expiresAt" json:"expiresAt"`
	UsedAt    time.Time  `bson:"usedAt,omitempty" json:"usedAt,omitempty"`
	Attempts  int        `bson:"attempts" json:"attempts"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
}

// Key identifies the single live OTP slot for a user+channel+purpose.
func (o OTP) Key() string {
	return OTPKey(o.UserID, o.Channel, o.Purpose)
}

func OTPKey(userID string, channel OTPChannel, purpose OTPPurpose) string {
	return fmt.Sprintf("%s:%s:%s", userID, channel, purpose)
}

func (o OTP) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}

func (o OTP) IsUsed() bool {
	return !o.UsedAt.IsZero()
}
