package types

import "time"

const (
	ROLE_CITIZEN = "citizen"
	ROLE_OFFICER = "officer"
	ROLE_ADMIN   = "admin"

	ACCOUNT_TYPE_EMAIL = "email"
)

// User is the account record of a portal user. The password is stored as
// an argon2id hash, the optional face template only as a SHA-256 digest.
type User struct {
	ID               string     `bson:"_id,omitempty" json:"id"`
	Email            string     `bson:"email" json:"email"`
	Password         string     `bson:"password" json:"-"`
	Role             string     `bson:"role" json:"role"`
	Phone            string     `bson:"phone,omitempty" json:"phone,omitempty"`
	TwoFactorEnabled bool       `bson:"twoFactorEnabled" json:"twoFactorEnabled"`
	FaceTemplateHash string     `bson:"faceTemplateHash,omitempty" json:"-"`
	EmailVerifiedAt  int64      `bson:"emailVerifiedAt" json:"emailVerifiedAt"`
	CreatedAt        time.Time  `bson:"createdAt" json:"createdAt"`
	Timestamps       Timestamps `bson:"timestamps" json:"timestamps"`
}

type Timestamps struct {
	LastLogin        int64 `bson:"lastLogin" json:"lastLogin"`
	LastTokenRefresh int64 `bson:"lastTokenRefresh" json:"lastTokenRefresh"`
}
