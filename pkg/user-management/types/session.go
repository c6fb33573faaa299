package types

import "time"

// Session binds a user to an access/refresh token pair plus the device
// metadata shown on the "active sessions" page.
type Session struct {
	ID               string    `bson:"_id" json:"id"`
	UserID           string    `bson:"userID" json:"userID"`
	AccessToken      string    `bson:"accessToken" json:"-"`
	RefreshToken     string    `bson:"refreshToken" json:"-"`
	DeviceName       string    `bson:"deviceName" json:"deviceName"`
	IP               string    `bson:"ip" json:"ip"`
	UserAgent        string    `bson:"userAgent" json:"userAgent"`
	AccessExpiresAt  time.Time `bson:"accessExpiresAt" json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `bson:"refreshExpiresAt" json:"refreshExpiresAt"`
	LastActiveAt     time.Time `bson:"lastActiveAt" json:"lastActiveAt"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	RevokedAt        time.Time `bson:"revokedAt,omitempty" json:"-"`
}

func (s Session) IsRevoked() bool {
	return !s.RevokedAt.IsZero()
}

func (s Session) IsRefreshExpired() bool {
	return time.Now().After(s.RefreshExpiresAt)
}

// SessionMetadata is what the login route extracts from the request.
type SessionMetadata struct {
	DeviceName string
	IP         string
	UserAgent  string
}
