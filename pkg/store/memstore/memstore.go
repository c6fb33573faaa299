// Package memstore is the default volatile backing for the portal stores.
// All state lives in process memory guarded by mutexes and is lost on
// restart; the mongostore/redisstore packages offer persistent
// alternatives behind the same interfaces.
package memstore

import (
	"sync"

	"github.com/egov-portal/portal-backend/pkg/store"
	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
)

type MemStore struct {
	mu sync.RWMutex

	users        map[string]userTypes.User    // userID -> user
	emailIndex   map[string]string            // email -> userID
	otps         map[string]userTypes.OTP     // otp key -> record
	sessions     map[string]userTypes.Session // sessionID -> session
	refreshIndex map[string]string            // refreshToken -> sessionID
	rateLimits   map[string]store.RateLimitWindow
}

func New() *MemStore {
	return &MemStore{
		users:        map[string]userTypes.User{},
		emailIndex:   map[string]string{},
		otps:         map[string]userTypes.OTP{},
		sessions:     map[string]userTypes.Session{},
		refreshIndex: map[string]string{},
		rateLimits:   map[string]store.RateLimitWindow{},
	}
}
