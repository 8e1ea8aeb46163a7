package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	accountPrefix   = "user_"
	sessionPrefix   = "session_"
	anonymousPrefix = "anon_"
	anonymousIDLen  = 16
)

// Signals are the request attributes a customer id can be derived from
type Signals struct {
	AccountID  string
	SessionID  string
	RemoteAddr string
	UserAgent  string
	At         time.Time
}

// Resolver derives a customer id from request signals
type Resolver struct {
	window time.Duration
}

// NewResolver creates a resolver. Anonymous ids are bucketed by window;
// a non-positive window means one second.
func NewResolver(window time.Duration) *Resolver {
	if window <= 0 {
		window = time.Second
	}
	return &Resolver{window: window}
}

// Resolve returns the account id if present, otherwise the session id,
// otherwise an anonymous id hashed from the network address, the client
// signature and the time bucket. It never fails.
func (r *Resolver) Resolve(s Signals) string {
	if s.AccountID != "" {
		return accountPrefix + s.AccountID
	}
	if s.SessionID != "" {
		return sessionPrefix + s.SessionID
	}
	return anonymousPrefix + r.anonymousID(s)
}

// anonymousID is stable only within one time bucket; two clients behind the
// same address and user agent inside one bucket collapse to one id.
func (r *Resolver) anonymousID(s Signals) string {
	bucket := s.At.Truncate(r.window).Unix()
	data := fmt.Sprintf("%s|%s|%d", s.RemoteAddr, s.UserAgent, bucket)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:anonymousIDLen]
}
