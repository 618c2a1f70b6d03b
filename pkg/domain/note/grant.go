package note

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrProxyNotAuthorized is returned when no valid proxy grant backs a proxy transfer.
	ErrProxyNotAuthorized = errors.New("proxy transfer not authorized")
	// ErrProxyGrantExpired is returned when the matching grant exists but has lapsed.
	ErrProxyGrantExpired = errors.New("proxy authorization expired")
	// ErrProxyCeilingExceeded is returned when the note amount exceeds the grant ceiling.
	ErrProxyCeilingExceeded = errors.New("amount exceeds proxy authorization ceiling")
)

// ProxyGrant is a persisted delegation: the grantor (a note owner) authorizes
// the grantee to move notes on their behalf, up to a ceiling amount, until
// the grant expires or is revoked. A proxy transfer is honored only when it
// matches a stored grant; request parameters alone never authorize anything.
type ProxyGrant struct {
	ID                uuid.UUID
	GrantorID         uuid.UUID
	GranteeID         uuid.UUID
	AuthorizationCode string
	ProxyType         ProxyType
	CeilingAmount     int64
	ExpiresAt         time.Time
	Revoked           bool
	CreatedAt         time.Time
}

// NewProxyGrant creates a grant from grantor to grantee.
func NewProxyGrant(grantor, grantee uuid.UUID, code string, pt ProxyType, ceiling int64, expiresAt time.Time) *ProxyGrant {
	return &ProxyGrant{
		ID:                uuid.New(),
		GrantorID:         grantor,
		GranteeID:         grantee,
		AuthorizationCode: code,
		ProxyType:         pt,
		CeilingAmount:     ceiling,
		ExpiresAt:         expiresAt,
		CreatedAt:         time.Now(),
	}
}

// Authorizes checks whether this grant permits grantee to move amount with
// the supplied authorization code at time now.
func (g *ProxyGrant) Authorizes(grantee uuid.UUID, code string, amount int64, now time.Time) error {
	if g.Revoked || g.GranteeID != grantee {
		return ErrProxyNotAuthorized
	}
	if subtle.ConstantTimeCompare([]byte(g.AuthorizationCode), []byte(code)) != 1 {
		return ErrProxyNotAuthorized
	}
	if now.After(g.ExpiresAt) {
		return ErrProxyGrantExpired
	}
	if g.CeilingAmount > 0 && amount > g.CeilingAmount {
		return ErrProxyCeilingExceeded
	}
	return nil
}
