// Package user holds the identity reference consumed by the note ledger.
// Identity issuance and authentication live in an external service; this
// package only models what the ledger needs to resolve and authorize actors.
package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUnauthorized is returned when a request carries no usable identity.
var ErrUnauthorized = errors.New("user unauthorized")

// Role controls elevated operations such as flagging notes the actor does
// not own.
type Role string

const (
	RoleMember    Role = "member"
	RoleInspector Role = "inspector"
	RoleAdmin     Role = "admin"
)

// User is an identity reference: a note owner, transfer party or reporter.
type User struct {
	ID        uuid.UUID
	Phone     string
	Names     string
	Role      Role
	CreatedAt time.Time
}

// Elevated reports whether the user may act on notes they do not own.
func (u *User) Elevated() bool {
	return u.Role == RoleInspector || u.Role == RoleAdmin
}
