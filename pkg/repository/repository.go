package repository

import (
	"time"

	"github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/domain/user"
	"github.com/google/uuid"
)

// NoteRepository defines the interface for cash note data access.
type NoteRepository interface {
	Get(id uuid.UUID) (*note.CashNote, error)
	GetByReferenceCode(code string) (*note.CashNote, error)
	// GetForUpdate loads the note under a row-level lock. Must be called
	// inside a UnitOfWork transaction; transfers on the same note serialize
	// behind this lock.
	GetForUpdate(id uuid.UUID) (*note.CashNote, error)
	Create(n *note.CashNote) error
	// UpdateOwnership persists an ownership change guarded by an optimistic
	// check: the row is only written when its stored transfer count still
	// equals expectedTransferCount. A lost race surfaces as
	// note.ErrTransferConflict.
	UpdateOwnership(n *note.CashNote, expectedTransferCount int) error
	// UpdateFlags persists lock/flag state changes.
	UpdateFlags(n *note.CashNote) error
	// CountByStatus aggregates note counts per status, optionally scoped to
	// an owner (uuid.Nil for all owners).
	CountByStatus(ownerID uuid.UUID) (map[note.Status]int64, error)
	// SumByType aggregates denomination sums and counts per note type,
	// optionally scoped to an owner (uuid.Nil for all owners).
	SumByType(ownerID uuid.UUID) ([]TypeAggregate, error)
}

// TransferRepository defines the interface for transfer data access.
type TransferRepository interface {
	Get(id uuid.UUID) (*note.CashNoteTransfer, error)
	GetByReference(ref string) (*note.CashNoteTransfer, error)
	Create(t *note.CashNoteTransfer) error
	Update(t *note.CashNoteTransfer) error
	// ListByNote returns one page of a note's transfers, newest first, with
	// the total count.
	ListByNote(noteID uuid.UUID, limit, offset int) ([]*note.CashNoteTransfer, int64, error)
	// FailExpired marks pending transfers whose expiry has passed as failed
	// and returns how many rows were swept.
	FailExpired(now time.Time) (int64, error)
	// CountByStatus aggregates transfer counts per status.
	CountByStatus() (map[note.TransferStatus]int64, error)
}

// GrantRepository defines the interface for proxy grant data access.
type GrantRepository interface {
	Get(id uuid.UUID) (*note.ProxyGrant, error)
	Create(g *note.ProxyGrant) error
	// GetActive returns the newest unrevoked grant from grantor to grantee,
	// or domain.ErrNotFound.
	GetActive(grantorID, granteeID uuid.UUID) (*note.ProxyGrant, error)
	Revoke(id uuid.UUID) error
}

// UserRepository resolves identity references. Identity issuance lives in an
// external service; rows here are read-mostly projections.
type UserRepository interface {
	Get(id uuid.UUID) (*user.User, error)
	GetByPhone(phone string) (*user.User, error)
	Create(u *user.User) error
}

// TypeAggregate is one row of the per-type note statistics.
type TypeAggregate struct {
	NoteType note.Type
	Count    int64
	Sum      int64
}
