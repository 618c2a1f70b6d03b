// Package events defines the lifecycle events emitted by the note ledger.
// Audit and notification collaborators consume them from the event bus;
// emission is best-effort and never fails the originating operation.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the marker interface for all ledger events.
type Event interface {
	Type() string
}

// NoteRegistered is emitted when a note enters the ledger.
type NoteRegistered struct {
	NoteID        uuid.UUID
	ReferenceCode string
	Denomination  int64
	IsForeign     bool
	OwnerID       uuid.UUID
	At            time.Time
}

func (NoteRegistered) Type() string { return "NoteRegistered" }

// NoteScanned is emitted on every scan/verify lookup, including rejected ones.
type NoteScanned struct {
	NoteID        uuid.UUID
	ReferenceCode string
	ActorID       uuid.UUID
	Outcome       string
	At            time.Time
}

func (NoteScanned) Type() string { return "NoteScanned" }

// NoteTransferred is emitted after a transfer commits.
type NoteTransferred struct {
	NoteID            uuid.UUID
	TransferID        uuid.UUID
	TransferReference string
	FromUserID        uuid.UUID
	ToUserID          uuid.UUID
	Amount            int64
	Proxy             bool
	At                time.Time
}

func (NoteTransferred) Type() string { return "NoteTransferred" }

// NoteFlagged is emitted when a note is flagged stolen.
type NoteFlagged struct {
	NoteID     uuid.UUID
	ReporterID uuid.UUID
	Reason     string
	At         time.Time
}

func (NoteFlagged) Type() string { return "NoteFlagged" }
