package note

import (
	"errors"
	"time"

	"github.com/cashnoteio/cashnote/pkg/denomination"
	"github.com/cashnoteio/cashnote/pkg/refcode"
	"github.com/google/uuid"
)

var (
	// ErrNotOwner is returned when a user attempts to act on a note they do not own.
	ErrNotOwner = errors.New("not the current owner")
	// ErrNoteStolen is returned when the note has been flagged as stolen.
	ErrNoteStolen = errors.New("note is flagged as stolen")
	// ErrNoteLocked is returned when the note is locked.
	ErrNoteLocked = errors.New("note is locked")
	// ErrNoteNotTransferable is returned when the note status rules out a transfer.
	ErrNoteNotTransferable = errors.New("note is not transferable")
	// ErrSelfTransfer is returned when a transfer names the current owner as recipient.
	ErrSelfTransfer = errors.New("cannot transfer note to its current owner")
	// ErrInvalidReferenceCode is returned when a reference code fails checksum validation.
	ErrInvalidReferenceCode = errors.New("invalid reference code")
)

// DefaultVerificationScore is the confidence score assigned at registration.
const DefaultVerificationScore = 0.95

// Status is the lifecycle state of a cash note.
type Status string

const (
	StatusActive      Status = "active"
	StatusTransferred Status = "transferred"
	StatusLocked      Status = "locked"
	StatusStolen      Status = "stolen"
	StatusForeign     Status = "foreign"
	StatusDisputed    Status = "disputed"
	StatusDestroyed   Status = "destroyed"
)

// Type classifies the physical note.
type Type string

const (
	TypeStandard      Type = "standard"
	TypeCommemorative Type = "commemorative"
	TypeForeign       Type = "foreign"
)

// CashNote is the digital record of one physical banknote. It acts as the
// aggregate root for ownership: only a completed transfer moves
// CurrentOwnerID, and TransferCount increments exactly once per completed
// transfer.
//
// Invariants:
//   - Status == StatusStolen implies IsLocked.
//   - A locked, stolen, disputed or destroyed note can never be transferred.
//   - TransferCount only increases, via ApplyTransfer.
type CashNote struct {
	ID            uuid.UUID
	ReferenceCode string
	SerialNumber  string
	ScanMethod    string

	Denomination int64
	NoteType     Type
	Status       Status

	CurrentOwnerID  uuid.UUID
	OriginalOwnerID uuid.UUID

	TransferCount     int
	LastTransferredAt *time.Time

	IsLocked     bool
	LockedReason string
	LockedBy     uuid.UUID
	LockedAt     *time.Time

	FlaggedReason string
	FlaggedBy     uuid.UUID
	FlaggedAt     *time.Time

	IsForeign       bool
	ForeignCurrency string
	ExchangeRate    float64

	VerificationScore float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Builder provides a fluent API for constructing CashNote instances, so only
// valid notes can be registered.
type Builder struct {
	id            uuid.UUID
	referenceCode string
	serialNumber  string
	scanMethod    string
	denomination  int64
	noteType      Type
	ownerID       uuid.UUID
	foreign       *denomination.ForeignSpec
	createdAt     time.Time
}

// New creates a Builder with a fresh UUID and creation timestamp.
func New() *Builder {
	return &Builder{
		id:        uuid.New(),
		noteType:  TypeStandard,
		createdAt: time.Now(),
	}
}

// WithReferenceCode sets the checksummed reference code. Mandatory.
func (b *Builder) WithReferenceCode(code string) *Builder {
	b.referenceCode = code
	return b
}

// WithDenomination sets the local denomination for a domestic note.
func (b *Builder) WithDenomination(d int64) *Builder {
	b.denomination = d
	return b
}

// WithForeign marks the note as foreign currency. The spec supplies the
// currency code, face amount and exchange rate; the amount becomes the
// note's denomination.
func (b *Builder) WithForeign(spec denomination.ForeignSpec) *Builder {
	b.foreign = &spec
	b.noteType = TypeForeign
	return b
}

// WithOwner sets the registering owner. Mandatory.
func (b *Builder) WithOwner(ownerID uuid.UUID) *Builder {
	b.ownerID = ownerID
	return b
}

// WithSerialNumber records the printed serial number, if captured.
func (b *Builder) WithSerialNumber(sn string) *Builder {
	b.serialNumber = sn
	return b
}

// WithScanMethod records how the note was captured (metadata only).
func (b *Builder) WithScanMethod(method string) *Builder {
	b.scanMethod = method
	return b
}

// WithNoteType overrides the note classification for domestic notes.
func (b *Builder) WithNoteType(t Type) *Builder {
	b.noteType = t
	return b
}

// Build validates all registration invariants and returns the note with
// status active, the registering user as both current and original owner,
// and the default verification score.
func (b *Builder) Build() (*CashNote, error) {
	if !refcode.Validate(b.referenceCode) {
		return nil, ErrInvalidReferenceCode
	}
	if b.ownerID == uuid.Nil {
		return nil, errors.New("owner is required")
	}
	n := &CashNote{
		ID:                b.id,
		ReferenceCode:     b.referenceCode,
		SerialNumber:      b.serialNumber,
		ScanMethod:        b.scanMethod,
		NoteType:          b.noteType,
		Status:            StatusActive,
		CurrentOwnerID:    b.ownerID,
		OriginalOwnerID:   b.ownerID,
		VerificationScore: DefaultVerificationScore,
		CreatedAt:         b.createdAt,
		UpdatedAt:         b.createdAt,
	}
	if b.foreign != nil {
		if err := b.foreign.Validate(); err != nil {
			return nil, err
		}
		n.IsForeign = true
		n.ForeignCurrency = b.foreign.Currency
		n.ExchangeRate = b.foreign.ExchangeRate
		n.Denomination = b.foreign.Amount
		return n, nil
	}
	if !denomination.IsValid(b.denomination) {
		return nil, denomination.ErrUnknownDenomination
	}
	n.Denomination = b.denomination
	return n, nil
}

// IsOwnedBy reports whether userID is the current owner.
func (n *CashNote) IsOwnedBy(userID uuid.UUID) bool {
	return n.CurrentOwnerID == userID
}

// CanTransfer reports whether the note is in a transferable state.
func (n *CashNote) CanTransfer() bool {
	return n.Status == StatusActive && !n.IsLocked
}

// ValidateTransferable checks the note state alone, independent of who is
// asking. Stolen wins over locked so callers can distinguish the two.
func (n *CashNote) ValidateTransferable() error {
	if n.Status == StatusStolen {
		return ErrNoteStolen
	}
	if n.IsLocked {
		return ErrNoteLocked
	}
	if n.Status != StatusActive {
		return ErrNoteNotTransferable
	}
	return nil
}

// ValidateTransfer checks both the note state and the recipient.
func (n *CashNote) ValidateTransfer(recipientID uuid.UUID) error {
	if err := n.ValidateTransferable(); err != nil {
		return err
	}
	if recipientID == n.CurrentOwnerID {
		return ErrSelfTransfer
	}
	return nil
}

// ApplyTransfer moves ownership to newOwner. Callers must have validated the
// transfer; this only mutates state.
func (n *CashNote) ApplyTransfer(newOwner uuid.UUID, at time.Time) {
	n.CurrentOwnerID = newOwner
	n.TransferCount++
	n.LastTransferredAt = &at
	n.UpdatedAt = at
}

// FlagStolen transitions the note to the stolen terminal state. The status
// and lock are set together so the stolen-implies-locked invariant can never
// be observed broken.
func (n *CashNote) FlagStolen(reporter uuid.UUID, reason string, at time.Time) error {
	switch n.Status {
	case StatusStolen:
		return ErrNoteStolen
	case StatusDestroyed:
		return ErrNoteNotTransferable
	}
	n.Status = StatusStolen
	n.IsLocked = true
	n.LockedReason = reason
	n.LockedBy = reporter
	n.LockedAt = &at
	n.FlaggedReason = reason
	n.FlaggedBy = reporter
	n.FlaggedAt = &at
	n.UpdatedAt = at
	return nil
}
