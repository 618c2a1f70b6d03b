package note

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTransferNotPending is returned when a terminal transfer is asked to transition.
	ErrTransferNotPending = errors.New("transfer is not pending")
	// ErrTransferExpired is returned when a pending transfer is past its expiry.
	ErrTransferExpired = errors.New("transfer has expired")
	// ErrTransferConflict is returned when a concurrent transfer won the note first.
	ErrTransferConflict = errors.New("concurrent transfer conflict")
	// ErrTransferNotReversible is returned when reversal is requested on a non-reversible transfer.
	ErrTransferNotReversible = errors.New("transfer is not reversible")
	// ErrComplianceRejected is returned when the compliance validator refuses a foreign transfer.
	ErrComplianceRejected = errors.New("compliance validation failed")
)

// DefaultTransferExpiry bounds how long a pending transfer may wait before it
// can no longer complete.
const DefaultTransferExpiry = 15 * time.Minute

// TransferStatus is the lifecycle state of a transfer attempt.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
	TransferFailed    TransferStatus = "failed"
	TransferCancelled TransferStatus = "cancelled"
	TransferDisputed  TransferStatus = "disputed"
	TransferReversed  TransferStatus = "reversed"
)

// TransferMethod records how the transfer was initiated.
type TransferMethod string

const (
	MethodDirect TransferMethod = "direct"
	MethodQRScan TransferMethod = "qr_scan"
	MethodPhone  TransferMethod = "phone"
	MethodProxy  TransferMethod = "proxy"
)

// ProxyType classifies a delegated transfer.
type ProxyType string

const (
	ProxyGuardian ProxyType = "guardian"
	ProxyAgent    ProxyType = "agent"
	ProxyMerchant ProxyType = "merchant"
)

// CashNoteTransfer is one transfer attempt for a note. A row is created
// pending and moves to exactly one terminal state; after that only the
// reversal fields may change.
type CashNoteTransfer struct {
	ID                uuid.UUID
	TransferReference string
	CashNoteID        uuid.UUID

	FromUserID     uuid.UUID
	ToUserID       uuid.UUID
	TransferMethod TransferMethod
	Amount         int64
	Status         TransferStatus
	Notes          string

	IsProxyTransaction          bool
	ProxyType                   ProxyType
	ProxyAuthorizedBy           uuid.UUID
	ProxyAuthorizationCode      string
	ProxyAuthorizationExpiresAt *time.Time

	RequiresComplianceValidation bool
	ComplianceValidated          bool
	ComplianceReference          string

	InitiatedAt   time.Time
	CompletedAt   *time.Time
	FailedAt      *time.Time
	ExpiresAt     time.Time
	FailureReason string

	IsReversible   bool
	IsReversed     bool
	ReversedBy     uuid.UUID
	ReversalReason string
	ReversedAt     *time.Time
}

// NewTransfer creates a pending transfer for the note with the default
// expiry window. Amount must be the note's denomination at initiation time;
// the engine enforces that.
func NewTransfer(n *CashNote, from, to uuid.UUID, method TransferMethod, at time.Time) *CashNoteTransfer {
	return &CashNoteTransfer{
		ID:                           uuid.New(),
		TransferReference:            NewTransferReference(),
		CashNoteID:                   n.ID,
		FromUserID:                   from,
		ToUserID:                     to,
		TransferMethod:               method,
		Amount:                       n.Denomination,
		Status:                       TransferPending,
		RequiresComplianceValidation: n.IsForeign,
		InitiatedAt:                  at,
		ExpiresAt:                    at.Add(DefaultTransferExpiry),
		IsReversible:                 true,
	}
}

// NewTransferReference produces a unique human-quotable transfer reference.
func NewTransferReference() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// Fall back to a UUID-derived reference; rand.Read only fails on a
		// broken entropy source.
		return "TR-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
	}
	return "TR-" + strings.ToUpper(hex.EncodeToString(buf))
}

// Expired reports whether the transfer may no longer complete.
func (t *CashNoteTransfer) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Complete marks the transfer completed. Only a pending, unexpired transfer
// can complete.
func (t *CashNoteTransfer) Complete(at time.Time) error {
	if t.Status != TransferPending {
		return ErrTransferNotPending
	}
	if t.Expired(at) {
		return ErrTransferExpired
	}
	t.Status = TransferCompleted
	t.CompletedAt = &at
	return nil
}

// Fail marks the transfer failed with a reason.
func (t *CashNoteTransfer) Fail(at time.Time, reason string) error {
	if t.Status != TransferPending {
		return ErrTransferNotPending
	}
	t.Status = TransferFailed
	t.FailedAt = &at
	t.FailureReason = reason
	return nil
}

// Cancel marks a pending transfer cancelled by its initiator.
func (t *CashNoteTransfer) Cancel(at time.Time) error {
	if t.Status != TransferPending {
		return ErrTransferNotPending
	}
	t.Status = TransferCancelled
	t.FailedAt = &at
	return nil
}

// Reverse records a reversal of a completed transfer. The row itself stays
// immutable apart from the reversal fields.
func (t *CashNoteTransfer) Reverse(by uuid.UUID, reason string, at time.Time) error {
	if t.Status != TransferCompleted {
		return ErrTransferNotPending
	}
	if !t.IsReversible || t.IsReversed {
		return ErrTransferNotReversible
	}
	t.IsReversed = true
	t.ReversedBy = by
	t.ReversalReason = reason
	t.ReversedAt = &at
	t.Status = TransferReversed
	return nil
}
