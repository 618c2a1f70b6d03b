// Package provider defines the contracts for external collaborators
// consulted by the note ledger.
package provider

import (
	"context"

	"github.com/google/uuid"
)

// ComplianceRequest carries both parties' identity and the note summary to
// the compliance validator for a foreign-currency transfer.
type ComplianceRequest struct {
	FromUserID      uuid.UUID
	FromUserPhone   string
	ToUserID        uuid.UUID
	ToUserPhone     string
	NoteID          uuid.UUID
	ReferenceCode   string
	ForeignCurrency string
	Amount          int64
	ExchangeRate    float64
}

// ComplianceResult is the validator's verdict. Reference identifies the
// check on the validator's side; Reason explains a refusal.
type ComplianceResult struct {
	Approved  bool
	Reference string
	Reason    string
}

// ComplianceValidator asserts the legality of a foreign-currency transfer
// for both parties. Calls are synchronous and must be bounded by the
// context deadline; on error or timeout the transfer aborts with no state
// mutated.
type ComplianceValidator interface {
	ValidateForeignTransfer(ctx context.Context, req ComplianceRequest) (*ComplianceResult, error)
}
