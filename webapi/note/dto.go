package note

import (
	"time"

	"github.com/cashnoteio/cashnote/pkg/domain/note"
)

// ForeignSpecRequest describes a foreign-currency note at registration.
type ForeignSpecRequest struct {
	Currency     string  `json:"currency" validate:"required,len=3,alpha"`
	Amount       int64   `json:"amount" validate:"required,gt=0"`
	ExchangeRate float64 `json:"exchangeRate" validate:"required,gt=0"`
}

// RegisterNoteRequest is the body of POST /notes.
type RegisterNoteRequest struct {
	ReferenceCode string              `json:"referenceCode" validate:"required"`
	Denomination  int64               `json:"denomination" validate:"required_without=Foreign"`
	Foreign       *ForeignSpecRequest `json:"foreign,omitempty"`
	SerialNumber  string              `json:"serialNumber,omitempty"`
	ScanMethod    string              `json:"scanMethod,omitempty"`
	NoteType      string              `json:"noteType,omitempty" validate:"omitempty,oneof=standard commemorative"`
}

// TransferRequest is the body of POST /notes/:id/transfer. The recipient is
// addressed by id or phone. TransferReference lets a caller retry safely: the
// same reference never moves the note twice.
type TransferRequest struct {
	ToUserID               string `json:"toUserId,omitempty" validate:"omitempty,uuid"`
	ToUserPhone            string `json:"toUserPhone,omitempty"`
	TransferMethod         string `json:"transferMethod,omitempty" validate:"omitempty,oneof=direct qr_scan phone proxy"`
	IsProxyTransaction     bool   `json:"isProxyTransaction,omitempty"`
	ProxyAuthorizationCode string `json:"proxyAuthorizationCode,omitempty"`
	TransferReference      string `json:"transferReference,omitempty" validate:"omitempty,max=64"`
	Notes                  string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// FlagRequest is the body of POST /notes/:id/flag.
type FlagRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// NoteResponse is the registered-note view.
type NoteResponse struct {
	ID            string `json:"id"`
	ReferenceCode string `json:"referenceCode"`
	Denomination  int64  `json:"denomination"`
	NoteType      string `json:"noteType"`
	Status        string `json:"status"`
	IsForeign     bool   `json:"isForeign"`
}

// ScanResponse is the read-only verification view.
type ScanResponse struct {
	ID            string `json:"id"`
	ReferenceCode string `json:"referenceCode"`
	Status        string `json:"status"`
	CurrentOwner  string `json:"currentOwnerId"`
	CanTransfer   bool   `json:"canTransfer"`
	TransferCount int    `json:"transferCount"`
	Denomination  int64  `json:"denomination"`
	IsForeign     bool   `json:"isForeign"`
}

// TransferResponse is the committed-transfer view.
type TransferResponse struct {
	TransferID        string     `json:"transferId"`
	TransferReference string     `json:"transferReference"`
	CashNoteID        string     `json:"cashNoteId"`
	FromUserID        string     `json:"fromUserId"`
	ToUserID          string     `json:"toUserId"`
	Amount            int64      `json:"amount"`
	Status            string     `json:"status"`
	IsProxy           bool       `json:"isProxyTransaction,omitempty"`
	InitiatedAt       time.Time  `json:"initiatedAt"`
	TransferredAt     *time.Time `json:"transferredAt,omitempty"`
}

// FlagResponse is returned after a note is flagged stolen.
type FlagResponse struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	IsLocked  bool       `json:"isLocked"`
	FlaggedAt *time.Time `json:"flaggedAt,omitempty"`
}

// HistoryResponse is one page of a note's transfer attempts.
type HistoryResponse struct {
	Transfers []TransferResponse `json:"transfers"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	Limit     int                `json:"limit"`
}

func toNoteResponse(n *note.CashNote) NoteResponse {
	return NoteResponse{
		ID:            n.ID.String(),
		ReferenceCode: n.ReferenceCode,
		Denomination:  n.Denomination,
		NoteType:      string(n.NoteType),
		Status:        string(n.Status),
		IsForeign:     n.IsForeign,
	}
}

func toTransferResponse(t *note.CashNoteTransfer) TransferResponse {
	return TransferResponse{
		TransferID:        t.ID.String(),
		TransferReference: t.TransferReference,
		CashNoteID:        t.CashNoteID.String(),
		FromUserID:        t.FromUserID.String(),
		ToUserID:          t.ToUserID.String(),
		Amount:            t.Amount,
		Status:            string(t.Status),
		IsProxy:           t.IsProxyTransaction,
		InitiatedAt:       t.InitiatedAt,
		TransferredAt:     t.CompletedAt,
	}
}
