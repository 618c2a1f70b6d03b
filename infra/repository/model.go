package repository

import (
	"time"

	"github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/domain/user"
	"github.com/google/uuid"
)

// CashNote represents a cash note record in the database.
type CashNote struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReferenceCode string    `gorm:"uniqueIndex;not null;size:20"`
	SerialNumber  string    `gorm:"size:32"`
	ScanMethod    string    `gorm:"size:32"`

	Denomination int64  `gorm:"not null"`
	NoteType     string `gorm:"type:varchar(16);not null;default:'standard'"`
	Status       string `gorm:"type:varchar(16);not null;default:'active';index"`

	CurrentOwnerID  uuid.UUID `gorm:"type:uuid;index"`
	OriginalOwnerID uuid.UUID `gorm:"type:uuid"`

	TransferCount     int `gorm:"not null;default:0"`
	LastTransferredAt *time.Time

	IsLocked     bool `gorm:"not null;default:false"`
	LockedReason string
	LockedBy     uuid.UUID `gorm:"type:uuid"`
	LockedAt     *time.Time

	FlaggedReason string
	FlaggedBy     uuid.UUID `gorm:"type:uuid"`
	FlaggedAt     *time.Time

	IsForeign       bool   `gorm:"not null;default:false"`
	ForeignCurrency string `gorm:"type:varchar(3)"`
	ExchangeRate    float64

	VerificationScore float64 `gorm:"not null;default:0.95"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the CashNote model.
func (CashNote) TableName() string { return "cash_notes" }

// CashNoteTransfer represents a transfer attempt record in the database.
type CashNoteTransfer struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransferReference string    `gorm:"uniqueIndex;not null;size:32"`
	CashNoteID        uuid.UUID `gorm:"type:uuid;not null;index"`
	CashNote          *CashNote `gorm:"foreignKey:CashNoteID"`

	FromUserID     uuid.UUID `gorm:"type:uuid;index"`
	ToUserID       uuid.UUID `gorm:"type:uuid;index"`
	TransferMethod string    `gorm:"type:varchar(16);not null;default:'direct'"`
	Amount         int64     `gorm:"not null"`
	Status         string    `gorm:"type:varchar(16);not null;default:'pending';index"`
	Notes          string

	IsProxyTransaction          bool `gorm:"not null;default:false"`
	ProxyType                   string
	ProxyAuthorizedBy           uuid.UUID `gorm:"type:uuid"`
	ProxyAuthorizationCode      string
	ProxyAuthorizationExpiresAt *time.Time

	RequiresComplianceValidation bool `gorm:"not null;default:false"`
	ComplianceValidated          bool `gorm:"not null;default:false"`
	ComplianceReference          string

	InitiatedAt   time.Time `gorm:"not null"`
	CompletedAt   *time.Time
	FailedAt      *time.Time
	ExpiresAt     time.Time `gorm:"not null;index"`
	FailureReason string

	IsReversible   bool `gorm:"not null;default:true"`
	IsReversed     bool `gorm:"not null;default:false"`
	ReversedBy     uuid.UUID `gorm:"type:uuid"`
	ReversalReason string
	ReversedAt     *time.Time
}

// TableName specifies the table name for the CashNoteTransfer model.
func (CashNoteTransfer) TableName() string { return "cash_note_transfers" }

// ProxyGrant represents a persisted proxy authorization in the database.
type ProxyGrant struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	GrantorID         uuid.UUID `gorm:"type:uuid;not null;index:idx_proxy_grants_pair"`
	GranteeID         uuid.UUID `gorm:"type:uuid;not null;index:idx_proxy_grants_pair"`
	AuthorizationCode string    `gorm:"not null"`
	ProxyType         string    `gorm:"type:varchar(16);not null"`
	CeilingAmount     int64     `gorm:"not null;default:0"`
	ExpiresAt         time.Time `gorm:"not null"`
	Revoked           bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time
}

// TableName specifies the table name for the ProxyGrant model.
func (ProxyGrant) TableName() string { return "proxy_grants" }

// User represents an identity projection in the database.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Phone     string    `gorm:"uniqueIndex;size:20"`
	Names     string
	Role      string `gorm:"type:varchar(16);not null;default:'member'"`
	CreatedAt time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string { return "users" }

func mapNoteToModel(n *note.CashNote) *CashNote {
	return &CashNote{
		ID:                n.ID,
		ReferenceCode:     n.ReferenceCode,
		SerialNumber:      n.SerialNumber,
		ScanMethod:        n.ScanMethod,
		Denomination:      n.Denomination,
		NoteType:          string(n.NoteType),
		Status:            string(n.Status),
		CurrentOwnerID:    n.CurrentOwnerID,
		OriginalOwnerID:   n.OriginalOwnerID,
		TransferCount:     n.TransferCount,
		LastTransferredAt: n.LastTransferredAt,
		IsLocked:          n.IsLocked,
		LockedReason:      n.LockedReason,
		LockedBy:          n.LockedBy,
		LockedAt:          n.LockedAt,
		FlaggedReason:     n.FlaggedReason,
		FlaggedBy:         n.FlaggedBy,
		FlaggedAt:         n.FlaggedAt,
		IsForeign:         n.IsForeign,
		ForeignCurrency:   n.ForeignCurrency,
		ExchangeRate:      n.ExchangeRate,
		VerificationScore: n.VerificationScore,
		CreatedAt:         n.CreatedAt,
		UpdatedAt:         n.UpdatedAt,
	}
}

func mapModelToNote(m *CashNote) *note.CashNote {
	return &note.CashNote{
		ID:                m.ID,
		ReferenceCode:     m.ReferenceCode,
		SerialNumber:      m.SerialNumber,
		ScanMethod:        m.ScanMethod,
		Denomination:      m.Denomination,
		NoteType:          note.Type(m.NoteType),
		Status:            note.Status(m.Status),
		CurrentOwnerID:    m.CurrentOwnerID,
		OriginalOwnerID:   m.OriginalOwnerID,
		TransferCount:     m.TransferCount,
		LastTransferredAt: m.LastTransferredAt,
		IsLocked:          m.IsLocked,
		LockedReason:      m.LockedReason,
		LockedBy:          m.LockedBy,
		LockedAt:          m.LockedAt,
		FlaggedReason:     m.FlaggedReason,
		FlaggedBy:         m.FlaggedBy,
		FlaggedAt:         m.FlaggedAt,
		IsForeign:         m.IsForeign,
		ForeignCurrency:   m.ForeignCurrency,
		ExchangeRate:      m.ExchangeRate,
		VerificationScore: m.VerificationScore,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func mapTransferToModel(t *note.CashNoteTransfer) *CashNoteTransfer {
	return &CashNoteTransfer{
		ID:                           t.ID,
		TransferReference:            t.TransferReference,
		CashNoteID:                   t.CashNoteID,
		FromUserID:                   t.FromUserID,
		ToUserID:                     t.ToUserID,
		TransferMethod:               string(t.TransferMethod),
		Amount:                       t.Amount,
		Status:                       string(t.Status),
		Notes:                        t.Notes,
		IsProxyTransaction:           t.IsProxyTransaction,
		ProxyType:                    string(t.ProxyType),
		ProxyAuthorizedBy:            t.ProxyAuthorizedBy,
		ProxyAuthorizationCode:       t.ProxyAuthorizationCode,
		ProxyAuthorizationExpiresAt:  t.ProxyAuthorizationExpiresAt,
		RequiresComplianceValidation: t.RequiresComplianceValidation,
		ComplianceValidated:          t.ComplianceValidated,
		ComplianceReference:          t.ComplianceReference,
		InitiatedAt:                  t.InitiatedAt,
		CompletedAt:                  t.CompletedAt,
		FailedAt:                     t.FailedAt,
		ExpiresAt:                    t.ExpiresAt,
		FailureReason:                t.FailureReason,
		IsReversible:                 t.IsReversible,
		IsReversed:                   t.IsReversed,
		ReversedBy:                   t.ReversedBy,
		ReversalReason:               t.ReversalReason,
		ReversedAt:                   t.ReversedAt,
	}
}

func mapModelToTransfer(m *CashNoteTransfer) *note.CashNoteTransfer {
	return &note.CashNoteTransfer{
		ID:                           m.ID,
		TransferReference:            m.TransferReference,
		CashNoteID:                   m.CashNoteID,
		FromUserID:                   m.FromUserID,
		ToUserID:                     m.ToUserID,
		TransferMethod:               note.TransferMethod(m.TransferMethod),
		Amount:                       m.Amount,
		Status:                       note.TransferStatus(m.Status),
		Notes:                        m.Notes,
		IsProxyTransaction:           m.IsProxyTransaction,
		ProxyType:                    note.ProxyType(m.ProxyType),
		ProxyAuthorizedBy:            m.ProxyAuthorizedBy,
		ProxyAuthorizationCode:       m.ProxyAuthorizationCode,
		ProxyAuthorizationExpiresAt:  m.ProxyAuthorizationExpiresAt,
		RequiresComplianceValidation: m.RequiresComplianceValidation,
		ComplianceValidated:          m.ComplianceValidated,
		ComplianceReference:          m.ComplianceReference,
		InitiatedAt:                  m.InitiatedAt,
		CompletedAt:                  m.CompletedAt,
		FailedAt:                     m.FailedAt,
		ExpiresAt:                    m.ExpiresAt,
		FailureReason:                m.FailureReason,
		IsReversible:                 m.IsReversible,
		IsReversed:                   m.IsReversed,
		ReversedBy:                   m.ReversedBy,
		ReversalReason:               m.ReversalReason,
		ReversedAt:                   m.ReversedAt,
	}
}

func mapGrantToModel(g *note.ProxyGrant) *ProxyGrant {
	return &ProxyGrant{
		ID:                g.ID,
		GrantorID:         g.GrantorID,
		GranteeID:         g.GranteeID,
		AuthorizationCode: g.AuthorizationCode,
		ProxyType:         string(g.ProxyType),
		CeilingAmount:     g.CeilingAmount,
		ExpiresAt:         g.ExpiresAt,
		Revoked:           g.Revoked,
		CreatedAt:         g.CreatedAt,
	}
}

func mapModelToGrant(m *ProxyGrant) *note.ProxyGrant {
	return &note.ProxyGrant{
		ID:                m.ID,
		GrantorID:         m.GrantorID,
		GranteeID:         m.GranteeID,
		AuthorizationCode: m.AuthorizationCode,
		ProxyType:         note.ProxyType(m.ProxyType),
		CeilingAmount:     m.CeilingAmount,
		ExpiresAt:         m.ExpiresAt,
		Revoked:           m.Revoked,
		CreatedAt:         m.CreatedAt,
	}
}

func mapUserToModel(u *user.User) *User {
	return &User{
		ID:        u.ID,
		Phone:     u.Phone,
		Names:     u.Names,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func mapModelToUser(m *User) *user.User {
	return &user.User{
		ID:        m.ID,
		Phone:     m.Phone,
		Names:     m.Names,
		Role:      user.Role(m.Role),
		CreatedAt: m.CreatedAt,
	}
}
