// Package registry provides business logic for bringing physical cash notes
// into the ledger and for read-only scan/verify lookups. Registration owns
// note creation; after creation the note is mutated only by the transfer
// engine and the fraud flag manager.
package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cashnoteio/cashnote/pkg/config"
	"github.com/cashnoteio/cashnote/pkg/denomination"
	"github.com/cashnoteio/cashnote/pkg/domain/events"
	"github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/eventbus"
	"github.com/cashnoteio/cashnote/pkg/refcode"
	"github.com/cashnoteio/cashnote/pkg/repository"
	"github.com/google/uuid"
)

// RegisterNote carries everything needed to register one note. Exactly one of
// Denomination or Foreign must be set.
type RegisterNote struct {
	RequesterID   uuid.UUID
	ReferenceCode string
	Denomination  int64
	Foreign       *denomination.ForeignSpec
	SerialNumber  string
	ScanMethod    string
	NoteType      note.Type
}

// ScanResult is the read-only view returned by Scan.
type ScanResult struct {
	Note        *note.CashNote
	CanTransfer bool
}

// Service registers notes and serves scan/verify lookups.
type Service struct {
	uow      repository.UnitOfWork
	eventBus eventbus.Bus
	logger   *slog.Logger
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	return &Service{
		uow:      deps.Uow,
		eventBus: deps.EventBus,
		logger:   deps.Logger,
	}
}

// Register validates the reference code and denomination, creates the note
// with the requester as current and original owner, and emits a registered
// event. A duplicate reference code surfaces as domain.ErrAlreadyExists.
func (s *Service) Register(ctx context.Context, cmd RegisterNote) (n *note.CashNote, err error) {
	logger := s.logger.With("referenceCode", cmd.ReferenceCode, "requesterID", cmd.RequesterID)

	b := note.New().
		WithReferenceCode(cmd.ReferenceCode).
		WithOwner(cmd.RequesterID).
		WithSerialNumber(cmd.SerialNumber).
		WithScanMethod(cmd.ScanMethod)
	if cmd.Foreign != nil {
		b = b.WithForeign(*cmd.Foreign)
	} else {
		b = b.WithDenomination(cmd.Denomination)
		if cmd.NoteType != "" {
			b = b.WithNoteType(cmd.NoteType)
		}
	}
	n, err = b.Build()
	if err != nil {
		logger.Error("Register failed: domain error", "error", err)
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.NoteRepository()
		if err != nil {
			return err
		}
		return repo.Create(n)
	})
	if err != nil {
		logger.Error("Register failed: persist error", "error", err)
		return nil, err
	}

	s.emit(ctx, events.NoteRegistered{
		NoteID:        n.ID,
		ReferenceCode: n.ReferenceCode,
		Denomination:  n.Denomination,
		IsForeign:     n.IsForeign,
		OwnerID:       n.CurrentOwnerID,
		At:            time.Now(),
	})
	logger.Info("note registered", "noteID", n.ID, "denomination", n.Denomination)
	return n, nil
}

// Scan looks up a note by reference code without mutating it. A stolen note
// is rejected with note.ErrNoteStolen, a locked one with note.ErrNoteLocked;
// both rejections still record a scanned event so the audit trail shows the
// attempt.
func (s *Service) Scan(ctx context.Context, code string, actorID uuid.UUID) (*ScanResult, error) {
	if !refcode.Validate(code) {
		return nil, note.ErrInvalidReferenceCode
	}

	var n *note.CashNote
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.NoteRepository()
		if err != nil {
			return err
		}
		n, err = repo.GetByReferenceCode(code)
		return err
	})
	if err != nil {
		return nil, err
	}

	outcome := "ok"
	var scanErr error
	switch {
	case n.Status == note.StatusStolen:
		outcome, scanErr = "stolen", note.ErrNoteStolen
	case n.IsLocked:
		outcome, scanErr = "locked", note.ErrNoteLocked
	}
	s.emit(ctx, events.NoteScanned{
		NoteID:        n.ID,
		ReferenceCode: n.ReferenceCode,
		ActorID:       actorID,
		Outcome:       outcome,
		At:            time.Now(),
	})
	if scanErr != nil {
		return nil, scanErr
	}
	return &ScanResult{Note: n, CanTransfer: n.CanTransfer()}, nil
}

// emit publishes best-effort; audit failures never surface to the caller.
func (s *Service) emit(ctx context.Context, e events.Event) {
	if err := s.eventBus.Emit(ctx, e); err != nil {
		s.logger.Warn("event emission failed", "eventType", e.Type(), "error", err)
	}
}
