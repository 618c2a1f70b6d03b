// Package fraud provides the fraud flag manager: the only code path that
// moves a note into the stolen terminal state.
package fraud

import (
	"context"
	"log/slog"
	"time"

	"github.com/cashnoteio/cashnote/pkg/config"
	"github.com/cashnoteio/cashnote/pkg/domain"
	"github.com/cashnoteio/cashnote/pkg/domain/events"
	"github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/eventbus"
	"github.com/cashnoteio/cashnote/pkg/repository"
	"github.com/google/uuid"
)

// Service flags notes as stolen.
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

// FlagStolen transitions the note to stolen and locked in one write. Only the
// current owner or a user with an elevated role may flag; the transition is
// terminal, so a second flag attempt is rejected. Emits a flagged event after
// commit, best-effort.
func (s *Service) FlagStolen(
	ctx context.Context,
	noteID, reporterID uuid.UUID,
	reason string,
) (n *note.CashNote, err error) {
	logger := s.logger.With("noteID", noteID, "reporterID", reporterID)

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		noteRepo, err := uow.NoteRepository()
		if err != nil {
			return err
		}
		n, err = noteRepo.GetForUpdate(noteID)
		if err != nil {
			return err
		}

		if !n.IsOwnedBy(reporterID) {
			userRepo, err := uow.UserRepository()
			if err != nil {
				return err
			}
			reporter, err := userRepo.Get(reporterID)
			if err != nil {
				return err
			}
			if !reporter.Elevated() {
				return domain.ErrForbidden
			}
		}

		if err = n.FlagStolen(reporterID, reason, time.Now()); err != nil {
			return err
		}
		return noteRepo.UpdateFlags(n)
	})
	if err != nil {
		logger.Error("FlagStolen failed", "error", err)
		return nil, err
	}

	s.emit(ctx, events.NoteFlagged{
		NoteID:     n.ID,
		ReporterID: reporterID,
		Reason:     reason,
		At:         time.Now(),
	})
	logger.Warn("note flagged as stolen", "reason", reason)
	return n, nil
}

// emit publishes best-effort; audit failures never surface to the caller.
func (s *Service) emit(ctx context.Context, e events.Event) {
	if err := s.eventBus.Emit(ctx, e); err != nil {
		s.logger.Warn("event emission failed", "eventType", e.Type(), "error", err)
	}
}
