// Package stats serves read-only aggregations over notes and transfers.
package stats

import (
	"context"
	"log/slog"

	"github.com/cashnoteio/cashnote/pkg/config"
	"github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/repository"
	"github.com/google/uuid"
)

// Summary aggregates counts and denomination sums. With an owner set, note
// figures cover that owner's holdings; transfer counts are always
// system-wide.
type Summary struct {
	NotesByStatus     map[note.Status]int64
	NotesByType       []repository.TypeAggregate
	TransfersByStatus map[note.TransferStatus]int64
}

// Service answers statistics queries. Purely derived data, no mutation.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	return &Service{uow: deps.Uow, logger: deps.Logger}
}

// Summary aggregates note and transfer figures. Pass uuid.Nil as ownerID for
// system-wide note figures.
func (s *Service) Summary(ctx context.Context, ownerID uuid.UUID) (*Summary, error) {
	var sum Summary
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		noteRepo, err := uow.NoteRepository()
		if err != nil {
			return err
		}
		if sum.NotesByStatus, err = noteRepo.CountByStatus(ownerID); err != nil {
			return err
		}
		if sum.NotesByType, err = noteRepo.SumByType(ownerID); err != nil {
			return err
		}
		transferRepo, err := uow.TransferRepository()
		if err != nil {
			return err
		}
		sum.TransfersByStatus, err = transferRepo.CountByStatus()
		return err
	})
	if err != nil {
		s.logger.Error("Summary failed", "ownerID", ownerID, "error", err)
		return nil, err
	}
	return &sum, nil
}
