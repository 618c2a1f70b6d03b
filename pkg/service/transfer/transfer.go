// Package transfer implements the ownership transfer engine: the only code
// path allowed to move a note's current owner. Every transfer runs as one
// database transaction around a row-locked note read, so two concurrent
// attempts on the same note serialize and exactly one commits.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cashnoteio/cashnote/pkg/config"
	"github.com/cashnoteio/cashnote/pkg/domain"
	"github.com/cashnoteio/cashnote/pkg/domain/events"
	"github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/eventbus"
	"github.com/cashnoteio/cashnote/pkg/provider"
	"github.com/cashnoteio/cashnote/pkg/repository"
	"github.com/google/uuid"
)

// Command describes one transfer request. The recipient is addressed by ID or
// by phone; exactly one must be set. ClientReference is an optional
// caller-chosen transfer reference: retrying with the same reference returns
// the already-committed result instead of moving the note twice.
type Command struct {
	NoteID      uuid.UUID
	RequesterID uuid.UUID

	ToUserID    uuid.UUID
	ToUserPhone string

	Method note.TransferMethod
	Notes  string

	IsProxyTransaction     bool
	ProxyAuthorizationCode string

	ClientReference string
}

// Service executes ownership transfers and serves transfer history.
type Service struct {
	uow        repository.UnitOfWork
	compliance provider.ComplianceValidator
	eventBus   eventbus.Bus
	logger     *slog.Logger
	timeout    time.Duration
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	timeout := 5 * time.Second
	if deps.Config != nil && deps.Config.Compliance.HTTPTimeout > 0 {
		timeout = deps.Config.Compliance.HTTPTimeout
	}
	return &Service{
		uow:        deps.Uow,
		compliance: deps.Compliance,
		eventBus:   deps.EventBus,
		logger:     deps.Logger,
		timeout:    timeout,
	}
}

// Transfer moves ownership of a note to the resolved recipient.
//
// Inside one transaction it loads the note with a row lock, gates on note
// state, checks the requester's authority (owner, or a stored unexpired proxy
// grant), resolves the recipient, consults the compliance validator for
// foreign notes, then commits the owner swap and the completed transfer row
// together. The owner update carries an optimistic transfer_count guard on
// top of the row lock, so a lost race surfaces as note.ErrTransferConflict
// rather than a silent overwrite. Compliance failures abort before any write.
func (s *Service) Transfer(ctx context.Context, cmd Command) (tr *note.CashNoteTransfer, err error) {
	logger := s.logger.With("noteID", cmd.NoteID, "requesterID", cmd.RequesterID)

	var replayed bool
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		noteRepo, err := uow.NoteRepository()
		if err != nil {
			return err
		}
		transferRepo, err := uow.TransferRepository()
		if err != nil {
			return err
		}

		if cmd.ClientReference != "" {
			existing, err := transferRepo.GetByReference(cmd.ClientReference)
			switch {
			case err == nil && existing.Status == note.TransferCompleted:
				tr = existing
				replayed = true
				return nil
			case err == nil:
				return fmt.Errorf("transfer reference %s already in use: %w",
					cmd.ClientReference, domain.ErrAlreadyExists)
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
		}

		n, err := noteRepo.GetForUpdate(cmd.NoteID)
		if err != nil {
			return err
		}
		if err = n.ValidateTransferable(); err != nil {
			return err
		}

		var grant *note.ProxyGrant
		if !n.IsOwnedBy(cmd.RequesterID) {
			grant, err = s.authorizeProxy(uow, n, cmd)
			if err != nil {
				return err
			}
		}

		recipient, err := s.resolveRecipient(uow, cmd)
		if err != nil {
			return err
		}
		if err = n.ValidateTransfer(recipient); err != nil {
			return err
		}

		now := time.Now()
		t := note.NewTransfer(n, n.CurrentOwnerID, recipient, s.method(cmd, grant), now)
		t.Notes = cmd.Notes
		if cmd.ClientReference != "" {
			t.TransferReference = cmd.ClientReference
		}
		if grant != nil {
			t.IsProxyTransaction = true
			t.ProxyType = grant.ProxyType
			t.ProxyAuthorizedBy = grant.GrantorID
			t.ProxyAuthorizationCode = grant.AuthorizationCode
			t.ProxyAuthorizationExpiresAt = &grant.ExpiresAt
		}

		if n.IsForeign {
			// Runs inside the transaction so a rejection leaves no partial
			// write. The note row lock is held for at most s.timeout while
			// the validator responds.
			if err = s.validateCompliance(ctx, n, t); err != nil {
				return err
			}
		}

		if err = transferRepo.Create(t); err != nil {
			return err
		}

		expected := n.TransferCount
		n.ApplyTransfer(recipient, now)
		if err = t.Complete(now); err != nil {
			return err
		}
		if err = noteRepo.UpdateOwnership(n, expected); err != nil {
			return err
		}
		if err = transferRepo.Update(t); err != nil {
			return err
		}
		tr = t
		return nil
	})
	if err != nil {
		logger.Error("Transfer failed", "error", err)
		return nil, err
	}
	if replayed {
		// The note did not move; nothing new to announce.
		logger.Info("transfer replayed", "transferReference", tr.TransferReference)
		return tr, nil
	}

	s.emit(ctx, events.NoteTransferred{
		NoteID:            tr.CashNoteID,
		TransferID:        tr.ID,
		TransferReference: tr.TransferReference,
		FromUserID:        tr.FromUserID,
		ToUserID:          tr.ToUserID,
		Amount:            tr.Amount,
		Proxy:             tr.IsProxyTransaction,
		At:                time.Now(),
	})
	logger.Info("note transferred",
		"transferReference", tr.TransferReference, "toUserID", tr.ToUserID)
	return tr, nil
}

// History returns one page of the note's transfer attempts, newest first,
// with the total attempt count. Page numbering starts at 1.
func (s *Service) History(
	ctx context.Context,
	noteID uuid.UUID,
	page, limit int,
) (transfers []*note.CashNoteTransfer, total int64, err error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		noteRepo, err := uow.NoteRepository()
		if err != nil {
			return err
		}
		if _, err = noteRepo.Get(noteID); err != nil {
			return err
		}
		transferRepo, err := uow.TransferRepository()
		if err != nil {
			return err
		}
		transfers, total, err = transferRepo.ListByNote(noteID, limit, (page-1)*limit)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return transfers, total, nil
}

// authorizeProxy validates a delegated transfer against the stored grant for
// (owner → requester). The request's authorization code is checked against
// the persisted one; request parameters alone never authorize anything.
func (s *Service) authorizeProxy(
	uow repository.UnitOfWork,
	n *note.CashNote,
	cmd Command,
) (*note.ProxyGrant, error) {
	if !cmd.IsProxyTransaction {
		return nil, note.ErrNotOwner
	}
	grantRepo, err := uow.GrantRepository()
	if err != nil {
		return nil, err
	}
	grant, err := grantRepo.GetActive(n.CurrentOwnerID, cmd.RequesterID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, note.ErrProxyNotAuthorized
	}
	if err != nil {
		return nil, err
	}
	if err = grant.Authorizes(cmd.RequesterID, cmd.ProxyAuthorizationCode, n.Denomination, time.Now()); err != nil {
		return nil, err
	}
	return grant, nil
}

// resolveRecipient resolves the transfer recipient by ID or phone.
func (s *Service) resolveRecipient(uow repository.UnitOfWork, cmd Command) (uuid.UUID, error) {
	userRepo, err := uow.UserRepository()
	if err != nil {
		return uuid.Nil, err
	}
	switch {
	case cmd.ToUserID != uuid.Nil:
		u, err := userRepo.Get(cmd.ToUserID)
		if err != nil {
			return uuid.Nil, err
		}
		return u.ID, nil
	case cmd.ToUserPhone != "":
		u, err := userRepo.GetByPhone(cmd.ToUserPhone)
		if err != nil {
			return uuid.Nil, err
		}
		return u.ID, nil
	default:
		return uuid.Nil, fmt.Errorf("recipient id or phone required: %w", domain.ErrValidation)
	}
}

// validateCompliance consults the external validator for a foreign note. The
// call is bounded by the configured timeout; any failure, timeout or
// rejection aborts the transfer before a single row has been written.
func (s *Service) validateCompliance(ctx context.Context, n *note.CashNote, t *note.CashNoteTransfer) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.compliance.ValidateForeignTransfer(cctx, provider.ComplianceRequest{
		FromUserID:      t.FromUserID,
		ToUserID:        t.ToUserID,
		NoteID:          n.ID,
		ReferenceCode:   n.ReferenceCode,
		ForeignCurrency: n.ForeignCurrency,
		Amount:          n.Denomination,
		ExchangeRate:    n.ExchangeRate,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", note.ErrComplianceRejected, err)
	}
	if !result.Approved {
		return fmt.Errorf("%w: %s", note.ErrComplianceRejected, result.Reason)
	}
	t.ComplianceValidated = true
	t.ComplianceReference = result.Reference
	return nil
}

func (s *Service) method(cmd Command, grant *note.ProxyGrant) note.TransferMethod {
	if grant != nil {
		return note.MethodProxy
	}
	if cmd.Method == "" {
		return note.MethodDirect
	}
	return cmd.Method
}

// emit publishes best-effort; audit failures never fail a committed transfer.
func (s *Service) emit(ctx context.Context, e events.Event) {
	if err := s.eventBus.Emit(ctx, e); err != nil {
		s.logger.Warn("event emission failed", "eventType", e.Type(), "error", err)
	}
}
