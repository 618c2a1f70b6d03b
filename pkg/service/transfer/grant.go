package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/cashnoteio/cashnote/pkg/domain"
	"github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/repository"
	"github.com/google/uuid"
)

// GrantCommand describes a proxy grant issuance: the grantor delegates
// transfer authority over their notes to the grantee, bound by the
// authorization code, an optional ceiling amount and an expiry.
type GrantCommand struct {
	GrantorID         uuid.UUID
	GranteeID         uuid.UUID
	AuthorizationCode string
	ProxyType         note.ProxyType
	CeilingAmount     int64
	ExpiresAt         time.Time
}

// Grant issues a proxy grant from the requester to the grantee. The grantee
// must exist; a grant to oneself or with a past expiry is rejected.
func (s *Service) Grant(ctx context.Context, cmd GrantCommand) (g *note.ProxyGrant, err error) {
	if cmd.GrantorID == cmd.GranteeID {
		return nil, fmt.Errorf("cannot grant proxy authority to oneself: %w", domain.ErrValidation)
	}
	if cmd.AuthorizationCode == "" {
		return nil, fmt.Errorf("authorization code required: %w", domain.ErrValidation)
	}
	switch cmd.ProxyType {
	case note.ProxyGuardian, note.ProxyAgent, note.ProxyMerchant:
	default:
		return nil, fmt.Errorf("unknown proxy type %q: %w", cmd.ProxyType, domain.ErrValidation)
	}
	if !cmd.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf("grant expiry must be in the future: %w", domain.ErrValidation)
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		userRepo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		if _, err = userRepo.Get(cmd.GranteeID); err != nil {
			return err
		}
		grantRepo, err := uow.GrantRepository()
		if err != nil {
			return err
		}
		g = note.NewProxyGrant(cmd.GrantorID, cmd.GranteeID,
			cmd.AuthorizationCode, cmd.ProxyType, cmd.CeilingAmount, cmd.ExpiresAt)
		return grantRepo.Create(g)
	})
	if err != nil {
		s.logger.Error("Grant failed",
			"grantorID", cmd.GrantorID, "granteeID", cmd.GranteeID, "error", err)
		return nil, err
	}
	s.logger.Info("proxy grant issued",
		"grantID", g.ID, "grantorID", g.GrantorID, "granteeID", g.GranteeID,
		"proxyType", g.ProxyType, "expiresAt", g.ExpiresAt)
	return g, nil
}

// RevokeGrant revokes a proxy grant. Only the grantor may revoke it.
func (s *Service) RevokeGrant(ctx context.Context, grantID, requesterID uuid.UUID) error {
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		grantRepo, err := uow.GrantRepository()
		if err != nil {
			return err
		}
		g, err := grantRepo.Get(grantID)
		if err != nil {
			return err
		}
		if g.GrantorID != requesterID {
			return fmt.Errorf("only the grantor may revoke a grant: %w", domain.ErrForbidden)
		}
		return grantRepo.Revoke(grantID)
	})
	if err != nil {
		s.logger.Error("RevokeGrant failed", "grantID", grantID, "error", err)
		return err
	}
	s.logger.Info("proxy grant revoked", "grantID", grantID, "revokedBy", requesterID)
	return nil
}
