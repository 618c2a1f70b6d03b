package transfer_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cashnoteio/cashnote/pkg/domain"
	"github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/domain/user"
	"github.com/cashnoteio/cashnote/pkg/service/transfer"
)

func TestGrant_Success(t *testing.T) {
	f := newFixture(t)
	grantor, grantee := uuid.New(), uuid.New()
	expiry := time.Now().Add(24 * time.Hour)

	f.userRepo.On("Get", grantee).Return(&user.User{ID: grantee}, nil)
	f.grantRepo.On("Create", mock.AnythingOfType("*note.ProxyGrant")).Return(nil)

	g, err := f.svc.Grant(context.Background(), transfer.GrantCommand{
		GrantorID:         grantor,
		GranteeID:         grantee,
		AuthorizationCode: "AUTH-123456",
		ProxyType:         note.ProxyAgent,
		CeilingAmount:     100,
		ExpiresAt:         expiry,
	})
	require.NoError(t, err)
	assert.Equal(t, grantor, g.GrantorID)
	assert.Equal(t, grantee, g.GranteeID)
	assert.Equal(t, note.ProxyAgent, g.ProxyType)
	assert.Equal(t, int64(100), g.CeilingAmount)
	assert.False(t, g.Revoked)

	// The issued grant must actually authorize the grantee.
	assert.NoError(t, g.Authorizes(grantee, "AUTH-123456", 50, time.Now()))
}

func TestGrant_SelfGrant(t *testing.T) {
	f := newFixture(t)
	grantor := uuid.New()

	_, err := f.svc.Grant(context.Background(), transfer.GrantCommand{
		GrantorID:         grantor,
		GranteeID:         grantor,
		AuthorizationCode: "AUTH-123456",
		ProxyType:         note.ProxyAgent,
		ExpiresAt:         time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGrant_UnknownProxyType(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Grant(context.Background(), transfer.GrantCommand{
		GrantorID:         uuid.New(),
		GranteeID:         uuid.New(),
		AuthorizationCode: "AUTH-123456",
		ProxyType:         note.ProxyType("courier"),
		ExpiresAt:         time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGrant_PastExpiry(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Grant(context.Background(), transfer.GrantCommand{
		GrantorID:         uuid.New(),
		GranteeID:         uuid.New(),
		AuthorizationCode: "AUTH-123456",
		ProxyType:         note.ProxyGuardian,
		ExpiresAt:         time.Now().Add(-time.Minute),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGrant_UnknownGrantee(t *testing.T) {
	f := newFixture(t)
	grantee := uuid.New()

	f.userRepo.On("Get", grantee).Return(nil, domain.ErrNotFound)

	_, err := f.svc.Grant(context.Background(), transfer.GrantCommand{
		GrantorID:         uuid.New(),
		GranteeID:         grantee,
		AuthorizationCode: "AUTH-123456",
		ProxyType:         note.ProxyMerchant,
		ExpiresAt:         time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRevokeGrant_ByGrantor(t *testing.T) {
	f := newFixture(t)
	grantor := uuid.New()
	g := note.NewProxyGrant(grantor, uuid.New(),
		"AUTH-123456", note.ProxyAgent, 0, time.Now().Add(time.Hour))

	f.grantRepo.On("Get", g.ID).Return(g, nil)
	f.grantRepo.On("Revoke", g.ID).Return(nil)

	require.NoError(t, f.svc.RevokeGrant(context.Background(), g.ID, grantor))
}

func TestRevokeGrant_ForbiddenForStranger(t *testing.T) {
	f := newFixture(t)
	g := note.NewProxyGrant(uuid.New(), uuid.New(),
		"AUTH-123456", note.ProxyAgent, 0, time.Now().Add(time.Hour))

	f.grantRepo.On("Get", g.ID).Return(g, nil)

	err := f.svc.RevokeGrant(context.Background(), g.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.grantRepo.AssertNotCalled(t, "Revoke", g.ID)
}

func TestRevokeGrant_NotFound(t *testing.T) {
	f := newFixture(t)
	grantID := uuid.New()

	f.grantRepo.On("Get", grantID).Return(nil, domain.ErrNotFound)

	err := f.svc.RevokeGrant(context.Background(), grantID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
