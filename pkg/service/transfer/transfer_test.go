package transfer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	infraeventbus "github.com/cashnoteio/cashnote/infra/eventbus"
	"github.com/cashnoteio/cashnote/internal/fixtures/mocks"
	"github.com/cashnoteio/cashnote/pkg/config"
	"github.com/cashnoteio/cashnote/pkg/denomination"
	"github.com/cashnoteio/cashnote/pkg/domain"
	"github.com/cashnoteio/cashnote/pkg/domain/events"
	"github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/domain/user"
	"github.com/cashnoteio/cashnote/pkg/provider"
	"github.com/cashnoteio/cashnote/pkg/refcode"
	"github.com/cashnoteio/cashnote/pkg/service/transfer"
)

type fixture struct {
	svc          *transfer.Service
	uow          *mocks.MockUnitOfWork
	noteRepo     *mocks.MockNoteRepository
	transferRepo *mocks.MockTransferRepository
	grantRepo    *mocks.MockGrantRepository
	userRepo     *mocks.MockUserRepository
	compliance   *mocks.MockComplianceValidator
	bus          *infraeventbus.MemoryEventBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		uow:          mocks.NewMockUnitOfWork(t),
		noteRepo:     mocks.NewMockNoteRepository(t),
		transferRepo: mocks.NewMockTransferRepository(t),
		grantRepo:    mocks.NewMockGrantRepository(t),
		userRepo:     mocks.NewMockUserRepository(t),
		compliance:   mocks.NewMockComplianceValidator(t),
		bus:          infraeventbus.NewWithMemory(logger),
	}
	f.svc = transfer.NewService(config.Deps{
		Uow:        f.uow,
		Compliance: f.compliance,
		EventBus:   f.bus,
		Logger:     logger,
	})
	f.uow.On("NoteRepository").Return(f.noteRepo, nil).Maybe()
	f.uow.On("TransferRepository").Return(f.transferRepo, nil).Maybe()
	f.uow.On("GrantRepository").Return(f.grantRepo, nil).Maybe()
	f.uow.On("UserRepository").Return(f.userRepo, nil).Maybe()
	return f
}

func activeNote(t *testing.T, owner uuid.UUID) *note.CashNote {
	t.Helper()
	n, err := note.New().
		WithReferenceCode(refcode.Generate()).
		WithDenomination(20).
		WithOwner(owner).
		Build()
	require.NoError(t, err)
	return n
}

func foreignNote(t *testing.T, owner uuid.UUID) *note.CashNote {
	t.Helper()
	n, err := note.New().
		WithReferenceCode(refcode.Generate()).
		WithOwner(owner).
		WithForeign(denomination.ForeignSpec{Currency: "USD", Amount: 100, ExchangeRate: 1380}).
		Build()
	require.NoError(t, err)
	return n
}

func TestTransfer_Success(t *testing.T) {
	f := newFixture(t)
	owner, recipient := uuid.New(), uuid.New()
	n := activeNote(t, owner)

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)
	f.userRepo.On("Get", recipient).Return(&user.User{ID: recipient}, nil)
	f.transferRepo.On("Create", mock.AnythingOfType("*note.CashNoteTransfer")).Return(nil)
	f.noteRepo.On("UpdateOwnership", n, 0).Return(nil)
	f.transferRepo.On("Update", mock.AnythingOfType("*note.CashNoteTransfer")).Return(nil)

	tr, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:      n.ID,
		RequesterID: owner,
		ToUserID:    recipient,
	})
	require.NoError(t, err)
	assert.Equal(t, note.TransferCompleted, tr.Status)
	assert.Equal(t, owner, tr.FromUserID)
	assert.Equal(t, recipient, tr.ToUserID)
	assert.Equal(t, int64(20), tr.Amount)
	assert.Equal(t, note.MethodDirect, tr.TransferMethod)
	assert.NotNil(t, tr.CompletedAt)

	assert.Equal(t, recipient, n.CurrentOwnerID)
	assert.Equal(t, 1, n.TransferCount)

	published := f.bus.Published()
	require.Len(t, published, 1)
	ev := published[0].(events.NoteTransferred)
	assert.Equal(t, tr.TransferReference, ev.TransferReference)
}

func TestTransfer_RecipientByPhone(t *testing.T) {
	f := newFixture(t)
	owner, recipient := uuid.New(), uuid.New()
	n := activeNote(t, owner)

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)
	f.userRepo.On("GetByPhone", "+250788123456").Return(&user.User{ID: recipient}, nil)
	f.transferRepo.On("Create", mock.Anything).Return(nil)
	f.noteRepo.On("UpdateOwnership", n, 0).Return(nil)
	f.transferRepo.On("Update", mock.Anything).Return(nil)

	tr, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:      n.ID,
		RequesterID: owner,
		ToUserPhone: "+250788123456",
		Method:      note.MethodPhone,
	})
	require.NoError(t, err)
	assert.Equal(t, recipient, tr.ToUserID)
	assert.Equal(t, note.MethodPhone, tr.TransferMethod)
}

func TestTransfer_NoteNotFound(t *testing.T) {
	f := newFixture(t)
	noteID := uuid.New()
	f.noteRepo.On("GetForUpdate", noteID).Return(nil, domain.ErrNotFound)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:      noteID,
		RequesterID: uuid.New(),
		ToUserID:    uuid.New(),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.bus.Published())
}

func TestTransfer_StolenNote(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	n := activeNote(t, owner)
	require.NoError(t, n.FlagStolen(owner, "stolen from wallet", time.Now()))

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:      n.ID,
		RequesterID: owner,
		ToUserID:    uuid.New(),
	})
	assert.ErrorIs(t, err, note.ErrNoteStolen)
}

func TestTransfer_LockedNote(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	n := activeNote(t, owner)
	n.IsLocked = true

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:      n.ID,
		RequesterID: owner,
		ToUserID:    uuid.New(),
	})
	assert.ErrorIs(t, err, note.ErrNoteLocked)
}

func TestTransfer_NotOwner(t *testing.T) {
	f := newFixture(t)
	n := activeNote(t, uuid.New())

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:      n.ID,
		RequesterID: uuid.New(),
		ToUserID:    uuid.New(),
	})
	assert.ErrorIs(t, err, note.ErrNotOwner)
}

func TestTransfer_SelfTransfer(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	n := activeNote(t, owner)

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)
	f.userRepo.On("Get", owner).Return(&user.User{ID: owner}, nil)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:      n.ID,
		RequesterID: owner,
		ToUserID:    owner,
	})
	assert.ErrorIs(t, err, note.ErrSelfTransfer)
}

func TestTransfer_RecipientMissing(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	n := activeNote(t, owner)

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:      n.ID,
		RequesterID: owner,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTransfer_ProxySuccess(t *testing.T) {
	f := newFixture(t)
	owner, agent, recipient := uuid.New(), uuid.New(), uuid.New()
	n := activeNote(t, owner)
	grant := note.NewProxyGrant(owner, agent, "AUTH-1234", note.ProxyAgent, 100, time.Now().Add(time.Hour))

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)
	f.grantRepo.On("GetActive", owner, agent).Return(grant, nil)
	f.userRepo.On("Get", recipient).Return(&user.User{ID: recipient}, nil)
	f.transferRepo.On("Create", mock.Anything).Return(nil)
	f.noteRepo.On("UpdateOwnership", n, 0).Return(nil)
	f.transferRepo.On("Update", mock.Anything).Return(nil)

	tr, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:                 n.ID,
		RequesterID:            agent,
		ToUserID:               recipient,
		IsProxyTransaction:     true,
		ProxyAuthorizationCode: "AUTH-1234",
	})
	require.NoError(t, err)
	assert.True(t, tr.IsProxyTransaction)
	assert.Equal(t, note.MethodProxy, tr.TransferMethod)
	assert.Equal(t, note.ProxyAgent, tr.ProxyType)
	assert.Equal(t, owner, tr.ProxyAuthorizedBy)
	// From is always the owner, even when an agent initiates.
	assert.Equal(t, owner, tr.FromUserID)
}

func TestTransfer_ProxyNoGrant(t *testing.T) {
	f := newFixture(t)
	owner, agent := uuid.New(), uuid.New()
	n := activeNote(t, owner)

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)
	f.grantRepo.On("GetActive", owner, agent).Return(nil, domain.ErrNotFound)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:                 n.ID,
		RequesterID:            agent,
		ToUserID:               uuid.New(),
		IsProxyTransaction:     true,
		ProxyAuthorizationCode: "AUTH-1234",
	})
	assert.ErrorIs(t, err, note.ErrProxyNotAuthorized)
}

func TestTransfer_ProxyWrongCode(t *testing.T) {
	f := newFixture(t)
	owner, agent := uuid.New(), uuid.New()
	n := activeNote(t, owner)
	grant := note.NewProxyGrant(owner, agent, "AUTH-1234", note.ProxyAgent, 0, time.Now().Add(time.Hour))

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)
	f.grantRepo.On("GetActive", owner, agent).Return(grant, nil)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:                 n.ID,
		RequesterID:            agent,
		ToUserID:               uuid.New(),
		IsProxyTransaction:     true,
		ProxyAuthorizationCode: "WRONG",
	})
	assert.ErrorIs(t, err, note.ErrProxyNotAuthorized)
}

func TestTransfer_ProxyExpiredGrant(t *testing.T) {
	f := newFixture(t)
	owner, agent := uuid.New(), uuid.New()
	n := activeNote(t, owner)
	grant := note.NewProxyGrant(owner, agent, "AUTH-1234", note.ProxyGuardian, 0, time.Now().Add(-time.Minute))

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)
	f.grantRepo.On("GetActive", owner, agent).Return(grant, nil)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:                 n.ID,
		RequesterID:            agent,
		ToUserID:               uuid.New(),
		IsProxyTransaction:     true,
		ProxyAuthorizationCode: "AUTH-1234",
	})
	assert.ErrorIs(t, err, note.ErrProxyGrantExpired)
}

func TestTransfer_ProxyCeilingExceeded(t *testing.T) {
	f := newFixture(t)
	owner, agent := uuid.New(), uuid.New()
	n := activeNote(t, owner) // denomination 20
	grant := note.NewProxyGrant(owner, agent, "AUTH-1234", note.ProxyMerchant, 10, time.Now().Add(time.Hour))

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)
	f.grantRepo.On("GetActive", owner, agent).Return(grant, nil)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:                 n.ID,
		RequesterID:            agent,
		ToUserID:               uuid.New(),
		IsProxyTransaction:     true,
		ProxyAuthorizationCode: "AUTH-1234",
	})
	assert.ErrorIs(t, err, note.ErrProxyCeilingExceeded)
}

func TestTransfer_ForeignComplianceApproved(t *testing.T) {
	f := newFixture(t)
	owner, recipient := uuid.New(), uuid.New()
	n := foreignNote(t, owner)

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)
	f.userRepo.On("Get", recipient).Return(&user.User{ID: recipient}, nil)
	f.compliance.On("ValidateForeignTransfer", mock.Anything, mock.MatchedBy(func(req provider.ComplianceRequest) bool {
		return req.NoteID == n.ID && req.ForeignCurrency == "USD" && req.Amount == 100
	})).Return(&provider.ComplianceResult{Approved: true, Reference: "CMP-42"}, nil)
	f.transferRepo.On("Create", mock.Anything).Return(nil)
	f.noteRepo.On("UpdateOwnership", n, 0).Return(nil)
	f.transferRepo.On("Update", mock.Anything).Return(nil)

	tr, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:      n.ID,
		RequesterID: owner,
		ToUserID:    recipient,
	})
	require.NoError(t, err)
	assert.True(t, tr.RequiresComplianceValidation)
	assert.True(t, tr.ComplianceValidated)
	assert.Equal(t, "CMP-42", tr.ComplianceReference)
}

func TestTransfer_ForeignComplianceRejected(t *testing.T) {
	f := newFixture(t)
	owner, recipient := uuid.New(), uuid.New()
	n := foreignNote(t, owner)

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)
	f.userRepo.On("Get", recipient).Return(&user.User{ID: recipient}, nil)
	f.compliance.On("ValidateForeignTransfer", mock.Anything, mock.Anything).
		Return(&provider.ComplianceResult{Approved: false, Reason: "sanctioned party"}, nil)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:      n.ID,
		RequesterID: owner,
		ToUserID:    recipient,
	})
	require.ErrorIs(t, err, note.ErrComplianceRejected)
	assert.Contains(t, err.Error(), "sanctioned party")

	// No state was touched: owner unchanged, no transfer row written.
	assert.Equal(t, owner, n.CurrentOwnerID)
	assert.Equal(t, 0, n.TransferCount)
	f.transferRepo.AssertNotCalled(t, "Create", mock.Anything)
	assert.Empty(t, f.bus.Published())
}

func TestTransfer_ForeignComplianceUnavailable(t *testing.T) {
	f := newFixture(t)
	owner, recipient := uuid.New(), uuid.New()
	n := foreignNote(t, owner)

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)
	f.userRepo.On("Get", recipient).Return(&user.User{ID: recipient}, nil)
	f.compliance.On("ValidateForeignTransfer", mock.Anything, mock.Anything).
		Return(nil, context.DeadlineExceeded)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:      n.ID,
		RequesterID: owner,
		ToUserID:    recipient,
	})
	assert.ErrorIs(t, err, note.ErrComplianceRejected)
	f.transferRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestTransfer_ConcurrentConflict(t *testing.T) {
	f := newFixture(t)
	owner, recipient := uuid.New(), uuid.New()
	n := activeNote(t, owner)

	f.noteRepo.On("GetForUpdate", n.ID).Return(n, nil)
	f.userRepo.On("Get", recipient).Return(&user.User{ID: recipient}, nil)
	f.transferRepo.On("Create", mock.Anything).Return(nil)
	f.noteRepo.On("UpdateOwnership", n, 0).Return(note.ErrTransferConflict)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:      n.ID,
		RequesterID: owner,
		ToUserID:    recipient,
	})
	assert.ErrorIs(t, err, note.ErrTransferConflict)
	assert.Empty(t, f.bus.Published())
}

func TestTransfer_IdempotentClientReference(t *testing.T) {
	f := newFixture(t)
	stored := &note.CashNoteTransfer{
		ID:                uuid.New(),
		TransferReference: "TR-CLIENT-1",
		Status:            note.TransferCompleted,
	}
	f.transferRepo.On("GetByReference", "TR-CLIENT-1").Return(stored, nil)

	tr, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:          uuid.New(),
		RequesterID:     uuid.New(),
		ToUserID:        uuid.New(),
		ClientReference: "TR-CLIENT-1",
	})
	require.NoError(t, err)
	assert.Equal(t, stored, tr)
	f.noteRepo.AssertNotCalled(t, "GetForUpdate", mock.Anything)
	// A replay must not re-announce the transfer.
	assert.Empty(t, f.bus.Published())
}

func TestTransfer_ClientReferenceStillPending(t *testing.T) {
	f := newFixture(t)
	f.transferRepo.On("GetByReference", "TR-CLIENT-2").Return(&note.CashNoteTransfer{
		Status: note.TransferPending,
	}, nil)

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:          uuid.New(),
		RequesterID:     uuid.New(),
		ToUserID:        uuid.New(),
		ClientReference: "TR-CLIENT-2",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestTransfer_TransactionFailure(t *testing.T) {
	f := newFixture(t)
	f.uow.DoErr = errors.New("connection reset")

	_, err := f.svc.Transfer(context.Background(), transfer.Command{
		NoteID:      uuid.New(),
		RequesterID: uuid.New(),
		ToUserID:    uuid.New(),
	})
	assert.Error(t, err)
}

func TestHistory_Paginates(t *testing.T) {
	f := newFixture(t)
	noteID := uuid.New()
	rows := []*note.CashNoteTransfer{{ID: uuid.New()}, {ID: uuid.New()}}

	f.noteRepo.On("Get", noteID).Return(&note.CashNote{ID: noteID}, nil)
	f.transferRepo.On("ListByNote", noteID, 10, 10).Return(rows, int64(12), nil)

	transfers, total, err := f.svc.History(context.Background(), noteID, 2, 10)
	require.NoError(t, err)
	assert.Len(t, transfers, 2)
	assert.Equal(t, int64(12), total)
}

func TestHistory_DefaultsAndCaps(t *testing.T) {
	f := newFixture(t)
	noteID := uuid.New()

	f.noteRepo.On("Get", noteID).Return(&note.CashNote{ID: noteID}, nil)
	f.transferRepo.On("ListByNote", noteID, 20, 0).Return(nil, int64(0), nil).Once()
	f.transferRepo.On("ListByNote", noteID, 100, 0).Return(nil, int64(0), nil).Once()

	_, _, err := f.svc.History(context.Background(), noteID, 0, 0)
	require.NoError(t, err)
	_, _, err = f.svc.History(context.Background(), noteID, 1, 500)
	require.NoError(t, err)
}

func TestHistory_NoteNotFound(t *testing.T) {
	f := newFixture(t)
	noteID := uuid.New()
	f.noteRepo.On("Get", noteID).Return(nil, domain.ErrNotFound)

	_, _, err := f.svc.History(context.Background(), noteID, 1, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSweeper_FailsExpired(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uow := mocks.NewMockUnitOfWork(t)
	transferRepo := mocks.NewMockTransferRepository(t)
	uow.On("TransferRepository").Return(transferRepo, nil)
	transferRepo.On("FailExpired", mock.AnythingOfType("time.Time")).Return(int64(3), nil)

	s := transfer.NewSweeper(uow, logger, time.Minute)
	swept, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), swept)
}

func TestSweeper_StartStop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uow := mocks.NewMockUnitOfWork(t)

	s := transfer.NewSweeper(uow, logger, time.Hour)
	s.Start(context.Background())
	s.Stop()
}
