// Package mocks provides hand-rolled testify mocks for the repository,
// unit-of-work and provider contracts used across service tests.
package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/cashnoteio/cashnote/pkg/domain/note"
	"github.com/cashnoteio/cashnote/pkg/domain/user"
	"github.com/cashnoteio/cashnote/pkg/provider"
	"github.com/cashnoteio/cashnote/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// TestingT is the subset of *testing.T the constructors need.
type TestingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockNoteRepository mocks repository.NoteRepository.
type MockNoteRepository struct{ mock.Mock }

// NewMockNoteRepository returns a mock whose expectations are asserted on cleanup.
func NewMockNoteRepository(t TestingT) *MockNoteRepository {
	m := &MockNoteRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockNoteRepository) Get(id uuid.UUID) (*note.CashNote, error) {
	args := m.Called(id)
	n, _ := args.Get(0).(*note.CashNote)
	return n, args.Error(1)
}

func (m *MockNoteRepository) GetByReferenceCode(code string) (*note.CashNote, error) {
	args := m.Called(code)
	n, _ := args.Get(0).(*note.CashNote)
	return n, args.Error(1)
}

func (m *MockNoteRepository) GetForUpdate(id uuid.UUID) (*note.CashNote, error) {
	args := m.Called(id)
	n, _ := args.Get(0).(*note.CashNote)
	return n, args.Error(1)
}

func (m *MockNoteRepository) Create(n *note.CashNote) error {
	return m.Called(n).Error(0)
}

func (m *MockNoteRepository) UpdateOwnership(n *note.CashNote, expectedTransferCount int) error {
	return m.Called(n, expectedTransferCount).Error(0)
}

func (m *MockNoteRepository) UpdateFlags(n *note.CashNote) error {
	return m.Called(n).Error(0)
}

func (m *MockNoteRepository) CountByStatus(ownerID uuid.UUID) (map[note.Status]int64, error) {
	args := m.Called(ownerID)
	counts, _ := args.Get(0).(map[note.Status]int64)
	return counts, args.Error(1)
}

func (m *MockNoteRepository) SumByType(ownerID uuid.UUID) ([]repository.TypeAggregate, error) {
	args := m.Called(ownerID)
	aggs, _ := args.Get(0).([]repository.TypeAggregate)
	return aggs, args.Error(1)
}

// MockTransferRepository mocks repository.TransferRepository.
type MockTransferRepository struct{ mock.Mock }

// NewMockTransferRepository returns a mock whose expectations are asserted on cleanup.
func NewMockTransferRepository(t TestingT) *MockTransferRepository {
	m := &MockTransferRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTransferRepository) Get(id uuid.UUID) (*note.CashNoteTransfer, error) {
	args := m.Called(id)
	tr, _ := args.Get(0).(*note.CashNoteTransfer)
	return tr, args.Error(1)
}

func (m *MockTransferRepository) GetByReference(ref string) (*note.CashNoteTransfer, error) {
	args := m.Called(ref)
	tr, _ := args.Get(0).(*note.CashNoteTransfer)
	return tr, args.Error(1)
}

func (m *MockTransferRepository) Create(t *note.CashNoteTransfer) error {
	return m.Called(t).Error(0)
}

func (m *MockTransferRepository) Update(t *note.CashNoteTransfer) error {
	return m.Called(t).Error(0)
}

func (m *MockTransferRepository) ListByNote(noteID uuid.UUID, limit, offset int) ([]*note.CashNoteTransfer, int64, error) {
	args := m.Called(noteID, limit, offset)
	trs, _ := args.Get(0).([]*note.CashNoteTransfer)
	total, _ := args.Get(1).(int64)
	return trs, total, args.Error(2)
}

func (m *MockTransferRepository) FailExpired(now time.Time) (int64, error) {
	args := m.Called(now)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *MockTransferRepository) CountByStatus() (map[note.TransferStatus]int64, error) {
	args := m.Called()
	counts, _ := args.Get(0).(map[note.TransferStatus]int64)
	return counts, args.Error(1)
}

// MockGrantRepository mocks repository.GrantRepository.
type MockGrantRepository struct{ mock.Mock }

// NewMockGrantRepository returns a mock whose expectations are asserted on cleanup.
func NewMockGrantRepository(t TestingT) *MockGrantRepository {
	m := &MockGrantRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockGrantRepository) Get(id uuid.UUID) (*note.ProxyGrant, error) {
	args := m.Called(id)
	g, _ := args.Get(0).(*note.ProxyGrant)
	return g, args.Error(1)
}

func (m *MockGrantRepository) Create(g *note.ProxyGrant) error {
	return m.Called(g).Error(0)
}

func (m *MockGrantRepository) GetActive(grantorID, granteeID uuid.UUID) (*note.ProxyGrant, error) {
	args := m.Called(grantorID, granteeID)
	g, _ := args.Get(0).(*note.ProxyGrant)
	return g, args.Error(1)
}

func (m *MockGrantRepository) Revoke(id uuid.UUID) error {
	return m.Called(id).Error(0)
}

// MockUserRepository mocks repository.UserRepository.
type MockUserRepository struct{ mock.Mock }

// NewMockUserRepository returns a mock whose expectations are asserted on cleanup.
func NewMockUserRepository(t TestingT) *MockUserRepository {
	m := &MockUserRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) Get(id uuid.UUID) (*user.User, error) {
	args := m.Called(id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) GetByPhone(phone string) (*user.User, error) {
	args := m.Called(phone)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Create(u *user.User) error {
	return m.Called(u).Error(0)
}

// MockUnitOfWork mocks repository.UnitOfWork. Do runs the given function
// against the mock itself, so mocked repositories stand in for the
// transactional session; set DoErr to simulate a transaction failure
// instead.
type MockUnitOfWork struct {
	mock.Mock
	DoErr error
}

// NewMockUnitOfWork returns a mock whose expectations are asserted on cleanup.
func NewMockUnitOfWork(t TestingT) *MockUnitOfWork {
	m := &MockUnitOfWork{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if m.DoErr != nil {
		return m.DoErr
	}
	return fn(m)
}

func (m *MockUnitOfWork) GetRepository(repoType reflect.Type) (any, error) {
	args := m.Called(repoType)
	return args.Get(0), args.Error(1)
}

func (m *MockUnitOfWork) NoteRepository() (repository.NoteRepository, error) {
	args := m.Called()
	r, _ := args.Get(0).(repository.NoteRepository)
	return r, args.Error(1)
}

func (m *MockUnitOfWork) TransferRepository() (repository.TransferRepository, error) {
	args := m.Called()
	r, _ := args.Get(0).(repository.TransferRepository)
	return r, args.Error(1)
}

func (m *MockUnitOfWork) GrantRepository() (repository.GrantRepository, error) {
	args := m.Called()
	r, _ := args.Get(0).(repository.GrantRepository)
	return r, args.Error(1)
}

func (m *MockUnitOfWork) UserRepository() (repository.UserRepository, error) {
	args := m.Called()
	r, _ := args.Get(0).(repository.UserRepository)
	return r, args.Error(1)
}

// MockComplianceValidator mocks provider.ComplianceValidator.
type MockComplianceValidator struct{ mock.Mock }

// NewMockComplianceValidator returns a mock whose expectations are asserted on cleanup.
func NewMockComplianceValidator(t TestingT) *MockComplianceValidator {
	m := &MockComplianceValidator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockComplianceValidator) ValidateForeignTransfer(
	ctx context.Context,
	req provider.ComplianceRequest,
) (*provider.ComplianceResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*provider.ComplianceResult)
	return res, args.Error(1)
}
