package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/cashnoteio/cashnote/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
//
// Repository access hangs off the UoW so every repository in a Do block uses
// the same DB session: the note's row lock, the transfer insert and the
// ownership update commit or roll back together.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			reflect.TypeOf((*repository.NoteRepository)(nil)).Elem():     func(db *gorm.DB) any { return NewNoteRepository(db) },
			reflect.TypeOf((*repository.TransferRepository)(nil)).Elem(): func(db *gorm.DB) any { return NewTransferRepository(db) },
			reflect.TypeOf((*repository.GrantRepository)(nil)).Elem():    func(db *gorm.DB) any { return NewGrantRepository(db) },
			reflect.TypeOf((*repository.UserRepository)(nil)).Elem():     func(db *gorm.DB) any { return NewUserRepository(db) },
		},
	}
}

// Do runs the given function in a transaction boundary, providing a UoW with
// repository access.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
}

// GetRepository provides generic, type-safe access to repositories using the
// transaction session.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

// NoteRepository implements repository.UnitOfWork.
func (u *UoW) NoteRepository() (repository.NoteRepository, error) {
	r, err := u.GetRepository(reflect.TypeOf((*repository.NoteRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return r.(repository.NoteRepository), nil
}

// TransferRepository implements repository.UnitOfWork.
func (u *UoW) TransferRepository() (repository.TransferRepository, error) {
	r, err := u.GetRepository(reflect.TypeOf((*repository.TransferRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return r.(repository.TransferRepository), nil
}

// GrantRepository implements repository.UnitOfWork.
func (u *UoW) GrantRepository() (repository.GrantRepository, error) {
	r, err := u.GetRepository(reflect.TypeOf((*repository.GrantRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return r.(repository.GrantRepository), nil
}

// UserRepository implements repository.UnitOfWork.
func (u *UoW) UserRepository() (repository.UserRepository, error) {
	r, err := u.GetRepository(reflect.TypeOf((*repository.UserRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return r.(repository.UserRepository), nil
}

// session returns the transaction when inside Do, the base session otherwise.
func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

var _ repository.UnitOfWork = (*UoW)(nil)
