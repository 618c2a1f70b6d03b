package repository

import (
	"context"
	"reflect"
)

// UnitOfWork defines the contract for transactional work and type-safe
// repository access.
//
// Repository access hangs off the UnitOfWork so that every repository used
// inside Do shares the same DB session: the note's row lock, the transfer
// insert and the ownership update must all commit or roll back together.
type UnitOfWork interface {
	// Do executes the given function within a transaction boundary.
	// The provided function receives a UnitOfWork for repository access.
	// If the function returns an error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested type, bound to the
	// current transaction/session.
	// Example:
	//   repoAny, err := uow.GetRepository(reflect.TypeOf((*NoteRepository)(nil)).Elem())
	//   repo := repoAny.(NoteRepository)
	GetRepository(repoType reflect.Type) (any, error)

	// Type-safe repository access methods (convenience methods)
	NoteRepository() (NoteRepository, error)
	TransferRepository() (TransferRepository, error)
	GrantRepository() (GrantRepository, error)
	UserRepository() (UserRepository, error)
}
