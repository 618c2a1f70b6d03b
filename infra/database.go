// Package infra wires the relational store for the note ledger.
package infra

import (
	"fmt"

	"github.com/cashnoteio/cashnote/infra/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewDBConnection opens a Postgres connection. TranslateError is enabled so
// unique-constraint violations surface as gorm.ErrDuplicatedKey and map
// cleanly onto the domain error taxonomy.
func NewDBConnection(url string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the ledger tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&repository.User{},
		&repository.CashNote{},
		&repository.CashNoteTransfer{},
		&repository.ProxyGrant{},
	)
}
