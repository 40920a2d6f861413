package persistence

import (
	"context"

	appregistry "github.com/attornatus/backend/internal/application/registry"
	"github.com/attornatus/backend/internal/domain/registry"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn inside one database transaction. An error from fn, or a
// panic, rolls everything back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appregistry.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories hands out repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// PersonRepo returns the person repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PersonRepo() registry.PersonRepository {
	return NewGormPersonRepository(r.tx)
}

// AddressRepo returns the address repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AddressRepo() registry.AddressRepository {
	return NewGormAddressRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appregistry.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appregistry.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
