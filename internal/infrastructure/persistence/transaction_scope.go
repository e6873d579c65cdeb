package persistence

import (
	"context"

	appdispatch "github.com/erp/production/internal/application/dispatch"
	apppacking "github.com/erp/production/internal/application/packing"
	appproduction "github.com/erp/production/internal/application/production"
	"github.com/erp/production/internal/domain/dispatch"
	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/production"
	"gorm.io/gorm"
)

// gormTransactionalRepositories provides access to all repositories within a transaction.
// It serves the transactional repository sets of every pipeline stage.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// JobOrderRepo returns the job order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) JobOrderRepo() production.JobOrderRepository {
	return NewGormJobOrderRepository(r.tx)
}

// IWORepo returns the internal work order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) IWORepo() production.IWORepository {
	return NewGormIWORepository(r.tx)
}

// LedgerRepo returns the process ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LedgerRepo() production.LedgerRepository {
	return NewGormLedgerRepository(r.tx)
}

// BundleRepo returns the packing bundle repository scoped to the current transaction.
func (r *gormTransactionalRepositories) BundleRepo() packing.BundleRepository {
	return NewGormBundleRepository(r.tx)
}

// DispatchRepo returns the dispatch repository scoped to the current transaction.
func (r *gormTransactionalRepositories) DispatchRepo() dispatch.Repository {
	return NewGormDispatchRepository(r.tx)
}

func runInTransaction(ctx context.Context, db *gorm.DB, fn func(repos *gormTransactionalRepositories) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// ProductionTransactionScope implements the allocation and ledger TransactionScope using GORM transactions.
type ProductionTransactionScope struct {
	db *gorm.DB
}

// NewProductionTransactionScope creates a new ProductionTransactionScope.
func NewProductionTransactionScope(db *gorm.DB) *ProductionTransactionScope {
	return &ProductionTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *ProductionTransactionScope) Execute(ctx context.Context, fn func(repos appproduction.TransactionalRepositories) error) error {
	return runInTransaction(ctx, s.db, func(repos *gormTransactionalRepositories) error {
		return fn(repos)
	})
}

// PackingTransactionScope implements the packing TransactionScope using GORM transactions.
type PackingTransactionScope struct {
	db *gorm.DB
}

// NewPackingTransactionScope creates a new PackingTransactionScope.
func NewPackingTransactionScope(db *gorm.DB) *PackingTransactionScope {
	return &PackingTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *PackingTransactionScope) Execute(ctx context.Context, fn func(repos apppacking.TransactionalRepositories) error) error {
	return runInTransaction(ctx, s.db, func(repos *gormTransactionalRepositories) error {
		return fn(repos)
	})
}

// DispatchTransactionScope implements the dispatch TransactionScope using GORM transactions.
type DispatchTransactionScope struct {
	db *gorm.DB
}

// NewDispatchTransactionScope creates a new DispatchTransactionScope.
func NewDispatchTransactionScope(db *gorm.DB) *DispatchTransactionScope {
	return &DispatchTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *DispatchTransactionScope) Execute(ctx context.Context, fn func(repos appdispatch.TransactionalRepositories) error) error {
	return runInTransaction(ctx, s.db, func(repos *gormTransactionalRepositories) error {
		return fn(repos)
	})
}

// Ensure the scopes implement their TransactionScope interfaces
var (
	_ appproduction.TransactionScope = (*ProductionTransactionScope)(nil)
	_ apppacking.TransactionScope    = (*PackingTransactionScope)(nil)
	_ appdispatch.TransactionScope   = (*DispatchTransactionScope)(nil)
)

// Ensure gormTransactionalRepositories implements every TransactionalRepositories
var (
	_ appproduction.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ apppacking.TransactionalRepositories    = (*gormTransactionalRepositories)(nil)
	_ appdispatch.TransactionalRepositories   = (*gormTransactionalRepositories)(nil)
)
