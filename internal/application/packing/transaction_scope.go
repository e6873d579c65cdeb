package packing

import (
	"context"

	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/production"
)

// TransactionScope provides transactional access to packing repositories.
// All repository operations inside Execute commit or roll back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to packing repositories within a transaction.
type TransactionalRepositories interface {
	// BundleRepo returns the bundle repository scoped to the current transaction
	BundleRepo() packing.BundleRepository
	// LedgerRepo returns the process ledger repository scoped to the current transaction
	LedgerRepo() production.LedgerRepository
	// JobOrderRepo returns the job order repository scoped to the current transaction
	JobOrderRepo() production.JobOrderRepository
}

// NoOpTransactionScope runs functions against plain repositories without a transaction.
type NoOpTransactionScope struct {
	bundleRepo   packing.BundleRepository
	ledgerRepo   production.LedgerRepository
	jobOrderRepo production.JobOrderRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	bundleRepo packing.BundleRepository,
	ledgerRepo production.LedgerRepository,
	jobOrderRepo production.JobOrderRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		bundleRepo:   bundleRepo,
		ledgerRepo:   ledgerRepo,
		jobOrderRepo: jobOrderRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BundleRepo returns the bundle repository.
func (s *NoOpTransactionScope) BundleRepo() packing.BundleRepository {
	return s.bundleRepo
}

// LedgerRepo returns the process ledger repository.
func (s *NoOpTransactionScope) LedgerRepo() production.LedgerRepository {
	return s.ledgerRepo
}

// JobOrderRepo returns the job order repository.
func (s *NoOpTransactionScope) JobOrderRepo() production.JobOrderRepository {
	return s.jobOrderRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
