package production

import (
	"context"

	"github.com/erp/production/internal/domain/production"
)

// TransactionScope provides transactional access to production repositories.
// All repository operations inside Execute commit or roll back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to production repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	// JobOrderRepo returns the job order repository scoped to the current transaction
	JobOrderRepo() production.JobOrderRepository
	// IWORepo returns the internal work order repository scoped to the current transaction
	IWORepo() production.IWORepository
	// LedgerRepo returns the process ledger repository scoped to the current transaction
	LedgerRepo() production.LedgerRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	jobOrderRepo production.JobOrderRepository
	iwoRepo      production.IWORepository
	ledgerRepo   production.LedgerRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	jobOrderRepo production.JobOrderRepository,
	iwoRepo production.IWORepository,
	ledgerRepo production.LedgerRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		jobOrderRepo: jobOrderRepo,
		iwoRepo:      iwoRepo,
		ledgerRepo:   ledgerRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// JobOrderRepo returns the job order repository.
func (s *NoOpTransactionScope) JobOrderRepo() production.JobOrderRepository {
	return s.jobOrderRepo
}

// IWORepo returns the internal work order repository.
func (s *NoOpTransactionScope) IWORepo() production.IWORepository {
	return s.iwoRepo
}

// LedgerRepo returns the process ledger repository.
func (s *NoOpTransactionScope) LedgerRepo() production.LedgerRepository {
	return s.ledgerRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
