package dispatch

import (
	"context"

	"github.com/erp/production/internal/domain/dispatch"
	"github.com/erp/production/internal/domain/packing"
)

// TransactionScope provides transactional access to dispatch repositories.
// All repository operations inside Execute commit or roll back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to dispatch repositories within a transaction.
type TransactionalRepositories interface {
	// BundleRepo returns the bundle repository scoped to the current transaction
	BundleRepo() packing.BundleRepository
	// DispatchRepo returns the dispatch repository scoped to the current transaction
	DispatchRepo() dispatch.Repository
}

// NoOpTransactionScope runs functions against plain repositories without a transaction.
type NoOpTransactionScope struct {
	bundleRepo   packing.BundleRepository
	dispatchRepo dispatch.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(bundleRepo packing.BundleRepository, dispatchRepo dispatch.Repository) *NoOpTransactionScope {
	return &NoOpTransactionScope{bundleRepo: bundleRepo, dispatchRepo: dispatchRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BundleRepo returns the bundle repository.
func (s *NoOpTransactionScope) BundleRepo() packing.BundleRepository {
	return s.bundleRepo
}

// DispatchRepo returns the dispatch repository.
func (s *NoOpTransactionScope) DispatchRepo() dispatch.Repository {
	return s.dispatchRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
