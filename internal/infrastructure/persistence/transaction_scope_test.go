package persistence

import (
	"context"
	"errors"
	"testing"

	appdispatch "github.com/erp/production/internal/application/dispatch"
	apppacking "github.com/erp/production/internal/application/packing"
	appproduction "github.com/erp/production/internal/application/production"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionTransactionScope(t *testing.T) {
	db := setupTestDB(t)
	scope := NewProductionTransactionScope(db)
	ctx := context.Background()
	jo := testJobOrder(t, 50)
	require.NoError(t, NewGormJobOrderRepository(db).Save(ctx, jo))

	t.Run("commits work order and ledger together", func(t *testing.T) {
		iwo := testIWO(t, jo, 10, "S1", "cutting", "glazing")
		err := scope.Execute(ctx, func(repos appproduction.TransactionalRepositories) error {
			if _, err := repos.JobOrderRepo().FindByIDForUpdate(ctx, jo.ID); err != nil {
				return err
			}
			if err := repos.IWORepo().Save(ctx, iwo); err != nil {
				return err
			}
			return repos.LedgerRepo().CreateBatch(ctx, production.BuildLedger(iwo, production.GatingStrict))
		})
		require.NoError(t, err)

		records, err := NewGormLedgerRepository(db).FindByIWO(ctx, iwo.ID)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		iwo := testIWO(t, jo, 10, "S2", "cutting")
		boom := errors.New("ledger write failed")
		err := scope.Execute(ctx, func(repos appproduction.TransactionalRepositories) error {
			if err := repos.IWORepo().Save(ctx, iwo); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = NewGormIWORepository(db).FindByID(ctx, iwo.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		sum, err := NewGormIWORepository(db).SumAllocated(ctx, jo.ID, jo.Products[0].Key(), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(10), sum)
	})
}

func TestPackingAndDispatchTransactionScopes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	bundle := sealedBundle(t, testJobOrder(t, 5).Products[0].ProductID, "S1", "QR-TX-1", 2)

	err := NewPackingTransactionScope(db).Execute(ctx, func(repos apppacking.TransactionalRepositories) error {
		return repos.BundleRepo().Save(ctx, bundle)
	})
	require.NoError(t, err)

	boom := errors.New("numbering failed")
	err = NewDispatchTransactionScope(db).Execute(ctx, func(repos appdispatch.TransactionalRepositories) error {
		bundles, err := repos.BundleRepo().FindByQRIDsForUpdate(ctx, []string{"QR-TX-1"})
		if err != nil {
			return err
		}
		for _, b := range bundles {
			if err := b.MarkDispatched("dispatcher"); err != nil {
				return err
			}
			if err := repos.BundleRepo().Update(ctx, b); err != nil {
				return err
			}
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := NewGormBundleRepository(db).FindByQRID(ctx, "QR-TX-1")
	require.NoError(t, err)
	assert.True(t, found.IsSealed())
	assert.Equal(t, "Packed", string(found.DeliveryStage))
}
