package production

import (
	"context"
	"testing"

	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newJobOrderFixture() (*JobOrderService, *MockJobOrderRepository, *MockIWORepository) {
	jobOrders := new(MockJobOrderRepository)
	iwos := new(MockIWORepository)
	scope := NewNoOpTransactionScope(jobOrders, iwos, new(MockLedgerRepository))
	return NewJobOrderService(scope, jobOrders, iwos, zap.NewNop()), jobOrders, iwos
}

func TestJobOrderService_Sync(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	t.Run("creates an unknown job order", func(t *testing.T) {
		svc, jobOrders, _ := newJobOrderFixture()
		id := uuid.New()
		jobOrders.On("FindByIDForUpdate", ctx, id).Return(nil, shared.ErrNotFound)
		jobOrders.On("Save", ctx, mock.AnythingOfType("*production.JobOrder")).Return(nil)

		resp, err := svc.Sync(ctx, SyncJobOrderRequest{
			ID:         id,
			Number:     "JO-7",
			ClientName: "Acme",
			Products: []production.JobOrderProduct{
				{ProductID: productID, VariantCode: "C1", OrderedQuantity: 12},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "JO-7", resp.Number)
		assert.Equal(t, "Acme", resp.ClientName)
		require.Len(t, resp.Products, 1)
		assert.Equal(t, int64(12), resp.Products[0].Remaining)
	})

	t.Run("refuses to shrink below allocations", func(t *testing.T) {
		svc, jobOrders, iwos := newJobOrderFixture()
		jo := testJobOrder(t, productID, 10)
		jobOrders.On("FindByIDForUpdate", ctx, jo.ID).Return(jo, nil)
		iwos.On("AllocationTotals", ctx, jo.ID).Return(map[production.ProductKey]int64{
			production.NewProductKey(productID, "C1"): 8,
		}, nil)

		_, err := svc.Sync(ctx, SyncJobOrderRequest{
			ID:       jo.ID,
			Number:   jo.Number,
			Products: []production.JobOrderProduct{{ProductID: productID, VariantCode: "C1", OrderedQuantity: 7}},
		})
		assert.True(t, shared.IsCode(err, shared.CodeQuantityExceeded))
		jobOrders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("resyncs with allocation summary", func(t *testing.T) {
		svc, jobOrders, iwos := newJobOrderFixture()
		jo := testJobOrder(t, productID, 10)
		jobOrders.On("FindByIDForUpdate", ctx, jo.ID).Return(jo, nil)
		jobOrders.On("Save", ctx, jo).Return(nil)
		iwos.On("AllocationTotals", ctx, jo.ID).Return(map[production.ProductKey]int64{
			production.NewProductKey(productID, "C1"): 8,
		}, nil)

		resp, err := svc.Sync(ctx, SyncJobOrderRequest{
			ID:       jo.ID,
			Number:   "JO-1001-R",
			Products: []production.JobOrderProduct{{ProductID: productID, VariantCode: "C1", OrderedQuantity: 20}},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(8), resp.Products[0].Allocated)
		assert.Equal(t, int64(12), resp.Products[0].Remaining)
		assert.Equal(t, 2, resp.Version)
	})
}
