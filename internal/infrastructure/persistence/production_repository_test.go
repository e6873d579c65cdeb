package persistence

import (
	"context"
	"testing"

	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormJobOrderRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormJobOrderRepository(db)
	ctx := context.Background()

	jo := testJobOrder(t, 100)
	require.NoError(t, repo.Save(ctx, jo))

	t.Run("finds saved job order", func(t *testing.T) {
		found, err := repo.FindByIDForUpdate(ctx, jo.ID)
		require.NoError(t, err)
		assert.Equal(t, "JO-1001", found.Number)
		require.Len(t, found.Products, 1)
		assert.Equal(t, int64(100), found.Products[0].OrderedQuantity)
		assert.Equal(t, "1200x900", found.Products[0].Dimensions)
	})

	t.Run("save overwrites on resync", func(t *testing.T) {
		products := append([]production.JobOrderProduct(nil), jo.Products...)
		products[0].OrderedQuantity = 150
		require.NoError(t, jo.Resync("JO-1001-R", products, nil))
		require.NoError(t, repo.Save(ctx, jo))

		found, err := repo.FindByID(ctx, jo.ID)
		require.NoError(t, err)
		assert.Equal(t, "JO-1001-R", found.Number)
		assert.Equal(t, int64(150), found.Products[0].OrderedQuantity)
		assert.Equal(t, jo.Version, found.Version)
	})

	t.Run("returns not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormIWORepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormIWORepository(db)
	ctx := context.Background()

	jo := testJobOrder(t, 100)
	key := jo.Products[0].Key()

	first := testIWO(t, jo, 60, "S1", "cutting", "glazing")
	first.Products[0].SemiFinishedItems[0].Document = &document.Ref{Locator: "https://docs/iwo/drawing.pdf", FileName: "drawing.pdf"}
	second := testIWO(t, jo, 30, "S2", "cutting")
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	t.Run("round trips the product tree", func(t *testing.T) {
		found, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		require.Len(t, found.Products, 1)
		item := found.Products[0].SemiFinishedItems[0]
		assert.Equal(t, "S1", item.ID)
		assert.Equal(t, []string{"cutting", "glazing"}, item.StepNames())
		require.NotNil(t, item.Document)
		assert.Equal(t, "drawing.pdf", item.Document.FileName)
		assert.Equal(t, "planner", found.CreatedBy)
		assert.True(t, found.DateFrom.Equal(testFrom))
	})

	t.Run("sums allocations with and without exclusion", func(t *testing.T) {
		sum, err := repo.SumAllocated(ctx, jo.ID, key, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(90), sum)

		sum, err = repo.SumAllocated(ctx, jo.ID, key, &first.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(30), sum)

		sum, err = repo.SumAllocated(ctx, uuid.New(), key, nil)
		require.NoError(t, err)
		assert.Zero(t, sum)
	})

	t.Run("update replaces allocation rows", func(t *testing.T) {
		products := append([]production.IWOProduct(nil), first.Products...)
		products[0].Quantity = 40
		require.NoError(t, first.Revise(testFrom, testTo, products, production.DefaultProcessGraph(), "lead"))
		require.NoError(t, repo.Update(ctx, first))

		totals, err := repo.AllocationTotals(ctx, jo.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(70), totals[key])

		found, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.Version)
		assert.Equal(t, "lead", found.UpdatedBy)
	})

	t.Run("lists by job order with paging", func(t *testing.T) {
		other := testJobOrder(t, 10)
		require.NoError(t, repo.Save(ctx, testIWO(t, other, 5, "S9", "cutting")))

		filter := production.IWOFilter{Filter: shared.Filter{Page: 1, PageSize: 1, OrderBy: "created_at", OrderDir: "asc"}, JobOrderID: &jo.ID}
		items, total, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, items, 1)
	})

	t.Run("finds by ids skipping unknown", func(t *testing.T) {
		items, err := repo.FindByIDs(ctx, []uuid.UUID{first.ID, uuid.New()})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, first.ID, items[0].ID)
	})

	t.Run("delete removes allocation rows", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, second.ID))

		sum, err := repo.SumAllocated(ctx, jo.ID, key, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(40), sum)

		assert.ErrorIs(t, repo.Delete(ctx, second.ID), shared.ErrNotFound)
	})
}

func TestGormLedgerRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormLedgerRepository(db)
	ctx := context.Background()

	jo := testJobOrder(t, 100)
	iwo := testIWO(t, jo, 20, "S1", "cutting", "machining", "glazing")
	records := production.BuildLedger(iwo, production.GatingStrict)
	require.NoError(t, repo.CreateBatch(ctx, records))

	t.Run("chain is returned in step order", func(t *testing.T) {
		chain, err := repo.FindChainForUpdate(ctx, iwo.ID, "S1")
		require.NoError(t, err)
		require.Len(t, chain, 3)
		assert.Equal(t, []string{"cutting", "machining", "glazing"},
			[]string{chain[0].ProcessName, chain[1].ProcessName, chain[2].ProcessName})
		assert.Equal(t, int64(20), chain[0].AvailableQuantity)
		assert.Equal(t, production.LedgerStatusBlocked, chain[1].Status)
		require.NotNil(t, chain[1].Sequence.Previous)
		assert.Equal(t, "cutting", chain[1].Sequence.Previous.Name)
		assert.Equal(t, "Window frame", chain[0].Product.ProductName)
	})

	t.Run("terminal lookup", func(t *testing.T) {
		terminal, err := repo.FindTerminal(ctx, "S1")
		require.NoError(t, err)
		require.NotNil(t, terminal)
		assert.Equal(t, "glazing", terminal.ProcessName)
		assert.True(t, terminal.Sequence.IsTerminal())

		none, err := repo.FindTerminalForUpdate(ctx, "UNKNOWN")
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("report persists released quantities", func(t *testing.T) {
		chain, err := repo.FindChainForUpdate(ctx, iwo.ID, "S1")
		require.NoError(t, err)
		dirty, err := production.ReportOnChain(chain, chain[0].ID,
			production.ProductionReport{Achieved: 12, Rejected: 1}, "operator", production.GatingStrict)
		require.NoError(t, err)
		require.NoError(t, repo.UpdateBatch(ctx, dirty))

		stored, err := repo.FindByIWO(ctx, iwo.ID)
		require.NoError(t, err)
		require.Len(t, stored, 3)
		byName := map[string]*production.ProcessLedgerRecord{}
		for _, r := range stored {
			byName[r.ProcessName] = r
		}
		assert.Equal(t, int64(12), byName["cutting"].AchievedQuantity)
		assert.Equal(t, int64(1), byName["cutting"].RejectedQuantity)
		assert.Equal(t, int64(12), byName["machining"].AvailableQuantity)
		assert.Equal(t, production.LedgerStatusPending, byName["machining"].Status)
		assert.Equal(t, "operator", byName["cutting"].UpdatedBy)
	})

	t.Run("filters by status", func(t *testing.T) {
		blocked, err := repo.FindAll(ctx, production.LedgerFilter{IWOID: &iwo.ID, Status: production.LedgerStatusBlocked})
		require.NoError(t, err)
		require.Len(t, blocked, 1)
		assert.Equal(t, "glazing", blocked[0].ProcessName)
	})

	t.Run("update of missing record fails", func(t *testing.T) {
		missing := *records[0]
		missing.ID = uuid.New()
		err := repo.UpdateBatch(ctx, []*production.ProcessLedgerRecord{&missing})
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	})

	t.Run("delete by ids and by work order", func(t *testing.T) {
		require.NoError(t, repo.DeleteByIDs(ctx, []uuid.UUID{records[2].ID}))
		n, err := repo.DeleteByIWO(ctx, iwo.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		_, err = repo.FindByID(ctx, records[0].ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
