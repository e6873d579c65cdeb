package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sealedBundle(t *testing.T, productID uuid.UUID, semiID, qr string, qty int64) *packing.PackingBundle {
	t.Helper()
	b, err := packing.NewPackingBundle(productID, semiID, qty, 0, "packer")
	require.NoError(t, err)
	require.NoError(t, b.Seal(qr, "loc/"+qr, "packer"))
	return b
}

func TestNewDispatch(t *testing.T) {
	jobOrderID := uuid.New()
	productID := uuid.New()

	t.Run("aggregates bundles per product and item", func(t *testing.T) {
		bundles := []*packing.PackingBundle{
			sealedBundle(t, productID, "S1", "Q1", 10),
			sealedBundle(t, productID, "S1", "Q2", 5),
			sealedBundle(t, productID, "S2", "Q3", 7),
		}
		d, err := NewDispatch(jobOrderID, bundles, nil, Metadata{VehicleNumber: "KA-01"}, nil, "dispatcher")
		require.NoError(t, err)

		require.Len(t, d.Products, 2)
		assert.Equal(t, "S1", d.Products[0].SemiFinishedID)
		assert.Equal(t, int64(15), d.Products[0].Quantity)
		assert.Equal(t, int64(7), d.Products[1].Quantity)
		assert.Equal(t, int64(22), d.TotalQuantity())
		assert.Equal(t, StatusApproved, d.Status)
		assert.Len(t, d.BundleIDs, 3)
		assert.Equal(t, []string{"Q1", "Q2", "Q3"}, d.QRCodes)
	})

	t.Run("prefers caller breakdown", func(t *testing.T) {
		bundles := []*packing.PackingBundle{sealedBundle(t, productID, "S1", "Q1", 10)}
		breakdown := []PriceLine{
			{ProductID: productID, SemiFinishedID: "S1", UnitPrice: decimal.NewFromFloat(2.5), TaxRate: decimal.NewFromInt(18)},
			{ProductID: uuid.New(), SemiFinishedID: "S9", Quantity: 3},
		}
		d, err := NewDispatch(jobOrderID, bundles, breakdown, Metadata{}, nil, "dispatcher")
		require.NoError(t, err)

		require.Len(t, d.Products, 1)
		assert.Equal(t, int64(10), d.Products[0].Quantity)
		assert.True(t, decimal.NewFromInt(25).Equal(d.Products[0].Amount))
		assert.True(t, decimal.NewFromInt(25).Equal(d.TotalAmount()))
	})

	t.Run("breakdown cannot exceed bundle total", func(t *testing.T) {
		bundles := []*packing.PackingBundle{sealedBundle(t, productID, "S1", "Q1", 10)}
		_, err := NewDispatch(jobOrderID, bundles, []PriceLine{{ProductID: productID, SemiFinishedID: "S1", Quantity: 11}}, Metadata{}, nil, "dispatcher")
		assert.True(t, shared.IsCode(err, shared.CodeQuantityExceeded))
	})

	t.Run("names already dispatched codes", func(t *testing.T) {
		q1 := sealedBundle(t, productID, "S1", "Q1", 10)
		q2 := sealedBundle(t, productID, "S1", "Q2", 10)
		require.NoError(t, q2.MarkDispatched("dispatcher"))

		_, err := NewDispatch(jobOrderID, []*packing.PackingBundle{q1, q2}, nil, Metadata{}, nil, "dispatcher")
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeAlreadyDispatched))
		assert.Contains(t, err.Error(), "Q2")
		assert.NotContains(t, err.Error(), "Q1")
	})

	t.Run("empty set is not found", func(t *testing.T) {
		_, err := NewDispatch(jobOrderID, nil, nil, Metadata{}, nil, "dispatcher")
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	})

	t.Run("validates hardware", func(t *testing.T) {
		bundles := []*packing.PackingBundle{sealedBundle(t, productID, "S1", "Q1", 10)}
		_, err := NewDispatch(jobOrderID, bundles, nil, Metadata{}, []HardwareItem{{Name: "", Quantity: 0}}, "dispatcher")
		assert.True(t, shared.IsCode(err, shared.CodeValidationFailed))
	})
}

func TestDispatch_Apply(t *testing.T) {
	bundles := []*packing.PackingBundle{sealedBundle(t, uuid.New(), "S1", "Q1", 10)}
	d, err := NewDispatch(uuid.New(), bundles, nil, Metadata{VehicleNumber: "A"}, nil, "dispatcher")
	require.NoError(t, err)

	rejected := StatusRejected
	err = d.Apply(Patch{Metadata: &Metadata{VehicleNumber: "B"}, Status: &rejected}, "lead")
	require.NoError(t, err)
	assert.Equal(t, "B", d.Metadata.VehicleNumber)
	assert.Equal(t, StatusRejected, d.Status)
	assert.Equal(t, int64(10), d.TotalQuantity())

	bad := Status("Lost")
	assert.True(t, shared.IsCode(d.Apply(Patch{Status: &bad}, "lead"), shared.CodeValidationFailed))
}

func TestNumberGenerator_Next(t *testing.T) {
	ctx := context.Background()

	t.Run("retries until a free number", func(t *testing.T) {
		samples := []int{0, 0, 8999}
		i := 0
		gen := NewNumberGenerator(WithRandomSource(func(n int) int {
			assert.Equal(t, 9000, n)
			v := samples[i]
			i++
			return v
		}))
		calls := 0
		num, err := gen.Next(ctx, func(_ context.Context, number string) (bool, error) {
			calls++
			return number == "1000", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "9999", num)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		gen := NewNumberGenerator(WithMaxAttempts(3), WithRandomSource(func(int) int { return 1 }))
		_, err := gen.Next(ctx, func(context.Context, string) (bool, error) { return true, nil })
		assert.True(t, shared.IsCode(err, shared.CodeConflict))
	})

	t.Run("propagates lookup errors", func(t *testing.T) {
		gen := NewNumberGenerator()
		boom := errors.New("db down")
		_, err := gen.Next(ctx, func(context.Context, string) (bool, error) { return false, boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("numbers are four digits", func(t *testing.T) {
		gen := NewNumberGenerator()
		for range 100 {
			num, err := gen.Next(ctx, func(context.Context, string) (bool, error) { return false, nil })
			require.NoError(t, err)
			assert.Len(t, num, 4)
		}
	})
}
