package production

import (
	"testing"

	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobOrder(t *testing.T) {
	productID := uuid.New()

	t.Run("creates job order", func(t *testing.T) {
		id := uuid.New()
		jo, err := NewJobOrder(id, " JO-001 ", []JobOrderProduct{
			{ProductID: productID, VariantCode: " C1 ", OrderedQuantity: 100},
		})
		require.NoError(t, err)
		assert.Equal(t, id, jo.ID)
		assert.Equal(t, "JO-001", jo.Number)

		qty, ok := jo.OrderedQuantity(NewProductKey(productID, "C1"))
		assert.True(t, ok)
		assert.Equal(t, int64(100), qty)
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		_, err := NewJobOrder(uuid.New(), "JO-002", []JobOrderProduct{
			{ProductID: productID, VariantCode: "C1", OrderedQuantity: -1},
		})
		require.Error(t, err)

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeValidationFailed, de.Code)
		require.Len(t, de.Details, 1)
		assert.Equal(t, "products[0].ordered_quantity", de.Details[0].Field)
	})

	t.Run("rejects duplicate pairs", func(t *testing.T) {
		_, err := NewJobOrder(uuid.New(), "JO-003", []JobOrderProduct{
			{ProductID: productID, VariantCode: "C1", OrderedQuantity: 1},
			{ProductID: productID, VariantCode: "C1", OrderedQuantity: 2},
		})
		assert.True(t, shared.IsCode(err, shared.CodeValidationFailed))
	})

	t.Run("requires id", func(t *testing.T) {
		_, err := NewJobOrder(uuid.Nil, "JO-004", []JobOrderProduct{{ProductID: productID, OrderedQuantity: 1}})
		assert.True(t, shared.IsCode(err, shared.CodeValidationFailed))
	})
}

func TestJobOrder_Resync(t *testing.T) {
	productID := uuid.New()
	key := NewProductKey(productID, "C1")

	newJO := func() *JobOrder {
		jo, err := NewJobOrder(uuid.New(), "JO-001", []JobOrderProduct{
			{ProductID: productID, VariantCode: "C1", OrderedQuantity: 100},
		})
		require.NoError(t, err)
		return jo
	}

	t.Run("raises ordered quantity", func(t *testing.T) {
		jo := newJO()
		err := jo.Resync("JO-001", []JobOrderProduct{{ProductID: productID, VariantCode: "C1", OrderedQuantity: 150}}, map[ProductKey]int64{key: 60})
		require.NoError(t, err)
		qty, _ := jo.OrderedQuantity(key)
		assert.Equal(t, int64(150), qty)
		assert.Equal(t, 2, jo.Version)
	})

	t.Run("refuses to drop below allocation", func(t *testing.T) {
		jo := newJO()
		err := jo.Resync("JO-001", []JobOrderProduct{{ProductID: productID, VariantCode: "C1", OrderedQuantity: 50}}, map[ProductKey]int64{key: 60})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeQuantityExceeded))
		assert.Contains(t, err.Error(), "60 already allocated")

		qty, _ := jo.OrderedQuantity(key)
		assert.Equal(t, int64(100), qty)
	})

	t.Run("refuses to remove an allocated pair", func(t *testing.T) {
		jo := newJO()
		other := uuid.New()
		err := jo.Resync("JO-001", []JobOrderProduct{{ProductID: other, VariantCode: "C1", OrderedQuantity: 50}}, map[ProductKey]int64{key: 1})
		assert.True(t, shared.IsCode(err, shared.CodeQuantityExceeded))
	})
}
