package persistence

import (
	"testing"
	"time"

	"github.com/erp/production/internal/domain/production"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	testFrom = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	testTo   = time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
)

// setupTestDB creates an in-memory SQLite database with every pipeline table
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := NewDatabaseFromDialector(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)

	// every pooled connection would get its own in-memory database
	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

func testJobOrder(t *testing.T, ordered int64) *production.JobOrder {
	t.Helper()
	jo, err := production.NewJobOrder(uuid.New(), "JO-1001", []production.JobOrderProduct{{
		ProductID:       uuid.New(),
		ProductName:     "Window frame",
		VariantCode:     "C1",
		OrderedQuantity: ordered,
		Dimensions:      "1200x900",
	}})
	require.NoError(t, err)
	return jo
}

func testIWO(t *testing.T, jo *production.JobOrder, qty int64, itemID string, steps ...string) *production.InternalWorkOrder {
	t.Helper()
	p := jo.Products[0]
	item := production.SemiFinishedItem{ID: itemID}
	for _, s := range steps {
		item.Steps = append(item.Steps, production.ProcessStep{Name: s})
	}
	iwo, err := production.NewInternalWorkOrder(jo.ID, testFrom, testTo, []production.IWOProduct{{
		ProductID:         p.ProductID,
		VariantCode:       p.VariantCode,
		ProductName:       p.ProductName,
		Dimensions:        p.Dimensions,
		Quantity:          qty,
		SemiFinishedItems: []production.SemiFinishedItem{item},
	}}, production.DefaultProcessGraph(), "planner")
	require.NoError(t, err)
	return iwo
}
