//go:build integration

package persistence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormlogger "gorm.io/gorm/logger"

	appproduction "github.com/erp/production/internal/application/production"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/infrastructure/migration"
	"github.com/erp/production/internal/infrastructure/storage"
)

// startPostgres runs a disposable PostgreSQL container with the embedded
// migrations applied.
func startPostgres(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("production_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	database, err := NewDatabaseFromDialector(postgres.Open(dsn), gormlogger.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(5), version)
	assert.False(t, dirty)
	return database
}

func TestPostgres_ConcurrentAllocationNeverOverAllocates(t *testing.T) {
	database := startPostgres(t)
	db := database.DB
	ctx := context.Background()

	jo := testJobOrder(t, 100)
	require.NoError(t, NewGormJobOrderRepository(db).Save(ctx, jo))

	svc := appproduction.NewAllocationService(
		NewProductionTransactionScope(db),
		NewGormIWORepository(db),
		NewGormLedgerRepository(db),
		NewGormJobOrderRepository(db),
		storage.NewMemoryDocumentStore(),
		zap.NewNop(),
	)

	const workers = 5
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(ctx, appproduction.CreateIWORequest{
				JobOrderID: jo.ID,
				DateFrom:   testFrom,
				DateTo:     testTo,
				Actor:      "planner",
				Products: []appproduction.IWOProductInput{{
					ProductID:   jo.Products[0].ProductID,
					VariantCode: jo.Products[0].VariantCode,
					Quantity:    30,
					SemiFinishedItems: []appproduction.SemiFinishedItemInput{{
						ID:    fmt.Sprintf("S%d", i),
						Steps: []appproduction.ProcessStepInput{{Name: "cutting"}},
					}},
				}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case shared.IsCode(err, shared.CodeQuantityExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, created)
	assert.Equal(t, 2, rejected)

	sum, err := NewGormIWORepository(db).SumAllocated(ctx, jo.ID, jo.Products[0].Key(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(90), sum)
}

// hookedScope runs afterLedgerLock once the reconcile read of the ledger has
// returned inside the transaction.
type hookedScope struct {
	inner           appproduction.TransactionScope
	afterLedgerLock func()
}

func (s hookedScope) Execute(ctx context.Context, fn func(repos appproduction.TransactionalRepositories) error) error {
	return s.inner.Execute(ctx, func(repos appproduction.TransactionalRepositories) error {
		return fn(hookedRepos{TransactionalRepositories: repos, after: s.afterLedgerLock})
	})
}

type hookedRepos struct {
	appproduction.TransactionalRepositories
	after func()
}

func (r hookedRepos) LedgerRepo() production.LedgerRepository {
	return hookedLedger{LedgerRepository: r.TransactionalRepositories.LedgerRepo(), after: r.after}
}

type hookedLedger struct {
	production.LedgerRepository
	after func()
}

func (l hookedLedger) FindByIWOForUpdate(ctx context.Context, iwoID uuid.UUID) ([]*production.ProcessLedgerRecord, error) {
	records, err := l.LedgerRepository.FindByIWOForUpdate(ctx, iwoID)
	if err == nil && l.after != nil {
		l.after()
	}
	return records, err
}

func TestPostgres_UpdateDoesNotOverwriteConcurrentReport(t *testing.T) {
	database := startPostgres(t)
	db := database.DB
	ctx := context.Background()

	jo := testJobOrder(t, 100)
	require.NoError(t, NewGormJobOrderRepository(db).Save(ctx, jo))

	input := func(qty int64) []appproduction.IWOProductInput {
		return []appproduction.IWOProductInput{{
			ProductID:   jo.Products[0].ProductID,
			VariantCode: jo.Products[0].VariantCode,
			Quantity:    qty,
			SemiFinishedItems: []appproduction.SemiFinishedItemInput{{
				ID:    "S1",
				Steps: []appproduction.ProcessStepInput{{Name: "cutting"}, {Name: "glazing"}},
			}},
		}}
	}
	newService := func(scope appproduction.TransactionScope) *appproduction.AllocationService {
		return appproduction.NewAllocationService(scope,
			NewGormIWORepository(db), NewGormLedgerRepository(db), NewGormJobOrderRepository(db),
			storage.NewMemoryDocumentStore(), zap.NewNop())
	}

	created, err := newService(NewProductionTransactionScope(db)).Create(ctx, appproduction.CreateIWORequest{
		JobOrderID: jo.ID, DateFrom: testFrom, DateTo: testTo, Actor: "planner", Products: input(60),
	})
	require.NoError(t, err)

	ledgerRepo := NewGormLedgerRepository(db)
	records, err := ledgerRepo.FindByIWO(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	cutting := records[0]
	require.Equal(t, "cutting", cutting.ProcessName)

	ledgerSvc := appproduction.NewLedgerService(NewProductionTransactionScope(db), ledgerRepo, production.GatingStrict, zap.NewNop())
	reportErr := make(chan error, 1)
	var once sync.Once
	scope := hookedScope{
		inner: NewProductionTransactionScope(db),
		afterLedgerLock: func() {
			once.Do(func() {
				go func() {
					_, err := ledgerSvc.Report(ctx, cutting.ID, appproduction.ReportProductionRequest{Achieved: 10, Actor: "operator"})
					reportErr <- err
				}()
				// give the report time to reach the chain lock
				time.Sleep(300 * time.Millisecond)
			})
		},
	}

	_, err = newService(scope).Update(ctx, created.ID, appproduction.UpdateIWORequest{Products: input(80), Actor: "planner"})
	require.NoError(t, err)
	require.NoError(t, <-reportErr)

	records, err = ledgerRepo.FindByIWO(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(80), records[0].AvailableQuantity)
	assert.Equal(t, int64(10), records[0].AchievedQuantity)
	assert.Equal(t, int64(10), records[1].AvailableQuantity)
	assert.Equal(t, production.LedgerStatusPending, records[1].Status)
}

func TestPostgres_SealedQRIDIsUnique(t *testing.T) {
	database := startPostgres(t)
	db := database.DB
	ctx := context.Background()
	repo := NewGormBundleRepository(db)

	first := sealedBundle(t, uuid.New(), "S1", "QR-100", 5)
	require.NoError(t, repo.Save(ctx, first))

	duplicate := sealedBundle(t, uuid.New(), "S1", "QR-100", 5)
	err := repo.Save(ctx, duplicate)
	assert.True(t, shared.IsCode(err, shared.CodeConflict), "got %v", err)

	unsealedA := newTestBundle(t, uuid.New(), "S1", 3)
	unsealedB := newTestBundle(t, uuid.New(), "S1", 4)
	require.NoError(t, repo.Save(ctx, unsealedA))
	require.NoError(t, repo.Save(ctx, unsealedB))
}
