package production

import (
	"context"
	"sync"

	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEvents() []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, len(m.events))
	copy(result, m.events)
	return result
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

func (m *MockEventPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make([]shared.DomainEvent, 0)
}

// MockJobOrderRepository is a mock implementation of JobOrderRepository
type MockJobOrderRepository struct {
	mock.Mock
}

func (m *MockJobOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.JobOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*production.JobOrder), args.Error(1)
}

func (m *MockJobOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*production.JobOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*production.JobOrder), args.Error(1)
}

func (m *MockJobOrderRepository) Save(ctx context.Context, jo *production.JobOrder) error {
	args := m.Called(ctx, jo)
	return args.Error(0)
}

var _ production.JobOrderRepository = (*MockJobOrderRepository)(nil)

// MockIWORepository is a mock implementation of IWORepository
type MockIWORepository struct {
	mock.Mock
}

func (m *MockIWORepository) FindByID(ctx context.Context, id uuid.UUID) (*production.InternalWorkOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*production.InternalWorkOrder), args.Error(1)
}

func (m *MockIWORepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*production.InternalWorkOrder, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*production.InternalWorkOrder), args.Error(1)
}

func (m *MockIWORepository) FindAll(ctx context.Context, filter production.IWOFilter) ([]*production.InternalWorkOrder, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*production.InternalWorkOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockIWORepository) SumAllocated(ctx context.Context, jobOrderID uuid.UUID, key production.ProductKey, excludeID *uuid.UUID) (int64, error) {
	args := m.Called(ctx, jobOrderID, key, excludeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIWORepository) AllocationTotals(ctx context.Context, jobOrderID uuid.UUID) (map[production.ProductKey]int64, error) {
	args := m.Called(ctx, jobOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[production.ProductKey]int64), args.Error(1)
}

func (m *MockIWORepository) Save(ctx context.Context, iwo *production.InternalWorkOrder) error {
	args := m.Called(ctx, iwo)
	return args.Error(0)
}

func (m *MockIWORepository) Update(ctx context.Context, iwo *production.InternalWorkOrder) error {
	args := m.Called(ctx, iwo)
	return args.Error(0)
}

func (m *MockIWORepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ production.IWORepository = (*MockIWORepository)(nil)

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.ProcessLedgerRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*production.ProcessLedgerRecord), args.Error(1)
}

func (m *MockLedgerRepository) FindByIWO(ctx context.Context, iwoID uuid.UUID) ([]*production.ProcessLedgerRecord, error) {
	args := m.Called(ctx, iwoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*production.ProcessLedgerRecord), args.Error(1)
}

func (m *MockLedgerRepository) FindByIWOForUpdate(ctx context.Context, iwoID uuid.UUID) ([]*production.ProcessLedgerRecord, error) {
	args := m.Called(ctx, iwoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*production.ProcessLedgerRecord), args.Error(1)
}

func (m *MockLedgerRepository) FindChainForUpdate(ctx context.Context, iwoID uuid.UUID, semiFinishedID string) ([]*production.ProcessLedgerRecord, error) {
	args := m.Called(ctx, iwoID, semiFinishedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*production.ProcessLedgerRecord), args.Error(1)
}

func (m *MockLedgerRepository) FindTerminal(ctx context.Context, semiFinishedID string) (*production.ProcessLedgerRecord, error) {
	args := m.Called(ctx, semiFinishedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*production.ProcessLedgerRecord), args.Error(1)
}

func (m *MockLedgerRepository) FindTerminalForUpdate(ctx context.Context, semiFinishedID string) (*production.ProcessLedgerRecord, error) {
	args := m.Called(ctx, semiFinishedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*production.ProcessLedgerRecord), args.Error(1)
}

func (m *MockLedgerRepository) FindAll(ctx context.Context, filter production.LedgerFilter) ([]*production.ProcessLedgerRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*production.ProcessLedgerRecord), args.Error(1)
}

func (m *MockLedgerRepository) CreateBatch(ctx context.Context, records []*production.ProcessLedgerRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockLedgerRepository) UpdateBatch(ctx context.Context, records []*production.ProcessLedgerRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockLedgerRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockLedgerRepository) DeleteByIWO(ctx context.Context, iwoID uuid.UUID) (int64, error) {
	args := m.Called(ctx, iwoID)
	return args.Get(0).(int64), args.Error(1)
}

var _ production.LedgerRepository = (*MockLedgerRepository)(nil)

// MockDocumentStore is a mock implementation of document.Store
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Store(ctx context.Context, data []byte, contentType, keyHint string) (string, error) {
	args := m.Called(ctx, data, contentType, keyHint)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) Remove(ctx context.Context, locator string) error {
	args := m.Called(ctx, locator)
	return args.Error(0)
}

var _ document.Store = (*MockDocumentStore)(nil)
