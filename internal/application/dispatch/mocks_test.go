package dispatch

import (
	"context"
	"sync"

	"github.com/erp/production/internal/domain/dispatch"
	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/packing"
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

// MockDispatchRepository is a mock implementation of dispatch.Repository
type MockDispatchRepository struct {
	mock.Mock
}

func (m *MockDispatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*dispatch.Dispatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatch.Dispatch), args.Error(1)
}

func (m *MockDispatchRepository) FindAll(ctx context.Context, filter dispatch.Filter) ([]*dispatch.Dispatch, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*dispatch.Dispatch), args.Get(1).(int64), args.Error(2)
}

func (m *MockDispatchRepository) GatePassExists(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockDispatchRepository) DCNumberExists(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockDispatchRepository) Save(ctx context.Context, d *dispatch.Dispatch) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDispatchRepository) Update(ctx context.Context, d *dispatch.Dispatch) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

var _ dispatch.Repository = (*MockDispatchRepository)(nil)

// MockBundleRepository is a mock implementation of BundleRepository
type MockBundleRepository struct {
	mock.Mock
}

func (m *MockBundleRepository) FindByID(ctx context.Context, id uuid.UUID) (*packing.PackingBundle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*packing.PackingBundle), args.Error(1)
}

func (m *MockBundleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*packing.PackingBundle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*packing.PackingBundle), args.Error(1)
}

func (m *MockBundleRepository) FindByQRID(ctx context.Context, qrID string) (*packing.PackingBundle, error) {
	args := m.Called(ctx, qrID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*packing.PackingBundle), args.Error(1)
}

func (m *MockBundleRepository) FindByQRIDsForUpdate(ctx context.Context, qrIDs []string) ([]*packing.PackingBundle, error) {
	args := m.Called(ctx, qrIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*packing.PackingBundle), args.Error(1)
}

func (m *MockBundleRepository) QRIDTaken(ctx context.Context, qrID string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, qrID, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBundleRepository) SumPacked(ctx context.Context, semiFinishedID string) (int64, error) {
	args := m.Called(ctx, semiFinishedID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBundleRepository) FindAll(ctx context.Context, filter packing.BundleFilter) ([]*packing.PackingBundle, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*packing.PackingBundle), args.Get(1).(int64), args.Error(2)
}

func (m *MockBundleRepository) Save(ctx context.Context, b *packing.PackingBundle) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBundleRepository) Update(ctx context.Context, b *packing.PackingBundle) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBundleRepository) TransitionStage(ctx context.Context, ids []uuid.UUID, from, to packing.DeliveryStage) (int64, error) {
	args := m.Called(ctx, ids, from, to)
	return args.Get(0).(int64), args.Error(1)
}

var _ packing.BundleRepository = (*MockBundleRepository)(nil)

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
