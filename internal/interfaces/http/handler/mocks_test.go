package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	dispatchapp "github.com/erp/production/internal/application/dispatch"
	packingapp "github.com/erp/production/internal/application/packing"
	productionapp "github.com/erp/production/internal/application/production"
	"github.com/erp/production/internal/domain/dispatch"
	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/interfaces/http/dto"
	"github.com/erp/production/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockJobOrderService implements JobOrderService for testing
type MockJobOrderService struct {
	mock.Mock
}

func (m *MockJobOrderService) Sync(ctx context.Context, req productionapp.SyncJobOrderRequest) (*productionapp.JobOrderResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productionapp.JobOrderResponse), args.Error(1)
}

func (m *MockJobOrderService) GetByID(ctx context.Context, id uuid.UUID) (*productionapp.JobOrderResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productionapp.JobOrderResponse), args.Error(1)
}

// MockAllocationService implements AllocationService for testing
type MockAllocationService struct {
	mock.Mock
}

func (m *MockAllocationService) Create(ctx context.Context, req productionapp.CreateIWORequest) (*productionapp.IWOResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productionapp.IWOResponse), args.Error(1)
}

func (m *MockAllocationService) Update(ctx context.Context, id uuid.UUID, req productionapp.UpdateIWORequest) (*productionapp.IWOResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productionapp.IWOResponse), args.Error(1)
}

func (m *MockAllocationService) Delete(ctx context.Context, ids []uuid.UUID) (*productionapp.DeleteIWOResponse, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productionapp.DeleteIWOResponse), args.Error(1)
}

func (m *MockAllocationService) GetByID(ctx context.Context, id uuid.UUID) (*productionapp.IWODetailResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productionapp.IWODetailResponse), args.Error(1)
}

func (m *MockAllocationService) List(ctx context.Context, filter production.IWOFilter) (*shared.Paginated[productionapp.IWOResponse], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[productionapp.IWOResponse]), args.Error(1)
}

// MockLedgerService implements LedgerService for testing
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Report(ctx context.Context, recordID uuid.UUID, req productionapp.ReportProductionRequest) ([]productionapp.LedgerRecordResponse, error) {
	args := m.Called(ctx, recordID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]productionapp.LedgerRecordResponse), args.Error(1)
}

func (m *MockLedgerService) GetByID(ctx context.Context, id uuid.UUID) (*productionapp.LedgerRecordResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productionapp.LedgerRecordResponse), args.Error(1)
}

func (m *MockLedgerService) List(ctx context.Context, filter production.LedgerFilter) ([]productionapp.LedgerRecordResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]productionapp.LedgerRecordResponse), args.Error(1)
}

// MockPackingService implements PackingService for testing
type MockPackingService struct {
	mock.Mock
}

func (m *MockPackingService) CreateBundles(ctx context.Context, req packingapp.CreateBundlesRequest) ([]packingapp.BundleResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]packingapp.BundleResponse), args.Error(1)
}

func (m *MockPackingService) SealBatch(ctx context.Context, req packingapp.SealRequest) (*packingapp.SealReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*packingapp.SealReport), args.Error(1)
}

func (m *MockPackingService) GetByID(ctx context.Context, id uuid.UUID) (*packingapp.BundleResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*packingapp.BundleResponse), args.Error(1)
}

func (m *MockPackingService) List(ctx context.Context, filter packing.BundleFilter) (*shared.Paginated[packingapp.BundleResponse], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[packingapp.BundleResponse]), args.Error(1)
}

// MockDispatchService implements DispatchService for testing
type MockDispatchService struct {
	mock.Mock
}

func (m *MockDispatchService) Create(ctx context.Context, req dispatchapp.CreateDispatchRequest) (*dispatchapp.DispatchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatchapp.DispatchResponse), args.Error(1)
}

func (m *MockDispatchService) Update(ctx context.Context, id uuid.UUID, req dispatchapp.UpdateDispatchRequest) (*dispatchapp.DispatchResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatchapp.DispatchResponse), args.Error(1)
}

func (m *MockDispatchService) GetByID(ctx context.Context, id uuid.UUID) (*dispatchapp.DispatchResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatchapp.DispatchResponse), args.Error(1)
}

func (m *MockDispatchService) List(ctx context.Context, filter dispatch.Filter) (*shared.Paginated[dispatchapp.DispatchResponse], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[dispatchapp.DispatchResponse]), args.Error(1)
}

func (m *MockDispatchService) ScanQR(ctx context.Context, qrID string) (*dispatchapp.ScanResponse, error) {
	args := m.Called(ctx, qrID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatchapp.ScanResponse), args.Error(1)
}

// newTestEngine returns an engine with the request id middleware installed
func newTestEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	return r
}

// doJSON performs a request with an optional JSON body and actor header
func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ActorHeader, "operator-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeResponse decodes the standard envelope, leaving data as raw JSON
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) (dto.Response, json.RawMessage) {
	t.Helper()

	var envelope struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Response, envelope.Data
}
