package handler

import (
	"net/http"
	"testing"

	dispatchapp "github.com/erp/production/internal/application/dispatch"
	"github.com/erp/production/internal/domain/dispatch"
	"github.com/erp/production/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupDispatchRouter(svc *MockDispatchService) *gin.Engine {
	r := newTestEngine()
	h := NewDispatchHandler(svc)
	r.POST("/dispatch", h.Create)
	r.GET("/dispatch", h.List)
	r.GET("/dispatch/qrscan", h.ScanQR)
	r.GET("/dispatch/:id", h.GetByID)
	r.PUT("/dispatch/:id", h.Update)
	return r
}

func TestDispatchHandler_Create(t *testing.T) {
	jobOrderID := uuid.New()

	t.Run("creates dispatch", func(t *testing.T) {
		svc := new(MockDispatchService)
		svc.On("Create", mock.Anything, mock.MatchedBy(func(req dispatchapp.CreateDispatchRequest) bool {
			return req.JobOrderID == jobOrderID &&
				len(req.QRCodes) == 2 &&
				len(req.Products) == 1 && req.Products[0].UnitPrice.Equal(decimal.RequireFromString("12.50")) &&
				req.Products[0].Amount == nil &&
				len(req.Hardware) == 1 &&
				req.Metadata.VehicleNumber == "KA-01-1234"
		})).Return(&dispatchapp.DispatchResponse{
			ID:             uuid.New(),
			GatePassNumber: "GP-000001",
			DCNumber:       "DC-000001",
			Status:         "Approved",
		}, nil)

		w := doJSON(t, setupDispatchRouter(svc), http.MethodPost, "/dispatch", map[string]any{
			"job_order_id": jobOrderID,
			"qr_codes":     []string{"QR-1", "QR-2"},
			"products": []map[string]any{
				{"product_id": uuid.New(), "semi_finished_id": "SF-1", "quantity": 4, "unit_price": "12.50", "tax_rate": "0.18"},
			},
			"hardware": []map[string]any{{"name": "Bolts", "quantity": 20, "unit": "pcs"}},
			"metadata": map[string]any{"vehicle_number": "KA-01-1234", "invoice_date": "2026-03-01T00:00:00Z"},
		})

		require.Equal(t, http.StatusCreated, w.Code)
		_, data := decodeResponse(t, w)
		assert.Contains(t, string(data), `"gate_pass_number":"GP-000001"`)
		svc.AssertExpectations(t)
	})

	t.Run("requires qr codes", func(t *testing.T) {
		svc := new(MockDispatchService)

		w := doJSON(t, setupDispatchRouter(svc), http.MethodPost, "/dispatch", map[string]any{
			"job_order_id": jobOrderID,
			"qr_codes":     []string{},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("blank qr code is rejected", func(t *testing.T) {
		svc := new(MockDispatchService)

		w := doJSON(t, setupDispatchRouter(svc), http.MethodPost, "/dispatch", map[string]any{
			"job_order_id": jobOrderID,
			"qr_codes":     []string{"QR-1", ""},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("already dispatched maps to 409", func(t *testing.T) {
		svc := new(MockDispatchService)
		svc.On("Create", mock.Anything, mock.Anything).Return(nil, shared.ErrAlreadyDispatched)

		w := doJSON(t, setupDispatchRouter(svc), http.MethodPost, "/dispatch", map[string]any{
			"job_order_id": jobOrderID,
			"qr_codes":     []string{"QR-1"},
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		resp, _ := decodeResponse(t, w)
		assert.Equal(t, shared.CodeAlreadyDispatched, resp.Error.Code)
	})
}

func TestDispatchHandler_Update(t *testing.T) {
	id := uuid.New()

	t.Run("patches metadata and status", func(t *testing.T) {
		svc := new(MockDispatchService)
		svc.On("Update", mock.Anything, id, mock.MatchedBy(func(req dispatchapp.UpdateDispatchRequest) bool {
			return req.Metadata != nil && req.Metadata.DriverName == "Ravi" &&
				req.Status != nil && *req.Status == dispatch.StatusRejected &&
				req.Hardware == nil && req.Documents == nil
		})).Return(&dispatchapp.DispatchResponse{ID: id, Status: "Rejected"}, nil)

		w := doJSON(t, setupDispatchRouter(svc), http.MethodPut, "/dispatch/"+id.String(), map[string]any{
			"metadata": map[string]any{"driver_name": "Ravi"},
			"status":   "Rejected",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("omitted fields are left unset", func(t *testing.T) {
		svc := new(MockDispatchService)
		svc.On("Update", mock.Anything, id, dispatchapp.UpdateDispatchRequest{Actor: "operator-1"}).
			Return(&dispatchapp.DispatchResponse{ID: id}, nil)

		w := doJSON(t, setupDispatchRouter(svc), http.MethodPut, "/dispatch/"+id.String(), map[string]any{})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		svc := new(MockDispatchService)

		w := doJSON(t, setupDispatchRouter(svc), http.MethodPut, "/dispatch/"+id.String(), map[string]any{"status": "Lost"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDispatchHandler_List(t *testing.T) {
	svc := new(MockDispatchService)
	svc.On("List", mock.Anything, mock.MatchedBy(func(f dispatch.Filter) bool {
		return f.Status != nil && *f.Status == dispatch.StatusApproved && f.JobOrderID == nil
	})).Return(&shared.Paginated[dispatchapp.DispatchResponse]{Items: []dispatchapp.DispatchResponse{}, Page: 1, PageSize: 20}, nil)

	w := doJSON(t, setupDispatchRouter(svc), http.MethodGet, "/dispatch?status=Approved", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestDispatchHandler_GetByID(t *testing.T) {
	svc := new(MockDispatchService)
	svc.On("GetByID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)

	w := doJSON(t, setupDispatchRouter(svc), http.MethodGet, "/dispatch/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatchHandler_ScanQR(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		svc := new(MockDispatchService)

		w := doJSON(t, setupDispatchRouter(svc), http.MethodGet, "/dispatch/qrscan", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp, _ := decodeResponse(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "id", resp.Error.Details[0].Field)
		svc.AssertNotCalled(t, "ScanQR", mock.Anything, mock.Anything)
	})

	t.Run("returns bundle context", func(t *testing.T) {
		svc := new(MockDispatchService)
		svc.On("ScanQR", mock.Anything, "QR-1").Return(&dispatchapp.ScanResponse{
			QRID:           "QR-1",
			DeliveryStage:  "Packed",
			JobOrderNumber: "JO-1",
		}, nil)

		w := doJSON(t, setupDispatchRouter(svc), http.MethodGet, "/dispatch/qrscan?id=QR-1", nil)

		require.Equal(t, http.StatusOK, w.Code)
		_, data := decodeResponse(t, w)
		assert.Contains(t, string(data), `"job_order_number":"JO-1"`)
	})

	t.Run("unknown code", func(t *testing.T) {
		svc := new(MockDispatchService)
		svc.On("ScanQR", mock.Anything, "QR-404").Return(nil, shared.ErrNotFound)

		w := doJSON(t, setupDispatchRouter(svc), http.MethodGet, "/dispatch/qrscan?id=QR-404", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
