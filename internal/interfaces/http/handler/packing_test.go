package handler

import (
	"net/http"
	"testing"

	packingapp "github.com/erp/production/internal/application/packing"
	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupPackingRouter(svc *MockPackingService) *gin.Engine {
	r := newTestEngine()
	h := NewPackingHandler(svc)
	r.POST("/packing", h.Create)
	r.GET("/packing", h.List)
	r.PATCH("/packing/qr", h.Seal)
	r.GET("/packing/:id", h.GetByID)
	return r
}

func TestPackingHandler_Create(t *testing.T) {
	productID := uuid.New()

	t.Run("packs bundles with shared documents", func(t *testing.T) {
		svc := new(MockPackingService)
		svc.On("CreateBundles", mock.Anything, mock.MatchedBy(func(req packingapp.CreateBundlesRequest) bool {
			return len(req.Items) == 2 && len(req.Documents) == 1 &&
				req.Documents[0].FileName == "packing-list.pdf" &&
				req.Items[1].RejectedQuantity == 2 && req.Actor == "operator-1"
		})).Return([]packingapp.BundleResponse{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

		w := doJSON(t, setupPackingRouter(svc), http.MethodPost, "/packing", map[string]any{
			"items": []map[string]any{
				{"product_id": productID, "semi_finished_id": "SF-1", "quantity": 10},
				{"product_id": productID, "semi_finished_id": "SF-2", "quantity": 5, "rejected_quantity": 2},
			},
			"documents": []map[string]any{
				{"file_name": "packing-list.pdf", "content": "JVBERi0xLjQ="},
			},
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("document without content is rejected", func(t *testing.T) {
		svc := new(MockPackingService)

		w := doJSON(t, setupPackingRouter(svc), http.MethodPost, "/packing", map[string]any{
			"items": []map[string]any{
				{"product_id": productID, "semi_finished_id": "SF-1", "quantity": 10},
			},
			"documents": []map[string]any{{"file_name": "empty.pdf"}},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CreateBundles", mock.Anything, mock.Anything)
	})

	t.Run("production not ready maps to 422", func(t *testing.T) {
		svc := new(MockPackingService)
		svc.On("CreateBundles", mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodeProductionNotReady, "SF-1 has no completed production"))

		w := doJSON(t, setupPackingRouter(svc), http.MethodPost, "/packing", map[string]any{
			"items": []map[string]any{
				{"product_id": productID, "semi_finished_id": "SF-1", "quantity": 10},
			},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp, _ := decodeResponse(t, w)
		assert.Equal(t, shared.CodeProductionNotReady, resp.Error.Code)
	})
}

func TestPackingHandler_Seal(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	body := map[string]any{
		"items": []map[string]any{
			{"bundle_id": first, "qr_id": "QR-1"},
			{"bundle_id": second, "qr_id": "QR-2"},
		},
	}

	t.Run("partial success is 200 with failures listed", func(t *testing.T) {
		svc := new(MockPackingService)
		svc.On("SealBatch", mock.Anything, packingapp.SealRequest{
			Items: []packingapp.SealItem{
				{BundleID: first, QRCodeID: "QR-1"},
				{BundleID: second, QRCodeID: "QR-2"},
			},
			Actor: "operator-1",
		}).Return(&packingapp.SealReport{
			Succeeded: []packingapp.BundleResponse{{ID: first, QRID: "QR-1", DeliveryStage: "Packed"}},
			Failed:    []packingapp.SealFailure{{BundleID: second, QRCodeID: "QR-2", Code: shared.CodeAlreadyPacked}},
		}, nil)

		w := doJSON(t, setupPackingRouter(svc), http.MethodPatch, "/packing/qr", body)

		require.Equal(t, http.StatusOK, w.Code)
		resp, data := decodeResponse(t, w)
		assert.True(t, resp.Success)
		assert.Contains(t, string(data), shared.CodeAlreadyPacked)
		svc.AssertExpectations(t)
	})

	t.Run("nothing sealed is 422", func(t *testing.T) {
		svc := new(MockPackingService)
		svc.On("SealBatch", mock.Anything, mock.Anything).Return(&packingapp.SealReport{
			Succeeded: []packingapp.BundleResponse{},
			Failed: []packingapp.SealFailure{
				{BundleID: first, Code: shared.CodeValidationFailed},
				{BundleID: second, Code: shared.CodeNotFound},
			},
		}, nil)

		w := doJSON(t, setupPackingRouter(svc), http.MethodPatch, "/packing/qr", body)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp, _ := decodeResponse(t, w)
		assert.False(t, resp.Success)
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		svc := new(MockPackingService)

		w := doJSON(t, setupPackingRouter(svc), http.MethodPatch, "/packing/qr", map[string]any{"items": []any{}})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "SealBatch", mock.Anything, mock.Anything)
	})
}

func TestPackingHandler_List(t *testing.T) {
	t.Run("filters by stage", func(t *testing.T) {
		svc := new(MockPackingService)
		svc.On("List", mock.Anything, mock.MatchedBy(func(f packing.BundleFilter) bool {
			return f.Stage != nil && *f.Stage == packing.DeliveryStagePacked && f.SemiFinishedID == "SF-1"
		})).Return(&shared.Paginated[packingapp.BundleResponse]{Items: []packingapp.BundleResponse{}, Page: 1, PageSize: 20}, nil)

		w := doJSON(t, setupPackingRouter(svc), http.MethodGet, "/packing?stage=Packed&semi_finished_id=SF-1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unknown stage is rejected", func(t *testing.T) {
		svc := new(MockPackingService)

		w := doJSON(t, setupPackingRouter(svc), http.MethodGet, "/packing?stage=Lost", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPackingHandler_GetByID(t *testing.T) {
	id := uuid.New()
	svc := new(MockPackingService)
	svc.On("GetByID", mock.Anything, id).Return(&packingapp.BundleResponse{ID: id, PackedQuantity: 10}, nil)

	w := doJSON(t, setupPackingRouter(svc), http.MethodGet, "/packing/"+id.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	_, data := decodeResponse(t, w)
	assert.Contains(t, string(data), `"packed_quantity":10`)
}
