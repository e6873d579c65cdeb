package handler

import (
	"net/http"

	packingapp "github.com/erp/production/internal/application/packing"
	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PackingHandler handles bundle packing and QR sealing
type PackingHandler struct {
	BaseHandler
	service PackingService
}

// NewPackingHandler creates a new PackingHandler
func NewPackingHandler(service PackingService) *PackingHandler {
	return &PackingHandler{service: service}
}

// BundleItemRequest is one bundle to pack
type BundleItemRequest struct {
	ProductID        uuid.UUID `json:"product_id" binding:"required"`
	ProductName      string    `json:"product_name" binding:"max=200"`
	SemiFinishedID   string    `json:"semi_finished_id" binding:"required,max=100"`
	Quantity         int64     `json:"quantity" binding:"gt=0"`
	RejectedQuantity int64     `json:"rejected_quantity" binding:"gte=0"`
}

// CreateBundlesRequest is the body of POST /packing
type CreateBundlesRequest struct {
	Items     []BundleItemRequest `json:"items" binding:"required,min=1,dive"`
	Documents []DocumentInput     `json:"documents" binding:"omitempty,dive"`
}

// SealItemRequest pairs a bundle with the QR id printed on its label
type SealItemRequest struct {
	BundleID uuid.UUID `json:"bundle_id" binding:"required"`
	QRID     string    `json:"qr_id"`
}

// SealRequest is the body of PATCH /packing/qr
type SealRequest struct {
	Items []SealItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ListBundlesRequest holds the query parameters of GET /packing
type ListBundlesRequest struct {
	dto.ListRequest
	SemiFinishedID string `form:"semi_finished_id"`
	Stage          string `form:"stage" binding:"omitempty,oneof=Packed Dispatched Delivered"`
	JobOrderID     string `form:"job_order_id"`
}

// Create godoc
// @Summary      Pack bundles
// @Description  Pack bundles in one transaction. Attached documents are shared by all created bundles.
// @Tags         packing
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Operator recorded as created_by / updated_by"
// @Param        Idempotency-Key header string false "Rejects a replay of the same request"
// @Param        request body CreateBundlesRequest true "Bundles to pack"
// @Success      201 {object} dto.Response{data=[]packingapp.BundleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /packing [post]
func (h *PackingHandler) Create(c *gin.Context) {
	var req CreateBundlesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	items := make([]packingapp.BundleItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = packingapp.BundleItemInput{
			ProductID:        it.ProductID,
			ProductName:      it.ProductName,
			SemiFinishedID:   it.SemiFinishedID,
			Quantity:         it.Quantity,
			RejectedQuantity: it.RejectedQuantity,
		}
	}

	bundles, err := h.service.CreateBundles(c.Request.Context(), packingapp.CreateBundlesRequest{
		Items:     items,
		Documents: toUploads(req.Documents),
		Actor:     getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bundles)
}

// Seal godoc
// @Summary      Seal bundles with QR codes
// @Description  Pair bundles with printed QR ids. Pairs are sealed independently; the status is 422 when none was sealed.
// @Tags         packing
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Operator recorded as created_by / updated_by"
// @Param        request body SealRequest true "Bundle and QR id pairs"
// @Success      200 {object} dto.Response{data=packingapp.SealReport}
// @Success      422 {object} dto.Response{data=packingapp.SealReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /packing/qr [patch]
func (h *PackingHandler) Seal(c *gin.Context) {
	var req SealRequest
	if !h.BindJSON(c, &req) {
		return
	}

	items := make([]packingapp.SealItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = packingapp.SealItem{BundleID: it.BundleID, QRCodeID: it.QRID}
	}

	report, err := h.service.SealBatch(c.Request.Context(), packingapp.SealRequest{
		Items: items,
		Actor: getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	status := http.StatusOK
	if len(report.Succeeded) == 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, dto.Response{Success: len(report.Succeeded) > 0, Data: report})
}

// GetByID godoc
// @Summary      Get a bundle
// @Description  Retrieve one packed bundle
// @Tags         packing
// @Accept       json
// @Produce      json
// @Param        id path string true "Bundle ID" format(uuid)
// @Success      200 {object} dto.Response{data=packingapp.BundleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /packing/{id} [get]
func (h *PackingHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	bundle, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bundle)
}

// List godoc
// @Summary      List bundles
// @Description  Retrieve a paginated list of packed bundles
// @Tags         packing
// @Accept       json
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort column" default(created_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc) default(desc)
// @Param        semi_finished_id query string false "Semi-finished item ID"
// @Param        stage query string false "Delivery stage" Enums(Packed, Dispatched, Delivered)
// @Param        job_order_id query string false "Job order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]packingapp.BundleResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /packing [get]
func (h *PackingHandler) List(c *gin.Context) {
	req := ListBundlesRequest{ListRequest: dto.DefaultListRequest()}
	if !h.BindQuery(c, &req) {
		return
	}
	jobOrderID, err := parseOptionalUUID("job_order_id", req.JobOrderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filter := packing.BundleFilter{
		Filter:         toFilter(req.ListRequest),
		SemiFinishedID: req.SemiFinishedID,
		JobOrderID:     jobOrderID,
	}
	if req.Stage != "" {
		stage := packing.DeliveryStage(req.Stage)
		filter.Stage = &stage
	}

	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
