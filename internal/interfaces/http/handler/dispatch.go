package handler

import (
	"time"

	dispatchapp "github.com/erp/production/internal/application/dispatch"
	"github.com/erp/production/internal/domain/dispatch"
	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DispatchHandler handles shipments of packed bundles
type DispatchHandler struct {
	BaseHandler
	service DispatchService
}

// NewDispatchHandler creates a new DispatchHandler
func NewDispatchHandler(service DispatchService) *DispatchHandler {
	return &DispatchHandler{service: service}
}

// PriceLineRequest is an optional pricing breakdown line
type PriceLineRequest struct {
	ProductID      uuid.UUID        `json:"product_id" binding:"required"`
	SemiFinishedID string           `json:"semi_finished_id" binding:"required"`
	Quantity       int64            `json:"quantity" binding:"gte=0"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	Amount         *decimal.Decimal `json:"amount"`
	TaxRate        decimal.Decimal  `json:"tax_rate"`
}

// HardwareItemRequest is an accessory shipped with the bundles
type HardwareItemRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Quantity int64  `json:"quantity" binding:"gt=0"`
	Unit     string `json:"unit" binding:"max=20"`
}

// MetadataRequest carries vehicle, contact and invoice details
type MetadataRequest struct {
	VehicleNumber string     `json:"vehicle_number" binding:"max=50"`
	DriverName    string     `json:"driver_name" binding:"max=100"`
	DriverContact string     `json:"driver_contact" binding:"max=50"`
	ContactPerson string     `json:"contact_person" binding:"max=100"`
	InvoiceNumber string     `json:"invoice_number" binding:"max=50"`
	InvoiceDate   *time.Time `json:"invoice_date"`
	Remarks       string     `json:"remarks" binding:"max=1000"`
}

// CreateDispatchRequest is the body of POST /dispatch
type CreateDispatchRequest struct {
	JobOrderID uuid.UUID             `json:"job_order_id" binding:"required"`
	QRCodes    []string              `json:"qr_codes" binding:"required,min=1,dive,required"`
	Products   []PriceLineRequest    `json:"products" binding:"omitempty,dive"`
	Hardware   []HardwareItemRequest `json:"hardware" binding:"omitempty,dive"`
	Metadata   MetadataRequest       `json:"metadata"`
	Documents  []DocumentInput       `json:"documents" binding:"omitempty,dive"`
}

// UpdateDispatchRequest is the body of PUT /dispatch/:id. Bundles and
// quantities of a dispatch are fixed; only these fields may change.
type UpdateDispatchRequest struct {
	Metadata  *MetadataRequest      `json:"metadata"`
	Hardware  []HardwareItemRequest `json:"hardware" binding:"omitempty,dive"`
	Status    string                `json:"status" binding:"omitempty,oneof=Approved Rejected"`
	Documents []DocumentInput       `json:"documents" binding:"omitempty,dive"`
}

// ListDispatchRequest holds the query parameters of GET /dispatch
type ListDispatchRequest struct {
	dto.ListRequest
	JobOrderID string `form:"job_order_id"`
	Status     string `form:"status" binding:"omitempty,oneof=Approved Rejected"`
}

func (m MetadataRequest) toDomain() dispatch.Metadata {
	return dispatch.Metadata{
		VehicleNumber: m.VehicleNumber,
		DriverName:    m.DriverName,
		DriverContact: m.DriverContact,
		ContactPerson: m.ContactPerson,
		InvoiceNumber: m.InvoiceNumber,
		InvoiceDate:   m.InvoiceDate,
		Remarks:       m.Remarks,
	}
}

func toHardware(in []HardwareItemRequest) []dispatch.HardwareItem {
	if in == nil {
		return nil
	}
	out := make([]dispatch.HardwareItem, len(in))
	for i, h := range in {
		out[i] = dispatch.HardwareItem{Name: h.Name, Quantity: h.Quantity, Unit: h.Unit}
	}
	return out
}

// Create godoc
// @Summary      Create a dispatch
// @Description  Ship sealed bundles scanned by QR id, moving them to Dispatched
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Operator recorded as created_by / updated_by"
// @Param        Idempotency-Key header string false "Rejects a replay of the same request"
// @Param        request body CreateDispatchRequest true "Dispatch creation request"
// @Success      201 {object} dto.Response{data=dispatchapp.DispatchResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dispatch [post]
func (h *DispatchHandler) Create(c *gin.Context) {
	var req CreateDispatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	prices := make([]dispatch.PriceLine, len(req.Products))
	for i, p := range req.Products {
		prices[i] = dispatch.PriceLine{
			ProductID:      p.ProductID,
			SemiFinishedID: p.SemiFinishedID,
			Quantity:       p.Quantity,
			UnitPrice:      p.UnitPrice,
			Amount:         p.Amount,
			TaxRate:        p.TaxRate,
		}
	}

	resp, err := h.service.Create(c.Request.Context(), dispatchapp.CreateDispatchRequest{
		JobOrderID: req.JobOrderID,
		QRCodes:    req.QRCodes,
		Products:   prices,
		Hardware:   toHardware(req.Hardware),
		Metadata:   req.Metadata.toDomain(),
		Documents:  toUploads(req.Documents),
		Actor:      getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update godoc
// @Summary      Update a dispatch
// @Description  Change metadata, hardware, documents or approval status. Bundles and quantities are fixed.
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Operator recorded as created_by / updated_by"
// @Param        id path string true "Dispatch ID" format(uuid)
// @Param        request body UpdateDispatchRequest true "Dispatch update request"
// @Success      200 {object} dto.Response{data=dispatchapp.DispatchResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dispatch/{id} [put]
func (h *DispatchHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req UpdateDispatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	update := dispatchapp.UpdateDispatchRequest{
		Hardware:  toHardware(req.Hardware),
		Documents: toUploads(req.Documents),
		Actor:     getActor(c),
	}
	if req.Metadata != nil {
		md := req.Metadata.toDomain()
		update.Metadata = &md
	}
	if req.Status != "" {
		status := dispatch.Status(req.Status)
		update.Status = &status
	}

	resp, err := h.service.Update(c.Request.Context(), id, update)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByID godoc
// @Summary      Get a dispatch
// @Description  Retrieve one dispatch
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Param        id path string true "Dispatch ID" format(uuid)
// @Success      200 {object} dto.Response{data=dispatchapp.DispatchResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dispatch/{id} [get]
func (h *DispatchHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List godoc
// @Summary      List dispatches
// @Description  Retrieve a paginated list of dispatches
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort column" default(created_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc) default(desc)
// @Param        job_order_id query string false "Job order ID" format(uuid)
// @Param        status query string false "Approval status" Enums(Approved, Rejected)
// @Success      200 {object} dto.Response{data=[]dispatchapp.DispatchResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dispatch [get]
func (h *DispatchHandler) List(c *gin.Context) {
	req := ListDispatchRequest{ListRequest: dto.DefaultListRequest()}
	if !h.BindQuery(c, &req) {
		return
	}
	jobOrderID, err := parseOptionalUUID("job_order_id", req.JobOrderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filter := dispatch.Filter{Filter: toFilter(req.ListRequest), JobOrderID: jobOrderID}
	if req.Status != "" {
		status := dispatch.Status(req.Status)
		filter.Status = &status
	}

	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ScanQR godoc
// @Summary      Scan a bundle QR code
// @Description  Show a bundle with its work order context at the gate before it is added to a dispatch
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Param        id query string true "QR id printed on the bundle label"
// @Success      200 {object} dto.Response{data=dispatchapp.ScanResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dispatch/qrscan [get]
func (h *DispatchHandler) ScanQR(c *gin.Context) {
	qrID := c.Query("id")
	if qrID == "" {
		h.HandleError(c, shared.NewValidationError(shared.ValidationError{Field: "id", Message: "This field is required"}))
		return
	}
	resp, err := h.service.ScanQR(c.Request.Context(), qrID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
