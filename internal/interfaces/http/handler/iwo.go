package handler

import (
	"time"

	productionapp "github.com/erp/production/internal/application/production"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IWOHandler handles internal work order allocation
type IWOHandler struct {
	BaseHandler
	service AllocationService
}

// NewIWOHandler creates a new IWOHandler
func NewIWOHandler(service AllocationService) *IWOHandler {
	return &IWOHandler{service: service}
}

// ProcessStepRequest is one step of a semi-finished item's chain
type ProcessStepRequest struct {
	Name     string         `json:"name" binding:"required,max=100"`
	Remarks  string         `json:"remarks" binding:"max=500"`
	Document *DocumentInput `json:"document"`
}

// SemiFinishedItemRequest is one semi-finished item with its process chain
type SemiFinishedItemRequest struct {
	ID       string               `json:"id" binding:"required,max=100"`
	Document *DocumentInput       `json:"document"`
	Steps    []ProcessStepRequest `json:"steps" binding:"required,min=1,dive"`
}

// IWOProductRequest is one product line of an allocation
type IWOProductRequest struct {
	ProductID         uuid.UUID                 `json:"product_id" binding:"required"`
	VariantCode       string                    `json:"variant_code" binding:"required,max=50"`
	Quantity          int64                     `json:"quantity" binding:"gt=0"`
	SemiFinishedItems []SemiFinishedItemRequest `json:"semi_finished_items" binding:"required,min=1,dive"`
}

// CreateIWORequest is the body of POST /iwo
type CreateIWORequest struct {
	JobOrderID uuid.UUID           `json:"job_order_id" binding:"required"`
	DateFrom   time.Time           `json:"date_from" binding:"required"`
	DateTo     time.Time           `json:"date_to" binding:"required"`
	Products   []IWOProductRequest `json:"products" binding:"required,min=1,dive"`
}

// UpdateIWORequest is the body of PUT /iwo/:id. Omitted fields are kept;
// a non-empty products list replaces every product line.
type UpdateIWORequest struct {
	DateFrom *time.Time          `json:"date_from"`
	DateTo   *time.Time          `json:"date_to"`
	Products []IWOProductRequest `json:"products" binding:"omitempty,dive"`
}

// DeleteIWORequest is the body of DELETE /iwo
type DeleteIWORequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

// ListIWORequest holds the query parameters of GET /iwo
type ListIWORequest struct {
	dto.ListRequest
	JobOrderID string `form:"job_order_id"`
}

func toProductInputs(in []IWOProductRequest) []productionapp.IWOProductInput {
	out := make([]productionapp.IWOProductInput, len(in))
	for i, p := range in {
		items := make([]productionapp.SemiFinishedItemInput, len(p.SemiFinishedItems))
		for j, s := range p.SemiFinishedItems {
			steps := make([]productionapp.ProcessStepInput, len(s.Steps))
			for k, st := range s.Steps {
				steps[k] = productionapp.ProcessStepInput{Name: st.Name, Remarks: st.Remarks, Document: st.Document.toSlot()}
			}
			items[j] = productionapp.SemiFinishedItemInput{ID: s.ID, Document: s.Document.toSlot(), Steps: steps}
		}
		out[i] = productionapp.IWOProductInput{
			ProductID:         p.ProductID,
			VariantCode:       p.VariantCode,
			Quantity:          p.Quantity,
			SemiFinishedItems: items,
		}
	}
	return out
}

// Create godoc
// @Summary      Create an internal work order
// @Description  Allocate job order quantity to a new internal work order and build its process ledger
// @Tags         iwo
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Operator recorded as created_by / updated_by"
// @Param        request body CreateIWORequest true "Internal work order creation request"
// @Success      201 {object} dto.Response{data=productionapp.IWOResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /iwo [post]
func (h *IWOHandler) Create(c *gin.Context) {
	var req CreateIWORequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Create(c.Request.Context(), productionapp.CreateIWORequest{
		JobOrderID: req.JobOrderID,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Products:   toProductInputs(req.Products),
		Actor:      getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update godoc
// @Summary      Update an internal work order
// @Description  Change dates or replace product lines. The ledger is reconciled and achieved counters are kept.
// @Tags         iwo
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Operator recorded as created_by / updated_by"
// @Param        id path string true "Internal work order ID" format(uuid)
// @Param        request body UpdateIWORequest true "Internal work order update request"
// @Success      200 {object} dto.Response{data=productionapp.IWOResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /iwo/{id} [put]
func (h *IWOHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req UpdateIWORequest
	if !h.BindJSON(c, &req) {
		return
	}

	update := productionapp.UpdateIWORequest{
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Actor:    getActor(c),
	}
	if len(req.Products) > 0 {
		update.Products = toProductInputs(req.Products)
	}

	resp, err := h.service.Update(c.Request.Context(), id, update)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @Summary      Delete an internal work order
// @Description  Delete an internal work order with its ledger and stored documents
// @Tags         iwo
// @Produce      json
// @Param        id path string true "Internal work order ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.DeleteIWOResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /iwo/{id} [delete]
func (h *IWOHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	h.delete(c, []uuid.UUID{id})
}

// DeleteBatch godoc
// @Summary      Delete internal work orders
// @Description  Delete several internal work orders in one transaction
// @Tags         iwo
// @Accept       json
// @Produce      json
// @Param        request body DeleteIWORequest true "IDs to delete"
// @Success      200 {object} dto.Response{data=productionapp.DeleteIWOResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /iwo [delete]
func (h *IWOHandler) DeleteBatch(c *gin.Context) {
	var req DeleteIWORequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.delete(c, req.IDs)
}

func (h *IWOHandler) delete(c *gin.Context, ids []uuid.UUID) {
	resp, err := h.service.Delete(c.Request.Context(), ids)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByID godoc
// @Summary      Get an internal work order
// @Description  Retrieve an internal work order with job order context, ledger and production rollups
// @Tags         iwo
// @Accept       json
// @Produce      json
// @Param        id path string true "Internal work order ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.IWODetailResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /iwo/{id} [get]
func (h *IWOHandler) GetByID(c *gin.Context) {
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
// @Summary      List internal work orders
// @Description  Retrieve a paginated list of internal work orders
// @Tags         iwo
// @Accept       json
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort column" default(created_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc) default(desc)
// @Param        job_order_id query string false "Job order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]productionapp.IWOResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /iwo [get]
func (h *IWOHandler) List(c *gin.Context) {
	req := ListIWORequest{ListRequest: dto.DefaultListRequest()}
	if !h.BindQuery(c, &req) {
		return
	}
	jobOrderID, err := parseOptionalUUID("job_order_id", req.JobOrderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), production.IWOFilter{
		Filter:     toFilter(req.ListRequest),
		JobOrderID: jobOrderID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
