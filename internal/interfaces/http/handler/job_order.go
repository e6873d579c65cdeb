package handler

import (
	productionapp "github.com/erp/production/internal/application/production"
	"github.com/erp/production/internal/domain/production"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JobOrderHandler handles job order intake from the work order system
type JobOrderHandler struct {
	BaseHandler
	service JobOrderService
}

// NewJobOrderHandler creates a new JobOrderHandler
func NewJobOrderHandler(service JobOrderService) *JobOrderHandler {
	return &JobOrderHandler{service: service}
}

// JobOrderProductRequest is one ordered product line
type JobOrderProductRequest struct {
	ProductID       uuid.UUID `json:"product_id" binding:"required"`
	ProductName     string    `json:"product_name" binding:"max=200"`
	VariantCode     string    `json:"variant_code" binding:"required,max=50"`
	OrderedQuantity int64     `json:"ordered_quantity" binding:"gte=0"`
	Dimensions      string    `json:"dimensions" binding:"max=100"`
}

// SyncJobOrderRequest is the body of PUT /job-orders/:id
type SyncJobOrderRequest struct {
	Number          string                   `json:"number" binding:"required,max=50"`
	WorkOrderID     *uuid.UUID               `json:"work_order_id"`
	WorkOrderNumber string                   `json:"work_order_number" binding:"max=50"`
	ClientName      string                   `json:"client_name" binding:"max=200"`
	ProjectName     string                   `json:"project_name" binding:"max=200"`
	Products        []JobOrderProductRequest `json:"products" binding:"required,min=1,dive"`
}

// Sync godoc
// @Summary      Sync a job order
// @Description  Create or refresh a job order and its ordered product lines from the work order system
// @Tags         job-orders
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Operator recorded as created_by / updated_by"
// @Param        id path string true "Job order ID" format(uuid)
// @Param        request body SyncJobOrderRequest true "Job order snapshot"
// @Success      200 {object} dto.Response{data=productionapp.JobOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /job-orders/{id} [put]
func (h *JobOrderHandler) Sync(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req SyncJobOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	products := make([]production.JobOrderProduct, len(req.Products))
	for i, p := range req.Products {
		products[i] = production.JobOrderProduct{
			ProductID:       p.ProductID,
			ProductName:     p.ProductName,
			VariantCode:     p.VariantCode,
			OrderedQuantity: p.OrderedQuantity,
			Dimensions:      p.Dimensions,
		}
	}

	resp, err := h.service.Sync(c.Request.Context(), productionapp.SyncJobOrderRequest{
		ID:              id,
		Number:          req.Number,
		WorkOrderID:     req.WorkOrderID,
		WorkOrderNumber: req.WorkOrderNumber,
		ClientName:      req.ClientName,
		ProjectName:     req.ProjectName,
		Products:        products,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByID godoc
// @Summary      Get a job order
// @Description  Retrieve a job order with the allocated and remaining quantity of each product line
// @Tags         job-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Job order ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.JobOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /job-orders/{id} [get]
func (h *JobOrderHandler) GetByID(c *gin.Context) {
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
