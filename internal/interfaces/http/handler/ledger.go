package handler

import (
	productionapp "github.com/erp/production/internal/application/production"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// LedgerHandler handles process ledger reporting
type LedgerHandler struct {
	BaseHandler
	service LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(service LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// ReportProductionRequest is the body of POST /ledger/:id/report.
// Values are deltas added to the record's counters.
type ReportProductionRequest struct {
	Achieved int64 `json:"achieved" binding:"gte=0"`
	Rejected int64 `json:"rejected" binding:"gte=0"`
	Recycled int64 `json:"recycled" binding:"gte=0"`
}

// ListLedgerRequest holds the query parameters of GET /ledger
type ListLedgerRequest struct {
	IWOID          string `form:"iwo_id"`
	SemiFinishedID string `form:"semi_finished_id"`
	Status         string `form:"status" binding:"omitempty,oneof=Pending Blocked Completed"`
}

// Report godoc
// @Summary      Report production
// @Description  Add achieved, rejected and recycled units to a ledger record. The response lists the record followed by the successor step it released output to, if any.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Operator recorded as created_by / updated_by"
// @Param        id path string true "Ledger record ID" format(uuid)
// @Param        request body ReportProductionRequest true "Counter deltas"
// @Success      200 {object} dto.Response{data=[]productionapp.LedgerRecordResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /ledger/{id}/report [post]
func (h *LedgerHandler) Report(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req ReportProductionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	records, err := h.service.Report(c.Request.Context(), id, productionapp.ReportProductionRequest{
		Achieved: req.Achieved,
		Rejected: req.Rejected,
		Recycled: req.Recycled,
		Actor:    getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

// GetByID godoc
// @Summary      Get a ledger record
// @Description  Retrieve one process ledger record
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        id path string true "Ledger record ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.LedgerRecordResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /ledger/{id} [get]
func (h *LedgerHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	record, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// List godoc
// @Summary      List ledger records
// @Description  List ledger records ordered by semi-finished item and step index. At least one of iwo_id and semi_finished_id is required.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        iwo_id query string false "Internal work order ID" format(uuid)
// @Param        semi_finished_id query string false "Semi-finished item ID"
// @Param        status query string false "Ledger status" Enums(Pending, Blocked, Completed)
// @Success      200 {object} dto.Response{data=[]productionapp.LedgerRecordResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /ledger [get]
func (h *LedgerHandler) List(c *gin.Context) {
	var req ListLedgerRequest
	if !h.BindQuery(c, &req) {
		return
	}
	iwoID, err := parseOptionalUUID("iwo_id", req.IWOID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if iwoID == nil && req.SemiFinishedID == "" {
		h.HandleError(c, shared.NewValidationError(shared.ValidationError{
			Field:   "iwo_id",
			Message: "iwo_id or semi_finished_id is required",
		}))
		return
	}

	records, err := h.service.List(c.Request.Context(), production.LedgerFilter{
		IWOID:          iwoID,
		SemiFinishedID: req.SemiFinishedID,
		Status:         production.LedgerStatus(req.Status),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}
