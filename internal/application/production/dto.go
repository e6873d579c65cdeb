package production

import (
	"time"

	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/production"
	"github.com/google/uuid"
)

// DocumentSlot is the optional document of a semi-finished item or step.
// Upload stores a new file; Keep retains a document already stored for the work order.
type DocumentSlot struct {
	Upload *document.Upload
	Keep   *document.Ref
}

// ProcessStepInput is one requested process step
type ProcessStepInput struct {
	Name     string
	Remarks  string
	Document *DocumentSlot
}

// SemiFinishedItemInput is one requested semi-finished item with its chain
type SemiFinishedItemInput struct {
	ID       string
	Document *DocumentSlot
	Steps    []ProcessStepInput
}

// IWOProductInput is one requested product line
type IWOProductInput struct {
	ProductID         uuid.UUID
	VariantCode       string
	Quantity          int64
	SemiFinishedItems []SemiFinishedItemInput
}

// CreateIWORequest contains input for creating an internal work order
type CreateIWORequest struct {
	JobOrderID uuid.UUID
	DateFrom   time.Time
	DateTo     time.Time
	Products   []IWOProductInput
	Actor      string
}

// UpdateIWORequest contains a patch for an internal work order.
// Nil fields keep their current value; Products replaces the full product list.
type UpdateIWORequest struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Products []IWOProductInput
	Actor    string
}

// ReportProductionRequest contains operator counts for one ledger record
type ReportProductionRequest struct {
	Achieved int64
	Rejected int64
	Recycled int64
	Actor    string
}

// SyncJobOrderRequest contains a job order pushed by the work order system
type SyncJobOrderRequest struct {
	ID              uuid.UUID
	Number          string
	WorkOrderID     *uuid.UUID
	WorkOrderNumber string
	ClientName      string
	ProjectName     string
	Products        []production.JobOrderProduct
}

// ProcessStepResponse is a process step in API responses
type ProcessStepResponse struct {
	Name     string        `json:"name"`
	Remarks  string        `json:"remarks,omitempty"`
	Document *document.Ref `json:"document,omitempty"`
}

// SemiFinishedItemResponse is a semi-finished item in API responses
type SemiFinishedItemResponse struct {
	ID       string                `json:"id"`
	Document *document.Ref         `json:"document,omitempty"`
	Steps    []ProcessStepResponse `json:"steps"`
}

// IWOProductResponse is an allocated product line in API responses
type IWOProductResponse struct {
	ProductID         uuid.UUID                  `json:"product_id"`
	VariantCode       string                     `json:"variant_code"`
	ProductName       string                     `json:"product_name,omitempty"`
	Dimensions        string                     `json:"dimensions,omitempty"`
	Quantity          int64                      `json:"quantity"`
	SemiFinishedItems []SemiFinishedItemResponse `json:"semi_finished_items"`
}

// LedgerRecordResponse is a process ledger record in API responses
type LedgerRecordResponse struct {
	ID                uuid.UUID                  `json:"id"`
	JobOrderID        uuid.UUID                  `json:"job_order_id"`
	IWOID             uuid.UUID                  `json:"iwo_id"`
	SemiFinishedID    string                     `json:"semi_finished_id"`
	Product           production.ProductSnapshot `json:"product"`
	ProcessName       string                     `json:"process_name"`
	ProcessSequence   production.ProcessSequence `json:"process_sequence"`
	AvailableQuantity int64                      `json:"available_quantity"`
	AchievedQuantity  int64                      `json:"achieved_quantity"`
	RejectedQuantity  int64                      `json:"rejected_quantity"`
	RecycledQuantity  int64                      `json:"recycled_quantity"`
	Status            string                     `json:"status"`
	CreatedBy         string                     `json:"created_by,omitempty"`
	UpdatedBy         string                     `json:"updated_by,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}

// IWOResponse is an internal work order with its ledger
type IWOResponse struct {
	ID         uuid.UUID              `json:"id"`
	JobOrderID uuid.UUID              `json:"job_order_id"`
	DateFrom   time.Time              `json:"date_from"`
	DateTo     time.Time              `json:"date_to"`
	Products   []IWOProductResponse   `json:"products"`
	Ledger     []LedgerRecordResponse `json:"ledger,omitempty"`
	Version    int                    `json:"version"`
	CreatedBy  string                 `json:"created_by,omitempty"`
	UpdatedBy  string                 `json:"updated_by,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// JobOrderContext is the job and work order information shown with an IWO
type JobOrderContext struct {
	ID              uuid.UUID  `json:"id"`
	Number          string     `json:"number"`
	WorkOrderID     *uuid.UUID `json:"work_order_id,omitempty"`
	WorkOrderNumber string     `json:"work_order_number,omitempty"`
	ClientName      string     `json:"client_name,omitempty"`
	ProjectName     string     `json:"project_name,omitempty"`
}

// ItemRollup summarizes production of one semi-finished item
type ItemRollup struct {
	SemiFinishedID string `json:"semi_finished_id"`
	Achieved       int64  `json:"achieved"`
	Rejected       int64  `json:"rejected"`
	Recycled       int64  `json:"recycled"`
	Completed      bool   `json:"completed"`
}

// ProductRollup summarizes production of one allocated product line
type ProductRollup struct {
	ProductID   uuid.UUID    `json:"product_id"`
	VariantCode string       `json:"variant_code"`
	Allocated   int64        `json:"allocated"`
	Achieved    int64        `json:"achieved"`
	Rejected    int64        `json:"rejected"`
	Recycled    int64        `json:"recycled"`
	Items       []ItemRollup `json:"items"`
}

// IWODetailResponse is an internal work order with context and production rollups
type IWODetailResponse struct {
	IWOResponse
	JobOrder JobOrderContext `json:"job_order"`
	Rollups  []ProductRollup `json:"rollups"`
	Achieved int64           `json:"achieved"`
	Rejected int64           `json:"rejected"`
	Recycled int64           `json:"recycled"`
}

// DeleteIWOResponse reports a batch deletion
type DeleteIWOResponse struct {
	Deleted          int   `json:"deleted"`
	LedgerRemoved    int64 `json:"ledger_removed"`
	DocumentsRemoved int   `json:"documents_removed"`
}

// AllocationLineResponse is the pool state of one job order line
type AllocationLineResponse struct {
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name,omitempty"`
	VariantCode     string    `json:"variant_code"`
	Dimensions      string    `json:"dimensions,omitempty"`
	OrderedQuantity int64     `json:"ordered_quantity"`
	Allocated       int64     `json:"allocated"`
	Remaining       int64     `json:"remaining"`
}

// JobOrderResponse is a job order with its allocation summary
type JobOrderResponse struct {
	JobOrderContext
	Products  []AllocationLineResponse `json:"products"`
	Version   int                      `json:"version"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// ToLedgerRecordResponse converts a ledger record to its response
func ToLedgerRecordResponse(r *production.ProcessLedgerRecord) LedgerRecordResponse {
	return LedgerRecordResponse{
		ID:                r.ID,
		JobOrderID:        r.JobOrderID,
		IWOID:             r.IWOID,
		SemiFinishedID:    r.SemiFinishedID,
		Product:           r.Product,
		ProcessName:       r.ProcessName,
		ProcessSequence:   r.Sequence,
		AvailableQuantity: r.AvailableQuantity,
		AchievedQuantity:  r.AchievedQuantity,
		RejectedQuantity:  r.RejectedQuantity,
		RecycledQuantity:  r.RecycledQuantity,
		Status:            r.Status.String(),
		CreatedBy:         r.CreatedBy,
		UpdatedBy:         r.UpdatedBy,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// ToLedgerRecordResponses converts ledger records to responses
func ToLedgerRecordResponses(records []*production.ProcessLedgerRecord) []LedgerRecordResponse {
	out := make([]LedgerRecordResponse, len(records))
	for i, r := range records {
		out[i] = ToLedgerRecordResponse(r)
	}
	return out
}

// ToIWOResponse converts an internal work order and its ledger to a response
func ToIWOResponse(iwo *production.InternalWorkOrder, ledger []*production.ProcessLedgerRecord) IWOResponse {
	products := make([]IWOProductResponse, len(iwo.Products))
	for i, p := range iwo.Products {
		items := make([]SemiFinishedItemResponse, len(p.SemiFinishedItems))
		for j, s := range p.SemiFinishedItems {
			steps := make([]ProcessStepResponse, len(s.Steps))
			for k, st := range s.Steps {
				steps[k] = ProcessStepResponse{Name: st.Name, Remarks: st.Remarks, Document: st.Document}
			}
			items[j] = SemiFinishedItemResponse{ID: s.ID, Document: s.Document, Steps: steps}
		}
		products[i] = IWOProductResponse{
			ProductID:         p.ProductID,
			VariantCode:       p.VariantCode,
			ProductName:       p.ProductName,
			Dimensions:        p.Dimensions,
			Quantity:          p.Quantity,
			SemiFinishedItems: items,
		}
	}
	return IWOResponse{
		ID:         iwo.ID,
		JobOrderID: iwo.JobOrderID,
		DateFrom:   iwo.DateFrom,
		DateTo:     iwo.DateTo,
		Products:   products,
		Ledger:     ToLedgerRecordResponses(ledger),
		Version:    iwo.Version,
		CreatedBy:  iwo.CreatedBy,
		UpdatedBy:  iwo.UpdatedBy,
		CreatedAt:  iwo.CreatedAt,
		UpdatedAt:  iwo.UpdatedAt,
	}
}

// ToJobOrderContext converts a job order to its display context
func ToJobOrderContext(jo *production.JobOrder) JobOrderContext {
	return JobOrderContext{
		ID:              jo.ID,
		Number:          jo.Number,
		WorkOrderID:     jo.WorkOrderID,
		WorkOrderNumber: jo.WorkOrderNumber,
		ClientName:      jo.ClientName,
		ProjectName:     jo.ProjectName,
	}
}

// ToJobOrderResponse converts a job order and its allocation totals to a response
func ToJobOrderResponse(jo *production.JobOrder, allocated map[production.ProductKey]int64) JobOrderResponse {
	summary := production.SummarizeAllocation(jo, allocated)
	lines := make([]AllocationLineResponse, len(summary))
	for i, s := range summary {
		lines[i] = AllocationLineResponse{
			ProductID:       s.ProductID,
			ProductName:     s.ProductName,
			VariantCode:     s.VariantCode,
			Dimensions:      s.Dimensions,
			OrderedQuantity: s.OrderedQuantity,
			Allocated:       s.Allocated,
			Remaining:       s.Remaining(),
		}
	}
	return JobOrderResponse{
		JobOrderContext: ToJobOrderContext(jo),
		Products:        lines,
		Version:         jo.Version,
		UpdatedAt:       jo.UpdatedAt,
	}
}

// BuildRollups summarizes ledger counters per product line and semi-finished item.
// Achieved counts finished output only (the terminal step); rejected and
// recycled are summed over every step.
func BuildRollups(iwo *production.InternalWorkOrder, ledger []*production.ProcessLedgerRecord) []ProductRollup {
	type itemKey struct {
		product production.ProductKey
		item    string
	}
	byItem := make(map[itemKey][]*production.ProcessLedgerRecord)
	for _, r := range ledger {
		k := itemKey{product: production.NewProductKey(r.Product.ProductID, r.Product.VariantCode), item: r.SemiFinishedID}
		byItem[k] = append(byItem[k], r)
	}

	rollups := make([]ProductRollup, len(iwo.Products))
	for i, p := range iwo.Products {
		pr := ProductRollup{ProductID: p.ProductID, VariantCode: p.VariantCode, Allocated: p.Quantity}
		for _, s := range p.SemiFinishedItems {
			ir := ItemRollup{SemiFinishedID: s.ID}
			records := byItem[itemKey{product: p.Key(), item: s.ID}]
			allDone := len(records) > 0
			for _, r := range records {
				if r.Sequence.IsTerminal() {
					ir.Achieved = r.AchievedQuantity
				}
				ir.Rejected += r.RejectedQuantity
				ir.Recycled += r.RecycledQuantity
				if r.Status != production.LedgerStatusCompleted {
					allDone = false
				}
			}
			ir.Completed = allDone
			pr.Achieved += ir.Achieved
			pr.Rejected += ir.Rejected
			pr.Recycled += ir.Recycled
			pr.Items = append(pr.Items, ir)
		}
		rollups[i] = pr
	}
	return rollups
}
