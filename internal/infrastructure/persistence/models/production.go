package models

import (
	"time"

	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/production"
	"github.com/google/uuid"
)

// JobOrderModel is the persistence model for the JobOrder aggregate
type JobOrderModel struct {
	AggregateModel
	Number          string     `gorm:"type:varchar(64);not null;uniqueIndex"`
	WorkOrderID     *uuid.UUID `gorm:"type:uuid;index"`
	WorkOrderNumber string     `gorm:"type:varchar(64)"`
	ClientName      string     `gorm:"type:varchar(200)"`
	ProjectName     string     `gorm:"type:varchar(200)"`
	ProductsJSON    string     `gorm:"column:products;type:jsonb;not null;default:'[]'"`
}

// TableName returns the table name for GORM
func (JobOrderModel) TableName() string {
	return "job_orders"
}

type jobOrderProductJSON struct {
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name,omitempty"`
	VariantCode     string    `json:"variant_code"`
	OrderedQuantity int64     `json:"ordered_quantity"`
	Dimensions      string    `json:"dimensions,omitempty"`
}

// ToDomain converts the persistence model to a domain JobOrder
func (m *JobOrderModel) ToDomain() *production.JobOrder {
	var lines []jobOrderProductJSON
	unmarshalJSON(m.ProductsJSON, &lines, "job_orders.products", m.ID)

	products := make([]production.JobOrderProduct, len(lines))
	for i, l := range lines {
		products[i] = production.JobOrderProduct{
			ProductID:       l.ProductID,
			ProductName:     l.ProductName,
			VariantCode:     l.VariantCode,
			OrderedQuantity: l.OrderedQuantity,
			Dimensions:      l.Dimensions,
		}
	}
	return &production.JobOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		WorkOrderID:       m.WorkOrderID,
		WorkOrderNumber:   m.WorkOrderNumber,
		ClientName:        m.ClientName,
		ProjectName:       m.ProjectName,
		Products:          products,
	}
}

// JobOrderModelFromDomain creates a persistence model from a domain JobOrder
func JobOrderModelFromDomain(jo *production.JobOrder) *JobOrderModel {
	lines := make([]jobOrderProductJSON, len(jo.Products))
	for i, p := range jo.Products {
		lines[i] = jobOrderProductJSON{
			ProductID:       p.ProductID,
			ProductName:     p.ProductName,
			VariantCode:     p.VariantCode,
			OrderedQuantity: p.OrderedQuantity,
			Dimensions:      p.Dimensions,
		}
	}
	m := &JobOrderModel{
		Number:          jo.Number,
		WorkOrderID:     jo.WorkOrderID,
		WorkOrderNumber: jo.WorkOrderNumber,
		ClientName:      jo.ClientName,
		ProjectName:     jo.ProjectName,
		ProductsJSON:    marshalJSON(lines, "[]"),
	}
	m.FromDomainAggregateRoot(jo.BaseAggregateRoot)
	return m
}

// InternalWorkOrderModel is the persistence model for the InternalWorkOrder aggregate.
// The product tree is a JSON column; per-product quantities are mirrored into
// iwo_products so allocation sums run in SQL.
type InternalWorkOrderModel struct {
	AggregateModel
	JobOrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	DateFrom     time.Time `gorm:"type:date;not null"`
	DateTo       time.Time `gorm:"type:date;not null"`
	ProductsJSON string    `gorm:"column:products;type:jsonb;not null;default:'[]'"`
	ActorColumns
}

// TableName returns the table name for GORM
func (InternalWorkOrderModel) TableName() string {
	return "internal_work_orders"
}

// IWOProductModel is one allocated (product, variant code) line of an internal work order
type IWOProductModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	IWOID       uuid.UUID `gorm:"column:iwo_id;type:uuid;not null;index"`
	JobOrderID  uuid.UUID `gorm:"type:uuid;not null;index:idx_iwo_products_allocation"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index:idx_iwo_products_allocation"`
	VariantCode string    `gorm:"type:varchar(64);not null;index:idx_iwo_products_allocation"`
	Quantity    int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IWOProductModel) TableName() string {
	return "iwo_products"
}

type documentRefJSON struct {
	Locator     string `json:"locator"`
	FileName    string `json:"file_name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

type processStepJSON struct {
	Name     string           `json:"name"`
	Document *documentRefJSON `json:"document,omitempty"`
	Remarks  string           `json:"remarks,omitempty"`
}

type semiFinishedJSON struct {
	ID       string            `json:"id"`
	Document *documentRefJSON  `json:"document,omitempty"`
	Steps    []processStepJSON `json:"steps"`
}

type iwoProductJSON struct {
	ProductID         uuid.UUID          `json:"product_id"`
	VariantCode       string             `json:"variant_code"`
	ProductName       string             `json:"product_name,omitempty"`
	Dimensions        string             `json:"dimensions,omitempty"`
	Quantity          int64              `json:"quantity"`
	SemiFinishedItems []semiFinishedJSON `json:"semi_finished_items"`
}

func refToJSON(r *document.Ref) *documentRefJSON {
	if r == nil {
		return nil
	}
	return &documentRefJSON{Locator: r.Locator, FileName: r.FileName, ContentType: r.ContentType}
}

func refFromJSON(r *documentRefJSON) *document.Ref {
	if r == nil {
		return nil
	}
	return &document.Ref{Locator: r.Locator, FileName: r.FileName, ContentType: r.ContentType}
}

func refsToJSON(refs []document.Ref) []documentRefJSON {
	out := make([]documentRefJSON, len(refs))
	for i, r := range refs {
		out[i] = *refToJSON(&r)
	}
	return out
}

func refsFromJSON(refs []documentRefJSON) []document.Ref {
	if len(refs) == 0 {
		return nil
	}
	out := make([]document.Ref, len(refs))
	for i := range refs {
		out[i] = *refFromJSON(&refs[i])
	}
	return out
}

// ToDomain converts the persistence model to a domain InternalWorkOrder
func (m *InternalWorkOrderModel) ToDomain() *production.InternalWorkOrder {
	var lines []iwoProductJSON
	unmarshalJSON(m.ProductsJSON, &lines, "internal_work_orders.products", m.ID)

	products := make([]production.IWOProduct, len(lines))
	for i, l := range lines {
		items := make([]production.SemiFinishedItem, len(l.SemiFinishedItems))
		for j, s := range l.SemiFinishedItems {
			steps := make([]production.ProcessStep, len(s.Steps))
			for k, st := range s.Steps {
				steps[k] = production.ProcessStep{Name: st.Name, Document: refFromJSON(st.Document), Remarks: st.Remarks}
			}
			items[j] = production.SemiFinishedItem{ID: s.ID, Document: refFromJSON(s.Document), Steps: steps}
		}
		products[i] = production.IWOProduct{
			ProductID:         l.ProductID,
			VariantCode:       l.VariantCode,
			ProductName:       l.ProductName,
			Dimensions:        l.Dimensions,
			Quantity:          l.Quantity,
			SemiFinishedItems: items,
		}
	}
	return &production.InternalWorkOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		JobOrderID:        m.JobOrderID,
		DateFrom:          m.DateFrom,
		DateTo:            m.DateTo,
		Products:          products,
		Actors:            m.ActorColumns.ToDomain(),
	}
}

// InternalWorkOrderModelFromDomain creates a persistence model from a domain InternalWorkOrder
func InternalWorkOrderModelFromDomain(iwo *production.InternalWorkOrder) *InternalWorkOrderModel {
	lines := make([]iwoProductJSON, len(iwo.Products))
	for i, p := range iwo.Products {
		items := make([]semiFinishedJSON, len(p.SemiFinishedItems))
		for j, s := range p.SemiFinishedItems {
			steps := make([]processStepJSON, len(s.Steps))
			for k, st := range s.Steps {
				steps[k] = processStepJSON{Name: st.Name, Document: refToJSON(st.Document), Remarks: st.Remarks}
			}
			items[j] = semiFinishedJSON{ID: s.ID, Document: refToJSON(s.Document), Steps: steps}
		}
		lines[i] = iwoProductJSON{
			ProductID:         p.ProductID,
			VariantCode:       p.VariantCode,
			ProductName:       p.ProductName,
			Dimensions:        p.Dimensions,
			Quantity:          p.Quantity,
			SemiFinishedItems: items,
		}
	}
	m := &InternalWorkOrderModel{
		JobOrderID:   iwo.JobOrderID,
		DateFrom:     iwo.DateFrom,
		DateTo:       iwo.DateTo,
		ProductsJSON: marshalJSON(lines, "[]"),
		ActorColumns: actorColumnsFromDomain(iwo.Actors),
	}
	m.FromDomainAggregateRoot(iwo.BaseAggregateRoot)
	return m
}

// IWOProductModelsFromDomain returns the allocation rows of a work order
func IWOProductModelsFromDomain(iwo *production.InternalWorkOrder) []IWOProductModel {
	rows := make([]IWOProductModel, len(iwo.Products))
	for i, p := range iwo.Products {
		rows[i] = IWOProductModel{
			ID:          uuid.New(),
			IWOID:       iwo.ID,
			JobOrderID:  iwo.JobOrderID,
			ProductID:   p.ProductID,
			VariantCode: p.VariantCode,
			Quantity:    p.Quantity,
		}
	}
	return rows
}

// ProcessLedgerRecordModel is the persistence model for a ProcessLedgerRecord.
// step_index and is_terminal duplicate the sequence JSON so chain reads and
// terminal lookups can be indexed.
type ProcessLedgerRecordModel struct {
	AggregateModel
	JobOrderID        uuid.UUID                `gorm:"type:uuid;not null;index"`
	IWOID             uuid.UUID                `gorm:"column:iwo_id;type:uuid;not null;index:idx_ledger_chain"`
	SemiFinishedID    string                   `gorm:"type:varchar(100);not null;index:idx_ledger_chain;index:idx_ledger_terminal"`
	ProductID         uuid.UUID                `gorm:"type:uuid;not null"`
	VariantCode       string                   `gorm:"type:varchar(64);not null"`
	ProductName       string                   `gorm:"type:varchar(200)"`
	Dimensions        string                   `gorm:"type:varchar(100)"`
	AllocatedQuantity int64                    `gorm:"not null"`
	ProcessName       string                   `gorm:"type:varchar(100);not null"`
	StepIndex         int                      `gorm:"not null;index:idx_ledger_chain"`
	IsTerminal        bool                     `gorm:"not null;default:false;index:idx_ledger_terminal"`
	SequenceJSON      string                   `gorm:"column:sequence;type:jsonb;not null"`
	AvailableQuantity int64                    `gorm:"not null;default:0"`
	AchievedQuantity  int64                    `gorm:"not null;default:0"`
	RejectedQuantity  int64                    `gorm:"not null;default:0"`
	RecycledQuantity  int64                    `gorm:"not null;default:0"`
	Status            production.LedgerStatus `gorm:"type:varchar(20);not null;index"`
	ActorColumns
}

// TableName returns the table name for GORM
func (ProcessLedgerRecordModel) TableName() string {
	return "process_ledger_records"
}

// ToDomain converts the persistence model to a domain ProcessLedgerRecord
func (m *ProcessLedgerRecordModel) ToDomain() *production.ProcessLedgerRecord {
	seq := production.ProcessSequence{Current: production.StepPointer{Name: m.ProcessName, Index: m.StepIndex}}
	unmarshalJSON(m.SequenceJSON, &seq, "process_ledger_records.sequence", m.ID)

	return &production.ProcessLedgerRecord{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		JobOrderID:        m.JobOrderID,
		IWOID:             m.IWOID,
		SemiFinishedID:    m.SemiFinishedID,
		Product: production.ProductSnapshot{
			ProductID:         m.ProductID,
			VariantCode:       m.VariantCode,
			ProductName:       m.ProductName,
			Dimensions:        m.Dimensions,
			AllocatedQuantity: m.AllocatedQuantity,
		},
		ProcessName:       m.ProcessName,
		Sequence:          seq,
		AvailableQuantity: m.AvailableQuantity,
		AchievedQuantity:  m.AchievedQuantity,
		RejectedQuantity:  m.RejectedQuantity,
		RecycledQuantity:  m.RecycledQuantity,
		Status:            m.Status,
		Actors:            m.ActorColumns.ToDomain(),
	}
}

// ProcessLedgerRecordModelFromDomain creates a persistence model from a domain ProcessLedgerRecord
func ProcessLedgerRecordModelFromDomain(r *production.ProcessLedgerRecord) *ProcessLedgerRecordModel {
	m := &ProcessLedgerRecordModel{
		JobOrderID:        r.JobOrderID,
		IWOID:             r.IWOID,
		SemiFinishedID:    r.SemiFinishedID,
		ProductID:         r.Product.ProductID,
		VariantCode:       r.Product.VariantCode,
		ProductName:       r.Product.ProductName,
		Dimensions:        r.Product.Dimensions,
		AllocatedQuantity: r.Product.AllocatedQuantity,
		ProcessName:       r.ProcessName,
		StepIndex:         r.Sequence.Current.Index,
		IsTerminal:        r.Sequence.IsTerminal(),
		SequenceJSON:      marshalJSON(r.Sequence, "{}"),
		AvailableQuantity: r.AvailableQuantity,
		AchievedQuantity:  r.AchievedQuantity,
		RejectedQuantity:  r.RejectedQuantity,
		RecycledQuantity:  r.RecycledQuantity,
		Status:            r.Status,
		ActorColumns:      actorColumnsFromDomain(r.Actors),
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}
