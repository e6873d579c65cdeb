package production

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
)

// ProcessStep is one stage of a semi-finished item's process chain
type ProcessStep struct {
	Name     string
	Document *document.Ref
	Remarks  string
}

// SemiFinishedItem is an intermediate unit tracked through its own process chain
type SemiFinishedItem struct {
	ID       string
	Document *document.Ref
	Steps    []ProcessStep
}

// StepNames returns the normalized step names in order
func (s SemiFinishedItem) StepNames() []string {
	names := make([]string, len(s.Steps))
	for i, st := range s.Steps {
		names[i] = NormalizeProcessName(st.Name)
	}
	return names
}

// IWOProduct is one product line allocated by an internal work order
type IWOProduct struct {
	ProductID         uuid.UUID
	VariantCode       string
	ProductName       string
	Dimensions        string
	Quantity          int64
	SemiFinishedItems []SemiFinishedItem
}

// Key returns the product key of the line
func (p IWOProduct) Key() ProductKey {
	return NewProductKey(p.ProductID, p.VariantCode)
}

// InternalWorkOrder allocates part of a job order's pool into a production batch
type InternalWorkOrder struct {
	shared.BaseAggregateRoot
	JobOrderID uuid.UUID
	DateFrom   time.Time
	DateTo     time.Time
	Products   []IWOProduct
	shared.Actors
}

// NewInternalWorkOrder creates an internal work order after validating its shape.
// Quantity limits against the job order are checked by the allocation service.
func NewInternalWorkOrder(jobOrderID uuid.UUID, from, to time.Time, products []IWOProduct, graph *ProcessGraph, actor string) (*InternalWorkOrder, error) {
	if jobOrderID == uuid.Nil {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "job_order_id", Message: "is required"})
	}
	normalized, err := validateIWOShape(from, to, products, graph)
	if err != nil {
		return nil, err
	}

	iwo := &InternalWorkOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		JobOrderID:        jobOrderID,
		DateFrom:          from,
		DateTo:            to,
		Products:          normalized,
		Actors:            shared.Actors{CreatedBy: actor, UpdatedBy: actor},
	}
	iwo.AddDomainEvent(NewIWOCreatedEvent(iwo))
	return iwo, nil
}

// Revise replaces the date range and product lines of the work order
func (w *InternalWorkOrder) Revise(from, to time.Time, products []IWOProduct, graph *ProcessGraph, actor string) error {
	normalized, err := validateIWOShape(from, to, products, graph)
	if err != nil {
		return err
	}
	w.DateFrom = from
	w.DateTo = to
	w.Products = normalized
	w.UpdatedBy = actor
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
	w.AddDomainEvent(NewIWOUpdatedEvent(w))
	return nil
}

// MarkDeleted records the deletion event
func (w *InternalWorkOrder) MarkDeleted() {
	w.AddDomainEvent(NewIWODeletedEvent(w))
}

// FindProduct returns the line for key
func (w *InternalWorkOrder) FindProduct(key ProductKey) (*IWOProduct, bool) {
	for i := range w.Products {
		if w.Products[i].Key() == key {
			return &w.Products[i], true
		}
	}
	return nil, false
}

// AllocatedFor returns the quantity this work order allocates for key
func (w *InternalWorkOrder) AllocatedFor(key ProductKey) int64 {
	if p, ok := w.FindProduct(key); ok {
		return p.Quantity
	}
	return 0
}

// DocumentLocators returns every stored document the work order refers to,
// at semi-finished and at step level
func (w *InternalWorkOrder) DocumentLocators() []string {
	var out []string
	for _, p := range w.Products {
		for _, s := range p.SemiFinishedItems {
			if s.Document != nil && s.Document.Locator != "" {
				out = append(out, s.Document.Locator)
			}
			for _, st := range s.Steps {
				if st.Document != nil && st.Document.Locator != "" {
					out = append(out, st.Document.Locator)
				}
			}
		}
	}
	return out
}

func validateIWOShape(from, to time.Time, products []IWOProduct, graph *ProcessGraph) ([]IWOProduct, error) {
	var details []shared.ValidationError
	if from.IsZero() {
		details = append(details, shared.ValidationError{Field: "date_from", Message: "is required"})
	}
	if to.IsZero() {
		details = append(details, shared.ValidationError{Field: "date_to", Message: "is required"})
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		details = append(details, shared.ValidationError{Field: "date_to", Message: "must not be before date_from"})
	}
	if len(products) == 0 {
		details = append(details, shared.ValidationError{Field: "products", Message: "must contain at least one product"})
	}

	seenKeys := make(map[ProductKey]bool, len(products))
	seenItems := make(map[string]bool)
	out := make([]IWOProduct, len(products))
	for i, p := range products {
		field := fmt.Sprintf("products[%d]", i)
		p.VariantCode = strings.TrimSpace(p.VariantCode)
		if p.ProductID == uuid.Nil {
			details = append(details, shared.ValidationError{Field: field + ".product_id", Message: "is required"})
		}
		if p.Quantity <= 0 {
			details = append(details, shared.ValidationError{Field: field + ".quantity", Message: "must be positive"})
		}
		if seenKeys[p.Key()] {
			details = append(details, shared.ValidationError{Field: field, Message: "duplicates another product and variant code"})
		}
		seenKeys[p.Key()] = true
		if len(p.SemiFinishedItems) == 0 {
			details = append(details, shared.ValidationError{Field: field + ".semi_finished_items", Message: "must contain at least one item"})
		}

		items := make([]SemiFinishedItem, len(p.SemiFinishedItems))
		for j, s := range p.SemiFinishedItems {
			itemField := fmt.Sprintf("%s.semi_finished_items[%d]", field, j)
			s.ID = strings.TrimSpace(s.ID)
			if s.ID == "" {
				details = append(details, shared.ValidationError{Field: itemField + ".id", Message: "is required"})
			} else if seenItems[s.ID] {
				details = append(details, shared.ValidationError{Field: itemField + ".id", Message: "duplicates another semi-finished item"})
			}
			seenItems[s.ID] = true
			if len(s.Steps) == 0 {
				details = append(details, shared.ValidationError{Field: itemField + ".steps", Message: "must contain at least one process step"})
			}

			steps := make([]ProcessStep, len(s.Steps))
			seenSteps := make(map[string]bool, len(s.Steps))
			for k, st := range s.Steps {
				st.Name = NormalizeProcessName(st.Name)
				if st.Name == "" {
					details = append(details, shared.ValidationError{Field: fmt.Sprintf("%s.steps[%d].name", itemField, k), Message: "is required"})
				} else if seenSteps[st.Name] {
					details = append(details, shared.ValidationError{Field: fmt.Sprintf("%s.steps[%d].name", itemField, k), Message: "repeats a process step"})
				}
				seenSteps[st.Name] = true
				steps[k] = st
			}
			s.Steps = steps
			items[j] = s
		}
		p.SemiFinishedItems = items
		out[i] = p
	}
	if len(details) > 0 {
		return nil, shared.NewValidationError(details...)
	}

	for _, p := range out {
		for _, s := range p.SemiFinishedItems {
			if err := graph.ValidateChain(s.StepNames()); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
