// Package production models how a job order's quantity pool is allocated
// into internal work orders and tracked through the process ledger.
package production

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductKey identifies one (product, variant code) pair of a job order
type ProductKey struct {
	ProductID   uuid.UUID
	VariantCode string
}

// String renders the key for messages
func (k ProductKey) String() string {
	return fmt.Sprintf("%s/%s", k.ProductID, k.VariantCode)
}

// NewProductKey creates a key with a normalized variant code
func NewProductKey(productID uuid.UUID, variantCode string) ProductKey {
	return ProductKey{ProductID: productID, VariantCode: strings.TrimSpace(variantCode)}
}

// JobOrderProduct is one ordered line of a job order
type JobOrderProduct struct {
	ProductID       uuid.UUID
	ProductName     string
	VariantCode     string
	OrderedQuantity int64
	Dimensions      string
}

// Key returns the product key of the line
func (p JobOrderProduct) Key() ProductKey {
	return NewProductKey(p.ProductID, p.VariantCode)
}

// JobOrder is the immutable pool of ordered quantity per product and variant code.
// It is owned by the work order system and only synchronized here.
type JobOrder struct {
	shared.BaseAggregateRoot
	Number          string
	WorkOrderID     *uuid.UUID
	WorkOrderNumber string
	ClientName      string
	ProjectName     string
	Products        []JobOrderProduct
}

// NewJobOrder creates a job order with the id assigned by the work order system
func NewJobOrder(id uuid.UUID, number string, products []JobOrderProduct) (*JobOrder, error) {
	if id == uuid.Nil {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "id", Message: "is required"})
	}
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewValidationError(shared.ValidationError{Field: "number", Message: "is required"})
	}
	if err := validateJobOrderProducts(products); err != nil {
		return nil, err
	}

	jo := &JobOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            strings.TrimSpace(number),
		Products:          normalizeJobOrderProducts(products),
	}
	jo.ID = id
	return jo, nil
}

// SetWorkOrder links the job order to the work order it was derived from
func (j *JobOrder) SetWorkOrder(id *uuid.UUID, number string) {
	j.WorkOrderID = id
	j.WorkOrderNumber = strings.TrimSpace(number)
}

// SetParties records the client and project names for display
func (j *JobOrder) SetParties(clientName, projectName string) {
	j.ClientName = strings.TrimSpace(clientName)
	j.ProjectName = strings.TrimSpace(projectName)
}

// Resync replaces number and products with a newer copy from the work order system.
// allocated holds the quantity already committed by internal work orders per key;
// an ordered quantity may not drop below it and an allocated pair may not disappear.
func (j *JobOrder) Resync(number string, products []JobOrderProduct, allocated map[ProductKey]int64) error {
	if strings.TrimSpace(number) == "" {
		return shared.NewValidationError(shared.ValidationError{Field: "number", Message: "is required"})
	}
	if err := validateJobOrderProducts(products); err != nil {
		return err
	}
	normalized := normalizeJobOrderProducts(products)

	next := make(map[ProductKey]int64, len(normalized))
	for _, p := range normalized {
		next[p.Key()] = p.OrderedQuantity
	}
	for key, qty := range allocated {
		if qty <= 0 {
			continue
		}
		ordered := next[key]
		if ordered < qty {
			return shared.NewDomainErrorf(shared.CodeQuantityExceeded,
				"Cannot reduce ordered quantity of product %s code %s to %d: %d already allocated",
				key.ProductID, key.VariantCode, ordered, qty)
		}
	}

	j.Number = strings.TrimSpace(number)
	j.Products = normalized
	j.UpdatedAt = time.Now()
	j.IncrementVersion()
	return nil
}

// FindProduct returns the ordered line for key
func (j *JobOrder) FindProduct(key ProductKey) (*JobOrderProduct, bool) {
	for i := range j.Products {
		if j.Products[i].Key() == key {
			return &j.Products[i], true
		}
	}
	return nil, false
}

// OrderedQuantity returns the ordered quantity for key, or false if the pair is not ordered
func (j *JobOrder) OrderedQuantity(key ProductKey) (int64, bool) {
	p, ok := j.FindProduct(key)
	if !ok {
		return 0, false
	}
	return p.OrderedQuantity, true
}

func validateJobOrderProducts(products []JobOrderProduct) error {
	var details []shared.ValidationError
	if len(products) == 0 {
		details = append(details, shared.ValidationError{Field: "products", Message: "must contain at least one product"})
	}
	seen := make(map[ProductKey]bool, len(products))
	for i, p := range products {
		field := fmt.Sprintf("products[%d]", i)
		if p.ProductID == uuid.Nil {
			details = append(details, shared.ValidationError{Field: field + ".product_id", Message: "is required"})
		}
		if p.OrderedQuantity < 0 {
			details = append(details, shared.ValidationError{Field: field + ".ordered_quantity", Message: "must not be negative"})
		}
		key := p.Key()
		if seen[key] {
			details = append(details, shared.ValidationError{Field: field, Message: "duplicates another product and variant code"})
		}
		seen[key] = true
	}
	if len(details) > 0 {
		return shared.NewValidationError(details...)
	}
	return nil
}

func normalizeJobOrderProducts(products []JobOrderProduct) []JobOrderProduct {
	out := make([]JobOrderProduct, len(products))
	for i, p := range products {
		p.VariantCode = strings.TrimSpace(p.VariantCode)
		p.ProductName = strings.TrimSpace(p.ProductName)
		out[i] = p
	}
	return out
}
