package production

import (
	"github.com/erp/production/internal/domain/shared"
)

// AllocationCheck is the outcome of comparing a requested allocation with a job order's pool
type AllocationCheck struct {
	Key              ProductKey
	Ordered          int64
	AlreadyAllocated int64
	Requested        int64
}

// MaxAllowed returns how much more may still be allocated for the key
func (c AllocationCheck) MaxAllowed() int64 {
	remaining := c.Ordered - c.AlreadyAllocated
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Exceeded reports whether the request would overshoot the pool
func (c AllocationCheck) Exceeded() bool {
	return c.AlreadyAllocated+c.Requested > c.Ordered
}

// CheckAllocation verifies that requested fits into what the job order still has
// for key once alreadyAllocated (other work orders' share) is taken out.
func CheckAllocation(jo *JobOrder, key ProductKey, alreadyAllocated, requested int64) (AllocationCheck, error) {
	ordered, ok := jo.OrderedQuantity(key)
	if !ok {
		return AllocationCheck{}, shared.NewDomainErrorf(shared.CodeNotFound,
			"Product %s code %s is not part of job order %s", key.ProductID, key.VariantCode, jo.Number)
	}
	check := AllocationCheck{
		Key:              key,
		Ordered:          ordered,
		AlreadyAllocated: alreadyAllocated,
		Requested:        requested,
	}
	if check.Exceeded() {
		return check, shared.NewDomainErrorf(shared.CodeQuantityExceeded,
			"Quantity exceeded for product %s code %s: ordered %d, already allocated %d, requested %d, maximum further allowed %d",
			key.ProductID, key.VariantCode, check.Ordered, check.AlreadyAllocated, check.Requested, check.MaxAllowed())
	}
	return check, nil
}

// AllocationSummary reports the pool state of one job order line
type AllocationSummary struct {
	JobOrderProduct
	Allocated int64
}

// Remaining returns the unallocated part of the line
func (s AllocationSummary) Remaining() int64 {
	if s.Allocated >= s.OrderedQuantity {
		return 0
	}
	return s.OrderedQuantity - s.Allocated
}

// SummarizeAllocation pairs each job order line with its allocated total
func SummarizeAllocation(jo *JobOrder, allocated map[ProductKey]int64) []AllocationSummary {
	out := make([]AllocationSummary, len(jo.Products))
	for i, p := range jo.Products {
		out[i] = AllocationSummary{JobOrderProduct: p, Allocated: allocated[p.Key()]}
	}
	return out
}
