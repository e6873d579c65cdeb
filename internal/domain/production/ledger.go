package production

import (
	"fmt"
	"time"

	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
)

// LedgerStatus is the state of one process step of one semi-finished item
type LedgerStatus string

// Ledger status values
const (
	LedgerStatusPending   LedgerStatus = "Pending"
	LedgerStatusBlocked   LedgerStatus = "Blocked"
	LedgerStatusCompleted LedgerStatus = "Completed"
)

// IsValid checks if the status is a known value
func (s LedgerStatus) IsValid() bool {
	switch s {
	case LedgerStatusPending, LedgerStatusBlocked, LedgerStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation
func (s LedgerStatus) String() string {
	return string(s)
}

// GatingMode decides whether later steps wait for their predecessor's output
type GatingMode string

// Gating modes
const (
	// GatingStrict blocks a step until its predecessor releases output to it
	GatingStrict GatingMode = "strict"
	// GatingAdvisory keeps every step Pending; release still feeds available quantity
	GatingAdvisory GatingMode = "advisory"
)

// IsValid checks if the mode is a known value
func (m GatingMode) IsValid() bool {
	return m == GatingStrict || m == GatingAdvisory
}

// StepPointer names a step and its position in the chain
type StepPointer struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// ProcessSequence links a record to its neighbours in the chain
type ProcessSequence struct {
	Current  StepPointer  `json:"current"`
	Previous *StepPointer `json:"previous,omitempty"`
	Next     *StepPointer `json:"next,omitempty"`
}

// IsFirst reports whether the record is the first step of its chain
func (s ProcessSequence) IsFirst() bool {
	return s.Previous == nil
}

// IsTerminal reports whether the record is the finishing step of its chain
func (s ProcessSequence) IsTerminal() bool {
	return s.Next == nil
}

// NewProcessSequence computes the pointers for position index within steps
func NewProcessSequence(steps []string, index int) ProcessSequence {
	seq := ProcessSequence{Current: StepPointer{Name: steps[index], Index: index}}
	if index > 0 {
		seq.Previous = &StepPointer{Name: steps[index-1], Index: index - 1}
	}
	if index < len(steps)-1 {
		seq.Next = &StepPointer{Name: steps[index+1], Index: index + 1}
	}
	return seq
}

// ProductSnapshot is the product line as it was when the record was written
type ProductSnapshot struct {
	ProductID         uuid.UUID `json:"product_id"`
	VariantCode       string    `json:"variant_code"`
	ProductName       string    `json:"product_name,omitempty"`
	Dimensions        string    `json:"dimensions,omitempty"`
	AllocatedQuantity int64     `json:"allocated_quantity"`
}

// LedgerKey identifies a record across re-planning of its work order
type LedgerKey struct {
	ProductKey
	SemiFinishedID string
	ProcessName    string
}

// ProcessLedgerRecord is the state machine of one process step of one semi-finished item
type ProcessLedgerRecord struct {
	shared.BaseAggregateRoot
	JobOrderID        uuid.UUID
	IWOID             uuid.UUID
	SemiFinishedID    string
	Product           ProductSnapshot
	ProcessName       string
	Sequence          ProcessSequence
	AvailableQuantity int64
	AchievedQuantity  int64
	RejectedQuantity  int64
	RecycledQuantity  int64
	Status            LedgerStatus
	shared.Actors
}

// Key returns the reconciliation key of the record
func (r *ProcessLedgerRecord) Key() LedgerKey {
	return LedgerKey{
		ProductKey:     NewProductKey(r.Product.ProductID, r.Product.VariantCode),
		SemiFinishedID: r.SemiFinishedID,
		ProcessName:    r.ProcessName,
	}
}

// Consumed returns how much of the available quantity has been processed
func (r *ProcessLedgerRecord) Consumed() int64 {
	return r.AchievedQuantity + r.RejectedQuantity
}

// Remaining returns how much available quantity has not been processed yet
func (r *ProcessLedgerRecord) Remaining() int64 {
	return r.AvailableQuantity - r.Consumed()
}

// ProductionReport carries counter increments reported by an operator
type ProductionReport struct {
	Achieved int64
	Rejected int64
	Recycled int64
}

// Validate checks the increments are non-negative and not all zero
func (p ProductionReport) Validate() error {
	var details []shared.ValidationError
	if p.Achieved < 0 {
		details = append(details, shared.ValidationError{Field: "achieved", Message: "must not be negative"})
	}
	if p.Rejected < 0 {
		details = append(details, shared.ValidationError{Field: "rejected", Message: "must not be negative"})
	}
	if p.Recycled < 0 {
		details = append(details, shared.ValidationError{Field: "recycled", Message: "must not be negative"})
	}
	if len(details) == 0 && p.Achieved == 0 && p.Rejected == 0 && p.Recycled == 0 {
		details = append(details, shared.ValidationError{Field: "achieved", Message: "at least one count must be positive"})
	}
	if len(details) > 0 {
		return shared.NewValidationError(details...)
	}
	return nil
}

// Report adds operator counts to the record.
// achieved plus rejected may never exceed the available quantity.
func (r *ProcessLedgerRecord) Report(rep ProductionReport, actor string) error {
	if err := rep.Validate(); err != nil {
		return err
	}
	switch r.Status {
	case LedgerStatusBlocked:
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Process step %s of %s is blocked until %s releases output", r.ProcessName, r.SemiFinishedID, r.previousName())
	case LedgerStatusCompleted:
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Process step %s of %s is already completed", r.ProcessName, r.SemiFinishedID)
	}
	if r.Consumed()+rep.Achieved+rep.Rejected > r.AvailableQuantity {
		return shared.NewDomainErrorf(shared.CodeQuantityExceeded,
			"Reported quantity exceeds available for %s step %s: available %d, already achieved %d, already rejected %d, reported %d, remaining %d",
			r.SemiFinishedID, r.ProcessName, r.AvailableQuantity, r.AchievedQuantity, r.RejectedQuantity,
			rep.Achieved+rep.Rejected, r.Remaining())
	}

	r.AchievedQuantity += rep.Achieved
	r.RejectedQuantity += rep.Rejected
	r.RecycledQuantity += rep.Recycled
	r.UpdatedBy = actor
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	r.AddDomainEvent(NewProductionReportedEvent(r, rep))
	return nil
}

// Release grants quantity produced by the predecessor to this step
func (r *ProcessLedgerRecord) Release(qty int64, actor string) {
	if qty <= 0 {
		return
	}
	r.AvailableQuantity += qty
	r.UpdatedBy = actor
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

func (r *ProcessLedgerRecord) previousName() string {
	if r.Sequence.Previous == nil {
		return chainStart
	}
	return r.Sequence.Previous.Name
}

// deriveStatus computes the status implied by the counters.
// A step is complete once everything released to it is processed and nothing more can arrive.
func deriveStatus(r *ProcessLedgerRecord, predecessorDone bool, mode GatingMode) LedgerStatus {
	first := r.Sequence.IsFirst()
	if r.AvailableQuantity > 0 && r.Consumed() >= r.AvailableQuantity && (first || predecessorDone) {
		return LedgerStatusCompleted
	}
	if mode == GatingStrict && !first && r.AvailableQuantity == 0 {
		return LedgerStatusBlocked
	}
	return LedgerStatusPending
}

// RefreshChainStatus recomputes statuses along a chain ordered by sequence index.
// It returns the records whose status changed.
func RefreshChainStatus(chain []*ProcessLedgerRecord, mode GatingMode) []*ProcessLedgerRecord {
	var changed []*ProcessLedgerRecord
	predecessorDone := true
	for _, r := range chain {
		next := deriveStatus(r, predecessorDone, mode)
		if next != r.Status {
			r.Status = next
			r.UpdatedAt = time.Now()
			changed = append(changed, r)
		}
		predecessorDone = r.Status == LedgerStatusCompleted
	}
	return changed
}

// BuildLedger creates one record per step of every semi-finished item of the work order.
// The first step receives the allocated quantity, later steps start empty.
func BuildLedger(iwo *InternalWorkOrder, mode GatingMode) []*ProcessLedgerRecord {
	var out []*ProcessLedgerRecord
	for _, p := range iwo.Products {
		for _, item := range p.SemiFinishedItems {
			out = append(out, buildChain(iwo, p, item, mode)...)
		}
	}
	return out
}

func buildChain(iwo *InternalWorkOrder, p IWOProduct, item SemiFinishedItem, mode GatingMode) []*ProcessLedgerRecord {
	names := item.StepNames()
	chain := make([]*ProcessLedgerRecord, len(names))
	for i := range names {
		chain[i] = newLedgerRecord(iwo, p, item.ID, names, i)
	}
	RefreshChainStatus(chain, mode)
	return chain
}

func newLedgerRecord(iwo *InternalWorkOrder, p IWOProduct, itemID string, steps []string, index int) *ProcessLedgerRecord {
	r := &ProcessLedgerRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		JobOrderID:        iwo.JobOrderID,
		IWOID:             iwo.ID,
		SemiFinishedID:    itemID,
		Product:           snapshotOf(p),
		ProcessName:       steps[index],
		Sequence:          NewProcessSequence(steps, index),
		Status:            LedgerStatusPending,
		Actors:            shared.Actors{CreatedBy: iwo.UpdatedBy, UpdatedBy: iwo.UpdatedBy},
	}
	if index == 0 {
		r.AvailableQuantity = p.Quantity
	}
	return r
}

func snapshotOf(p IWOProduct) ProductSnapshot {
	return ProductSnapshot{
		ProductID:         p.ProductID,
		VariantCode:       p.VariantCode,
		ProductName:       p.ProductName,
		Dimensions:        p.Dimensions,
		AllocatedQuantity: p.Quantity,
	}
}

// LedgerPlan lists the writes that bring stored records in line with a revised work order
type LedgerPlan struct {
	Insert []*ProcessLedgerRecord
	Update []*ProcessLedgerRecord
	Delete []*ProcessLedgerRecord
}

// IsEmpty reports whether the plan writes nothing
func (p LedgerPlan) IsEmpty() bool {
	return len(p.Insert) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// ReconcileLedger matches existing records to the revised work order by
// (product, code, semi-finished item, step). Matches are updated in place and
// keep their counters, unmatched old records are deleted, new keys are inserted.
// Output already released along a reshaped chain follows the new step order.
func ReconcileLedger(iwo *InternalWorkOrder, existing []*ProcessLedgerRecord, mode GatingMode) (LedgerPlan, error) {
	byKey := make(map[LedgerKey]*ProcessLedgerRecord, len(existing))
	for _, r := range existing {
		byKey[r.Key()] = r
	}

	var plan LedgerPlan
	kept := make(map[uuid.UUID]bool, len(existing))
	for _, p := range iwo.Products {
		snap := snapshotOf(p)
		for _, item := range p.SemiFinishedItems {
			names := item.StepNames()
			chain := make([]*ProcessLedgerRecord, len(names))
			var touched []*ProcessLedgerRecord
			for i, name := range names {
				key := LedgerKey{ProductKey: p.Key(), SemiFinishedID: item.ID, ProcessName: name}
				r, ok := byKey[key]
				if !ok {
					r = newLedgerRecord(iwo, p, item.ID, names, i)
					plan.Insert = append(plan.Insert, r)
					chain[i] = r
					continue
				}
				kept[r.ID] = true
				if reviseRecord(r, snap, NewProcessSequence(names, i), iwo.UpdatedBy) {
					touched = append(touched, r)
				}
				if r.Sequence.IsFirst() && r.AvailableQuantity < r.Consumed() {
					return LedgerPlan{}, shared.NewDomainErrorf(shared.CodeQuantityExceeded,
						"Cannot allocate %d of product %s code %s to %s: step %s already processed %d",
						p.Quantity, p.ProductID, p.VariantCode, item.ID, r.ProcessName, r.Consumed())
				}
				chain[i] = r
			}
			touched = append(touched, rerouteReleased(chain, iwo.UpdatedBy)...)
			touched = append(touched, RefreshChainStatus(chain, mode)...)
			plan.Update = appendUnique(plan.Update, touched, plan.Insert)
		}
	}
	for _, r := range existing {
		if !kept[r.ID] {
			plan.Delete = append(plan.Delete, r)
		}
	}
	return plan, nil
}

// rerouteReleased makes every later step hold what its predecessor achieved,
// never less than the step already processed. A step inserted mid-chain takes
// over the unprocessed units its successor had received; a removed step hands
// its unprocessed units on. It returns the kept records it changed.
func rerouteReleased(chain []*ProcessLedgerRecord, actor string) []*ProcessLedgerRecord {
	var changed []*ProcessLedgerRecord
	for i := 1; i < len(chain); i++ {
		r := chain[i]
		want := chain[i-1].AchievedQuantity
		if consumed := r.Consumed(); consumed > want {
			want = consumed
		}
		if r.AvailableQuantity == want {
			continue
		}
		r.AvailableQuantity = want
		r.UpdatedBy = actor
		r.UpdatedAt = time.Now()
		changed = append(changed, r)
	}
	return changed
}

// reviseRecord refreshes snapshot and pointers of a kept record and reports whether anything changed
func reviseRecord(r *ProcessLedgerRecord, snap ProductSnapshot, seq ProcessSequence, actor string) bool {
	changed := false
	if r.Product != snap {
		r.Product = snap
		changed = true
	}
	if !sameSequence(r.Sequence, seq) {
		wasFirst := r.Sequence.IsFirst()
		r.Sequence = seq
		if wasFirst && !seq.IsFirst() {
			// no longer fed by the allocation; keep only what was already processed
			r.AvailableQuantity = r.Consumed()
		}
		changed = true
	}
	if seq.IsFirst() && r.AvailableQuantity != snap.AllocatedQuantity {
		r.AvailableQuantity = snap.AllocatedQuantity
		changed = true
	}
	if changed {
		r.UpdatedBy = actor
		r.UpdatedAt = time.Now()
		r.IncrementVersion()
	}
	return changed
}

func sameSequence(a, b ProcessSequence) bool {
	return a.Current == b.Current && samePointer(a.Previous, b.Previous) && samePointer(a.Next, b.Next)
}

func samePointer(a, b *StepPointer) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func appendUnique(dst, add, exclude []*ProcessLedgerRecord) []*ProcessLedgerRecord {
	seen := make(map[uuid.UUID]bool, len(dst)+len(exclude))
	for _, r := range dst {
		seen[r.ID] = true
	}
	for _, r := range exclude {
		seen[r.ID] = true
	}
	for _, r := range add {
		if !seen[r.ID] {
			dst = append(dst, r)
			seen[r.ID] = true
		}
	}
	return dst
}

// String renders the record for logs
func (r *ProcessLedgerRecord) String() string {
	return fmt.Sprintf("%s/%s#%d[%s]", r.SemiFinishedID, r.ProcessName, r.Sequence.Current.Index, r.Status)
}

// ReportOnChain applies rep to the record with id inside chain (ordered by
// sequence index), releases its achieved output to the next step and
// refreshes statuses. It returns every record that must be persisted.
func ReportOnChain(chain []*ProcessLedgerRecord, id uuid.UUID, rep ProductionReport, actor string, mode GatingMode) ([]*ProcessLedgerRecord, error) {
	pos := -1
	for i, r := range chain {
		if r.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, shared.ErrNotFound
	}

	target := chain[pos]
	if err := target.Report(rep, actor); err != nil {
		return nil, err
	}
	dirty := []*ProcessLedgerRecord{target}
	if pos+1 < len(chain) && rep.Achieved > 0 {
		chain[pos+1].Release(rep.Achieved, actor)
		dirty = append(dirty, chain[pos+1])
	}
	dirty = appendUnique(dirty, RefreshChainStatus(chain, mode), nil)
	return dirty, nil
}
