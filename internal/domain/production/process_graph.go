package production

import (
	"sort"
	"strings"

	"github.com/erp/production/internal/domain/shared"
)

// Process stage names of the fixed catalog
const (
	ProcessCutting    = "cutting"
	ProcessMachining  = "machining"
	ProcessAssembling = "assembling"
	ProcessGlazing    = "glazing"
)

// chainStart names the virtual predecessor of the first step in messages
const chainStart = "start"

// ProcessGraph is the fixed catalog of process stages and the order they may follow each other
type ProcessGraph struct {
	initial    map[string]bool
	successors map[string]map[string]bool
}

// NewProcessGraph builds a graph from the permissible first steps and,
// for every step, its permissible successors
func NewProcessGraph(initial []string, successors map[string][]string) *ProcessGraph {
	g := &ProcessGraph{
		initial:    make(map[string]bool, len(initial)),
		successors: make(map[string]map[string]bool, len(successors)),
	}
	for _, name := range initial {
		g.initial[NormalizeProcessName(name)] = true
	}
	for from, tos := range successors {
		set := make(map[string]bool, len(tos))
		for _, to := range tos {
			set[NormalizeProcessName(to)] = true
		}
		g.successors[NormalizeProcessName(from)] = set
	}
	return g
}

// DefaultProcessGraph returns the factory's process catalog
func DefaultProcessGraph() *ProcessGraph {
	return NewProcessGraph(
		[]string{ProcessCutting, ProcessMachining, ProcessAssembling},
		map[string][]string{
			ProcessCutting:    {ProcessMachining, ProcessAssembling, ProcessGlazing},
			ProcessMachining:  {ProcessAssembling, ProcessGlazing},
			ProcessAssembling: {ProcessGlazing},
			ProcessGlazing:    {},
		},
	)
}

// NormalizeProcessName canonicalizes a step name for comparison
func NormalizeProcessName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Allowed returns the steps that may follow prev, sorted.
// An empty prev asks for the permissible first steps.
func (g *ProcessGraph) Allowed(prev string) []string {
	set := g.initial
	if prev != "" {
		set = g.successors[NormalizeProcessName(prev)]
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CanFollow reports whether next may directly follow prev; an empty prev means chain start
func (g *ProcessGraph) CanFollow(prev, next string) bool {
	next = NormalizeProcessName(next)
	if prev == "" {
		return g.initial[next]
	}
	return g.successors[NormalizeProcessName(prev)][next]
}

// ValidateChain checks an ordered list of step names against the graph
func (g *ProcessGraph) ValidateChain(steps []string) error {
	if len(steps) == 0 {
		return shared.NewValidationError(shared.ValidationError{Field: "steps", Message: "must contain at least one process step"})
	}
	prev := ""
	for _, step := range steps {
		name := NormalizeProcessName(step)
		if !g.CanFollow(prev, name) {
			return newTransitionError(name, prev, g.Allowed(prev))
		}
		prev = name
	}
	return nil
}

func newTransitionError(step, prev string, allowed []string) error {
	from := prev
	if from == "" {
		from = chainStart
	}
	alternatives := "none"
	if len(allowed) > 0 {
		alternatives = strings.Join(allowed, ", ")
	}
	return shared.NewDomainErrorf(shared.CodeInvalidProcessTransition,
		"Process step %q cannot follow %q; allowed: %s", step, from, alternatives)
}
