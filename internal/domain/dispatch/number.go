package dispatch

import (
	"context"
	"math/rand/v2"
	"strconv"

	"github.com/erp/production/internal/domain/shared"
)

// Shipment numbers are 4-digit values in [minNumber, maxNumber]
const (
	minNumber          = 1000
	maxNumber          = 9999
	defaultMaxAttempts = 50
)

// NumberExists reports whether a candidate number is already used
type NumberExists func(ctx context.Context, number string) (bool, error)

// NumberGenerator samples random 4-digit numbers until one is unused
type NumberGenerator struct {
	intN        func(n int) int
	maxAttempts int
}

// NumberGeneratorOption configures a NumberGenerator
type NumberGeneratorOption func(*NumberGenerator)

// WithRandomSource replaces the random source; intN must return a value in [0, n)
func WithRandomSource(intN func(n int) int) NumberGeneratorOption {
	return func(g *NumberGenerator) {
		if intN != nil {
			g.intN = intN
		}
	}
}

// WithMaxAttempts bounds how many samples are drawn before giving up
func WithMaxAttempts(n int) NumberGeneratorOption {
	return func(g *NumberGenerator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// NewNumberGenerator creates a generator
func NewNumberGenerator(opts ...NumberGeneratorOption) *NumberGenerator {
	g := &NumberGenerator{
		intN:        rand.IntN,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxAttempts returns the configured attempt bound
func (g *NumberGenerator) MaxAttempts() int {
	return g.maxAttempts
}

// Next returns a number for which exists reports false
func (g *NumberGenerator) Next(ctx context.Context, exists NumberExists) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate := strconv.Itoa(minNumber + g.intN(maxNumber-minNumber+1))
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", shared.NewDomainErrorf(shared.CodeConflict,
		"Could not find a free shipment number after %d attempts", g.maxAttempts)
}
