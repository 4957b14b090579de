package generators

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	DefaultRangeMin int64 = 0
	DefaultRangeMax int64 = 10_000
)

// RangeGenerator samples uniformly from [min, max], both ends inclusive.
type RangeGenerator struct {
	min int64
	max int64
}

func NewRange(min, max int64) (*RangeGenerator, error) {
	if min > max {
		return nil, specError(ReasonInvertedRange, "", fmt.Sprintf("min (%d) must not be greater than max (%d)", min, max))
	}
	return &RangeGenerator{min: min, max: max}, nil
}

func (g *RangeGenerator) Kind() Kind { return KindRange }

func (g *RangeGenerator) Generate(rng *rand.Rand) any {
	span := uint64(g.max-g.min) + 1
	if span == 0 {
		return int64(rng.Uint64())
	}
	if span > math.MaxInt64 {
		return g.min + int64(rng.Uint64()%span)
	}
	return g.min + rng.Int63n(int64(span))
}

func (g *RangeGenerator) Bounds() (int64, int64) { return g.min, g.max }

func (g *RangeGenerator) sealed() {}
