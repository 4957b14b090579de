package generators

import (
	"math/rand"
	"time"
)

// TimestampGenerator returns the current time as fractional seconds since
// the Unix epoch, with microsecond precision.
type TimestampGenerator struct {
	now func() time.Time
}

func NewTimestamp() *TimestampGenerator {
	return &TimestampGenerator{now: time.Now}
}

// NewTimestampWithClock is NewTimestamp with a fixed clock, for tests.
func NewTimestampWithClock(now func() time.Time) *TimestampGenerator {
	return &TimestampGenerator{now: now}
}

func (g *TimestampGenerator) Kind() Kind { return KindTimestamp }

func (g *TimestampGenerator) Generate(rng *rand.Rand) any {
	return float64(g.now().UnixMicro()) / 1e6
}

func (g *TimestampGenerator) sealed() {}
