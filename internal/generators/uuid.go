package generators

import (
	"math/rand"

	"github.com/google/uuid"
)

type RandomStrGenerator struct{}

func NewRandomString() *RandomStrGenerator { return &RandomStrGenerator{} }

func (g *RandomStrGenerator) Kind() Kind { return KindRandomString }

func (g *RandomStrGenerator) Generate(rng *rand.Rand) any {
	return NewUUID4(rng)
}

func (g *RandomStrGenerator) sealed() {}

// NewUUID4 builds a version 4 UUID from rng instead of the global crypto
// reader, so each worker draws from its own source.
func NewUUID4(rng *rand.Rand) string {
	u, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		// math/rand readers never fail
		panic(err)
	}
	return u.String()
}
