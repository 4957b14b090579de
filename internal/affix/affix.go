// Package affix allocates the unique filename suffixes of a sharded run.
package affix

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/mmrzaf/magicgen/internal/domain"
	"github.com/mmrzaf/magicgen/internal/generators"
)

const randomBytes = 16

// Allocate returns count distinct affixes for strategy. Count strategy
// affixes are zero-padded to the width of count-1 and returned in order.
func Allocate(rng *rand.Rand, strategy domain.AffixStrategy, count int) ([]string, error) {
	if count < 1 {
		return nil, domain.NewConfigError("count", "affixes need a positive count, got %d", count)
	}

	switch strategy {
	case domain.AffixCount:
		width := len(strconv.Itoa(count - 1))
		out := make([]string, count)
		for i := range out {
			out[i] = fmt.Sprintf("%0*d", width, i)
		}
		return out, nil
	case domain.AffixRandom:
		return distinct(count, func() string {
			var b [randomBytes]byte
			rng.Read(b[:])
			return hex.EncodeToString(b[:])
		}), nil
	case domain.AffixUUID:
		return distinct(count, func() string {
			return generators.NewUUID4(rng)
		}), nil
	default:
		return nil, domain.NewConfigError("affix", "unknown affix strategy %q", strategy)
	}
}

// IsValidStrategy reports whether s names a known strategy.
func IsValidStrategy(s domain.AffixStrategy) bool {
	switch s {
	case domain.AffixCount, domain.AffixRandom, domain.AffixUUID:
		return true
	default:
		return false
	}
}

func distinct(count int, next func() string) []string {
	seen := make(map[string]struct{}, count)
	out := make([]string, 0, count)
	for len(out) < count {
		v := next()
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
