package generators

import (
	"fmt"
	"math/rand"

	"github.com/mmrzaf/magicgen/internal/domain"
)

// ListGenerator picks uniformly among distinct values. Duplicates in the
// source list collapse, so they carry no extra weight.
type ListGenerator struct {
	fieldType domain.FieldType
	values    []any
}

func NewList(fieldType domain.FieldType, values []any) (*ListGenerator, error) {
	if len(values) == 0 {
		return nil, specError(ReasonEmptyList, "", "list must contain at least one value")
	}

	seen := make(map[any]struct{}, len(values))
	distinct := make([]any, 0, len(values))
	for i, v := range values {
		switch fieldType {
		case domain.FieldTypeString:
			if _, ok := v.(string); !ok {
				return nil, specError(ReasonMixedList, "", fmt.Sprintf("element %d: expected string, got %T", i, v))
			}
		case domain.FieldTypeInt:
			if _, ok := v.(int64); !ok {
				return nil, specError(ReasonMixedList, "", fmt.Sprintf("element %d: expected integer, got %T", i, v))
			}
		default:
			return nil, specError(ReasonInvalidList, "", fmt.Sprintf("lists are not supported for type %s", fieldType))
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}

	return &ListGenerator{fieldType: fieldType, values: distinct}, nil
}

func (g *ListGenerator) Kind() Kind { return KindList }

func (g *ListGenerator) Generate(rng *rand.Rand) any {
	return g.values[rng.Intn(len(g.values))]
}

func (g *ListGenerator) Values() []any {
	out := make([]any, len(g.values))
	copy(out, g.values)
	return out
}

func (g *ListGenerator) sealed() {}
