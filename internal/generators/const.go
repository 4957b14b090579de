package generators

import (
	"fmt"
	"math/rand"

	"github.com/mmrzaf/magicgen/internal/domain"
)

type ConstGenerator struct {
	fieldType domain.FieldType
	value     any
}

// NewConst accepts a string for str fields and an int64 for int fields.
// A nil value selects the type default: "" for str, null for int.
func NewConst(fieldType domain.FieldType, value any) (*ConstGenerator, error) {
	switch fieldType {
	case domain.FieldTypeString:
		if value == nil {
			value = ""
		}
		if _, ok := value.(string); !ok {
			return nil, specError(ReasonInvalidConst, "", fmt.Sprintf("str constant must be a string, got %T", value))
		}
	case domain.FieldTypeInt:
		if value != nil {
			if _, ok := value.(int64); !ok {
				return nil, specError(ReasonInvalidConst, "", fmt.Sprintf("int constant must be an integer, got %T", value))
			}
		}
	default:
		return nil, specError(ReasonInvalidConst, "", fmt.Sprintf("constants are not supported for type %s", fieldType))
	}
	return &ConstGenerator{fieldType: fieldType, value: value}, nil
}

func (g *ConstGenerator) Kind() Kind { return KindConst }

func (g *ConstGenerator) Generate(rng *rand.Rand) any { return g.value }

func (g *ConstGenerator) Value() any { return g.value }

func (g *ConstGenerator) sealed() {}
