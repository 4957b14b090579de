package generators

import (
	"math/rand"
)

type Kind int

const (
	KindConst Kind = iota
	KindTimestamp
	KindRange
	KindList
	KindRandomString
)

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "const"
	case KindTimestamp:
		return "timestamp"
	case KindRange:
		return "range"
	case KindList:
		return "list"
	case KindRandomString:
		return "random_string"
	default:
		return "unknown"
	}
}

// Generator produces one scalar per call: string, int64, float64 or nil.
// The set of implementations is closed to this package.
type Generator interface {
	Kind() Kind
	Generate(rng *rand.Rand) any
	sealed()
}

// Reason codes carried by SchemaError.
const (
	ReasonUnknownType      = "unknown_type"
	ReasonInvalidConst     = "invalid_const"
	ReasonInvalidRange     = "invalid_range"
	ReasonInvertedRange    = "inverted_range"
	ReasonInvalidList      = "invalid_list"
	ReasonEmptyList        = "empty_list"
	ReasonMixedList        = "mixed_list"
	ReasonRandomSuffix     = "invalid_random_string"
	ReasonTimestampSpec    = "timestamp_spec_not_empty"
	ReasonMissingSeparator = "missing_type_separator"
)
