package generators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/mmrzaf/magicgen/internal/domain"
)

const randToken = "rand"

var randRangeRe = regexp.MustCompile(`^rand\((\d+), ?(\d+)\)$`)

// Parse builds the generator described by spec for a field of the given type.
//
//	timestamp:             current time
//	str: / int:            type default constant
//	str:rand               uuid4 string
//	int:rand, rand(a, b)   uniform integer, [0, 10000] by default
//	str:['a','b'], int:[1,2]
//	str:cat, int:10        constant
func Parse(fieldType domain.FieldType, spec string) (Generator, error) {
	var (
		gen Generator
		err error
	)
	switch fieldType {
	case domain.FieldTypeTimestamp:
		if spec != "" {
			err = specError(ReasonTimestampSpec, "", "timestamp fields take no spec")
		} else {
			gen = NewTimestamp()
		}
	case domain.FieldTypeString:
		gen, err = parseString(spec)
	case domain.FieldTypeInt:
		gen, err = parseInt(spec)
	default:
		err = specError(ReasonUnknownType, "", fmt.Sprintf("unknown field type %q", fieldType))
	}

	if err != nil {
		var se *domain.SchemaError
		if errors.As(err, &se) && se.Spec == "" {
			se.Spec = spec
		}
		return nil, err
	}
	return gen, nil
}

func parseString(spec string) (Generator, error) {
	switch {
	case spec == "":
		return constOrErr(domain.FieldTypeString, nil)
	case spec == randToken:
		return NewRandomString(), nil
	case strings.HasPrefix(spec, randToken):
		return nil, specError(ReasonRandomSuffix, "", `random strings take no arguments, use "rand"`)
	case isList(spec):
		values, err := decodeList(strings.ReplaceAll(spec, "'", `"`))
		if err != nil {
			return nil, err
		}
		return listOrErr(domain.FieldTypeString, values)
	default:
		return constOrErr(domain.FieldTypeString, spec)
	}
}

func parseInt(spec string) (Generator, error) {
	switch {
	case spec == "":
		return constOrErr(domain.FieldTypeInt, nil)
	case spec == randToken:
		return rangeOrErr(DefaultRangeMin, DefaultRangeMax)
	case strings.HasPrefix(spec, randToken):
		m := randRangeRe.FindStringSubmatch(spec)
		if m == nil {
			return nil, specError(ReasonInvalidRange, "", "expected rand(min, max) with non-negative integers")
		}
		min, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, specError(ReasonInvalidRange, "", fmt.Sprintf("min: %v", err))
		}
		max, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, specError(ReasonInvalidRange, "", fmt.Sprintf("max: %v", err))
		}
		return rangeOrErr(min, max)
	case isList(spec):
		values, err := decodeList(spec)
		if err != nil {
			return nil, err
		}
		return listOrErr(domain.FieldTypeInt, values)
	default:
		n, err := strconv.ParseInt(strings.TrimSpace(spec), 10, 64)
		if err != nil {
			return nil, specError(ReasonInvalidConst, "", "not an integer")
		}
		return constOrErr(domain.FieldTypeInt, n)
	}
}

func isList(spec string) bool {
	return strings.HasPrefix(spec, "[") && strings.HasSuffix(spec, "]")
}

// decodeList parses a JSON array, keeping integers as int64 and other
// numbers as float64 so element type checks can reject them.
func decodeList(s string) ([]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, specError(ReasonInvalidList, "", err.Error())
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, specError(ReasonInvalidList, "", "unexpected data after list")
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, specError(ReasonInvalidList, "", "not a list")
	}
	for i, item := range items {
		num, ok := item.(json.Number)
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(num.String(), 10, 64); err == nil {
			items[i] = n
		} else if f, err := num.Float64(); err == nil {
			items[i] = f
		}
	}
	return items, nil
}

func constOrErr(fieldType domain.FieldType, value any) (Generator, error) {
	g, err := NewConst(fieldType, value)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func rangeOrErr(min, max int64) (Generator, error) {
	g, err := NewRange(min, max)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func listOrErr(fieldType domain.FieldType, values []any) (Generator, error) {
	g, err := NewList(fieldType, values)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func specError(reason, spec, msg string) *domain.SchemaError {
	return &domain.SchemaError{Reason: reason, Spec: spec, Msg: msg}
}
