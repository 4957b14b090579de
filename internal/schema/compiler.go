package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"strings"

	"github.com/mmrzaf/magicgen/internal/domain"
	"github.com/mmrzaf/magicgen/internal/generators"
)

// Field is a compiled schema entry.
type Field struct {
	Spec      domain.FieldSpec
	Generator generators.Generator
	key       []byte
}

// Generator produces records for one compiled schema. It is immutable and
// safe for concurrent use as long as each caller brings its own rng.
type Generator struct {
	fields []Field
}

// CompileError lists every field that failed to compile.
type CompileError struct {
	Errors []*domain.SchemaError
}

func (e *CompileError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "invalid schema: " + strings.Join(msgs, "; ")
}

func (e *CompileError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// ParseFieldSpec splits "<type>:<spec>" on the first colon.
func ParseFieldSpec(name, raw string) (domain.FieldSpec, error) {
	typ, spec, ok := strings.Cut(raw, ":")
	if !ok {
		return domain.FieldSpec{}, &domain.SchemaError{
			Field:  name,
			Spec:   raw,
			Reason: generators.ReasonMissingSeparator,
			Msg:    `expected "<type>:<spec>"`,
		}
	}
	return domain.FieldSpec{Name: name, Type: domain.FieldType(typ), RawSpec: spec}, nil
}

// Compile builds a Generator from doc. Either every field compiles or a
// *CompileError describing all failures is returned.
func Compile(doc Document) (*Generator, error) {
	fields := make([]Field, 0, len(doc))
	var failed []*domain.SchemaError

	for _, entry := range doc {
		spec, err := ParseFieldSpec(entry.Name, entry.Spec)
		if err == nil {
			var gen generators.Generator
			gen, err = generators.Parse(spec.Type, spec.RawSpec)
			if err == nil {
				key, _ := json.Marshal(entry.Name)
				fields = append(fields, Field{Spec: spec, Generator: gen, key: key})
				continue
			}
		}

		var se *domain.SchemaError
		if !errors.As(err, &se) {
			se = &domain.SchemaError{Reason: "invalid", Msg: err.Error()}
		}
		se.Field = entry.Name
		failed = append(failed, se)
	}

	if len(failed) > 0 {
		return nil, &CompileError{Errors: failed}
	}
	return &Generator{fields: fields}, nil
}

// CompileMap compiles a plain mapping in sorted field order.
func CompileMap(m map[string]string) (*Generator, error) {
	return Compile(DocumentFromMap(m))
}

func (g *Generator) Fields() []Field {
	out := make([]Field, len(g.fields))
	copy(out, g.fields)
	return out
}

func (g *Generator) FieldNames() []string {
	names := make([]string, len(g.fields))
	for i, f := range g.fields {
		names[i] = f.Spec.Name
	}
	return names
}

// Record returns one generated value per field.
func (g *Generator) Record(rng *rand.Rand) map[string]any {
	rec := make(map[string]any, len(g.fields))
	for _, f := range g.fields {
		rec[f.Spec.Name] = f.Generator.Generate(rng)
	}
	return rec
}

// Line returns one record as a single-line JSON object in field order.
func (g *Generator) Line(rng *rand.Rand) []byte {
	return g.AppendLine(nil, rng)
}

// AppendLine appends one record to buf, without a trailing newline.
func (g *Generator) AppendLine(buf []byte, rng *rand.Rand) []byte {
	buf = append(buf, '{')
	for i, f := range g.fields {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, f.key...)
		buf = append(buf, ':')
		buf = appendValue(buf, f.Generator.Generate(rng))
	}
	return append(buf, '}')
}

func appendValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case nil:
		return append(buf, "null"...)
	case int64:
		return strconv.AppendInt(buf, val, 10)
	case float64:
		start := len(buf)
		buf = strconv.AppendFloat(buf, val, 'f', -1, 64)
		// keep whole-second timestamps typed as floats
		if !bytes.ContainsAny(buf[start:], ".eE") {
			buf = append(buf, ".0"...)
		}
		return buf
	default:
		b, _ := json.Marshal(val)
		return append(buf, b...)
	}
}
