package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/mmrzaf/magicgen/internal/domain"
)

// Entry is one "name": "<type>:<spec>" pair of a schema document.
type Entry struct {
	Name string
	Spec string
}

// Document is a schema in declared order.
type Document []Entry

// DocumentFromMap orders entries by field name.
func DocumentFromMap(m map[string]string) Document {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	doc := make(Document, 0, len(names))
	for _, name := range names {
		doc = append(doc, Entry{Name: name, Spec: m[name]})
	}
	return doc
}

func (d Document) Map() map[string]string {
	m := make(map[string]string, len(d))
	for _, e := range d {
		m[e.Name] = e.Spec
	}
	return m
}

// ParseJSON decodes a JSON object of string values, keeping key order.
func ParseJSON(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, documentError("invalid json: %v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, documentError("schema must be a json object")
	}

	doc := make(Document, 0)
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, documentError("invalid json: %v", err)
		}
		name := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, documentError("invalid json: %v", err)
		}
		var spec string
		if err := json.Unmarshal(raw, &spec); err != nil {
			return nil, &domain.SchemaError{Field: name, Reason: "invalid_document", Msg: "field spec must be a string"}
		}
		if seen[name] {
			return nil, &domain.SchemaError{Field: name, Reason: "invalid_document", Msg: "duplicate field"}
		}
		seen[name] = true
		doc = append(doc, Entry{Name: name, Spec: spec})
	}

	if _, err := dec.Token(); err != nil {
		return nil, documentError("invalid json: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, documentError("unexpected data after schema object")
	}
	return doc, nil
}

// ParseYAML decodes a YAML mapping of string values, keeping key order.
func ParseYAML(data []byte) (Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, documentError("invalid yaml: %v", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, documentError("empty yaml document")
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, documentError("schema must be a yaml mapping")
	}

	doc := make(Document, 0, len(mapping.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, val := mapping.Content[i], mapping.Content[i+1]
		name := key.Value
		if val.Kind != yaml.ScalarNode || val.Tag != "!!str" {
			return nil, &domain.SchemaError{Field: name, Reason: "invalid_document", Msg: "field spec must be a string"}
		}
		if seen[name] {
			return nil, &domain.SchemaError{Field: name, Reason: "invalid_document", Msg: "duplicate field"}
		}
		seen[name] = true
		doc = append(doc, Entry{Name: name, Spec: val.Value})
	}
	return doc, nil
}

func documentError(format string, args ...any) *domain.SchemaError {
	return &domain.SchemaError{Reason: "invalid_document", Msg: fmt.Sprintf(format, args...)}
}
