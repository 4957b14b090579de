package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/mmrzaf/magicgen/internal/schema"
)

// HashSchema fingerprints a schema document. Field order is part of the
// identity because it is the key order of every emitted line.
func HashSchema(doc schema.Document) (string, error) {
	data, err := json.Marshal(canonicalizeSchema(doc))
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

func canonicalizeSchema(doc schema.Document) []map[string]interface{} {
	fields := make([]map[string]interface{}, len(doc))
	for i, entry := range doc {
		fields[i] = map[string]interface{}{
			"name": entry.Name,
			"spec": entry.Spec,
		}
	}
	return fields
}
