package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/mmrzaf/magicgen/internal/domain"
)

type runConfigHashPayload struct {
	SchemaHash   string `json:"schema_hash"`
	OutputDir    string `json:"output_dir"`
	BaseFilename string `json:"filename"`
	Count        int    `json:"count"`
	LinesPerFile int    `json:"lines"`
	Affix        string `json:"affix"`
	ClearPath    bool   `json:"clear_path"`
}

// HashRunConfig fingerprints the settings that shape a run's output.
// Workers is left out since it does not change what gets written.
func HashRunConfig(cfg *domain.RunConfig, schemaHash string) (string, error) {
	p := runConfigHashPayload{
		SchemaHash:   schemaHash,
		OutputDir:    cfg.OutputDir,
		BaseFilename: cfg.BaseFilename,
		Count:        cfg.Count,
		LinesPerFile: cfg.LinesPerFile,
		Affix:        string(cfg.Affix),
		ClearPath:    cfg.ClearPath,
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
