package domain

import (
	"encoding/json"
	"time"
)

type FieldType string

const (
	FieldTypeString    FieldType = "str"
	FieldTypeInt       FieldType = "int"
	FieldTypeTimestamp FieldType = "timestamp"
)

// FieldSpec is one parsed "<type>:<spec>" schema entry.
type FieldSpec struct {
	Name    string    `json:"name" yaml:"name"`
	Type    FieldType `json:"type" yaml:"type"`
	RawSpec string    `json:"spec" yaml:"spec"`
}

type AffixStrategy string

const (
	AffixCount  AffixStrategy = "count"
	AffixRandom AffixStrategy = "random"
	AffixUUID   AffixStrategy = "uuid"
)

// RunConfig describes one generation run. Count == 0 prints to stdout,
// Count == 1 writes a single file without an affix.
type RunConfig struct {
	OutputDir    string        `json:"output_dir" yaml:"output_dir"`
	BaseFilename string        `json:"filename" yaml:"filename"`
	Count        int           `json:"count" yaml:"count"`
	LinesPerFile int           `json:"lines" yaml:"lines"`
	Affix        AffixStrategy `json:"affix" yaml:"affix"`
	Workers      int           `json:"workers" yaml:"workers"`
	ClearPath    bool          `json:"clear_path" yaml:"clear_path"`
}

type Run struct {
	ID           string          `json:"id" yaml:"id"`
	SchemaHash   string          `json:"schema_hash" yaml:"schema_hash"`
	ConfigHash   string          `json:"config_hash" yaml:"config_hash"`
	OutputDir    string          `json:"output_dir" yaml:"output_dir"`
	BaseFilename string          `json:"filename" yaml:"filename"`
	Count        int             `json:"count" yaml:"count"`
	LinesPerFile int             `json:"lines" yaml:"lines"`
	Affix        AffixStrategy   `json:"affix" yaml:"affix"`
	Workers      int             `json:"workers" yaml:"workers"`
	Status       RunStatus       `json:"status" yaml:"status"`
	StartedAt    time.Time       `json:"started_at" yaml:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Stats        json.RawMessage `json:"stats,omitempty" yaml:"-"`
	Error        string          `json:"error,omitempty" yaml:"error,omitempty"`
}

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

type RunStats struct {
	FilesRequested  int           `json:"files_requested" yaml:"files_requested"`
	FilesWritten    int           `json:"files_written" yaml:"files_written"`
	FilesFailed     int           `json:"files_failed" yaml:"files_failed"`
	FilesCleared    int           `json:"files_cleared" yaml:"files_cleared"`
	LinesWritten    int64         `json:"lines_written" yaml:"lines_written"`
	Workers         int           `json:"workers" yaml:"workers"`
	DurationSeconds float64       `json:"duration_seconds" yaml:"duration_seconds"`
	Failures        []FileFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

type FileFailure struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}
