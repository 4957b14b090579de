package schemas

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mmrzaf/magicgen/internal/domain"
	"github.com/mmrzaf/magicgen/internal/schema"
)

// FileRepository resolves schema arguments. Relative paths are read from
// baseDir; an empty baseDir means the working directory.
type FileRepository struct {
	baseDir string
}

func NewFileRepository(baseDir string) *FileRepository {
	return &FileRepository{baseDir: baseDir}
}

// Load treats an argument containing '{' as an inline JSON schema and
// anything else as a path to a schema file.
func Load(arg string) (schema.Document, error) {
	return NewFileRepository("").Load(arg)
}

func IsInline(arg string) bool {
	return strings.Contains(arg, "{")
}

func (r *FileRepository) Load(arg string) (schema.Document, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, domain.NewConfigError("schema", "is required")
	}
	if IsInline(arg) {
		return schema.ParseJSON([]byte(arg))
	}
	return r.GetByPath(arg)
}

// GetByPath reads a schema file. .yaml and .yml files are decoded as YAML,
// everything else as JSON.
func (r *FileRepository) GetByPath(path string) (schema.Document, error) {
	if r.baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.IOError{Op: "read schema", Path: path, Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return schema.ParseYAML(data)
	default:
		return schema.ParseJSON(data)
	}
}
