package validation

import (
	"path/filepath"
	"strings"

	"github.com/mmrzaf/magicgen/internal/affix"
	"github.com/mmrzaf/magicgen/internal/domain"
)

// IsValidBaseFilename accepts names that stay inside the output directory.
func IsValidBaseFilename(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	if s == "." || s == ".." {
		return false
	}
	if strings.ContainsRune(s, '/') || strings.ContainsRune(s, filepath.Separator) {
		return false
	}
	return !strings.ContainsRune(s, 0)
}

// ValidateRunConfig checks cfg before any output is produced.
func ValidateRunConfig(cfg *domain.RunConfig) error {
	if cfg == nil {
		return domain.NewConfigError("", "run config is required")
	}
	if cfg.Count < 0 {
		return domain.NewConfigError("count", "must be >= 0, got %d", cfg.Count)
	}
	if cfg.LinesPerFile <= 0 {
		return domain.NewConfigError("lines", "must be > 0, got %d", cfg.LinesPerFile)
	}
	if cfg.Workers <= 0 {
		return domain.NewConfigError("workers", "must be > 0, got %d", cfg.Workers)
	}

	// stdout mode ignores the file naming settings
	if cfg.Count == 0 {
		return nil
	}

	if strings.TrimSpace(cfg.OutputDir) == "" {
		return domain.NewConfigError("output_dir", "is required")
	}
	if !IsValidBaseFilename(cfg.BaseFilename) {
		return domain.NewConfigError("filename", "invalid base filename: %q", cfg.BaseFilename)
	}
	if !affix.IsValidStrategy(cfg.Affix) {
		return domain.NewConfigError("affix", "unknown strategy: %q", cfg.Affix)
	}
	return nil
}

// CapWorkers limits n to cpu. The bool reports whether n was lowered.
func CapWorkers(n, cpu int) (int, bool) {
	if cpu < 1 {
		cpu = 1
	}
	if n > cpu {
		return cpu, true
	}
	return n, false
}
