package validation

import (
	"errors"
	"testing"

	"github.com/mmrzaf/magicgen/internal/domain"
)

func validConfig() *domain.RunConfig {
	return &domain.RunConfig{
		OutputDir:    "out",
		BaseFilename: "events",
		Count:        4,
		LinesPerFile: 10,
		Affix:        domain.AffixCount,
		Workers:      2,
	}
}

func TestValidateRunConfig_Valid(t *testing.T) {
	if err := ValidateRunConfig(validConfig()); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRunConfig_Rejects(t *testing.T) {
	cases := map[string]struct {
		mutate func(*domain.RunConfig)
		field  string
	}{
		"negative count":  {func(c *domain.RunConfig) { c.Count = -1 }, "count"},
		"zero lines":      {func(c *domain.RunConfig) { c.LinesPerFile = 0 }, "lines"},
		"zero workers":    {func(c *domain.RunConfig) { c.Workers = 0 }, "workers"},
		"empty output":    {func(c *domain.RunConfig) { c.OutputDir = " " }, "output_dir"},
		"empty filename":  {func(c *domain.RunConfig) { c.BaseFilename = "" }, "filename"},
		"nested filename": {func(c *domain.RunConfig) { c.BaseFilename = "a/b" }, "filename"},
		"dotdot filename": {func(c *domain.RunConfig) { c.BaseFilename = ".." }, "filename"},
		"unknown affix":   {func(c *domain.RunConfig) { c.Affix = "sequence" }, "affix"},
	}

	for name, tc := range cases {
		cfg := validConfig()
		tc.mutate(cfg)
		err := ValidateRunConfig(cfg)
		if !errors.Is(err, domain.ErrConfig) {
			t.Fatalf("%s: expected config error, got %v", name, err)
		}
		var ce *domain.ConfigError
		if !errors.As(err, &ce) || ce.Field != tc.field {
			t.Fatalf("%s: expected field %q, got %v", name, tc.field, err)
		}
	}
}

func TestValidateRunConfig_StdoutIgnoresNaming(t *testing.T) {
	cfg := validConfig()
	cfg.Count = 0
	cfg.OutputDir = ""
	cfg.BaseFilename = ""
	cfg.Affix = ""
	if err := ValidateRunConfig(cfg); err != nil {
		t.Fatalf("expected stdout config to pass, got %v", err)
	}
}

func TestCapWorkers(t *testing.T) {
	if n, capped := CapWorkers(16, 4); n != 4 || !capped {
		t.Fatalf("expected 4/true, got %d/%v", n, capped)
	}
	if n, capped := CapWorkers(2, 4); n != 2 || capped {
		t.Fatalf("expected 2/false, got %d/%v", n, capped)
	}
	if n, capped := CapWorkers(3, 0); n != 1 || !capped {
		t.Fatalf("expected 1/true, got %d/%v", n, capped)
	}
}
