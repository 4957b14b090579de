package app

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmrzaf/magicgen/internal/domain"
	"github.com/mmrzaf/magicgen/internal/exec"
	"github.com/mmrzaf/magicgen/internal/hashing"
	"github.com/mmrzaf/magicgen/internal/infra/repos/runs"
	"github.com/mmrzaf/magicgen/internal/logging"
	"github.com/mmrzaf/magicgen/internal/schema"
	"github.com/mmrzaf/magicgen/internal/validation"
)

type RunService struct {
	runRepo  runs.Repository
	executor *exec.Executor
	logger   *logging.Logger
	now      func() time.Time
}

// NewRunService wires a run service. runRepo may be nil, in which case
// runs are not recorded.
func NewRunService(runRepo runs.Repository, executor *exec.Executor, logger *logging.Logger) *RunService {
	if logger == nil {
		logger = logging.NewNop()
	}
	if executor == nil {
		executor = exec.NewExecutor(logger)
	}
	return &RunService{
		runRepo:  runRepo,
		executor: executor,
		logger:   logger.WithComponent("runs"),
		now:      time.Now,
	}
}

// RunResult is the outcome of one Run. Run is populated even without a
// repository.
type RunResult struct {
	Run   *domain.Run
	Stats *domain.RunStats
}

// Compile checks doc without producing output.
func (s *RunService) Compile(doc schema.Document) (*schema.Generator, error) {
	gen, err := schema.Compile(doc)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	return gen, nil
}

// Run validates cfg, compiles doc and executes the run. Config and schema
// errors are returned before anything is written. If any file fails the
// stats are still returned along with an ErrIO error.
func (s *RunService) Run(cfg *domain.RunConfig, doc schema.Document) (*RunResult, error) {
	if err := validation.ValidateRunConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}

	gen, err := s.Compile(doc)
	if err != nil {
		return nil, err
	}

	schemaHash, err := hashing.HashSchema(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to hash schema: %w", err)
	}
	configHash, err := hashing.HashRunConfig(cfg, schemaHash)
	if err != nil {
		return nil, fmt.Errorf("failed to hash run config: %w", err)
	}

	run := &domain.Run{
		ID:           uuid.New().String(),
		SchemaHash:   schemaHash,
		ConfigHash:   configHash,
		OutputDir:    cfg.OutputDir,
		BaseFilename: cfg.BaseFilename,
		Count:        cfg.Count,
		LinesPerFile: cfg.LinesPerFile,
		Affix:        cfg.Affix,
		Workers:      cfg.Workers,
		Status:       domain.RunStatusRunning,
		StartedAt:    s.now(),
	}

	if s.runRepo != nil {
		if err := s.runRepo.Create(run); err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
	}

	s.logger.Infow("run started", map[string]any{
		"run_id":  run.ID,
		"fields":  len(doc),
		"files":   cfg.Count,
		"lines":   cfg.LinesPerFile,
		"affix":   string(cfg.Affix),
		"workers": cfg.Workers,
	})

	stats, err := s.executor.Execute(cfg, gen)
	if err != nil {
		s.logger.Error("Run %s failed: %v", run.ID, err)
		s.finish(run, stats, err.Error())
		return &RunResult{Run: run, Stats: stats}, fmt.Errorf("run %s failed: %w", run.ID, err)
	}

	if stats.FilesFailed > 0 {
		msg := fmt.Sprintf("%d of %d files failed", stats.FilesFailed, stats.FilesRequested)
		s.finish(run, stats, msg)
		s.logger.Warnw("run completed with failures", map[string]any{
			"run_id":        run.ID,
			"files_written": stats.FilesWritten,
			"files_failed":  stats.FilesFailed,
		})
		return &RunResult{Run: run, Stats: stats}, fmt.Errorf("run %s: %s: %w", run.ID, msg, domain.ErrIO)
	}

	s.finish(run, stats, "")
	s.logger.Info("Run %s completed: %d files, %d lines, %.2fs",
		run.ID, stats.FilesWritten, stats.LinesWritten, stats.DurationSeconds)

	return &RunResult{Run: run, Stats: stats}, nil
}

func (s *RunService) finish(run *domain.Run, stats *domain.RunStats, errorMsg string) {
	now := s.now()
	run.CompletedAt = &now
	run.Error = errorMsg
	if errorMsg == "" {
		run.Status = domain.RunStatusSuccess
	} else {
		run.Status = domain.RunStatusFailed
	}
	if stats != nil {
		statsJSON, _ := json.Marshal(stats)
		run.Stats = statsJSON
	}

	if s.runRepo == nil {
		return
	}
	if err := s.runRepo.Update(run); err != nil {
		s.logger.Error("Failed to update run %s: %v", run.ID, err)
	}
}

func (s *RunService) GetRun(id string) (*domain.Run, error) {
	if s.runRepo == nil {
		return nil, fmt.Errorf("%w: run history is disabled", runs.ErrNotFound)
	}
	return s.runRepo.Get(id)
}

func (s *RunService) ListRuns(limit int, status string, since time.Time) ([]*domain.Run, error) {
	if s.runRepo == nil {
		return []*domain.Run{}, nil
	}
	return s.runRepo.List(limit, status, since)
}
