package exec

import (
	"bufio"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmrzaf/magicgen/internal/affix"
	"github.com/mmrzaf/magicgen/internal/domain"
	"github.com/mmrzaf/magicgen/internal/logging"
	"github.com/mmrzaf/magicgen/internal/schema"
)

const (
	FileExt        = ".jsonl"
	FileMode       = 0o644
	writeBufferLen = 64 << 10
)

// Executor writes generated records either to stdout or to a set of
// sharded files, one errgroup goroutine per affix sublist.
type Executor struct {
	logger *logging.Logger
	stdout io.Writer
}

func NewExecutor(logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{logger: logger.WithComponent("executor"), stdout: os.Stdout}
}

// WithStdout redirects count == 0 output.
func (e *Executor) WithStdout(w io.Writer) *Executor {
	e.stdout = w
	return e
}

// Execute runs cfg against gen. Directory preparation and affix allocation
// errors abort the run; per-file errors are logged and counted in the stats.
func (e *Executor) Execute(cfg *domain.RunConfig, gen *schema.Generator) (*domain.RunStats, error) {
	start := time.Now()
	stats := &domain.RunStats{FilesRequested: cfg.Count, Workers: cfg.Workers}

	if cfg.Count == 0 {
		n, err := e.writeStdout(gen, cfg.LinesPerFile)
		stats.LinesWritten = n
		stats.Workers = 1
		stats.DurationSeconds = time.Since(start).Seconds()
		if err != nil {
			return stats, &domain.IOError{Op: "write", Path: "stdout", Err: err}
		}
		return stats, nil
	}

	cleared, err := prepareDir(cfg)
	if err != nil {
		return nil, err
	}
	stats.FilesCleared = cleared
	if cleared > 0 {
		e.logger.Infow("cleared output files", map[string]any{"dir": cfg.OutputDir, "prefix": cfg.BaseFilename, "count": cleared})
	}

	t := &tally{}

	if cfg.Count == 1 {
		stats.Workers = 1
		w := newWorker(gen, cfg)
		e.writeOne(w, "", t)
	} else {
		affixes, err := affix.Allocate(NewWorkerRand(), cfg.Affix, cfg.Count)
		if err != nil {
			return nil, err
		}

		parts := Partition(affixes, cfg.Workers)
		stats.Workers = len(parts)
		e.logger.Debugw("dispatching workers", map[string]any{"files": len(affixes), "workers": len(parts)})

		var g errgroup.Group
		g.SetLimit(cfg.Workers)
		for _, part := range parts {
			g.Go(func() error {
				w := newWorker(gen, cfg)
				for _, a := range part {
					e.writeOne(w, a, t)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	stats.FilesWritten = int(t.written.Load())
	stats.FilesFailed = int(t.failed.Load())
	stats.LinesWritten = t.lines.Load()
	stats.Failures = t.sortedFailures()
	stats.DurationSeconds = time.Since(start).Seconds()
	return stats, nil
}

func (e *Executor) writeOne(w *worker, a string, t *tally) {
	path := OutputPath(w.cfg.OutputDir, w.cfg.BaseFilename, a)
	n, err := w.writeFile(path)
	if err != nil {
		t.fail(path, err)
		e.logger.Errorw("file write failed", map[string]any{"path": path, "error": err.Error()})
		return
	}
	t.written.Add(1)
	t.lines.Add(n)
	e.logger.Debugw("file written", map[string]any{"path": path, "lines": n})
}

func (e *Executor) writeStdout(gen *schema.Generator, lines int) (int64, error) {
	rng := NewWorkerRand()
	bw := bufio.NewWriterSize(e.stdout, writeBufferLen)
	buf := make([]byte, 0, 256)

	var n int64
	for i := 0; i < lines; i++ {
		buf = gen.AppendLine(buf[:0], rng)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}

// OutputPath is <dir>/<base><affix>.jsonl.
func OutputPath(dir, base, affix string) string {
	return filepath.Join(dir, base+affix+FileExt)
}

// Partition splits items round-robin into at most n sublists: item i goes
// to sublist i mod n. Sublist sizes differ by at most one.
func Partition(items []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	if n > len(items) {
		n = len(items)
	}
	parts := make([][]string, n)
	for i, item := range items {
		parts[i%n] = append(parts[i%n], item)
	}
	return parts
}

func prepareDir(cfg *domain.RunConfig) (int, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return 0, &domain.IOError{Op: "mkdir", Path: cfg.OutputDir, Err: err}
	}
	if !cfg.ClearPath {
		return 0, nil
	}
	return ClearOutputDir(cfg.OutputDir, cfg.BaseFilename)
}

// ClearOutputDir removes the regular files in dir whose name starts with
// base. Subdirectories and other files are left alone.
func ClearOutputDir(dir, base string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, &domain.IOError{Op: "readdir", Path: dir, Err: err}
	}

	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasPrefix(entry.Name(), base) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return removed, &domain.IOError{Op: "remove", Path: path, Err: err}
		}
		removed++
	}
	return removed, nil
}

type worker struct {
	gen *schema.Generator
	cfg *domain.RunConfig
	rng *rand.Rand
	buf []byte
}

func newWorker(gen *schema.Generator, cfg *domain.RunConfig) *worker {
	return &worker{gen: gen, cfg: cfg, rng: NewWorkerRand(), buf: make([]byte, 0, 256)}
}

// writeFile writes to a hidden temp file next to path and renames it into
// place, so a failed write never leaves a partial output file.
func (w *worker) writeFile(path string) (int64, error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+name+"-*.tmp")
	if err != nil {
		return 0, &domain.IOError{Op: "create", Path: path, Err: err}
	}
	tmp := f.Name()

	n, err := w.writeLines(f)
	if err == nil {
		// CreateTemp opens with 0600
		err = f.Chmod(FileMode)
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, &domain.IOError{Op: "write", Path: path, Err: err}
	}
	return n, nil
}

func (w *worker) writeLines(dst io.Writer) (int64, error) {
	bw := bufio.NewWriterSize(dst, writeBufferLen)
	var n int64
	for i := 0; i < w.cfg.LinesPerFile; i++ {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return n, err
			}
		}
		w.buf = w.gen.AppendLine(w.buf[:0], w.rng)
		if _, err := bw.Write(w.buf); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}

type tally struct {
	written atomic.Int64
	failed  atomic.Int64
	lines   atomic.Int64

	mu       sync.Mutex
	failures []domain.FileFailure
}

func (t *tally) fail(path string, err error) {
	t.failed.Add(1)
	t.mu.Lock()
	t.failures = append(t.failures, domain.FileFailure{Path: path, Error: err.Error()})
	t.mu.Unlock()
}

func (t *tally) sortedFailures() []domain.FileFailure {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.FileFailure, len(t.failures))
	copy(out, t.failures)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	if len(out) == 0 {
		return nil
	}
	return out
}

// NewWorkerRand seeds an independent stream from crypto/rand.
func NewWorkerRand() *rand.Rand {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
}
