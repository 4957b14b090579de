package runs

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmrzaf/magicgen/internal/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo := NewSQLiteRepository(filepath.Join(t.TempDir(), "runs.db"))
	if err := repo.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestInitCreatesParentDirectory(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "deeper", "runs.db")
	repo := NewSQLiteRepository(dbPath)

	if err := repo.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if repo.DB() == nil {
		t.Fatal("expected db handle to be initialized")
	}
	t.Cleanup(func() {
		_ = repo.DB().Close()
	})
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	started := time.Date(2024, 3, 1, 10, 0, 0, 123000, time.UTC)
	run := &domain.Run{
		SchemaHash:   "s",
		ConfigHash:   "c",
		OutputDir:    "out",
		BaseFilename: "events",
		Count:        10,
		LinesPerFile: 100,
		Affix:        domain.AffixCount,
		Workers:      4,
		Status:       domain.RunStatusRunning,
		StartedAt:    started,
	}
	if err := repo.Create(run); err != nil {
		t.Fatal(err)
	}
	if run.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := repo.Get(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.RunStatusRunning || got.CompletedAt != nil || got.Stats != nil {
		t.Fatalf("unexpected run: %#v", got)
	}
	if !got.StartedAt.Equal(started) || got.Affix != domain.AffixCount || got.Workers != 4 {
		t.Fatalf("unexpected run: %#v", got)
	}

	done := started.Add(2 * time.Second)
	stats, _ := json.Marshal(domain.RunStats{FilesRequested: 10, FilesWritten: 9, FilesFailed: 1})
	run.Status = domain.RunStatusFailed
	run.CompletedAt = &done
	run.Stats = stats
	run.Error = "1 of 10 files failed"
	if err := repo.Update(run); err != nil {
		t.Fatal(err)
	}

	got, err = repo.Get(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.RunStatusFailed || got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Fatalf("unexpected run after update: %#v", got)
	}
	var s domain.RunStats
	if err := json.Unmarshal(got.Stats, &s); err != nil {
		t.Fatal(err)
	}
	if s.FilesFailed != 1 || got.Error != "1 of 10 files failed" {
		t.Fatalf("unexpected stats: %#v / %q", s, got.Error)
	}
}

func TestSQLiteRepository_GetMissing(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(&domain.Run{ID: "nope", Status: domain.RunStatusSuccess}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestSQLiteRepository_ListFilters(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, status := range []domain.RunStatus{domain.RunStatusSuccess, domain.RunStatusFailed, domain.RunStatusSuccess} {
		run := &domain.Run{
			SchemaHash:   "s",
			ConfigHash:   "c",
			OutputDir:    "out",
			BaseFilename: "events",
			Count:        1,
			LinesPerFile: 1,
			Affix:        domain.AffixCount,
			Workers:      1,
			Status:       status,
			StartedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.Create(run); err != nil {
			t.Fatal(err)
		}
	}

	all, err := repo.List(0, "", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || !all[0].StartedAt.After(all[1].StartedAt) {
		t.Fatalf("expected 3 runs newest first, got %d", len(all))
	}

	ok, err := repo.List(0, string(domain.RunStatusSuccess), time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(ok) != 2 {
		t.Fatalf("expected 2 successful runs, got %d", len(ok))
	}

	recent, err := repo.List(0, "", base.Add(30*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 runs since cutoff, got %d", len(recent))
	}

	limited, err := repo.List(1, "", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || !limited[0].StartedAt.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("expected newest run only, got %#v", limited)
	}
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	repo, err := Open(filepath.Join(t.TempDir(), "hist", "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()
	if _, ok := repo.(*SQLiteRepository); !ok {
		t.Fatalf("expected sqlite repository, got %T", repo)
	}
}
