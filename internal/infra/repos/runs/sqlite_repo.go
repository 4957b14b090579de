package runs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mmrzaf/magicgen/internal/domain"
)

// Fixed-width UTC timestamps keep string comparison in SQL chronological.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

const runColumns = `id, schema_hash, config_hash, output_dir, base_filename,
		       file_count, lines_per_file, affix, workers,
		       status, started_at, completed_at, stats, error`

type SQLiteRepository struct {
	dbPath string
	db     *sql.DB
}

func NewSQLiteRepository(dbPath string) *SQLiteRepository {
	return &SQLiteRepository{dbPath: strings.TrimSpace(dbPath)}
}

func (r *SQLiteRepository) DB() *sql.DB { return r.db }

func (r *SQLiteRepository) Init() error {
	if r.dbPath == "" {
		return errors.New("runs db path is required")
	}
	if r.dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(r.dbPath), 0o755); err != nil {
			return fmt.Errorf("failed to create runs db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", r.dbPath)
	if err != nil {
		return err
	}
	r.db = db

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		schema_hash TEXT NOT NULL,
		config_hash TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		base_filename TEXT NOT NULL,
		file_count INTEGER NOT NULL,
		lines_per_file INTEGER NOT NULL,
		affix TEXT NOT NULL,
		workers INTEGER NOT NULL,
		status TEXT NOT NULL,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		stats TEXT,
		error TEXT
	)`

	if _, err = r.db.Exec(createTableSQL); err != nil {
		return err
	}
	_, err = r.db.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC)`)
	return err
}

func (r *SQLiteRepository) Create(run *domain.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.ID, run.SchemaHash, run.ConfigHash, run.OutputDir, run.BaseFilename,
		run.Count, run.LinesPerFile, string(run.Affix), run.Workers,
		string(run.Status), formatSQLiteTime(run.StartedAt), nullableSQLiteTime(run.CompletedAt),
		nullableString(string(run.Stats)), nullableString(run.Error),
	)
	return err
}

func (r *SQLiteRepository) Update(run *domain.Run) error {
	query := `
		UPDATE runs SET
			status = ?, completed_at = ?, stats = ?, error = ?
		WHERE id = ?
	`

	res, err := r.db.Exec(query,
		string(run.Status), nullableSQLiteTime(run.CompletedAt),
		nullableString(string(run.Stats)), nullableString(run.Error), run.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, run.ID)
	}
	return nil
}

func (r *SQLiteRepository) Get(id string) (*domain.Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

func (r *SQLiteRepository) List(limit int, status string, since time.Time) ([]*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`

	var where []string
	args := make([]interface{}, 0)
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, status)
	}
	if !since.IsZero() {
		where = append(where, "started_at >= ?")
		args = append(args, formatSQLiteTime(since))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY started_at DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.Run, 0)
	for rows.Next() {
		run, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(s rowScanner) (*domain.Run, error) {
	var run domain.Run
	var affix, status string
	var startedAtStr string
	var completedAtStr sql.NullString
	var statsStr sql.NullString
	var errorStr sql.NullString

	err := s.Scan(
		&run.ID, &run.SchemaHash, &run.ConfigHash, &run.OutputDir, &run.BaseFilename,
		&run.Count, &run.LinesPerFile, &affix, &run.Workers,
		&status, &startedAtStr, &completedAtStr, &statsStr, &errorStr,
	)
	if err != nil {
		return nil, err
	}

	run.Affix = domain.AffixStrategy(affix)
	run.Status = domain.RunStatus(status)
	run.StartedAt, _ = time.Parse(sqliteTimeLayout, startedAtStr)
	if completedAtStr.Valid {
		t, _ := time.Parse(sqliteTimeLayout, completedAtStr.String)
		run.CompletedAt = &t
	}
	if statsStr.Valid && statsStr.String != "" {
		run.Stats = []byte(statsStr.String)
	}
	if errorStr.Valid {
		run.Error = errorStr.String
	}

	return &run, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func nullableSQLiteTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatSQLiteTime(*t)
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
