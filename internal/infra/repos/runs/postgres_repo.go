package runs

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/mmrzaf/magicgen/internal/domain"
)

type PostgresRepository struct {
	dsn string
	db  *sql.DB
}

func NewPostgresRepository(dsn string) *PostgresRepository {
	return &PostgresRepository{dsn: strings.TrimSpace(dsn)}
}

func (r *PostgresRepository) Init() error {
	if r.dsn == "" {
		return fmt.Errorf("runs db dsn is required")
	}
	db, err := sql.Open("postgres", r.dsn)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return err
	}
	r.db = db
	return r.applyMigrations()
}

func (r *PostgresRepository) DB() *sql.DB { return r.db }

func (r *PostgresRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *PostgresRepository) applyMigrations() error {
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return err
	}
	var cur int
	if err := r.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&cur); err != nil {
		return err
	}

	type mig struct {
		v  int
		up func(*sql.DB) error
	}
	migs := []mig{
		{1, migrateV1RunsPG},
		{2, migrateV2RunIndexesPG},
	}

	for _, m := range migs {
		if cur >= m.v {
			continue
		}
		if err := m.up(r.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.v, err)
		}
		if _, err := r.db.Exec(`INSERT INTO schema_migrations(version) VALUES ($1)`, m.v); err != nil {
			return err
		}
		cur = m.v
	}
	return nil
}

func migrateV1RunsPG(db *sql.DB) error {
	_, err := db.Exec(`
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
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		stats TEXT,
		error TEXT
	)`)
	return err
}

func migrateV2RunIndexesPG(db *sql.DB) error {
	ddls := []string{
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
	}
	for _, ddl := range ddls {
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) Create(run *domain.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	_, err := r.db.Exec(`
	INSERT INTO runs (`+runColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		run.ID, run.SchemaHash, run.ConfigHash, run.OutputDir, run.BaseFilename,
		run.Count, run.LinesPerFile, string(run.Affix), run.Workers,
		string(run.Status), run.StartedAt.UTC(), nullablePGTime(run.CompletedAt),
		nullableString(string(run.Stats)), nullableString(run.Error),
	)
	return err
}

func (r *PostgresRepository) Update(run *domain.Run) error {
	res, err := r.db.Exec(`
	UPDATE runs SET
		status = $1, completed_at = $2, stats = $3, error = $4
	WHERE id = $5`,
		string(run.Status), nullablePGTime(run.CompletedAt),
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

func (r *PostgresRepository) Get(id string) (*domain.Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = $1`, id)
	run, err := scanPGRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

func (r *PostgresRepository) List(limit int, status string, since time.Time) ([]*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`

	var where []string
	args := make([]interface{}, 0)
	if status != "" {
		args = append(args, status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if !since.IsZero() {
		args = append(args, since.UTC())
		where = append(where, fmt.Sprintf("started_at >= $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Run, 0)
	for rows.Next() {
		run, err := scanPGRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func scanPGRun(s rowScanner) (*domain.Run, error) {
	var run domain.Run
	var affix, status string
	var completedAt sql.NullTime
	var statsStr sql.NullString
	var errStr sql.NullString

	err := s.Scan(
		&run.ID, &run.SchemaHash, &run.ConfigHash, &run.OutputDir, &run.BaseFilename,
		&run.Count, &run.LinesPerFile, &affix, &run.Workers,
		&status, &run.StartedAt, &completedAt, &statsStr, &errStr,
	)
	if err != nil {
		return nil, err
	}
	run.Affix = domain.AffixStrategy(affix)
	run.Status = domain.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if statsStr.Valid && statsStr.String != "" {
		run.Stats = []byte(statsStr.String)
	}
	if errStr.Valid {
		run.Error = errStr.String
	}
	return &run, nil
}

func nullablePGTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
