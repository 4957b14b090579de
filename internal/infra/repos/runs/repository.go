package runs

import (
	"errors"
	"strings"
	"time"

	"github.com/mmrzaf/magicgen/internal/domain"
)

var ErrNotFound = errors.New("run not found")

// Repository stores the history of generation runs.
type Repository interface {
	Init() error
	Create(run *domain.Run) error
	Update(run *domain.Run) error
	Get(id string) (*domain.Run, error)
	// List returns runs newest first. Zero limit means no limit; an empty
	// status and a zero since disable those filters.
	List(limit int, status string, since time.Time) ([]*domain.Run, error)
	Close() error
}

// IsPostgresDSN reports whether dsn selects the PostgreSQL store.
func IsPostgresDSN(dsn string) bool {
	dsn = strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open builds and initializes the repository for dsn: PostgreSQL for
// postgres URLs, otherwise dsn is a SQLite file path.
func Open(dsn string) (Repository, error) {
	var repo Repository
	if IsPostgresDSN(dsn) {
		repo = NewPostgresRepository(dsn)
	} else {
		repo = NewSQLiteRepository(dsn)
	}
	if err := repo.Init(); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}
