// Package gormrepo implements the dialect repository contract on top of gorm.
package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syssam/crudgen/dialect"
)

// Repository is the relational repository contract.
type Repository[T any, ID comparable] interface {
	dialect.CrudRepository[T, ID]
	// DB returns the underlying gorm handle.
	DB() *gorm.DB
}

// Repo is a gorm-backed Repository.
type Repo[T any, ID comparable] struct {
	db *gorm.DB
}

var _ Repository[struct{}, string] = (*Repo[struct{}, string])(nil)

// New returns a repository of T over db.
func New[T any, ID comparable](db *gorm.DB) *Repo[T, ID] {
	return &Repo[T, ID]{db: db}
}

// DB implements Repository.
func (r *Repo[T, ID]) DB() *gorm.DB { return r.db }

func byID[ID comparable](id ID) clause.Expression {
	return clause.Eq{Column: clause.PrimaryColumn, Value: id}
}

// FindByID implements dialect.CrudRepository.
func (r *Repo[T, ID]) FindByID(ctx context.Context, id ID) (*T, error) {
	var e T
	err := r.db.WithContext(ctx).Where(byID(id)).Take(&e).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, dialect.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("gormrepo: find: %w", err)
	}
	return &e, nil
}

// FindAll implements dialect.CrudRepository.
func (r *Repo[T, ID]) FindAll(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.db.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("gormrepo: find all: %w", err)
	}
	return out, nil
}

// Save implements dialect.CrudRepository. It updates the row with the same
// primary key or inserts a new one. Entities without an identifier that
// implement dialect.IDSetter with string identifiers receive a UUID first.
func (r *Repo[T, ID]) Save(ctx context.Context, entity *T) (*T, error) {
	if _, ok := dialect.HasID[T, ID](entity); !ok {
		if id, ok := any(uuid.NewString()).(ID); ok {
			dialect.AssignID(entity, id)
		}
	}
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return nil, fmt.Errorf("gormrepo: save: %w", err)
	}
	return entity, nil
}

// DeleteByID implements dialect.CrudRepository.
func (r *Repo[T, ID]) DeleteByID(ctx context.Context, id ID) error {
	if err := r.db.WithContext(ctx).Where(byID(id)).Delete(new(T)).Error; err != nil {
		return fmt.Errorf("gormrepo: delete: %w", err)
	}
	return nil
}

// Open connects to the database named by dburl. Supported forms are
// sqlite://<path>, sqlite=<path>, postgres://..., postgresql://... and
// postgres=<dsn>.
func Open(dburl string, logger *slog.Logger) (*gorm.DB, error) {
	var (
		dial     gorm.Dialector
		isSqlite bool
	)
	switch {
	case strings.HasPrefix(dburl, "sqlite://"), strings.HasPrefix(dburl, "sqlite="):
		path := strings.TrimPrefix(strings.TrimPrefix(dburl, "sqlite://"), "sqlite=")
		if !strings.Contains(path, ":memory:") {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("gormrepo: %w", err)
			}
		}
		dial = sqlite.Open(path)
		isSqlite = true
	case strings.HasPrefix(dburl, "postgresql://"), strings.HasPrefix(dburl, "postgres://"):
		dial = postgres.Open(dburl)
	case strings.HasPrefix(dburl, "postgres="):
		dial = postgres.Open(strings.TrimPrefix(dburl, "postgres="))
	default:
		return nil, fmt.Errorf("gormrepo: unsupported database url scheme: %q", scheme(dburl))
	}

	if logger == nil {
		logger = slog.Default()
	}
	db, err := gorm.Open(dial, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 slogGorm.New(slogGorm.WithLogger(logger)),
	})
	if err != nil {
		return nil, fmt.Errorf("gormrepo: open: %w", err)
	}
	sqldb, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gormrepo: %w", err)
	}
	sqldb.SetConnMaxIdleTime(time.Hour)
	if isSqlite {
		sqldb.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA synchronous=normal;"} {
			if err := db.Exec(pragma).Error; err != nil {
				return nil, fmt.Errorf("gormrepo: %s: %w", pragma, err)
			}
		}
	}
	return db, nil
}

// scheme returns the part of dburl before "://" or "=" so that credentials
// are never echoed back.
func scheme(dburl string) string {
	if i := strings.Index(dburl, "://"); i >= 0 {
		return dburl[:i]
	}
	if i := strings.Index(dburl, "="); i >= 0 {
		return dburl[:i]
	}
	return ""
}
