// Package history records generation runs in a SQL database so they can be
// listed and replayed.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	slogGorm "github.com/orandin/slog-gorm"
	"github.com/vmihailenco/msgpack/v5"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"github.com/syssam/crudgen/compiler/gen"
	"github.com/syssam/crudgen/schema"
)

// Dialect names. SQLite and Postgres are also the database/sql driver names
// of modernc.org/sqlite and lib/pq.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MySQL    = "mysql"
)

// Status of a recorded run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ErrNotFound is returned by Get when no run has the given id.
var ErrNotFound = errors.New("history: run not found")

// Run is one generation attempt.
type Run struct {
	ID        uuid.UUID      `json:"id"`
	Project   string         `json:"project"`
	Path      string         `json:"path"`
	Backend   schema.Backend `json:"backend"`
	Layout    schema.Layout  `json:"layout"`
	Status    Status         `json:"status"`
	Category  string         `json:"category,omitempty"`
	Message   string         `json:"message,omitempty"`
	Files     []string       `json:"files"`
	CreatedAt time.Time      `json:"createdAt"`
	// Spec is the msgpack-encoded ProjectSpec of the run.
	Spec []byte `json:"-"`
}

// NewRun describes the outcome of generating spec. res and err are the
// values returned by gen.Generator.Generate.
func NewRun(spec *schema.ProjectSpec, res *gen.Result, err error) (*Run, error) {
	raw, eerr := EncodeSpec(spec)
	if eerr != nil {
		return nil, eerr
	}
	r := &Run{
		ID:        uuid.New(),
		Project:   spec.Name,
		Path:      spec.Path,
		Backend:   spec.Backend,
		Layout:    spec.Layout,
		Status:    StatusSucceeded,
		CreatedAt: time.Now().UTC(),
		Spec:      raw,
	}
	if r.Backend == "" {
		r.Backend = schema.Relational
	}
	if r.Layout == "" {
		r.Layout = schema.Layered
	}
	if res != nil {
		r.Files = res.Files
	}
	if err != nil {
		r.Status = StatusFailed
		r.Category = gen.Category(err)
		r.Message = err.Error()
	}
	return r, nil
}

// ProjectSpec decodes the project spec stored with the run.
func (r *Run) ProjectSpec() (*schema.ProjectSpec, error) {
	return DecodeSpec(r.Spec)
}

// EncodeSpec serializes spec with msgpack.
func EncodeSpec(spec *schema.ProjectSpec) ([]byte, error) {
	if spec == nil {
		return nil, fmt.Errorf("history: encode spec: nil spec")
	}
	buf, err := msgpack.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("history: encode spec: %w", err)
	}
	return buf, nil
}

// DecodeSpec is the inverse of EncodeSpec.
func DecodeSpec(buf []byte) (*schema.ProjectSpec, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("history: decode spec: empty payload")
	}
	spec := &schema.ProjectSpec{}
	if err := msgpack.Unmarshal(buf, spec); err != nil {
		return nil, fmt.Errorf("history: decode spec: %w", err)
	}
	return spec, nil
}

// Store persists runs in a SQL database through gorm.
type Store struct {
	db      *gorm.DB
	dialect string
}

// Open connects to the database named by dburl. Supported schemes are
// sqlite://<file>, postgres://<dsn> and mysql://<dsn>. A nil logger selects
// slog.Default.
func Open(dburl string, logger *slog.Logger) (*Store, error) {
	name, dsn, err := parseURL(dburl)
	if err != nil {
		return nil, err
	}
	var dial gorm.Dialector
	switch name {
	case SQLite:
		dial = sqlite.New(sqlite.Config{DriverName: SQLite, DSN: dsn})
	case Postgres:
		dial = postgres.New(postgres.Config{DriverName: Postgres, DSN: dsn})
	case MySQL:
		cfg, err := gomysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		dial = mysql.New(mysql.Config{DSN: cfg.FormatDSN()})
	}
	s, err := open(name, dial, logger)
	if err != nil {
		return nil, err
	}
	if name == SQLite {
		sqldb, err := s.db.DB()
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		// database/sql would otherwise hand out fresh in-memory databases.
		sqldb.SetMaxOpenConns(1)
	}
	return s, nil
}

// OpenDB wraps an existing connection pool of the given dialect.
func OpenDB(dialect string, db *sql.DB, logger *slog.Logger) (*Store, error) {
	var dial gorm.Dialector
	switch dialect {
	case SQLite:
		dial = sqlite.New(sqlite.Config{Conn: db})
	case Postgres:
		dial = postgres.New(postgres.Config{Conn: db})
	case MySQL:
		dial = mysql.New(mysql.Config{Conn: db, SkipInitializeWithVersion: true})
	default:
		return nil, fmt.Errorf("history: unsupported dialect %q", dialect)
	}
	return open(dialect, dial, logger)
}

func open(name string, dial gorm.Dialector, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := gorm.Open(dial, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 slogGorm.New(slogGorm.WithLogger(logger)),
	})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", name, err)
	}
	return &Store{db: db, dialect: name}, nil
}

func parseURL(dburl string) (string, string, error) {
	scheme, rest, ok := strings.Cut(dburl, "://")
	if !ok || rest == "" {
		return "", "", fmt.Errorf("history: invalid database url %q", dburl)
	}
	switch strings.ToLower(scheme) {
	case "sqlite", "sqlite3", "file":
		return SQLite, rest, nil
	case "postgres", "postgresql":
		// lib/pq parses the URL form itself.
		return Postgres, dburl, nil
	case "mysql":
		return MySQL, rest, nil
	default:
		return "", "", fmt.Errorf("history: unsupported database scheme %q", scheme)
	}
}

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() string { return s.dialect }

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB { return s.db }

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqldb, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqldb.Close()
}

// record is the row form of a Run. Files are stored msgpack-encoded and the
// creation time in Unix milliseconds.
type record struct {
	ID       string `gorm:"primaryKey;size:36"`
	Project  string `gorm:"size:255;not null"`
	Path     string `gorm:"not null"`
	Backend  string `gorm:"size:32;not null"`
	Layout   string `gorm:"size:32;not null"`
	Status   string `gorm:"size:16;not null"`
	Category string `gorm:"size:32;not null"`
	Message  string `gorm:"not null"`
	Files    []byte
	Created  int64 `gorm:"column:created_at;index:runs_created_at;not null"`
	Spec     []byte
}

// TableName implements gorm's schema.Tabler.
func (record) TableName() string { return "runs" }

func toRecord(r *Run) (*record, error) {
	files, err := msgpack.Marshal(r.Files)
	if err != nil {
		return nil, fmt.Errorf("history: encode files: %w", err)
	}
	return &record{
		ID:       r.ID.String(),
		Project:  r.Project,
		Path:     r.Path,
		Backend:  string(r.Backend),
		Layout:   string(r.Layout),
		Status:   string(r.Status),
		Category: r.Category,
		Message:  r.Message,
		Files:    files,
		Created:  r.CreatedAt.UnixMilli(),
		Spec:     r.Spec,
	}, nil
}

func (rec *record) run() (*Run, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("history: scan run: %w", err)
	}
	r := &Run{
		ID:        id,
		Project:   rec.Project,
		Path:      rec.Path,
		Backend:   schema.Backend(rec.Backend),
		Layout:    schema.Layout(rec.Layout),
		Status:    Status(rec.Status),
		Category:  rec.Category,
		Message:   rec.Message,
		CreatedAt: time.UnixMilli(rec.Created).UTC(),
		Spec:      rec.Spec,
	}
	if len(rec.Files) > 0 {
		if err := msgpack.Unmarshal(rec.Files, &r.Files); err != nil {
			return nil, fmt.Errorf("history: decode files of run %s: %w", rec.ID, err)
		}
	}
	return r, nil
}

// Migrate creates or updates the runs table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&record{}); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// Record inserts r. A zero ID or CreatedAt is filled in.
func (s *Store) Record(ctx context.Context, r *Run) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	rec, err := toRecord(r)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("history: record run %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the run with the given id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	var rec record
	err := s.db.WithContext(ctx).Where("id = ?", id.String()).Take(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("history: get run %s: %w", id, err)
	}
	return rec.run()
}

// List returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []record
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	runs := make([]*Run, 0, len(recs))
	for i := range recs {
		r, err := recs[i].run()
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, nil
}
