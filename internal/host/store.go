package host

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ghiro/autoupload/internal/config"
	"github.com/ghiro/autoupload/internal/core"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// ErrUserNotFound is returned when no user has the requested name.
var ErrUserNotFound = errors.New("user not found")

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		owner_id INTEGER NOT NULL REFERENCES users(id),
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		case_id INTEGER NOT NULL REFERENCES cases(id),
		owner_id INTEGER NOT NULL REFERENCES users(id),
		file_name TEXT NOT NULL,
		storage_ref TEXT NOT NULL,
		checksum TEXT,
		size INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL,
		trace_id TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_case ON analyses(case_id)`,
}

// Store gives access to the host platform tables: users, cases and analyses.
// It implements core.CaseRegistry.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the host database and applies migrations.
func Open(ctx context.Context, hc config.HostConfig) (*Store, error) {
	if err := config.ValidateHostConfig(hc); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(hc.Database); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", hc.Database)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// pragmas below are per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: hc.Database}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, username string) (*core.User, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO users (username, created_at) VALUES (?, ?)`, username, now())
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &core.User{ID: id, Username: username}, nil
}

// GetUserByName fetches a user by name. It returns ErrUserNotFound if there is none.
func (s *Store) GetUserByName(ctx context.Context, username string) (*core.User, error) {
	u := &core.User{}
	err := s.db.QueryRowContext(ctx, `SELECT id, username FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", username, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return u, nil
}

// CreateCase inserts a case owned by owner.
func (s *Store) CreateCase(ctx context.Context, name string, owner *core.User) (*core.Case, error) {
	if owner == nil {
		return nil, errors.New("case owner is required")
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO cases (name, owner_id, created_at) VALUES (?, ?, ?)`,
		name, owner.ID, now())
	if err != nil {
		return nil, fmt.Errorf("insert case: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &core.Case{ID: id, Name: name, Owner: owner}, nil
}

const caseColumns = `c.id, c.name, u.id, u.username FROM cases c JOIN users u ON u.id = c.owner_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*core.Case, error) {
	c := &core.Case{Owner: &core.User{}}
	if err := row.Scan(&c.ID, &c.Name, &c.Owner.ID, &c.Owner.Username); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCases returns all cases ordered by id.
func (s *Store) ListCases(ctx context.Context) ([]*core.Case, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+caseColumns+` ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	var cases []*core.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}

	return cases, nil
}

// GetCase fetches a case by id. It returns an error wrapping core.ErrCaseNotFound if there is none.
func (s *Store) GetCase(ctx context.Context, id int64) (*core.Case, error) {
	c, err := scanCase(s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case %d: %w", id, core.ErrCaseNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query case %d: %w", id, err)
	}

	return c, nil
}

// NewAnalysis carries the fields of an analysis task to create.
type NewAnalysis struct {
	CaseID     int64
	OwnerID    int64
	FileName   string
	StorageRef string
	Checksum   string
	Size       int64
	TraceId    string
}

// AddAnalysis enqueues an analysis task in waiting state.
func (s *Store) AddAnalysis(ctx context.Context, na NewAnalysis) (*core.Analysis, error) {
	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (
            case_id, owner_id, file_name, storage_ref, checksum, size, state, trace_id, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		na.CaseID,
		na.OwnerID,
		na.FileName,
		na.StorageRef,
		na.Checksum,
		na.Size,
		core.AnalysisStateWaiting,
		na.TraceId,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &core.Analysis{
		ID:         id,
		CaseID:     na.CaseID,
		OwnerID:    na.OwnerID,
		FileName:   na.FileName,
		StorageRef: na.StorageRef,
		Checksum:   na.Checksum,
		Size:       na.Size,
		State:      core.AnalysisStateWaiting,
		TraceId:    na.TraceId,
		CreatedAt:  createdAt,
	}, nil
}

// ListAnalyses returns the analyses of a case ordered by id.
func (s *Store) ListAnalyses(ctx context.Context, caseID int64) ([]*core.Analysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, case_id, owner_id, file_name, storage_ref, COALESCE(checksum, ''), size, state,
                COALESCE(trace_id, ''), created_at
         FROM analyses WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*core.Analysis
	for rows.Next() {
		a := &core.Analysis{}
		var createdAt string
		if err := rows.Scan(&a.ID, &a.CaseID, &a.OwnerID, &a.FileName, &a.StorageRef, &a.Checksum,
			&a.Size, &a.State, &a.TraceId, &createdAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		analyses = append(analyses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}

	return analyses, nil
}
