package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/coolbeans/hanrei/pkg/store/migrations"
	"github.com/coolbeans/hanrei/pkg/types"
)

const caseColumns = `number, title, court, date, date_iso, result, laws, issues, tax_types,
	topics, keywords, original_case, laws_source, judgment_type, sections`

// DB is an SQLite-backed corpus store.
type DB struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies pending
// migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := New(db)
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// New wraps an open database handle without migrating it.
func New(db *sql.DB) *DB {
	return &DB{db: db}
}

// Close closes the database connection.
func (s *DB) Close() error {
	return s.db.Close()
}

// Migrate runs all pending migrations.
func (s *DB) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// SaveCorpus replaces the stored corpus with corpus in one transaction.
func (s *DB) SaveCorpus(ctx context.Context, corpus *types.Corpus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cases"); err != nil {
		return fmt.Errorf("clearing cases: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cases (position, `+caseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range corpus.Cases() {
		args, err := caseArgs(c)
		if err != nil {
			return fmt.Errorf("case %s: %w", c.Number, err)
		}
		if _, err := stmt.ExecContext(ctx, append([]any{i}, args...)...); err != nil {
			return fmt.Errorf("inserting case %s: %w", c.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing corpus: %w", err)
	}
	return nil
}

// LoadCorpus reads every stored case in corpus order.
func (s *DB) LoadCorpus(ctx context.Context) (*types.Corpus, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+caseColumns+" FROM cases ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying cases: %w", err)
	}
	defer rows.Close()

	var cases []*types.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cases: %w", err)
	}
	return types.NewCorpus(cases), nil
}

// Get returns one stored case. A missing case wraps types.ErrNotFound.
func (s *DB) Get(ctx context.Context, number string) (*types.Case, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+caseColumns+" FROM cases WHERE number = ?", number)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case %s: %w", number, types.ErrNotFound)
	}
	return c, err
}

// SaveRun records a processing report.
func (s *DB) SaveRun(ctx context.Context, id string, startedAt time.Time, report []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, report) VALUES (?, ?, ?)",
		id, startedAt.UTC(), string(report))
	if err != nil {
		return fmt.Errorf("saving run %s: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCase(row scanner) (*types.Case, error) {
	var c types.Case
	var laws, issues, taxTypes, topics, keywords, sections string
	var lawsSource, judgmentType string
	err := row.Scan(&c.Number, &c.Title, &c.Court, &c.Date, &c.DateISO, &c.Result,
		&laws, &issues, &taxTypes, &topics, &keywords,
		&c.OriginalCase, &lawsSource, &judgmentType, &sections)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning case: %w", err)
	}

	c.LawsSource = types.LawsSource(lawsSource)
	c.JudgmentType = types.JudgmentType(judgmentType)

	targets := []struct {
		raw  string
		dest any
	}{
		{laws, &c.Laws},
		{issues, &c.Issues},
		{taxTypes, &c.TaxTypes},
		{topics, &c.Topics},
		{keywords, &c.Keywords},
		{sections, &c.Sections},
	}
	for _, target := range targets {
		if target.raw == "" || target.raw == jsonNull {
			continue
		}
		if err := json.Unmarshal([]byte(target.raw), target.dest); err != nil {
			return nil, fmt.Errorf("decoding case %s: %w", c.Number, err)
		}
	}
	c.Normalize()
	return &c, nil
}

const jsonNull = "null"

func caseArgs(c *types.Case) ([]any, error) {
	lists := []any{c.Laws, c.Issues, c.TaxTypes, c.Topics, c.Keywords, c.Sections}
	encoded := make([]any, len(lists))
	for i, list := range lists {
		data, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("encoding list column: %w", err)
		}
		encoded[i] = string(data)
	}
	return []any{
		c.Number, c.Title, c.Court, c.Date, c.DateISO, c.Result,
		encoded[0], encoded[1], encoded[2], encoded[3], encoded[4],
		c.OriginalCase, string(c.LawsSource), string(c.JudgmentType), encoded[5],
	}, nil
}
