package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dvloznov/statement-recon/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps ledger entries in a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("OpenSQLite: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("OpenSQLite: migrating: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func runMigrations(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", src, "sqlite3", driver)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListEntries implements Source. Entries come back oldest first.
func (s *SQLiteStore) ListEntries(ctx context.Context) ([]domain.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, date, description, amount, type, category
	FROM ledger_entries
	ORDER BY date, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("ListEntries: %w", err)
	}
	defer rows.Close()

	out := []domain.LedgerEntry{}
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.Description, &e.Amount, &e.Type, &e.Category); err != nil {
			return nil, fmt.Errorf("ListEntries: scanning: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListEntries: %w", err)
	}
	return out, nil
}

// GetEntry returns one entry by id.
func (s *SQLiteStore) GetEntry(ctx context.Context, id string) (domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.db.QueryRowContext(ctx, `
	SELECT id, date, description, amount, type, category
	FROM ledger_entries WHERE id = ?`, id).
		Scan(&e.ID, &e.Date, &e.Description, &e.Amount, &e.Type, &e.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if err != nil {
		return e, fmt.Errorf("GetEntry: %w", err)
	}
	return e, nil
}

// AddEntry implements Store. The stored entry, with its new id, is returned.
func (s *SQLiteStore) AddEntry(ctx context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error) {
	e = Sanitize(e)
	if err := ValidateEntry(e, s.now()); err != nil {
		return domain.LedgerEntry{}, err
	}
	date, err := StoredDate(e.Date)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	e.Date = date
	e.ID = uuid.New().String()

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO ledger_entries(id, date, description, amount, type, category, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		e.ID, e.Date, e.Description, e.Amount, e.Type, e.Category)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("AddEntry: %w", err)
	}
	return e, nil
}

// UpdateEntry implements Store. Empty string fields keep their stored value.
func (s *SQLiteStore) UpdateEntry(ctx context.Context, id string, e domain.LedgerEntry) (domain.LedgerEntry, error) {
	if id == "" {
		return domain.LedgerEntry{}, ErrInvalidID
	}
	e = Sanitize(e)
	if err := ValidateUpdate(e); err != nil {
		return domain.LedgerEntry{}, err
	}

	current, err := s.GetEntry(ctx, id)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if e.Date != "" {
		if current.Date, err = StoredDate(e.Date); err != nil {
			return domain.LedgerEntry{}, err
		}
	}
	if e.Description != "" {
		current.Description = e.Description
	}
	if e.Amount != 0 {
		current.Amount = e.Amount
	}
	if e.Type != "" {
		current.Type = e.Type
	}
	if e.Category != "" {
		current.Category = e.Category
	}

	_, err = s.db.ExecContext(ctx, `
	UPDATE ledger_entries
	SET date = ?, description = ?, amount = ?, type = ?, category = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`,
		current.Date, current.Description, current.Amount, current.Type, current.Category, id)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("UpdateEntry: %w", err)
	}
	return current, nil
}

// DeleteEntry implements Store.
func (s *SQLiteStore) DeleteEntry(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeleteEntry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
