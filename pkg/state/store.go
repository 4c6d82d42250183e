package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/types"
)

// ErrSnapshotNotFound is returned when no snapshot matches a lookup.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store persists department snapshots and person portfolio sets in SQLite,
// versioned by gazette number and date. Saving a version that already exists
// replaces it and makes it the latest.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a Store at dbPath, creating tables if they don't exist.
// ":memory:" opens an in-memory database shared within the process.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection keeps an in-memory database from splitting per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	store := &Store{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return store, nil
}

// createTables creates the required tables and indexes if they don't exist.
// The snapshot id doubles as the save sequence used to pick the latest.
func (store *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		gazette_number TEXT NOT NULL,
		date TEXT NOT NULL,
		saved_at DATETIME NOT NULL,
		UNIQUE (kind, gazette_number, date)
	);

	CREATE TABLE IF NOT EXISTS ministries (
		snapshot_id INTEGER NOT NULL,
		ordinal INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (snapshot_id, ordinal)
	);

	CREATE TABLE IF NOT EXISTS departments (
		snapshot_id INTEGER NOT NULL,
		ministry_ordinal INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (snapshot_id, ministry_ordinal, position)
	);

	CREATE TABLE IF NOT EXISTS portfolios (
		snapshot_id INTEGER NOT NULL,
		ordinal INTEGER NOT NULL,
		ministry TEXT NOT NULL,
		position TEXT NOT NULL,
		person TEXT NOT NULL,
		PRIMARY KEY (snapshot_id, ordinal)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_date ON snapshots(kind, date);
	CREATE INDEX IF NOT EXISTS idx_ministries_name ON ministries(snapshot_id, name);
	`

	if _, err := store.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (store *Store) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.db.Close()
}

// SaveSnapshot stores snapshot under its version.
func (store *Store) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return errors.New("save snapshot: nil snapshot")
	}
	version := snapshot.Version()
	if version.GazetteNumber == "" || version.Date == "" {
		return fmt.Errorf("save snapshot: incomplete version %q", version)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	return store.withTx(ctx, func(tx *sql.Tx) error {
		snapshotID, err := replaceVersion(ctx, tx, gazette.KindMinDep, version)
		if err != nil {
			return err
		}

		ministryStmt, err := tx.PrepareContext(ctx, `INSERT INTO ministries (snapshot_id, ordinal, name) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer ministryStmt.Close()

		departmentStmt, err := tx.PrepareContext(ctx, `INSERT INTO departments (snapshot_id, ministry_ordinal, position, name) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer departmentStmt.Close()

		for ordinal, listing := range snapshot.Listings() {
			if _, err := ministryStmt.ExecContext(ctx, snapshotID, ordinal, listing.Name); err != nil {
				return fmt.Errorf("insert ministry %q: %w", listing.Name, err)
			}
			for index, department := range listing.Departments {
				if _, err := departmentStmt.ExecContext(ctx, snapshotID, ordinal, index+1, department); err != nil {
					return fmt.Errorf("insert department %q: %w", department, err)
				}
			}
		}
		return nil
	})
}

// LoadSnapshot returns the snapshot saved under version.
func (store *Store) LoadSnapshot(ctx context.Context, version Version) (*Snapshot, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	var snapshotID int64
	err := store.db.QueryRowContext(ctx, `
		SELECT id FROM snapshots WHERE kind = ? AND gazette_number = ? AND date = ?
	`, string(gazette.KindMinDep), version.GazetteNumber, version.Date).Scan(&snapshotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, version)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot %s: %w", version, err)
	}

	return store.loadSnapshot(ctx, snapshotID, version)
}

// LatestSnapshot returns the most recently saved department snapshot.
func (store *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	snapshotID, version, err := store.latest(ctx, gazette.KindMinDep)
	if err != nil {
		return nil, err
	}
	return store.loadSnapshot(ctx, snapshotID, version)
}

// SnapshotsByDate returns every department snapshot version effective on
// date, in save order. Several gazettes can share a date.
func (store *Store) SnapshotsByDate(ctx context.Context, date string) ([]Version, error) {
	return store.SnapshotsBetween(ctx, date, date)
}

// SnapshotsBetween returns department snapshot versions with from <= date <=
// to, ordered by date then save order. Dates are ISO-8601 strings.
func (store *Store) SnapshotsBetween(ctx context.Context, from, to string) ([]Version, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	rows, err := store.db.QueryContext(ctx, `
		SELECT gazette_number, date FROM snapshots
		WHERE kind = ? AND date >= ? AND date <= ?
		ORDER BY date, id
	`, string(gazette.KindMinDep), from, to)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	versions := []Version{}
	for rows.Next() {
		var version Version
		if err := rows.Scan(&version.GazetteNumber, &version.Date); err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

// DepartmentOrder returns ministry's departments in position order as of
// version.
func (store *Store) DepartmentOrder(ctx context.Context, ministry string, version Version) ([]string, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	rows, err := store.db.QueryContext(ctx, `
		SELECT d.name
		FROM snapshots s
		JOIN ministries m ON m.snapshot_id = s.id
		LEFT JOIN departments d ON d.snapshot_id = s.id AND d.ministry_ordinal = m.ordinal
		WHERE s.kind = ? AND s.gazette_number = ? AND s.date = ? AND m.name = ?
		ORDER BY d.position
	`, string(gazette.KindMinDep), version.GazetteNumber, version.Date, ministry)
	if err != nil {
		return nil, fmt.Errorf("query department order: %w", err)
	}
	defer rows.Close()

	found := false
	departments := []string{}
	for rows.Next() {
		found = true
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name.Valid {
			departments = append(departments, name.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %q at %s", ErrSnapshotNotFound, ministry, version)
	}
	return departments, nil
}

// SavePortfolios stores the full person to portfolio assignment at version.
func (store *Store) SavePortfolios(ctx context.Context, version Version, portfolios []types.Portfolio) error {
	if version.GazetteNumber == "" || version.Date == "" {
		return fmt.Errorf("save portfolios: incomplete version %q", version)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	return store.withTx(ctx, func(tx *sql.Tx) error {
		snapshotID, err := replaceVersion(ctx, tx, gazette.KindPerson, version)
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO portfolios (snapshot_id, ordinal, ministry, position, person) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for ordinal, portfolio := range portfolios {
			if _, err := stmt.ExecContext(ctx, snapshotID, ordinal, portfolio.Ministry, portfolio.Position, portfolio.Person); err != nil {
				return fmt.Errorf("insert portfolio for %q: %w", portfolio.Person, err)
			}
		}
		return nil
	})
}

// CurrentPortfolios returns the most recently saved portfolio set and its
// version. Before any person gazette has been committed it returns an empty
// set and a zero version, not an error.
func (store *Store) CurrentPortfolios(ctx context.Context) ([]types.Portfolio, Version, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	snapshotID, version, err := store.latest(ctx, gazette.KindPerson)
	if errors.Is(err, ErrSnapshotNotFound) {
		return []types.Portfolio{}, Version{}, nil
	}
	if err != nil {
		return nil, Version{}, err
	}

	portfolios, err := store.loadPortfolios(ctx, snapshotID)
	return portfolios, version, err
}

// LoadPortfolios returns the portfolio set saved under version.
func (store *Store) LoadPortfolios(ctx context.Context, version Version) ([]types.Portfolio, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	var snapshotID int64
	err := store.db.QueryRowContext(ctx, `
		SELECT id FROM snapshots WHERE kind = ? AND gazette_number = ? AND date = ?
	`, string(gazette.KindPerson), version.GazetteNumber, version.Date).Scan(&snapshotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: portfolios %s", ErrSnapshotNotFound, version)
	}
	if err != nil {
		return nil, fmt.Errorf("query portfolios %s: %w", version, err)
	}

	return store.loadPortfolios(ctx, snapshotID)
}

// Clear removes every stored snapshot and portfolio set.
func (store *Store) Clear(ctx context.Context) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"departments", "ministries", "portfolios", "snapshots"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func (store *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// replaceVersion deletes any existing rows for version and inserts a fresh
// header, returning its id.
func replaceVersion(ctx context.Context, tx *sql.Tx, kind gazette.Kind, version Version) (int64, error) {
	var existingID int64
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM snapshots WHERE kind = ? AND gazette_number = ? AND date = ?
	`, string(kind), version.GazetteNumber, version.Date).Scan(&existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return 0, fmt.Errorf("replace %s: %w", version, err)
	default:
		for _, table := range []string{"departments", "ministries", "portfolios"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE snapshot_id = ?", existingID); err != nil {
				return 0, fmt.Errorf("replace %s: %w", version, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", existingID); err != nil {
			return 0, fmt.Errorf("replace %s: %w", version, err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (kind, gazette_number, date, saved_at) VALUES (?, ?, ?, ?)
	`, string(kind), version.GazetteNumber, version.Date, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", version, err)
	}
	return result.LastInsertId()
}

func (store *Store) latest(ctx context.Context, kind gazette.Kind) (int64, Version, error) {
	var snapshotID int64
	var version Version
	err := store.db.QueryRowContext(ctx, `
		SELECT id, gazette_number, date FROM snapshots WHERE kind = ? ORDER BY id DESC LIMIT 1
	`, string(kind)).Scan(&snapshotID, &version.GazetteNumber, &version.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, Version{}, ErrSnapshotNotFound
	}
	if err != nil {
		return 0, Version{}, fmt.Errorf("query latest %s snapshot: %w", kind, err)
	}
	return snapshotID, version, nil
}

func (store *Store) loadSnapshot(ctx context.Context, snapshotID int64, version Version) (*Snapshot, error) {
	rows, err := store.db.QueryContext(ctx, `
		SELECT m.ordinal, m.name, d.name
		FROM ministries m
		LEFT JOIN departments d ON d.snapshot_id = m.snapshot_id AND d.ministry_ordinal = m.ordinal
		WHERE m.snapshot_id = ?
		ORDER BY m.ordinal, d.position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot rows: %w", err)
	}
	defer rows.Close()

	var listings []gazette.MinistryListing
	lastOrdinal := -1
	for rows.Next() {
		var ordinal int
		var ministry string
		var department sql.NullString
		if err := rows.Scan(&ordinal, &ministry, &department); err != nil {
			return nil, err
		}
		if ordinal != lastOrdinal {
			listings = append(listings, gazette.MinistryListing{Name: ministry, Departments: []string{}})
			lastOrdinal = ordinal
		}
		if department.Valid {
			current := &listings[len(listings)-1]
			current.Departments = append(current.Departments, department.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return NewSnapshot(version, listings)
}

func (store *Store) loadPortfolios(ctx context.Context, snapshotID int64) ([]types.Portfolio, error) {
	rows, err := store.db.QueryContext(ctx, `
		SELECT ministry, position, person FROM portfolios WHERE snapshot_id = ? ORDER BY ordinal
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := []types.Portfolio{}
	for rows.Next() {
		var portfolio types.Portfolio
		if err := rows.Scan(&portfolio.Ministry, &portfolio.Position, &portfolio.Person); err != nil {
			return nil, err
		}
		portfolios = append(portfolios, portfolio)
	}
	return portfolios, rows.Err()
}
