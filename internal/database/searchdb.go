package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitesearch/internal/model"
)

// DBFileName is the name of the SQLite file inside the database directory.
const DBFileName = "sitesearch.db"

// SearchDB provides SQLite-based storage for sites, pages, lemmas and the
// inverted index. All methods are safe for concurrent use; writes are
// serialized on a single connection.
type SearchDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures SearchDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so searches can read while a
	// crawl is writing.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a SearchDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*SearchDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Pragmas in the DSN are applied to every new connection, so foreign
	// keys stay enforced after the pool recycles its connection.
	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	dsn := dbPath + "?mode=" + mode + "&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SearchDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *SearchDB) Close() error {
	return sdb.db.Close()
}

// Path returns the database file path.
func (sdb *SearchDB) Path() string {
	return sdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (sdb *SearchDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS site (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		status_time INTEGER NOT NULL,
		last_error TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS page (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site_id INTEGER NOT NULL REFERENCES site(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		code INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		UNIQUE(site_id, path)
	);

	-- frequency is the number of pages of the site containing the lemma
	CREATE TABLE IF NOT EXISTS lemma (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site_id INTEGER NOT NULL REFERENCES site(id) ON DELETE CASCADE,
		lemma TEXT NOT NULL,
		frequency INTEGER NOT NULL,
		UNIQUE(site_id, lemma)
	);

	CREATE TABLE IF NOT EXISTS search_index (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		lemma_id INTEGER NOT NULL REFERENCES lemma(id) ON DELETE CASCADE,
		page_id INTEGER NOT NULL REFERENCES page(id) ON DELETE CASCADE,
		rank REAL NOT NULL,
		UNIQUE(lemma_id, page_id)
	);

	CREATE INDEX IF NOT EXISTS idx_search_index_page ON search_index(page_id);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// UpsertSite inserts the site or, when a row with the same URL exists,
// overwrites its name and status. site.ID is set on return.
func (sdb *SearchDB) UpsertSite(ctx context.Context, site *model.Site) error {
	query := `
	INSERT INTO site (url, name, status, status_time, last_error)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		name = excluded.name,
		status = excluded.status,
		status_time = excluded.status_time,
		last_error = excluded.last_error
	RETURNING id
	`

	err := sdb.db.QueryRowContext(ctx, query,
		site.URL,
		site.Name,
		site.Status.String(),
		site.StatusTime.UnixMilli(),
		site.LastError,
	).Scan(&site.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert site %s: %w", site.URL, err)
	}
	return nil
}

// FindSiteByURL returns the site with the given root URL, or nil if none.
func (sdb *SearchDB) FindSiteByURL(ctx context.Context, url string) (*model.Site, error) {
	row := sdb.db.QueryRowContext(ctx, `
	SELECT id, url, name, status, status_time, last_error
	FROM site WHERE url = ?`, url)

	site, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return site, nil
}

// ListSites returns all stored sites ordered by id.
func (sdb *SearchDB) ListSites(ctx context.Context) ([]*model.Site, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT id, url, name, status, status_time, last_error
	FROM site ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []*model.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// UpdateSiteStatus sets the status, status time and error of a site.
func (sdb *SearchDB) UpdateSiteStatus(ctx context.Context, siteID int64, status model.Status, lastError string, at time.Time) error {
	_, err := sdb.db.ExecContext(ctx, `
	UPDATE site SET status = ?, status_time = ?, last_error = ? WHERE id = ?`,
		status.String(), at.UnixMilli(), lastError, siteID)
	if err != nil {
		return fmt.Errorf("failed to update site status: %w", err)
	}
	return nil
}

// TouchSite refreshes the status time of a site.
func (sdb *SearchDB) TouchSite(ctx context.Context, siteID int64, at time.Time) error {
	_, err := sdb.db.ExecContext(ctx, `UPDATE site SET status_time = ? WHERE id = ?`, at.UnixMilli(), siteID)
	if err != nil {
		return fmt.Errorf("failed to touch site: %w", err)
	}
	return nil
}

// Wipe deletes every site together with its pages, lemmas and index rows
// and resets the id sequences, so the next rows start again at 1.
func (sdb *SearchDB) Wipe(ctx context.Context) error {
	tables := []string{"search_index", "lemma", "page", "site"}
	return sdb.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil { //nolint:gosec // table names are constants
				return fmt.Errorf("failed to wipe %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name IN (?, ?, ?, ?)`,
			tables[0], tables[1], tables[2], tables[3]); err != nil {
			return fmt.Errorf("failed to reset id sequences: %w", err)
		}
		return nil
	})
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*model.Site, error) {
	var (
		site   model.Site
		status string
		millis int64
	)
	if err := row.Scan(&site.ID, &site.URL, &site.Name, &status, &millis, &site.LastError); err != nil {
		return nil, err
	}
	st, err := model.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	site.Status = st
	site.StatusTime = time.UnixMilli(millis)
	return &site, nil
}

// withTx runs fn inside a transaction, committing on success.
// fn must use tx only: the pool has a single connection, so touching
// sdb.db inside fn would block forever.
func (sdb *SearchDB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback() //nolint:errcheck // the fn error is more useful
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
