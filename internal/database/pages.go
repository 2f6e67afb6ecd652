package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nao1215/sitesearch/internal/model"
)

// SavePages inserts pages in one transaction and sets their IDs.
// A page whose (site, path) already exists fails the whole batch.
func (sdb *SearchDB) SavePages(ctx context.Context, pages []*model.Page) error {
	if len(pages) == 0 {
		return nil
	}
	err := sdb.withTx(ctx, func(tx *sql.Tx) error {
		return insertPages(ctx, tx, pages)
	})
	if err != nil {
		resetPageIDs(pages)
	}
	return err
}

func insertPages(ctx context.Context, tx *sql.Tx, pages []*model.Page) error {
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO page (site_id, path, code, title, content)
	VALUES (?, ?, ?, ?, ?)
	RETURNING id`)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pages {
		if err := stmt.QueryRowContext(ctx, p.SiteID, p.Path, p.Code, p.Title, p.Content).Scan(&p.ID); err != nil {
			return fmt.Errorf("failed to insert page %s: %w", p.Path, err)
		}
	}
	return nil
}

// resetPageIDs clears the IDs set by a rolled back insert.
func resetPageIDs(pages []*model.Page) {
	for _, p := range pages {
		p.ID = 0
	}
}

// FindPage returns the page with the given path in a site, or nil if none.
func (sdb *SearchDB) FindPage(ctx context.Context, siteID int64, path string) (*model.Page, error) {
	var p model.Page
	err := sdb.db.QueryRowContext(ctx, `
	SELECT id, site_id, path, code, title, content
	FROM page WHERE site_id = ? AND path = ?`, siteID, path).Scan(
		&p.ID, &p.SiteID, &p.Path, &p.Code, &p.Title, &p.Content,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return &p, nil
}

// PagesByIDs returns the pages with the given ids keyed by id.
// Unknown ids are absent from the result.
func (sdb *SearchDB) PagesByIDs(ctx context.Context, ids []int64) (map[int64]*model.Page, error) {
	result := make(map[int64]*model.Page, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := sdb.db.QueryContext(ctx, `
	SELECT id, site_id, path, code, title, content
	FROM page WHERE id IN (`+placeholders(len(ids))+`)`, args...) //nolint:gosec // only placeholders are interpolated
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Page
		if err := rows.Scan(&p.ID, &p.SiteID, &p.Path, &p.Code, &p.Title, &p.Content); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		result[p.ID] = &p
	}
	return result, rows.Err()
}

// deletePage removes a page and its index rows, decrementing the
// frequency of the lemmas that referenced it.
func deletePage(ctx context.Context, tx *sql.Tx, pageID int64) error {
	if _, err := tx.ExecContext(ctx, `
	UPDATE lemma SET frequency = frequency - 1
	WHERE id IN (SELECT lemma_id FROM search_index WHERE page_id = ?)`, pageID); err != nil {
		return fmt.Errorf("failed to decrement lemma frequencies: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM search_index WHERE page_id = ?`, pageID); err != nil {
		return fmt.Errorf("failed to delete index rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM page WHERE id = ?`, pageID); err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}
	return nil
}

// CountPages returns the number of pages of a site, or of all sites when
// siteID is zero.
func (sdb *SearchDB) CountPages(ctx context.Context, siteID int64) (int, error) {
	return sdb.count(ctx, "page", siteID)
}

// count counts rows of a table that has a site_id column.
func (sdb *SearchDB) count(ctx context.Context, table string, siteID int64) (int, error) {
	var (
		n   int
		err error
	)
	if siteID == 0 {
		err = sdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n) //nolint:gosec // table names are constants
	} else {
		err = sdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE site_id = ?", siteID).Scan(&n) //nolint:gosec // table names are constants
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", table, err)
	}
	return n, nil
}
