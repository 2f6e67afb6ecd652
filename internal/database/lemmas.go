package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nao1215/sitesearch/internal/model"
)

// FindLemma returns the lemma row of a site, or nil if the site has none.
func (sdb *SearchDB) FindLemma(ctx context.Context, siteID int64, lemma string) (*model.Lemma, error) {
	var l model.Lemma
	err := sdb.db.QueryRowContext(ctx, `
	SELECT id, site_id, lemma, frequency
	FROM lemma WHERE site_id = ? AND lemma = ?`, siteID, lemma).Scan(
		&l.ID, &l.SiteID, &l.Lemma, &l.Frequency,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lemma: %w", err)
	}
	return &l, nil
}

// upsertLemmas writes lemmas with their absolute frequencies, inserting new
// rows and overwriting the frequency of existing ones. IDs are set on return.
func upsertLemmas(ctx context.Context, tx *sql.Tx, lemmas []*model.Lemma) error {
	if len(lemmas) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO lemma (site_id, lemma, frequency)
	VALUES (?, ?, ?)
	ON CONFLICT(site_id, lemma) DO UPDATE SET frequency = excluded.frequency
	RETURNING id`)
	if err != nil {
		return fmt.Errorf("failed to prepare lemma upsert: %w", err)
	}
	defer stmt.Close()

	for _, l := range lemmas {
		if err := stmt.QueryRowContext(ctx, l.SiteID, l.Lemma, l.Frequency).Scan(&l.ID); err != nil {
			return fmt.Errorf("failed to save lemma %q: %w", l.Lemma, err)
		}
	}
	return nil
}

// incrementLemmas adds one to the frequency of each lemma of a site,
// creating missing rows with frequency 1, and returns the lemma ids.
// The increment happens in SQL, so concurrent callers never lose updates.
func incrementLemmas(ctx context.Context, tx *sql.Tx, siteID int64, lemmas []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(lemmas))
	if len(lemmas) == 0 {
		return ids, nil
	}
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO lemma (site_id, lemma, frequency)
	VALUES (?, ?, 1)
	ON CONFLICT(site_id, lemma) DO UPDATE SET frequency = frequency + 1
	RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare lemma increment: %w", err)
	}
	defer stmt.Close()

	for _, lemma := range lemmas {
		var id int64
		if err := stmt.QueryRowContext(ctx, siteID, lemma).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to increment lemma %q: %w", lemma, err)
		}
		ids[lemma] = id
	}
	return ids, nil
}

// insertIndexes inserts index rows and sets their IDs.
func insertIndexes(ctx context.Context, tx *sql.Tx, indexes []*model.Index) error {
	if len(indexes) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO search_index (lemma_id, page_id, rank)
	VALUES (?, ?, ?)
	RETURNING id`)
	if err != nil {
		return fmt.Errorf("failed to prepare index insert: %w", err)
	}
	defer stmt.Close()

	for _, idx := range indexes {
		if err := stmt.QueryRowContext(ctx, idx.LemmaID, idx.PageID, idx.Rank).Scan(&idx.ID); err != nil {
			return fmt.Errorf("failed to insert index row: %w", err)
		}
	}
	return nil
}

// IndexesByLemma returns every index row of a lemma.
func (sdb *SearchDB) IndexesByLemma(ctx context.Context, lemmaID int64) ([]model.Index, error) {
	rows, err := sdb.db.QueryContext(ctx, `
	SELECT id, lemma_id, page_id, rank
	FROM search_index WHERE lemma_id = ?`, lemmaID)
	if err != nil {
		return nil, fmt.Errorf("failed to query index rows: %w", err)
	}
	defer rows.Close()

	var result []model.Index
	for rows.Next() {
		var idx model.Index
		if err := rows.Scan(&idx.ID, &idx.LemmaID, &idx.PageID, &idx.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan index row: %w", err)
		}
		result = append(result, idx)
	}
	return result, rows.Err()
}

// CountLemmas returns the number of lemmas of a site, or of all sites when
// siteID is zero.
func (sdb *SearchDB) CountLemmas(ctx context.Context, siteID int64) (int, error) {
	return sdb.count(ctx, "lemma", siteID)
}
