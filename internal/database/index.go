package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/nao1215/sitesearch/internal/model"
)

// SaveBatch stores a crawled batch of one site in a single transaction:
// the pages, the lemmas with their absolute frequencies and one index row
// per (lemma, page). ranks[i] maps each lemma of pages[i] to its count on
// that page, and every lemma named in ranks must be present in lemmas.
//
// Page and lemma IDs are set on success. On failure nothing is written and
// the page IDs are reset to zero.
func (sdb *SearchDB) SaveBatch(ctx context.Context, pages []*model.Page, lemmas []*model.Lemma, ranks []map[string]int) error {
	if len(pages) != len(ranks) {
		return fmt.Errorf("batch has %d pages but %d rank sets", len(pages), len(ranks))
	}
	if len(pages) == 0 {
		return nil
	}

	err := sdb.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertPages(ctx, tx, pages); err != nil {
			return err
		}
		if err := upsertLemmas(ctx, tx, lemmas); err != nil {
			return err
		}

		ids := make(map[string]int64, len(lemmas))
		for _, l := range lemmas {
			ids[l.Lemma] = l.ID
		}
		var indexes []*model.Index
		for i, p := range pages {
			for _, lemma := range sortedKeys(ranks[i]) {
				id, ok := ids[lemma]
				if !ok {
					return fmt.Errorf("lemma %q of page %s is missing from the batch", lemma, p.Path)
				}
				indexes = append(indexes, &model.Index{LemmaID: id, PageID: p.ID, Rank: float64(ranks[i][lemma])})
			}
		}
		return insertIndexes(ctx, tx, indexes)
	})
	if err != nil {
		resetPageIDs(pages)
		return err
	}
	return nil
}

// ReplaceIndexedPage stores p and its index rows in one transaction.
// A page of the same site and path is deleted first and the frequency of
// every lemma that indexed it is decremented. The lemmas of ranks are then
// incremented, so frequencies keep matching the number of index rows.
// On failure the old page is left in place and p.ID is reset to zero.
func (sdb *SearchDB) ReplaceIndexedPage(ctx context.Context, p *model.Page, ranks map[string]int) error {
	err := sdb.withTx(ctx, func(tx *sql.Tx) error {
		var oldID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM page WHERE site_id = ? AND path = ?`, p.SiteID, p.Path).Scan(&oldID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("failed to look up page: %w", err)
		default:
			if err := deletePage(ctx, tx, oldID); err != nil {
				return err
			}
		}

		if err := insertPages(ctx, tx, []*model.Page{p}); err != nil {
			return err
		}

		lemmas := sortedKeys(ranks)
		ids, err := incrementLemmas(ctx, tx, p.SiteID, lemmas)
		if err != nil {
			return err
		}
		indexes := make([]*model.Index, 0, len(lemmas))
		for _, lemma := range lemmas {
			indexes = append(indexes, &model.Index{LemmaID: ids[lemma], PageID: p.ID, Rank: float64(ranks[lemma])})
		}
		return insertIndexes(ctx, tx, indexes)
	})
	if err != nil {
		p.ID = 0
		return err
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
