package report

import (
	"context"
	"fmt"

	"github.com/nao1215/sitesearch/internal/database"
	"github.com/nao1215/sitesearch/internal/model"
)

// Collect builds the statistics of every stored site. indexing reports
// whether a full run is in progress.
func Collect(ctx context.Context, db *database.SearchDB, indexing bool) (*model.Statistics, error) {
	sites, err := db.ListSites(ctx)
	if err != nil {
		return nil, err
	}

	pages, err := db.CountPages(ctx, 0)
	if err != nil {
		return nil, err
	}
	lemmas, err := db.CountLemmas(ctx, 0)
	if err != nil {
		return nil, err
	}

	stats := &model.Statistics{
		Total: model.TotalStatistics{
			Sites:    len(sites),
			Pages:    pages,
			Lemmas:   lemmas,
			Indexing: indexing,
		},
		Detailed: make([]model.DetailedStatistics, 0, len(sites)),
	}

	for _, site := range sites {
		sitePages, err := db.CountPages(ctx, site.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count pages of %s: %w", site.URL, err)
		}
		siteLemmas, err := db.CountLemmas(ctx, site.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count lemmas of %s: %w", site.URL, err)
		}
		stats.Detailed = append(stats.Detailed, model.DetailedStatistics{
			URL:        site.URL,
			Name:       site.Name,
			Status:     site.Status.String(),
			StatusTime: site.StatusTime.UnixMilli(),
			Error:      site.LastError,
			Pages:      sitePages,
			Lemmas:     siteLemmas,
		})
	}
	return stats, nil
}
