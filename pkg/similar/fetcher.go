// Package similar pulls "more like this" items for a single selection,
// paging through the upstream source until a cap is reached or the source
// runs dry.
package similar

import (
	"context"

	"github.com/salamyar/salamyar/internal/utils"
	"github.com/salamyar/salamyar/pkg/basalam"
	"github.com/salamyar/salamyar/pkg/selection"
)

const (
	DefaultCap      = 100
	DefaultPageSize = 24
)

// Item is one similar product, tagged with the selection whose fetch
// produced it. Created per aggregation run, never stored.
type Item struct {
	ItemID            int64   `json:"id"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	VendorID          int64   `json:"vendor_id"`
	VendorName        string  `json:"vendor_name"`
	StatusID          int64   `json:"status_id"`
	ImageURL          string  `json:"image_url,omitempty"`
	Link              string  `json:"link"`
	SourceSelectionID int64   `json:"source_selection_id"`
}

// PageSource serves one page of similar products. *basalam.Client satisfies
// this; tests substitute fakes.
type PageSource interface {
	MoreLikeThis(ctx context.Context, q basalam.MLTQuery) ([]basalam.Product, error)
}

type Fetcher struct {
	Source   PageSource
	Cap      int
	PageSize int
}

func NewFetcher(source PageSource) *Fetcher {
	return &Fetcher{
		Source:   source,
		Cap:      DefaultCap,
		PageSize: DefaultPageSize,
	}
}

// FetchSimilar collects up to Cap similar items for one selection. Paging
// stops on an empty page, a short page (source exhausted) or the cap. A page
// failure ends the fetch early with whatever accumulated so far; one broken
// selection must not abort a whole aggregation run, so no error is returned.
func (f *Fetcher) FetchSimilar(ctx context.Context, sel selection.Selection) []Item {
	limit := f.Cap
	if limit <= 0 {
		limit = DefaultCap
	}
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	items := make([]Item, 0, limit)
	offset := 0

	for len(items) < limit {
		want := pageSize
		if remaining := limit - len(items); remaining < want {
			want = remaining
		}

		page, err := f.Source.MoreLikeThis(ctx, basalam.MLTQuery{
			Title:    sel.ItemName,
			ItemID:   sel.ItemID,
			StatusID: sel.StatusID,
			From:     offset,
			Size:     want,
		})
		if err != nil {
			utils.Log.Warnf("similar page fetch failed for item %d at offset %d: %v", sel.ItemID, offset, err)
			break
		}
		if len(page) == 0 {
			break
		}

		for _, p := range page {
			items = append(items, fromProduct(p, sel.ID))
		}
		offset += len(page)

		if len(page) < want {
			// Short page: the source is exhausted.
			break
		}
		utils.Log.Debugf("fetched %d similar items for item %d, total %d", len(page), sel.ItemID, len(items))
	}

	// A source that over-delivers must not push us past the cap.
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func fromProduct(p basalam.Product, sourceSelectionID int64) Item {
	return Item{
		ItemID:            p.ID,
		Name:              p.Name,
		Price:             p.Price,
		VendorID:          p.VendorID,
		VendorName:        p.VendorName,
		StatusID:          p.StatusID,
		ImageURL:          p.ImageURL,
		Link:              p.Link,
		SourceSelectionID: sourceSelectionID,
	}
}
