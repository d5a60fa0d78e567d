// Package overlap computes which vendors carry similar items for two or
// more of the user's selections.
package overlap

import (
	"sort"
	"time"

	"github.com/salamyar/salamyar/pkg/selection"
	"github.com/salamyar/salamyar/pkg/similar"
)

// MatchThreshold is the minimum number of distinct selections a vendor's
// similar items must cover to count as an overlap.
const MatchThreshold = 2

// VendorMatch is one vendor whose similar items cover multiple selections.
type VendorMatch struct {
	VendorID              int64          `json:"vendor_id"`
	VendorName            string         `json:"vendor_name"`
	MatchedSelectionCount int            `json:"matched_selection_count"`
	MatchedSelectionIDs   []int64        `json:"matched_selection_ids"`
	Items                 []similar.Item `json:"similar_products"`
}

// SelectionSummary reports per-selection fetch coverage. Vendor counting
// here is independent of the overlap filter: any vendor with at least one
// similar item counts.
type SelectionSummary struct {
	SelectionID int64  `json:"selection_id"`
	ItemID      int64  `json:"product_id"`
	ItemName    string `json:"product_name"`
	ItemsFound  int    `json:"similar_products_found"`
	Vendors     int    `json:"vendors_found"`
}

// Report is the result of one aggregation run. It is a pure function of the
// selection snapshot and the fetched corpus; it never touches the store.
type Report struct {
	RunID             string             `json:"run_id"`
	GeneratedAt       time.Time          `json:"generated_at"`
	TotalSelections   int                `json:"total_selected_products"`
	TotalSimilarItems int                `json:"total_similar_products_found"`
	Vendors           []VendorMatch      `json:"vendors_with_multiple_matches"`
	Summaries         []SelectionSummary `json:"processing_summary"`
}

// Analyze groups the corpus by vendor, keeps vendors covering at least
// MatchThreshold distinct selections and orders them by coverage descending,
// vendor name ascending. Ordering is independent of fetch completion timing.
func Analyze(selections []selection.Selection, items []similar.Item) *Report {
	report := &Report{
		Vendors:   []VendorMatch{},
		Summaries: []SelectionSummary{},
	}
	if len(selections) == 0 {
		return report
	}

	report.TotalSelections = len(selections)
	report.TotalSimilarItems = len(items)

	byVendor := make(map[int64][]similar.Item)
	vendorOrder := make([]int64, 0)
	for _, it := range items {
		if _, seen := byVendor[it.VendorID]; !seen {
			vendorOrder = append(vendorOrder, it.VendorID)
		}
		byVendor[it.VendorID] = append(byVendor[it.VendorID], it)
	}

	for _, vendorID := range vendorOrder {
		group := byVendor[vendorID]

		covered := make(map[int64]bool)
		for _, it := range group {
			covered[it.SourceSelectionID] = true
		}
		if len(covered) < MatchThreshold {
			continue
		}

		ids := make([]int64, 0, len(covered))
		for id := range covered {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		report.Vendors = append(report.Vendors, VendorMatch{
			VendorID: vendorID,
			// First-seen name wins; no conflict resolution when records disagree.
			VendorName:            group[0].VendorName,
			MatchedSelectionCount: len(covered),
			MatchedSelectionIDs:   ids,
			Items:                 group,
		})
	}

	sort.Slice(report.Vendors, func(i, j int) bool {
		a, b := report.Vendors[i], report.Vendors[j]
		if a.MatchedSelectionCount != b.MatchedSelectionCount {
			return a.MatchedSelectionCount > b.MatchedSelectionCount
		}
		if a.VendorName != b.VendorName {
			return a.VendorName < b.VendorName
		}
		return a.VendorID < b.VendorID
	})

	for _, sel := range selections {
		summary := SelectionSummary{
			SelectionID: sel.ID,
			ItemID:      sel.ItemID,
			ItemName:    sel.ItemName,
		}
		vendors := make(map[int64]bool)
		for _, it := range items {
			if it.SourceSelectionID != sel.ID {
				continue
			}
			summary.ItemsFound++
			vendors[it.VendorID] = true
		}
		summary.Vendors = len(vendors)
		report.Summaries = append(report.Summaries, summary)
	}

	return report
}
