package overlap

import (
	"reflect"
	"testing"

	"github.com/salamyar/salamyar/pkg/selection"
	"github.com/salamyar/salamyar/pkg/similar"
)

func sel(id, itemID int64, name string) selection.Selection {
	return selection.Selection{ID: id, ItemID: itemID, ItemName: name}
}

func item(vendorID int64, vendorName string, sourceSelectionID int64) similar.Item {
	return similar.Item{
		ItemID:            vendorID*1000 + sourceSelectionID,
		VendorID:          vendorID,
		VendorName:        vendorName,
		SourceSelectionID: sourceSelectionID,
	}
}

func TestAnalyzeFiltersAndOrdersVendors(t *testing.T) {
	selections := []selection.Selection{
		sel(1, 100, "pot"),
		sel(2, 200, "pan"),
		sel(3, 300, "kettle"),
	}
	// Vendor V covers selections {1,2}, W covers {1}, X covers {1,2,3}.
	items := []similar.Item{
		item(10, "V", 1),
		item(10, "V", 2),
		item(20, "W", 1),
		item(30, "X", 1),
		item(30, "X", 2),
		item(30, "X", 3),
	}

	report := Analyze(selections, items)

	if len(report.Vendors) != 2 {
		t.Fatalf("expected vendors X and V only, got %d vendors", len(report.Vendors))
	}
	if report.Vendors[0].VendorName != "X" || report.Vendors[0].MatchedSelectionCount != 3 {
		t.Fatalf("X (count 3) must come first, got %s (count %d)",
			report.Vendors[0].VendorName, report.Vendors[0].MatchedSelectionCount)
	}
	if report.Vendors[1].VendorName != "V" || report.Vendors[1].MatchedSelectionCount != 2 {
		t.Fatalf("V (count 2) must come second, got %s (count %d)",
			report.Vendors[1].VendorName, report.Vendors[1].MatchedSelectionCount)
	}
	if !reflect.DeepEqual(report.Vendors[0].MatchedSelectionIDs, []int64{1, 2, 3}) {
		t.Fatalf("unexpected matched selection ids for X: %#v", report.Vendors[0].MatchedSelectionIDs)
	}
	if report.TotalSelections != 3 || report.TotalSimilarItems != 6 {
		t.Fatalf("unexpected totals: %d selections, %d items", report.TotalSelections, report.TotalSimilarItems)
	}
}

func TestAnalyzeOrdersEqualCountsByVendorName(t *testing.T) {
	selections := []selection.Selection{sel(1, 100, "a"), sel(2, 200, "b")}
	items := []similar.Item{
		item(10, "zeta", 1),
		item(10, "zeta", 2),
		item(20, "alpha", 1),
		item(20, "alpha", 2),
	}

	report := Analyze(selections, items)

	var names []string
	for _, v := range report.Vendors {
		names = append(names, v.VendorName)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "zeta"}) {
		t.Fatalf("ties must order by vendor name ascending, got %#v", names)
	}
}

func TestAnalyzeVendorNameFirstSeenWins(t *testing.T) {
	selections := []selection.Selection{sel(1, 100, "a"), sel(2, 200, "b")}
	items := []similar.Item{
		{VendorID: 10, VendorName: "Original Name", SourceSelectionID: 1},
		{VendorID: 10, VendorName: "Renamed Shop", SourceSelectionID: 2},
	}

	report := Analyze(selections, items)

	if len(report.Vendors) != 1 {
		t.Fatalf("expected one vendor, got %d", len(report.Vendors))
	}
	if report.Vendors[0].VendorName != "Original Name" {
		t.Fatalf("first-seen vendor name must win, got %q", report.Vendors[0].VendorName)
	}
}

func TestAnalyzeEmptySelections(t *testing.T) {
	report := Analyze(nil, nil)

	if report.TotalSelections != 0 || report.TotalSimilarItems != 0 {
		t.Fatalf("expected all-zero totals, got %d/%d", report.TotalSelections, report.TotalSimilarItems)
	}
	if len(report.Vendors) != 0 || len(report.Summaries) != 0 {
		t.Fatal("expected empty vendor list and summaries")
	}
}

func TestAnalyzeSummariesCountSingleMatchVendors(t *testing.T) {
	selections := []selection.Selection{sel(1, 100, "pot"), sel(2, 200, "pan")}
	// W covers only selection 1, so it is excluded from the vendor list
	// but still counted in selection 1's summary.
	items := []similar.Item{
		item(20, "W", 1),
		item(20, "W", 1),
	}

	report := Analyze(selections, items)

	if len(report.Vendors) != 0 {
		t.Fatalf("a single-selection vendor is not an overlap, got %d vendors", len(report.Vendors))
	}
	if len(report.Summaries) != 2 {
		t.Fatalf("expected a summary per selection, got %d", len(report.Summaries))
	}
	first := report.Summaries[0]
	if first.SelectionID != 1 || first.ItemsFound != 2 || first.Vendors != 1 {
		t.Fatalf("unexpected summary for selection 1: %#v", first)
	}
	second := report.Summaries[1]
	if second.ItemsFound != 0 || second.Vendors != 0 {
		t.Fatalf("unexpected summary for selection 2: %#v", second)
	}
}
