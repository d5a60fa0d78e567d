package basalam

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleBody = `{
  "products": [
    {
      "id": 111,
      "name": "copper pot",
      "price": 250000,
      "photo": {"MEDIUM": "https://img/medium.jpg", "SMALL": "https://img/small.jpg"},
      "vendor": {"id": 7, "name": "Acme"},
      "status": {"id": 2976}
    },
    {
      "id": 222,
      "name": "no vendor id",
      "vendor": {"name": "Ghost"},
      "status": {"id": 2976}
    },
    {
      "name": "no product id",
      "vendor": {"id": 8, "name": "Beta"}
    },
    {
      "id": 333,
      "name": "small photo only",
      "photo": {"SMALL": "https://img/only-small.jpg"},
      "vendor": {"id": 9, "name": "Gamma"}
    }
  ],
  "meta": {"count": 40}
}`

func TestParseProductsNormalization(t *testing.T) {
	products := ParseProducts(sampleBody)

	if len(products) != 2 {
		t.Fatalf("records without product or vendor id must be skipped, got %d products", len(products))
	}

	first := products[0]
	if first.ID != 111 || first.VendorID != 7 || first.VendorName != "Acme" {
		t.Fatalf("unexpected first product: %#v", first)
	}
	if first.Price != 250000 || first.StatusID != 2976 {
		t.Fatalf("unexpected price/status: %#v", first)
	}
	if first.ImageURL != "https://img/medium.jpg" {
		t.Fatalf("MEDIUM photo must win, got %q", first.ImageURL)
	}
	if first.Link != "https://basalam.com/p/111" {
		t.Fatalf("unexpected canonical link %q", first.Link)
	}

	second := products[1]
	if second.Price != 0 {
		t.Fatalf("missing price must default to 0, got %f", second.Price)
	}
	if second.ImageURL != "https://img/only-small.jpg" {
		t.Fatalf("image must fall back to SMALL, got %q", second.ImageURL)
	}
}

func TestSearchSendsPaginationParams(t *testing.T) {
	var gotQuery map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"q":    r.URL.Query().Get("q"),
			"from": r.URL.Query().Get("from"),
			"size": r.URL.Query().Get("size"),
		}
		fmt.Fprint(w, sampleBody)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, ts.URL)
	result, err := client.Search(context.Background(), "copper pot", 12, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery["q"] != "copper pot" || gotQuery["from"] != "12" || gotQuery["size"] != "12" {
		t.Fatalf("unexpected query params: %#v", gotQuery)
	}
	if result.TotalCount != 40 {
		t.Fatalf("expected total from meta.count, got %d", result.TotalCount)
	}
	if !result.HasMore {
		t.Fatal("12 + 2 results < 40 total, HasMore must be true")
	}
}

func TestMoreLikeThisSendsItemParams(t *testing.T) {
	var got map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"title":     q.Get("title"),
			"productId": q.Get("productId"),
			"status":    q.Get("status"),
			"from":      q.Get("from"),
			"size":      q.Get("size"),
			"fromCard":  q.Get("fromCard"),
			"ads":       q.Get("ads"),
		}
		fmt.Fprint(w, sampleBody)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, ts.URL)
	products, err := client.MoreLikeThis(context.Background(), MLTQuery{
		Title:    "copper pot",
		ItemID:   111,
		StatusID: 2976,
		From:     24,
		Size:     24,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 normalized products, got %d", len(products))
	}

	expect := map[string]string{
		"title": "copper pot", "productId": "111", "status": "2976",
		"from": "24", "size": "24", "fromCard": "true", "ads": "false",
	}
	for k, v := range expect {
		if got[k] != v {
			t.Fatalf("param %s: want %q, got %q", k, v, got[k])
		}
	}
}

func TestNon200IsAPageError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, ts.URL)
	if _, err := client.MoreLikeThis(context.Background(), MLTQuery{Size: 24}); err == nil {
		t.Fatal("non-200 must surface as an error")
	}
}

func TestRequestTimeoutIsTunable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, sampleBody)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, ts.URL)
	client.Timeout = 20 * time.Millisecond

	start := time.Now()
	if _, err := client.MoreLikeThis(context.Background(), MLTQuery{Size: 24}); err == nil {
		t.Fatal("a page slower than the timeout must surface as an error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("the 20ms request bound took %v to fire", elapsed)
	}
}

func TestMalformedBodyIsAPageError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>definitely not json")
	}))
	defer ts.Close()

	client := NewClient(ts.URL, ts.URL)
	if _, err := client.MoreLikeThis(context.Background(), MLTQuery{Size: 24}); err == nil {
		t.Fatal("malformed body must surface as an error")
	}
}
