// Package basalam talks to the Basalam marketplace search engine. Two
// endpoints are consumed: plain keyword search and the "more like this"
// (MLT) similarity search, both offset-paginated JSON APIs.
package basalam

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/salamyar/salamyar/pkg/whttp"
)

const (
	DefaultSearchURL = "https://search.basalam.com/ai-engine/api/v2.0/product/search"
	DefaultMLTURL    = "https://search.basalam.com/ai-engine/api/v2.0/mlt"

	productLinkBase = "https://basalam.com/p/"

	defaultRequestTimeout = 15 * time.Second
)

// Product is one normalized catalog record from either endpoint.
type Product struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	VendorID   int64   `json:"vendor_id"`
	VendorName string  `json:"vendor_name"`
	StatusID   int64   `json:"status_id"`
	ImageURL   string  `json:"image_url,omitempty"`
	Link       string  `json:"link"`
}

// SearchResult is one page of keyword search hits plus pagination metadata.
type SearchResult struct {
	Products   []Product `json:"products"`
	TotalCount int64     `json:"total_count"`
	From       int       `json:"from"`
	Size       int       `json:"size"`
	HasMore    bool      `json:"has_more"`
}

// MLTQuery identifies the source item a similarity page is requested for.
type MLTQuery struct {
	Title    string
	ItemID   int64
	StatusID int64
	From     int
	Size     int
}

type Client struct {
	SearchURL string
	MLTURL    string

	// Timeout bounds a single page request. Tune it together with the
	// fetcher's cap and page size; zero falls back to the default.
	Timeout time.Duration

	http    *retryablehttp.Client
	limiter *rate.Limiter
}

// NewClient builds a client with the shared retrying transport and a request
// rate limit so pagination loops cannot hammer the upstream.
func NewClient(searchURL, mltURL string) *Client {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	if mltURL == "" {
		mltURL = DefaultMLTURL
	}
	return &Client{
		SearchURL: searchURL,
		MLTURL:    mltURL,
		Timeout:   defaultRequestTimeout,
		http:      whttp.GetDefaultClient(),
		limiter:   rate.NewLimiter(rate.Limit(10), 5),
	}
}

// Search runs a keyword search. Unlike MLT paging this is a user-facing
// proxy, so upstream failures surface as errors.
func (c *Client) Search(ctx context.Context, query string, from, size int) (*SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("from", strconv.Itoa(from))
	q.Set("size", strconv.Itoa(size))
	q.Set("adsImpressionDisable", "true")

	body, err := c.get(ctx, c.SearchURL, q)
	if err != nil {
		return nil, err
	}

	products := ParseProducts(body)
	total := gjson.Get(body, "meta.count").Int()
	return &SearchResult{
		Products:   products,
		TotalCount: total,
		From:       from,
		Size:       size,
		HasMore:    int64(from+len(products)) < total,
	}, nil
}

// MoreLikeThis fetches one page of similar products for the given item.
func (c *Client) MoreLikeThis(ctx context.Context, q MLTQuery) ([]Product, error) {
	params := url.Values{}
	params.Set("fromCard", "true")
	params.Set("ads", "false")
	params.Set("title", q.Title)
	params.Set("productId", strconv.FormatInt(q.ItemID, 10))
	params.Set("status", strconv.FormatInt(q.StatusID, 10))
	params.Set("from", strconv.Itoa(q.From))
	params.Set("size", strconv.Itoa(q.Size))

	body, err := c.get(ctx, c.MLTURL, params)
	if err != nil {
		return nil, err
	}
	return ParseProducts(body), nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := whttp.SendHTTPRequest(reqCtx, &whttp.WHTTPReq{
		Method: "GET",
		URL:    endpoint,
		Query:  params,
	}, c.http)
	if err != nil {
		return "", err
	}
	if res.StatusCode != 200 {
		return "", fmt.Errorf("basalam returned status %d", res.StatusCode)
	}
	if !gjson.Valid(res.BodyString) {
		return "", fmt.Errorf("basalam returned a malformed body (%d bytes)", res.ResponseLength)
	}
	return res.BodyString, nil
}

// ParseProducts extracts the "products" array from a search or MLT body.
// Records without a product id or vendor id are skipped, price defaults to
// zero and the image falls back from MEDIUM to SMALL.
func ParseProducts(body string) []Product {
	raw := gjson.Get(body, "products").Array()
	out := make([]Product, 0, len(raw))
	for _, p := range raw {
		id := p.Get("id").Int()
		if id == 0 {
			continue
		}
		vendorID := p.Get("vendor.id").Int()
		if vendorID == 0 {
			continue
		}

		image := p.Get("photo.MEDIUM").String()
		if image == "" {
			image = p.Get("photo.SMALL").String()
		}

		out = append(out, Product{
			ID:         id,
			Name:       p.Get("name").String(),
			Price:      p.Get("price").Float(),
			VendorID:   vendorID,
			VendorName: p.Get("vendor.name").String(),
			StatusID:   p.Get("status.id").Int(),
			ImageURL:   image,
			Link:       ProductLink(id),
		})
	}
	return out
}

// ProductLink builds the canonical product page URL. Deterministic, no
// network involved.
func ProductLink(id int64) string {
	return productLinkBase + strconv.FormatInt(id, 10)
}
