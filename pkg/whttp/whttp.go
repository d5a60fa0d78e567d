package whttp

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
)

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Query   url.Values
	Headers []WHTTPHeader
	Body    string
}

type WHTTPRes struct {
	StatusCode     int
	ResponseLength int
	BodyString     string
}

var (
	defaultClient     *retryablehttp.Client
	defaultClientOnce sync.Once
)

// GetDefaultClient returns the shared retrying HTTP client used for all
// outbound marketplace calls.
func GetDefaultClient() *retryablehttp.Client {
	defaultClientOnce.Do(func() {
		defaultClient = retryablehttp.NewClient()
		defaultClient.RetryMax = 2
		defaultClient.Logger = nil
	})
	return defaultClient
}

func SendHTTPRequest(ctx context.Context, wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	if client == nil {
		client = GetDefaultClient()
	}

	reqURL := wReq.URL
	if len(wReq.Query) > 0 {
		if strings.Contains(reqURL, "?") {
			reqURL += "&" + wReq.Query.Encode()
		} else {
			reqURL += "?" + wReq.Query.Encode()
		}
	}

	var body io.Reader
	if wReq.Body != "" {
		body = strings.NewReader(wReq.Body)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, wReq.Method, reqURL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")
	for _, h := range wReq.Headers {
		req.Header.Add(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", wReq.URL, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &WHTTPRes{
		StatusCode:     resp.StatusCode,
		ResponseLength: len(bodyBytes),
		BodyString:     string(bodyBytes),
	}, nil
}
