package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func chatResponse(content string) string {
	body := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	b, _ := json.Marshal(body)
	return string(b)
}

func TestNewExtractorRequiresAPIKey(t *testing.T) {
	if _, err := NewExtractor(Config{}); err == nil {
		t.Fatal("expected an error when no API key is configured")
	}
}

func TestNewExtractorRejectsUnknownProvider(t *testing.T) {
	if _, err := NewExtractor(Config{Provider: "carrier-pigeon", APIKey: "k"}); err == nil {
		t.Fatal("expected an error for an unsupported provider")
	}
}

func TestExtractProductNames(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		fmt.Fprint(w, chatResponse(`{"products": ["copper pot", " saffron ", "copper pot", ""]}`))
	}))
	defer ts.Close()

	extractor, err := NewExtractor(Config{APIKey: "test-key", Endpoint: ts.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names, err := extractor.ExtractProductNames(context.Background(), "I want a copper pot and some saffron")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expect := []string{"copper pot", "saffron"}
	if !reflect.DeepEqual(names, expect) {
		t.Fatalf("names must be trimmed and deduplicated.\nwant: %#v\ngot:  %#v", expect, names)
	}
}

func TestExtractProductNamesEmptyText(t *testing.T) {
	extractor, err := NewExtractor(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names, err := extractor.ExtractProductNames(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if names != nil {
		t.Fatalf("blank text must extract nothing, got %#v", names)
	}
}

func TestExtractProductNamesAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "rate limited"}}`)
	}))
	defer ts.Close()

	extractor, err := NewExtractor(Config{APIKey: "test-key", Endpoint: ts.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := extractor.ExtractProductNames(context.Background(), "anything"); err == nil {
		t.Fatal("API errors must propagate to the caller")
	}
}
