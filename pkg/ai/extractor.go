// Package ai turns free-form shopping text ("I need a copper pot and some
// saffron") into discrete product names via an LLM call.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config controls how the extractor behaves.
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	Endpoint   string
	HTTPClient *http.Client
}

// Extractor pulls product names out of natural-language text.
type Extractor interface {
	ExtractProductNames(ctx context.Context, text string) ([]string, error)
}

const (
	defaultProvider = "openai"
	defaultModel    = "gpt-4.1-mini"
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
)

// NewExtractor builds a concrete Extractor implementation based on the provided config.
func NewExtractor(cfg Config) (Extractor, error) {
	cfg.Provider = strings.TrimSpace(strings.ToLower(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}

	switch cfg.Provider {
	case "openai":
		return newOpenAIExtractor(cfg)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type openAIExtractor struct {
	apiKey   string
	model    string
	endpoint string
	client   httpClient
}

func newOpenAIExtractor(cfg Config) (*openAIExtractor, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("product name extraction requires an API key (set ai.api_key in config or OPENAI_API_KEY)")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	client := httpClient(cfg.HTTPClient)
	if cfg.HTTPClient == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &openAIExtractor{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client:   client,
	}, nil
}

func (e *openAIExtractor) ExtractProductNames(ctx context.Context, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	reqBody := openAIChatRequest{
		Model: e.model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature:    0.1,
		ResponseFormat: openAIResponseFormat{Type: "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErrResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErrResp)
		if apiErrResp.Error.Message != "" {
			return nil, fmt.Errorf("product name extraction: %s", apiErrResp.Error.Message)
		}
		return nil, fmt.Errorf("product name extraction failed with HTTP %d", resp.StatusCode)
	}

	var apiResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}
	if len(apiResp.Choices) == 0 || strings.TrimSpace(apiResp.Choices[0].Message.Content) == "" {
		return nil, errors.New("product name extraction returned an empty response")
	}

	var parsed llmOutput
	if err := json.Unmarshal([]byte(strings.TrimSpace(apiResp.Choices[0].Message.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("unable to parse AI response: %w", err)
	}

	names := make([]string, 0, len(parsed.Products))
	seen := make(map[string]struct{}, len(parsed.Products))
	for _, name := range parsed.Products {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		names = append(names, trimmed)
	}
	return names, nil
}

const systemPrompt = `You extract product names from shopping requests.

The user writes what they want to buy in free text, possibly in Persian or
English, possibly several products in one sentence.

For the text you receive:
- Identify each distinct product the user wants.
- Keep the user's own wording for each product, trimmed of filler words.
- Do not invent products that are not mentioned.
- Ignore quantities, greetings and unrelated chatter.

Return ONLY JSON following this schema:
{
  "products": ["string", "string"]
}`

type openAIChatRequest struct {
	Model          string               `json:"model"`
	Messages       []openAIMessage      `json:"messages"`
	Temperature    float64              `json:"temperature"`
	ResponseFormat openAIResponseFormat `json:"response_format"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type llmOutput struct {
	Products []string `json:"products"`
}
