package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pecajuridica-backend/models"
)

const (
	DefaultTavilyURL = "https://api.tavily.com/search"
	researchTimeout  = 20 * time.Second
)

// Tavily searches the web for legal research results
type Tavily struct {
	apiKey string
	url    string
	client *http.Client
}

// NewTavily creates a research client; with an empty key every search returns no results
func NewTavily(apiKey, url string) *Tavily {
	if url == "" {
		url = DefaultTavilyURL
	}
	return &Tavily{
		apiKey: apiKey,
		url:    url,
		client: &http.Client{Timeout: researchTimeout},
	}
}

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilyHit struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Snippet       string `json:"snippet"`
	URL           string `json:"url"`
	PublishedDate string `json:"published_date"`
}

type tavilyResponse struct {
	Results []tavilyHit `json:"results"`
	Hits    []tavilyHit `json:"hits"`
}

// Search runs query restricted to domains and returns at most maxResults results
func (t *Tavily) Search(ctx context.Context, query string, domains []string, maxResults int) ([]models.ResearchResult, error) {
	if t.apiKey == "" {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:         t.apiKey,
		Query:          query,
		MaxResults:     maxResults,
		SearchDepth:    "advanced",
		IncludeDomains: domains,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("research API error: %d - %s", resp.StatusCode, string(msg))
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	hits := parsed.Results
	if len(hits) == 0 {
		hits = parsed.Hits
	}

	results := make([]models.ResearchResult, 0, len(hits))
	for _, h := range hits {
		snippet := h.Content
		if snippet == "" {
			snippet = h.Snippet
		}
		results = append(results, models.ResearchResult{
			Title:       h.Title,
			Snippet:     snippet,
			URL:         h.URL,
			PublishedAt: h.PublishedDate,
		})
		if len(results) == maxResults {
			break
		}
	}
	return results, nil
}
