// Package envapi provides the environmental prediction data sources: the
// REST backend and the built-in mock datasets.
package envapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jobrunner/envmap/internal/domain"
)

// DefaultBaseURL is used when no API URL is configured.
const DefaultBaseURL = "http://localhost:8080"

// REST endpoints of the prediction backend.
const (
	PathFloodRisk     = "/api/predict/flood-risk/all"
	PathEcoTourism    = "/api/predict/eco-tourism/pressure/all"
	PathHistorical    = "/api/predict/historical-comparison"
	PathPredictions   = "/api/predictions"
	PathRankings      = "/api/rankings"
	PathArticles      = "/api/articles"
	maxResponseLength = 8 << 20
)

// LiveConfig holds the REST backend configuration.
type LiveConfig struct {
	BaseURL string
	Timeout time.Duration
}

// LiveSource implements output.EnvironmentalDataSource against the REST
// backend. Any transport failure or non-2xx status is returned as an
// UpstreamError.
type LiveSource struct {
	client  *http.Client
	baseURL string
}

// NewLiveSource creates a new REST data source.
func NewLiveSource(cfg LiveConfig) *LiveSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &LiveSource{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

// Name implements output.EnvironmentalDataSource.
func (s *LiveSource) Name() string {
	return domain.SourceLive
}

// BaseURL returns the backend base URL.
func (s *LiveSource) BaseURL() string {
	return s.baseURL
}

// FloodRisks implements output.EnvironmentalDataSource.
func (s *LiveSource) FloodRisks(ctx context.Context) ([]domain.FloodRisk, error) {
	var out []domain.FloodRisk
	if err := s.get(ctx, PathFloodRisk, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EcoTourismPressures implements output.EnvironmentalDataSource.
func (s *LiveSource) EcoTourismPressures(ctx context.Context) ([]domain.EcoTourismPressure, error) {
	var out []domain.EcoTourismPressure
	if err := s.get(ctx, PathEcoTourism, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HistoricalComparison implements output.EnvironmentalDataSource.
func (s *LiveSource) HistoricalComparison(ctx context.Context, id, kind string) (*domain.HistoricalComparison, error) {
	query := url.Values{}
	query.Set("id", id)
	query.Set("type", kind)

	var out domain.HistoricalComparison
	if err := s.get(ctx, PathHistorical, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Predictions implements output.EnvironmentalDataSource.
func (s *LiveSource) Predictions(ctx context.Context) ([]domain.Prediction, error) {
	var out []domain.Prediction
	if err := s.get(ctx, PathPredictions, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Rankings implements output.EnvironmentalDataSource.
func (s *LiveSource) Rankings(ctx context.Context) ([]domain.Ranking, error) {
	var out []domain.Ranking
	if err := s.get(ctx, PathRankings, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Articles implements output.EnvironmentalDataSource. Both a plain array
// and a paged {"content": [...]} body are accepted.
func (s *LiveSource) Articles(ctx context.Context) ([]domain.Article, error) {
	var raw json.RawMessage
	if err := s.get(ctx, PathArticles, nil, &raw); err != nil {
		return nil, err
	}

	var out []domain.Article
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var page struct {
			Content []domain.Article `json:"content"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, &domain.UpstreamError{Endpoint: PathArticles, Err: fmt.Errorf("decoding response: %w", err)}
		}
		return page.Content, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &domain.UpstreamError{Endpoint: PathArticles, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return out, nil
}

// get performs a GET request and decodes the JSON body into dst.
func (s *LiveSource) get(ctx context.Context, path string, query url.Values, dst any) error {
	endpoint := s.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &domain.UpstreamError{Endpoint: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &domain.UpstreamError{Endpoint: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseLength))
		return &domain.UpstreamError{Endpoint: path, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseLength)).Decode(dst); err != nil {
		return &domain.UpstreamError{Endpoint: path, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
