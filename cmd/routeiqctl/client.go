package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"routeiq/internal/domain"
	"routeiq/internal/handler"
	"routeiq/internal/planner"
)

type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) Stations(ctx context.Context) (*handler.StationsResponse, error) {
	var resp handler.StationsResponse
	return &resp, c.do(ctx, http.MethodGet, "/v1/stations", nil, &resp)
}

func (c *apiClient) Nearby(ctx context.Context, at domain.LatLng, limit int) (*handler.NearbyResponse, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(at.Lng, 'f', -1, 64))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp handler.NearbyResponse
	return &resp, c.do(ctx, http.MethodGet, "/v1/stations/nearby?"+q.Encode(), nil, &resp)
}

func (c *apiClient) CreateSession(ctx context.Context) (string, error) {
	var resp handler.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", nil, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *apiClient) Search(ctx context.Context, session string, req planner.SearchRequest) (*handler.SearchResponse, error) {
	var resp handler.SearchResponse
	return &resp, c.do(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(session)+"/search", req, &resp)
}

func (c *apiClient) Select(ctx context.Context, session string, req handler.SelectRequest) (*planner.Selection, error) {
	var resp planner.Selection
	return &resp, c.do(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(session)+"/select", req, &resp)
}

func (c *apiClient) Stats(ctx context.Context) (*domain.LifetimeStats, error) {
	var resp domain.LifetimeStats
	return &resp, c.do(ctx, http.MethodGet, "/v1/stats", nil, &resp)
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseLatLng reads "lat,lng"
func parseLatLng(s string) (domain.LatLng, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.LatLng{}, fmt.Errorf("expected lat,lng but got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.LatLng{}, fmt.Errorf("invalid latitude %q", parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.LatLng{}, fmt.Errorf("invalid longitude %q", parts[1])
	}
	return domain.LatLng{Lat: lat, Lng: lng}, nil
}
