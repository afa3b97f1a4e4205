// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/citypulse/client/pkg/core"
)

// ErrRejected marks a well-formed response with success set to false.
var ErrRejected = errors.New("request rejected by backend")

// Client handles communication with the CityPulse backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client. A zero timeout uses 30 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL is the backend origin, without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Healthcheck checks if the backend is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthcheck", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

type resultResponse struct {
	Success bool                    `json:"success"`
	Data    *core.CategorizedResult `json:"data"`
	Error   string                  `json:"error,omitempty"`
}

// LocalData fetches what is happening near p.
func (c *Client) LocalData(ctx context.Context, p core.LatLng) (core.CategorizedResult, error) {
	q := latLngQuery(p)
	return c.categorized(ctx, "/api/local-data", q)
}

// SearchLocal fetches results for query near p.
func (c *Client) SearchLocal(ctx context.Context, p core.LatLng, query string) (core.CategorizedResult, error) {
	q := latLngQuery(p)
	q.Set("query", query)
	return c.categorized(ctx, "/api/search-local", q)
}

func (c *Client) categorized(ctx context.Context, path string, q url.Values) (core.CategorizedResult, error) {
	var resp resultResponse
	if err := c.getJSON(ctx, path, q, &resp); err != nil {
		return core.CategorizedResult{}, err
	}
	if !resp.Success || resp.Data == nil {
		return core.CategorizedResult{}, fmt.Errorf("%s: no data received: %w", path, failure(resp.Error))
	}
	return *resp.Data, nil
}

// Suggestions fetches search completions for a partial query.
func (c *Client) Suggestions(ctx context.Context, query string, p core.LatLng) ([]string, error) {
	q := latLngQuery(p)
	q.Set("query", query)

	var resp struct {
		Success     bool     `json:"success"`
		Suggestions []string `json:"suggestions"`
	}
	if err := c.getJSON(ctx, "/api/search-suggestions", q, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("suggestions: %w", failure(""))
	}
	return resp.Suggestions, nil
}

// Insights fetches the enrichment text for a record.
func (c *Client) Insights(ctx context.Context, r core.InsightsRequest) (string, error) {
	q := url.Values{}
	q.Set("name", r.Name)
	q.Set("type", string(r.Category))
	q.Set("description", r.Description)
	q.Set("address", r.Address)

	var resp struct {
		Success  bool   `json:"success"`
		Insights string `json:"insights"`
		Error    string `json:"error,omitempty"`
	}
	if err := c.getJSON(ctx, "/api/location-insights", q, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("insights rejected: %w", failure(resp.Error))
	}
	return resp.Insights, nil
}

// ShareResult describes a created share link.
type ShareResult struct {
	LocationID string
	// URL is absolute, resolved against the backend origin.
	URL string
}

// Share stores a record on the backend and returns its share link.
func (c *Client) Share(ctx context.Context, r core.ShareRequest) (ShareResult, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return ShareResult{}, fmt.Errorf("failed to encode share request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/share-location", bytes.NewReader(body))
	if err != nil {
		return ShareResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		Success    bool   `json:"success"`
		LocationID string `json:"location_id"`
		ShareURL   string `json:"share_url"`
		Error      string `json:"error,omitempty"`
	}
	if err := c.do(req, &resp); err != nil {
		return ShareResult{}, err
	}
	if !resp.Success || resp.LocationID == "" {
		return ShareResult{}, fmt.Errorf("share rejected: %w", failure(resp.Error))
	}
	return ShareResult{LocationID: resp.LocationID, URL: c.baseURL + resp.ShareURL}, nil
}

// SharedLocation fetches a previously shared location. An unknown or expired
// id returns core.ErrLookupMiss.
func (c *Client) SharedLocation(ctx context.Context, id string) (core.SharedLocation, error) {
	var resp struct {
		Success bool                 `json:"success"`
		Data    *core.SharedLocation `json:"data"`
		Error   string               `json:"error,omitempty"`
	}
	if err := c.getJSON(ctx, "/api/get-shared-location/"+url.PathEscape(id), nil, &resp); err != nil {
		return core.SharedLocation{}, err
	}
	if !resp.Success || resp.Data == nil {
		return core.SharedLocation{}, fmt.Errorf("shared location %s: %w", id, core.ErrLookupMiss)
	}
	return *resp.Data, nil
}

// SharedLocations lists the ids of every shared location.
func (c *Client) SharedLocations(ctx context.Context) ([]string, error) {
	var resp struct {
		SharedLocations []string `json:"shared_locations"`
		Count           int      `json:"count"`
	}
	if err := c.getJSON(ctx, "/api/shared-locations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.SharedLocations, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w: %w", req.URL.Path, core.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s returned status %d: %w", req.URL.Path, resp.StatusCode, core.ErrNetworkFailure)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: malformed response: %w: %w", req.URL.Path, core.ErrNetworkFailure, err)
	}
	return nil
}

func failure(msg string) error {
	if msg == "" {
		return fmt.Errorf("%w: %w", core.ErrNetworkFailure, ErrRejected)
	}
	return fmt.Errorf("%w: %w: %s", core.ErrNetworkFailure, ErrRejected, msg)
}

func latLngQuery(p core.LatLng) url.Values {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(p.Lng, 'f', -1, 64))
	return q
}
