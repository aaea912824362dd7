// Package places finds the police station nearest to a complainant using the
// Google Places Nearby Search API.
package places

import (
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

	"github.com/dgallion1/firdesk/internal/retry"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"
	DefaultRadius  = 5000
)

var (
	ErrNoStations  = errors.New("no police stations found nearby")
	ErrCoordinates = errors.New("coordinates out of range")
)

// Location is a WGS84 point.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Station is a police station returned by the lookup.
type Station struct {
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Location Location `json:"location"`
}

// Client queries the Places API.
type Client struct {
	apiKey     string
	baseURL    string
	radius     int
	httpClient *http.Client
	retry      retry.Policy
}

func NewClient(apiKey string, radius int) *Client {
	if radius <= 0 {
		radius = DefaultRadius
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		radius:  radius,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		retry: retry.Default,
	}
}

func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

func (c *Client) WithRetry(p retry.Policy) *Client {
	c.retry = p
	return c
}

// ValidCoordinates reports whether lat and lng are on the globe.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

type nearbyResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location Location `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// NearestPoliceStation returns the first police station Places ranks for the
// point.
func (c *Client) NearestPoliceStation(ctx context.Context, lat, lng float64) (*Station, error) {
	if !ValidCoordinates(lat, lng) {
		return nil, fmt.Errorf("%w: lat=%v lng=%v", ErrCoordinates, lat, lng)
	}

	q := url.Values{}
	q.Set("location", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(c.radius))
	q.Set("type", "police")
	q.Set("key", c.apiKey)
	endpoint := c.baseURL + "/nearbysearch/json?" + q.Encode()

	var out nearbyResponse
	err := c.retry.Do(ctx, "places nearbysearch", func(ctx context.Context) error {
		return c.get(ctx, endpoint, &out)
	})
	if err != nil {
		return nil, err
	}

	switch out.Status {
	case "", "OK", "ZERO_RESULTS":
	default:
		return nil, fmt.Errorf("places status %s: %s", out.Status, out.ErrorMessage)
	}
	if len(out.Results) == 0 {
		return nil, ErrNoStations
	}
	first := out.Results[0]
	return &Station{
		Name:     first.Name,
		Address:  first.Vicinity,
		Location: first.Geometry.Location,
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out *nearbyResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("places api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if retry.Transient(resp.StatusCode) {
		return &retry.RetryableError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places api status %d: %s", resp.StatusCode, retry.Truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if out.Status == "OVER_QUERY_LIMIT" {
		return &retry.RetryableError{StatusCode: http.StatusTooManyRequests, Message: out.ErrorMessage}
	}
	return nil
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
