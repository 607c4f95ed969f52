package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/foodpin/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	resultLimit    = 5
	sourceName     = "OpenStreetMap"
)

// place is one entry of a Nominatim jsonv2 search result
type place struct {
	DisplayName string  `json:"display_name"`
	Name        string  `json:"name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Importance  float64 `json:"importance"`
}

// Client implements domain.Geocoder against a Nominatim-compatible endpoint
type Client struct {
	baseURL    string
	userAgent  string
	cache      domain.GeoCache
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new geocoder. cache may be nil.
func NewClient(baseURL, userAgent string, cache domain.GeoCache, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		cache:     cache,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// NormalizeAddress folds whitespace and case so equivalent addresses share a cache entry
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// Geocode resolves an address to placemarks, best match first.
// ErrNoPlacemarks is returned when nothing matches.
func (c *Client) Geocode(ctx context.Context, address string) ([]domain.Placemark, error) {
	key := NormalizeAddress(address)
	if key == "" {
		return nil, domain.ErrNoPlacemarks
	}

	if c.cache != nil {
		if cached, ok := c.cache.GetPlacemarks(key); ok {
			c.logger.Debug("geocode cache hit", "address", key)
			if len(cached) == 0 {
				return nil, domain.ErrNoPlacemarks
			}
			return cached, nil
		}
	}

	placemarks, err := c.search(ctx, address)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		// Empty results are cached too, the address will not resolve on retry
		if err := c.cache.SavePlacemarks(key, placemarks); err != nil {
			c.logger.Warn("failed to cache geocode result", "address", key, "error", err)
		}
	}

	if len(placemarks) == 0 {
		return nil, domain.ErrNoPlacemarks
	}
	return placemarks, nil
}

func (c *Client) search(ctx context.Context, address string) ([]domain.Placemark, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("q", address)
	query.Set("limit", strconv.Itoa(resultLimit))
	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("geocode request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("geocode request failed", "error", err)
		return nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("geocode request error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var places []place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return mapPlaces(places), nil
}

// mapPlaces converts search results, skipping entries with unparsable coordinates
func mapPlaces(places []place) []domain.Placemark {
	placemarks := make([]domain.Placemark, 0, len(places))
	for _, p := range places {
		lat, err := strconv.ParseFloat(p.Lat, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(p.Lon, 64)
		if err != nil {
			continue
		}
		name := p.Name
		if name == "" {
			name = p.DisplayName
		}
		placemarks = append(placemarks, domain.Placemark{
			Name:       name,
			Coordinate: domain.Coordinate{Latitude: lat, Longitude: lon},
			Source:     sourceName,
		})
	}
	return placemarks
}
