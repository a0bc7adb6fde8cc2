// Package geocode resolves free-text locations to coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/observability"
)

// Result is one geocoding match.
type Result struct {
	Longitude   float64 `json:"lng"`
	Latitude    float64 `json:"lat"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Geocoder resolves a location query. An empty slice means no match.
// Any error means the service itself could not be reached or answered badly.
type Geocoder interface {
	Geocode(ctx context.Context, query string) ([]Result, error)
}

// nominatimPlace is the subset of the Nominatim /search JSON we use. Coordinates arrive as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NominatimGeocoder queries an OpenStreetMap Nominatim-compatible endpoint.
type NominatimGeocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewNominatimGeocoder creates a geocoder for baseURL (e.g. https://nominatim.openstreetmap.org).
func NewNominatimGeocoder(baseURL, userAgent string, timeout time.Duration) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoder request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		observability.ObserveExternal("geocoder", "search", 0, time.Since(start))
		return nil, fmt.Errorf("failed to contact geocoder: %w", err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("geocoder", "search", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}

	results := make([]Result, 0, len(places))
	for _, p := range places {
		lat, errLat := strconv.ParseFloat(p.Lat, 64)
		lng, errLng := strconv.ParseFloat(p.Lon, 64)
		if errLat != nil || errLng != nil {
			log.Warn().Str("lat", p.Lat).Str("lon", p.Lon).Msg("Skipping geocoder result with unparsable coordinates")
			continue
		}
		results = append(results, Result{Longitude: lng, Latitude: lat, DisplayName: p.DisplayName})
	}
	return results, nil
}
