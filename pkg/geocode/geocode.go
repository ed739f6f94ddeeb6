// Package geocode resolves street addresses to coordinates. The route
// assembler itself never geocodes; its upstream callers use this to decide
// itinerary geography.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/paulmach/orb"
)

// Geocoder resolves an address to a point. The boolean is false when the
// provider has no match; that is not an error.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (orb.Point, bool, error)
}

// HTTPGeocoder implements Geocoder against a Nominatim-style search API:
// GET {baseURL}/search?q=...&format=json.
type HTTPGeocoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPGeocoder creates a geocoder for the given provider root.
func NewHTTPGeocoder(baseURL string) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// geocodeResult is the slice element shape the provider returns.
type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve looks up an address and returns its point as (lon, lat).
func (g *HTTPGeocoder) Resolve(ctx context.Context, address string) (orb.Point, bool, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", g.baseURL, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return orb.Point{}, false, fmt.Errorf("geocode.Resolve build request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return orb.Point{}, false, fmt.Errorf("geocode.Resolve call provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return orb.Point{}, false, fmt.Errorf("geocode.Resolve read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return orb.Point{}, false, fmt.Errorf("geocode.Resolve: provider returned %d", resp.StatusCode)
	}

	var results []geocodeResult
	if err := json.Unmarshal(body, &results); err != nil {
		return orb.Point{}, false, fmt.Errorf("geocode.Resolve unmarshal: %w", err)
	}
	if len(results) == 0 {
		return orb.Point{}, false, nil
	}

	var lat, lon float64
	if _, err := fmt.Sscanf(results[0].Lat, "%f", &lat); err != nil {
		return orb.Point{}, false, fmt.Errorf("geocode.Resolve parse lat: %w", err)
	}
	if _, err := fmt.Sscanf(results[0].Lon, "%f", &lon); err != nil {
		return orb.Point{}, false, fmt.Errorf("geocode.Resolve parse lon: %w", err)
	}

	return orb.Point{lon, lat}, true, nil
}
