package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
)

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// search queries the /search endpoint restricted to Australia.
func (g *geocoder) search(ctx context.Context, query string) (*Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("countrycodes", "au")
	params.Set("limit", "1")

	var places []nominatimPlace
	if err := g.doJSON(ctx, "/search?"+params.Encode(), &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return &Result{Matched: false}, nil
	}
	return placeToResult(places[0])
}

// Reverse resolves coordinates to the nearest address.
func (g *geocoder) Reverse(ctx context.Context, lat, lng float64) (*Result, error) {
	key := cacheKey("reverse", fmt.Sprintf("%.5f,%.5f", lat, lng))
	if r, ok := g.cache.get(key); ok {
		return &r, nil
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "jsonv2")

	var place nominatimPlace
	if err := g.doJSON(ctx, "/reverse?"+params.Encode(), &place); err != nil {
		return nil, err
	}

	result := &Result{Matched: false}
	if place.Lat != "" && place.Lon != "" {
		r, err := placeToResult(place)
		if err != nil {
			return nil, err
		}
		result = r
	}

	g.cache.put(key, *result)
	return result, nil
}

func (g *geocoder) doJSON(ctx context.Context, pathAndQuery string, out any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "geocode: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+pathAndQuery, nil)
	if err != nil {
		return eris.Wrap(err, "geocode: create request")
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "geocode: decode response")
	}
	return nil
}

func placeToResult(p nominatimPlace) (*Result, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse latitude")
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse longitude")
	}
	return &Result{
		Latitude:    lat,
		Longitude:   lng,
		DisplayName: p.DisplayName,
		Matched:     true,
	}, nil
}
