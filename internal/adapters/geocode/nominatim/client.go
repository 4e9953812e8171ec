// Package nominatim implementa geocode.Geocoder contra un endpoint de
// búsqueda compatible con Nominatim.
package nominatim

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"petconnect/internal/platform/httpclient"
	"petconnect/internal/ports/geocode"
)

const (
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	defaultTimeout = 10 * time.Second
	maxResults     = 5
)

var ErrUpstream = errors.New("geocoder upstream error")

type Client struct {
	http *httpclient.Client
}

func New(baseURL string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	hc, err := httpclient.NewWithBaseURL(baseURL, defaultTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

// searchResult es el shape del JSON de Nominatim: lat/lon vienen como string.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *Client) Search(ctx context.Context, query string) ([]geocode.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, geocode.ErrNoResults
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(maxResults))

	// Nominatim exige un User-Agent identificable.
	headers := map[string]string{"User-Agent": "petconnect/1.0"}

	var results []searchResult
	if err := c.http.GetJSON(ctx, "/search", q, headers, &results); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	// Cero resultados es un outcome distinto a una falla de red.
	if len(results) == 0 {
		return nil, geocode.ErrNoResults
	}

	out := make([]geocode.Place, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		out = append(out, geocode.Place{
			Latitude:  lat,
			Longitude: lon,
			Label:     r.DisplayName,
		})
	}
	if len(out) == 0 {
		return nil, geocode.ErrNoResults
	}
	return out, nil
}
