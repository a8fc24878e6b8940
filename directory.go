// this file talks to the public radio-browser directory service
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SearchMode selects which directory endpoint a query hits.
type SearchMode string

const (
	SearchByName    SearchMode = "name"
	SearchByCountry SearchMode = "country"
	SearchByTag     SearchMode = "tag"
)

// Query is a station search. An empty Term means "most popular".
type Query struct {
	Term string
	Mode SearchMode
}

// SearchSource tells the caller where a result came from so the UI can
// raise the right notice for fallback data.
type SearchSource int

const (
	SourceLive SearchSource = iota
	SourceFallback
)

// SearchResult is always valid: a fetch that fails on every mirror
// degrades to the built-in fallback list instead of an error.
type SearchResult struct {
	Stations []Station    `json:"stations"`
	Source   SearchSource `json:"source"`
}

// defaultMirrors are tried in order; the first success wins.
var defaultMirrors = []string{
	"https://de1.api.radio-browser.info/json",
	"https://at1.api.radio-browser.info/json",
	"https://nl1.api.radio-browser.info/json",
}

const topStationsLimit = 30

type DirectoryClient struct {
	mirrors []string
	client  *http.Client
	logger  *zap.Logger
}

func NewDirectoryClient(logger *zap.Logger) *DirectoryClient {
	return &DirectoryClient{
		mirrors: defaultMirrors,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// SearchStations queries the directory mirrors in order and returns the
// first successful response, sanitized. It never fails: when every
// mirror errors out the built-in fallback list is returned, filtered by
// the same term the live query carried. An empty station list with
// Source == SourceLive is a genuine no-results outcome, not a failure.
func (d *DirectoryClient) SearchStations(ctx context.Context, q Query) SearchResult {
	for _, mirror := range d.mirrors {
		stations, err := d.fetchFromMirror(ctx, mirror, q)
		if err != nil {
			d.logger.Warn("directory mirror failed",
				zap.String("mirror", mirror),
				zap.Error(err),
			)
			continue
		}
		return SearchResult{Stations: sanitizeStations(stations), Source: SourceLive}
	}

	d.logger.Warn("all directory mirrors failed, using fallback stations")
	return SearchResult{
		Stations: filterStations(fallbackStations, q.Term),
		Source:   SourceFallback,
	}
}

func (d *DirectoryClient) fetchFromMirror(ctx context.Context, mirror string, q Query) ([]Station, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL(mirror, q), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "CosmoTune Radio Player")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var stations []Station
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		return nil, fmt.Errorf("decoding station list: %w", err)
	}
	return stations, nil
}

func queryURL(mirror string, q Query) string {
	if q.Term == "" {
		return fmt.Sprintf("%s/stations/topvote/%d?hidebroken=true", mirror, topStationsLimit)
	}
	switch q.Mode {
	case SearchByCountry:
		return mirror + "/stations/bycountry/" + url.PathEscape(q.Term)
	case SearchByTag:
		return mirror + "/stations/bytag/" + url.PathEscape(q.Term)
	default:
		return mirror + "/stations/search?name=" + url.QueryEscape(q.Term) + "&hidebroken=true"
	}
}

// sanitizeStations drops unplayable entries and deduplicates by
// resolved stream URL, keeping the first occurrence.
func sanitizeStations(stations []Station) []Station {
	seen := make(map[string]bool, len(stations))
	out := make([]Station, 0, len(stations))
	for _, s := range stations {
		if s.Name == "" || s.StreamURL == "" {
			continue
		}
		if !strings.HasPrefix(s.StreamURL, "http") {
			continue
		}
		if seen[s.StreamURL] {
			continue
		}
		seen[s.StreamURL] = true
		out = append(out, s)
	}
	return out
}

// filterStations applies the client-side equivalent of a directory
// search: case-insensitive substring match on name, country or tags.
func filterStations(stations []Station, term string) []Station {
	if term == "" {
		return stations
	}
	term = strings.ToLower(term)
	out := make([]Station, 0, len(stations))
	for _, s := range stations {
		if strings.Contains(strings.ToLower(s.Name), term) ||
			strings.Contains(strings.ToLower(s.Country), term) ||
			strings.Contains(strings.ToLower(s.Tags), term) {
			out = append(out, s)
		}
	}
	return out
}
