package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func testDirectoryClient(mirrors ...string) *DirectoryClient {
	d := NewDirectoryClient(zap.NewNop())
	d.mirrors = mirrors
	return d
}

func stationsJSON(t *testing.T, stations []Station) []byte {
	t.Helper()
	raw, err := json.Marshal(stations)
	if err != nil {
		t.Fatalf("Failed to marshal stations: %s", err)
	}
	return raw
}

// TestMirrorFallbackOrder checks that the first healthy mirror wins and
// that no mirror after it is contacted.
func TestMirrorFallbackOrder(t *testing.T) {
	wanted := []Station{
		{ID: "a1", Name: "Alpha FM", Country: "Austria", StreamURL: "https://alpha.example.com/live"},
		{ID: "b2", Name: "Beta Radio", Country: "Belgium", StreamURL: "https://beta.example.com/live"},
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(stationsJSON(t, wanted))
	}))
	defer healthy.Close()

	var unreachedHits int32
	unreached := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&unreachedHits, 1)
		w.Write(stationsJSON(t, nil))
	}))
	defer unreached.Close()

	d := testDirectoryClient(broken.URL, healthy.URL, unreached.URL)
	result := d.SearchStations(context.Background(), Query{})

	if result.Source != SourceLive {
		t.Errorf("Expected a live result but got source %d", result.Source)
	}
	if len(result.Stations) != len(wanted) {
		t.Fatalf("Expected %d stations but got %d", len(wanted), len(result.Stations))
	}
	for i, s := range result.Stations {
		if s.ID != wanted[i].ID {
			t.Errorf("Station %d: expected ID %q but got %q", i, wanted[i].ID, s.ID)
		}
	}
	if hits := atomic.LoadInt32(&unreachedHits); hits != 0 {
		t.Errorf("Expected no requests past the first healthy mirror but saw %d", hits)
	}
}

// TestSanitizeStations checks the output invariants: every station has
// a name and an http(s) stream URL and no resolved URL repeats.
func TestSanitizeStations(t *testing.T) {
	raw := []Station{
		{ID: "1", Name: "Keep Me", StreamURL: "https://one.example.com/live"},
		{ID: "2", Name: "", StreamURL: "https://nameless.example.com/live"},
		{ID: "3", Name: "No Stream"},
		{ID: "4", Name: "Bad Scheme", StreamURL: "ftp://four.example.com/live"},
		{ID: "5", Name: "Duplicate", StreamURL: "https://one.example.com/live"},
		{ID: "6", Name: "Keep Me Too", StreamURL: "http://six.example.com/live"},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(stationsJSON(t, raw))
	}))
	defer server.Close()

	result := testDirectoryClient(server.URL).SearchStations(context.Background(), Query{})

	if len(result.Stations) != 2 {
		t.Fatalf("Expected 2 stations after sanitizing but got %d", len(result.Stations))
	}
	seen := map[string]bool{}
	for _, s := range result.Stations {
		if s.Name == "" {
			t.Errorf("Station %q has an empty name", s.ID)
		}
		if !strings.HasPrefix(s.StreamURL, "http") {
			t.Errorf("Station %q has a non-http stream URL %q", s.ID, s.StreamURL)
		}
		if seen[s.StreamURL] {
			t.Errorf("Stream URL %q appears twice", s.StreamURL)
		}
		seen[s.StreamURL] = true
	}
	if result.Stations[0].ID != "1" {
		t.Errorf("Expected the first occurrence of a duplicated URL to win, got %q", result.Stations[0].ID)
	}
}

// TestFallbackStations checks that a total mirror outage degrades to
// the built-in list with the search term applied client-side.
func TestFallbackStations(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close() // refuse all connections

	d := testDirectoryClient(dead.URL)
	result := d.SearchStations(context.Background(), Query{Term: "jazz", Mode: SearchByName})

	if result.Source != SourceFallback {
		t.Fatalf("Expected a fallback result but got source %d", result.Source)
	}

	expected := map[string]bool{
		"fallback-fip":    true,
		"fallback-jazz24": true,
	}
	if len(result.Stations) != len(expected) {
		t.Fatalf("Expected %d fallback matches for 'jazz' but got %d", len(expected), len(result.Stations))
	}
	for _, s := range result.Stations {
		if !expected[s.ID] {
			t.Errorf("Unexpected fallback match %q", s.ID)
		}
	}

	// no term returns the full list
	all := d.SearchStations(context.Background(), Query{})
	if len(all.Stations) != len(fallbackStations) {
		t.Errorf("Expected the whole fallback list, got %d of %d", len(all.Stations), len(fallbackStations))
	}
}

// TestEmptyResultIsNotFailure checks that a valid empty response stays
// a live result instead of degrading to the fallback list.
func TestEmptyResultIsNotFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	result := testDirectoryClient(server.URL).SearchStations(context.Background(), Query{Term: "xyzzy"})
	if result.Source != SourceLive {
		t.Errorf("Expected a live result for an empty response, got source %d", result.Source)
	}
	if len(result.Stations) != 0 {
		t.Errorf("Expected no stations but got %d", len(result.Stations))
	}
}

// TestMalformedResponseSkipsMirror treats bad JSON like any other
// mirror failure.
func TestMalformedResponseSkipsMirror(t *testing.T) {
	garbled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer garbled.Close()

	wanted := []Station{{ID: "ok", Name: "Still Here", StreamURL: "https://ok.example.com/live"}}
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(stationsJSON(t, wanted))
	}))
	defer healthy.Close()

	result := testDirectoryClient(garbled.URL, healthy.URL).SearchStations(context.Background(), Query{})
	if result.Source != SourceLive || len(result.Stations) != 1 || result.Stations[0].ID != "ok" {
		t.Errorf("Expected the second mirror's result, got %+v", result)
	}
}

func TestQueryURL(t *testing.T) {
	cases := []struct {
		q    Query
		want string
	}{
		{Query{}, "https://m.example.com/stations/topvote/30?hidebroken=true"},
		{Query{Term: "lo fi", Mode: SearchByName}, "https://m.example.com/stations/search?name=lo+fi&hidebroken=true"},
		{Query{Term: "Germany", Mode: SearchByCountry}, "https://m.example.com/stations/bycountry/Germany"},
		{Query{Term: "jazz", Mode: SearchByTag}, "https://m.example.com/stations/bytag/jazz"},
	}
	for _, c := range cases {
		if got := queryURL("https://m.example.com", c.q); got != c.want {
			t.Errorf("queryURL(%+v) = %q, want %q", c.q, got, c.want)
		}
	}
}
