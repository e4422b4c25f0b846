package osm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/trashmobeco/trashmob/internal/config"
	"github.com/trashmobeco/trashmob/internal/geo"
)

var testBounds = geo.Bounds{North: 48, South: 47, East: -122, West: -123}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Config{}
	cfg.Search.BaseURL = server.URL
	cfg.Search.Timeout = 5 * time.Second
	cfg.Search.MaxResults = 50
	return NewClient(cfg, zap.NewNop()), server
}

func TestDiscoverParsesElements(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/interpreter" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotQuery = r.PostFormValue("data")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"elements": [
				{
					"type": "way", "id": 42,
					"center": {"lat": 47.53, "lon": -122.39},
					"tags": {"name": "Lincoln Park", "leisure": "park"},
					"geometry": [
						{"lat": 47.52, "lon": -122.40},
						{"lat": 47.52, "lon": -122.38},
						{"lat": 47.54, "lon": -122.39}
					]
				},
				{
					"type": "node", "id": 7,
					"lat": 47.6, "lon": -122.3,
					"tags": {}
				}
			]
		}`))
	})

	features, err := client.Discover(context.Background(), "park", testBounds)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(features) != 2 {
		t.Fatalf("expected two features, got %d", len(features))
	}

	park := features[0]
	if park.Name != "Lincoln Park" || park.SourceRef != "way/42" {
		t.Fatalf("unexpected feature: %+v", park)
	}
	if park.Latitude != 47.53 || park.Longitude != -122.39 {
		t.Fatalf("expected center coordinates, got %f %f", park.Latitude, park.Longitude)
	}
	if park.GeometryType != "Polygon" || !strings.Contains(park.Geometry, `"Polygon"`) {
		t.Fatalf("expected closed polygon geometry, got %q", park.Geometry)
	}
	if !park.HasPolygon() {
		t.Fatal("expected polygon feature")
	}

	node := features[1]
	if node.Name != "" || node.SourceRef != "node/7" {
		t.Fatalf("unexpected feature: %+v", node)
	}
	if node.Geometry != "" {
		t.Fatalf("expected no geometry for bare node, got %q", node.Geometry)
	}

	if !strings.Contains(gotQuery, `["leisure"="park"]`) {
		t.Fatalf("expected park selector in query, got %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "47.000000,-123.000000,48.000000,-122.000000") {
		t.Fatalf("expected south,west,north,east bbox, got %q", gotQuery)
	}
}

func TestDiscoverRejectsInvalidBounds(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	})

	_, err := client.Discover(context.Background(), "park", geo.Bounds{North: 1, South: 2})
	if err == nil {
		t.Fatal("expected error for invalid bounds")
	}
}

func TestDiscoverSurfacesUpstreamErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.Discover(context.Background(), "park", testBounds)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestBuildQuerySelectors(t *testing.T) {
	cases := map[string]string{
		"school":   `["amenity"="school"]`,
		"trail":    `["highway"~"^(path|footway|track)$"]`,
		"waterway": `["waterway"]`,
		"other":    `["name"]`,
	}
	for category, selector := range cases {
		query, err := buildQuery(category, testBounds, 10)
		if err != nil {
			t.Fatalf("build query %s: %v", category, err)
		}
		if !strings.Contains(query, selector) {
			t.Fatalf("expected %q in %q", selector, query)
		}
	}
}
