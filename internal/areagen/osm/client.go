// Package osm implements the external search collaborator against an
// Overpass-style OpenStreetMap query endpoint.
package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	areagendomain "github.com/trashmobeco/trashmob/internal/areagen/domain"
	"github.com/trashmobeco/trashmob/internal/config"
	"github.com/trashmobeco/trashmob/internal/geo"
	"github.com/trashmobeco/trashmob/internal/observability/tracing"
)

// Client queries the Overpass API for candidate features inside a bounding
// box. Result pagination and bounding are handled here, not by the pipeline.
type Client struct {
	httpClient *resty.Client
	log        *zap.Logger
	maxResults int
}

// NewClient builds the search client from configuration. Outbound requests
// carry client spans and propagation headers.
func NewClient(cfg config.Config, log *zap.Logger) *Client {
	client := resty.NewWithClient(tracing.OutboundClient()).
		SetBaseURL(cfg.Search.BaseURL).
		SetTimeout(cfg.Search.Timeout).
		SetRetryCount(2).
		SetHeader("Accept", "application/json")

	maxResults := cfg.Search.MaxResults
	if maxResults <= 0 {
		maxResults = 500
	}

	return &Client{
		httpClient: client,
		log:        log.Named("areagen.osm"),
		maxResults: maxResults,
	}
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
	// Geometry is present for ways when "out geom" is requested.
	Geometry []overpassCenter `json:"geometry,omitempty"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Discover queries Overpass for features of the given category inside the
// bounds and converts them to pipeline features.
func (c *Client) Discover(ctx context.Context, category string, bounds geo.Bounds) ([]areagendomain.DiscoveredFeature, error) {
	query, err := buildQuery(category, bounds, c.maxResults)
	if err != nil {
		return nil, err
	}

	var result overpassResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{"data": query}).
		SetResult(&result).
		Post("/interpreter")
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("overpass status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	features := make([]areagendomain.DiscoveredFeature, 0, len(result.Elements))
	for _, element := range result.Elements {
		features = append(features, toFeature(element))
	}

	c.log.Info("overpass discovery finished",
		zap.String("category", category),
		zap.Int("features", len(features)),
	)
	return features, nil
}

// buildQuery renders Overpass QL selecting the OSM tags for a category.
func buildQuery(category string, bounds geo.Bounds, limit int) (string, error) {
	if !bounds.Valid() {
		return "", fmt.Errorf("invalid bounding box")
	}

	var selector string
	switch category {
	case areagendomain.CategorySchool:
		selector = `["amenity"="school"]`
	case areagendomain.CategoryPark:
		selector = `["leisure"="park"]`
	case areagendomain.CategoryTrail:
		selector = `["highway"~"^(path|footway|track)$"]`
	case areagendomain.CategoryWaterway:
		selector = `["waterway"]`
	default:
		// Unknown categories still search; they stage as generic spots.
		selector = `["name"]`
	}

	bbox := fmt.Sprintf("%f,%f,%f,%f", bounds.South, bounds.West, bounds.North, bounds.East)
	query := fmt.Sprintf(
		"[out:json][timeout:60];(way%s(%s);relation%s(%s););out center geom %d;",
		selector, bbox, selector, bbox, limit,
	)
	return query, nil
}

func toFeature(element overpassElement) areagendomain.DiscoveredFeature {
	feature := areagendomain.DiscoveredFeature{
		SourceRef: fmt.Sprintf("%s/%d", element.Type, element.ID),
	}
	if element.Tags != nil {
		feature.Name = element.Tags["name"]
	}

	switch {
	case element.Center != nil:
		feature.Latitude = element.Center.Lat
		feature.Longitude = element.Center.Lon
	case element.Lat != 0 || element.Lon != 0:
		feature.Latitude = element.Lat
		feature.Longitude = element.Lon
	}

	if len(element.Geometry) >= 3 {
		feature.Geometry, feature.GeometryType = polygonGeoJSON(element.Geometry)
	}
	return feature
}

// polygonGeoJSON converts an Overpass way outline into GeoJSON polygon text.
func polygonGeoJSON(points []overpassCenter) (string, string) {
	ring := make([][2]float64, 0, len(points)+1)
	for _, point := range points {
		ring = append(ring, [2]float64{point.Lon, point.Lat})
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}

	payload := map[string]any{
		"type":        "Polygon",
		"coordinates": [][][2]float64{ring},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", ""
	}
	return string(encoded), "Polygon"
}
