package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/geosafe-net/geosafe/internal/geosafeerr"
)

const (
	usgsDailyAllURL    = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_day.geojson"
	usgsSignificantURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/significant_month.geojson"
	usgsMinMagnitude   = 2.5
)

type usgsFeatureCollection struct {
	Features []usgsFeature `json:"features"`
}

type usgsFeature struct {
	ID         string `json:"id"`
	Properties struct {
		Mag   *float64 `json:"mag"`
		Place string   `json:"place"`
		Time  int64    `json:"time"`
		URL   string   `json:"url"`
	} `json:"properties"`
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lng, lat, depth]
	} `json:"geometry"`
}

// USGSAdapter implements Adapter for USGS earthquake GeoJSON feeds.
type USGSAdapter struct{}

func NewUSGSAdapter() *USGSAdapter { return &USGSAdapter{} }

func (a *USGSAdapter) ID() ID { return USGS }

// Fetch retrieves the daily-all and significant-month feeds in parallel,
// unions their features, deduplicates by upstream feature id, and drops
// anything below the magnitude floor.
func (a *USGSAdapter) Fetch(ctx context.Context, fetch FetchFunc) ([]Event, error) {
	var wg sync.WaitGroup
	bodies := make([][]byte, 2)
	errs := make([]error, 2)
	urls := []string{usgsDailyAllURL, usgsSignificantURL}

	wg.Add(2)
	for i, u := range urls {
		go func(i int, u string) {
			defer wg.Done()
			body, err := fetch(ctx, u, nil)
			bodies[i] = body
			errs[i] = err
		}(i, u)
	}
	wg.Wait()

	if errs[0] != nil && errs[1] != nil {
		return nil, errs[0]
	}

	seen := make(map[string]bool)
	var events []Event
	for i, body := range bodies {
		if errs[i] != nil || body == nil {
			continue
		}
		var fc usgsFeatureCollection
		if err := json.Unmarshal(body, &fc); err != nil {
			if i == 0 && errs[1] != nil {
				return nil, geosafeerr.Decode(string(USGS), err)
			}
			continue
		}
		for _, f := range fc.Features {
			if seen[f.ID] {
				continue
			}
			if f.Properties.Mag == nil || *f.Properties.Mag < usgsMinMagnitude {
				continue
			}
			if len(f.Geometry.Coordinates) < 2 {
				continue
			}
			seen[f.ID] = true
			mag := *f.Properties.Mag
			location := f.Properties.Place
			if location == "" {
				location = "Unknown Location"
			}
			ev := Event{
				SourceID:    f.ID,
				Source:      USGS,
				Type:        TypeEarthquake,
				Severity:    usgsSeverity(mag),
				Lng:         f.Geometry.Coordinates[0],
				Lat:         f.Geometry.Coordinates[1],
				Radius:      usgsRadius(mag),
				Location:    location,
				Description: fmt.Sprintf("Magnitude %.1f earthquake", mag),
				Timestamp:   time.UnixMilli(f.Properties.Time).UTC(),
				URL:         f.Properties.URL,
				Magnitude:   &mag,
			}
			if len(f.Geometry.Coordinates) >= 3 {
				ev.Description = fmt.Sprintf("Magnitude %.1f earthquake, depth %.1f km", mag, f.Geometry.Coordinates[2])
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

func usgsSeverity(mag float64) int {
	switch {
	case mag >= 8:
		return 10
	case mag >= 7:
		return 9
	case mag >= 6:
		return 8
	case mag >= 5:
		return 7
	case mag >= 4:
		return 5
	case mag >= 3:
		return 3
	default:
		return 2
	}
}

func usgsRadius(mag float64) int {
	return int(math.Round(10000 * math.Pow(2, mag-3)))
}
