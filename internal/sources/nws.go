package sources

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/geosafe-net/geosafe/internal/geosafeerr"
)

const nwsActiveAlertsURL = "https://api.weather.gov/alerts/active"

// nwsUserAgent is required by NWS's API terms; a bare default client UA is
// rejected.
const nwsUserAgent = "geosafe-gateway (contact: ops@geosafe.example)"

const nwsMaxFeatures = 30

type nwsResponse struct {
	Features []nwsFeature `json:"features"`
}

type nwsFeature struct {
	Properties struct {
		Event       string `json:"event"`
		Headline    string `json:"headline"`
		Description string `json:"description"`
		Severity    string `json:"severity"`
		Sent        string `json:"sent"`
		Expires     string `json:"expires"`
		Status      string `json:"status"`
		ID          string `json:"id"`
		URI         string `json:"@id"`
	} `json:"properties"`
	Geometry *struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

// NWSAdapter implements Adapter for the National Weather Service active
// alerts feed.
type NWSAdapter struct{}

func NewNWSAdapter() *NWSAdapter { return &NWSAdapter{} }

func (a *NWSAdapter) ID() ID { return NWS }

// Fetch keeps only Point and Polygon geometries, capping output at
// nwsMaxFeatures. It always sends the required descriptive User-Agent
// header.
func (a *NWSAdapter) Fetch(ctx context.Context, fetch FetchFunc) ([]Event, error) {
	headers := map[string]string{"User-Agent": nwsUserAgent}
	body, err := fetch(ctx, nwsActiveAlertsURL, headers)
	if err != nil {
		return nil, err
	}
	var resp nwsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, geosafeerr.Decode(string(NWS), err)
	}

	var events []Event
	for _, f := range resp.Features {
		if len(events) >= nwsMaxFeatures {
			break
		}
		if f.Geometry == nil {
			continue
		}
		lat, lng, ok := nwsCoords(f.Geometry.Type, f.Geometry.Coordinates)
		if !ok {
			continue
		}

		typ := nwsType(f.Properties.Event)
		ts := time.Now().UTC()
		if parsed, err := time.Parse(time.RFC3339, f.Properties.Sent); err == nil {
			ts = parsed
		}
		var expires *time.Time
		if parsed, err := time.Parse(time.RFC3339, f.Properties.Expires); err == nil {
			expires = &parsed
		}

		events = append(events, Event{
			SourceID:    f.Properties.ID,
			Source:      NWS,
			Type:        typ,
			Severity:    nwsSeverity(f.Properties.Severity),
			Lat:         lat,
			Lng:         lng,
			Radius:      RadiusForType(typ),
			Location:    f.Properties.Headline,
			Description: f.Properties.Description,
			Timestamp:   ts,
			URL:         f.Properties.URI,
			Expires:     expires,
			Status:      f.Properties.Status,
		})
	}
	return events, nil
}

// nwsCoords handles Point geometry directly and computes a Polygon
// "centroid" as the arithmetic mean of the outer ring's vertices, which is
// deliberately not a true polygon centroid.
func nwsCoords(geomType string, raw json.RawMessage) (lat, lng float64, ok bool) {
	switch geomType {
	case "Point":
		var point []float64
		if err := json.Unmarshal(raw, &point); err != nil || len(point) < 2 {
			return 0, 0, false
		}
		return point[1], point[0], true
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(raw, &rings); err != nil || len(rings) == 0 || len(rings[0]) == 0 {
			return 0, 0, false
		}
		outer := rings[0]
		var sumLat, sumLng float64
		for _, v := range outer {
			if len(v) < 2 {
				continue
			}
			sumLng += v[0]
			sumLat += v[1]
		}
		n := float64(len(outer))
		return sumLat / n, sumLng / n, true
	default:
		return 0, 0, false
	}
}

func nwsType(eventStr string) EventType {
	s := strings.ToLower(eventStr)
	switch {
	case strings.Contains(s, "tornado"):
		return TypeTornado
	case strings.Contains(s, "hurricane"), strings.Contains(s, "tropical"):
		return TypeHurricane
	case strings.Contains(s, "flood"):
		return TypeFlood
	case strings.Contains(s, "fire"):
		return TypeFire
	case strings.Contains(s, "earthquake"):
		return TypeEarthquake
	case strings.Contains(s, "tsunami"):
		return TypeTsunami
	case strings.Contains(s, "winter"), strings.Contains(s, "blizzard"), strings.Contains(s, "snow"):
		return TypeSnow
	case strings.Contains(s, "thunder"), strings.Contains(s, "storm"):
		return TypeThunderstorm
	case strings.Contains(s, "wind"):
		return TypeWind
	case strings.Contains(s, "heat"):
		return TypeHeat
	default:
		return TypeThunderstorm
	}
}

func nwsSeverity(severity string) int {
	switch severity {
	case "Extreme":
		return 10
	case "Severe":
		return 8
	case "Moderate":
		return 6
	case "Minor":
		return 4
	case "Unknown":
		return 5
	default:
		return 5
	}
}
