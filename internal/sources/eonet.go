package sources

import (
	"context"
	"encoding/json"
	"time"

	"github.com/geosafe-net/geosafe/internal/geosafeerr"
)

const eonetEventsURL = "https://eonet.gsfc.nasa.gov/api/v3/events"

type eonetResponse struct {
	Events []eonetEvent `json:"events"`
}

type eonetEvent struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Categories []struct {
		ID int `json:"id"`
	} `json:"categories"`
	Geometry []struct {
		Date        string          `json:"date"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

var eonetCategoryToType = map[int]EventType{
	6:  TypeDrought,
	7:  TypeDustHaze,
	8:  TypeWildfire,
	9:  TypeFlood,
	10: TypeHurricane,
	12: TypeVolcano,
	13: TypeFlood,
	14: TypeLandslide,
	15: TypeSeaLakeIce,
	16: TypeEarthquake,
	17: TypeSnow,
	18: TypeTemperature,
}

var eonetCategoryToSeverity = map[int]int{
	8:  8,
	10: 9,
	12: 8,
	9:  6,
	16: 7,
}

// EONETAdapter implements Adapter for the NASA EONET JSON event feed.
type EONETAdapter struct{}

func NewEONETAdapter() *EONETAdapter { return &EONETAdapter{} }

func (a *EONETAdapter) ID() ID { return NASAEonet }

// Fetch decodes the EONET event list, taking the latest geometry entry for
// each event.
func (a *EONETAdapter) Fetch(ctx context.Context, fetch FetchFunc) ([]Event, error) {
	body, err := fetch(ctx, eonetEventsURL, nil)
	if err != nil {
		return nil, err
	}
	var resp eonetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, geosafeerr.Decode(string(NASAEonet), err)
	}

	var events []Event
	for _, e := range resp.Events {
		if len(e.Geometry) == 0 {
			continue
		}
		latest := e.Geometry[len(e.Geometry)-1]
		lat, lng, ok := eonetCoords(latest.Coordinates)
		if !ok {
			continue
		}

		typ := TypeOther
		sev := 5
		if len(e.Categories) > 0 {
			catID := e.Categories[0].ID
			if t, ok := eonetCategoryToType[catID]; ok {
				typ = t
			}
			if s, ok := eonetCategoryToSeverity[catID]; ok {
				sev = s
			}
		}

		ts := time.Now().UTC()
		if ts2, err := time.Parse(time.RFC3339, latest.Date); err == nil {
			ts = ts2
		}

		events = append(events, Event{
			SourceID:  e.ID,
			Source:    NASAEonet,
			Type:      typ,
			Severity:  sev,
			Lat:       lat,
			Lng:       lng,
			Radius:    RadiusForType(typ),
			Location:  e.Title,
			Timestamp: ts,
		})
	}
	return events, nil
}

// eonetCoords handles both the Point ([lng,lat]) and Track
// ([[lng,lat],...]) coordinate shapes, taking the first inner pair for Track.
func eonetCoords(raw json.RawMessage) (lat, lng float64, ok bool) {
	var point []float64
	if err := json.Unmarshal(raw, &point); err == nil && len(point) >= 2 {
		return point[1], point[0], true
	}
	var track [][]float64
	if err := json.Unmarshal(raw, &track); err == nil && len(track) > 0 && len(track[0]) >= 2 {
		return track[0][1], track[0][0], true
	}
	return 0, 0, false
}
