package sources

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/geosafe-net/geosafe/internal/geosafeerr"
)

const reliefwebURL = "https://api.reliefweb.int/v1/disasters?appname=geosafe&profile=list&preset=latest&limit=100"

type reliefwebResponse struct {
	Data []struct {
		ID     string `json:"id"`
		Fields struct {
			Name        string `json:"name"`
			Status      string `json:"status"`
			Date        struct{ Created string `json:"created"` } `json:"date"`
			URL         string `json:"url"`
			PrimaryType struct {
				Name string `json:"name"`
			} `json:"primary_type"`
			PrimaryCountry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lon float64 `json:"lon"`
				} `json:"location"`
			} `json:"primary_country"`
		} `json:"fields"`
	} `json:"data"`
}

// ReliefWebAdapter implements Adapter for the ReliefWeb disasters JSON API.
type ReliefWebAdapter struct{}

func NewReliefWebAdapter() *ReliefWebAdapter { return &ReliefWebAdapter{} }

func (a *ReliefWebAdapter) ID() ID { return ReliefWeb }

// Fetch decodes the disasters list, skipping items without a usable country
// location.
func (a *ReliefWebAdapter) Fetch(ctx context.Context, fetch FetchFunc) ([]Event, error) {
	body, err := fetch(ctx, reliefwebURL, nil)
	if err != nil {
		return nil, err
	}
	var resp reliefwebResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, geosafeerr.Decode(string(ReliefWeb), err)
	}

	var events []Event
	for _, item := range resp.Data {
		loc := item.Fields.PrimaryCountry.Location
		if loc.Lat == 0 && loc.Lon == 0 {
			continue
		}
		typ := reliefwebType(item.Fields.PrimaryType.Name)
		ts := time.Now().UTC()
		if parsed, err := time.Parse(time.RFC3339, item.Fields.Date.Created); err == nil {
			ts = parsed
		}
		events = append(events, Event{
			SourceID:  item.ID,
			Source:    ReliefWeb,
			Type:      typ,
			Severity:  reliefwebSeverity(item.Fields.Status),
			Lat:       loc.Lat,
			Lng:       loc.Lon,
			Radius:    RadiusForType(typ),
			Location:  item.Fields.Name,
			Timestamp: ts,
			URL:       item.Fields.URL,
			Status:    item.Fields.Status,
		})
	}
	return events, nil
}

func reliefwebType(primaryType string) EventType {
	s := strings.ToLower(primaryType)
	switch {
	case strings.Contains(s, "earthquake"):
		return TypeEarthquake
	case strings.Contains(s, "flood"):
		return TypeFlood
	case strings.Contains(s, "cyclone"), strings.Contains(s, "hurricane"), strings.Contains(s, "typhoon"):
		return TypeHurricane
	case strings.Contains(s, "volcano"):
		return TypeVolcano
	case strings.Contains(s, "drought"):
		return TypeDrought
	case strings.Contains(s, "fire"), strings.Contains(s, "wildfire"):
		return TypeWildfire
	case strings.Contains(s, "epidemic"), strings.Contains(s, "outbreak"):
		return TypeEpidemic
	case strings.Contains(s, "conflict"), strings.Contains(s, "war"):
		return TypeWar
	case strings.Contains(s, "tornado"):
		return TypeTornado
	default:
		return TypeOther
	}
}

func reliefwebSeverity(status string) int {
	switch strings.ToLower(status) {
	case "alert":
		return 8
	case "ongoing":
		return 6
	case "past":
		return 3
	default:
		return 5
	}
}
