// Package sources implements the five upstream adapters (USGS, NASA EONET,
// GDACS, ReliefWeb, NWS) and the normalized event shape they all decode into.
package sources

import (
	"context"
	"time"
)

// ID identifies one of the five upstream providers.
type ID string

const (
	USGS      ID = "USGS"
	NASAEonet ID = "NASA_EONET"
	GDACS     ID = "GDACS"
	ReliefWeb ID = "RELIEFWEB"
	NWS       ID = "NWS"
)

// All lists every upstream id, in the order the aggregator fans out to them.
var All = []ID{USGS, NASAEonet, GDACS, ReliefWeb, NWS}

// EventType is the normalized disaster category. Unknown upstream categories
// always map to Other rather than being dropped.
type EventType string

const (
	TypeEarthquake   EventType = "earthquake"
	TypeWildfire     EventType = "wildfire"
	TypeFire         EventType = "fire"
	TypeFlood        EventType = "flood"
	TypeHurricane    EventType = "hurricane"
	TypeTornado      EventType = "tornado"
	TypeVolcano      EventType = "volcano"
	TypeEpidemic     EventType = "epidemic"
	TypeWar          EventType = "war"
	TypeThunderstorm EventType = "thunderstorm"
	TypeTsunami      EventType = "tsunami"
	TypeDrought      EventType = "drought"
	TypeSnow         EventType = "snow"
	TypeHeat         EventType = "heat"
	TypeWind         EventType = "wind"
	TypeLandslide    EventType = "landslide"
	TypeDustHaze     EventType = "dustHaze"
	TypeSeaLakeIce   EventType = "seaLakeIce"
	TypeTemperature  EventType = "temperature"
	TypeOther        EventType = "other"
)

// DefaultRadiusMeters is the fallback impact radius by event type, used by
// every adapter except USGS (which computes radius from magnitude).
var DefaultRadiusMeters = map[EventType]int{
	TypeEarthquake:   50000,
	TypeHurricane:    200000,
	TypeTornado:      15000,
	TypeFlood:        30000,
	TypeWildfire:     25000,
	TypeVolcano:      40000,
	TypeEpidemic:     100000,
	TypeWar:          150000,
	TypeTsunami:      100000,
	TypeThunderstorm: 20000,
	TypeDrought:      200000,
	TypeOther:        20000,
}

// RadiusForType returns the default radius for a type, falling back to the
// "other" radius for types not present in the table.
func RadiusForType(t EventType) int {
	if r, ok := DefaultRadiusMeters[t]; ok {
		return r
	}
	return DefaultRadiusMeters[TypeOther]
}

// Event is the unit the whole system traffics in: one normalized disaster
// event from one upstream provider. SequenceID is assigned by the aggregator
// per merged batch and is not stable across fetches.
type Event struct {
	SequenceID  int       `json:"sequenceId"`
	SourceID    string    `json:"sourceId"`
	Source      ID        `json:"source"`
	Type        EventType `json:"type"`
	Severity    int       `json:"severity"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Radius      int       `json:"radius"`
	Location    string    `json:"location"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	URL         string    `json:"url,omitempty"`

	// Provider-specific informational fields. All optional.
	Magnitude  *float64   `json:"magnitude,omitempty"`
	AlertLevel string     `json:"alertLevel,omitempty"`
	Expires    *time.Time `json:"expires,omitempty"`
	Status     string     `json:"status,omitempty"`
}

// Valid reports whether e satisfies the catalog invariants: severity in
// [1,10], lat/lng finite and in range, radius positive, sourceId non-empty.
// Type is never invalid since adapters always map unknown inputs to
// TypeOther.
func (e Event) Valid() bool {
	if e.SourceID == "" {
		return false
	}
	if e.Severity < 1 || e.Severity > 10 {
		return false
	}
	if e.Radius <= 0 {
		return false
	}
	if !isFiniteCoord(e.Lat, -90, 90) || !isFiniteCoord(e.Lng, -180, 180) {
		return false
	}
	return true
}

func isFiniteCoord(v, min, max float64) bool {
	if v != v { // NaN
		return false
	}
	if v > 1e308 || v < -1e308 { // +/-Inf guard without importing math
		return false
	}
	return v >= min && v <= max
}

// FetchFunc performs one retried HTTP GET and returns the response body.
// Adapters never hold a *http.Client directly; they call back through this
// so every upstream request goes through the same timeout/retry/backoff
// machinery.
type FetchFunc func(ctx context.Context, url string, headers map[string]string) ([]byte, error)

// Adapter decodes one upstream's response into normalized events.
type Adapter interface {
	// ID returns the upstream identifier this adapter serves.
	ID() ID
	// Fetch retrieves and decodes the current batch of events from the
	// upstream. It performs its own (possibly multiple, possibly parallel)
	// HTTP requests via fetch.
	Fetch(ctx context.Context, fetch FetchFunc) ([]Event, error)
}
