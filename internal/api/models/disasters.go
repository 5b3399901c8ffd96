package models

import (
	"time"

	"github.com/geosafe-net/geosafe/internal/sources"
)

// Meta is the metadata envelope accompanying every disaster list response.
type Meta struct {
	Timestamp      time.Time    `json:"timestamp"`
	TotalDisasters int          `json:"totalDisasters"`
	TotalSafeZones int          `json:"totalSafeZones,omitempty"`
	Sources        []sources.ID `json:"sources"`
}

// DisastersResponse is the body of GET /api/disasters and its filtered
// siblings.
type DisastersResponse struct {
	Disasters []sources.Event    `json:"disasters"`
	SafeZones []SafeZoneResponse `json:"safeZones,omitempty"`
	Meta      Meta               `json:"meta"`
}

// SafeZoneResponse mirrors the bundled safe-zones document shape.
type SafeZoneResponse struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Address   string  `json:"address"`
	Capacity  int     `json:"capacity"`
	Available int     `json:"available"`
}

// SafeZonesResponse is the body of GET /api/safe-zones.
type SafeZonesResponse struct {
	SafeZones []SafeZoneResponse `json:"safeZones"`
}

// SourceDescriptor describes one upstream provider for GET /api/sources.
type SourceDescriptor struct {
	ID          sources.ID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Format      string     `json:"format"`
}

// SourcesResponse is the body of GET /api/sources.
type SourcesResponse struct {
	Sources []SourceDescriptor `json:"sources"`
}

// SeverityBuckets counts events by severity band (critical >= 8,
// 5 <= warning < 8, minor < 5).
type SeverityBuckets struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Minor    int `json:"minor"`
}

// StatsResponse is the body of GET /api/disasters/stats.
type StatsResponse struct {
	Total      int                       `json:"total"`
	ByType     map[sources.EventType]int `json:"byType"`
	BySeverity SeverityBuckets           `json:"bySeverity"`
	BySource   map[sources.ID]int        `json:"bySource"`
	Timestamp  time.Time                 `json:"timestamp"`
}
