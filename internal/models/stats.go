package models

import "time"

// RouteStat aggregates request metrics for one METHOD:path.
type RouteStat struct {
	Method        string    `json:"method"`
	Path          string    `json:"path"`
	TotalRequests int64     `json:"totalRequests"`
	TotalErrors   int64     `json:"totalErrors"`
	AvgTimeMs     float64   `json:"avgTimeMs"`
	MinTimeMs     float64   `json:"minTimeMs"`
	MaxTimeMs     float64   `json:"maxTimeMs"`
	LastRequest   time.Time `json:"lastRequest"`
}

// GlobalStats is the admin dashboard summary.
type GlobalStats struct {
	Uptime        string      `json:"uptime"`
	ActiveRoutes  int         `json:"activeRoutes"`
	TotalRequests int64       `json:"totalRequests"`
	TotalErrors   int64       `json:"totalErrors"`
	Routes        []RouteStat `json:"routes"`
}
