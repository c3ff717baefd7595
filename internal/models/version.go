package models

import "time"

// RouteVersion is one snapshot of the route set, addressable by the
// SHA-256 hash of its serialized form.
type RouteVersion struct {
	Hash        string            `json:"hash"`
	ShortHash   string            `json:"shortHash"`
	Timestamp   time.Time         `json:"timestamp"`
	Description string            `json:"description"`
	Routes      []RouteDefinition `json:"-"`
	Metadata    VersionMetadata   `json:"metadata"`
	IsCurrent   bool              `json:"isCurrent"`
}

// VersionMetadata describes a snapshot for the history listing.
type VersionMetadata struct {
	RouteCount int       `json:"routeCount"`
	RoutePaths []string  `json:"routePaths"`
	CreatedAt  time.Time `json:"createdAt"`
}
