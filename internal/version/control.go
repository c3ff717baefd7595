// Package version keeps a bounded history of route-set snapshots,
// addressable by the SHA-256 hash of their serialized form, with rollback.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mockforge/mockforge/internal/models"
)

// Controller manages route-set versions. History is capped; the oldest
// snapshot is evicted first.
type Controller struct {
	mu          sync.RWMutex
	versions    map[string]*models.RouteVersion
	order       []string // oldest first
	current     string
	maxVersions int
}

// NewController creates a controller keeping at most maxVersions
// snapshots.
func NewController(maxVersions int) *Controller {
	if maxVersions <= 0 {
		maxVersions = 50
	}
	return &Controller{
		versions:    make(map[string]*models.RouteVersion),
		maxVersions: maxVersions,
	}
}

// Hash returns the SHA-256 hex digest of the serialized route set.
func Hash(routes []models.RouteDefinition) (string, error) {
	data, err := json.Marshal(routes)
	if err != nil {
		return "", fmt.Errorf("failed to serialize routes: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Save records a snapshot of routes and makes it the current version.
// Saving an already-known hash just moves the current pointer.
func (c *Controller) Save(routes []models.RouteDefinition, description string) (*models.RouteVersion, error) {
	hash, err := Hash(routes)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.versions[hash]; ok {
		c.current = hash
		return existing, nil
	}

	paths := make([]string, len(routes))
	for i, r := range routes {
		paths[i] = strings.ToUpper(r.Method) + " " + r.Path
	}

	v := &models.RouteVersion{
		Hash:        hash,
		ShortHash:   hash[:8],
		Timestamp:   time.Now(),
		Description: description,
		Routes:      append([]models.RouteDefinition(nil), routes...),
		Metadata: models.VersionMetadata{
			RouteCount: len(routes),
			RoutePaths: paths,
			CreatedAt:  time.Now(),
		},
	}

	c.versions[hash] = v
	c.order = append(c.order, hash)
	c.current = hash

	if len(c.order) > c.maxVersions {
		evicted := c.order[0]
		c.order = c.order[1:]
		delete(c.versions, evicted)
	}

	return v, nil
}

// Rollback makes the snapshot with the given hash current and returns its
// route set.
func (c *Controller) Rollback(hash string) ([]models.RouteDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.versions[hash]
	if !ok {
		return nil, fmt.Errorf("version not found: %s", hash)
	}
	c.current = hash
	return append([]models.RouteDefinition(nil), v.Routes...), nil
}

// History returns snapshots newest first, with IsCurrent set.
func (c *Controller) History() []models.RouteVersion {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]models.RouteVersion, 0, len(c.order))
	for i := len(c.order) - 1; i >= 0; i-- {
		v := *c.versions[c.order[i]]
		v.IsCurrent = v.Hash == c.current
		result = append(result, v)
	}
	return result
}

// Current returns the current snapshot, or nil when none was saved.
func (c *Controller) Current() *models.RouteVersion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versions[c.current]
}
