package routes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mockforge/mockforge/internal/models"
)

// LoadFile reads a routes.json file into a route set.
func LoadFile(path string) ([]models.RouteDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var defs []models.RouteDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse routes file: %w", err)
	}
	return defs, nil
}

// SaveFile writes a route set to routes.json, creating parent directories
// as needed.
func SaveFile(path string, defs []models.RouteDefinition) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create routes directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize routes: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadOrSeed reads the routes file, falling back to the built-in samples
// when the file is absent or malformed. The fallback is also written back
// so the file becomes the durable source of truth.
func LoadOrSeed(path string) ([]models.RouteDefinition, error) {
	defs, err := LoadFile(path)
	if err == nil {
		return defs, nil
	}

	defs = SampleRoutes()
	if writeErr := SaveFile(path, defs); writeErr != nil {
		return defs, fmt.Errorf("failed to seed routes file: %w", writeErr)
	}
	return defs, nil
}
