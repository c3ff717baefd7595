package routes

import (
	"fmt"
	"strings"

	"github.com/mockforge/mockforge/internal/models"
)

// ValidateRouteConfig checks the structural well-formedness of a single
// route definition. It returns a descriptive error naming the invalid
// field; a nil error means the route can be registered.
func ValidateRouteConfig(route *models.RouteDefinition) error {
	if route.Path == "" {
		return fmt.Errorf("route path must be a non-empty string")
	}
	if !strings.HasPrefix(route.Path, "/") {
		return fmt.Errorf("route path must start with /: %s", route.Path)
	}

	method := strings.ToUpper(route.Method)
	if !isSupportedMethod(method) {
		return fmt.Errorf("invalid HTTP method: %s", route.Method)
	}

	if method != "DELETE" && route.Response == nil {
		return fmt.Errorf("response configuration is required for %s %s", method, route.Path)
	}

	if route.StatusCode != 0 && (route.StatusCode < 100 || route.StatusCode > 599) {
		return fmt.Errorf("invalid status code: %d", route.StatusCode)
	}

	if route.Delay < 0 {
		return fmt.Errorf("delay must be a non-negative integer")
	}

	if route.Error != nil && route.Error.Enabled {
		e := route.Error
		if e.Probability < 0 || e.Probability > 100 {
			return fmt.Errorf("error probability must be between 0 and 100")
		}
		if e.Status < 100 || e.Status > 599 {
			return fmt.Errorf("invalid error status code: %d", e.Status)
		}
		if e.Message == "" {
			return fmt.Errorf("error message must be a non-empty string")
		}
	}

	return nil
}

// ValidateRoutes validates a whole batch: every route must be structurally
// valid and no (method, path) pair may repeat. The duplicate check is a
// single pass over a set keyed METHOD:path. The first problem aborts the
// batch, so callers can treat a nil error as all-or-nothing approval.
func ValidateRoutes(defs []models.RouteDefinition) error {
	seen := make(map[string]struct{}, len(defs))

	for i := range defs {
		if err := ValidateRouteConfig(&defs[i]); err != nil {
			return err
		}
		key := defs[i].Key()
		if _, ok := seen[key]; ok {
			return fmt.Errorf("duplicate route found: %s", key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// IsDuplicate reports whether candidate collides with an existing route.
func IsDuplicate(existing []models.RouteDefinition, candidate *models.RouteDefinition) bool {
	key := candidate.Key()
	for i := range existing {
		if existing[i].Key() == key {
			return true
		}
	}
	return false
}

// ValidateNewRoute checks a candidate against the active set, for the
// admin "validate before save" endpoint.
func ValidateNewRoute(existing []models.RouteDefinition, candidate *models.RouteDefinition) error {
	if err := ValidateRouteConfig(candidate); err != nil {
		return err
	}
	if IsDuplicate(existing, candidate) {
		return fmt.Errorf("route %s %s already exists", strings.ToUpper(candidate.Method), candidate.Path)
	}
	return nil
}

func isSupportedMethod(method string) bool {
	for _, m := range models.SupportedMethods {
		if m == method {
			return true
		}
	}
	return false
}
