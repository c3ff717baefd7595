package models

import "strings"

// SupportedMethods lists the HTTP verbs a route definition may use.
var SupportedMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

// RouteDefinition is the unit of mock configuration. A list of these drives
// the registration engine; the same shape is persisted in routes.json.
type RouteDefinition struct {
	Path            string                 `json:"path"`
	Method          string                 `json:"method"`
	Response        interface{}            `json:"response,omitempty"`
	StatusCode      int                    `json:"statusCode,omitempty"`
	Persist         bool                   `json:"persist,omitempty"`
	Schema          map[string]interface{} `json:"schema,omitempty"`
	ValidateRequest bool                   `json:"validateRequest,omitempty"`
	Error           *ErrorSimulation       `json:"error,omitempty"`
	Delay           int                    `json:"delay,omitempty"` // milliseconds
}

// ErrorSimulation configures probabilistic error injection for a route.
type ErrorSimulation struct {
	Enabled     bool    `json:"enabled"`
	Probability float64 `json:"probability"` // 0-100
	Status      int     `json:"status"`
	Message     string  `json:"message"`
}

// Key returns the canonical METHOD:path identity used for duplicate
// detection and the handler table.
func (r *RouteDefinition) Key() string {
	return strings.ToUpper(r.Method) + ":" + r.Path
}

// EffectiveStatus returns the configured status code or the default 200.
func (r *RouteDefinition) EffectiveStatus() int {
	if r.StatusCode == 0 {
		return 200
	}
	return r.StatusCode
}

// LoadReport summarizes a batch load of route definitions.
type LoadReport struct {
	Loaded     int      `json:"loaded"`
	Failed     int      `json:"failed"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors,omitempty"`
}
