package routes

import (
	"strings"
	"testing"

	"github.com/mockforge/mockforge/internal/models"
)

func validRoute() models.RouteDefinition {
	return models.RouteDefinition{
		Path:     "/api/things",
		Method:   "GET",
		Response: map[string]interface{}{"ok": true},
	}
}

func TestValidateRouteConfig(t *testing.T) {
	r := validRoute()
	if err := ValidateRouteConfig(&r); err != nil {
		t.Fatalf("valid route rejected: %v", err)
	}
}

func TestValidateRouteConfigErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.RouteDefinition)
		want   string
	}{
		{"empty path", func(r *models.RouteDefinition) { r.Path = "" }, "non-empty"},
		{"no leading slash", func(r *models.RouteDefinition) { r.Path = "api/things" }, "start with /"},
		{"bad method", func(r *models.RouteDefinition) { r.Method = "FETCH" }, "invalid HTTP method"},
		{"missing response", func(r *models.RouteDefinition) { r.Response = nil }, "response configuration"},
		{"bad status", func(r *models.RouteDefinition) { r.StatusCode = 42 }, "invalid status code"},
		{"negative delay", func(r *models.RouteDefinition) { r.Delay = -1 }, "non-negative"},
		{"bad probability", func(r *models.RouteDefinition) {
			r.Error = &models.ErrorSimulation{Enabled: true, Probability: 150, Status: 500, Message: "x"}
		}, "probability"},
		{"bad error status", func(r *models.RouteDefinition) {
			r.Error = &models.ErrorSimulation{Enabled: true, Probability: 50, Status: 42, Message: "x"}
		}, "error status"},
		{"empty error message", func(r *models.RouteDefinition) {
			r.Error = &models.ErrorSimulation{Enabled: true, Probability: 50, Status: 500}
		}, "message"},
	}

	for _, tc := range cases {
		r := validRoute()
		tc.mutate(&r)
		err := ValidateRouteConfig(&r)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

func TestValidateRouteConfigDeleteWithoutResponse(t *testing.T) {
	r := models.RouteDefinition{Path: "/api/things/:id", Method: "DELETE"}
	if err := ValidateRouteConfig(&r); err != nil {
		t.Errorf("DELETE without response should be valid: %v", err)
	}
}

func TestValidateRouteConfigDisabledErrorBlockSkipsChecks(t *testing.T) {
	r := validRoute()
	r.Error = &models.ErrorSimulation{Enabled: false, Probability: 500}
	if err := ValidateRouteConfig(&r); err != nil {
		t.Errorf("disabled error block must not be checked: %v", err)
	}
}

func TestValidateRoutesRejectsDuplicates(t *testing.T) {
	defs := []models.RouteDefinition{validRoute(), validRoute()}

	err := ValidateRoutes(defs)
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	if !strings.Contains(err.Error(), "GET:/api/things") {
		t.Errorf("error should name the duplicate key: %v", err)
	}
}

func TestValidateRoutesCaseInsensitiveMethodDuplicate(t *testing.T) {
	a := validRoute()
	b := validRoute()
	b.Method = "get"

	if err := ValidateRoutes([]models.RouteDefinition{a, b}); err == nil {
		t.Error("method casing must not hide duplicates")
	}
}

func TestValidateNewRoute(t *testing.T) {
	existing := []models.RouteDefinition{validRoute()}

	candidate := validRoute()
	if err := ValidateNewRoute(existing, &candidate); err == nil {
		t.Error("expected duplicate rejection")
	}

	candidate.Path = "/api/other"
	if err := ValidateNewRoute(existing, &candidate); err != nil {
		t.Errorf("distinct route rejected: %v", err)
	}
}
