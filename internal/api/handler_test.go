package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mockforge/mockforge/internal/generator"
	"github.com/mockforge/mockforge/internal/logs"
	"github.com/mockforge/mockforge/internal/plugin"
	"github.com/mockforge/mockforge/internal/routes"
	"github.com/mockforge/mockforge/internal/stats"
	"github.com/mockforge/mockforge/internal/storage"
	"github.com/mockforge/mockforge/internal/version"
)

func newTestRouter(t *testing.T) (*Router, *routes.Engine) {
	t.Helper()

	gen := generator.NewSeeded(1)
	store := storage.NewManager(gen)
	statsCollector := stats.NewCollector()
	logService := logs.NewService(100)
	versions := version.NewController(10)
	mockEngine := routes.NewEngine(store, gen, statsCollector, plugin.NewRegistry(), routes.WithSeedCount(2))

	routesFile := filepath.Join(t.TempDir(), "routes.json")
	return NewRouter(mockEngine, store, logService, statsCollector, versions, routesFile), mockEngine
}

func serve(r *Router, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response not a JSON object: %v (%s)", err, w.Body.String())
	}
	return out
}

const widgetRouteSet = `[
	{"path": "/api/widgets", "method": "GET", "persist": true,
	 "response": {"widgets": [{"name": "{{faker.commerce.productName}}", "price": "{{faker.commerce.price}}"}]}},
	{"path": "/api/widgets/:id", "method": "GET", "persist": true,
	 "response": {"name": "{{faker.commerce.productName}}", "price": "{{faker.commerce.price}}"}}
]`

func TestHealthCheck(t *testing.T) {
	r, _ := newTestRouter(t)

	w := serve(r, "GET", "/api/admin/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if decode(t, w)["status"] != "healthy" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestSaveAndGetRoutes(t *testing.T) {
	r, engine := newTestRouter(t)

	w := serve(r, "PUT", "/api/admin/routes", widgetRouteSet)
	if w.Code != http.StatusOK {
		t.Fatalf("save failed: %d (%s)", w.Code, w.Body.String())
	}
	if decode(t, w)["loaded"] != float64(2) {
		t.Errorf("unexpected save response: %s", w.Body.String())
	}
	if len(engine.Routes()) != 2 {
		t.Errorf("engine not reloaded: %d routes", len(engine.Routes()))
	}

	w = serve(r, "GET", "/api/admin/routes", "")
	if w.Code != http.StatusOK || decode(t, w)["count"] != float64(2) {
		t.Errorf("list failed: %d (%s)", w.Code, w.Body.String())
	}
}

func TestSaveRoutesIsAllOrNothing(t *testing.T) {
	r, engine := newTestRouter(t)
	serve(r, "POST", "/api/admin/routes", widgetRouteSet)

	// One valid route plus one with a bad method; nothing may change.
	bad := `[
		{"path": "/api/ok", "method": "GET", "response": "ok"},
		{"path": "/api/bad", "method": "FETCH", "response": "ok"}
	]`
	w := serve(r, "POST", "/api/admin/routes", bad)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(engine.Routes()) != 2 {
		t.Errorf("rejected batch mutated the active set: %d routes", len(engine.Routes()))
	}

	dup := `[
		{"path": "/api/ok", "method": "GET", "response": "ok"},
		{"path": "/api/ok", "method": "get", "response": "again"}
	]`
	if w := serve(r, "POST", "/api/admin/routes", dup); w.Code != http.StatusBadRequest {
		t.Errorf("duplicate batch accepted: %d", w.Code)
	}
}

func TestValidateRouteEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	serve(r, "POST", "/api/admin/routes", widgetRouteSet)

	w := serve(r, "POST", "/api/admin/routes/validate", `{"path": "/api/widgets", "method": "GET", "response": "x"}`)
	if decode(t, w)["valid"] != false {
		t.Error("duplicate candidate should be invalid")
	}

	w = serve(r, "POST", "/api/admin/routes/validate", `{"path": "/api/new", "method": "GET", "response": "x"}`)
	if decode(t, w)["valid"] != true {
		t.Errorf("fresh candidate rejected: %s", w.Body.String())
	}
}

func TestDynamicRoutesServedThroughFallback(t *testing.T) {
	r, _ := newTestRouter(t)
	serve(r, "POST", "/api/admin/routes", widgetRouteSet)

	w := serve(r, "GET", "/api/widgets", "")
	if w.Code != http.StatusOK {
		t.Fatalf("dynamic route not served: %d", w.Code)
	}
	widgets, ok := decode(t, w)["widgets"].([]interface{})
	if !ok || len(widgets) != 2 {
		t.Errorf("expected 2 seeded widgets, got %s", w.Body.String())
	}

	if w := serve(r, "GET", "/totally/unknown", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown path should 404, got %d", w.Code)
	}
}

func TestStorageEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)
	serve(r, "POST", "/api/admin/routes", widgetRouteSet)
	serve(r, "GET", "/api/widgets", "") // trigger seeding

	w := serve(r, "GET", "/api/admin/storage", "")
	collections := decode(t, w)["collections"].(map[string]interface{})
	if collections["widgets"] != float64(2) {
		t.Errorf("collection listing wrong: %v", collections)
	}

	w = serve(r, "GET", "/api/admin/storage/widgets", "")
	items := decode(t, w)["widgets"].([]interface{})
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}

	w = serve(r, "POST", "/api/admin/reset/widgets", "")
	if w.Code != http.StatusOK {
		t.Fatalf("reset failed: %d (%s)", w.Code, w.Body.String())
	}
	if decode(t, w)["count"] != float64(2) {
		t.Errorf("reseed count wrong: %s", w.Body.String())
	}

	if w := serve(r, "POST", "/api/admin/reset/ghosts", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown resource reset should 404, got %d", w.Code)
	}

	if w := serve(r, "POST", "/api/admin/reset", ""); w.Code != http.StatusOK {
		t.Fatalf("reset all failed: %d", w.Code)
	}
	w = serve(r, "GET", "/api/admin/storage", "")
	if len(decode(t, w)["collections"].(map[string]interface{})) != 0 {
		t.Errorf("collections survived reset: %s", w.Body.String())
	}
}

func TestLogsEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)
	serve(r, "POST", "/api/admin/routes", widgetRouteSet)
	serve(r, "GET", "/api/widgets", "")
	serve(r, "GET", "/missing", "")

	w := serve(r, "GET", "/api/admin/logs", "")
	body := decode(t, w)
	if body["total"].(float64) < 3 {
		t.Errorf("expected at least 3 logged requests, got %v", body["total"])
	}

	w = serve(r, "GET", "/api/admin/logs?minStatus=400", "")
	entries := decode(t, w)["logs"].([]interface{})
	for _, e := range entries {
		if e.(map[string]interface{})["status"].(float64) < 400 {
			t.Errorf("status filter leaked entry: %v", e)
		}
	}

	serve(r, "DELETE", "/api/admin/logs", "")
	w = serve(r, "GET", "/api/admin/logs", "")
	// Only the DELETE and this GET were recorded since the clear.
	if decode(t, w)["total"].(float64) > 2 {
		t.Errorf("logs not cleared: %s", w.Body.String())
	}
}

func TestStatsEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)
	serve(r, "POST", "/api/admin/routes", widgetRouteSet)
	serve(r, "GET", "/api/widgets", "")
	serve(r, "GET", "/api/widgets", "")

	w := serve(r, "GET", "/api/admin/stats", "")
	body := decode(t, w)
	if body["totalRequests"].(float64) != 2 {
		t.Errorf("expected 2 recorded requests, got %v", body["totalRequests"])
	}
	if body["activeRoutes"].(float64) != 2 {
		t.Errorf("expected 2 active routes, got %v", body["activeRoutes"])
	}

	serve(r, "POST", "/api/admin/stats/reset", "")
	w = serve(r, "GET", "/api/admin/stats", "")
	if decode(t, w)["totalRequests"].(float64) != 0 {
		t.Errorf("stats not reset: %s", w.Body.String())
	}
}

func TestVersionEndpoints(t *testing.T) {
	r, engine := newTestRouter(t)
	serve(r, "POST", "/api/admin/routes", widgetRouteSet)
	serve(r, "POST", "/api/admin/routes", `[{"path": "/api/other", "method": "GET", "response": "ok"}]`)

	w := serve(r, "GET", "/api/admin/versions", "")
	body := decode(t, w)
	if body["count"] != float64(2) {
		t.Fatalf("expected 2 versions, got %s", w.Body.String())
	}
	versions := body["versions"].([]interface{})
	oldest := versions[len(versions)-1].(map[string]interface{})
	hash := oldest["hash"].(string)

	w = serve(r, "POST", "/api/admin/versions/"+hash+"/rollback", "")
	if w.Code != http.StatusOK {
		t.Fatalf("rollback failed: %d (%s)", w.Code, w.Body.String())
	}
	if len(engine.Routes()) != 2 {
		t.Errorf("rollback did not restore the widget set: %d routes", len(engine.Routes()))
	}

	if w := serve(r, "POST", "/api/admin/versions/deadbeef/rollback", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown hash should 404, got %d", w.Code)
	}
}

func TestLoadSamples(t *testing.T) {
	r, engine := newTestRouter(t)

	w := serve(r, "POST", "/api/admin/load-samples", "")
	if w.Code != http.StatusOK {
		t.Fatalf("load-samples failed: %d", w.Code)
	}
	if decode(t, w)["added"] != float64(len(routes.SampleRoutes())) {
		t.Errorf("unexpected added count: %s", w.Body.String())
	}
	if len(engine.Routes()) != len(routes.SampleRoutes()) {
		t.Errorf("samples not active: %d", len(engine.Routes()))
	}

	// Loading again adds nothing.
	w = serve(r, "POST", "/api/admin/load-samples", "")
	if decode(t, w)["added"] != float64(0) {
		t.Errorf("samples double-loaded: %s", w.Body.String())
	}
}

func TestOpenAPIEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	serve(r, "POST", "/api/admin/routes", widgetRouteSet)

	w := serve(r, "GET", "/api/admin/openapi.json", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["openapi"] != "3.0.3" {
		t.Errorf("unexpected openapi version: %v", body["openapi"])
	}
	paths := body["paths"].(map[string]interface{})
	if paths["/api/widgets/{id}"] == nil {
		t.Errorf("parameterized path missing: %v", paths)
	}
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)

	w := serve(r, "OPTIONS", "/api/widgets", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight should answer 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
}

func TestRegisteredRoutesEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	serve(r, "POST", "/api/admin/routes", widgetRouteSet)

	w := serve(r, "GET", "/api/admin/registered", "")
	body := decode(t, w)
	get, ok := body["GET"].([]interface{})
	if !ok || len(get) != 2 {
		t.Errorf("expected 2 GET routes, got %s", w.Body.String())
	}
}
