package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mockforge/mockforge/internal/config"
	"github.com/mockforge/mockforge/internal/generator"
	"github.com/mockforge/mockforge/internal/models"
	"github.com/mockforge/mockforge/internal/plugin"
	"github.com/mockforge/mockforge/internal/stats"
	"github.com/mockforge/mockforge/internal/storage"
)

func newTestEngine(opts ...Option) (*Engine, *storage.Manager) {
	gen := generator.NewSeeded(1)
	store := storage.NewManager(gen)
	e := NewEngine(store, gen, stats.NewCollector(), plugin.NewRegistry(), opts...)
	return e, store
}

func doRequest(e *Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a JSON object: %v (%s)", err, w.Body.String())
	}
	return out
}

func widgetRoutes() []models.RouteDefinition {
	item := map[string]interface{}{
		"name":  "{{faker.commerce.productName}}",
		"price": "{{faker.commerce.price}}",
	}
	sch := map[string]interface{}{
		"name":  "string",
		"price": "number",
	}
	return []models.RouteDefinition{
		{
			Path:    "/api/widgets",
			Method:  "GET",
			Persist: true,
			Response: map[string]interface{}{
				"widgets": []interface{}{item},
			},
		},
		{Path: "/api/widgets/:id", Method: "GET", Persist: true, Response: item},
		{
			Path:            "/api/widgets",
			Method:          "POST",
			Persist:         true,
			Response:        item,
			Schema:          sch,
			ValidateRequest: true,
		},
		{Path: "/api/widgets/:id", Method: "PUT", Persist: true, Response: item},
		{Path: "/api/widgets/:id", Method: "DELETE", Persist: true},
	}
}

func TestLoadReport(t *testing.T) {
	e, _ := newTestEngine()

	defs := []models.RouteDefinition{
		{Path: "/api/a", Method: "GET", Response: "ok"},
		{Path: "/api/b", Method: "FETCH", Response: "ok"},
		{Path: "/api/a", Method: "get", Response: "again"},
	}

	report := e.Load(defs)
	if report.Loaded != 1 || report.Failed != 1 || report.Duplicates != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "FETCH") {
		t.Errorf("failure not described: %v", report.Errors)
	}
	if len(e.Routes()) != 1 {
		t.Errorf("active set should hold 1 route, got %d", len(e.Routes()))
	}
}

func TestLoadReplacesTable(t *testing.T) {
	e, _ := newTestEngine()

	e.Load([]models.RouteDefinition{{Path: "/api/old", Method: "GET", Response: "old"}})
	e.Load([]models.RouteDefinition{{Path: "/api/new", Method: "GET", Response: "new"}})

	if w := doRequest(e, "GET", "/api/old", ""); w.Code != http.StatusNotFound {
		t.Errorf("old route survived reload: %d", w.Code)
	}
	if w := doRequest(e, "GET", "/api/new", ""); w.Code != http.StatusOK {
		t.Errorf("new route not served: %d", w.Code)
	}
}

func TestUnknownRouteNotFoundShape(t *testing.T) {
	e, _ := newTestEngine()

	w := doRequest(e, "GET", "/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	body := decodeMap(t, w)
	if body["error"] != "Not found" {
		t.Errorf("unexpected body: %v", body)
	}
	if !strings.Contains(body["message"].(string), "GET /nope") {
		t.Errorf("message should name the request: %v", body["message"])
	}
}

func TestStaticRouteWinsOverParameterized(t *testing.T) {
	e, _ := newTestEngine()
	e.Load([]models.RouteDefinition{
		{Path: "/api/widgets/:id", Method: "GET", Response: map[string]interface{}{"kind": "param"}},
		{Path: "/api/widgets/featured", Method: "GET", Response: map[string]interface{}{"kind": "static"}},
	})

	body := decodeMap(t, doRequest(e, "GET", "/api/widgets/featured", ""))
	if body["kind"] != "static" {
		t.Errorf("static route should take precedence, got %v", body["kind"])
	}

	body = decodeMap(t, doRequest(e, "GET", "/api/widgets/w-1", ""))
	if body["kind"] != "param" {
		t.Errorf("parameterized route should catch the rest, got %v", body["kind"])
	}
}

func TestTemplateRenderingWithRequestContext(t *testing.T) {
	e, _ := newTestEngine()
	e.Load([]models.RouteDefinition{{
		Path:   "/api/echo/:word",
		Method: "GET",
		Response: map[string]interface{}{
			"word": "{{request.path.word}}",
			"page": "{{request.query.page}}",
		},
	}})

	body := decodeMap(t, doRequest(e, "GET", "/api/echo/hello?page=2", ""))
	if body["word"] != "hello" || body["page"] != "2" {
		t.Errorf("request context not applied: %v", body)
	}
}

func TestCustomStatusCode(t *testing.T) {
	e, _ := newTestEngine()
	e.Load([]models.RouteDefinition{{
		Path: "/api/teapot", Method: "GET", StatusCode: 418, Response: "short and stout",
	}})

	if w := doRequest(e, "GET", "/api/teapot", ""); w.Code != 418 {
		t.Errorf("expected 418, got %d", w.Code)
	}
}

func TestErrorInjectionAlwaysFires(t *testing.T) {
	e, _ := newTestEngine()
	e.Load([]models.RouteDefinition{{
		Path: "/api/flaky", Method: "GET", Response: "ok",
		Error: &models.ErrorSimulation{Enabled: true, Probability: 100, Status: 503, Message: "Service unavailable"},
	}})

	for i := 0; i < 100; i++ {
		w := doRequest(e, "GET", "/api/flaky", "")
		if w.Code != 503 {
			t.Fatalf("probability 100 must always fire, got %d", w.Code)
		}
		body := decodeMap(t, w)
		if body["error"] != true || body["message"] != "Service unavailable" {
			t.Fatalf("unexpected error body: %v", body)
		}
	}
}

func TestErrorInjectionNeverFiresAtZero(t *testing.T) {
	e, _ := newTestEngine()
	e.Load([]models.RouteDefinition{
		{
			Path: "/api/zero", Method: "GET", Response: "ok",
			Error: &models.ErrorSimulation{Enabled: true, Probability: 0, Status: 503, Message: "never"},
		},
		{
			Path: "/api/disabled", Method: "GET", Response: "ok",
			Error: &models.ErrorSimulation{Enabled: false, Probability: 100, Status: 503, Message: "never"},
		},
	})

	for i := 0; i < 100; i++ {
		if w := doRequest(e, "GET", "/api/zero", ""); w.Code != http.StatusOK {
			t.Fatalf("probability 0 fired: %d", w.Code)
		}
		if w := doRequest(e, "GET", "/api/disabled", ""); w.Code != http.StatusOK {
			t.Fatalf("disabled simulation fired: %d", w.Code)
		}
	}
}

func TestDelayInjection(t *testing.T) {
	var slept time.Duration
	e, _ := newTestEngine(
		WithSleep(func(d time.Duration) { slept = d }),
		WithDelayConfig(config.DelayConfig{Enabled: true, Max: 5000}),
	)
	e.Load([]models.RouteDefinition{{Path: "/api/slow", Method: "GET", Response: "ok", Delay: 200}})

	if w := doRequest(e, "GET", "/api/slow", ""); w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if slept != 200*time.Millisecond {
		t.Errorf("expected 200ms delay, got %v", slept)
	}
}

func TestDelayClampedToMax(t *testing.T) {
	var slept time.Duration
	e, _ := newTestEngine(
		WithSleep(func(d time.Duration) { slept = d }),
		WithDelayConfig(config.DelayConfig{Enabled: true, Max: 1000}),
	)
	e.Load([]models.RouteDefinition{{Path: "/api/slow", Method: "GET", Response: "ok", Delay: 60000}})

	doRequest(e, "GET", "/api/slow", "")
	if slept != time.Second {
		t.Errorf("delay not clamped: %v", slept)
	}
}

func TestDelayDoesNotBlockOtherRequests(t *testing.T) {
	e, _ := newTestEngine(WithDelayConfig(config.DelayConfig{Enabled: true, Max: 5000}))
	e.Load([]models.RouteDefinition{
		{Path: "/api/slow", Method: "GET", Response: "slow", Delay: 300},
		{Path: "/api/fast", Method: "GET", Response: "fast"},
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		doRequest(e, "GET", "/api/slow", "")
	}()

	// The fast route must answer while the slow one is sleeping.
	start := time.Now()
	doRequest(e, "GET", "/api/fast", "")
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("fast request blocked for %v", elapsed)
	}
	wg.Wait()
}

func TestPersistedCRUDLifecycle(t *testing.T) {
	e, store := newTestEngine(WithSeedCount(3))
	report := e.Load(widgetRoutes())
	if report.Loaded != len(widgetRoutes()) || report.Failed != 0 || report.Duplicates != 0 {
		t.Fatalf("clean set should load fully: %+v", report)
	}

	// First GET seeds the collection.
	w := doRequest(e, "GET", "/api/widgets", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list failed: %d", w.Code)
	}
	list := decodeMap(t, w)["widgets"].([]interface{})
	if len(list) != 3 {
		t.Fatalf("expected 3 seeded widgets, got %d", len(list))
	}

	// Create.
	w = doRequest(e, "POST", "/api/widgets", `{"name": "Lamp", "price": 12.5}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create failed: %d (%s)", w.Code, w.Body.String())
	}
	created := decodeMap(t, w)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("created widget has no id")
	}
	if created["name"] != "Lamp" {
		t.Errorf("client fields must win over template: %v", created)
	}
	if store.Count("/api/widgets") != 4 {
		t.Errorf("expected 4 stored widgets, got %d", store.Count("/api/widgets"))
	}

	// Read back.
	w = doRequest(e, "GET", "/api/widgets/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get by id failed: %d", w.Code)
	}
	if decodeMap(t, w)["name"] != "Lamp" {
		t.Error("wrong record returned")
	}

	// Update.
	w = doRequest(e, "PUT", "/api/widgets/"+id, `{"name": "Desk Lamp", "price": 15}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update failed: %d (%s)", w.Code, w.Body.String())
	}
	updated := decodeMap(t, w)
	if updated["id"] != id || updated["name"] != "Desk Lamp" {
		t.Errorf("update result wrong: %v", updated)
	}

	// Delete.
	w = doRequest(e, "DELETE", "/api/widgets/"+id, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete failed: %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("delete response must be empty, got %q", w.Body.String())
	}

	// Idempotence: the second delete misses.
	if w = doRequest(e, "DELETE", "/api/widgets/"+id, ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete should 404, got %d", w.Code)
	}
}

func TestPersistedGetByIDNotFound(t *testing.T) {
	e, _ := newTestEngine()
	e.Load(widgetRoutes())

	w := doRequest(e, "GET", "/api/widgets/ghost", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	body := decodeMap(t, w)
	if body["error"] != "Not found" || body["message"] != "No item found with id: ghost" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestPersistedUpdateMissing(t *testing.T) {
	e, _ := newTestEngine()
	e.Load(widgetRoutes())

	w := doRequest(e, "PUT", "/api/widgets/ghost", `{"name": "x", "price": 1}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRequestValidationRejectsBadPayload(t *testing.T) {
	e, store := newTestEngine()
	e.Load(widgetRoutes())

	before := store.Count("/api/widgets")
	w := doRequest(e, "POST", "/api/widgets", `{"name": "Widget", "price": "not-a-number"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	body := decodeMap(t, w)
	if body["error"] != "Validation Error" {
		t.Errorf("unexpected error: %v", body)
	}
	details := body["details"].([]interface{})
	if len(details) != 1 || !strings.Contains(details[0].(string), "price") {
		t.Errorf("details should name the bad field: %v", details)
	}
	if store.Count("/api/widgets") != before {
		t.Error("rejected payload must not be stored")
	}
}

func TestMalformedJSONBodyRejected(t *testing.T) {
	e, _ := newTestEngine()
	e.Load(widgetRoutes())

	w := doRequest(e, "POST", "/api/widgets", `{"name": `)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if decodeMap(t, w)["error"] != "Validation Error" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestDeleteWithoutIDRejected(t *testing.T) {
	e, _ := newTestEngine()
	e.Load([]models.RouteDefinition{{Path: "/api/widgets", Method: "DELETE", Persist: true}})

	w := doRequest(e, "DELETE", "/api/widgets", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPanicRecoveredAsInternalError(t *testing.T) {
	gen := generator.NewSeeded(1)
	gen.Register("custom.boom", func(g *generator.Generator, _ []interface{}) interface{} {
		panic("template exploded")
	})
	store := storage.NewManager(gen)
	e := NewEngine(store, gen, stats.NewCollector(), plugin.NewRegistry())
	e.Load([]models.RouteDefinition{{Path: "/api/boom", Method: "GET", Response: "{{faker.custom.boom}}"}})

	w := doRequest(e, "GET", "/api/boom", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	body := decodeMap(t, w)
	if body["error"] != "Internal Server Error" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestBeforeRequestPluginShortCircuits(t *testing.T) {
	gen := generator.NewSeeded(1)
	store := storage.NewManager(gen)
	plugins := plugin.NewRegistry()
	if err := plugins.Register(&plugin.AuthPlugin{Token: "secret", ProtectedPrefixes: []string{"/api/private"}}); err != nil {
		t.Fatal(err)
	}
	e := NewEngine(store, gen, stats.NewCollector(), plugins)
	e.Load([]models.RouteDefinition{
		{Path: "/api/private/data", Method: "GET", Response: "classified"},
		{Path: "/api/public", Method: "GET", Response: "open"},
	})

	if w := doRequest(e, "GET", "/api/private/data", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
	if w := doRequest(e, "GET", "/api/public", ""); w.Code != http.StatusOK {
		t.Errorf("unprotected path blocked: %d", w.Code)
	}

	req := httptest.NewRequest("GET", "/api/private/data", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token rejected: %d", w.Code)
	}
}

func TestReseed(t *testing.T) {
	e, store := newTestEngine(WithSeedCount(2))
	e.Load(widgetRoutes())

	doRequest(e, "GET", "/api/widgets", "")
	doRequest(e, "POST", "/api/widgets", `{"name": "Lamp", "price": 1}`)
	if store.Count("/api/widgets") != 3 {
		t.Fatalf("setup failed: %d", store.Count("/api/widgets"))
	}

	count, ok := e.Reseed("widgets")
	if !ok {
		t.Fatal("expected widgets resource to be reseedable")
	}
	if count != 2 {
		t.Errorf("expected 2 fresh records, got %d", count)
	}

	if _, ok := e.Reseed("ghosts"); ok {
		t.Error("unknown resource must not reseed")
	}
}

func TestConcurrentRequestsAndReloads(t *testing.T) {
	e, _ := newTestEngine()
	e.Load(widgetRoutes())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				doRequest(e, "GET", "/api/widgets", "")
				if n == 0 {
					e.Load(widgetRoutes())
				}
			}
		}(i)
	}
	wg.Wait()

	if w := doRequest(e, "GET", "/api/widgets", ""); w.Code != http.StatusOK {
		t.Errorf("engine unhealthy after concurrent load: %d", w.Code)
	}
}

func TestFindRouteAndRegisteredRoutes(t *testing.T) {
	e, _ := newTestEngine()
	e.Load(widgetRoutes())

	def, ok := e.FindRoute("get", "/api/widgets/:id")
	if !ok || def.Method != "GET" {
		t.Errorf("FindRoute failed: %v %v", def, ok)
	}

	registered := e.RegisteredRoutes()
	if len(registered["GET"]) != 2 {
		t.Errorf("expected 2 GET routes, got %v", registered["GET"])
	}
	want := fmt.Sprintf("%v", []string{"/api/widgets", "/api/widgets/:id"})
	if fmt.Sprintf("%v", registered["GET"]) != want {
		t.Errorf("routes not sorted by specificity: %v", registered["GET"])
	}
}
