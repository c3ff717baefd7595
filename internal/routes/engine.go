// Package routes implements the dynamic route registration engine: it
// turns a validated list of route definitions into live HTTP handlers and
// executes the per-request pipeline (error injection, delay injection,
// persistence dispatch or template rendering, response emission).
//
// The engine keeps its own handler table and is mounted behind the admin
// router's NoRoute fallback, so reloading the route set never touches the
// framework router and administrative routes always survive a reload.
package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mockforge/mockforge/internal/config"
	"github.com/mockforge/mockforge/internal/generator"
	"github.com/mockforge/mockforge/internal/models"
	"github.com/mockforge/mockforge/internal/plugin"
	"github.com/mockforge/mockforge/internal/schema"
	"github.com/mockforge/mockforge/internal/stats"
	"github.com/mockforge/mockforge/internal/storage"
)

// Engine matches requests against the active route table and runs the
// request pipeline. The table is swapped wholesale under the write lock on
// every reload; in-flight requests finish against the table they matched.
type Engine struct {
	store   *storage.Manager
	gen     *generator.Generator
	statsC  *stats.Collector
	plugins *plugin.Registry
	delay   config.DelayConfig

	mu     sync.RWMutex
	byMeth map[string][]*route // method -> routes, most specific first
	active []models.RouteDefinition

	// rng and sleep are injectable for deterministic tests.
	rngMu sync.Mutex
	rng   *rand.Rand
	sleep func(time.Duration)

	seedCount int
}

type route struct {
	def       models.RouteDefinition
	pattern   *regexp.Regexp
	paramKeys []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand replaces the error-injection RNG.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithSleep replaces the delay-injection sleep function.
func WithSleep(sleep func(time.Duration)) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// WithSeedCount overrides the default first-touch seeding count.
func WithSeedCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.seedCount = n
		}
	}
}

// WithDelayConfig installs the delay clamp settings.
func WithDelayConfig(d config.DelayConfig) Option {
	return func(e *Engine) { e.delay = d }
}

// NewEngine creates an engine with an empty route table.
func NewEngine(store *storage.Manager, gen *generator.Generator, statsC *stats.Collector, plugins *plugin.Registry, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		gen:       gen,
		statsC:    statsC,
		plugins:   plugins,
		byMeth:    make(map[string][]*route),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:     time.Sleep,
		seedCount: 5,
		delay:     config.Default().Delay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load replaces the active route table with the given definitions.
// Invalid routes are skipped and counted, duplicates within the batch are
// skipped and counted; neither aborts the load. The swap is atomic: until
// it happens requests are served by the previous table.
func (e *Engine) Load(defs []models.RouteDefinition) *models.LoadReport {
	report := &models.LoadReport{}
	byMeth := make(map[string][]*route)
	seen := make(map[string]struct{}, len(defs))
	active := make([]models.RouteDefinition, 0, len(defs))

	for i := range defs {
		def := defs[i]
		def.Method = strings.ToUpper(def.Method)

		if err := ValidateRouteConfig(&def); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s %s: %v", def.Method, def.Path, err))
			log.Printf("Failed to load route %s %s: %v", def.Method, def.Path, err)
			continue
		}

		key := def.Key()
		if _, dup := seen[key]; dup {
			report.Duplicates++
			log.Printf("Duplicate route found: %s. Skipping...", key)
			continue
		}
		seen[key] = struct{}{}

		if def.Schema != nil {
			e.store.SetSchema(def.Path, def.Schema)
		}

		r := &route{def: def}
		r.pattern, r.paramKeys = buildPathPattern(def.Path)
		byMeth[def.Method] = append(byMeth[def.Method], r)
		active = append(active, def)
		report.Loaded++
	}

	for method := range byMeth {
		sortRoutes(byMeth[method])
	}

	e.mu.Lock()
	e.byMeth = byMeth
	e.active = active
	e.mu.Unlock()

	return report
}

// Routes returns a copy of the active route set.
func (e *Engine) Routes() []models.RouteDefinition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]models.RouteDefinition(nil), e.active...)
}

// RegisteredRoutes returns method -> path list for the admin routes view.
func (e *Engine) RegisteredRoutes() map[string][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make(map[string][]string)
	for method, list := range e.byMeth {
		for _, r := range list {
			result[method] = append(result[method], r.def.Path)
		}
	}
	return result
}

// FindRoute returns the active definition for a method and path pattern.
func (e *Engine) FindRoute(method, path string) (*models.RouteDefinition, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for i := range e.active {
		if e.active[i].Method == strings.ToUpper(method) && e.active[i].Path == path {
			def := e.active[i]
			return &def, true
		}
	}
	return nil, false
}

// Reseed clears the collection backing resource and regenerates seed
// data from the persisted route that owns it. It reports the new record
// count and whether any active route maps to the resource.
func (e *Engine) Reseed(resource string) (int, bool) {
	for _, def := range e.Routes() {
		if !def.Persist || storage.ResourceKey(def.Path) != resource {
			continue
		}
		e.store.Reset(def.Path, nil)
		if template, count := seedTemplate(def.Response, e.seedCount); template != nil {
			e.store.InitializeStore(def.Path, template, count)
		}
		return e.store.Count(def.Path), true
	}
	return 0, false
}

// buildPathPattern converts an Express-style path (/users/:id) to an
// anchored regex and the ordered parameter names.
func buildPathPattern(pathPattern string) (*regexp.Regexp, []string) {
	var paramKeys []string

	escaped := regexp.QuoteMeta(pathPattern)
	paramPattern := regexp.MustCompile(`:([A-Za-z0-9_]+)`)
	result := paramPattern.ReplaceAllStringFunc(escaped, func(match string) string {
		paramKeys = append(paramKeys, match[1:])
		return `([^/]+)`
	})

	pattern, _ := regexp.Compile("^" + result + "$")
	return pattern, paramKeys
}

// sortRoutes orders routes by specificity: fewer parameters first, then
// longer paths.
func sortRoutes(list []*route) {
	sort.Slice(list, func(i, j int) bool {
		if len(list[i].paramKeys) != len(list[j].paramKeys) {
			return len(list[i].paramKeys) < len(list[j].paramKeys)
		}
		return len(list[i].def.Path) > len(list[j].def.Path)
	})
}

// ServeHTTP handles one request against the dynamic route table.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	e.mu.RLock()
	matched, params := e.matchRoute(r.Method, r.URL.Path)
	e.mu.RUnlock()

	if matched == nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error":   "Not found",
			"message": fmt.Sprintf("No route matches %s %s", r.Method, r.URL.Path),
		})
		return
	}

	if e.plugins != nil && e.plugins.RunBeforeRequest(w, r) {
		return
	}

	status := e.handle(w, r, matched, params)

	duration := time.Since(startTime)
	e.statsC.RecordRequest(matched.def.Method, matched.def.Path, duration, status >= 400)
	if e.plugins != nil {
		e.plugins.RunAfterRequest(r, status)
	}
}

func (e *Engine) matchRoute(method, requestPath string) (*route, map[string]string) {
	list, ok := e.byMeth[strings.ToUpper(method)]
	if !ok {
		return nil, nil
	}

	for _, r := range list {
		if r.pattern == nil {
			continue
		}
		matches := r.pattern.FindStringSubmatch(requestPath)
		if matches == nil {
			continue
		}

		params := make(map[string]string, len(r.paramKeys))
		for i, key := range r.paramKeys {
			if i+1 < len(matches) {
				params[key] = matches[i+1]
			}
		}
		return r, params
	}
	return nil, nil
}

// handle runs the pipeline for a matched route and returns the status
// code written. Unexpected panics are converted to a 500 response; they
// never escape to the transport layer.
func (e *Engine) handle(w http.ResponseWriter, r *http.Request, rt *route, params map[string]string) (status int) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("%v", rec)
			log.Printf("Request handling error: %v", err)
			if e.plugins != nil {
				e.plugins.RunOnError(r, err)
			}
			status = http.StatusInternalServerError
			writeJSON(w, status, map[string]interface{}{
				"error":   "Internal Server Error",
				"message": err.Error(),
			})
		}
	}()

	// Stage 1: error injection. A firing error skips all later stages.
	if sim := rt.def.Error; sim != nil && sim.Enabled && sim.Probability > 0 {
		e.rngMu.Lock()
		draw := e.rng.Float64() * 100
		e.rngMu.Unlock()
		if draw <= sim.Probability {
			status = sim.Status
			writeJSON(w, status, map[string]interface{}{
				"error":   true,
				"message": sim.Message,
			})
			return status
		}
	}

	// Stage 2: delay injection. Suspends only this handler's goroutine.
	if delay := e.delay.Clamp(rt.def.Delay); delay > 0 {
		e.sleep(time.Duration(delay) * time.Millisecond)
	}

	// Stage 3: dispatch.
	ctx := &generator.Context{
		PathParams: params,
		Query:      r.URL.Query(),
		Headers:    r.Header,
	}

	if !rt.def.Persist {
		rendered := e.gen.GenerateWithContext(rt.def.Response, ctx)
		status = rt.def.EffectiveStatus()
		writeJSON(w, status, rendered)
		return status
	}

	return e.dispatchPersist(w, r, rt, params, ctx)
}

// dispatchPersist routes a persisted request to the storage manager.
func (e *Engine) dispatchPersist(w http.ResponseWriter, r *http.Request, rt *route, params map[string]string, ctx *generator.Context) int {
	path := rt.def.Path
	id := params["id"]

	switch rt.def.Method {
	case http.MethodGet:
		if id != "" {
			item, found := e.store.GetByID(path, id)
			if !found {
				return writeNotFound(w, id)
			}
			return writeJSONStatus(w, rt.def.EffectiveStatus(), item)
		}

		if e.store.Count(path) == 0 {
			if template, count := seedTemplate(rt.def.Response, e.seedCount); template != nil {
				e.store.InitializeStore(path, template, count)
			}
		}
		return writeJSONStatus(w, rt.def.EffectiveStatus(), e.store.GetAll(path))

	case http.MethodPost:
		body, ok := e.decodeBody(w, r, rt, ctx)
		if !ok {
			return http.StatusBadRequest
		}
		merged := e.mergeWithTemplate(rt.def.Response, body, ctx)
		item, err := e.store.Add(path, merged)
		if err != nil {
			return writeValidationError(w, err)
		}
		status := rt.def.StatusCode
		if status == 0 {
			status = http.StatusCreated
		}
		return writeJSONStatus(w, status, item)

	case http.MethodPut, http.MethodPatch:
		body, ok := e.decodeBody(w, r, rt, ctx)
		if !ok {
			return http.StatusBadRequest
		}
		merged := e.mergeWithTemplate(rt.def.Response, body, ctx)
		item, err := e.store.Update(path, id, merged)
		if err != nil {
			return writeValidationError(w, err)
		}
		if item == nil {
			return writeNotFound(w, id)
		}
		return writeJSONStatus(w, rt.def.EffectiveStatus(), item)

	case http.MethodDelete:
		if id == "" {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":   true,
				"message": "DELETE requires an id path parameter",
			})
			return http.StatusBadRequest
		}
		if !e.store.Delete(path, id) {
			return writeNotFound(w, id)
		}
		status := rt.def.StatusCode
		if status == 0 {
			status = http.StatusNoContent
		}
		w.WriteHeader(status)
		return status

	default:
		rendered := e.gen.GenerateWithContext(rt.def.Response, ctx)
		return writeJSONStatus(w, rt.def.EffectiveStatus(), rendered)
	}
}

// decodeBody parses the request body and applies the optional request
// validation gate. It writes the 400 response itself on failure.
func (e *Engine) decodeBody(w http.ResponseWriter, r *http.Request, rt *route, ctx *generator.Context) (map[string]interface{}, bool) {
	body := make(map[string]interface{})
	if r.Body != nil {
		raw, err := io.ReadAll(r.Body)
		if err == nil && len(raw) > 0 {
			ctx.Body = string(raw)
			if err := json.Unmarshal(raw, &body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]interface{}{
					"error":   "Validation Error",
					"details": []string{"request body must be a JSON object"},
				})
				return nil, false
			}
		}
	}

	if rt.def.ValidateRequest && rt.def.Schema != nil {
		result := schema.Validate(body, rt.def.Schema)
		if !result.IsValid {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":   "Validation Error",
				"details": result.Errors,
			})
			return nil, false
		}
	}
	return body, true
}

// mergeWithTemplate renders the route's response template and lays the
// request body over it, so omitted fields get fresh fake values while
// client-supplied fields win.
func (e *Engine) mergeWithTemplate(template interface{}, body map[string]interface{}, ctx *generator.Context) map[string]interface{} {
	merged := make(map[string]interface{})
	if rendered, ok := e.gen.GenerateWithContext(itemTemplate(template), ctx).(map[string]interface{}); ok {
		for k, v := range rendered {
			merged[k] = v
		}
	}
	for k, v := range body {
		merged[k] = v
	}
	return merged
}

// itemTemplate unwraps collection-shaped templates ({key: [item]}) to the
// single-item template used for POST/PUT merging and seeding.
func itemTemplate(template interface{}) interface{} {
	m, ok := template.(map[string]interface{})
	if !ok {
		return template
	}
	for _, v := range m {
		if list, ok := v.([]interface{}); ok && len(list) > 0 {
			return list[0]
		}
	}
	return template
}

// seedTemplate extracts the first-touch seeding template and count from a
// route response. A collection template longer than one item fixes the
// count; otherwise the configured default applies.
func seedTemplate(response interface{}, defaultCount int) (interface{}, int) {
	m, ok := response.(map[string]interface{})
	if !ok {
		if list, ok := response.([]interface{}); ok && len(list) > 0 {
			count := defaultCount
			if len(list) > 1 {
				count = len(list)
			}
			return list[0], count
		}
		return nil, 0
	}
	for _, v := range m {
		if list, ok := v.([]interface{}); ok && len(list) > 0 {
			count := defaultCount
			if len(list) > 1 {
				count = len(list)
			}
			return list[0], count
		}
	}
	return nil, 0
}

func writeNotFound(w http.ResponseWriter, id string) int {
	writeJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not found",
		"message": fmt.Sprintf("No item found with id: %s", id),
	})
	return http.StatusNotFound
}

func writeValidationError(w http.ResponseWriter, err error) int {
	var verr *storage.ValidationError
	details := []string{err.Error()}
	if errors.As(err, &verr) {
		details = verr.Details
	}
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":   "Validation Error",
		"details": details,
	})
	return http.StatusBadRequest
}

func writeJSONStatus(w http.ResponseWriter, status int, payload interface{}) int {
	writeJSON(w, status, payload)
	return status
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
