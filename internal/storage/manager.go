// Package storage provides the process-wide in-memory collection store
// backing persisted mock routes. Collections are keyed by a normalized
// resource name derived from the route path and live for the lifetime of
// the process; there is no disk persistence.
package storage

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mockforge/mockforge/internal/generator"
	"github.com/mockforge/mockforge/internal/schema"
)

// Record is one stored item. Every record carries a string "id" field.
type Record = map[string]interface{}

// ValidationError reports a schema mismatch detected before a mutation.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "Validation failed: " + strings.Join(e.Details, ", ")
}

// Manager is a keyed store of collections with CRUD and seeding support.
// All mutations run inside the mutex; gin serves requests on OS threads,
// so the lock is required to keep each mutation atomic.
type Manager struct {
	mu          sync.RWMutex
	collections map[string][]Record
	schemas     map[string]map[string]interface{}
	gen         *generator.Generator
}

// NewManager creates an empty store using gen for seed data generation.
func NewManager(gen *generator.Generator) *Manager {
	return &Manager{
		collections: make(map[string][]Record),
		schemas:     make(map[string]map[string]interface{}),
		gen:         gen,
	}
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// ResourceKey derives the collection key for a route path: trailing
// :param segments are stripped, the last remaining segment is converted
// from camelCase to kebab-case and lowercased, and a plural "s" is
// appended unless already present. The same rule is applied everywhere a
// collection is addressed, so /api/blog-posts, /api/blogPosts and
// /api/blog-posts/:id all resolve to "blog-posts".
func ResourceKey(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	last := ""
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] == "" || strings.HasPrefix(segments[i], ":") {
			continue
		}
		last = segments[i]
		break
	}
	if last == "" {
		return ""
	}

	key := camelBoundary.ReplaceAllString(last, "$1-$2")
	key = strings.ToLower(key)
	if !strings.HasSuffix(key, "s") {
		key += "s"
	}
	return key
}

// SetSchema registers a validation schema for the resource at path.
func (m *Manager) SetSchema(path string, sch map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[ResourceKey(path)] = sch
}

// ValidateData checks data against the schema registered for path.
// Resources without a schema always validate.
func (m *Manager) ValidateData(path string, data Record) schema.Result {
	m.mu.RLock()
	sch, ok := m.schemas[ResourceKey(path)]
	m.mu.RUnlock()

	if !ok {
		return schema.Result{IsValid: true}
	}
	return schema.Validate(data, sch)
}

// Add validates and stores a new record, assigning a fresh id when the
// payload has none. The stored record is returned.
func (m *Manager) Add(path string, data Record) (Record, error) {
	if result := m.ValidateData(path, data); !result.IsValid {
		return nil, &ValidationError{Details: result.Errors}
	}

	item := cloneRecord(data)
	if _, ok := item["id"]; !ok {
		item["id"] = uuid.New().String()
	}

	key := ResourceKey(path)
	m.mu.Lock()
	m.collections[key] = append(m.collections[key], item)
	m.mu.Unlock()

	return cloneRecord(item), nil
}

// GetByID returns the record with the given id, or false when absent.
// IDs are compared as strings so numeric payload ids still match.
func (m *Manager) GetByID(path, id string) (Record, bool) {
	key := ResourceKey(path)
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.collections[key] {
		if idString(item["id"]) == id {
			return cloneRecord(item), true
		}
	}
	return nil, false
}

// Update validates data and replaces the record with the given id,
// preserving the original id. A nil record is returned when no record
// matches; callers map that to 404.
func (m *Manager) Update(path, id string, data Record) (Record, error) {
	if result := m.ValidateData(path, data); !result.IsValid {
		return nil, &ValidationError{Details: result.Errors}
	}

	key := ResourceKey(path)
	m.mu.Lock()
	defer m.mu.Unlock()

	store := m.collections[key]
	for i, item := range store {
		if idString(item["id"]) == id {
			replacement := cloneRecord(data)
			replacement["id"] = item["id"]
			store[i] = replacement
			return cloneRecord(replacement), nil
		}
	}
	return nil, nil
}

// Delete removes the record with the given id and reports whether it
// existed.
func (m *Manager) Delete(path, id string) bool {
	key := ResourceKey(path)
	m.mu.Lock()
	defer m.mu.Unlock()

	store := m.collections[key]
	for i, item := range store {
		if idString(item["id"]) == id {
			m.collections[key] = append(store[:i], store[i+1:]...)
			return true
		}
	}
	return false
}

// GetAll returns the full collection wrapped under its collection key,
// e.g. {"users": [...]}.
func (m *Manager) GetAll(path string) map[string]interface{} {
	key := ResourceKey(path)
	m.mu.RLock()
	defer m.mu.RUnlock()

	store := m.collections[key]
	items := make([]interface{}, len(store))
	for i, item := range store {
		items[i] = cloneRecord(item)
	}
	return map[string]interface{}{key: items}
}

// Count returns the number of records in the collection for path.
func (m *Manager) Count(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[ResourceKey(path)])
}

// Keys lists every collection key currently present, for the admin
// storage browser.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.collections))
	for key := range m.collections {
		keys = append(keys, key)
	}
	return keys
}

// InitializeStore seeds an empty collection with count records generated
// from template. Non-empty collections are left untouched.
func (m *Manager) InitializeStore(path string, template interface{}, count int) {
	if count <= 0 {
		count = 5
	}

	key := ResourceKey(path)
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.collections[key]) > 0 {
		return
	}

	items := make([]Record, 0, count)
	for i := 0; i < count; i++ {
		item, ok := m.gen.Generate(template).(Record)
		if !ok {
			item = Record{"value": m.gen.Generate(template)}
		}
		item = cloneRecord(item)
		item["id"] = uuid.New().String()
		items = append(items, item)
	}
	m.collections[key] = items
}

// Reset replaces the entire collection for path with initialData.
func (m *Manager) Reset(path string, initialData []Record) {
	key := ResourceKey(path)
	items := make([]Record, len(initialData))
	for i, item := range initialData {
		items[i] = cloneRecord(item)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[key] = items
}

// ResetAll clears every collection and every registered schema.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string][]Record)
	m.schemas = make(map[string]map[string]interface{})
}

func cloneRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func idString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
