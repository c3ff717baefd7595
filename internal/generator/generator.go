// Package generator expands placeholder expressions embedded in response
// templates into concrete fake values at request time.
//
// Placeholders use the form {{faker.namespace.path(args)}} and are only
// recognized inside string leaves. A template may be any JSON-compatible
// value; objects and arrays are walked recursively and every placeholder
// is resolved independently, so no cross-field consistency is guaranteed.
// Request-scoped values are available through the request namespace, e.g.
// {{request.path.id}}, {{request.query.page}}, {{request.header.Accept}}
// and {{request.body.user.name}} (JSON path lookup).
//
// Resolution never fails a request: an unknown generator path or malformed
// call syntax produces a diagnostic string in place of the value.
package generator

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrorValue is the replacement emitted when an expression cannot be
// resolved. Template rendering must never abort the request.
const ErrorValue = "Error generating value"

// placeholderPattern matches {{expression}} markers inside string leaves.
var placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Generator resolves placeholder expressions against a registry of named
// fake-data functions. The zero value is not usable; use New or NewSeeded.
type Generator struct {
	rng       *rand.Rand
	registry  map[string]GenFunc
	overrides map[string]GenFunc
}

// GenFunc produces one fake value. Args come from the call-style suffix of
// the expression and may be nil.
type GenFunc func(g *Generator, args []interface{}) interface{}

// Context carries request-scoped data for the request.* namespace.
type Context struct {
	PathParams map[string]string
	Query      url.Values
	Headers    http.Header
	Body       string
}

// New creates a generator seeded from the wall clock.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded creates a generator with a fixed seed for deterministic output.
func NewSeeded(seed int64) *Generator {
	g := &Generator{
		rng:       rand.New(rand.NewSource(seed)),
		registry:  make(map[string]GenFunc),
		overrides: make(map[string]GenFunc),
	}
	registerBuiltins(g)
	registerFieldOverrides(g)
	return g
}

// Register installs or replaces a named generator function.
func (g *Generator) Register(path string, fn GenFunc) {
	g.registry[path] = fn
}

// Generate walks the template and replaces every placeholder with a fresh
// value. Non-template values pass through unchanged.
func (g *Generator) Generate(template interface{}) interface{} {
	return g.GenerateWithContext(template, nil)
}

// GenerateWithContext is Generate with request-scoped data available to
// the request.* namespace.
func (g *Generator) GenerateWithContext(template interface{}, ctx *Context) interface{} {
	return g.walk(template, "", ctx)
}

func (g *Generator) walk(node interface{}, fieldName string, ctx *Context) interface{} {
	switch v := node.(type) {
	case string:
		return g.resolveString(v, fieldName, ctx)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = g.walk(item, "", ctx)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			out[key] = g.walk(value, key, ctx)
		}
		return out
	default:
		return node
	}
}

// resolveString expands placeholders in a string leaf. When the whole leaf
// is a single placeholder the resolved value keeps its native type, so
// numeric and boolean generators survive JSON serialization; otherwise
// each match is stringified in place.
func (g *Generator) resolveString(s, fieldName string, ctx *Context) interface{} {
	matches := placeholderPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		expr := strings.TrimSpace(s[matches[0][2]:matches[0][3]])
		return g.resolveExpression(expr, fieldName, ctx)
	}

	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		return stringify(g.resolveExpression(expr, "", ctx))
	})
}

// resolveExpression dispatches one expression to the request context or
// the fake-data registry.
func (g *Generator) resolveExpression(expr, fieldName string, ctx *Context) interface{} {
	switch {
	case strings.HasPrefix(expr, "request."):
		return g.resolveRequest(strings.TrimPrefix(expr, "request."), ctx)
	case strings.HasPrefix(expr, "faker."):
		return g.resolveFaker(strings.TrimPrefix(expr, "faker."), fieldName)
	default:
		// Bare expressions default to the faker namespace.
		return g.resolveFaker(expr, fieldName)
	}
}

func (g *Generator) resolveFaker(expr, fieldName string) interface{} {
	if fieldName != "" {
		if fn, ok := g.overrides[fieldName]; ok {
			return fn(g, nil)
		}
	}

	path, args, err := parseCall(expr)
	if err != nil {
		return ErrorValue
	}

	fn, ok := g.registry[path]
	if !ok {
		return ErrorValue
	}
	return fn(g, args)
}

func (g *Generator) resolveRequest(expr string, ctx *Context) interface{} {
	if ctx == nil {
		return ""
	}

	parts := strings.SplitN(expr, ".", 2)
	source := parts[0]
	var key string
	if len(parts) > 1 {
		key = parts[1]
	}
	if key == "" {
		return ""
	}

	switch source {
	case "path":
		if ctx.PathParams != nil {
			return ctx.PathParams[key]
		}
	case "query":
		if ctx.Query != nil {
			return ctx.Query.Get(key)
		}
	case "header":
		if ctx.Headers != nil {
			return ctx.Headers.Get(key)
		}
	case "body":
		if ctx.Body != "" {
			result := gjson.Get(ctx.Body, key)
			if result.Exists() {
				return result.Value()
			}
		}
	}
	return ""
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// Trim trailing zeros the way JSON does
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", t), "0"), ".")
	default:
		return fmt.Sprintf("%v", t)
	}
}
