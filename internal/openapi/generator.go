// Package openapi generates an OpenAPI 3 document describing the active
// route set, for the admin documentation endpoint.
package openapi

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mockforge/mockforge/internal/models"
)

var paramSegment = regexp.MustCompile(`:([A-Za-z0-9_]+)`)

// BuildSpec converts route definitions into an OpenAPI document. Paths
// use OpenAPI {param} syntax; persisted POST/PUT routes with a schema get
// a request body schema derived from it.
func BuildSpec(defs []models.RouteDefinition, title string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       title,
			Version:     "1.0.0",
			Description: "Dynamically generated from the active mock route set",
		},
		Paths: openapi3.NewPaths(),
	}

	for i := range defs {
		def := &defs[i]
		oasPath := paramSegment.ReplaceAllString(def.Path, "{$1}")

		item := doc.Paths.Find(oasPath)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(oasPath, item)
		}

		op := openapi3.NewOperation()
		op.Summary = summarize(def)
		op.Responses = openapi3.NewResponses()

		for _, name := range paramNames(def.Path) {
			op.AddParameter(openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema()))
		}

		method := strings.ToUpper(def.Method)
		if def.Schema != nil && (method == "POST" || method == "PUT" || method == "PATCH") {
			body := openapi3.NewRequestBody().
				WithRequired(true).
				WithContent(openapi3.NewContentWithJSONSchema(schemaFromDescriptors(def.Schema)))
			op.RequestBody = &openapi3.RequestBodyRef{Value: body}
		}

		response := openapi3.NewResponse().WithDescription("Mock response")
		if def.Response != nil {
			response = response.WithContent(openapi3.NewContentWithJSONSchema(openapi3.NewObjectSchema()))
			if media := response.Content.Get("application/json"); media != nil {
				media.Example = def.Response
			}
		}
		op.Responses.Set(strconv.Itoa(responseStatus(def)), &openapi3.ResponseRef{Value: response})

		if sim := def.Error; sim != nil && sim.Enabled {
			errResponse := openapi3.NewResponse().WithDescription("Simulated error: " + sim.Message)
			op.Responses.Set(strconv.Itoa(sim.Status), &openapi3.ResponseRef{Value: errResponse})
		}

		item.SetOperation(method, op)
	}

	return doc
}

func responseStatus(def *models.RouteDefinition) int {
	if def.StatusCode != 0 {
		return def.StatusCode
	}
	switch strings.ToUpper(def.Method) {
	case "POST":
		if def.Persist {
			return 201
		}
	case "DELETE":
		if def.Persist {
			return 204
		}
	}
	return 200
}

func summarize(def *models.RouteDefinition) string {
	kind := "Mock"
	if def.Persist {
		kind = "Persisted mock"
	}
	return kind + " endpoint for " + def.Path
}

func paramNames(path string) []string {
	matches := paramSegment.FindAllStringSubmatch(path, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// schemaFromDescriptors maps the route's field-type schema to an OpenAPI
// object schema. Unknown and "auto" descriptors become untyped fields.
func schemaFromDescriptors(sch map[string]interface{}) *openapi3.Schema {
	object := openapi3.NewObjectSchema()
	for field, descriptor := range sch {
		switch d := descriptor.(type) {
		case string:
			object.Properties[field] = descriptorSchema(d).NewRef()
			if d != "auto" {
				object.Required = append(object.Required, field)
			}
		case map[string]interface{}:
			if props, ok := d["properties"].(map[string]interface{}); ok {
				object.Properties[field] = schemaFromDescriptors(props).NewRef()
				object.Required = append(object.Required, field)
			}
		}
	}
	return object
}

func descriptorSchema(descriptor string) *openapi3.Schema {
	switch descriptor {
	case "number":
		return openapi3.NewFloat64Schema()
	case "boolean":
		return openapi3.NewBoolSchema()
	case "array":
		return openapi3.NewArraySchema()
	case "object":
		return openapi3.NewObjectSchema()
	default:
		return openapi3.NewStringSchema()
	}
}
