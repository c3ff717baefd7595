package routes

import "github.com/mockforge/mockforge/internal/models"

// SampleRoutes is the built-in route set used when no routes file exists.
// It also seeds the initial routes.json.
func SampleRoutes() []models.RouteDefinition {
	return []models.RouteDefinition{
		{
			Path:   "/api/users",
			Method: "GET",
			Response: map[string]interface{}{
				"users": []interface{}{
					map[string]interface{}{
						"id":    "{{faker.string.uuid}}",
						"name":  "{{faker.person.fullName}}",
						"email": "{{faker.internet.email}}",
						"role":  `{{faker.helpers.arrayElement(["admin", "user", "editor"])}}`,
					},
				},
			},
			Persist:    true,
			StatusCode: 200,
		},
		{
			Path:   "/api/products",
			Method: "GET",
			Response: map[string]interface{}{
				"products": []interface{}{
					map[string]interface{}{
						"id":          "{{faker.string.uuid}}",
						"name":        "{{faker.commerce.productName}}",
						"price":       "{{faker.commerce.price}}",
						"description": "{{faker.commerce.productDescription}}",
					},
				},
			},
			Persist:    true,
			StatusCode: 200,
		},
		{
			Path:   "/api/blog-posts",
			Method: "GET",
			Response: map[string]interface{}{
				"blog-posts": []interface{}{
					map[string]interface{}{
						"id":        "{{faker.string.uuid}}",
						"title":     "{{faker.lorem.sentence}}",
						"content":   "{{faker.lorem.paragraphs}}",
						"author":    "{{faker.person.fullName}}",
						"createdAt": "{{faker.date.past}}",
					},
				},
			},
			Persist:    true,
			StatusCode: 200,
		},
	}
}
