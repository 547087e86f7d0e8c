package api

import "github.com/mattjoyce/rings/internal/auth"

type route struct {
	path    string
	summary string
	scope   string
	content string
	params  []map[string]any
}

var atParam = map[string]any{
	"name":        "at",
	"in":          "query",
	"required":    false,
	"description": "Render the frame for this RFC3339 instant instead of the latest tick.",
	"schema":      map[string]any{"type": "string", "format": "date-time"},
}

// buildOpenAPIDoc returns an OpenAPI 3.1 document for the served routes.
func buildOpenAPIDoc(withMetrics bool) map[string]any {
	routes := []route{
		{path: "/healthz", summary: "Service health", content: "application/json"},
		{path: "/frame", summary: "Latest frame", scope: auth.ScopeFrameRead, content: "application/json", params: []map[string]any{atParam}},
		{path: "/frame.svg", summary: "Latest frame as SVG", scope: auth.ScopeFrameRead, content: "image/svg+xml", params: []map[string]any{atParam}},
		{path: "/rings/{ring}", summary: "One ring of the latest frame", scope: auth.ScopeFrameRead, content: "application/json", params: []map[string]any{
			{
				"name":     "ring",
				"in":       "path",
				"required": true,
				"schema":   map[string]any{"type": "string", "enum": []string{"day", "week", "month", "year"}},
			},
			atParam,
		}},
		{path: "/events", summary: "Driver event stream", scope: auth.ScopeEventsRead, content: "text/event-stream", params: []map[string]any{
			{"name": "types", "in": "query", "required": false, "schema": map[string]any{"type": "string"}},
		}},
	}
	if withMetrics {
		routes = append(routes, route{path: "/metrics", summary: "Prometheus metrics", scope: auth.ScopeMetricsRead, content: "text/plain"})
	}

	paths := map[string]any{}
	for _, rt := range routes {
		op := map[string]any{
			"summary": rt.summary,
			"responses": map[string]any{
				"200": map[string]any{
					"description": "OK",
					"content":     map[string]any{rt.content: map[string]any{}},
				},
			},
		}
		if len(rt.params) > 0 {
			op["parameters"] = rt.params
		}
		if rt.scope != "" {
			op["security"] = []any{map[string]any{"BearerAuth": []string{rt.scope}}}
			responses := op["responses"].(map[string]any)
			responses["401"] = map[string]any{"description": "Missing or invalid token"}
			responses["403"] = map[string]any{"description": "Insufficient scope"}
		}
		paths[rt.path] = map[string]any{"get": op}
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "Rings",
			"version": "1.0",
		},
		"paths": paths,
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
	}
}
