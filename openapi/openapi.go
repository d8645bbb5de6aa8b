// Package openapi reads OpenAPI documents and feeds their schemas and
// endpoints into the call graph as backend route facts. A document stands
// in for backend source the analyzer cannot see, or cross-checks the
// routes it extracted.
package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/Sett11/dc-verifier-sub001/callgraph"
	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/schema"
)

// componentPrefix is the reference prefix for named component schemas.
const componentPrefix = "#/components/schemas/"

// Endpoint is one operation of a parsed document. Request and response
// name component schemas; either may be empty when the operation declares
// no body.
type Endpoint struct {
	Path           string
	Method         models.HTTPMethod
	OperationID    string
	RequestSchema  string
	ResponseSchema string
}

// Document is a parsed OpenAPI document reduced to the parts contract
// checking consumes: component schemas and per-operation bodies.
type Document struct {
	Version   string
	Schemas   map[string]map[string]any
	Endpoints []Endpoint

	source string
}

// Load reads and parses the document at path. Both YAML and JSON bodies
// are accepted.
func Load(ctx context.Context, path string) (*Document, error) {
	data, err := afs.New().DownloadWithURL(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI document %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document %s: %w", path, err)
	}
	doc.source = path
	return doc, nil
}

// Parse decodes an OpenAPI document from raw bytes. JSON is a subset of
// the YAML the decoder accepts, so one decode path covers both formats.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	version, _ := raw["openapi"].(string)
	if version == "" {
		version, _ = raw["swagger"].(string)
	}
	if version == "" {
		return nil, fmt.Errorf("document has neither an openapi nor a swagger version field")
	}

	doc := &Document{Version: version, Schemas: map[string]map[string]any{}}
	if components, ok := raw["components"].(map[string]any); ok {
		if schemas, ok := components["schemas"].(map[string]any); ok {
			for name, value := range schemas {
				if body, ok := value.(map[string]any); ok {
					doc.Schemas[name] = body
				}
			}
		}
	}
	doc.Endpoints = extractEndpoints(raw)
	return doc, nil
}

// operationMethods is the fixed scan order over a path item; non-method
// keys (parameters, summary) are never operations.
var operationMethods = []models.HTTPMethod{
	models.MethodGet, models.MethodPost, models.MethodPut, models.MethodPatch,
	models.MethodDelete, models.MethodOptions, models.MethodHead,
}

func extractEndpoints(raw map[string]any) []Endpoint {
	paths, ok := raw["paths"].(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	var endpoints []Endpoint
	for _, path := range names {
		item, ok := paths[path].(map[string]any)
		if !ok {
			continue
		}
		for _, method := range operationMethods {
			operation, ok := item[strings.ToLower(string(method))].(map[string]any)
			if !ok {
				continue
			}
			endpoint := Endpoint{Path: path, Method: method}
			endpoint.OperationID, _ = operation["operationId"].(string)
			if body, ok := operation["requestBody"].(map[string]any); ok {
				endpoint.RequestSchema = contentSchemaName(body)
			}
			endpoint.ResponseSchema = responseSchemaName(operation)
			endpoints = append(endpoints, endpoint)
		}
	}
	return endpoints
}

// responseSchemaName picks the success response body: 200 first, then
// 201, then the lowest remaining 2xx code.
func responseSchemaName(operation map[string]any) string {
	responses, ok := operation["responses"].(map[string]any)
	if !ok {
		return ""
	}
	codes := make([]string, 0, len(responses))
	for code := range responses {
		if strings.HasPrefix(code, "2") {
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(a, b int) bool {
		rank := func(code string) string {
			switch code {
			case "200":
				return "0"
			case "201":
				return "1"
			}
			return "2" + code
		}
		return rank(codes[a]) < rank(codes[b])
	})
	for _, code := range codes {
		response, ok := responses[code].(map[string]any)
		if !ok {
			continue
		}
		if name := contentSchemaName(response); name != "" {
			return name
		}
	}
	return ""
}

// contentSchemaName digs through content -> media type -> schema and
// names the schema, following $ref into components or falling back to an
// inline schema's title. Media types are tried in sorted order.
func contentSchemaName(body map[string]any) string {
	content, ok := body["content"].(map[string]any)
	if !ok {
		return ""
	}
	medias := make([]string, 0, len(content))
	for media := range content {
		medias = append(medias, media)
	}
	sort.Strings(medias)
	for _, media := range medias {
		entry, ok := content[media].(map[string]any)
		if !ok {
			continue
		}
		value, ok := entry["schema"].(map[string]any)
		if !ok {
			continue
		}
		if ref, ok := value["$ref"].(string); ok {
			if strings.HasPrefix(ref, componentPrefix) {
				return strings.TrimPrefix(ref, componentPrefix)
			}
			continue
		}
		if title, ok := value["title"].(string); ok && title != "" {
			return title
		}
	}
	return ""
}

// Apply materializes the document into graph as backend facts: one Schema
// node per component and one Route node per operation, with request and
// response references resolved against the components. Routes carry no
// handler. Registered references land in registry when one is given, so
// later route materialization can resolve document schemas by name.
func (d *Document) Apply(graph *callgraph.Graph, registry *schema.Registry) {
	location := models.Location{File: d.source}

	refs := map[string]*models.SchemaReference{}
	names := make([]string, 0, len(d.Schemas))
	for name := range d.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ref := models.NewSchemaReference(name, models.SchemaOpenAPI, location)
		if encoded, err := json.Marshal(d.Schemas[name]); err == nil {
			ref.Metadata[schema.JSONSchemaKey] = string(encoded)
		}
		refs[name] = ref
		graph.AddNode(callgraph.SchemaNode(ref))
		if registry != nil {
			registry.Register(ref)
		}
	}

	resolve := func(name string) *models.SchemaReference {
		if name == "" {
			return nil
		}
		if ref, ok := refs[name]; ok {
			return ref
		}
		// referenced but undeclared; a bare reference still names the
		// contract side
		return models.NewSchemaReference(name, models.SchemaOpenAPI, location)
	}

	for _, endpoint := range d.Endpoints {
		route := callgraph.RouteNode(endpoint.Path, endpoint.Method,
			callgraph.InvalidNode, location, callgraph.OriginBackend)
		route.RequestSchema = resolve(endpoint.RequestSchema)
		route.ResponseSchema = resolve(endpoint.ResponseSchema)
		graph.AddNode(route)
	}
}
