package python

import (
	"strings"

	"github.com/Sett11/dc-verifier-sub001/callgraph"
	"github.com/Sett11/dc-verifier-sub001/models"
)

// fastapiUsersRouter recognizes the fastapi-users router factories. One
// call like fastapi_users.get_auth_router(auth_backend) registers several
// endpoints that never appear as decorators anywhere in the project.
type fastapiUsersRouter struct{}

// routersByFactory maps each factory function to the endpoints it mounts.
// Schema parameter indexes follow the fastapi-users signatures:
// get_register_router(UserRead, UserCreate), get_users_router(UserRead,
// UserUpdate), get_verify_router(UserRead).
var routersByFactory = map[string][]callgraph.DynamicEndpoint{
	"get_register_router": {
		{Path: "/register", Method: models.MethodPost, ResponseSchemaParamIndex: 0, RequestSchemaParamIndex: 1},
	},
	"get_auth_router": {
		{Path: "/login", Method: models.MethodPost, RequestSchemaParamIndex: -1, ResponseSchemaParamIndex: -1},
		{Path: "/logout", Method: models.MethodPost, RequestSchemaParamIndex: -1, ResponseSchemaParamIndex: -1},
	},
	"get_reset_password_router": {
		{Path: "/forgot-password", Method: models.MethodPost, RequestSchemaParamIndex: -1, ResponseSchemaParamIndex: -1},
		{Path: "/reset-password", Method: models.MethodPost, RequestSchemaParamIndex: -1, ResponseSchemaParamIndex: -1},
	},
	"get_verify_router": {
		{Path: "/request-verify-token", Method: models.MethodPost, RequestSchemaParamIndex: -1, ResponseSchemaParamIndex: -1},
		{Path: "/verify", Method: models.MethodPost, RequestSchemaParamIndex: -1, ResponseSchemaParamIndex: 0},
	},
	"get_users_router": {
		{Path: "/me", Method: models.MethodGet, RequestSchemaParamIndex: -1, ResponseSchemaParamIndex: 0},
		{Path: "/me", Method: models.MethodPatch, RequestSchemaParamIndex: 1, ResponseSchemaParamIndex: 0},
		{Path: "/{id}", Method: models.MethodGet, RequestSchemaParamIndex: -1, ResponseSchemaParamIndex: 0},
		{Path: "/{id}", Method: models.MethodPatch, RequestSchemaParamIndex: 1, ResponseSchemaParamIndex: 0},
		{Path: "/{id}", Method: models.MethodDelete, RequestSchemaParamIndex: -1, ResponseSchemaParamIndex: -1},
	},
}

func (f *fastapiUsersRouter) ModuleName() string { return "fastapi_users" }

func (f *fastapiUsersRouter) CanHandle(call *callgraph.CallExpr) bool {
	_, ok := routersByFactory[lastSegment(call.Name)]
	return ok
}

func (f *fastapiUsersRouter) AnalyzeCall(call *callgraph.CallExpr, file string, fileSource []byte) ([]callgraph.DynamicEndpoint, error) {
	template := routersByFactory[lastSegment(call.Name)]
	endpoints := make([]callgraph.DynamicEndpoint, len(template))
	copy(endpoints, template)
	for idx := range endpoints {
		if i := endpoints[idx].RequestSchemaParamIndex; i >= 0 {
			endpoints[idx].RequestSchema = schemaArgument(call, i)
		}
		if i := endpoints[idx].ResponseSchemaParamIndex; i >= 0 {
			endpoints[idx].ResponseSchema = schemaArgument(call, i)
		}
	}
	return endpoints, nil
}

// schemaArgument returns the idx-th positional argument when it looks like
// a schema name (an exported identifier).
func schemaArgument(call *callgraph.CallExpr, idx int) string {
	value := strings.TrimSpace(call.Positional(idx))
	if value == "" {
		return ""
	}
	if i := strings.LastIndex(value, "."); i >= 0 {
		value = value[i+1:]
	}
	if value == "" || value[0] < 'A' || value[0] > 'Z' {
		return ""
	}
	return value
}

func lastSegment(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// ConfiguredEndpoint is one endpoint of a user-configured router generator.
type ConfiguredEndpoint struct {
	Path           string
	Method         string
	RequestSchema  string
	ResponseSchema string
}

// ConfiguredGenerator lets a project teach the analyzer about an in-house
// router factory through configuration instead of code.
type ConfiguredGenerator struct {
	Module    string
	Functions []string
	Endpoints []ConfiguredEndpoint
}

func (g *ConfiguredGenerator) ModuleName() string { return g.Module }

func (g *ConfiguredGenerator) CanHandle(call *callgraph.CallExpr) bool {
	name := lastSegment(call.Name)
	for _, fn := range g.Functions {
		if fn == name {
			return true
		}
	}
	return false
}

func (g *ConfiguredGenerator) AnalyzeCall(call *callgraph.CallExpr, file string, fileSource []byte) ([]callgraph.DynamicEndpoint, error) {
	endpoints := make([]callgraph.DynamicEndpoint, 0, len(g.Endpoints))
	for _, e := range g.Endpoints {
		method, ok := models.ParseHTTPMethod(e.Method)
		if !ok {
			method = models.MethodGet
		}
		endpoints = append(endpoints, callgraph.DynamicEndpoint{
			Path:                     e.Path,
			Method:                   method,
			RequestSchema:            e.RequestSchema,
			ResponseSchema:           e.ResponseSchema,
			RequestSchemaParamIndex:  -1,
			ResponseSchemaParamIndex: -1,
		})
	}
	return endpoints, nil
}

// materializeEndpoints turns synthesized endpoints into Route nodes. No
// single handler owns a generated route, so Handler stays absent unless a
// schema name pins one down later.
func (i *Inspector) materializeEndpoints(endpoints []callgraph.DynamicEndpoint, prefix string, location models.Location) {
	for _, endpoint := range endpoints {
		path := joinRoutePath(prefix, endpoint.Path)
		route := callgraph.RouteNode(path, endpoint.Method, callgraph.InvalidNode, location, callgraph.OriginBackend)
		if endpoint.RequestSchema != "" {
			if ref, ok := i.registry.LookupVariant(endpoint.RequestSchema); ok {
				route.RequestSchema = ref
			}
		}
		if endpoint.ResponseSchema != "" {
			if ref, ok := i.registry.LookupVariant(endpoint.ResponseSchema); ok {
				route.ResponseSchema = ref
			}
		}
		i.graph.AddNode(route)
	}
}
