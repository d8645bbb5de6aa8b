package python

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Sett11/dc-verifier-sub001/callgraph"
	"github.com/Sett11/dc-verifier-sub001/models"
)

// routerNames are variable names conventionally holding FastAPI app/router
// instances. A decorator like items_router.get("/") is recognized through
// this list plus the app./router. prefixes.
var routerNames = map[string]bool{
	"app":             true,
	"router":          true,
	"api":             true,
	"api_router":      true,
	"main_router":     true,
	"fastapi_router":  true,
	"app_router":      true,
	"web_router":      true,
	"r":               true,
	"rt":              true,
	"router_instance": true,
}

// isRouteDecorator reports whether a decorator name binds an HTTP route.
func isRouteDecorator(name string) bool {
	if strings.Contains(name, ".route") {
		return true
	}
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return false
	}
	last := parts[len(parts)-1]
	if _, ok := models.ParseHTTPMethod(last); !ok {
		return false
	}
	owner := parts[len(parts)-2]
	return routerNames[owner] || strings.HasSuffix(owner, "_router") || strings.HasSuffix(owner, "Router")
}

// decoratorMethod extracts the HTTP verb from a route decorator name,
// defaulting to GET.
func decoratorMethod(name string) models.HTTPMethod {
	parts := strings.Split(name, ".")
	if method, ok := models.ParseHTTPMethod(parts[len(parts)-1]); ok {
		return method
	}
	return models.MethodGet
}

// routerVar returns the owner variable of a route decorator
// ("items_router.get" -> "items_router").
func routerVar(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[:len(parts)-1], ".")
}

// processRouteDecorator materializes one Route node from a decorator fact.
// Duplicate (path, method) pairs are deliberately kept as separate nodes;
// they model conflicting registrations for the checker to surface.
func (i *Inspector) processRouteDecorator(dec *callgraph.Decorator, file string) {
	if !isRouteDecorator(dec.Name) {
		return
	}
	if dec.Target == "" {
		i.log.Debug("route decorator without target", zap.String("decorator", dec.Name), zap.String("file", file))
		return
	}

	handler, ok := i.findDeclaration(dec.Target, file)
	if !ok {
		i.log.Debug("route handler not found",
			zap.String("handler", dec.Target), zap.String("file", file))
		return
	}

	path := stripQuotes(dec.Argument(0))
	if path == "" {
		path = "/"
	}
	if prefix, ok := i.routerPrefixes[routerVar(dec.Name)]; ok {
		path = joinRoutePath(prefix, path)
	}

	location := dec.Location
	if location.File == "" {
		location.File = file
	}

	route := callgraph.RouteNode(path, decoratorMethod(dec.Name), handler, location, callgraph.OriginBackend)
	route.RequestSchema = i.requestSchemaFor(handler)
	route.ResponseSchema = i.responseSchemaFor(handler)
	routeID := i.graph.AddNode(route)
	i.graph.AddEdge(callgraph.CallsEdge(routeID, handler, nil, location))

	i.log.Debug("created route",
		zap.String("method", string(route.Method)),
		zap.String("path", path),
		zap.String("file", file))
}

// requestSchemaFor picks the handler's request-body schema: the first
// parameter carrying a composite schema reference. Path and query
// parameters are primitives and never carry one; unvalidated dict/Any
// bodies carry the missing-schema sentinel, which is exactly what the
// checker needs to see.
func (i *Inspector) requestSchemaFor(handler callgraph.NodeID) *models.SchemaReference {
	node := i.graph.NodeWeight(handler)
	if node == nil {
		return nil
	}
	for _, param := range node.Parameters {
		if param.Name == "self" {
			continue
		}
		if param.TypeInfo.SchemaRef != nil {
			return param.TypeInfo.SchemaRef
		}
	}
	return nil
}

// responseSchemaFor resolves the route's response schema from the handler's
// declared return type. The declaration is authoritative: a response_model
// decorator keyword never overrides it, and a handler without a return type
// yields no schema at all.
func (i *Inspector) responseSchemaFor(handler callgraph.NodeID) *models.SchemaReference {
	node := i.graph.NodeWeight(handler)
	if node == nil || node.ReturnType == nil {
		return nil
	}
	return node.ReturnType.SchemaRef
}

// joinRoutePath joins an include_router prefix with a route path.
func joinRoutePath(prefix, path string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return path
	}
	if path == "/" || path == "" {
		return prefix
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return prefix + path
}
