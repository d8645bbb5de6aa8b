package callgraph

import "github.com/Sett11/dc-verifier-sub001/models"

// DiscoveredRoute is a route fact extracted outside static analysis, e.g.
// by introspecting a running application. It bypasses decorator inference
// entirely.
type DiscoveredRoute struct {
	Path    string
	Method  models.HTTPMethod
	Handler string
	File    string
	Line    int
}

// RouteDiscoverer supplies pre-extracted route facts for frameworks whose
// registration is invisible to static analysis.
type RouteDiscoverer interface {
	DiscoverRoutes() ([]DiscoveredRoute, error)
}

// MergeDiscoveredRoutes materializes Route nodes for externally discovered
// routes. Handlers are resolved by name against the existing graph; a route
// whose handler is unknown still gets a node with an absent handler.
func MergeDiscoveredRoutes(graph *Graph, routes []DiscoveredRoute, origin RouteOrigin) {
	for _, route := range routes {
		handler := InvalidNode
		if route.Handler != "" {
			if id, ok := graph.FindNodeByName(route.Handler); ok {
				handler = id
			}
		}
		location := models.Location{File: route.File, Line: route.Line}
		routeID := graph.AddNode(RouteNode(route.Path, route.Method, handler, location, origin))
		if handler != InvalidNode {
			graph.AddEdge(CallsEdge(routeID, handler, nil, location))
		}
	}
}
