package analyzer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Sett11/dc-verifier-sub001/callgraph"
	"github.com/Sett11/dc-verifier-sub001/models"
)

// Assembler pairs frontend call sites with backend routes over the merged
// call graph and materializes data chains with their checked contracts.
type Assembler struct {
	graph    *callgraph.Graph
	checker  *Checker
	maxDepth int
	log      *zap.Logger

	chainSeq int
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithMaxDepth bounds the breadth-first search for a call path between two
// matched routes; 0 means unbounded.
func WithMaxDepth(depth int) Option {
	return func(a *Assembler) { a.maxDepth = depth }
}

// WithChecker replaces the default contract checker.
func WithChecker(checker *Checker) Option {
	return func(a *Assembler) { a.checker = checker }
}

// WithLogger sets the assembler's logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *Assembler) { a.log = log }
}

// NewAssembler creates an assembler over a built graph.
func NewAssembler(graph *callgraph.Graph, options ...Option) *Assembler {
	a := &Assembler{
		graph:   graph,
		checker: NewChecker(DefaultPolicy()),
		log:     zap.NewNop(),
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// link is an under-construction chain step; known records whether the
// schema was determined or is the sentinel.
type link struct {
	linkType models.LinkType
	location models.Location
	node     callgraph.NodeID
	schema   *models.SchemaReference
	known    bool
}

// AssembleChains walks every route in the graph. Matched frontend/backend
// pairs become Full chains, one per direction when response schemas allow;
// unmatched routes become same-origin internal chains. Every route ends up
// in exactly one forward chain.
func (a *Assembler) AssembleChains() []*models.DataChain {
	routeIDs := a.graph.FindNodes(func(node *callgraph.CallNode) bool {
		return node.Kind == callgraph.NodeRoute
	})

	var frontend, backend []callgraph.NodeID
	for _, id := range routeIDs {
		if a.graph.NodeWeight(id).Origin == callgraph.OriginFrontend {
			frontend = append(frontend, id)
		} else {
			backend = append(backend, id)
		}
	}

	matched := map[callgraph.NodeID]bool{}
	var chains []*models.DataChain
	for _, frontID := range frontend {
		front := a.graph.NodeWeight(frontID)
		backID, ok := a.matchBackend(front, backend)
		if !ok {
			chains = append(chains, a.internalChain(frontID, models.ChainFrontendInternal))
			continue
		}
		matched[backID] = true
		chains = append(chains, a.fullChain(frontID, backID))
		if reverse := a.reverseChain(frontID, backID); reverse != nil {
			chains = append(chains, reverse)
		}
	}
	for _, backID := range backend {
		if !matched[backID] {
			chains = append(chains, a.internalChain(backID, models.ChainBackendInternal))
		}
	}

	a.log.Info("assembled chains",
		zap.Int("routes", len(routeIDs)), zap.Int("chains", len(chains)))
	return chains
}

// matchBackend finds a backend route with the same normalized path and
// method; first match in node-insertion order wins.
func (a *Assembler) matchBackend(front *callgraph.CallNode, backend []callgraph.NodeID) (callgraph.NodeID, bool) {
	path := NormalizePath(front.RoutePath)
	for _, id := range backend {
		back := a.graph.NodeWeight(id)
		if back.Method == front.Method && NormalizePath(back.RoutePath) == path {
			return id, true
		}
	}
	return callgraph.InvalidNode, false
}

// fullChain builds the forward frontend-to-backend chain: the frontend
// call site as source, any call-path nodes between the two routes as
// transformers, the backend route as sink. When no call path exists within
// the depth bound the two are linked directly; path and method identity is
// correlation enough.
func (a *Assembler) fullChain(frontID, backID callgraph.NodeID) *models.DataChain {
	front := a.graph.NodeWeight(frontID)
	back := a.graph.NodeWeight(backID)

	links := []link{a.routeLink(frontID, models.LinkSource, front.RequestSchema)}
	for _, mid := range a.callPath(frontID, backID) {
		links = append(links, a.nodeLink(mid, models.LinkTransformer))
	}
	links = append(links, a.routeLink(backID, models.LinkSink, a.backendRequestSchema(back)))

	chain := a.buildChain(
		fmt.Sprintf("%s %s", front.Method, NormalizePath(front.RoutePath)),
		models.FrontendToBackend, models.ChainFull, links)
	a.ensureBoundaryContract(chain, links)
	return chain
}

// reverseChain builds the backend-to-frontend response chain when both
// sides declare a response schema.
func (a *Assembler) reverseChain(frontID, backID callgraph.NodeID) *models.DataChain {
	front := a.graph.NodeWeight(frontID)
	back := a.graph.NodeWeight(backID)
	if front.ResponseSchema == nil || back.ResponseSchema == nil {
		return nil
	}
	links := []link{
		a.routeLink(backID, models.LinkSource, back.ResponseSchema),
		a.routeLink(frontID, models.LinkSink, front.ResponseSchema),
	}
	return a.buildChain(
		fmt.Sprintf("%s %s response", front.Method, NormalizePath(front.RoutePath)),
		models.BackendToFrontend, models.ChainFull, links)
}

// internalChain builds a same-origin chain for an unmatched route: the
// route as source, its handler as sink when it has one.
func (a *Assembler) internalChain(routeID callgraph.NodeID, chainType models.ChainType) *models.DataChain {
	route := a.graph.NodeWeight(routeID)
	schema := route.RequestSchema
	if chainType == models.ChainBackendInternal {
		schema = a.backendRequestSchema(route)
	}
	links := []link{a.routeLink(routeID, models.LinkSource, schema)}
	if route.Handler != callgraph.InvalidNode {
		links = append(links, a.nodeLink(route.Handler, models.LinkSink))
	} else {
		// no owning handler; the route is both ends and nothing to compare
		links = append(links, a.routeLink(routeID, models.LinkSink, schema))
	}
	direction := models.FrontendToBackend
	return a.buildChain(
		fmt.Sprintf("%s %s", route.Method, NormalizePath(route.RoutePath)),
		direction, chainType, links)
}

// buildChain assigns ids, runs contracts over consecutive junctions where
// both schemas are determined, and seals the chain.
func (a *Assembler) buildChain(name string, direction models.ChainDirection, chainType models.ChainType, links []link) *models.DataChain {
	a.chainSeq++
	chain := &models.DataChain{
		ID:        fmt.Sprintf("chain-%d", a.chainSeq),
		Name:      name,
		Direction: direction,
		ChainType: chainType,
	}
	for idx, l := range links {
		chain.Links = append(chain.Links, models.Link{
			ID:        fmt.Sprintf("%s-link-%d", chain.ID, idx+1),
			LinkType:  l.linkType,
			Location:  l.location,
			NodeID:    int(l.node),
			SchemaRef: l.schema,
		})
	}
	for idx := 1; idx < len(links); idx++ {
		from, to := links[idx-1], links[idx]
		if !from.known && !to.known {
			continue
		}
		contract := a.checker.CompareSchemas(from.schema, to.schema)
		contract.FromLinkID = chain.Links[idx-1].ID
		contract.ToLinkID = chain.Links[idx].ID
		chain.Contracts = append(chain.Contracts, *contract)
	}
	return chain
}

// ensureBoundaryContract adds the direct source-to-sink contract when
// transformer links kept the two boundary schemas from meeting.
func (a *Assembler) ensureBoundaryContract(chain *models.DataChain, links []link) {
	if len(links) < 3 {
		return
	}
	first, last := links[0], links[len(links)-1]
	if !first.known && !last.known {
		return
	}
	contract := a.checker.CompareSchemas(first.schema, last.schema)
	contract.FromLinkID = chain.Links[0].ID
	contract.ToLinkID = chain.Links[len(chain.Links)-1].ID
	chain.Contracts = append(chain.Contracts, *contract)
}

// callPath runs a breadth-first shortest-path search over Call and Return
// edges from one route node to another, bounded by maxDepth. The returned
// slice holds only the intermediate nodes.
func (a *Assembler) callPath(from, to callgraph.NodeID) []callgraph.NodeID {
	type step struct {
		node  callgraph.NodeID
		depth int
	}
	parent := map[callgraph.NodeID]callgraph.NodeID{from: callgraph.InvalidNode}
	queue := []step{{node: from}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.node == to {
			var path []callgraph.NodeID
			for node := parent[to]; node != callgraph.InvalidNode && node != from; node = parent[node] {
				path = append([]callgraph.NodeID{node}, path...)
			}
			return path
		}
		if a.maxDepth > 0 && current.depth >= a.maxDepth {
			continue
		}
		for _, edge := range a.graph.OutgoingEdges(current.node) {
			if edge.Kind != callgraph.EdgeCall && edge.Kind != callgraph.EdgeReturn {
				continue
			}
			if _, seen := parent[edge.To]; seen {
				continue
			}
			parent[edge.To] = current.node
			queue = append(queue, step{node: edge.To, depth: current.depth + 1})
		}
	}
	return nil
}

// routeLink builds a link at a route node; a nil schema degrades to the
// any sentinel.
func (a *Assembler) routeLink(id callgraph.NodeID, linkType models.LinkType, schema *models.SchemaReference) link {
	route := a.graph.NodeWeight(id)
	l := link{
		linkType: linkType,
		location: route.Location,
		node:     id,
		schema:   schema,
		known:    schema != nil,
	}
	if l.schema == nil {
		l.schema = anySchema(route.Location)
	}
	return l
}

// nodeLink builds a link at a function or method node, taking its return
// schema first, then the first composite parameter, then the sentinel.
func (a *Assembler) nodeLink(id callgraph.NodeID, linkType models.LinkType) link {
	node := a.graph.NodeWeight(id)
	location := models.NewLocation(node.File, node.Line)
	l := link{linkType: linkType, location: location, node: id}
	switch {
	case node.ReturnType != nil && node.ReturnType.SchemaRef != nil:
		l.schema = node.ReturnType.SchemaRef
		l.known = true
	default:
		for _, param := range node.Parameters {
			if param.TypeInfo.SchemaRef != nil {
				l.schema = param.TypeInfo.SchemaRef
				l.known = true
				break
			}
		}
	}
	if l.schema == nil {
		l.schema = anySchema(location)
	}
	return l
}

// backendRequestSchema prefers the route's own request schema, then the
// handler's first composite parameter.
func (a *Assembler) backendRequestSchema(route *callgraph.CallNode) *models.SchemaReference {
	if route.RequestSchema != nil {
		return route.RequestSchema
	}
	if route.Handler == callgraph.InvalidNode {
		return nil
	}
	handler := a.graph.NodeWeight(route.Handler)
	if handler == nil {
		return nil
	}
	for _, param := range handler.Parameters {
		if param.TypeInfo.SchemaRef != nil {
			return param.TypeInfo.SchemaRef
		}
	}
	return nil
}

// anySchema is the sentinel reference for a link whose schema could not be
// determined.
func anySchema(location models.Location) *models.SchemaReference {
	return models.NewSchemaReference("Any", models.SchemaJSONSchema, location)
}
