package callgraph

// Graph is a directed multigraph over CallNode/CallEdge. Nodes live in a
// dense arena addressed by NodeID; cross-references between nodes
// (Route.Handler, Method.Class, Class.Methods) are plain indices into the
// same arena, never pointers. The graph only grows: there is no node or
// edge removal.
type Graph struct {
	nodes []*CallNode
	edges []*CallEdge

	outgoing [][]int // node -> edge indices where node is the origin
	incoming [][]int // node -> edge indices where node is the target
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{}
}

// AddNode appends node to the arena and returns its id.
func (g *Graph) AddNode(node *CallNode) NodeID {
	g.nodes = append(g.nodes, node)
	g.outgoing = append(g.outgoing, nil)
	g.incoming = append(g.incoming, nil)
	return NodeID(len(g.nodes) - 1)
}

// AddEdge appends edge to the graph. Edges referencing ids outside the
// arena are silently dropped; a dangling index is a bug in the builder, not
// a runtime condition the graph models.
func (g *Graph) AddEdge(edge *CallEdge) {
	if !g.contains(edge.From) || !g.contains(edge.To) {
		return
	}
	g.edges = append(g.edges, edge)
	idx := len(g.edges) - 1
	g.outgoing[edge.From] = append(g.outgoing[edge.From], idx)
	g.incoming[edge.To] = append(g.incoming[edge.To], idx)
}

func (g *Graph) contains(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// NodeCount returns the number of nodes in the arena.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// NodeWeight returns the node stored under id, nil for an out-of-range id.
func (g *Graph) NodeWeight(id NodeID) *CallNode {
	if !g.contains(id) {
		return nil
	}
	return g.nodes[id]
}

// FindNodes returns the ids of all nodes matching predicate, in insertion
// order.
func (g *Graph) FindNodes(predicate func(*CallNode) bool) []NodeID {
	var found []NodeID
	for i, node := range g.nodes {
		if predicate(node) {
			found = append(found, NodeID(i))
		}
	}
	return found
}

// FindNodeByName returns the first Function, Class or Method node declared
// under name. Route and Module nodes are unnamed for this lookup and are
// skipped even when they share the name.
func (g *Graph) FindNodeByName(name string) (NodeID, bool) {
	for i, node := range g.nodes {
		if declared, ok := node.DeclaredName(); ok && declared == name {
			return NodeID(i), true
		}
	}
	return InvalidNode, false
}

// OutgoingNodes returns the targets of every edge leaving id, once per
// edge. Unknown ids yield nil.
func (g *Graph) OutgoingNodes(id NodeID) []NodeID {
	if !g.contains(id) {
		return nil
	}
	neighbors := make([]NodeID, 0, len(g.outgoing[id]))
	for _, edgeIdx := range g.outgoing[id] {
		neighbors = append(neighbors, g.edges[edgeIdx].To)
	}
	return neighbors
}

// IncomingNodes returns the origins of every edge entering id, once per
// edge.
func (g *Graph) IncomingNodes(id NodeID) []NodeID {
	if !g.contains(id) {
		return nil
	}
	neighbors := make([]NodeID, 0, len(g.incoming[id]))
	for _, edgeIdx := range g.incoming[id] {
		neighbors = append(neighbors, g.edges[edgeIdx].From)
	}
	return neighbors
}

// OutgoingEdges returns the edges leaving id.
func (g *Graph) OutgoingEdges(id NodeID) []*CallEdge {
	if !g.contains(id) {
		return nil
	}
	edges := make([]*CallEdge, 0, len(g.outgoing[id]))
	for _, edgeIdx := range g.outgoing[id] {
		edges = append(edges, g.edges[edgeIdx])
	}
	return edges
}

// Merge appends every node and edge of other into g, reindexing the ids
// other's nodes carry. Independent per-file builders can populate private
// graphs and fold them into one through a single owner.
func (g *Graph) Merge(other *Graph) {
	offset := NodeID(len(g.nodes))
	for _, node := range other.nodes {
		shifted := *node
		if shifted.Kind == NodeMethod {
			shifted.Class += offset
		}
		if shifted.Kind == NodeRoute && shifted.Handler != InvalidNode {
			shifted.Handler += offset
		}
		if len(node.Methods) > 0 {
			shifted.Methods = make([]NodeID, len(node.Methods))
			for i, m := range node.Methods {
				shifted.Methods[i] = m + offset
			}
		}
		g.AddNode(&shifted)
	}
	for _, edge := range other.edges {
		shifted := *edge
		shifted.From += offset
		shifted.To += offset
		g.AddEdge(&shifted)
	}
}
