package callgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sett11/dc-verifier-sub001/callgraph"
	"github.com/Sett11/dc-verifier-sub001/models"
)

func TestGraph_BackReferencesStayValid(t *testing.T) {
	g := callgraph.New()
	class := callgraph.ClassNode("ItemService", "service.py")
	classID := g.AddNode(class)
	methodID := g.AddNode(callgraph.MethodNode("create", classID, nil, nil))
	class.Methods = append(class.Methods, methodID)

	handlerID := g.AddNode(callgraph.FunctionNode("create_item", "main.py", 10, nil, nil))
	routeID := g.AddNode(callgraph.RouteNode("/items/", models.MethodPost, handlerID,
		models.NewLocation("main.py", 9), callgraph.OriginBackend))

	for _, id := range []callgraph.NodeID{classID, methodID, handlerID, routeID} {
		assert.NotNil(t, g.NodeWeight(id))
	}
	assert.NotNil(t, g.NodeWeight(g.NodeWeight(routeID).Handler))
	assert.NotNil(t, g.NodeWeight(g.NodeWeight(methodID).Class))
	for _, id := range g.NodeWeight(classID).Methods {
		assert.NotNil(t, g.NodeWeight(id))
	}
}

func TestGraph_FindNodeByNameSkipsRoutesAndModules(t *testing.T) {
	g := callgraph.New()
	g.AddNode(callgraph.ModuleNode("items"))
	g.AddNode(callgraph.RouteNode("/items", models.MethodGet, callgraph.InvalidNode,
		models.Location{}, callgraph.OriginBackend))
	fnID := g.AddNode(callgraph.FunctionNode("items", "main.py", 1, nil, nil))

	got, ok := g.FindNodeByName("items")
	assert.True(t, ok)
	assert.Equal(t, fnID, got)
	assert.Equal(t, callgraph.NodeFunction, g.NodeWeight(got).Kind)

	_, ok = g.FindNodeByName("missing")
	assert.False(t, ok)
}

func TestGraph_NeighborsOncePerEdge(t *testing.T) {
	g := callgraph.New()
	a := g.AddNode(callgraph.FunctionNode("a", "f.py", 1, nil, nil))
	b := g.AddNode(callgraph.FunctionNode("b", "f.py", 5, nil, nil))
	g.AddEdge(callgraph.CallsEdge(a, b, nil, models.Location{}))
	g.AddEdge(callgraph.CallsEdge(a, b, nil, models.Location{}))

	assert.Equal(t, []callgraph.NodeID{b, b}, g.OutgoingNodes(a))
	assert.Equal(t, []callgraph.NodeID{a, a}, g.IncomingNodes(b))
	assert.Empty(t, g.OutgoingNodes(b))
}

func TestGraph_StaleLookupsDegrade(t *testing.T) {
	g := callgraph.New()
	assert.Nil(t, g.NodeWeight(callgraph.NodeID(42)))
	assert.Nil(t, g.NodeWeight(callgraph.InvalidNode))
	assert.Empty(t, g.OutgoingNodes(callgraph.NodeID(42)))
}

func TestGraph_MergeReindexesBackReferences(t *testing.T) {
	left := callgraph.New()
	left.AddNode(callgraph.ModuleNode("left.py"))
	left.AddNode(callgraph.FunctionNode("pad", "left.py", 1, nil, nil))

	right := callgraph.New()
	handlerID := right.AddNode(callgraph.FunctionNode("get_item", "main.py", 3, nil, nil))
	routeID := right.AddNode(callgraph.RouteNode("/items/{id}", models.MethodGet, handlerID,
		models.NewLocation("main.py", 2), callgraph.OriginBackend))
	right.AddEdge(callgraph.CallsEdge(routeID, handlerID, nil, models.Location{}))

	before := left.NodeCount()
	left.Merge(right)
	assert.Equal(t, before+right.NodeCount(), left.NodeCount())

	routes := left.FindNodes(func(n *callgraph.CallNode) bool { return n.Kind == callgraph.NodeRoute })
	if assert.Len(t, routes, 1) {
		route := left.NodeWeight(routes[0])
		handler := left.NodeWeight(route.Handler)
		if assert.NotNil(t, handler) {
			assert.Equal(t, "get_item", handler.Name)
		}
	}
}
