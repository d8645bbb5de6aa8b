package callgraph

import (
	"github.com/Sett11/dc-verifier-sub001/models"
)

// NodeID is a dense index into one graph's node arena. IDs are stable for
// the lifetime of the graph; the graph owns all nodes.
type NodeID int

// InvalidNode marks an absent back-reference, e.g. a dynamically generated
// route that no single handler function owns.
const InvalidNode NodeID = -1

// NodeKind discriminates the CallNode variants.
type NodeKind string

const (
	NodeModule   NodeKind = "module"
	NodeFunction NodeKind = "function"
	NodeClass    NodeKind = "class"
	NodeMethod   NodeKind = "method"
	NodeRoute    NodeKind = "route"
	NodeSchema   NodeKind = "schema"
)

// RouteOrigin records which side of the stack materialized a route.
type RouteOrigin string

const (
	OriginFrontend RouteOrigin = "frontend"
	OriginBackend  RouteOrigin = "backend"
)

// Parameter is a declared function or method parameter.
type Parameter struct {
	Name         string
	TypeInfo     models.TypeInfo
	Optional     bool
	DefaultValue string
}

// CallNode is one node of the call graph: a closed variant set over
// modules, functions, classes, methods, routes and schemas. The populated
// fields depend on Kind; a node never changes kind after creation, though
// later passes may fill in previously absent optional fields (a route's
// schemas, a class's method list).
type CallNode struct {
	Kind NodeKind

	// Module
	Path string

	// Function, Class, Method
	Name       string
	File       string
	Line       int
	Parameters []Parameter
	ReturnType *models.TypeInfo

	// Class
	Methods []NodeID

	// Method
	Class NodeID

	// Route
	RoutePath      string
	Method         models.HTTPMethod
	Handler        NodeID
	Location       models.Location
	RequestSchema  *models.SchemaReference
	ResponseSchema *models.SchemaReference
	Origin         RouteOrigin

	// Schema
	Schema *models.SchemaReference
}

// ModuleNode creates a node for one source file.
func ModuleNode(path string) *CallNode {
	return &CallNode{Kind: NodeModule, Path: path}
}

// FunctionNode creates a node for a top-level function.
func FunctionNode(name, file string, line int, params []Parameter, returnType *models.TypeInfo) *CallNode {
	return &CallNode{
		Kind:       NodeFunction,
		Name:       name,
		File:       file,
		Line:       line,
		Parameters: params,
		ReturnType: returnType,
	}
}

// ClassNode creates a node for a class declaration; method ids are appended
// as the class body is walked.
func ClassNode(name, file string) *CallNode {
	return &CallNode{Kind: NodeClass, Name: name, File: file}
}

// MethodNode creates a node for a method owned by class.
func MethodNode(name string, class NodeID, params []Parameter, returnType *models.TypeInfo) *CallNode {
	return &CallNode{
		Kind:       NodeMethod,
		Name:       name,
		Class:      class,
		Parameters: params,
		ReturnType: returnType,
	}
}

// RouteNode creates a node for one HTTP endpoint bound to handler. Pass
// InvalidNode when no single function owns the endpoint.
func RouteNode(path string, method models.HTTPMethod, handler NodeID, location models.Location, origin RouteOrigin) *CallNode {
	return &CallNode{
		Kind:      NodeRoute,
		RoutePath: path,
		Method:    method,
		Handler:   handler,
		Location:  location,
		Origin:    origin,
	}
}

// SchemaNode creates a node for a named schema declaration.
func SchemaNode(schema *models.SchemaReference) *CallNode {
	return &CallNode{Kind: NodeSchema, Schema: schema}
}

// DeclaredName returns the name for Function/Class/Method nodes and false
// for every other kind; routes and modules are unnamed for name lookup.
func (n *CallNode) DeclaredName() (string, bool) {
	switch n.Kind {
	case NodeFunction, NodeClass, NodeMethod:
		return n.Name, true
	}
	return "", false
}
