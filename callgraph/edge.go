package callgraph

import "github.com/Sett11/dc-verifier-sub001/models"

// EdgeKind discriminates the CallEdge variants.
type EdgeKind string

const (
	EdgeImport EdgeKind = "import"
	EdgeCall   EdgeKind = "call"
	EdgeReturn EdgeKind = "return"
)

// ArgumentPair maps one callee parameter to the caller-side expression
// passed for it.
type ArgumentPair struct {
	Parameter string
	Value     string
}

// CallEdge is one edge of the call graph. Edges are append-only: once added
// they are never removed or rewritten. Parallel edges between the same node
// pair are allowed (repeated calls, import plus call).
type CallEdge struct {
	Kind EdgeKind
	From NodeID
	To   NodeID

	// Import
	ImportPath string
	File       string

	// Call
	ArgumentMapping []ArgumentPair
	Location        models.Location

	// Return
	ReturnValue string
}

// ImportEdge records that from imports to via importPath.
func ImportEdge(from, to NodeID, importPath, file string) *CallEdge {
	return &CallEdge{Kind: EdgeImport, From: from, To: to, ImportPath: importPath, File: file}
}

// CallsEdge records a call from caller to callee with its argument mapping.
func CallsEdge(caller, callee NodeID, args []ArgumentPair, location models.Location) *CallEdge {
	return &CallEdge{Kind: EdgeCall, From: caller, To: callee, ArgumentMapping: args, Location: location}
}

// ReturnEdge records that from returns value into to.
func ReturnEdge(from, to NodeID, returnValue string) *CallEdge {
	return &CallEdge{Kind: EdgeReturn, From: from, To: to, ReturnValue: returnValue}
}
