package python

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// eachNamedChild invokes fn on every named child of node.
func eachNamedChild(node *sitter.Node, fn func(child *sitter.Node)) {
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		fn(node.NamedChild(int(i)))
	}
}

// line converts a node's start point to a 1-based line number.
func line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// stripQuotes removes a surrounding string literal's quotes.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	return strings.Trim(s, "'\"")
}

// dottedName flattens an identifier/attribute expression ("app.post",
// "fastapi_users.get_auth_router") into its dotted text, descending through
// call expressions to the callee.
func dottedName(node *sitter.Node, src []byte) string {
	switch node.Type() {
	case "identifier":
		return node.Content(src)
	case "attribute":
		object := node.ChildByFieldName("object")
		attr := node.ChildByFieldName("attribute")
		if object == nil || attr == nil {
			return node.Content(src)
		}
		base := dottedName(object, src)
		if base == "" {
			return attr.Content(src)
		}
		return base + "." + attr.Content(src)
	case "call":
		if fn := node.ChildByFieldName("function"); fn != nil {
			return dottedName(fn, src)
		}
	}
	return ""
}

// firstNodeOfType finds the first descendant of node with the given type,
// node itself included.
func firstNodeOfType(node *sitter.Node, nodeType string) *sitter.Node {
	if node.Type() == nodeType {
		return node
	}
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		if found := firstNodeOfType(node.NamedChild(int(i)), nodeType); found != nil {
			return found
		}
	}
	return nil
}
