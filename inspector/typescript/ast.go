package typescript

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

// stripQuotes removes surrounding quotes and backticks.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	return strings.Trim(s, "'\"`")
}

// dottedName flattens an identifier/member expression ("axios.get",
// "this.http.post") into dotted text, descending through calls and await.
func dottedName(node *sitter.Node, src []byte) string {
	switch node.Type() {
	case "identifier", "property_identifier", "this":
		return node.Content(src)
	case "member_expression":
		object := node.ChildByFieldName("object")
		property := node.ChildByFieldName("property")
		if object == nil || property == nil {
			return node.Content(src)
		}
		base := dottedName(object, src)
		if base == "" {
			return property.Content(src)
		}
		return base + "." + property.Content(src)
	case "call_expression":
		if fn := node.ChildByFieldName("function"); fn != nil {
			return dottedName(fn, src)
		}
	case "await_expression":
		if node.NamedChildCount() > 0 {
			return dottedName(node.NamedChild(0), src)
		}
	}
	return ""
}

// hasToken reports whether node carries the given anonymous token ("?").
func hasToken(node *sitter.Node, token string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == token {
			return true
		}
	}
	return false
}

// annotationText returns the type text of a type_annotation node without
// its leading colon.
func annotationText(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	if node.NamedChildCount() > 0 {
		return strings.TrimSpace(node.NamedChild(0).Content(src))
	}
	return strings.TrimSpace(strings.TrimPrefix(node.Content(src), ":"))
}

// firstNodeOfType finds the first descendant with the given type, node
// itself included.
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
