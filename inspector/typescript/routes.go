package typescript

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/Sett11/dc-verifier-sub001/callgraph"
	"github.com/Sett11/dc-verifier-sub001/models"
)

// nestVerbs maps NestJS method decorators to HTTP methods. @All counts as
// GET for matching purposes.
var nestVerbs = map[string]models.HTTPMethod{
	"Get":     models.MethodGet,
	"Post":    models.MethodPost,
	"Put":     models.MethodPut,
	"Patch":   models.MethodPatch,
	"Delete":  models.MethodDelete,
	"Options": models.MethodOptions,
	"Head":    models.MethodHead,
	"All":     models.MethodGet,
}

// apiClients are receiver names whose verb calls count as HTTP requests
// ("api.get", "http.post"). fetch and $fetch are matched by name alone.
var apiClients = map[string]bool{
	"axios":      true,
	"api":        true,
	"http":       true,
	"client":     true,
	"apiClient":  true,
	"httpClient": true,
	"request":    true,
}

// controllerPath extracts the base path from a @Controller decorator on a
// class declaration; ok is false when the class is not a controller.
func controllerPath(class *sitter.Node, src []byte) (string, bool) {
	found := false
	path := ""
	scopes := []*sitter.Node{class}
	// decorators on an exported class may attach to the export statement
	if parent := class.Parent(); parent != nil && parent.Type() == "export_statement" {
		scopes = append(scopes, parent)
	}
	scan := func(child *sitter.Node) {
		if child.Type() != "decorator" {
			return
		}
		expr := child.NamedChild(0)
		if expr == nil {
			return
		}
		name := dottedName(expr, src)
		if name != "Controller" {
			return
		}
		found = true
		if expr.Type() == "call_expression" {
			if args := expr.ChildByFieldName("arguments"); args != nil && args.NamedChildCount() > 0 {
				path = stripQuotes(args.NamedChild(0).Content(src))
			}
		}
	}
	for _, scope := range scopes {
		eachNamedChild(scope, scan)
	}
	return path, found
}

// methodRoute extracts the verb decorator from a controller method; ok is
// false when the method carries none.
func methodRoute(method *sitter.Node, src []byte) (models.HTTPMethod, string, bool) {
	verb := models.MethodGet
	path := ""
	found := false
	eachNamedChild(method, func(child *sitter.Node) {
		if child.Type() != "decorator" || found {
			return
		}
		expr := child.NamedChild(0)
		if expr == nil {
			return
		}
		name := dottedName(expr, src)
		v, ok := nestVerbs[name]
		if !ok {
			return
		}
		found = true
		verb = v
		if expr.Type() == "call_expression" {
			if args := expr.ChildByFieldName("arguments"); args != nil && args.NamedChildCount() > 0 {
				path = stripQuotes(args.NamedChild(0).Content(src))
			}
		}
	})
	return verb, path, found
}

// bodyParameterAnnotation finds the @Body() parameter of a controller
// method and returns its type annotation text.
func bodyParameterAnnotation(method *sitter.Node, src []byte) string {
	params := method.ChildByFieldName("parameters")
	if params == nil {
		return ""
	}
	annotation := ""
	eachNamedChild(params, func(param *sitter.Node) {
		if annotation != "" {
			return
		}
		hasBody := false
		eachNamedChild(param, func(child *sitter.Node) {
			if child.Type() == "decorator" && strings.HasPrefix(strings.TrimPrefix(child.Content(src), "@"), "Body") {
				hasBody = true
			}
		})
		if !hasBody {
			return
		}
		if typeNode := param.ChildByFieldName("type"); typeNode != nil {
			annotation = annotationText(typeNode, src)
		}
	})
	return annotation
}

// combineNestPath joins a controller base path with a method path the way
// NestJS mounts them.
func combineNestPath(base, sub string) string {
	base = strings.Trim(base, "/")
	sub = strings.Trim(sub, "/")
	switch {
	case base == "" && sub == "":
		return "/"
	case base == "":
		return "/" + sub
	case sub == "":
		return "/" + base
	}
	return "/" + base + "/" + sub
}

// apiCall is one recognized HTTP request call site.
type apiCall struct {
	path     string
	method   models.HTTPMethod
	request  string // payload expression text, "" when none
	generic  string // explicit type argument (axios.get<ItemRead>)
	location models.Location
}

// recognizeAPICall inspects a call expression and returns the HTTP request
// it performs, if any. Handles fetch(url, opts), $fetch, and verb methods
// on known client objects.
func recognizeAPICall(node *sitter.Node, src []byte) (apiCall, bool) {
	name := dottedName(node, src)
	if name == "" {
		return apiCall{}, false
	}
	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return apiCall{}, false
	}
	call := apiCall{
		method:   models.MethodGet,
		location: models.Location{Line: line(node)},
		generic:  typeArgument(node, src),
	}

	switch {
	case name == "fetch" || name == "$fetch" || strings.HasSuffix(name, ".fetch"):
		call.path = callPath(args.NamedChild(0), src)
		if args.NamedChildCount() > 1 {
			applyFetchOptions(args.NamedChild(1), src, &call)
		}
	default:
		parts := strings.Split(name, ".")
		if len(parts) < 2 {
			return apiCall{}, false
		}
		verb, ok := models.ParseHTTPMethod(parts[len(parts)-1])
		if !ok {
			return apiCall{}, false
		}
		owner := parts[len(parts)-2]
		if !apiClients[owner] && !strings.HasSuffix(owner, "Api") && !strings.HasSuffix(owner, "Client") {
			return apiCall{}, false
		}
		call.method = verb
		call.path = callPath(args.NamedChild(0), src)
		if args.NamedChildCount() > 1 && verb != models.MethodGet && verb != models.MethodDelete {
			call.request = strings.TrimSpace(args.NamedChild(1).Content(src))
		}
	}

	if call.path == "" || !strings.Contains(call.path, "/") {
		return apiCall{}, false
	}
	return call, true
}

// callPath reads a URL argument: string literals verbatim, template
// strings with their substitutions kept as ${...} segments for the path
// normalizer to wildcard.
func callPath(node *sitter.Node, src []byte) string {
	switch node.Type() {
	case "string", "template_string":
		return stripQuotes(node.Content(src))
	}
	return ""
}

// applyFetchOptions reads the fetch init object for method and body.
func applyFetchOptions(node *sitter.Node, src []byte, call *apiCall) {
	if node.Type() != "object" {
		return
	}
	eachNamedChild(node, func(pair *sitter.Node) {
		if pair.Type() != "pair" {
			return
		}
		key := pair.ChildByFieldName("key")
		value := pair.ChildByFieldName("value")
		if key == nil || value == nil {
			return
		}
		switch stripQuotes(key.Content(src)) {
		case "method":
			if method, ok := models.ParseHTTPMethod(stripQuotes(value.Content(src))); ok {
				call.method = method
			}
		case "body":
			call.request = unwrapStringify(value, src)
		}
	})
}

// unwrapStringify reduces JSON.stringify(payload) to payload.
func unwrapStringify(node *sitter.Node, src []byte) string {
	if node.Type() == "call_expression" && dottedName(node, src) == "JSON.stringify" {
		if args := node.ChildByFieldName("arguments"); args != nil && args.NamedChildCount() > 0 {
			return strings.TrimSpace(args.NamedChild(0).Content(src))
		}
	}
	return strings.TrimSpace(node.Content(src))
}

// typeArgument returns the first explicit type argument of a call, "" when
// absent.
func typeArgument(node *sitter.Node, src []byte) string {
	typeArgs := node.ChildByFieldName("type_arguments")
	if typeArgs == nil || typeArgs.NamedChildCount() == 0 {
		return ""
	}
	return strings.TrimSpace(typeArgs.NamedChild(0).Content(src))
}

// materializeAPICall adds a frontend Route node for the call site and a
// Call edge from the enclosing declaration.
func (i *Inspector) materializeAPICall(call apiCall, caller callgraph.NodeID, file string) {
	location := models.NewLocation(file, call.location.Line)
	route := callgraph.RouteNode(trimOrigin(call.path), call.method, caller, location, callgraph.OriginFrontend)
	route.RequestSchema = i.requestSchemaFor(call, caller, file)
	route.ResponseSchema = i.responseSchemaFor(call, location)
	routeID := i.graph.AddNode(route)
	if caller != callgraph.InvalidNode {
		i.graph.AddEdge(callgraph.CallsEdge(caller, routeID, nil, location))
	}
	i.log.Debug("frontend call site",
		zap.String("method", string(call.method)),
		zap.String("path", route.RoutePath),
		zap.String("file", file))
}

// trimOrigin drops a scheme-and-host prefix from absolute URLs so only the
// path takes part in matching.
func trimOrigin(path string) string {
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(path, scheme) {
			rest := path[len(scheme):]
			if idx := strings.Index(rest, "/"); idx >= 0 {
				return rest[idx:]
			}
			return "/"
		}
	}
	return path
}
