package typescript

import (
	"context"
	"errors"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.uber.org/zap"

	"github.com/Sett11/dc-verifier-sub001/callgraph"
	"github.com/Sett11/dc-verifier-sub001/inspector"
	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/schema"
)

// Inspector builds the frontend half of the call graph from TypeScript
// sources, plus backend routes for NestJS controllers. Plain .ts files use
// the TypeScript grammar, .tsx files the TSX grammar.
type Inspector struct {
	config *inspector.Config
	roots  []string
	log    *zap.Logger

	graph    *callgraph.Graph
	registry *schema.Registry

	files       []*fileState
	modules     map[string]callgraph.NodeID
	declsByFile map[string]map[string]callgraph.NodeID
	imports     map[string][]importBinding
	varTypes    map[string]map[string]string
	returns     map[callgraph.NodeID]string
	bodies      []declBody

	failures []error
}

type fileState struct {
	path string
	src  []byte
	tree *sitter.Tree
}

type declBody struct {
	id   callgraph.NodeID
	file *fileState
	body *sitter.Node
}

// New creates a TypeScript inspector over the given source roots.
func New(roots []string, config *inspector.Config) *Inspector {
	if config == nil {
		config = inspector.DefaultConfig()
	}
	return &Inspector{
		config:      config,
		roots:       roots,
		log:         config.Log(),
		graph:       callgraph.New(),
		registry:    schema.NewRegistry(),
		modules:     map[string]callgraph.NodeID{},
		declsByFile: map[string]map[string]callgraph.NodeID{},
		imports:     map[string][]importBinding{},
		varTypes:    map[string]map[string]string{},
		returns:     map[callgraph.NodeID]string{},
	}
}

// Registry exposes the schema registry populated during BuildGraph.
func (i *Inspector) Registry() *schema.Registry {
	return i.registry
}

// Failures returns the per-construct errors captured in lenient mode.
func (i *Inspector) Failures() []error {
	return i.failures
}

// BuildGraph discovers, parses and links every TypeScript file under the
// roots: schemas first, then declarations and controller routes, then
// imports and finally call edges with API call sites.
func (i *Inspector) BuildGraph(ctx context.Context) (*callgraph.Graph, error) {
	sources, err := inspector.DiscoverSources(ctx, i.roots, []string{".ts", ".tsx"}, i.config.SkipTests)
	if err != nil {
		return nil, err
	}

	tsParser := sitter.NewParser()
	tsParser.SetLanguage(ts.GetLanguage())
	tsxParser := sitter.NewParser()
	tsxParser.SetLanguage(tsx.GetLanguage())

	for _, source := range sources {
		parser := tsParser
		if strings.HasSuffix(source.Path, ".tsx") {
			parser = tsxParser
		}
		tree, err := parser.ParseCtx(ctx, nil, source.Source)
		if err != nil {
			// a broken file costs its own declarations, not the run
			i.log.Warn("failed to parse file",
				zap.String("file", source.Path), zap.Error(err))
			continue
		}
		i.files = append(i.files, &fileState{path: source.Path, src: source.Source, tree: tree})
	}

	for _, file := range i.files {
		i.registerSchemas(file)
	}
	for _, file := range i.files {
		i.collectDeclarations(file)
	}
	for _, file := range i.files {
		i.resolveImports(file)
	}
	for _, body := range i.bodies {
		i.walkBody(body.body, body.file, body.id, "", 0)
	}

	if i.config.StrictImports && len(i.failures) > 0 {
		return nil, errors.Join(i.failures...)
	}
	return i.graph, nil
}

// registerSchemas walks a file for interfaces, object type aliases and Zod
// object schemas; export wrappers are unwrapped first.
func (i *Inspector) registerSchemas(file *fileState) {
	i.varTypes[file.path] = map[string]string{}
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		switch node.Type() {
		case "interface_declaration":
			i.registerRef(interfaceSchemaRef(node, file.src, file.path), file)
			return
		case "type_alias_declaration":
			i.registerRef(typeAliasSchemaRef(node, file.src, file.path), file)
			return
		case "variable_declarator":
			i.registerRef(zodSchemaRef(node, file.src, file.path), file)
			if name := node.ChildByFieldName("name"); name != nil {
				if typeNode := node.ChildByFieldName("type"); typeNode != nil {
					i.varTypes[file.path][name.Content(file.src)] = annotationText(typeNode, file.src)
				}
			}
			return
		}
		eachNamedChild(node, walk)
	}
	walk(file.tree.RootNode())
}

func (i *Inspector) registerRef(ref *models.SchemaReference, file *fileState) {
	if ref == nil {
		return
	}
	if i.registry.Register(ref) {
		i.graph.AddNode(callgraph.SchemaNode(ref))
		i.log.Debug("registered schema",
			zap.String("name", ref.Name), zap.String("file", file.path))
	}
}

// collectDeclarations adds Module, Function, Class and Method nodes, and
// materializes controller routes as they are found.
func (i *Inspector) collectDeclarations(file *fileState) {
	moduleID := i.graph.AddNode(callgraph.ModuleNode(file.path))
	i.modules[file.path] = moduleID
	i.declsByFile[file.path] = map[string]callgraph.NodeID{}

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		switch node.Type() {
		case "function_declaration":
			i.addFunction(file, node)
			return
		case "variable_declarator":
			if value := node.ChildByFieldName("value"); value != nil &&
				(value.Type() == "arrow_function" || value.Type() == "function_expression" || value.Type() == "function") {
				i.addArrowFunction(file, node, value)
				return
			}
		case "class_declaration":
			i.addClass(file, node)
			return
		}
		eachNamedChild(node, walk)
	}
	walk(file.tree.RootNode())
}

func (i *Inspector) addFunction(file *fileState, node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	id := i.graph.AddNode(callgraph.FunctionNode(nameNode.Content(file.src), file.path, line(node),
		i.parameters(file, node), i.returnType(file, node)))
	i.declsByFile[file.path][nameNode.Content(file.src)] = id
	i.recordBody(file, node, id)
}

func (i *Inspector) addArrowFunction(file *fileState, declarator, fn *sitter.Node) {
	nameNode := declarator.ChildByFieldName("name")
	if nameNode == nil || nameNode.Type() != "identifier" {
		return
	}
	id := i.graph.AddNode(callgraph.FunctionNode(nameNode.Content(file.src), file.path, line(declarator),
		i.parameters(file, fn), i.returnType(file, fn)))
	i.declsByFile[file.path][nameNode.Content(file.src)] = id
	i.recordBody(file, fn, id)
}

func (i *Inspector) addClass(file *fileState, node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	body := node.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		return
	}
	name := nameNode.Content(file.src)
	class := callgraph.ClassNode(name, file.path)
	class.Line = line(node)
	classID := i.graph.AddNode(class)
	i.declsByFile[file.path][name] = classID

	basePath, isController := controllerPath(node, file.src)

	eachNamedChild(body, func(member *sitter.Node) {
		if member.Type() != "method_definition" {
			return
		}
		methodName := member.ChildByFieldName("name")
		if methodName == nil {
			return
		}
		method := callgraph.MethodNode(methodName.Content(file.src), classID,
			i.parameters(file, member), i.returnType(file, member))
		method.File = file.path
		method.Line = line(member)
		methodID := i.graph.AddNode(method)
		class.Methods = append(class.Methods, methodID)
		i.recordBody(file, member, methodID)

		if isController {
			i.addControllerRoute(file, member, methodID, basePath)
		}
	})
}

// addControllerRoute materializes one backend route for a decorated
// controller method: path from @Controller plus the verb decorator,
// request schema from the @Body parameter, response from the return type
// with Promise unwrapped.
func (i *Inspector) addControllerRoute(file *fileState, member *sitter.Node, methodID callgraph.NodeID, basePath string) {
	verb, sub, ok := methodRoute(member, file.src)
	if !ok {
		return
	}
	location := models.NewLocation(file.path, line(member))
	route := callgraph.RouteNode(combineNestPath(basePath, sub), verb, methodID, location, callgraph.OriginBackend)

	if annotation := bodyParameterAnnotation(member, file.src); annotation != "" {
		info := resolveAnnotation(annotation, i.registry, location)
		route.RequestSchema = info.SchemaRef
	}
	if node := i.graph.NodeWeight(methodID); node != nil && node.ReturnType != nil {
		route.ResponseSchema = node.ReturnType.SchemaRef
	}

	routeID := i.graph.AddNode(route)
	i.graph.AddEdge(callgraph.CallsEdge(routeID, methodID, nil, location))
	i.log.Debug("created route",
		zap.String("method", string(verb)),
		zap.String("path", route.RoutePath),
		zap.String("file", file.path))
}

func (i *Inspector) recordBody(file *fileState, def *sitter.Node, id callgraph.NodeID) {
	body := def.ChildByFieldName("body")
	if body == nil {
		return
	}
	i.bodies = append(i.bodies, declBody{id: id, file: file, body: body})
	if ret := firstNodeOfType(body, "return_statement"); ret != nil && ret.NamedChildCount() > 0 {
		i.returns[id] = strings.TrimSpace(ret.NamedChild(0).Content(file.src))
	}
}

func (i *Inspector) parameters(file *fileState, def *sitter.Node) []callgraph.Parameter {
	list := def.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}
	var params []callgraph.Parameter
	eachNamedChild(list, func(node *sitter.Node) {
		if node.Type() != "required_parameter" && node.Type() != "optional_parameter" {
			return
		}
		pattern := node.ChildByFieldName("pattern")
		if pattern == nil || pattern.Type() != "identifier" {
			return
		}
		param := callgraph.Parameter{
			Name:     pattern.Content(file.src),
			Optional: node.Type() == "optional_parameter",
			TypeInfo: models.AnyType(),
		}
		if typeNode := node.ChildByFieldName("type"); typeNode != nil {
			param.TypeInfo = resolveAnnotation(annotationText(typeNode, file.src), i.registry,
				models.NewLocation(file.path, line(node)))
		}
		if value := node.ChildByFieldName("value"); value != nil {
			param.Optional = true
			param.DefaultValue = strings.TrimSpace(value.Content(file.src))
		}
		params = append(params, param)
	})
	return params
}

func (i *Inspector) returnType(file *fileState, def *sitter.Node) *models.TypeInfo {
	typeNode := def.ChildByFieldName("return_type")
	if typeNode == nil {
		return nil
	}
	info := resolveAnnotation(annotationText(typeNode, file.src), i.registry,
		models.NewLocation(file.path, line(def)))
	return &info
}

// resolveImports records import bindings and module-level Import edges.
func (i *Inspector) resolveImports(file *fileState) {
	eachNamedChild(file.tree.RootNode(), func(stmt *sitter.Node) {
		if stmt.Type() != "import_statement" {
			return
		}
		sourceNode := stmt.ChildByFieldName("source")
		if sourceNode == nil {
			return
		}
		spec := stripQuotes(sourceNode.Content(file.src))
		names := importedNames(stmt, file.src)
		if len(names) == 0 {
			names = []string{"*"}
		}
		resolved, err := resolveImport(spec, file.path)
		if err != nil {
			var external *models.ExternalDependencyError
			if errors.As(err, &external) {
				i.log.Debug("external dependency",
					zap.String("module", external.Module), zap.String("file", file.path))
				if i.config.StrictImports {
					i.failures = append(i.failures, err)
				}
			} else {
				i.log.Warn("import resolution failed",
					zap.String("import", spec), zap.String("file", file.path), zap.Error(err))
				i.failures = append(i.failures, err)
			}
		}
		for _, name := range names {
			i.imports[file.path] = append(i.imports[file.path], importBinding{
				name: name,
				spec: spec,
				file: resolved,
			})
		}
		if resolved != "" {
			if target, ok := i.modules[resolved]; ok {
				i.graph.AddEdge(callgraph.ImportEdge(i.modules[file.path], target, spec, file.path))
			}
		}
	})
}

func importedNames(stmt *sitter.Node, src []byte) []string {
	var names []string
	if clause := firstNodeOfType(stmt, "import_clause"); clause != nil {
		eachNamedChild(clause, func(child *sitter.Node) {
			switch child.Type() {
			case "identifier":
				names = append(names, child.Content(src))
			case "named_imports":
				eachNamedChild(child, func(specifier *sitter.Node) {
					if specifier.Type() != "import_specifier" {
						return
					}
					if alias := specifier.ChildByFieldName("alias"); alias != nil {
						names = append(names, alias.Content(src))
						return
					}
					if name := specifier.ChildByFieldName("name"); name != nil {
						names = append(names, name.Content(src))
					}
				})
			case "namespace_import":
				if child.NamedChildCount() > 0 {
					names = append(names, child.NamedChild(0).Content(src))
				}
			}
		})
	}
	return names
}

// walkBody traverses a declaration body adding Call edges and frontend
// routes for API call sites. resultType carries the annotation of the
// variable an expression is assigned into, so an untyped axios.get call
// can still pick up its schema from `const item: ItemRead = ...`.
func (i *Inspector) walkBody(node *sitter.Node, file *fileState, caller callgraph.NodeID, resultType string, depth int) {
	next := depth
	switch node.Type() {
	case "variable_declarator":
		annotation := ""
		if typeNode := node.ChildByFieldName("type"); typeNode != nil {
			annotation = annotationText(typeNode, file.src)
		}
		if value := node.ChildByFieldName("value"); value != nil {
			i.walkBody(value, file, caller, annotation, depth)
		}
		return
	case "call_expression":
		if i.config.MaxDepth > 0 && depth >= i.config.MaxDepth {
			return
		}
		next = depth + 1
		if call, ok := recognizeAPICall(node, file.src); ok {
			if call.generic == "" {
				call.generic = resultType
			}
			i.materializeAPICall(call, caller, file.path)
		} else {
			i.linkCall(node, file, caller)
		}
	}
	for idx := uint32(0); idx < node.NamedChildCount(); idx++ {
		i.walkBody(node.NamedChild(int(idx)), file, caller, resultType, next)
	}
}

func (i *Inspector) linkCall(node *sitter.Node, file *fileState, caller callgraph.NodeID) {
	callee := dottedName(node, file.src)
	if callee == "" {
		return
	}
	target, ok := i.findDeclaration(callee, file.path)
	if !ok || target == caller {
		return
	}
	location := models.NewLocation(file.path, line(node))
	i.graph.AddEdge(callgraph.CallsEdge(caller, target, nil, location))
	if value, ok := i.returns[target]; ok {
		i.graph.AddEdge(callgraph.ReturnEdge(target, caller, value))
	}
}

// requestSchemaFor resolves a call site's payload expression to a schema:
// `payload as ItemCreate` casts, typed local variables, the enclosing
// declaration's parameters, then a bare name lookup; inline object
// literals get the missing-schema sentinel.
func (i *Inspector) requestSchemaFor(call apiCall, caller callgraph.NodeID, file string) *models.SchemaReference {
	expr := strings.TrimSpace(call.request)
	if expr == "" {
		return nil
	}
	location := models.NewLocation(file, call.location.Line)

	if idx := strings.LastIndex(expr, " as "); idx >= 0 {
		info := resolveAnnotation(expr[idx+4:], i.registry, location)
		if info.SchemaRef != nil {
			return info.SchemaRef
		}
	}
	if strings.HasPrefix(expr, "{") {
		info := missingSchemaType("object", location)
		return info.SchemaRef
	}
	if annotation, ok := i.varTypes[file][expr]; ok {
		info := resolveAnnotation(annotation, i.registry, location)
		if info.SchemaRef != nil {
			return info.SchemaRef
		}
	}
	if node := i.graph.NodeWeight(caller); node != nil {
		for _, param := range node.Parameters {
			if param.Name == expr && param.TypeInfo.SchemaRef != nil {
				return param.TypeInfo.SchemaRef
			}
		}
	}
	if ref, ok := i.registry.LookupVariant(expr); ok {
		return ref
	}
	info := missingSchemaType("any", location)
	return info.SchemaRef
}

// responseSchemaFor resolves the expected response type of a call site
// from its explicit or assignment-derived type argument.
func (i *Inspector) responseSchemaFor(call apiCall, location models.Location) *models.SchemaReference {
	if call.generic == "" {
		return nil
	}
	info := resolveAnnotation(call.generic, i.registry, location)
	return info.SchemaRef
}

// findDeclaration resolves a possibly dotted name: local declarations,
// then import bindings, then a global lookup.
func (i *Inspector) findDeclaration(name, file string) (callgraph.NodeID, bool) {
	simple := name
	if idx := strings.LastIndex(simple, "."); idx >= 0 {
		simple = simple[idx+1:]
	}
	if id, ok := i.declsByFile[file][simple]; ok {
		return id, true
	}
	head := strings.SplitN(name, ".", 2)[0]
	for _, binding := range i.imports[file] {
		if binding.file == "" {
			continue
		}
		if binding.name == simple || binding.name == head || binding.name == "*" {
			if id, ok := i.declsByFile[binding.file][simple]; ok {
				return id, true
			}
		}
	}
	if id, ok := i.graph.FindNodeByName(simple); ok {
		return id, true
	}
	return callgraph.InvalidNode, false
}
