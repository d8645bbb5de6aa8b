package python

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"go.uber.org/zap"

	"github.com/Sett11/dc-verifier-sub001/callgraph"
	"github.com/Sett11/dc-verifier-sub001/inspector"
	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/schema"
)

// Inspector builds the backend half of the call graph from Python sources.
/// Construction is multi-pass: schemas first, then declarations, then
// routes and edges, so declaration order across files never matters.
type Inspector struct {
	config      *inspector.Config
	roots       []string
	projectRoot string
	log         *zap.Logger

	graph      *callgraph.Graph
	registry   *schema.Registry
	generators *callgraph.GeneratorRegistry

	files       []*fileState
	modules     map[string]callgraph.NodeID
	declsByFile map[string]map[string]callgraph.NodeID
	imports     map[string][]importBinding
	returns     map[callgraph.NodeID]string
	bodies      []declBody

	// include_router prefixes keyed by the router variable they mount
	routerPrefixes   map[string]string
	pendingEndpoints map[string]pendingRouter

	failures []error
}

// fileState keeps one parsed file alive across passes.
type fileState struct {
	path       string
	src        []byte
	tree       *sitter.Tree
	decorators []*callgraph.Decorator
}

// declBody links a declaration node to its body for the edge pass.
type declBody struct {
	id   callgraph.NodeID
	file *fileState
	body *sitter.Node
}

// pendingRouter holds generated endpoints waiting for an include_router
// call to supply their mount prefix.
type pendingRouter struct {
	endpoints []callgraph.DynamicEndpoint
	location  models.Location
}

// New creates a Python inspector over the given source roots. The default
// generator registry understands fastapi-users; more generators can be
// added through RegisterGenerator before BuildGraph runs.
func New(roots []string, config *inspector.Config) *Inspector {
	if config == nil {
		config = inspector.DefaultConfig()
	}
	projectRoot := "."
	if len(roots) > 0 {
		projectRoot = roots[0]
	}
	i := &Inspector{
		config:           config,
		roots:            roots,
		projectRoot:      projectRoot,
		log:              config.Log(),
		graph:            callgraph.New(),
		registry:         schema.NewRegistry(),
		generators:       callgraph.NewGeneratorRegistry(),
		modules:          map[string]callgraph.NodeID{},
		declsByFile:      map[string]map[string]callgraph.NodeID{},
		imports:          map[string][]importBinding{},
		returns:          map[callgraph.NodeID]string{},
		routerPrefixes:   map[string]string{},
		pendingEndpoints: map[string]pendingRouter{},
	}
	i.generators.Register(&fastapiUsersRouter{})
	return i
}

// RegisterGenerator adds a router generator ahead of graph construction.
// Registration order is match order.
func (i *Inspector) RegisterGenerator(generator callgraph.RouterGenerator) {
	i.generators.Register(generator)
}

// Registry exposes the schema registry populated during BuildGraph.
func (i *Inspector) Registry() *schema.Registry {
	return i.registry
}

// Failures returns the per-construct errors captured in lenient mode.
func (i *Inspector) Failures() []error {
	return i.failures
}

// BuildGraph discovers, parses and links every Python file under the
// roots. In lenient mode unresolved imports and generator failures are
// captured and analysis continues; strict mode fails on the first batch.
func (i *Inspector) BuildGraph(ctx context.Context) (*callgraph.Graph, error) {
	sources, err := inspector.DiscoverSources(ctx, i.roots, []string{".py"}, i.config.SkipTests)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	for _, source := range sources {
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
	for _, file := range i.files {
		i.scanModuleCalls(file)
	}
	i.flushPendingRouters()
	for _, file := range i.files {
		for _, dec := range file.decorators {
			i.processRouteDecorator(dec, file.path)
		}
	}
	for _, body := range i.bodies {
		i.linkCalls(body)
	}

	if i.config.StrictImports && len(i.failures) > 0 {
		return nil, errors.Join(i.failures...)
	}
	return i.graph, nil
}

// registerSchemas adds a Schema node for every Pydantic or ORM model in
// the file; first registration of a name wins globally.
func (i *Inspector) registerSchemas(file *fileState) {
	eachNamedChild(file.tree.RootNode(), func(stmt *sitter.Node) {
		class := stmt
		if stmt.Type() == "decorated_definition" {
			if def := stmt.ChildByFieldName("definition"); def != nil {
				class = def
			}
		}
		if class.Type() != "class_definition" {
			return
		}
		ref := classSchemaRef(class, file.src, file.path)
		if ref == nil {
			return
		}
		if i.registry.Register(ref) {
			i.graph.AddNode(callgraph.SchemaNode(ref))
			i.log.Debug("registered schema",
				zap.String("name", ref.Name), zap.String("file", file.path))
		}
	})
}

// collectDeclarations adds a Module node for the file plus Function, Class
// and Method nodes for its top-level declarations, and records decorator
// facts for the route pass.
func (i *Inspector) collectDeclarations(file *fileState) {
	moduleID := i.graph.AddNode(callgraph.ModuleNode(file.path))
	i.modules[file.path] = moduleID
	i.declsByFile[file.path] = map[string]callgraph.NodeID{}

	eachNamedChild(file.tree.RootNode(), func(stmt *sitter.Node) {
		i.collectStatement(file, stmt)
	})
}

func (i *Inspector) collectStatement(file *fileState, stmt *sitter.Node) {
	switch stmt.Type() {
	case "decorated_definition":
		def := stmt.ChildByFieldName("definition")
		if def == nil {
			return
		}
		i.collectStatement(file, def)
		for _, dec := range i.decoratorFacts(file, stmt, def, "") {
			file.decorators = append(file.decorators, dec)
		}
	case "function_definition":
		i.addFunction(file, stmt)
	case "class_definition":
		i.addClass(file, stmt)
	}
}

func (i *Inspector) addFunction(file *fileState, node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(file.src)
	params := i.parameters(file, node)
	returnType := i.returnType(file, node)
	id := i.graph.AddNode(callgraph.FunctionNode(name, file.path, line(node), params, returnType))
	i.declsByFile[file.path][name] = id
	i.recordBody(file, node, id)
}

func (i *Inspector) addClass(file *fileState, node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(file.src)
	class := callgraph.ClassNode(name, file.path)
	class.Line = line(node)
	classID := i.graph.AddNode(class)
	i.declsByFile[file.path][name] = classID

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	eachNamedChild(body, func(member *sitter.Node) {
		def := member
		var decorated *sitter.Node
		if member.Type() == "decorated_definition" {
			decorated = member
			def = member.ChildByFieldName("definition")
			if def == nil {
				return
			}
		}
		if def.Type() != "function_definition" {
			return
		}
		methodName := def.ChildByFieldName("name")
		if methodName == nil {
			return
		}
		method := callgraph.MethodNode(methodName.Content(file.src), classID,
			i.parameters(file, def), i.returnType(file, def))
		method.File = file.path
		method.Line = line(def)
		methodID := i.graph.AddNode(method)
		class.Methods = append(class.Methods, methodID)
		i.recordBody(file, def, methodID)
		if decorated != nil {
			for _, dec := range i.decoratorFacts(file, decorated, def, name) {
				file.decorators = append(file.decorators, dec)
			}
		}
	})
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

// parameters reads the declaration's parameter list with annotations and
// defaults resolved against the schema registry.
func (i *Inspector) parameters(file *fileState, def *sitter.Node) []callgraph.Parameter {
	list := def.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}
	var params []callgraph.Parameter
	eachNamedChild(list, func(node *sitter.Node) {
		var param callgraph.Parameter
		switch node.Type() {
		case "identifier":
			param.Name = node.Content(file.src)
			param.TypeInfo = models.AnyType()
		case "typed_parameter":
			ident := firstNodeOfType(node, "identifier")
			typeNode := node.ChildByFieldName("type")
			if ident == nil || typeNode == nil {
				return
			}
			param.Name = ident.Content(file.src)
			param.TypeInfo = resolveAnnotation(typeNode.Content(file.src), i.registry,
				models.NewLocation(file.path, line(node)))
		case "default_parameter", "typed_default_parameter":
			nameNode := node.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			param.Name = nameNode.Content(file.src)
			param.Optional = true
			if value := node.ChildByFieldName("value"); value != nil {
				param.DefaultValue = strings.TrimSpace(value.Content(file.src))
			}
			if typeNode := node.ChildByFieldName("type"); typeNode != nil {
				param.TypeInfo = resolveAnnotation(typeNode.Content(file.src), i.registry,
					models.NewLocation(file.path, line(node)))
			} else {
				param.TypeInfo = models.AnyType()
			}
		default:
			return
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
	info := resolveAnnotation(typeNode.Content(file.src), i.registry,
		models.NewLocation(file.path, line(def)))
	return &info
}

// decoratorFacts reads every decorator on a decorated_definition into
// Decorator values bound to the inner declaration.
func (i *Inspector) decoratorFacts(file *fileState, decorated, def *sitter.Node, class string) []*callgraph.Decorator {
	targetName := ""
	if nameNode := def.ChildByFieldName("name"); nameNode != nil {
		targetName = nameNode.Content(file.src)
	}
	kind := targetKindFor(def.Type(), class)

	var facts []*callgraph.Decorator
	eachNamedChild(decorated, func(child *sitter.Node) {
		if child.Type() != "decorator" {
			return
		}
		expr := child.NamedChild(0)
		if expr == nil {
			return
		}
		dec := &callgraph.Decorator{
			Name:        dottedName(expr, file.src),
			KeywordArgs: map[string]string{},
			Location:    models.NewLocation(file.path, line(child)),
			TargetKind:  kind,
			Target:      targetName,
			TargetClass: class,
		}
		if expr.Type() == "call" {
			if args := expr.ChildByFieldName("arguments"); args != nil {
				eachNamedChild(args, func(arg *sitter.Node) {
					if arg.Type() == "keyword_argument" {
						name := arg.ChildByFieldName("name")
						value := arg.ChildByFieldName("value")
						if name != nil && value != nil {
							dec.KeywordArgs[name.Content(file.src)] = strings.TrimSpace(value.Content(file.src))
						}
						return
					}
					dec.Arguments = append(dec.Arguments, strings.TrimSpace(arg.Content(file.src)))
				})
			}
		}
		facts = append(facts, dec)
	})
	return facts
}

// targetKindFor maps a declaration node type to the decorator target kind.
func targetKindFor(nodeType, class string) callgraph.DecoratorTargetKind {
	switch nodeType {
	case "class_definition":
		return callgraph.TargetClass
	case "function_definition":
		if class != "" {
			return callgraph.TargetMethod
		}
	}
	return callgraph.TargetFunction
}

// resolveImports records the file's import bindings and adds Import edges
// between module nodes for project-local imports. Resolution failures are
// captured, not fatal, unless strict mode is on.
func (i *Inspector) resolveImports(file *fileState) {
	eachNamedChild(file.tree.RootNode(), func(stmt *sitter.Node) {
		switch stmt.Type() {
		case "import_statement":
			eachNamedChild(stmt, func(name *sitter.Node) {
				switch name.Type() {
				case "dotted_name":
					path := name.Content(file.src)
					i.bindImport(file, path, lastSegment(path))
				case "aliased_import":
					inner := name.ChildByFieldName("name")
					alias := name.ChildByFieldName("alias")
					if inner != nil && alias != nil {
						i.bindImport(file, inner.Content(file.src), alias.Content(file.src))
					}
				}
			})
		case "import_from_statement":
			moduleNode := stmt.ChildByFieldName("module_name")
			if moduleNode == nil {
				return
			}
			module := moduleNode.Content(file.src)
			for idx := uint32(1); idx < stmt.NamedChildCount(); idx++ {
				name := stmt.NamedChild(int(idx))
				switch name.Type() {
				case "dotted_name":
					i.bindImport(file, module, name.Content(file.src))
				case "aliased_import":
					alias := name.ChildByFieldName("alias")
					if alias != nil {
						i.bindImport(file, module, alias.Content(file.src))
					}
				case "wildcard_import":
					i.bindImport(file, module, "*")
				}
			}
		}
	})
}

func (i *Inspector) bindImport(file *fileState, importPath, localName string) {
	resolved, err := resolveImport(importPath, file.path, i.projectRoot)
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
				zap.String("import", importPath), zap.String("file", file.path), zap.Error(err))
			i.failures = append(i.failures, err)
		}
	}
	i.imports[file.path] = append(i.imports[file.path], importBinding{
		name:       localName,
		importPath: importPath,
		file:       resolved,
	})
	if resolved != "" {
		if target, ok := i.modules[resolved]; ok {
			i.graph.AddEdge(callgraph.ImportEdge(i.modules[file.path], target, importPath, file.path))
		}
	}
}

// scanModuleCalls walks module-level statements for include_router mounts
// and router-generator calls. Generator results assigned to a variable wait
// for the include_router call carrying their prefix.
func (i *Inspector) scanModuleCalls(file *fileState) {
	eachNamedChild(file.tree.RootNode(), func(stmt *sitter.Node) {
		if stmt.Type() != "expression_statement" {
			return
		}
		eachNamedChild(stmt, func(expr *sitter.Node) {
			switch expr.Type() {
			case "assignment":
				left := expr.ChildByFieldName("left")
				right := expr.ChildByFieldName("right")
				if left == nil || right == nil || right.Type() != "call" {
					return
				}
				call := i.callExpr(file, right)
				if generator, ok := i.generators.Match(call); ok {
					endpoints, err := generator.AnalyzeCall(call, file.path, file.src)
					if err != nil {
						i.captureGeneratorFailure(generator, call, err)
						return
					}
					i.pendingEndpoints[left.Content(file.src)] = pendingRouter{
						endpoints: endpoints,
						location:  call.Location,
					}
				}
			case "call":
				i.moduleCall(file, expr)
			}
		})
	})
}

func (i *Inspector) moduleCall(file *fileState, node *sitter.Node) {
	call := i.callExpr(file, node)
	if strings.HasSuffix(call.Name, ".include_router") {
		i.includeRouter(file, node, call)
		return
	}
	if generator, ok := i.generators.Match(call); ok {
		endpoints, err := generator.AnalyzeCall(call, file.path, file.src)
		if err != nil {
			i.captureGeneratorFailure(generator, call, err)
			return
		}
		i.materializeEndpoints(endpoints, "", call.Location)
	}
}

// includeRouter handles app.include_router(target, prefix="/x"). The
// target may be a router variable (records the prefix for its decorators),
// a previously assigned generator result, or an inline generator call.
func (i *Inspector) includeRouter(file *fileState, node *sitter.Node, call *callgraph.CallExpr) {
	prefix := ""
	if value, ok := call.Keyword("prefix"); ok {
		prefix = stripQuotes(value)
	}

	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return
	}
	target := args.NamedChild(0)
	if target.Type() == "call" {
		inner := i.callExpr(file, target)
		if generator, ok := i.generators.Match(inner); ok {
			endpoints, err := generator.AnalyzeCall(inner, file.path, file.src)
			if err != nil {
				i.captureGeneratorFailure(generator, inner, err)
				return
			}
			i.materializeEndpoints(endpoints, prefix, inner.Location)
		}
		return
	}

	name := lastSegment(strings.TrimSpace(target.Content(file.src)))
	if pending, ok := i.pendingEndpoints[name]; ok {
		i.materializeEndpoints(pending.endpoints, prefix, pending.location)
		delete(i.pendingEndpoints, name)
		return
	}
	if prefix != "" {
		i.routerPrefixes[name] = prefix
	}
}

// flushPendingRouters materializes generator results never passed to
// include_router; they mount at the application root.
func (i *Inspector) flushPendingRouters() {
	// map order would leak into node insertion order; flush by name
	names := make([]string, 0, len(i.pendingEndpoints))
	for name := range i.pendingEndpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pending := i.pendingEndpoints[name]
		i.materializeEndpoints(pending.endpoints, "", pending.location)
	}
	i.pendingEndpoints = map[string]pendingRouter{}
}

func (i *Inspector) captureGeneratorFailure(generator callgraph.RouterGenerator, call *callgraph.CallExpr, err error) {
	wrapped := fmt.Errorf("router generator %s failed on %s at %s:%d: %w",
		generator.ModuleName(), call.Name, call.Location.File, call.Location.Line, err)
	i.log.Warn("router generator failed", zap.Error(wrapped))
	i.failures = append(i.failures, wrapped)
}

// callExpr flattens one call node into the language-neutral form.
func (i *Inspector) callExpr(file *fileState, node *sitter.Node) *callgraph.CallExpr {
	call := &callgraph.CallExpr{
		Name:     dottedName(node, file.src),
		Location: models.NewLocation(file.path, line(node)),
		Raw:      node.Content(file.src),
	}
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return call
	}
	eachNamedChild(args, func(arg *sitter.Node) {
		if arg.Type() == "keyword_argument" {
			name := arg.ChildByFieldName("name")
			value := arg.ChildByFieldName("value")
			if name != nil && value != nil {
				call.Arguments = append(call.Arguments, callgraph.CallArgument{
					Name:  name.Content(file.src),
					Value: strings.TrimSpace(value.Content(file.src)),
				})
			}
			return
		}
		call.Arguments = append(call.Arguments, callgraph.CallArgument{
			Value: strings.TrimSpace(arg.Content(file.src)),
		})
	})
	return call
}

// linkCalls adds Call edges from a declaration's body to every callee it
// names, and a Return edge back when the callee has a recorded return
// expression. Nesting depth is bounded by MaxDepth when set.
func (i *Inspector) linkCalls(body declBody) {
	i.walkCalls(body.body, body.file, 0, func(node *sitter.Node) {
		callee := dottedName(node, body.file.src)
		if callee == "" {
			return
		}
		target, ok := i.findDeclaration(callee, body.file.path)
		if !ok || target == body.id {
			return
		}
		call := i.callExpr(body.file, node)
		i.graph.AddEdge(callgraph.CallsEdge(body.id, target, i.argumentMapping(target, call), call.Location))
		if value, ok := i.returns[target]; ok {
			i.graph.AddEdge(callgraph.ReturnEdge(target, body.id, value))
		}
	})
}

func (i *Inspector) walkCalls(node *sitter.Node, file *fileState, depth int, fn func(*sitter.Node)) {
	next := depth
	if node.Type() == "call" {
		if i.config.MaxDepth > 0 && depth >= i.config.MaxDepth {
			return
		}
		fn(node)
		next = depth + 1
	}
	for idx := uint32(0); idx < node.NamedChildCount(); idx++ {
		i.walkCalls(node.NamedChild(int(idx)), file, next, fn)
	}
}

// argumentMapping pairs the callee's declared parameters with the caller's
// argument expressions, keyword arguments by name, positionals in order.
func (i *Inspector) argumentMapping(target callgraph.NodeID, call *callgraph.CallExpr) []callgraph.ArgumentPair {
	node := i.graph.NodeWeight(target)
	if node == nil || len(node.Parameters) == 0 {
		return nil
	}
	params := node.Parameters
	if len(params) > 0 && params[0].Name == "self" {
		params = params[1:]
	}
	var pairs []callgraph.ArgumentPair
	pos := 0
	for _, arg := range call.Arguments {
		if arg.Name != "" {
			pairs = append(pairs, callgraph.ArgumentPair{Parameter: arg.Name, Value: arg.Value})
			continue
		}
		if pos < len(params) {
			pairs = append(pairs, callgraph.ArgumentPair{Parameter: params[pos].Name, Value: arg.Value})
		}
		pos++
	}
	return pairs
}

// findDeclaration resolves a possibly dotted name to a declaration node:
// local declarations first, then import bindings, then a global lookup.
func (i *Inspector) findDeclaration(name, file string) (callgraph.NodeID, bool) {
	simple := lastSegment(name)
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
