package callgraph

import "github.com/Sett11/dc-verifier-sub001/models"

// CallExpr is a language-neutral view of one call expression, as delivered
// by a language frontend. Name is the dotted callee ("app.include_router",
// "fastapi_users.get_auth_router"); Arguments keep source order, keyword
// arguments carry their name.
type CallExpr struct {
	Name      string
	Arguments []CallArgument
	Location  models.Location
	Raw       string
}

// CallArgument is one argument of a call expression.
type CallArgument struct {
	Name  string // keyword name, "" for positional
	Value string
}

// Keyword returns the value of the named keyword argument.
func (c *CallExpr) Keyword(name string) (string, bool) {
	for _, arg := range c.Arguments {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return "", false
}

// Positional returns the positional argument at idx, "" when absent.
func (c *CallExpr) Positional(idx int) string {
	n := 0
	for _, arg := range c.Arguments {
		if arg.Name != "" {
			continue
		}
		if n == idx {
			return arg.Value
		}
		n++
	}
	return ""
}

// DynamicEndpoint is one endpoint synthesized by a router generator. The
// schema fields name models that the generator derived from the call
// arguments; the index fields say which call argument carried them, when
// that is knowable.
type DynamicEndpoint struct {
	Path                     string
	Method                   models.HTTPMethod
	RequestSchema            string
	ResponseSchema           string
	RequestSchemaParamIndex  int
	ResponseSchemaParamIndex int
}

// RouterGenerator recognizes library helper calls that register many routes
// implicitly (an auth router factory wiring login/logout in one call) and
// synthesizes the equivalent endpoints.
type RouterGenerator interface {
	// ModuleName is the library module this generator claims.
	ModuleName() string
	// CanHandle reports whether the generator recognizes the call.
	CanHandle(call *CallExpr) bool
	// AnalyzeCall returns the endpoints the call registers. fileSource is
	// the full file the call appears in, for generators that need wider
	// context; it may be nil.
	AnalyzeCall(call *CallExpr, file string, fileSource []byte) ([]DynamicEndpoint, error)
}

// GeneratorRegistry holds router generators in registration order. The
// first generator whose CanHandle matches wins for a call; iteration order
// is registration order, so matching is deterministic.
type GeneratorRegistry struct {
	generators []RouterGenerator
}

// NewGeneratorRegistry creates an empty registry.
func NewGeneratorRegistry() *GeneratorRegistry {
	return &GeneratorRegistry{}
}

// Register appends generator to the registry.
func (r *GeneratorRegistry) Register(generator RouterGenerator) {
	r.generators = append(r.generators, generator)
}

// Match returns the first registered generator that can handle call.
func (r *GeneratorRegistry) Match(call *CallExpr) (RouterGenerator, bool) {
	for _, generator := range r.generators {
		if generator.CanHandle(call) {
			return generator, true
		}
	}
	return nil, false
}

// Len returns the number of registered generators.
func (r *GeneratorRegistry) Len() int {
	return len(r.generators)
}
