package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sett11/dc-verifier-sub001/analyzer"
	"github.com/Sett11/dc-verifier-sub001/callgraph"
	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/schema"
)

// buildStackGraph wires a small two-sided application: a frontend form
// posting to a backend create endpoint, plus one unmatched route on each
// side.
func buildStackGraph(t *testing.T) (*callgraph.Graph, callgraph.NodeID, callgraph.NodeID) {
	t.Helper()
	g := callgraph.New()

	itemCreate := makeSchema("ItemCreate", []schema.FieldSpec{
		{Name: "name", Type: "str"},
		{Name: "price", Type: "float"},
	})
	itemRead := makeSchema("ItemRead", []schema.FieldSpec{
		{Name: "id", Type: "int"},
		{Name: "name", Type: "str"},
		{Name: "price", Type: "float"},
	})
	payload := makeSchema("ItemPayload", []schema.FieldSpec{
		{Name: "name", Type: "str"},
	})

	handler := g.AddNode(callgraph.FunctionNode("create_item", "backend/main.py", 20,
		[]callgraph.Parameter{{
			Name:     "item",
			TypeInfo: models.TypeInfo{BaseType: models.BaseObject, SchemaRef: itemCreate},
		}}, nil))
	backRoute := callgraph.RouteNode("/items/", models.MethodPost, handler,
		models.NewLocation("backend/main.py", 19), callgraph.OriginBackend)
	backRoute.RequestSchema = itemCreate
	backRoute.ResponseSchema = itemRead
	backID := g.AddNode(backRoute)
	g.AddEdge(callgraph.CallsEdge(backID, handler, nil, backRoute.Location))

	caller := g.AddNode(callgraph.FunctionNode("submitForm", "frontend/form.ts", 5, nil, nil))
	frontRoute := callgraph.RouteNode("/items/", models.MethodPost, caller,
		models.NewLocation("frontend/form.ts", 8), callgraph.OriginFrontend)
	frontRoute.RequestSchema = payload
	frontRoute.ResponseSchema = itemRead
	frontID := g.AddNode(frontRoute)
	g.AddEdge(callgraph.CallsEdge(caller, frontID, nil, frontRoute.Location))

	orphanFront := callgraph.RouteNode("/profile", models.MethodGet, caller,
		models.NewLocation("frontend/profile.ts", 3), callgraph.OriginFrontend)
	g.AddNode(orphanFront)

	orphanBack := callgraph.RouteNode("/items/{item_id}", models.MethodDelete, handler,
		models.NewLocation("backend/main.py", 40), callgraph.OriginBackend)
	g.AddNode(orphanBack)

	return g, frontID, backID
}

func TestAssembler_ClassificationIsTotalAndExclusive(t *testing.T) {
	g, _, _ := buildStackGraph(t)
	chains := analyzer.NewAssembler(g).AssembleChains()

	counts := map[models.ChainType]int{}
	for _, chain := range chains {
		switch chain.ChainType {
		case models.ChainFull, models.ChainFrontendInternal, models.ChainBackendInternal:
			counts[chain.ChainType]++
		default:
			t.Fatalf("chain %s has unknown type %q", chain.ID, chain.ChainType)
		}
		assert.GreaterOrEqual(t, len(chain.Links), 2)
		assert.Equal(t, models.LinkSource, chain.Links[0].LinkType)
		assert.Equal(t, models.LinkSink, chain.Links[len(chain.Links)-1].LinkType)
	}
	assert.Equal(t, 2, counts[models.ChainFull], "forward and response chains")
	assert.Equal(t, 1, counts[models.ChainFrontendInternal])
	assert.Equal(t, 1, counts[models.ChainBackendInternal])
}

func TestAssembler_FullChainSpansBothSides(t *testing.T) {
	g, frontID, backID := buildStackGraph(t)
	chains := analyzer.NewAssembler(g).AssembleChains()

	var forward *models.DataChain
	for _, chain := range chains {
		if chain.ChainType == models.ChainFull && chain.Direction == models.FrontendToBackend {
			forward = chain
		}
	}
	if !assert.NotNil(t, forward) {
		return
	}
	assert.Equal(t, int(frontID), forward.Links[0].NodeID)
	assert.Equal(t, int(backID), forward.Links[len(forward.Links)-1].NodeID)

	var missing []models.Mismatch
	for _, contract := range forward.Contracts {
		for _, m := range contract.Mismatches {
			if m.MismatchType == models.MissingField {
				missing = append(missing, m)
			}
		}
	}
	if assert.Len(t, missing, 1) {
		assert.Equal(t, "price", missing[0].Path)
	}
	assert.Equal(t, models.SeverityWarning, forward.MaxSeverity())
}

func TestAssembler_ResponseChain(t *testing.T) {
	g, frontID, backID := buildStackGraph(t)
	chains := analyzer.NewAssembler(g).AssembleChains()

	var response *models.DataChain
	for _, chain := range chains {
		if chain.Direction == models.BackendToFrontend {
			response = chain
		}
	}
	if !assert.NotNil(t, response) {
		return
	}
	assert.Equal(t, models.ChainFull, response.ChainType)
	assert.Equal(t, int(backID), response.Links[0].NodeID)
	assert.Equal(t, int(frontID), response.Links[len(response.Links)-1].NodeID)
	assert.Equal(t, models.SeverityInfo, response.MaxSeverity(), "matching response schemas hold")
}

func TestAssembler_DirectLinkWithoutCallPath(t *testing.T) {
	// no syntactic call path connects the two routes; path+method identity
	// must still produce a Full chain
	g := callgraph.New()
	front := callgraph.RouteNode("/users/:id", models.MethodGet, callgraph.InvalidNode,
		models.NewLocation("app.ts", 1), callgraph.OriginFrontend)
	g.AddNode(front)
	back := callgraph.RouteNode("/users/{user_id}", models.MethodGet, callgraph.InvalidNode,
		models.NewLocation("main.py", 1), callgraph.OriginBackend)
	g.AddNode(back)

	chains := analyzer.NewAssembler(g, analyzer.WithMaxDepth(3)).AssembleChains()
	if assert.Len(t, chains, 1) {
		assert.Equal(t, models.ChainFull, chains[0].ChainType)
		assert.Len(t, chains[0].Links, 2)
	}
}

func TestAssembler_PathIgnoresImportEdges(t *testing.T) {
	// the routes are reachable from each other only through an import
	// edge; the chain must fall back to the direct two-link form instead
	// of routing data flow through the imported module
	g := callgraph.New()
	front := g.AddNode(callgraph.RouteNode("/items", models.MethodGet, callgraph.InvalidNode,
		models.NewLocation("app.ts", 1), callgraph.OriginFrontend))
	module := g.AddNode(callgraph.ModuleNode("backend/api.py"))
	back := g.AddNode(callgraph.RouteNode("/items", models.MethodGet, callgraph.InvalidNode,
		models.NewLocation("backend/api.py", 4), callgraph.OriginBackend))
	g.AddEdge(callgraph.ImportEdge(front, module, "api", "app.ts"))
	g.AddEdge(callgraph.ImportEdge(module, back, "api", "backend/api.py"))

	chains := analyzer.NewAssembler(g, analyzer.WithMaxDepth(5)).AssembleChains()
	if assert.Len(t, chains, 1) {
		assert.Equal(t, models.ChainFull, chains[0].ChainType)
		assert.Len(t, chains[0].Links, 2, "import edges carry no data flow")
	}
}

func TestAssembler_MethodMustMatch(t *testing.T) {
	g := callgraph.New()
	g.AddNode(callgraph.RouteNode("/items", models.MethodGet, callgraph.InvalidNode,
		models.NewLocation("app.ts", 1), callgraph.OriginFrontend))
	g.AddNode(callgraph.RouteNode("/items", models.MethodPost, callgraph.InvalidNode,
		models.NewLocation("main.py", 1), callgraph.OriginBackend))

	chains := analyzer.NewAssembler(g).AssembleChains()
	for _, chain := range chains {
		assert.NotEqual(t, models.ChainFull, chain.ChainType)
	}
	assert.Len(t, chains, 2)
}
