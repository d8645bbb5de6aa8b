package python_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sett11/dc-verifier-sub001/callgraph"
	"github.com/Sett11/dc-verifier-sub001/inspector"
	"github.com/Sett11/dc-verifier-sub001/inspector/python"
	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/schema"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, src := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return root
}

func buildGraph(t *testing.T, files map[string]string, cfg *inspector.Config) (*callgraph.Graph, *python.Inspector) {
	t.Helper()
	root := writeProject(t, files)
	i := python.New([]string{root}, cfg)
	graph, err := i.BuildGraph(context.Background())
	require.NoError(t, err)
	return graph, i
}

func findRoutes(graph *callgraph.Graph) []*callgraph.CallNode {
	var routes []*callgraph.CallNode
	for _, id := range graph.FindNodes(func(n *callgraph.CallNode) bool { return n.Kind == callgraph.NodeRoute }) {
		routes = append(routes, graph.NodeWeight(id))
	}
	return routes
}

func routeByPath(routes []*callgraph.CallNode, method models.HTTPMethod, path string) *callgraph.CallNode {
	for _, route := range routes {
		if route.Method == method && route.RoutePath == path {
			return route
		}
	}
	return nil
}

const schemasPy = `from pydantic import BaseModel, EmailStr, Field


class ItemCreate(BaseModel):
    name: str
    price: float = Field(gt=0)


class ItemRead(BaseModel):
    id: int
    name: str
    price: float


class UserCreate(BaseModel):
    email: EmailStr
    password: str


class UserRead(BaseModel):
    id: int
    email: EmailStr
`

const mainPy = `from fastapi import FastAPI
from schemas import ItemCreate, ItemRead

app = FastAPI()


@app.post("/items/", response_model=ItemRead)
def create_item(item: ItemCreate) -> ItemRead:
    return item


@app.get("/items/{item_id}")
def get_item(item_id: int) -> ItemRead:
    return fetch_item(item_id)


def fetch_item(item_id: int) -> ItemRead:
    return store[item_id]
`

func TestInspector_SchemasRegistered(t *testing.T) {
	_, i := buildGraph(t, map[string]string{"schemas.py": schemasPy}, nil)

	ref, ok := i.Registry().Lookup("ItemCreate")
	require.True(t, ok)
	assert.Equal(t, models.SchemaPydantic, ref.SchemaType)

	specs := schema.DecodeFields(ref.Metadata[schema.FieldsKey])
	require.Len(t, specs, 2)
	assert.Equal(t, "name", specs[0].Name)
	assert.Equal(t, "price", specs[1].Name)
	assert.Equal(t, "float", specs[1].Type)
	require.Len(t, specs[1].Constraints, 1)
	assert.Equal(t, models.ConstraintMin, specs[1].Constraints[0].Kind)

	user, ok := i.Registry().Lookup("UserCreate")
	require.True(t, ok)
	userSpecs := schema.DecodeFields(user.Metadata[schema.FieldsKey])
	require.Len(t, userSpecs, 2)
	assert.Equal(t, "str", userSpecs[0].Type)
	assert.Equal(t, models.ConstraintEmail, userSpecs[0].Constraints[0].Kind)
}

func TestInspector_DecoratorRoutes(t *testing.T) {
	graph, _ := buildGraph(t, map[string]string{
		"schemas.py": schemasPy,
		"main.py":    mainPy,
	}, nil)
	routes := findRoutes(graph)
	require.Len(t, routes, 2)

	create := routeByPath(routes, models.MethodPost, "/items/")
	require.NotNil(t, create)
	assert.Equal(t, callgraph.OriginBackend, create.Origin)
	require.NotNil(t, create.RequestSchema)
	assert.Equal(t, "ItemCreate", create.RequestSchema.Name)
	require.NotNil(t, create.ResponseSchema)
	assert.Equal(t, "ItemRead", create.ResponseSchema.Name)

	handler := graph.NodeWeight(create.Handler)
	require.NotNil(t, handler)
	assert.Equal(t, "create_item", handler.Name)
}

func TestInspector_ResponseSchemaFromReturnType(t *testing.T) {
	graph, _ := buildGraph(t, map[string]string{
		"schemas.py": schemasPy,
		"main.py":    mainPy,
	}, nil)
	get := routeByPath(findRoutes(graph), models.MethodGet, "/items/{item_id}")
	require.NotNil(t, get)
	require.NotNil(t, get.ResponseSchema, "return annotation must supply the response schema")
	assert.Equal(t, "ItemRead", get.ResponseSchema.Name)
	assert.Nil(t, get.RequestSchema, "path parameters carry no request schema")
}

func TestInspector_ReturnTypeBeatsResponseModel(t *testing.T) {
	graph, _ := buildGraph(t, map[string]string{
		"schemas.py": schemasPy + `

class ItemSummary(BaseModel):
    id: int
    name: str
`,
		"main.py": `from fastapi import FastAPI
from schemas import ItemRead, ItemSummary

app = FastAPI()


@app.get("/items/", response_model=ItemRead)
def list_items() -> ItemSummary:
    return summaries()


@app.delete("/items/{item_id}", response_model=ItemRead)
def delete_item(item_id: int):
    return remove(item_id)
`,
	}, nil)
	routes := findRoutes(graph)

	list := routeByPath(routes, models.MethodGet, "/items/")
	require.NotNil(t, list)
	require.NotNil(t, list.ResponseSchema)
	assert.Equal(t, "ItemSummary", list.ResponseSchema.Name,
		"the declared return type wins over the response_model keyword")

	del := routeByPath(routes, models.MethodDelete, "/items/{item_id}")
	require.NotNil(t, del)
	assert.Nil(t, del.ResponseSchema,
		"without a return annotation the route has no response schema")
}

func TestInspector_CallAndReturnEdges(t *testing.T) {
	graph, _ := buildGraph(t, map[string]string{
		"schemas.py": schemasPy,
		"main.py":    mainPy,
	}, nil)
	getItem, ok := graph.FindNodeByName("get_item")
	require.True(t, ok)
	fetchItem, ok := graph.FindNodeByName("fetch_item")
	require.True(t, ok)

	callFound, returnFound := false, false
	for _, edge := range graph.OutgoingEdges(getItem) {
		if edge.Kind == callgraph.EdgeCall && edge.To == fetchItem {
			callFound = true
		}
	}
	for _, edge := range graph.OutgoingEdges(fetchItem) {
		if edge.Kind == callgraph.EdgeReturn && edge.To == getItem {
			returnFound = true
		}
	}
	assert.True(t, callFound, "get_item should call fetch_item")
	assert.True(t, returnFound, "fetch_item's return should flow back")
}

func TestInspector_RouterPrefix(t *testing.T) {
	graph, _ := buildGraph(t, map[string]string{
		"schemas.py": schemasPy,
		"routers.py": `from fastapi import APIRouter
from schemas import ItemRead

items_router = APIRouter()


@items_router.get("/")
def list_items() -> ItemRead:
    return first()
`,
		"main.py": `from fastapi import FastAPI
from routers import items_router

app = FastAPI()
app.include_router(items_router, prefix="/items")
`,
	}, nil)
	route := routeByPath(findRoutes(graph), models.MethodGet, "/items")
	require.NotNil(t, route, "include_router prefix must apply to the router's decorators")
}

func TestInspector_FastapiUsersGenerators(t *testing.T) {
	graph, _ := buildGraph(t, map[string]string{
		"schemas.py": schemasPy,
		"auth.py": `from fastapi import FastAPI
from schemas import UserCreate, UserRead

app = FastAPI()
app.include_router(fastapi_users.get_auth_router(auth_backend), prefix="/auth")
app.include_router(fastapi_users.get_register_router(UserRead, UserCreate), prefix="/auth")
`,
	}, nil)
	routes := findRoutes(graph)

	login := routeByPath(routes, models.MethodPost, "/auth/login")
	require.NotNil(t, login)
	assert.Equal(t, callgraph.OriginBackend, login.Origin)
	assert.Equal(t, callgraph.InvalidNode, login.Handler, "generated routes have no single handler")
	require.NotNil(t, routeByPath(routes, models.MethodPost, "/auth/logout"))

	register := routeByPath(routes, models.MethodPost, "/auth/register")
	require.NotNil(t, register)
	require.NotNil(t, register.RequestSchema)
	assert.Equal(t, "UserCreate", register.RequestSchema.Name)
	require.NotNil(t, register.ResponseSchema)
	assert.Equal(t, "UserRead", register.ResponseSchema.Name)

	// one generator match per call, no duplicates
	count := 0
	for _, route := range routes {
		if route.RoutePath == "/auth/login" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestInspector_UnmountedRoutersOrderStable(t *testing.T) {
	// routers built by a generator but never passed to include_router
	// mount at the root; their node order must not depend on map order
	files := map[string]string{
		"schemas.py": schemasPy,
		"auth.py": `from fastapi import FastAPI
from schemas import UserCreate, UserRead

app = FastAPI()
zeta = fastapi_users.get_auth_router(auth_backend)
alpha = fastapi_users.get_register_router(UserRead, UserCreate)
`,
	}

	signature := func() []string {
		graph, _ := buildGraph(t, files, nil)
		var sig []string
		for _, route := range findRoutes(graph) {
			sig = append(sig, string(route.Method)+" "+route.RoutePath)
		}
		return sig
	}

	first := signature()
	require.NotEmpty(t, first)
	for n := 0; n < 10; n++ {
		require.Equal(t, first, signature())
	}
}

func TestInspector_ConfiguredGenerator(t *testing.T) {
	root := writeProject(t, map[string]string{
		"schemas.py": schemasPy,
		"crud.py": `from fastapi import FastAPI

app = FastAPI()
app.include_router(make_crud_router(Item), prefix="/items")
`,
	})
	i := python.New([]string{root}, nil)
	i.RegisterGenerator(&python.ConfiguredGenerator{
		Module:    "crudkit",
		Functions: []string{"make_crud_router"},
		Endpoints: []python.ConfiguredEndpoint{
			{Path: "/", Method: "GET", ResponseSchema: "ItemRead"},
			{Path: "/", Method: "POST", RequestSchema: "ItemCreate", ResponseSchema: "ItemRead"},
		},
	})
	graph, err := i.BuildGraph(context.Background())
	require.NoError(t, err)

	routes := findRoutes(graph)
	list := routeByPath(routes, models.MethodGet, "/items")
	require.NotNil(t, list)
	require.NotNil(t, list.ResponseSchema)
	assert.Equal(t, "ItemRead", list.ResponseSchema.Name)

	create := routeByPath(routes, models.MethodPost, "/items")
	require.NotNil(t, create)
	require.NotNil(t, create.RequestSchema)
	assert.Equal(t, "ItemCreate", create.RequestSchema.Name)
}

func TestInspector_ImportModes(t *testing.T) {
	files := map[string]string{
		"schemas.py": schemasPy,
		"main.py":    mainPy,
	}

	t.Run("lenient keeps going", func(t *testing.T) {
		root := writeProject(t, files)
		i := python.New([]string{root}, nil)
		graph, err := i.BuildGraph(context.Background())
		require.NoError(t, err)
		assert.NotZero(t, graph.NodeCount())
	})

	t.Run("strict surfaces external deps", func(t *testing.T) {
		root := writeProject(t, files)
		i := python.New([]string{root}, &inspector.Config{StrictImports: true, SkipTests: true})
		_, err := i.BuildGraph(context.Background())
		require.Error(t, err)
		var external *models.ExternalDependencyError
		assert.ErrorAs(t, err, &external)
		assert.Contains(t, external.Error(), "pip install")
	})
}
