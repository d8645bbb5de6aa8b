package verifier_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sett11/dc-verifier-sub001/callgraph"
	"github.com/Sett11/dc-verifier-sub001/config"
	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/verifier"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, src := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return root
}

func stackConfig(t *testing.T) *config.Config {
	t.Helper()
	backend := writeTree(t, map[string]string{
		"schemas.py": `from pydantic import BaseModel


class ItemCreate(BaseModel):
    name: str
    price: float


class ItemRead(BaseModel):
    id: int
    name: str
    price: float
`,
		"main.py": `from fastapi import FastAPI

from schemas import ItemCreate, ItemRead

app = FastAPI()


@app.post("/items/", response_model=ItemRead)
def create_item(item: ItemCreate) -> ItemRead:
    return item
`,
	})
	frontend := writeTree(t, map[string]string{
		"types.ts": `export interface ItemPayload {
  name: string;
}

export interface ItemRead {
  id: number;
  name: string;
  price: number;
}
`,
		"api.ts": `import axios from "axios";
import { ItemPayload, ItemRead } from "./types";

export async function createItem(payload: ItemPayload): Promise<ItemRead> {
  const res = await axios.post<ItemRead>("/items/", payload);
  return res.data;
}
`,
	})
	cfg := config.Default()
	cfg.Backend = []string{backend}
	cfg.Frontend = []string{frontend}
	return cfg
}

func TestVerify_FullStack(t *testing.T) {
	v := verifier.New(stackConfig(t), nil)
	chains, err := v.Verify(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, chains)

	var full []*models.DataChain
	for _, chain := range chains {
		if chain.ChainType == models.ChainFull {
			full = append(full, chain)
		}
	}
	require.NotEmpty(t, full)

	// the frontend payload lacks price, the backend model requires it
	foundMissingPrice := false
	for _, chain := range full {
		for _, contract := range chain.Contracts {
			for _, mismatch := range contract.Mismatches {
				if mismatch.MismatchType == models.MissingField && mismatch.Path == "price" {
					foundMissingPrice = true
				}
			}
		}
	}
	assert.True(t, foundMissingPrice)
}

func TestRoutes_BothSides(t *testing.T) {
	v := verifier.New(stackConfig(t), nil)
	routes, err := v.Routes(context.Background())
	require.NoError(t, err)

	origins := map[callgraph.RouteOrigin]int{}
	for _, route := range routes {
		origins[route.Origin]++
	}
	assert.Equal(t, 1, origins[callgraph.OriginBackend])
	assert.Equal(t, 1, origins[callgraph.OriginFrontend])
}

func TestVerify_OpenAPIBackend(t *testing.T) {
	// the backend exists only as an OpenAPI document; its routes must
	// still pair up with the frontend calls
	docDir := writeTree(t, map[string]string{
		"api.yaml": `openapi: 3.0.3
paths:
  /items/:
    post:
      requestBody:
        content:
          application/json:
            schema:
              $ref: "#/components/schemas/ItemCreate"
      responses:
        "200":
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/ItemRead"
components:
  schemas:
    ItemCreate:
      type: object
      required: [name, price]
      properties:
        name:
          type: string
        price:
          type: number
    ItemRead:
      type: object
      properties:
        id:
          type: integer
        name:
          type: string
        price:
          type: number
`,
	})
	cfg := stackConfig(t)
	cfg.Backend = nil
	cfg.OpenAPI = []string{filepath.Join(docDir, "api.yaml")}

	v := verifier.New(cfg, nil)
	chains, err := v.Verify(context.Background())
	require.NoError(t, err)

	foundMissingPrice := false
	for _, chain := range chains {
		if chain.ChainType != models.ChainFull {
			continue
		}
		for _, contract := range chain.Contracts {
			for _, mismatch := range contract.Mismatches {
				if mismatch.MismatchType == models.MissingField && mismatch.Path == "price" {
					foundMissingPrice = true
				}
			}
		}
	}
	assert.True(t, foundMissingPrice, "document-declared request body must be checked against the frontend payload")
}

type staticDiscoverer struct {
	routes []callgraph.DiscoveredRoute
	err    error
}

func (d *staticDiscoverer) DiscoverRoutes() ([]callgraph.DiscoveredRoute, error) {
	return d.routes, d.err
}

func TestRouteDiscoverer(t *testing.T) {
	v := verifier.New(stackConfig(t), nil)
	v.AddRouteDiscoverer(callgraph.OriginBackend, &staticDiscoverer{
		routes: []callgraph.DiscoveredRoute{
			{Path: "/health", Method: models.MethodGet, Handler: "create_item", File: "runtime", Line: 1},
		},
	})

	routes, err := v.Routes(context.Background())
	require.NoError(t, err)

	var health *callgraph.CallNode
	for _, route := range routes {
		if route.RoutePath == "/health" {
			health = route
		}
	}
	require.NotNil(t, health)
	assert.Equal(t, callgraph.OriginBackend, health.Origin)
	assert.NotEqual(t, callgraph.InvalidNode, health.Handler)

	v.AddRouteDiscoverer(callgraph.OriginFrontend, &staticDiscoverer{err: assert.AnError})
	_, err = v.Routes(context.Background())
	assert.Error(t, err)
}
