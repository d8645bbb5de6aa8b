// Package verifier runs the whole pipeline: both language frontends, the
// graph merge, chain assembly and contract checking.
package verifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/Sett11/dc-verifier-sub001/analyzer"
	"github.com/Sett11/dc-verifier-sub001/callgraph"
	"github.com/Sett11/dc-verifier-sub001/config"
	"github.com/Sett11/dc-verifier-sub001/inspector"
	"github.com/Sett11/dc-verifier-sub001/inspector/python"
	"github.com/Sett11/dc-verifier-sub001/inspector/typescript"
	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/openapi"
)

// Verifier owns one analysis run.
type Verifier struct {
	cfg *config.Config
	log *zap.Logger

	backendDiscoverers  []callgraph.RouteDiscoverer
	frontendDiscoverers []callgraph.RouteDiscoverer
	failures            []error
}

// New creates a verifier for the given configuration.
func New(cfg *config.Config, log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{cfg: cfg, log: log}
}

// AddRouteDiscoverer registers a supplier of pre-extracted route facts for
// the given side of the stack, for frameworks whose registration static
// analysis cannot see. Discoverers run after both language frontends so
// their handlers can resolve against the merged graph.
func (v *Verifier) AddRouteDiscoverer(origin callgraph.RouteOrigin, discoverer callgraph.RouteDiscoverer) {
	if origin == callgraph.OriginBackend {
		v.backendDiscoverers = append(v.backendDiscoverers, discoverer)
		return
	}
	v.frontendDiscoverers = append(v.frontendDiscoverers, discoverer)
}

// Failures returns the soft errors captured across both frontends during
// the last BuildGraph run.
func (v *Verifier) Failures() []error {
	return v.failures
}

// BuildGraph runs both language frontends over their roots and merges the
// two graph fragments into one.
func (v *Verifier) BuildGraph(ctx context.Context) (*callgraph.Graph, error) {
	cfg := &inspector.Config{
		MaxDepth:      v.cfg.MaxDepth,
		StrictImports: v.cfg.StrictImports,
		SkipTests:     !v.cfg.IncludeTests,
		Logger:        v.log,
	}
	v.failures = nil

	graph := callgraph.New()
	if len(v.cfg.Backend) > 0 {
		backend := python.New(v.cfg.Backend, cfg)
		for _, g := range v.cfg.Generators {
			backend.RegisterGenerator(configuredGenerator(g))
		}
		fragment, err := backend.BuildGraph(ctx)
		if err != nil {
			return nil, err
		}
		v.failures = append(v.failures, backend.Failures()...)
		graph.Merge(fragment)
	}
	for _, path := range v.cfg.OpenAPI {
		doc, err := openapi.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		doc.Apply(graph, nil)
		v.log.Info("merged OpenAPI document",
			zap.String("path", path),
			zap.Int("schemas", len(doc.Schemas)), zap.Int("endpoints", len(doc.Endpoints)))
	}
	if len(v.cfg.Frontend) > 0 {
		frontend := typescript.New(v.cfg.Frontend, cfg)
		fragment, err := frontend.BuildGraph(ctx)
		if err != nil {
			return nil, err
		}
		v.failures = append(v.failures, frontend.Failures()...)
		graph.Merge(fragment)
	}
	if err := v.mergeDiscovered(graph, callgraph.OriginBackend, v.backendDiscoverers); err != nil {
		return nil, err
	}
	if err := v.mergeDiscovered(graph, callgraph.OriginFrontend, v.frontendDiscoverers); err != nil {
		return nil, err
	}
	v.log.Info("built call graph",
		zap.Int("nodes", graph.NodeCount()), zap.Int("edges", graph.EdgeCount()))
	return graph, nil
}

func (v *Verifier) mergeDiscovered(graph *callgraph.Graph, origin callgraph.RouteOrigin, discoverers []callgraph.RouteDiscoverer) error {
	for _, discoverer := range discoverers {
		routes, err := discoverer.DiscoverRoutes()
		if err != nil {
			return err
		}
		callgraph.MergeDiscoveredRoutes(graph, routes, origin)
	}
	return nil
}

// Verify builds the graph and assembles the checked data chains.
func (v *Verifier) Verify(ctx context.Context) ([]*models.DataChain, error) {
	graph, err := v.BuildGraph(ctx)
	if err != nil {
		return nil, err
	}
	assembler := analyzer.NewAssembler(graph,
		analyzer.WithMaxDepth(v.cfg.MaxDepth),
		analyzer.WithChecker(analyzer.NewChecker(v.policy())),
		analyzer.WithLogger(v.log),
	)
	return assembler.AssembleChains(), nil
}

// Routes builds the graph and returns every route node, for inspection
// without running the checker.
func (v *Verifier) Routes(ctx context.Context) ([]*callgraph.CallNode, error) {
	graph, err := v.BuildGraph(ctx)
	if err != nil {
		return nil, err
	}
	ids := graph.FindNodes(func(node *callgraph.CallNode) bool {
		return node.Kind == callgraph.NodeRoute
	})
	routes := make([]*callgraph.CallNode, 0, len(ids))
	for _, id := range ids {
		routes = append(routes, graph.NodeWeight(id))
	}
	return routes, nil
}

// policy maps the configured severity overrides onto the default policy.
func (v *Verifier) policy() analyzer.Policy {
	policy := analyzer.DefaultPolicy()
	overrides := []struct {
		value  string
		target *models.Severity
	}{
		{v.cfg.Severities.TypeMismatch, &policy.TypeMismatch},
		{v.cfg.Severities.MissingField, &policy.MissingField},
		{v.cfg.Severities.ExtraField, &policy.ExtraField},
		{v.cfg.Severities.Unnormalized, &policy.Unnormalized},
		{v.cfg.Severities.MissingSchema, &policy.MissingSchema},
	}
	for _, o := range overrides {
		if severity, ok := config.ParseSeverity(o.value); ok && o.value != "" {
			*o.target = severity
		}
	}
	return policy
}

func configuredGenerator(g config.Generator) *python.ConfiguredGenerator {
	out := &python.ConfiguredGenerator{Module: g.Module, Functions: g.Functions}
	for _, e := range g.Endpoints {
		out.Endpoints = append(out.Endpoints, python.ConfiguredEndpoint{
			Path:           e.Path,
			Method:         e.Method,
			RequestSchema:  e.RequestSchema,
			ResponseSchema: e.ResponseSchema,
		})
	}
	return out
}
