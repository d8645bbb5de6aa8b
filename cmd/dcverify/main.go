package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sett11/dc-verifier-sub001/config"
	"github.com/Sett11/dc-verifier-sub001/logging"
	"github.com/Sett11/dc-verifier-sub001/report"
	"github.com/Sett11/dc-verifier-sub001/verifier"
)

var flags struct {
	configPath string
	backend    []string
	frontend   []string
	openapi    []string
	maxDepth   int
	strict     bool
	verbose    bool
	format     string
	output     string
	failOn     string
}

func main() {
	root := &cobra.Command{
		Use:           "dcverify",
		Short:         "Static data-contract verification across a full-stack application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringSliceVar(&flags.backend, "backend", nil, "backend (Python) source roots")
	root.PersistentFlags().StringSliceVar(&flags.frontend, "frontend", nil, "frontend (TypeScript) source roots")
	root.PersistentFlags().StringSliceVar(&flags.openapi, "openapi", nil, "OpenAPI documents merged as backend routes")
	root.PersistentFlags().IntVar(&flags.maxDepth, "max-depth", 0, "call-chain depth bound, 0 for unlimited")
	root.PersistentFlags().BoolVar(&flags.strict, "strict", false, "fail on unresolved external imports")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose logging")

	check := &cobra.Command{
		Use:   "check",
		Short: "Build the call graph, assemble chains and check contracts",
		RunE:  runCheck,
	}
	check.Flags().StringVar(&flags.format, "format", "", "report format: console, markdown, json")
	check.Flags().StringVarP(&flags.output, "output", "o", "", "write the report to a file instead of stdout")
	check.Flags().StringVar(&flags.failOn, "fail-on", "", "exit non-zero when a mismatch reaches this severity")

	routes := &cobra.Command{
		Use:   "routes",
		Short: "List every discovered route without checking contracts",
		RunE:  runRoutes,
	}

	root.AddCommand(check, routes)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if len(flags.backend) > 0 {
		cfg.Backend = flags.backend
	}
	if len(flags.frontend) > 0 {
		cfg.Frontend = flags.frontend
	}
	if len(flags.openapi) > 0 {
		cfg.OpenAPI = flags.openapi
	}
	if flags.maxDepth > 0 {
		cfg.MaxDepth = flags.maxDepth
	}
	if flags.strict {
		cfg.StrictImports = true
	}
	if flags.format != "" {
		cfg.Report.Format = flags.format
	}
	if flags.output != "" {
		cfg.Report.Output = flags.output
	}
	if flags.failOn != "" {
		cfg.FailOn = flags.failOn
	}
	if len(cfg.Backend) == 0 && len(cfg.Frontend) == 0 && len(cfg.OpenAPI) == 0 {
		return nil, fmt.Errorf("no sources: set --backend, --frontend or --openapi, or a config file")
	}
	return cfg, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New(flags.verbose)
	defer log.Sync()

	chains, err := verifier.New(cfg, log).Verify(cmd.Context())
	if err != nil {
		return err
	}

	reporter, err := report.New(cfg.Report.Format)
	if err != nil {
		return err
	}
	out := os.Stdout
	if cfg.Report.Output != "" {
		f, err := os.Create(cfg.Report.Output)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := reporter.Write(out, chains); err != nil {
		return err
	}

	if threshold, ok := config.ParseSeverity(cfg.FailOn); ok && cfg.FailOn != "" {
		if report.Summarize(chains).HasAbove(threshold) {
			return fmt.Errorf("mismatches at or above %s severity", threshold)
		}
	}
	return nil
}

func runRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New(flags.verbose)
	defer log.Sync()

	routes, err := verifier.New(cfg, log).Routes(cmd.Context())
	if err != nil {
		return err
	}
	for _, route := range routes {
		request, response := "-", "-"
		if route.RequestSchema != nil {
			request = route.RequestSchema.Name
		}
		if route.ResponseSchema != nil {
			response = route.ResponseSchema.Name
		}
		fmt.Printf("%-8s %-7s %-40s req=%s resp=%s  %s:%d\n",
			route.Origin, route.Method, route.RoutePath, request, response,
			route.Location.File, route.Location.Line)
	}
	fmt.Printf("%d routes\n", len(routes))
	return nil
}
