package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sett11/dc-verifier-sub001/config"
	"github.com/Sett11/dc-verifier-sub001/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dcverify.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
backend:
  - backend/app
frontend:
  - frontend/src
max_depth: 8
strict_imports: true
fail_on: warning
severities:
  extra_field: warning
generators:
  - module: crudkit
    functions: [make_crud_router]
    endpoints:
      - path: /
        method: GET
        response_schema: ItemRead
report:
  format: markdown
  output: report.md
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"backend/app"}, cfg.Backend)
	assert.Equal(t, []string{"frontend/src"}, cfg.Frontend)
	assert.Equal(t, 8, cfg.MaxDepth)
	assert.True(t, cfg.StrictImports)
	assert.Equal(t, "warning", cfg.FailOn)
	assert.Equal(t, "warning", cfg.Severities.ExtraField)
	require.Len(t, cfg.Generators, 1)
	assert.Equal(t, "crudkit", cfg.Generators[0].Module)
	require.Len(t, cfg.Generators[0].Endpoints, 1)
	assert.Equal(t, "ItemRead", cfg.Generators[0].Endpoints[0].ResponseSchema)
	assert.Equal(t, "markdown", cfg.Report.Format)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "backend:\n  - app\n"))
	require.NoError(t, err)
	assert.Equal(t, string(models.SeverityCritical), cfg.FailOn)
	assert.Equal(t, "console", cfg.Report.Format)
	assert.False(t, cfg.IncludeTests)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad format":         "report:\n  format: pdf\n",
		"bad fail_on":        "fail_on: fatal\n",
		"bad severity":       "severities:\n  type_mismatch: blocker\n",
		"generator no funcs": "generators:\n  - module: crudkit\n",
		"malformed yaml":     "backend: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseSeverity(t *testing.T) {
	sev, ok := config.ParseSeverity("critical")
	assert.True(t, ok)
	assert.Equal(t, models.SeverityCritical, sev)

	_, ok = config.ParseSeverity("fatal")
	assert.False(t, ok)
}
