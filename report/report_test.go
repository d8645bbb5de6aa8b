package report_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/report"
)

func sampleChains() []*models.DataChain {
	source := models.NewSchemaReference("ItemPayload", models.SchemaTypeScript, models.NewLocation("api.ts", 10))
	sink := models.NewSchemaReference("ItemCreate", models.SchemaPydantic, models.NewLocation("main.py", 20))

	broken := &models.DataChain{
		ID:        "chain-1",
		Name:      "POST /items/",
		Direction: models.FrontendToBackend,
		ChainType: models.ChainFull,
		Links: []models.Link{
			{ID: "chain-1-link-0", LinkType: models.LinkSource, SchemaRef: source, Location: source.Location},
			{ID: "chain-1-link-1", LinkType: models.LinkSink, SchemaRef: sink, Location: sink.Location},
		},
		Contracts: []models.Contract{{
			FromLinkID: "chain-1-link-0",
			ToLinkID:   "chain-1-link-1",
			FromSchema: source,
			ToSchema:   sink,
			Severity:   models.SeverityWarning,
			Mismatches: []models.Mismatch{
				{MismatchType: models.MissingField, Path: "price", Severity: models.SeverityWarning,
					Message: "required field \"price\" is absent"},
				{MismatchType: models.ExtraField, Path: "note", Severity: models.SeverityInfo,
					Message: "field \"note\" is not part of the receiving schema"},
			},
		}},
	}
	clean := &models.DataChain{
		ID:        "chain-2",
		Name:      "GET /items/ response",
		Direction: models.BackendToFrontend,
		ChainType: models.ChainFull,
		Links: []models.Link{
			{ID: "chain-2-link-0", LinkType: models.LinkSource, SchemaRef: sink, Location: sink.Location},
			{ID: "chain-2-link-1", LinkType: models.LinkSink, SchemaRef: source, Location: source.Location},
		},
		Contracts: []models.Contract{{
			FromLinkID: "chain-2-link-0",
			ToLinkID:   "chain-2-link-1",
			FromSchema: sink,
			ToSchema:   source,
			Severity:   models.SeverityInfo,
		}},
	}
	return []*models.DataChain{broken, clean}
}

func TestSummarize(t *testing.T) {
	summary := report.Summarize(sampleChains())

	assert.Equal(t, 2, summary.Chains)
	assert.Equal(t, 2, summary.Contracts)
	assert.Equal(t, 2, summary.Mismatches)
	assert.Equal(t, 1, summary.BySeverity[models.SeverityWarning])
	assert.Equal(t, 1, summary.BySeverity[models.SeverityInfo])

	assert.True(t, summary.HasAbove(models.SeverityWarning))
	assert.True(t, summary.HasAbove(models.SeverityInfo))
	assert.False(t, summary.HasAbove(models.SeverityCritical))
}

func TestNew(t *testing.T) {
	for _, format := range []string{"", "console", "markdown", "json"} {
		r, err := report.New(format)
		require.NoError(t, err)
		require.NotNil(t, r)
	}
	_, err := report.New("pdf")
	assert.Error(t, err)
}

func TestJSONReport(t *testing.T) {
	r, err := report.New("json")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, sampleChains()))

	var doc struct {
		Summary struct {
			Chains     int            `json:"chains"`
			Mismatches int            `json:"mismatches"`
			BySeverity map[string]int `json:"bySeverity"`
		} `json:"summary"`
		Chains []struct {
			Fingerprint string `json:"fingerprint"`
		} `json:"chains"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 2, doc.Summary.Chains)
	assert.Equal(t, 2, doc.Summary.Mismatches)
	assert.Equal(t, 1, doc.Summary.BySeverity["warning"])
	require.Len(t, doc.Chains, 2)
	assert.Len(t, doc.Chains[0].Fingerprint, 16)
	assert.NotEqual(t, doc.Chains[0].Fingerprint, doc.Chains[1].Fingerprint)
}

func TestFingerprint_Stable(t *testing.T) {
	chains := sampleChains()
	first := report.Fingerprint(chains[0])
	again := report.Fingerprint(chains[0])
	assert.Equal(t, first, again)

	// run-local ids and contract outcomes do not reidentify a chain
	relabeled := *chains[0]
	relabeled.ID = "chain-99"
	relabeled.Contracts = nil
	assert.Equal(t, first, report.Fingerprint(&relabeled))

	assert.NotEqual(t, first, report.Fingerprint(chains[1]))
}

func TestMarkdownReport(t *testing.T) {
	r, err := report.New("markdown")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, sampleChains()))
	out := buf.String()

	assert.True(t, strings.Contains(out, "POST /items/"))
	assert.True(t, strings.Contains(out, "price"))
}

func TestConsoleReport(t *testing.T) {
	r, err := report.New("console")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, sampleChains()))
	assert.Contains(t, buf.String(), "POST /items/")
}
