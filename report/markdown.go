package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Sett11/dc-verifier-sub001/models"
)

// Markdown renders chains as a Markdown document.
type Markdown struct{}

func (m *Markdown) Write(w io.Writer, chains []*models.DataChain) error {
	summary := Summarize(chains)
	var b strings.Builder

	b.WriteString("# Data Contract Report\n\n")
	fmt.Fprintf(&b, "Chains: %d, contracts: %d, mismatches: %d", summary.Chains, summary.Contracts, summary.Mismatches)
	if summary.Mismatches > 0 {
		fmt.Fprintf(&b, " (critical: %d, warning: %d, info: %d)",
			summary.BySeverity[models.SeverityCritical],
			summary.BySeverity[models.SeverityWarning],
			summary.BySeverity[models.SeverityInfo])
	}
	b.WriteString("\n\n")

	for _, chain := range chains {
		fmt.Fprintf(&b, "## %s\n\n", chain.Name)
		fmt.Fprintf(&b, "- type: %s, direction: %s, severity: %s\n", chain.ChainType, chain.Direction, chain.MaxSeverity())
		for _, link := range chain.Links {
			fmt.Fprintf(&b, "- %s: `%s` (%s:%d)\n", link.LinkType, link.SchemaRef.Name, link.Location.File, link.Location.Line)
		}
		b.WriteString("\n")
		for _, contract := range chain.Contracts {
			if len(contract.Mismatches) == 0 {
				continue
			}
			fmt.Fprintf(&b, "### %s -> %s\n\n", contract.FromSchema.Name, contract.ToSchema.Name)
			b.WriteString("| Severity | Type | Path | Message |\n|---|---|---|---|\n")
			for _, mismatch := range contract.Mismatches {
				fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
					mismatch.Severity, mismatch.MismatchType, mismatch.Path, mismatch.Message)
			}
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
