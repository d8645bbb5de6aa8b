package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/Sett11/dc-verifier-sub001/models"
)

// Console renders chains for a terminal, coloring mismatches by severity.
type Console struct{}

var (
	criticalColor = color.New(color.FgRed, color.Bold)
	warningColor  = color.New(color.FgYellow)
	infoColor     = color.New(color.FgCyan)
	okColor       = color.New(color.FgGreen)
	headerColor   = color.New(color.Bold)
)

func severityColor(severity models.Severity) *color.Color {
	switch severity {
	case models.SeverityCritical:
		return criticalColor
	case models.SeverityWarning:
		return warningColor
	}
	return infoColor
}

func (c *Console) Write(w io.Writer, chains []*models.DataChain) error {
	for _, chain := range chains {
		headerColor.Fprintf(w, "%s", chain.Name)
		fmt.Fprintf(w, "  [%s, %s]\n", chain.ChainType, chain.Direction)
		for _, link := range chain.Links {
			fmt.Fprintf(w, "  %-11s %s  %s:%d\n",
				link.LinkType, link.SchemaRef.Name, link.Location.File, link.Location.Line)
		}
		clean := true
		for _, contract := range chain.Contracts {
			for _, mismatch := range contract.Mismatches {
				clean = false
				severityColor(mismatch.Severity).Fprintf(w, "  %s", mismatch.Severity)
				fmt.Fprintf(w, " %s", mismatch.MismatchType)
				if mismatch.Path != "" {
					fmt.Fprintf(w, " at %s", mismatch.Path)
				}
				fmt.Fprintf(w, ": %s\n", mismatch.Message)
			}
		}
		if clean && len(chain.Contracts) > 0 {
			okColor.Fprintln(w, "  contracts hold")
		}
		fmt.Fprintln(w)
	}

	summary := Summarize(chains)
	headerColor.Fprintf(w, "%d chains, %d contracts, %d mismatches", summary.Chains, summary.Contracts, summary.Mismatches)
	if summary.Mismatches > 0 {
		fmt.Fprintf(w, " (critical: %d, warning: %d, info: %d)",
			summary.BySeverity[models.SeverityCritical],
			summary.BySeverity[models.SeverityWarning],
			summary.BySeverity[models.SeverityInfo])
	}
	fmt.Fprintln(w)
	return nil
}
