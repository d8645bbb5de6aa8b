// Package report renders finished data chains. Renderers format what they
// are given and never re-derive chains or mismatches.
package report

import (
	"fmt"
	"io"

	"github.com/Sett11/dc-verifier-sub001/models"
)

// Reporter renders a chain list to a writer.
type Reporter interface {
	Write(w io.Writer, chains []*models.DataChain) error
}

// New returns the reporter for a configured format name.
func New(format string) (Reporter, error) {
	switch format {
	case "", "console":
		return &Console{}, nil
	case "markdown":
		return &Markdown{}, nil
	case "json":
		return &JSON{}, nil
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

// Summary aggregates mismatch counts across chains.
type Summary struct {
	Chains     int
	Contracts  int
	Mismatches int
	BySeverity map[models.Severity]int
}

// Summarize counts chains, contracts, and mismatches by severity.
func Summarize(chains []*models.DataChain) Summary {
	summary := Summary{
		Chains:     len(chains),
		BySeverity: map[models.Severity]int{},
	}
	for _, chain := range chains {
		summary.Contracts += len(chain.Contracts)
		for _, contract := range chain.Contracts {
			summary.Mismatches += len(contract.Mismatches)
			for _, mismatch := range contract.Mismatches {
				summary.BySeverity[mismatch.Severity]++
			}
		}
	}
	return summary
}

// HasAbove reports whether any mismatch reaches the given severity.
func (s Summary) HasAbove(threshold models.Severity) bool {
	for severity, count := range s.BySeverity {
		if count > 0 && (severity == threshold || severity.Above(threshold)) {
			return true
		}
	}
	return false
}
