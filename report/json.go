package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/highwayhash"

	"github.com/Sett11/dc-verifier-sub001/models"
)

// fingerprintKey seeds the chain fingerprints. Fixed so fingerprints are
// comparable between runs and machines.
var fingerprintKey = []byte("dcverify.chain.fingerprint.key!!")

// JSON renders chains as a machine-readable document. Each chain carries a
// content fingerprint stable across runs, so downstream tooling can diff
// reports without relying on run-local chain ids.
type JSON struct{}

type jsonDocument struct {
	Summary jsonSummary `json:"summary"`
	Chains  []jsonChain `json:"chains"`
}

type jsonSummary struct {
	Chains     int            `json:"chains"`
	Contracts  int            `json:"contracts"`
	Mismatches int            `json:"mismatches"`
	BySeverity map[string]int `json:"bySeverity"`
}

type jsonChain struct {
	Fingerprint string            `json:"fingerprint"`
	Chain       *models.DataChain `json:"chain"`
}

func (j *JSON) Write(w io.Writer, chains []*models.DataChain) error {
	summary := Summarize(chains)
	doc := jsonDocument{
		Summary: jsonSummary{
			Chains:     summary.Chains,
			Contracts:  summary.Contracts,
			Mismatches: summary.Mismatches,
			BySeverity: map[string]int{},
		},
	}
	for severity, count := range summary.BySeverity {
		doc.Summary.BySeverity[string(severity)] = count
	}
	for _, chain := range chains {
		doc.Chains = append(doc.Chains, jsonChain{
			Fingerprint: Fingerprint(chain),
			Chain:       chain,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// Fingerprint hashes a chain's identity-bearing content: name, direction,
// link schemas and locations. Contracts are excluded so a severity policy
// change does not reidentify the chain.
func Fingerprint(chain *models.DataChain) string {
	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return ""
	}
	fmt.Fprintf(hash, "%s|%s|%s", chain.Name, chain.Direction, chain.ChainType)
	for _, link := range chain.Links {
		fmt.Fprintf(hash, "|%s:%s:%s:%d",
			link.LinkType, link.SchemaRef.Name, link.Location.File, link.Location.Line)
	}
	return fmt.Sprintf("%016x", hash.Sum64())
}
