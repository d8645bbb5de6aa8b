package analyzer

import (
	"github.com/Sett11/dc-verifier-sub001/models"
)

// Checker runs a fixed rule set over contracts. Rules run in registration
// order and their outputs are concatenated, so checking the same pair of
// schemas twice yields the same mismatch list in the same order.
type Checker struct {
	rules []Rule
}

// NewChecker builds a checker with the default rule set under the given
// policy.
func NewChecker(policy Policy) *Checker {
	return &Checker{
		rules: []Rule{
			&MissingSchemaRule{Severity: policy.MissingSchema},
			&TypeMismatchRule{Severity: policy.TypeMismatch},
			&MissingFieldRule{Severity: policy.MissingField},
			&ExtraFieldRule{Severity: policy.ExtraField},
			&UnnormalizedDataRule{Severity: policy.Unnormalized},
		},
	}
}

// AddRule appends a custom rule after the default set.
func (c *Checker) AddRule(rule Rule) {
	c.rules = append(c.rules, rule)
}

// CheckContract runs every rule against the contract, appending the
// findings and recomputing the contract severity.
func (c *Checker) CheckContract(contract *models.Contract) {
	for _, rule := range c.rules {
		contract.Mismatches = append(contract.Mismatches, rule.Check(contract)...)
	}
	contract.Finalize()
}

// CompareSchemas checks two bare schema references against the rule set by
// wrapping them in a throwaway contract.
func (c *Checker) CompareSchemas(from, to *models.SchemaReference) *models.Contract {
	contract := &models.Contract{
		FromSchema: from,
		ToSchema:   to,
		Severity:   models.SeverityInfo,
	}
	c.CheckContract(contract)
	return contract
}
