package models

// Severity ranks how badly a mismatch can bite at runtime.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityCritical:
		return 2
	}
	return 0
}

// Above reports whether s outranks other.
func (s Severity) Above(other Severity) bool {
	return s.rank() > other.rank()
}

// MismatchType classifies a single discrepancy between two schemas.
type MismatchType string

const (
	TypeMismatch       MismatchType = "type-mismatch"
	MissingField       MismatchType = "missing-field"
	ExtraField         MismatchType = "extra-field"
	ValidationMismatch MismatchType = "validation-mismatch"
	UnnormalizedData   MismatchType = "unnormalized-data"
	MissingSchema      MismatchType = "missing-schema"
)

// Mismatch is one discrepancy found at a link junction. Path is the dotted
// field path within the schema ("price", "client.name"); empty for
// schema-level findings.
type Mismatch struct {
	MismatchType MismatchType `json:"mismatchType"`
	Path         string       `json:"path"`
	Expected     TypeInfo     `json:"expected"`
	Actual       TypeInfo     `json:"actual"`
	Location     Location     `json:"location"`
	Message      string       `json:"message"`
	Severity     Severity     `json:"severity"`
}

// Contract is the comparison result between the schemas at two ends of one
// link-to-link junction. Severity is the maximum severity across its
// mismatches, SeverityInfo when there are none.
type Contract struct {
	FromLinkID string           `json:"fromLinkId"`
	ToLinkID   string           `json:"toLinkId"`
	FromSchema *SchemaReference `json:"fromSchema"`
	ToSchema   *SchemaReference `json:"toSchema"`
	Mismatches []Mismatch       `json:"mismatches"`
	Severity   Severity         `json:"severity"`
}

// Finalize recomputes the contract severity from its mismatches.
func (c *Contract) Finalize() {
	c.Severity = SeverityInfo
	for _, m := range c.Mismatches {
		if m.Severity.Above(c.Severity) {
			c.Severity = m.Severity
		}
	}
}
