package models

// ChainDirection is the way data flows through a chain.
type ChainDirection string

const (
	FrontendToBackend ChainDirection = "frontend-to-backend"
	BackendToFrontend ChainDirection = "backend-to-frontend"
)

// ChainType classifies how much of the stack a chain spans.
type ChainType string

const (
	// ChainFull crosses the frontend/backend boundary.
	ChainFull ChainType = "full"
	// ChainFrontendInternal stays within frontend code.
	ChainFrontendInternal ChainType = "frontend-internal"
	// ChainBackendInternal stays within backend code.
	ChainBackendInternal ChainType = "backend-internal"
)

// LinkType is the role a link plays within a chain.
type LinkType string

const (
	LinkSource      LinkType = "source"
	LinkTransformer LinkType = "transformer"
	LinkSink        LinkType = "sink"
)

// Link is one step of a data chain: a graph node together with the schema
// the data has at that point. A link whose schema could not be determined
// carries a sentinel any/unknown reference rather than being dropped.
type Link struct {
	ID        string           `json:"id"`
	LinkType  LinkType         `json:"linkType"`
	Location  Location         `json:"location"`
	NodeID    int              `json:"nodeId"`
	SchemaRef *SchemaReference `json:"schemaRef"`
}

// DataChain traces one piece of data from its origin to its destination.
// Links are ordered causally: source first, sink last. Contracts hold the
// checker results for every consecutive link junction.
type DataChain struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Links     []Link         `json:"links"`
	Contracts []Contract     `json:"contracts"`
	Direction ChainDirection `json:"direction"`
	ChainType ChainType      `json:"chainType"`
}

// MaxSeverity returns the highest contract severity in the chain,
// SeverityInfo when the chain has no contracts.
func (c *DataChain) MaxSeverity() Severity {
	max := SeverityInfo
	for _, contract := range c.Contracts {
		if contract.Severity.Above(max) {
			max = contract.Severity
		}
	}
	return max
}
