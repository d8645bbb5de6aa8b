package models

// Location points at a position in a source file. Line numbers are 1-based;
// Column is 0 when unknown.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// NewLocation creates a location without column information.
func NewLocation(file string, line int) Location {
	return Location{File: file, Line: line}
}
