package callgraph

import "github.com/Sett11/dc-verifier-sub001/models"

// DecoratorTargetKind says what declaration a decorator is attached to.
type DecoratorTargetKind string

const (
	TargetFunction  DecoratorTargetKind = "function"
	TargetClass     DecoratorTargetKind = "class"
	TargetMethod    DecoratorTargetKind = "method"
	TargetParameter DecoratorTargetKind = "parameter"
)

// Decorator is one raw decorator/annotation fact as delivered by a language
// frontend: name, arguments and the declaration it targets. Keyword
// arguments (response_model=ItemRead) are kept separate from positional
// ones.
type Decorator struct {
	Name            string
	Arguments       []string
	KeywordArgs     map[string]string
	Location        models.Location
	TargetKind      DecoratorTargetKind
	Target          string
	TargetClass     string
	TargetParameter string
}

// Argument returns the positional argument at idx, "" when absent.
func (d *Decorator) Argument(idx int) string {
	if idx < 0 || idx >= len(d.Arguments) {
		return ""
	}
	return d.Arguments[idx]
}
