/*
Package transform implements the transformation resolution pipeline: parsing
explicit transformations from URL query parameters, deriving automatic ones
from policy outputs and client hints, evaluating header-gated conditionals,
and merging everything into a single conflict-resolved list with a hard cap.

A transformation carries its provenance: url for explicit query parameters,
policy for entries authored in the matched transformation policy and auto
for client-hint derived optimizations. After the precedence merge, a list
contains at most one entry per transformation type.
*/
package transform

// Source identifies where a transformation came from.
type Source string

const (
	SourceURL    Source = "url"
	SourcePolicy Source = "policy"
	SourceAuto   Source = "auto"
)

// Operator is a conditional comparison operator.
type Operator string

const (
	OpEquals Operator = "equals"
	OpIsIn   Operator = "isIn"
)

// Conditional gates a transformation on a request header. Value holds
// either a single string or a list of strings used as an allow-list; equals
// and isIn share the "matches any member" semantics for lists.
type Conditional struct {
	Target   string   `yaml:"target"`
	Operator Operator `yaml:"operator"`
	Value    any      `yaml:"value"`
}

// Transformation is one concrete image edit instruction.
type Transformation struct {
	Type        string       `yaml:"type"`
	Value       any          `yaml:"value"`
	Source      Source       `yaml:"-"`
	Conditional *Conditional `yaml:"conditional,omitempty"`
}

// DPRRange maps a half-open device pixel ratio interval [MinDPR, MaxDPR) to
// a quality value.
type DPRRange struct {
	MinDPR  float64 `yaml:"min-dpr"`
	MaxDPR  float64 `yaml:"max-dpr"`
	Quality int     `yaml:"quality"`
}

// QualityOutput declares DPR driven quality selection.
type QualityOutput struct {
	Default int        `yaml:"default"`
	Ranges  []DPRRange `yaml:"ranges,omitempty"`
}

// FormatOutput declares the output format, either a concrete format name or
// "auto" for accept-header driven negotiation.
type FormatOutput struct {
	Value string `yaml:"value"`
}

// FormatAuto is the FormatOutput value that enables format negotiation.
const FormatAuto = "auto"

// AutosizeOutput declares the breakpoint widths for viewport driven
// downsizing.
type AutosizeOutput struct {
	Breakpoints []int `yaml:"breakpoints"`
}

// Outputs is the set of declarative optimization rules a policy may carry,
// one slot per output kind, each consumed independently by the
// auto-optimizer.
type Outputs struct {
	Quality  *QualityOutput  `yaml:"quality,omitempty"`
	Format   *FormatOutput   `yaml:"format,omitempty"`
	Autosize *AutosizeOutput `yaml:"autosize,omitempty"`
}
