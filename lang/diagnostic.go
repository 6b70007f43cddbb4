package lang

import "fmt"

// Diagnostic reports one malformed construct found during lexing or parsing.
// Diagnostics are line-oriented: synchronization bounds cascading errors to
// one diagnostic per construct.
type Diagnostic struct {
	Line    int    `json:"line"    yaml:"line"`
	Message string `json:"message" yaml:"message"`
}

// String renders the diagnostic in the conventional "line N: message" form.
func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}
