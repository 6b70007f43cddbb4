package runtime

import (
	"log/slog"
	"strings"

	"github.com/creedlang/creed/lang"
)

// ParseValue evaluates a standalone creed expression with no instance in
// scope. It accepts anything a field initializer could, such as "Money(300)"
// or "-2.5", but names cannot resolve. Command handlers use it to turn
// textual arguments into values.
func ParseValue(src string) (Value, error) {
	expr, diags := lang.ParseExpr(src)
	if len(diags) > 0 {
		return Null(), lang.ErrParse.With(slog.String("detail", joinDiagnostics(diags)))
	}

	ev := &evaluator{}

	return ev.eval(expr)
}

func joinDiagnostics(diags []lang.Diagnostic) string {
	msgs := make([]string, len(diags))
	for i, d := range diags {
		msgs[i] = d.String()
	}

	return strings.Join(msgs, "; ")
}
