package lang

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a blueprint back to canonical source text: one statement
// per line, two-space indentation, declarations grouped in the order fields,
// states, laws, when-clauses.
func Format(bp *Blueprint) string {
	var b strings.Builder

	fmt.Fprintf(&b, "blueprint %s\n", bp.Name)

	for _, f := range bp.Fields {
		fmt.Fprintf(&b, "  starts %s at %s\n", f.Name, FormatExpr(f.Init))
	}

	for _, s := range bp.States {
		fmt.Fprintf(&b, "  can_be %s\n", s.Name)
	}

	for _, l := range bp.Laws {
		fmt.Fprintf(&b, "  law %s : %s\n", l.Name, FormatExpr(l.Forbidden))
	}

	for _, w := range bp.Whens {
		b.WriteString(formatWhen(w))
	}

	b.WriteString("end\n")

	return b.String()
}

func formatWhen(w *WhenClause) string {
	var b strings.Builder

	fmt.Fprintf(&b, "  when %s", w.Name)

	if len(w.Params) > 0 {
		fmt.Fprintf(&b, "(%s)", strings.Join(w.Params, ", "))
	}

	b.WriteByte('\n')

	for _, g := range w.Guards {
		switch g.Kind {
		case GuardBlock:
			fmt.Fprintf(&b, "    block if %s\n", FormatExpr(g.Cond))

		case GuardMust:
			fmt.Fprintf(&b, "    must %s", FormatExpr(g.Cond))

			if g.Otherwise != "" {
				fmt.Fprintf(&b, " otherwise %q", g.Otherwise)
			}

			b.WriteByte('\n')
		}
	}

	for _, a := range w.Actions {
		fmt.Fprintf(&b, "    %s\n", formatAction(a))
	}

	switch w.Terminal.Kind {
	case TerminalFin:
		b.WriteString("    fin\n")

	case TerminalFinfr:
		if w.Terminal.Message != "" {
			fmt.Fprintf(&b, "    finfr %q\n", w.Terminal.Message)
		} else {
			b.WriteString("    finfr\n")
		}
	}

	return b.String()
}

func formatAction(a *Action) string {
	target := a.Field
	if a.Object != "" {
		target = a.Object + "." + a.Field
	}

	switch a.Kind {
	case ActionSet:
		return fmt.Sprintf("set %s to %s", target, FormatExpr(a.Value))

	case ActionMake:
		return fmt.Sprintf("make %s %s", a.Object, a.Field)

	case ActionChange:
		return fmt.Sprintf("change %s by %s %s",
			target, a.Op, FormatExpr(a.Value))

	case ActionCalc:
		return fmt.Sprintf("calc %s as %s", FormatExpr(a.Value), a.Field)

	case ActionMemo:
		return fmt.Sprintf("memo %s", FormatExpr(a.Value))
	}

	return ""
}

// FormatExpr renders an expression as canonical source text. Binary chains
// are emitted without parentheses; the single precedence tier makes the
// left-associative reading unambiguous.
func FormatExpr(e Expr) string {
	switch e := e.(type) {
	case *Literal:
		switch e.Kind {
		case LitNumber:
			return strconv.FormatFloat(e.Num, 'f', -1, 64)

		case LitString:
			return strconv.Quote(e.Str)

		case LitEmpty:
			return "empty"
		}

		return ""

	case *Ident:
		return e.Name

	case *FieldAccess:
		return e.Object + "." + e.Field

	case *UnitExpr:
		return fmt.Sprintf("%s(%s)", e.TypeName, FormatExpr(e.Arg))

	case *BinaryExpr:
		return fmt.Sprintf("%s %s %s",
			FormatExpr(e.Left), e.Op, FormatExpr(e.Right))

	case *RangeExpr:
		return fmt.Sprintf("%s within %s and %s",
			FormatExpr(e.Subject), FormatExpr(e.Low), FormatExpr(e.High))

	case *RatioExpr:
		if e.Threshold != nil {
			return fmt.Sprintf("ratio(%s, %s, %s)",
				FormatExpr(e.F), FormatExpr(e.G), FormatExpr(e.Threshold))
		}

		return fmt.Sprintf("ratio(%s, %s)", FormatExpr(e.F), FormatExpr(e.G))
	}

	return ""
}
