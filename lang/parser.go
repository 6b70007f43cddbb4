package lang

import (
	"fmt"
)

// Parse parses creed source text into a [Blueprint] and a list of
// diagnostics. The blueprint is nil only when no blueprint declaration could
// be recovered at all; otherwise the tree is as complete as the input allows,
// with one diagnostic per malformed construct.
func Parse(src string) (*Blueprint, []Diagnostic) {
	p := &parser{lex: NewLexer(src)}

	// Load two tokens so cur/peek are valid.
	p.advance()
	p.advance()

	bp := p.parseBlueprint()

	return bp, p.diags
}

// ParseExpr parses a single expression, such as an argument value given on a
// command line. Trailing input after the expression is a diagnostic.
func ParseExpr(src string) (Expr, []Diagnostic) {
	p := &parser{lex: NewLexer(src)}

	p.advance()
	p.advance()

	expr := p.parseExpr()

	p.skipNewlines()

	if !p.check(KindEOF) {
		p.report(p.cur.Line, "unexpected %s after expression", p.cur.Kind)
	}

	return expr, p.diags
}

// parser is a recursive-descent parser with one token of lookahead.
type parser struct {
	lex   *Lexer
	cur   Token
	peek  Token
	diags []Diagnostic
}

// advance shifts the lookahead window by one token. Lexical errors are
// recorded as diagnostics here so the grammar productions never see
// [KindError] tokens.
func (p *parser) advance() {
	p.cur = p.peek

	for {
		p.peek = p.lex.Next()
		if p.peek.Kind != KindError {
			return
		}

		p.report(p.peek.Line, "%s", p.peek.Lexeme)
	}
}

// check reports whether the current token has the given kind.
func (p *parser) check(kind Kind) bool { return p.cur.Kind == kind }

// match advances past the current token when it has one of the given kinds.
func (p *parser) match(kinds ...Kind) bool {
	for _, k := range kinds {
		if p.cur.Kind == k {
			p.advance()

			return true
		}
	}

	return false
}

// consume advances past a token of the required kind, or records a
// diagnostic and reports failure without advancing.
func (p *parser) consume(kind Kind) (Token, bool) {
	if p.cur.Kind == kind {
		tok := p.cur
		p.advance()

		return tok, true
	}

	p.report(p.cur.Line, "expected %s, found %s", kind, p.cur.Kind)

	return p.cur, false
}

// report records a diagnostic for the given line.
func (p *parser) report(line int, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

// synchronize skips tokens until a statement boundary (newline, consumed) or
// a structural keyword (left in place), bounding cascading errors to one
// diagnostic per malformed construct.
func (p *parser) synchronize() {
	for {
		switch p.cur.Kind {
		case KindEOF, KindBlueprint, KindWhen, KindLaw,
			KindFin, KindFinfr, KindEnd:
			return

		case KindNewline:
			p.advance()

			return

		default:
			p.advance()
		}
	}
}

// skipNewlines consumes any run of newline tokens.
func (p *parser) skipNewlines() {
	for p.cur.Kind == KindNewline {
		p.advance()
	}
}

// endStatement consumes the newline terminating a statement. EOF and the end
// keyword are tolerated so the final statement of a file needs no trailing
// newline.
func (p *parser) endStatement() {
	switch p.cur.Kind {
	case KindNewline:
		p.advance()

	case KindEOF, KindEnd:
		// tolerated

	default:
		p.report(p.cur.Line, "unexpected %s after statement", p.cur.Kind)
		p.synchronize()
	}
}

// parseBlueprint parses the single top-level declaration:
//
//	blueprint <Name> NEWLINE decl* end
func (p *parser) parseBlueprint() *Blueprint {
	p.skipNewlines()

	if _, ok := p.consume(KindBlueprint); !ok {
		p.synchronize()

		if !p.check(KindBlueprint) {
			return nil
		}

		p.advance()
	}

	bp := &Blueprint{Line: p.cur.Line}

	name, ok := p.consume(KindTypeName)
	if !ok {
		// A lowercase name still yields a usable tree.
		if p.check(KindIdent) {
			name = p.cur
			p.advance()
		} else {
			p.synchronize()
		}
	}

	bp.Name = name.Lexeme
	p.endStatement()

	for {
		p.skipNewlines()

		switch p.cur.Kind {
		case KindEnd:
			p.advance()

			return bp

		case KindEOF:
			p.report(p.cur.Line, "missing end for blueprint %s", bp.Name)

			return bp

		case KindStarts:
			if f := p.parseField(); f != nil {
				bp.Fields = append(bp.Fields, f)
			}

		case KindCanBe:
			if s := p.parseState(); s != nil {
				bp.States = append(bp.States, s)
			}

		case KindLaw:
			if l := p.parseLaw(); l != nil {
				bp.Laws = append(bp.Laws, l)
			}

		case KindWhen:
			if w := p.parseWhen(); w != nil {
				bp.Whens = append(bp.Whens, w)
			}

		default:
			p.report(p.cur.Line, "unexpected %s in blueprint body", p.cur.Kind)
			p.synchronize()
		}
	}
}

// parseField parses: starts IDENT (at|as) (expr | empty).
func (p *parser) parseField() *Field {
	line := p.cur.Line
	p.advance() // starts

	name, ok := p.consume(KindIdent)
	if !ok {
		p.synchronize()

		return nil
	}

	if !p.match(KindAt, KindAs) {
		p.report(p.cur.Line, "expected at or as after starts %s", name.Lexeme)
		p.synchronize()

		return nil
	}

	init := p.parseExpr()
	p.endStatement()

	return &Field{Name: name.Lexeme, Line: line, Init: init}
}

// parseState parses: can_be IDENT.
func (p *parser) parseState() *State {
	line := p.cur.Line
	p.advance() // can_be

	name, ok := p.consume(KindIdent)
	if !ok {
		p.synchronize()

		return nil
	}

	p.endStatement()

	return &State{Name: name.Lexeme, Line: line}
}

// parseLaw parses: law IDENT ":" expr. The expression names the forbidden
// condition; the runtime rolls back any clause after which it holds.
func (p *parser) parseLaw() *Law {
	line := p.cur.Line
	p.advance() // law

	name, ok := p.consume(KindIdent)
	if !ok {
		p.synchronize()

		return nil
	}

	if _, ok := p.consume(KindColon); !ok {
		p.synchronize()

		return nil
	}

	forbidden := p.parseExpr()
	p.endStatement()

	return &Law{Name: name.Lexeme, Line: line, Forbidden: forbidden}
}

// parseWhen parses a when-clause: header, body statements, and terminal.
func (p *parser) parseWhen() *WhenClause {
	line := p.cur.Line
	p.advance() // when

	name, ok := p.consume(KindIdent)
	if !ok {
		p.synchronize()

		return nil
	}

	w := &WhenClause{Name: name.Lexeme, Line: line}

	if p.match(KindLParen) {
		for p.check(KindIdent) {
			w.Params = append(w.Params, p.cur.Lexeme)
			p.advance()

			if !p.match(KindComma) {
				break
			}
		}

		if _, ok := p.consume(KindRParen); !ok {
			p.synchronize()
		}
	}

	p.endStatement()

	for {
		p.skipNewlines()

		switch p.cur.Kind {
		case KindFin:
			w.Terminal = Terminal{Kind: TerminalFin, Line: p.cur.Line}
			p.advance()
			p.endStatement()

			return w

		case KindFinfr:
			term := Terminal{Kind: TerminalFinfr, Line: p.cur.Line}
			p.advance()

			if p.check(KindString) {
				term.Message = p.cur.Lexeme
				p.advance()
			}

			w.Terminal = term
			p.endStatement()

			return w

		case KindEOF, KindEnd, KindWhen:
			p.report(line, "when %s has no terminal (fin or finfr)", w.Name)
			w.Terminal = Terminal{Kind: TerminalFin, Line: p.cur.Line}

			return w

		case KindBlock:
			if g := p.parseBlockGuard(); g != nil {
				w.Guards = append(w.Guards, g)
			}

		case KindMust:
			if g := p.parseMustGuard(); g != nil {
				w.Guards = append(w.Guards, g)
			}

		case KindSet:
			if a := p.parseSet(); a != nil {
				w.Actions = append(w.Actions, a)
			}

		case KindMake:
			if a := p.parseMake(); a != nil {
				w.Actions = append(w.Actions, a)
			}

		case KindChange:
			if a := p.parseChange(); a != nil {
				w.Actions = append(w.Actions, a)
			}

		case KindCalc:
			if a := p.parseCalc(); a != nil {
				w.Actions = append(w.Actions, a)
			}

		case KindMemo:
			if a := p.parseMemo(); a != nil {
				w.Actions = append(w.Actions, a)
			}

		default:
			p.report(p.cur.Line, "unexpected %s in when %s", p.cur.Kind, w.Name)
			p.synchronize()
		}
	}
}

// parseBlockGuard parses: block if expr.
func (p *parser) parseBlockGuard() *Guard {
	line := p.cur.Line
	p.advance() // block

	if _, ok := p.consume(KindIf); !ok {
		p.synchronize()

		return nil
	}

	cond := p.parseExpr()
	p.endStatement()

	return &Guard{Kind: GuardBlock, Line: line, Cond: cond}
}

// parseMustGuard parses: must expr [otherwise STRING].
func (p *parser) parseMustGuard() *Guard {
	line := p.cur.Line
	p.advance() // must

	g := &Guard{Kind: GuardMust, Line: line, Cond: p.parseExpr()}

	if p.match(KindOtherwise) {
		if msg, ok := p.consume(KindString); ok {
			g.Otherwise = msg.Lexeme
		} else {
			p.synchronize()

			return g
		}
	}

	p.endStatement()

	return g
}

// parseTarget parses an optionally qualified field target:
// IDENT | (IDENT|TYPENAME) "." IDENT.
func (p *parser) parseTarget() (object, field string, ok bool) {
	if !p.check(KindIdent) && !p.check(KindTypeName) {
		p.report(p.cur.Line, "expected field target, found %s", p.cur.Kind)

		return "", "", false
	}

	first := p.cur.Lexeme
	p.advance()

	if !p.match(KindDot) {
		return "", first, true
	}

	name, ok := p.consume(KindIdent)
	if !ok {
		return "", "", false
	}

	return first, name.Lexeme, true
}

// parseSet parses: set [obj "."] field to expr.
func (p *parser) parseSet() *Action {
	line := p.cur.Line
	p.advance() // set

	object, field, ok := p.parseTarget()
	if !ok {
		p.synchronize()

		return nil
	}

	if _, ok := p.consume(KindTo); !ok {
		p.synchronize()

		return nil
	}

	value := p.parseExpr()
	p.endStatement()

	return &Action{
		Kind:   ActionSet,
		Line:   line,
		Object: object,
		Field:  field,
		Value:  value,
	}
}

// parseMake parses: make target state.
func (p *parser) parseMake() *Action {
	line := p.cur.Line
	p.advance() // make

	if !p.check(KindIdent) && !p.check(KindTypeName) {
		p.report(p.cur.Line, "expected instance name, found %s", p.cur.Kind)
		p.synchronize()

		return nil
	}

	target := p.cur.Lexeme
	p.advance()

	state, ok := p.consume(KindIdent)
	if !ok {
		p.synchronize()

		return nil
	}

	p.endStatement()

	return &Action{
		Kind:   ActionMake,
		Line:   line,
		Object: target,
		Field:  state.Lexeme,
	}
}

// parseChange parses: change [obj "."] field by (plus|minus) expr.
func (p *parser) parseChange() *Action {
	line := p.cur.Line
	p.advance() // change

	object, field, ok := p.parseTarget()
	if !ok {
		p.synchronize()

		return nil
	}

	if _, ok := p.consume(KindBy); !ok {
		p.synchronize()

		return nil
	}

	var op Op

	switch p.cur.Kind {
	case KindPlus:
		op = OpPlus
	case KindMinus, KindOpMinus:
		op = OpMinus
	default:
		p.report(p.cur.Line, "expected plus or minus, found %s", p.cur.Kind)
		p.synchronize()

		return nil
	}

	p.advance()

	value := p.parseExpr()
	p.endStatement()

	return &Action{
		Kind:   ActionChange,
		Line:   line,
		Object: object,
		Field:  field,
		Op:     op,
		Value:  value,
	}
}

// parseCalc parses: calc expr as IDENT. The result binding is visible to
// subsequent statements in the same clause.
func (p *parser) parseCalc() *Action {
	line := p.cur.Line
	p.advance() // calc

	value := p.parseExpr()

	if _, ok := p.consume(KindAs); !ok {
		p.synchronize()

		return nil
	}

	name, ok := p.consume(KindIdent)
	if !ok {
		p.synchronize()

		return nil
	}

	p.endStatement()

	return &Action{Kind: ActionCalc, Line: line, Field: name.Lexeme, Value: value}
}

// parseMemo parses: memo expr.
func (p *parser) parseMemo() *Action {
	line := p.cur.Line
	p.advance() // memo

	value := p.parseExpr()
	p.endStatement()

	return &Action{Kind: ActionMemo, Line: line, Value: value}
}

// binaryOps maps operator tokens to AST operators. The table deliberately
// defines a single precedence tier; chains parse left-to-right.
//
//nolint:gochecknoglobals
var binaryOps = map[Kind]Op{
	KindIs:      OpIs,
	KindAbove:   OpAbove,
	KindBelow:   OpBelow,
	KindIn:      OpIn,
	KindAnd:     OpAnd,
	KindPlus:    OpPlus,
	KindMinus:   OpMinus,
	KindOpMinus: OpMinus,
	KindTimes:   OpTimes,
	KindDiv:     OpDiv,
	KindMod:     OpMod,
	KindAmp:     OpConcat,
	KindJoin:    OpJoin,
}

// parseExpr parses: primary (op primary)*. All binary operators share one
// precedence tier and associate left. "within" consumes an inclusive range:
// subject within low and high.
func (p *parser) parseExpr() Expr {
	expr := p.parsePrimary()

	for {
		if p.check(KindWithin) {
			line := p.cur.Line
			p.advance()

			low := p.parsePrimary()

			if _, ok := p.consume(KindAnd); !ok {
				p.synchronize()

				return expr
			}

			high := p.parsePrimary()

			expr = &RangeExpr{Line: line, Subject: expr, Low: low, High: high}

			continue
		}

		op, ok := binaryOps[p.cur.Kind]
		if !ok {
			return expr
		}

		line := p.cur.Line
		p.advance()

		right := p.parsePrimary()

		expr = &BinaryExpr{Line: line, Op: op, Left: expr, Right: right}
	}
}

// parsePrimary parses literals, identifiers, dotted field access, unit
// constructors, the ratio primitive, and parenthesized expressions.
func (p *parser) parsePrimary() Expr {
	tok := p.cur

	switch tok.Kind {
	case KindNumber:
		p.advance()

		return &Literal{Line: tok.Line, Kind: LitNumber, Num: tok.Value}

	case KindString:
		p.advance()

		return &Literal{Line: tok.Line, Kind: LitString, Str: tok.Lexeme}

	case KindEmpty:
		p.advance()

		return &Literal{Line: tok.Line, Kind: LitEmpty}

	case KindRatio:
		return p.parseRatio()

	case KindTypeName:
		return p.parseTypeNamePrimary()

	case KindIdent:
		p.advance()

		if p.match(KindDot) {
			field, ok := p.consume(KindIdent)
			if !ok {
				return &Ident{Line: tok.Line, Name: tok.Lexeme}
			}

			return &FieldAccess{
				Line:   tok.Line,
				Object: tok.Lexeme,
				Field:  field.Lexeme,
			}
		}

		return &Ident{Line: tok.Line, Name: tok.Lexeme}

	case KindLParen:
		p.advance()

		expr := p.parseExpr()

		if _, ok := p.consume(KindRParen); !ok {
			p.synchronize()
		}

		return expr

	default:
		p.report(tok.Line, "expected expression, found %s", tok.Kind)
		p.advance()

		return &Literal{Line: tok.Line, Kind: LitEmpty}
	}
}

// parseTypeNamePrimary parses "Money(expr)" unit constructors and
// "Object.field" accesses whose object is capitalized.
func (p *parser) parseTypeNamePrimary() Expr {
	tok := p.cur
	p.advance()

	switch {
	case p.match(KindLParen):
		arg := p.parseExpr()

		if _, ok := p.consume(KindRParen); !ok {
			p.synchronize()
		}

		return &UnitExpr{Line: tok.Line, TypeName: tok.Lexeme, Arg: arg}

	case p.match(KindDot):
		field, ok := p.consume(KindIdent)
		if !ok {
			return &Literal{Line: tok.Line, Kind: LitEmpty}
		}

		return &FieldAccess{
			Line:   tok.Line,
			Object: tok.Lexeme,
			Field:  field.Lexeme,
		}

	default:
		p.report(tok.Line, "expected ( or . after type name %s", tok.Lexeme)

		return &Literal{Line: tok.Line, Kind: LitEmpty}
	}
}

// parseRatio parses: ratio "(" expr "," expr ["," expr] ")".
func (p *parser) parseRatio() Expr {
	tok := p.cur
	p.advance() // ratio

	if _, ok := p.consume(KindLParen); !ok {
		p.synchronize()

		return &Literal{Line: tok.Line, Kind: LitEmpty}
	}

	f := p.parseExpr()

	if _, ok := p.consume(KindComma); !ok {
		p.synchronize()

		return &Literal{Line: tok.Line, Kind: LitEmpty}
	}

	g := p.parseExpr()

	r := &RatioExpr{Line: tok.Line, F: f, G: g}

	if p.match(KindComma) {
		r.Threshold = p.parseExpr()
	}

	if _, ok := p.consume(KindRParen); !ok {
		p.synchronize()
	}

	return r
}
