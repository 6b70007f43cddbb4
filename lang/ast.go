package lang

// The AST is a closed set of node variants rooted at a single [Blueprint].
// Nodes are immutable once the parser returns: every execution of a compiled
// program shares the same tree read-only.

// Blueprint is a type declaration bundling fields, states, laws, and
// when-clauses.
type Blueprint struct {
	Name   string
	Line   int
	Fields []*Field
	States []*State
	Laws   []*Law
	Whens  []*WhenClause
}

// When returns the when-clause with the given name, or nil.
func (b *Blueprint) When(name string) *WhenClause {
	for _, w := range b.Whens {
		if w.Name == name {
			return w
		}
	}

	return nil
}

// Law returns the law with the given name, or nil.
func (b *Blueprint) Law(name string) *Law {
	for _, l := range b.Laws {
		if l.Name == name {
			return l
		}
	}

	return nil
}

// HasState reports whether the blueprint declares the named boolean state.
func (b *Blueprint) HasState(name string) bool {
	for _, s := range b.States {
		if s.Name == name {
			return true
		}
	}

	return false
}

// Field is a named piece of instance state with an initial-value expression.
// A nil Init means the field starts empty (null).
type Field struct {
	Name string
	Line int
	Init Expr
}

// State declares a named boolean flag an instance can be placed into with
// the make action.
type State struct {
	Name string
	Line int
}

// Law is an invariant owned by the blueprint. Forbidden names the condition
// that must NOT hold after a mutating clause; if it evaluates truthy, the
// whole clause rolls back.
type Law struct {
	Name      string
	Line      int
	Forbidden Expr
}

// WhenClause is a named, parameterized atomic operation. Guards are collected
// separately from actions so that every guard is evaluated before any action
// runs, regardless of their textual order.
type WhenClause struct {
	Name     string
	Line     int
	Params   []string
	Guards   []*Guard
	Actions  []*Action
	Terminal Terminal
}

// GuardKind distinguishes the two guard forms.
type GuardKind int

const (
	// GuardBlock rejects when its condition evaluates truthy: "block if expr".
	GuardBlock GuardKind = iota
	// GuardMust rejects when its condition evaluates falsy:
	// "must expr otherwise msg".
	GuardMust
)

// Guard is a precondition checked before mutation.
type Guard struct {
	Kind      GuardKind
	Line      int
	Cond      Expr
	Otherwise string // rejection message for GuardMust, may be empty
}

// ActionKind distinguishes the mutating and binding statement forms.
type ActionKind int

const (
	ActionSet    ActionKind = iota // set [obj.]field to expr
	ActionMake                     // make target state
	ActionChange                   // change [obj.]field by plus|minus expr
	ActionCalc                     // calc expr as name
	ActionMemo                     // memo expr
)

// Action is one statement in a when-clause body. Field use depends on Kind:
//
//   - ActionSet:    Object (optional), Field, Value
//   - ActionMake:   Object (target instance), Field (state name)
//   - ActionChange: Object (optional), Field, Op (OpPlus or OpMinus), Value
//   - ActionCalc:   Field (result binding name), Value
//   - ActionMemo:   Value
type Action struct {
	Kind   ActionKind
	Line   int
	Object string
	Field  string
	Op     Op
	Value  Expr
}

// TerminalKind distinguishes the two terminal directives.
type TerminalKind int

const (
	// TerminalFin returns the last computed value as a normal outcome.
	TerminalFin TerminalKind = iota
	// TerminalFinfr declares the committed outcome a terminal failure.
	TerminalFinfr
)

// Terminal is the directive ending a when-clause body.
type Terminal struct {
	Kind    TerminalKind
	Line    int
	Message string // explicit message for TerminalFinfr, may be empty
}

// Op enumerates the binary operators. All operators share one precedence
// tier and associate left; "a plus b times c" is "(a plus b) times c".
type Op int

const (
	OpIs     Op = iota // equality
	OpAbove            // greater than
	OpBelow            // less than
	OpIn               // array membership
	OpAnd              // boolean conjunction
	OpPlus             // arithmetic addition
	OpMinus            // arithmetic subtraction
	OpTimes            // multiplication
	OpDiv              // division
	OpMod              // modulo
	OpConcat           // & joins strings with no separator
	OpJoin             // + joins with a single space
)

// opNames maps operators to their surface spelling for diagnostics.
//
//nolint:gochecknoglobals
var opNames = map[Op]string{
	OpIs:     "is",
	OpAbove:  "above",
	OpBelow:  "below",
	OpIn:     "in",
	OpAnd:    "and",
	OpPlus:   "plus",
	OpMinus:  "minus",
	OpTimes:  "times",
	OpDiv:    "div",
	OpMod:    "mod",
	OpConcat: "&",
	OpJoin:   "+",
}

// String returns the surface spelling of the operator.
func (o Op) String() string { return opNames[o] }

// Expr is the closed interface over expression node variants:
// [Literal], [Ident], [FieldAccess], [UnitExpr], [BinaryExpr], [RangeExpr],
// and [RatioExpr].
type Expr interface {
	exprNode()
	Pos() int
}

// LiteralKind tags the literal variants.
type LiteralKind int

const (
	LitNumber LiteralKind = iota
	LitString
	LitEmpty // the "empty" keyword: a null value
)

// Literal is a numeric, string, or empty literal.
type Literal struct {
	Line int
	Kind LiteralKind
	Num  float64
	Str  string
}

// Ident references a parameter, calc binding, field, or declared state.
type Ident struct {
	Line int
	Name string
}

// FieldAccess reads a field of a named instance: "Object.field". The object
// is resolved by the runtime against its instance store, never by pointer.
type FieldAccess struct {
	Line   int
	Object string
	Field  string
}

// UnitExpr constructs a typed-unit value: "Money(10)".
type UnitExpr struct {
	Line     int
	TypeName string
	Arg      Expr
}

// BinaryExpr applies Op to two operands.
type BinaryExpr struct {
	Line  int
	Op    Op
	Left  Expr
	Right Expr
}

// RangeExpr is the bounded-range comparison "subject within low and high"
// (inclusive on both ends).
type RangeExpr struct {
	Line    int
	Subject Expr
	Low     Expr
	High    Expr
}

// RatioExpr is the constraint primitive "ratio(f, g)" or
// "ratio(f, g, threshold)". A nil Threshold means the two-argument form.
type RatioExpr struct {
	Line      int
	F         Expr
	G         Expr
	Threshold Expr
}

func (*Literal) exprNode()     {}
func (*Ident) exprNode()       {}
func (*FieldAccess) exprNode() {}
func (*UnitExpr) exprNode()    {}
func (*BinaryExpr) exprNode()  {}
func (*RangeExpr) exprNode()   {}
func (*RatioExpr) exprNode()   {}

// Pos returns the source line of the node.
func (e *Literal) Pos() int     { return e.Line }
func (e *Ident) Pos() int       { return e.Line }
func (e *FieldAccess) Pos() int { return e.Line }
func (e *UnitExpr) Pos() int    { return e.Line }
func (e *BinaryExpr) Pos() int  { return e.Line }
func (e *RangeExpr) Pos() int   { return e.Line }
func (e *RatioExpr) Pos() int   { return e.Line }
