package lang

import "fmt"

// Kind identifies the lexical class of a [Token].
type Kind int

const (
	// Meta / control.
	KindEOF Kind = iota
	KindNewline
	KindError

	// Identifiers and literals.
	KindIdent    // field, state, clause, and parameter names
	KindTypeName // unit constructors: Money, Mass, ...
	KindNumber
	KindString

	// Declaration keywords.
	KindBlueprint
	KindStarts
	KindCanBe
	KindWhen
	KindLaw
	KindEnd

	// Guard keywords.
	KindBlock
	KindIf
	KindMust
	KindOtherwise

	// Action keywords.
	KindSet
	KindTo
	KindMake
	KindChange
	KindBy
	KindCalc
	KindAs
	KindMemo

	// Terminal keywords.
	KindFin
	KindFinfr

	// Operator keywords and comparators.
	KindIs
	KindAbove
	KindBelow
	KindWithin
	KindIn
	KindAnd
	KindPlus
	KindMinus
	KindTimes
	KindDiv
	KindMod

	// Miscellaneous keywords.
	KindAt
	KindEmpty
	KindRatio

	// Punctuation.
	KindDot
	KindColon
	KindComma
	KindLParen
	KindRParen
	KindAmp     // & string concatenation
	KindJoin    // + natural (space-separated) concatenation
	KindOpMinus // bare '-' not followed by a digit
)

// kindNames maps each Kind to its display name for diagnostics.
//
//nolint:gochecknoglobals
var kindNames = map[Kind]string{
	KindEOF:       "end of input",
	KindNewline:   "newline",
	KindError:     "error",
	KindIdent:     "identifier",
	KindTypeName:  "type name",
	KindNumber:    "number",
	KindString:    "string",
	KindBlueprint: "blueprint",
	KindStarts:    "starts",
	KindCanBe:     "can_be",
	KindWhen:      "when",
	KindLaw:       "law",
	KindEnd:       "end",
	KindBlock:     "block",
	KindIf:        "if",
	KindMust:      "must",
	KindOtherwise: "otherwise",
	KindSet:       "set",
	KindTo:        "to",
	KindMake:      "make",
	KindChange:    "change",
	KindBy:        "by",
	KindCalc:      "calc",
	KindAs:        "as",
	KindMemo:      "memo",
	KindFin:       "fin",
	KindFinfr:     "finfr",
	KindIs:        "is",
	KindAbove:     "above",
	KindBelow:     "below",
	KindWithin:    "within",
	KindIn:        "in",
	KindAnd:       "and",
	KindPlus:      "plus",
	KindMinus:     "minus",
	KindTimes:     "times",
	KindDiv:       "div",
	KindMod:       "mod",
	KindAt:        "at",
	KindEmpty:     "empty",
	KindRatio:     "ratio",
	KindDot:       ".",
	KindColon:     ":",
	KindComma:     ",",
	KindLParen:    "(",
	KindRParen:    ")",
	KindAmp:       "&",
	KindJoin:      "+",
	KindOpMinus:   "-",
}

// String returns the display name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// keywords maps reserved words to their token kinds. Identifiers are
// lowercase; anything starting with an uppercase letter is a [KindTypeName]
// and never consults this table.
//
//nolint:gochecknoglobals
var keywords = map[string]Kind{
	"blueprint": KindBlueprint,
	"starts":    KindStarts,
	"can_be":    KindCanBe,
	"when":      KindWhen,
	"law":       KindLaw,
	"end":       KindEnd,
	"block":     KindBlock,
	"if":        KindIf,
	"must":      KindMust,
	"otherwise": KindOtherwise,
	"set":       KindSet,
	"to":        KindTo,
	"make":      KindMake,
	"change":    KindChange,
	"by":        KindBy,
	"calc":      KindCalc,
	"as":        KindAs,
	"memo":      KindMemo,
	"fin":       KindFin,
	"finfr":     KindFinfr,
	"is":        KindIs,
	"above":     KindAbove,
	"below":     KindBelow,
	"within":    KindWithin,
	"in":        KindIn,
	"and":       KindAnd,
	"plus":      KindPlus,
	"minus":     KindMinus,
	"times":     KindTimes,
	"div":       KindDiv,
	"mod":       KindMod,
	"at":        KindAt,
	"empty":     KindEmpty,
	"ratio":     KindRatio,
}

// Token is the unified lexical unit produced by the [Lexer] and consumed by
// the parser. Number tokens carry their decoded value in Value; Error tokens
// carry a diagnostic message in Lexeme.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Value  float64 // decoded literal for KindNumber
}

// String renders the token for diagnostics and trace logging.
func (t Token) String() string {
	switch t.Kind {
	case KindNewline:
		return fmt.Sprintf("%s at line %d", t.Kind, t.Line)
	case KindEOF:
		return t.Kind.String()
	default:
		return fmt.Sprintf("%s(%q) at line %d", t.Kind, t.Lexeme, t.Line)
	}
}
