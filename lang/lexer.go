package lang

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Lexer converts creed source text into a stream of [Token] values.
//
// The lexer never fails: unrecognized input produces [KindError] tokens whose
// Lexeme holds a diagnostic message, and the caller decides how to proceed.
// Newlines are significant and emitted as [KindNewline] tokens; the parser
// uses them as statement terminators.
type Lexer struct {
	src  string
	pos  int // byte offset of the current rune
	next int // byte offset just past the current rune
	line int

	ch   rune // current rune, 0 at EOF
	done bool
}

// NewLexer returns a lexer positioned at the first rune of src.
func NewLexer(src string) *Lexer {
	l := &Lexer{src: src, line: 1}
	l.read()

	return l
}

// read advances to the next rune in the input.
func (l *Lexer) read() {
	if l.next >= len(l.src) {
		l.ch = 0
		l.pos = len(l.src)
		l.done = true

		return
	}

	r, w := utf8.DecodeRuneInString(l.src[l.next:])
	l.ch = r
	l.pos = l.next
	l.next += w
}

// peek returns the rune after the current one without advancing.
func (l *Lexer) peek() rune {
	if l.next >= len(l.src) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.next:])

	return r
}

// Next returns the next token. After the input is exhausted it returns
// [KindEOF] tokens indefinitely.
func (l *Lexer) Next() Token {
	l.skipBlanksAndComments()

	if l.done {
		return Token{Kind: KindEOF, Line: l.line}
	}

	line := l.line

	switch {
	case l.ch == '\n':
		l.read()
		l.line++

		return Token{Kind: KindNewline, Lexeme: "\n", Line: line}

	case l.ch == '"' || l.ch == '\'':
		return l.lexString()

	case unicode.IsDigit(l.ch):
		return l.lexNumber(l.pos)

	// A '-' glued to a digit is a signed numeric literal, not an operator.
	// "calc -5 plus 3" subtracts nothing; it adds 3 to negative five.
	case l.ch == '-' && unicode.IsDigit(l.peek()):
		start := l.pos
		l.read()

		return l.lexNumber(start)

	case isIdentStart(l.ch):
		return l.lexWord()

	default:
		return l.lexPunct()
	}
}

// skipBlanksAndComments consumes spaces, tabs, carriage returns, and '#'
// line comments, stopping at newlines so they surface as tokens.
func (l *Lexer) skipBlanksAndComments() {
	for !l.done {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.read()

		case l.ch == '#':
			for !l.done && l.ch != '\n' {
				l.read()
			}

		default:
			return
		}
	}
}

// lexString scans a single- or double-quoted string literal. There is no
// escape processing: the literal ends at the first matching quote.
func (l *Lexer) lexString() Token {
	line := l.line
	quote := l.ch
	l.read() // opening quote

	start := l.pos
	for !l.done && l.ch != quote && l.ch != '\n' {
		l.read()
	}

	if l.done || l.ch == '\n' {
		return Token{
			Kind:   KindError,
			Lexeme: "unterminated string literal",
			Line:   line,
		}
	}

	text := l.src[start:l.pos]
	l.read() // closing quote

	return Token{Kind: KindString, Lexeme: text, Line: line}
}

// lexNumber scans the integer and optional fractional part beginning at
// start, which may point at a leading '-' already consumed by the caller.
func (l *Lexer) lexNumber(start int) Token {
	line := l.line

	for !l.done && unicode.IsDigit(l.ch) {
		l.read()
	}

	if l.ch == '.' && unicode.IsDigit(l.peek()) {
		l.read() // '.'

		for !l.done && unicode.IsDigit(l.ch) {
			l.read()
		}
	}

	text := l.src[start:l.pos]

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{
			Kind:   KindError,
			Lexeme: "malformed number " + strconv.Quote(text),
			Line:   line,
		}
	}

	return Token{Kind: KindNumber, Lexeme: text, Line: line, Value: value}
}

// lexWord scans an identifier, keyword, or type name. Lowercase words are
// checked against the keyword table; words starting with an uppercase letter
// are unit type names (Money, Mass, ...).
func (l *Lexer) lexWord() Token {
	line := l.line
	start := l.pos

	upper := unicode.IsUpper(l.ch)

	for !l.done && isIdentPart(l.ch) {
		l.read()
	}

	text := l.src[start:l.pos]

	if upper {
		return Token{Kind: KindTypeName, Lexeme: text, Line: line}
	}

	if kind, ok := keywords[text]; ok {
		return Token{Kind: kind, Lexeme: text, Line: line}
	}

	return Token{Kind: KindIdent, Lexeme: text, Line: line}
}

// lexPunct scans single-rune punctuation and operators.
func (l *Lexer) lexPunct() Token {
	line := l.line
	ch := l.ch
	l.read()

	switch ch {
	case '.':
		return Token{Kind: KindDot, Lexeme: ".", Line: line}
	case ':':
		return Token{Kind: KindColon, Lexeme: ":", Line: line}
	case ',':
		return Token{Kind: KindComma, Lexeme: ",", Line: line}
	case '(':
		return Token{Kind: KindLParen, Lexeme: "(", Line: line}
	case ')':
		return Token{Kind: KindRParen, Lexeme: ")", Line: line}
	case '&':
		return Token{Kind: KindAmp, Lexeme: "&", Line: line}
	case '+':
		return Token{Kind: KindJoin, Lexeme: "+", Line: line}
	case '-':
		return Token{Kind: KindOpMinus, Lexeme: "-", Line: line}
	default:
		return Token{
			Kind:   KindError,
			Lexeme: "unexpected character " + strconv.QuoteRune(ch),
			Line:   line,
		}
	}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
