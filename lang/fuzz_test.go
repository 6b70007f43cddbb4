package lang

import (
	"testing"
	"unicode/utf8"
)

// FuzzLexer checks that no input makes the lexer panic or loop forever.
func FuzzLexer(f *testing.F) {
	f.Add("blueprint Account")
	f.Add("starts balance at Money(1000)")
	f.Add("law no_overdraft : balance below Money(0)")
	f.Add("change balance by minus -5.5")
	f.Add(`finfr "unterminated`)
	f.Add("# comment only\n")
	f.Add("ratio(f, g, 0.5)")
	f.Add(`memo "a" & "b" + "c"`)

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		lex := NewLexer(input)

		// Generous bound: every token consumes at least one byte.
		for range len(input) + 2 {
			if lex.Next().Kind == KindEOF {
				return
			}
		}

		t.Errorf("lexer did not reach EOF on %q", input)
	})
}

// FuzzParse checks that arbitrary input produces diagnostics, never panics,
// and that any recovered blueprint formats to reparseable source.
func FuzzParse(f *testing.F) {
	f.Add(accountSource)
	f.Add("blueprint T\nend\n")
	f.Add("when orphan\nfin\n")
	f.Add("blueprint T\nstarts x at\nend\n")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		bp, _ := Parse(input)
		if bp == nil {
			return
		}

		if again, _ := Parse(Format(bp)); again == nil {
			t.Errorf("formatted blueprint does not reparse:\n%s", Format(bp))
		}
	})
}
