// Package lang implements the front end of the creed constraint language:
// lexer, recursive-descent parser, AST, validation, and a canonical
// formatter.
//
// # Grammar
//
// Informal EBNF; statements are newline-terminated and # starts a comment
// running to end of line:
//
//	Blueprint  → 'blueprint' TypeName NL Decl* 'end'
//	Decl       → Field | State | Law | When
//	Field      → 'starts' Ident ('at'|'as') Expr NL
//	State      → 'can_be' Ident NL
//	Law        → 'law' Ident ':' Expr NL
//	When       → 'when' Ident ['(' Ident (',' Ident)* ')'] NL
//	             (Guard | Action)* Terminal
//	Guard      → 'block' 'if' Expr NL | 'must' Expr ['otherwise' String] NL
//	Action     → 'set' Target 'to' Expr NL
//	           | 'make' Ident Ident NL
//	           | 'change' Target 'by' ('plus'|'minus') Expr NL
//	           | 'calc' Expr 'as' Ident NL
//	           | 'memo' Expr NL
//	Terminal   → 'fin' NL | 'finfr' [String] NL
//	Target     → [Ident '.'] Ident
//	Expr       → Primary (Op Primary | 'within' Primary 'and' Primary)*
//	Primary    → Number | String | 'empty' | Ident | Ident '.' Ident
//	           | TypeName '(' Expr ')' | 'ratio' '(' Args ')' | '(' Expr ')'
//
// All binary operators share a single precedence tier and associate left:
// a plus b times c parses as (a plus b) times c. This is a documented
// property of the language, preserved exactly.
//
// # Lexical notes
//
// A '-' immediately followed by a digit is consumed as part of a signed
// numeric literal, so `change x by minus -5` and `calc a minus b as d` both
// lex as intended. Identifiers starting with an uppercase letter are type
// names: blueprint names and unit constructors (Money, Mass, ...).
//
// # Example
//
//	blueprint Account
//	  starts balance at Money(1000)
//	  can_be frozen
//	  law no_overdraft : balance below Money(0)
//	  when withdraw(amount)
//	    must amount above Money(0) otherwise "amount must be positive"
//	    change balance by minus amount
//	    fin
//	end
//
// Errors are reported as [Diagnostic] values, one per malformed construct.
// The parser synchronizes at statement boundaries so a single mistake does
// not cascade.
package lang
