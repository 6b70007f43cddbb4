package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// replCommands are the available colon-prefixed commands.
var replCommands = []string{
	":clauses", ":clear", ":fields", ":help", ":laws", ":quit",
}

// isWordBoundary returns true if the rune delimits a word for completion
// purposes. Underscores are excluded because creed identifiers may contain
// them (e.g., no_overdraft).
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '(', ')', ',', '"', '.':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input. Returns an empty word when the cursor sits on a
// boundary (after a space, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Walk backward from cursor to find word start.
	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	// Walk forward from cursor to find word end.
	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	word = input[start:end]

	return word, start, end
}

// candidateNames returns the completion candidates for the current input.
// Colon-prefixed input completes commands; the first word of a clause call
// completes when-clause names; later words complete field and state names
// so arguments can reference the instance snapshot.
func (m model) candidateNames(input string, wordStart int) []string {
	if strings.HasPrefix(strings.TrimSpace(input), ":") {
		return replCommands
	}

	bp := m.store.Program().Blueprint

	firstWord := strings.TrimSpace(input[:wordStart]) == ""
	if firstWord {
		names := make([]string, 0, len(bp.Whens))
		for _, w := range bp.Whens {
			names = append(names, w.Name)
		}

		return names
	}

	names := make([]string, 0, len(bp.Fields)+len(bp.States))

	for _, f := range bp.Fields {
		names = append(names, f.Name)
	}

	for _, s := range bp.States {
		names = append(names, s.Name)
	}

	return names
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor. An empty word yields no matches so the hint line stays visible.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, ws, we := wordBounds(input, cursor)
	wordStart, wordEnd = ws, we

	if word == "" {
		return nil, nil, wordStart, wordEnd
	}

	// The colon prefix is a word boundary, so fold it into the word when the
	// input is a command.
	if wordStart > 0 && input[wordStart-1] == ':' {
		word = ":" + word
		wordStart--
	}

	candidates = m.candidateNames(input, wordStart)
	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	matches = fuzzy.Find(word, candidates)

	return matches, candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// fit within the given terminal width. The selected candidate (when tabbing)
// uses the selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		selected := tabActive && i == suggIdx
		rendered := renderCandidate(match, selected)
		candidateWidth := lipgloss.Width(rendered)

		entryWidth := candidateWidth
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth

		if i == len(matches)-1 {
			break
		}
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		ch := string(r)
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(ch))
		} else {
			b.WriteString(baseStyle.Render(ch))
		}
	}

	return b.String()
}
