package repl

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/creedlang/creed/lang"
	"github.com/creedlang/creed/log"
	"github.com/creedlang/creed/runtime"
)

const evalPrompt = "➜ "

func helpMessage() string {
	return `
Type a when-clause call to execute it against the live instance:

  withdraw 300
  deposit Money(50)

Commands:

  :clauses  List when-clauses and their parameters
  :fields   Print the current field and state snapshot
  :laws     Check all laws against the current snapshot
  :clear    Clear screen
  :help     Print this cruft
  :quit     Exit REPL

Completions appear automatically as you type.
Press Tab / Shift-Tab to cycle through candidates.
Use Up/Down arrows for history navigation.
Press Ctrl+C on empty line or Ctrl+D to exit.
`
}

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// formatCommand formats the echo line with prompt and input styled.
func formatCommand(input string) string {
	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	store        *runtime.Store
	instance     string
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	candidates   []string      // backing candidate list
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int           // terminal width for ellipsization
	quitting     bool
}

// Run starts the REPL against the named instance in the store. The cache
// directory holds the persisted history; an empty cacheDir keeps history in
// memory only.
func Run(
	ctx context.Context,
	store *runtime.Store,
	instance string,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if store == nil {
		return ErrNoStore
	}

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("instance", instance),
		slog.String("cache_dir", cacheDir),
	)

	historyPath := ""
	if cacheDir != "" {
		historyPath = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		fmt.Printf("Warning: could not load history: %v\n", err)
	}

	m := newModel(ctx, store, instance, history, logger)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	store *runtime.Store,
	instance string,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		store:      store,
		instance:   instance,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	// Input line.
	b.WriteString(m.input.View())
	b.WriteString("\n")

	// Completion / hint line.
	switch {
	case m.historyIdx < m.history.Len():
		pos := m.historyIdx + 1 // 1-based for display
		b.WriteString(hintStyle.Render(fmt.Sprintf("%d/%d", pos, m.history.Len())))
		b.WriteString("\n")

	case strings.TrimSpace(m.input.Value()) == "":
		hint := "Type a when-clause call or :help for commands"
		b.WriteString(hintStyle.Render(hint))
		b.WriteString("\n")

	case len(m.matches) > 0:
		bar := renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width)
		b.WriteString(bar)
		b.WriteString("\n")

	default:
		b.WriteString("\n")
	}

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m)

		return m, nil

	case tea.KeyTab:
		return m.handleTab(1)

	case tea.KeyShiftTab:
		return m.handleTab(-1)

	case tea.KeyUp:
		return m.historyPrev()

	case tea.KeyDown:
		return m.historyNext()

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m)
		}

		return m, nil

	case tea.KeyRunes:
		// Space breaks an active tab cycle.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m)

		return m, cmd
	}

	// Backspace, delete, arrows, and any other key: update input and
	// recompute matches.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m)

	return m, cmd
}

// handleTab cycles through candidates in the given direction.
func (m model) handleTab(dir int) (model, tea.Cmd) {
	if len(m.matches) == 0 {
		return m, nil
	}

	// Single candidate: complete and confirm immediately.
	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	if m.tabActive {
		m.suggIdx += dir
		if m.suggIdx >= len(m.matches) {
			m.suggIdx = 0
		}

		if m.suggIdx < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if dir < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
func refreshMatches(m *model) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.input.SetValue("")

	_, _ = m.history.Write(input)
	m.historyIdx = m.history.Len()

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl input",
		slog.String("input", input),
	)

	echoCmd := tea.Println(formatCommand(input))

	if strings.HasPrefix(input, ":") {
		return m.executeCommand(input, echoCmd)
	}

	return m, tea.Sequence(echoCmd, tea.Println(m.executeClause(input)))
}

// executeClause parses "clause arg arg..." and runs it against the live
// instance, returning the rendered output line(s).
func (m model) executeClause(input string) string {
	parts, err := splitArgs(input)
	if err != nil {
		return errorStyle.Render("error: " + err.Error())
	}

	if len(parts) == 0 {
		return ""
	}

	clause := parts[0]

	args := make([]runtime.Value, len(parts)-1)

	for i, raw := range parts[1:] {
		args[i], err = runtime.ParseValue(raw)
		if err != nil {
			return errorStyle.Render("error: " + err.Error())
		}
	}

	result, err := m.store.ExecuteWhen(m.ctxFunc(), m.instance, clause, args...)
	if err != nil {
		return errorStyle.Render("refused: " + err.Error())
	}

	var b strings.Builder

	b.WriteString(resultStyle.Render(result.Outcome.String()))

	if result.Declared != "" {
		b.WriteString("  " + resultStyle.Render(result.Declared))
	}

	for _, memo := range result.Memos {
		b.WriteString("\n" + hintStyle.Render("memo: "+memo))
	}

	return b.String()
}

func (m model) executeCommand(input string, echoCmd tea.Cmd) (model, tea.Cmd) {
	switch strings.TrimSpace(input) {
	case ":q", ":quit", ":exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case ":h", ":help":
		return m, tea.Sequence(echoCmd, tea.Println(helpMessage()))

	case ":c", ":clauses":
		return m, tea.Sequence(echoCmd, tea.Println(m.listClauses()))

	case ":f", ":fields":
		return m, tea.Sequence(echoCmd, tea.Println(m.listFields()))

	case ":l", ":laws":
		return m, tea.Sequence(echoCmd, tea.Println(m.listLaws()))

	case ":clear":
		return m, tea.ClearScreen

	default:
		return m, tea.Sequence(echoCmd, tea.Println(
			errorStyle.Render("Unknown command: "+input+" (try :help)"),
		))
	}
}

func (m model) listClauses() string {
	var b strings.Builder

	for _, w := range m.store.Program().Blueprint.Whens {
		sig := w.Name
		if len(w.Params) > 0 {
			sig += " " + strings.Join(w.Params, " ")
		}

		b.WriteString("  " + sig + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m model) listFields() string {
	inst, err := m.store.Instance(m.instance)
	if err != nil {
		return errorStyle.Render("error: " + err.Error())
	}

	var b strings.Builder

	fields := inst.Fields()

	for _, name := range slices.Sorted(maps.Keys(fields)) {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			name, hintStyle.Render(fields[name].String())))
	}

	states := inst.States()

	for _, name := range slices.Sorted(maps.Keys(states)) {
		marker := " "
		if states[name] {
			marker = "*"
		}

		b.WriteString(fmt.Sprintf("  %s %s\n", marker, name))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m model) listLaws() string {
	report, err := m.store.CheckLaws(m.instance)
	if err != nil {
		return errorStyle.Render("error: " + err.Error())
	}

	if report.OK() {
		return resultStyle.Render("all laws hold")
	}

	var b strings.Builder

	for _, name := range report.Violations() {
		law := m.store.Program().Blueprint.Law(name)
		line := "violated: " + name

		if law != nil {
			line += "  " + lang.FormatExpr(law.Forbidden)
		}

		b.WriteString(errorStyle.Render(line) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m model) historyPrev() (model, tea.Cmd) {
	if m.historyIdx > 0 {
		m.historyIdx--

		if line, err := m.history.Get(m.historyIdx); err == nil {
			m.input.SetValue(line)
			m.input.SetCursor(len(line))
			refreshMatches(&m)
		}
	}

	return m, nil
}

func (m model) historyNext() (model, tea.Cmd) {
	if m.historyIdx < m.history.Len()-1 {
		m.historyIdx++

		if line, err := m.history.Get(m.historyIdx); err == nil {
			m.input.SetValue(line)
			m.input.SetCursor(len(line))
			refreshMatches(&m)
		}
	} else {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m)
	}

	return m, nil
}

// splitArgs splits a clause call on whitespace, keeping double-quoted
// strings intact so "wire transfer" stays one argument.
func splitArgs(input string) ([]string, error) {
	var (
		parts  []string
		b      strings.Builder
		quoted bool
	)

	for _, r := range input {
		switch {
		case r == '"':
			quoted = !quoted

			b.WriteRune(r)

		case !quoted && (r == ' ' || r == '\t'):
			if b.Len() > 0 {
				parts = append(parts, b.String())
				b.Reset()
			}

		default:
			b.WriteRune(r)
		}
	}

	if quoted {
		return nil, fmt.Errorf("unterminated string in %q", input)
	}

	if b.Len() > 0 {
		parts = append(parts, b.String())
	}

	return parts, nil
}
