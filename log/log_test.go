package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if got := ParseFormat("json"); got != FormatJSON {
		t.Errorf("ParseFormat(json) = %s", got)
	}

	if got := ParseFormat(" TEXT "); got != FormatText {
		t.Errorf("ParseFormat(TEXT) = %s", got)
	}

	if got := ParseFormat("yaml"); got != DefaultFormat {
		t.Errorf("ParseFormat(yaml) = %s, want default", got)
	}
}

func TestLevel_Filtering(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelWarn), WithPretty(false))

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()

	if strings.Contains(out, "dropped") {
		t.Error("info message passed a warn-level logger")
	}

	if !strings.Contains(out, "kept") {
		t.Error("warn message missing")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON))

	logger.Info("compiled", slog.String("path", "a.creed"), slog.Int("laws", 2))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	if record["msg"] != "compiled" || record["path"] != "a.creed" {
		t.Errorf("record = %v", record)
	}
}

func TestTraceLevelName(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf,
		WithLevel(LevelTrace),
		WithFormat(FormatJSON),
	)

	logger.Trace("deep")

	if !strings.Contains(buf.String(), `"TRACE"`) {
		t.Errorf("trace level not renamed: %s", buf.String())
	}
}

func TestZeroValueLogger(t *testing.T) {
	var logger Logger

	// Must not panic.
	logger.Info("into the void")
	logger.Error("still nothing")

	if logger.Level() != DefaultLevel || logger.Format() != DefaultFormat {
		t.Error("zero-value logger reports non-default configuration")
	}
}

func TestWith_CarriesAttrs(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON)).
		With(slog.String("instance", "account"))

	logger.Info("committed")

	if !strings.Contains(buf.String(), `"instance":"account"`) {
		t.Errorf("attribute missing: %s", buf.String())
	}
}

func TestWrap_Overrides(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithLevel(LevelError))
	verbose := Wrap(base, WithLevel(LevelDebug))

	if verbose.Level() != LevelDebug {
		t.Errorf("wrapped level = %s, want debug", verbose.Level())
	}

	if base.Level() != LevelError {
		t.Errorf("base level mutated to %s", base.Level())
	}
}

// Caller info must point at the call site for every exported method, the
// plain and the Context-taking forms alike.
func TestWithCaller_ReportsCallSite(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf,
		WithFormat(FormatJSON), WithCaller(true), WithTimeLayout(""))

	calls := map[string]func(){
		"plain":   func() { logger.Info("here") },
		"context": func() { logger.InfoContext(context.Background(), "here") },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			buf.Reset()
			call()

			var entry struct {
				Source struct {
					File string `json:"file"`
					Line int    `json:"line"`
				} `json:"source"`
			}

			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("unmarshal %q: %v", buf.String(), err)
			}

			if !strings.HasSuffix(entry.Source.File, "log_test.go") {
				t.Errorf("source = %s:%d, want this file",
					entry.Source.File, entry.Source.Line)
			}
		})
	}
}

func TestPrettyText_Colors(t *testing.T) {
	// Styles detect the terminal's color profile lazily. Pin it so the
	// buffer sees escape sequences even without a TTY.
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	var buf bytes.Buffer

	logger := Make(&buf, WithPretty(true), WithTimeLayout(""))

	logger.Info("hello", slog.Bool("ok", true))

	out := buf.String()

	if !strings.Contains(out, "\x1b[") {
		t.Errorf("no color in pretty output: %q", out)
	}

	if !strings.Contains(out, "hello") {
		t.Errorf("message missing: %q", out)
	}
}
