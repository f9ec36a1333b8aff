// Package render expands code generation markers in templates and applies
// the post-render actions (generate, compare, install, check).
package render

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ridoystarlord/metagen/schema"
	"github.com/ridoystarlord/metagen/snippet"
)

// MaxDepth bounds how many times snippet output is itself expanded.
const MaxDepth = 8

// Escape tokens protect literal double braces in snippet output and
// templates. They are replaced after the last expansion.
const (
	EscapeOpen  = `\{\{`
	EscapeClose = `\}\}`
)

const (
	markerOpen  = "{{#cg}}"
	markerClose = "{{/cg}}"
)

// token matches, in order of preference, a marker, a triple brace variable
// and a double brace variable.
var token = regexp.MustCompile(`(?s)\{\{#cg\}\}(.*?)\{\{/cg\}\}|\{\{\{\s*(\w+)\s*\}\}\}|\{\{\s*(\w+)\s*\}\}`)

// Engine renders templates for one schema.
type Engine struct {
	lib    *snippet.Library
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger reporting unknown markers.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine returns an engine dispatching markers to lib.
func NewEngine(lib *snippet.Library, opts ...Option) *Engine {
	e := &Engine{lib: lib, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Variables returns the values of the plain template variables for table.
func Variables(table string) map[string]string {
	return map[string]string{
		"class":   snippet.Class(table),
		"element": snippet.Element(table),
		"table":   table,
		"url":     snippet.URL(table),
	}
}

// Render expands tpl for table. Markers naming a snippet are replaced by its
// output, other markers are kept verbatim so a later pass can resolve them.
// Unknown variables render empty. When a snippet fails nothing is returned.
// Columns whose metadata cannot be parsed are generated from their name and
// type and logged.
func (e *Engine) Render(table, tpl string) (string, error) {
	out, warnings, err := e.RenderWithWarnings(table, tpl)
	for _, w := range warnings {
		e.logger.Warn("malformed column metadata", zap.String("table", w.Table),
			zap.String("column", w.Column), zap.Error(w.Err))
	}
	return out, err
}

// RenderWithWarnings is Render, also returning each column, once, whose
// metadata could not be parsed.
func (e *Engine) RenderWithWarnings(table, tpl string) (string, []*snippet.FieldError, error) {
	if !e.lib.Store().TableExists(table) {
		return "", nil, fmt.Errorf("rendering %s: %w", table, &schema.NotFoundError{Table: table})
	}

	var warnings []*snippet.FieldError
	seen := make(map[string]bool)
	lib := e.lib.WithWarnings(func(fe *snippet.FieldError) {
		key := fe.Table + "." + fe.Column
		if !seen[key] {
			seen[key] = true
			warnings = append(warnings, fe)
		}
	})

	out, err := e.expand(lib, table, Variables(table), tpl, 0)
	if err != nil {
		return "", warnings, fmt.Errorf("rendering %s: %w", table, err)
	}
	return Unescape(out), warnings, nil
}

// Unescape replaces the escape tokens with literal braces.
func Unescape(s string) string {
	s = strings.ReplaceAll(s, EscapeOpen, "{{")
	return strings.ReplaceAll(s, EscapeClose, "}}")
}

func (e *Engine) expand(lib *snippet.Library, table string, vars map[string]string, text string, depth int) (string, error) {
	matches := token.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		b.WriteString(text[last:start])
		last = end

		switch {
		case m[2] >= 0:
			payload := text[m[2]:m[3]]
			out, err := e.marker(lib, table, vars, payload, lineIndent(text, start), depth)
			if err != nil {
				return "", err
			}
			b.WriteString(out)
		case m[4] >= 0:
			b.WriteString(vars[text[m[4]:m[5]]])
		default:
			b.WriteString(vars[text[m[6]:m[7]]])
		}
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

func (e *Engine) marker(lib *snippet.Library, table string, vars map[string]string, payload, indent string, depth int) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return markerOpen + payload + markerClose, nil
	}
	name := fields[0]
	if _, ok := snippet.Lookup(name); !ok {
		e.logger.Debug("unknown snippet, keeping marker", zap.String("snippet", name), zap.String("table", table))
		return markerOpen + payload + markerClose, nil
	}

	out, err := lib.Call(name, snippet.Context{Table: table, Indent: indent}, fields[1:])
	if err != nil {
		return "", fmt.Errorf("snippet %s: %w", name, err)
	}
	if depth+1 >= MaxDepth {
		return out, nil
	}
	return e.expand(lib, table, vars, out, depth+1)
}

// lineIndent returns the leading blanks of the line holding offset.
func lineIndent(text string, offset int) string {
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	line := text[lineStart:]
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return line[:n]
}
