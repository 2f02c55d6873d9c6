package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter formats errors for display, optionally with ANSI colors.
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool
}

// NewFormatter creates a new error formatter.
func NewFormatter(useColor bool) *Formatter {
	return &Formatter{UseColor: useColor}
}

// Colors used for error formatting
var (
	colorError     = []color.Attribute{color.FgRed}
	colorErrorBold = []color.Attribute{color.FgHiRed, color.Bold}
	colorCode      = []color.Attribute{color.FgHiBlack}
	colorLocation  = []color.Attribute{color.FgCyan}
	colorPipe      = []color.Attribute{color.FgHiBlack}
	colorCaret     = []color.Attribute{color.FgHiRed}
	colorNote      = []color.Attribute{color.FgHiBlue}
)

// FormattedError represents an error ready for display.
type FormattedError struct {
	Code       ErrorCode
	Kind       string // "parse error", "environment error", etc.
	Message    string
	Filename   string
	Line       int // 1-based, 0 when unknown
	Column     int // 1-based, 0 when unknown
	SourceLine string
	Note       string
}

// ToFormatted converts any error into a FormattedError. Errors from this
// package keep their code and location; other errors only carry a message.
func ToFormatted(err error) *FormattedError {
	var pe *ParseError
	if stderrors.As(err, &pe) {
		return &FormattedError{
			Code:       pe.Code,
			Kind:       "parse error",
			Message:    pe.Code.Description(),
			Filename:   pe.Position.File,
			Line:       pe.Position.LineNumber(),
			Column:     pe.Position.ColumnNumber(),
			SourceLine: pe.SourceLine,
			Note:       parseNote(pe),
		}
	}
	var ee *EnvironmentError
	if stderrors.As(err, &ee) {
		return &FormattedError{
			Code:    ee.ErrorCode(),
			Kind:    "environment error",
			Message: fmt.Sprintf("%s: %v", ee.Op, ee.Err),
			Note:    "compilation succeeded, but this host refused executable memory; try --no-jit",
		}
	}
	var rt *RuntimeTrap
	if stderrors.As(err, &rt) {
		return &FormattedError{
			Code:    rt.ErrorCode(),
			Kind:    "runtime trap",
			Message: fmt.Sprintf("tape access at cell %d", rt.Address),
			Note:    fmt.Sprintf("the tape holds %d cells", rt.TapeSize),
		}
	}
	var ie *InternalError
	if stderrors.As(err, &ie) {
		return &FormattedError{
			Code:    ie.ErrorCode(),
			Kind:    "internal compiler error",
			Message: fmt.Sprintf("%s: %s", ie.Component, ie.Message),
			Note:    "this is a bug in the compiler, not in your program",
		}
	}
	return &FormattedError{Kind: "error", Message: err.Error()}
}

func parseNote(pe *ParseError) string {
	if pe.Code == E1002 {
		return "this '[' is never closed; check that each '[' has a matching ']'"
	}
	return "this ']' has no opening '['; check that each '[' has a matching ']'"
}

// Format renders err. It is a shorthand for NewFormatter(useColor).Format.
func Format(err error, useColor bool) string {
	return NewFormatter(useColor).Format(ToFormatted(err))
}

func (f *Formatter) paint(attrs []color.Attribute, s string) string {
	if !f.UseColor {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

// Format formats the error as a string using a Rust-like style:
//
//	parse error[E1002]: unmatched '['
//	  --> hello.b:1:3
//	   |
//	 1 | ++[>
//	   |   ^
//	   = note: ...
func (f *Formatter) Format(err *FormattedError) string {
	var b strings.Builder

	lineNumWidth := 2
	if err.Line >= 100 {
		lineNumWidth = len(fmt.Sprintf("%d", err.Line))
	}
	padding := strings.Repeat(" ", lineNumWidth)

	label := "error"
	if err.Kind != "" {
		label = err.Kind
	}
	b.WriteString(f.paint(colorErrorBold, label))
	if err.Code != "" {
		b.WriteString(f.paint(colorCode, fmt.Sprintf("[%s]", err.Code)))
	}
	b.WriteString(f.paint(colorError, ": "))
	b.WriteString(err.Message)
	b.WriteString("\n")

	if err.Line > 0 || err.Filename != "" {
		loc := fmt.Sprintf("%d:%d", err.Line, err.Column)
		if err.Filename != "" {
			loc = err.Filename + ":" + loc
		}
		b.WriteString(padding)
		b.WriteString(f.paint(colorLocation, "-->"))
		b.WriteString(" ")
		b.WriteString(f.paint(colorLocation, loc))
		b.WriteString("\n")
	}

	if err.SourceLine != "" {
		b.WriteString(padding)
		b.WriteString(f.paint(colorPipe, " |\n"))
		b.WriteString(fmt.Sprintf("%*d", lineNumWidth, err.Line))
		b.WriteString(f.paint(colorPipe, " | "))
		b.WriteString(err.SourceLine)
		b.WriteString("\n")
		if err.Column > 0 {
			b.WriteString(padding)
			b.WriteString(f.paint(colorPipe, " | "))
			b.WriteString(strings.Repeat(" ", err.Column-1))
			b.WriteString(f.paint(colorCaret, "^"))
			b.WriteString("\n")
		}
	}

	if err.Note != "" {
		b.WriteString(padding)
		b.WriteString(f.paint(colorPipe, " = "))
		b.WriteString(f.paint(colorNote, "note: "))
		b.WriteString(err.Note)
		b.WriteString("\n")
	}
	return b.String()
}
