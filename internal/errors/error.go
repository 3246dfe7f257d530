package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategorySequencing Category = "sequencing"
	CategoryScript     Category = "script"
	CategoryConfig     Category = "config"
	CategoryProtocol   Category = "protocol"
	CategoryCLI        Category = "cli"
)

// Location represents a position in a source file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	file := l.File
	if file == "" {
		file = "<input>"
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", file, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", file, l.Line)
}

// Snippet is an excerpt of a source file starting at line Start.
type Snippet struct {
	Start int
	Lines []string
}

// Error is a diagnostic with an optional source position and fix hints.
type Error struct {
	Code     string // registry code, e.g. "E001"; empty for ad hoc errors
	Category Category
	Message  string
	Detail   string

	Location *Location
	Snippet  *Snippet

	Suggestion string
	Example    string
	DocURL     string

	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Wrapped != nil && e.Wrapped.Error() != e.Message {
		msg += ": " + e.Wrapped.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithLocation points the error at file:line:column and attaches the
// surrounding lines when the file can be read.
func (e *Error) WithLocation(file string, line, column int) *Error {
	src, err := os.ReadFile(file)
	if err != nil {
		e.Location = &Location{File: file, Line: line, Column: column}
		return e
	}
	return e.WithSource(src, file, line, column)
}

// WithSource is WithLocation for source already in memory. file may be
// empty for unnamed input.
func (e *Error) WithSource(src []byte, file string, line, column int) *Error {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Snippet = snippet(src, line, snippetRadius)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithExample adds an example to the error.
func (e *Error) WithExample(ex string) *Error {
	e.Example = ex
	return e
}

// WithDetail replaces the detailed explanation.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

const snippetRadius = 2

func snippet(src []byte, line, radius int) *Snippet {
	lines := strings.Split(strings.TrimRight(string(src), "\n"), "\n")
	if line < 1 || line > len(lines) {
		return nil
	}
	start := max(line-radius, 1)
	end := min(line+radius, len(lines))
	return &Snippet{Start: start, Lines: lines[start-1 : end]}
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   docURL(code),
	}
}

// Newf creates an Error with a formatted message and no code.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in an Error with the given code, or returns err
// itself when it already is one.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return New(code).Wrap(err)
}

// As is errors.As, re-exported since this package shadows the standard
// library name.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
