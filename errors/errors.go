// Package errors defines the error taxonomy shared by the compiler and the
// runtime: parse errors with source positions, environment errors raised by
// the operating system, internal compiler errors, and runtime traps.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/deepnoodle-ai/brainmuck/token"
)

// ErrUnsupportedPlatform is wrapped by an EnvironmentError when generated code
// cannot be executed on the host architecture or operating system.
var ErrUnsupportedPlatform = stderrors.New("unsupported platform")

// Category classifies an error for reporting and for process exit codes.
type Category int

const (
	CategoryNone Category = iota
	CategoryParse
	CategoryEnvironment
	CategoryRuntime
	CategoryInternal
	CategoryUnknown
)

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryParse:
		return "parse"
	case CategoryEnvironment:
		return "environment"
	case CategoryRuntime:
		return "runtime"
	case CategoryInternal:
		return "internal"
	}
	return "unknown"
}

// FatalError is an interface for errors that may or may not be fatal.
type FatalError interface {
	Error() string
	IsFatal() bool
}

// CodedError is implemented by every error type in this package.
type CodedError interface {
	Error() string
	ErrorCode() ErrorCode
	Category() Category
}

// ParseError is returned when the loop brackets of a program are not
// balanced. Position names the offending bracket.
type ParseError struct {
	Code       ErrorCode
	Bracket    token.Kind
	Position   token.Position
	SourceLine string
}

// NewParseError returns a ParseError for the given unmatched bracket.
func NewParseError(bracket token.Kind, pos token.Position, sourceLine string) *ParseError {
	code := E1001
	if bracket == token.LoopOpen {
		code = E1002
	}
	return &ParseError{
		Code:       code,
		Bracket:    bracket,
		Position:   pos,
		SourceLine: sourceLine,
	}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s at %s (offset %d)",
		e.Code.Description(), e.Position, e.Position.Offset)
}

func (e *ParseError) ErrorCode() ErrorCode { return e.Code }

func (e *ParseError) Category() Category { return CategoryParse }

func (e *ParseError) IsFatal() bool { return true }

// EnvironmentError wraps a failure of the operating system to provide
// executable memory: a failed mmap, mprotect or munmap, or a platform the
// generated code cannot run on.
type EnvironmentError struct {
	Op  string
	Err error
}

// NewEnvironmentError returns an EnvironmentError for the given operation.
func NewEnvironmentError(op string, err error) *EnvironmentError {
	return &EnvironmentError{Op: op, Err: err}
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("environment error: %s: %v", e.Op, e.Err)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

func (e *EnvironmentError) ErrorCode() ErrorCode {
	if stderrors.Is(e.Err, ErrUnsupportedPlatform) {
		return E2002
	}
	return E2001
}

func (e *EnvironmentError) Category() Category { return CategoryEnvironment }

func (e *EnvironmentError) IsFatal() bool { return true }

// InternalError indicates a defect in the compiler, such as an unresolved
// branch label or an immediate the optimizer failed to legalize. These are
// never the result of user input.
type InternalError struct {
	Component string
	Message   string
}

// Internalf returns an InternalError for the given component.
func Internalf(component, format string, args ...any) *InternalError {
	return &InternalError{Component: component, Message: fmt.Sprintf(format, args...)}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal compiler error in %s: %s", e.Component, e.Message)
}

func (e *InternalError) ErrorCode() ErrorCode { return E9001 }

func (e *InternalError) Category() Category { return CategoryInternal }

func (e *InternalError) IsFatal() bool { return true }

// RuntimeTrap is raised when a running program accesses a cell outside the
// tape while bounds checking is enabled. Address is the cell index relative
// to the start of the tape.
type RuntimeTrap struct {
	Address  int64
	TapeSize int
}

func (e *RuntimeTrap) Error() string {
	return fmt.Sprintf("runtime trap: tape access at cell %d is outside [0, %d)",
		e.Address, e.TapeSize)
}

func (e *RuntimeTrap) ErrorCode() ErrorCode { return E3001 }

func (e *RuntimeTrap) Category() Category { return CategoryRuntime }

func (e *RuntimeTrap) IsFatal() bool { return true }

// CategoryOf classifies err by the first CodedError in its chain. Errors
// that carry no category are CategoryUnknown.
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryNone
	}
	var coded CodedError
	if stderrors.As(err, &coded) {
		return coded.Category()
	}
	return CategoryUnknown
}

// IsInternal returns true if err is or wraps an InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return stderrors.As(err, &ie)
}
