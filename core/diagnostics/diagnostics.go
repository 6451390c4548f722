// Package diagnostics provides the span and error taxonomy shared by every
// stage of the compiler pipeline: lexer, parser, HIR lowerer, MIR lowerer,
// SQL generator and migration engine all report failures through the same
// closed set of error kinds defined here.
package diagnostics

import "fmt"

// Span is a half-open byte range [Start, End) into the original source
// text, plus the 1-indexed line/column of Start for user-facing messages.
// Every AST, HIR and MIR node carries one.
type Span struct {
	Start, End int
	Line, Col  int
}

// Kind is the closed set of error categories a stage may report.
type Kind int

const (
	// Lexical marks a malformed token; Span covers the offending bytes.
	Lexical Kind = iota
	// Parse marks an unexpected token or grammar violation; Span covers the token.
	Parse
	// Semantic marks name resolution, type-check, or annotation-argument
	// failures, recursive aliases, nested top-level namespaces, and
	// missing-primary-key requests for UPDATE/DELETE-by-PK.
	Semantic
	// Internal marks a compiler invariant violation — a bug in the
	// compiler, not a user error.
	Internal
	// Io marks a filesystem or serialization failure in the migration
	// engine; never raised by the compiler stages themselves.
	Io
)

// String renders the kind's user-facing label.
func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical error"
	case Parse:
		return "parse error"
	case Semantic:
		return "semantic error"
	case Internal:
		return "internal error"
	case Io:
		return "io error"
	default:
		return "unknown error"
	}
}

// Error is the single error type every stage returns. Span is nil when a
// diagnostic has no natural source location (e.g. most Io errors).
type Error struct {
	Kind    Kind
	Span    *Span
	Message string
}

// Error implements the error interface. Internal errors are marked
// distinctly so a caller can tell a compiler bug from a user mistake.
func (e *Error) Error() string {
	prefix := e.Kind.String()
	if e.Kind == Internal {
		prefix = "internal error (compiler bug)"
	}
	if e.Span != nil {
		return fmt.Sprintf("%s at %d:%d: %s", prefix, e.Span.Line, e.Span.Col, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// New builds a spanless diagnostic of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At builds a diagnostic anchored to a span.
func At(kind Kind, span Span, format string, args ...any) *Error {
	s := span
	return &Error{Kind: kind, Span: &s, Message: fmt.Sprintf(format, args...)}
}

// Errors collects multiple diagnostics from a stage that is permitted to
// report more than one error before giving up (the HIR lowerer, per
// spec: "collecting multiple semantic errors is permitted but not
// required").
type Errors []*Error

func (es Errors) Error() string {
	if len(es) == 0 {
		return "no errors"
	}
	if len(es) == 1 {
		return es[0].Error()
	}
	return fmt.Sprintf("%s (and %d more error(s))", es[0].Error(), len(es)-1)
}
