package hir

import (
	"github.com/kqllang/kql/core/ast"
	"github.com/kqllang/kql/core/diagnostics"
)

// Annotation is the lowered, typed form of an `@name(args)` AST node. Go has
// no sum types, so every shape the closed annotation set can take lives in
// one struct; which fields are meaningful depends on Name (see registry
// below). Grounded on the teacher's core/goschema key-value comment parsing
// (ParseKeyValueComment), generalized from `//migrator:...` comment strings
// to `@name(args)` AST nodes per spec.md §9 "Annotations as data" — the
// annotation set itself is never hard-coded into the lowerer's control flow,
// only declared once here as data.
type Annotation struct {
	Name   string
	Idents []string // positional identifier arguments, in declared order
	Str    string    // the single positional string argument, when present
	Named  map[string]NamedArg
	Span   diagnostics.Span
}

// NamedArg holds one `name: value` annotation argument.
type NamedArg struct {
	Str    string
	Bool   bool
	IsBool bool
}

func (a *Annotation) HasFlag(name string) bool {
	if a == nil {
		return false
	}
	n, ok := a.Named[name]
	return ok && n.IsBool && n.Bool
}

type argKind int

const (
	argIdent argKind = iota
	argString
	argBool
)

type namedSpec struct {
	kind     argKind
	required bool
}

// spec describes the typed argument shape of one annotation: the kind and
// arity of its positional arguments, and the kind of each recognized named
// argument. This is the data-driven "interpreter" spec.md §9 calls for.
type spec struct {
	positionalKind argKind
	positionalMin  int
	positionalMax  int // -1 = unbounded
	named          map[string]namedSpec
}

// registry is the closed set of recognized annotations (spec.md §9). An
// annotation name absent from this map is silently ignored, per spec.
var registry = map[string]spec{
	"schema":         {positionalKind: argString, positionalMin: 1, positionalMax: 1},
	"table":          {positionalKind: argString, positionalMin: 1, positionalMax: 1},
	"primary_key":    {positionalKind: argIdent, positionalMin: 0, positionalMax: -1},
	"index":          {positionalKind: argIdent, positionalMin: 1, positionalMax: -1, named: map[string]namedSpec{"unique": {kind: argBool}}},
	"relation":       {named: map[string]namedSpec{"name": {kind: argString}, "foreign_key": {kind: argString}, "references": {kind: argString}, "on_delete": {kind: argIdent}}},
	"layout":         {positionalKind: argIdent, positionalMin: 1, positionalMax: 1},
	"audit":          {},
	"soft_delete":    {},
	"auto_increment": {},
	"nullable":       {},
	"unique":         {},
	"before_save":    {positionalKind: argIdent, positionalMin: 1, positionalMax: 1},
	"after_delete":   {positionalKind: argIdent, positionalMin: 1, positionalMax: 1},
}

// lowerAnnotation validates and lowers one AST annotation against the
// registry. Unknown annotation names return (nil, nil): they are silently
// ignored per spec.md §9. Invalid arguments are Semantic errors.
func lowerAnnotation(ann ast.Annotation) (*Annotation, error) {
	sp, known := registry[ann.Name]
	if !known {
		return nil, nil
	}
	out := &Annotation{Name: ann.Name, Named: map[string]NamedArg{}, Span: ann.Span}
	posCount := 0
	for _, arg := range ann.Args {
		if arg.Name == "" {
			posCount++
			if sp.positionalMax != -1 && posCount > sp.positionalMax {
				return nil, diagnostics.At(diagnostics.Semantic, ann.Span,
					"@%s accepts at most %d positional argument(s)", ann.Name, sp.positionalMax)
			}
			switch sp.positionalKind {
			case argIdent:
				id, ok := arg.Value.(*ast.Ident)
				if !ok {
					return nil, diagnostics.At(diagnostics.Semantic, arg.Value.Span(),
						"@%s expects an identifier argument", ann.Name)
				}
				out.Idents = append(out.Idents, id.Name)
			case argString:
				s, ok := arg.Value.(*ast.StringLit)
				if !ok {
					return nil, diagnostics.At(diagnostics.Semantic, arg.Value.Span(),
						"@%s expects a string literal argument", ann.Name)
				}
				out.Str = s.Value
			}
			continue
		}
		ns, ok := sp.named[arg.Name]
		if !ok {
			return nil, diagnostics.At(diagnostics.Semantic, ann.Span,
				"unknown named argument %q to @%s", arg.Name, ann.Name)
		}
		switch ns.kind {
		case argString:
			s, ok := arg.Value.(*ast.StringLit)
			if !ok {
				return nil, diagnostics.At(diagnostics.Semantic, arg.Value.Span(),
					"%s: argument must be a string literal", arg.Name)
			}
			out.Named[arg.Name] = NamedArg{Str: s.Value}
		case argBool:
			b, ok := arg.Value.(*ast.BoolLit)
			if !ok {
				return nil, diagnostics.At(diagnostics.Semantic, arg.Value.Span(),
					"%s: argument must be a boolean literal", arg.Name)
			}
			out.Named[arg.Name] = NamedArg{Bool: b.Value, IsBool: true}
		case argIdent:
			id, ok := arg.Value.(*ast.Ident)
			if !ok {
				return nil, diagnostics.At(diagnostics.Semantic, arg.Value.Span(),
					"%s: argument must be an identifier", arg.Name)
			}
			out.Named[arg.Name] = NamedArg{Str: id.Name}
		}
	}
	if posCount < sp.positionalMin {
		return nil, diagnostics.At(diagnostics.Semantic, ann.Span,
			"@%s requires at least %d positional argument(s)", ann.Name, sp.positionalMin)
	}
	return out, nil
}

// lowerAnnotations lowers a list of AST annotations, dropping the ones
// silently ignored by lowerAnnotation (unrecognized names).
func lowerAnnotations(anns []ast.Annotation) ([]*Annotation, error) {
	var out []*Annotation
	for _, a := range anns {
		lowered, err := lowerAnnotation(a)
		if err != nil {
			return nil, err
		}
		if lowered != nil {
			out = append(out, lowered)
		}
	}
	return out, nil
}

// findAnnotation returns the first annotation with the given name, or nil.
func findAnnotation(anns []*Annotation, name string) *Annotation {
	for _, a := range anns {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// FindAnnotation is findAnnotation exported for later compiler stages
// (core/mir) that consume already-lowered HIR annotations.
func FindAnnotation(anns []*Annotation, name string) *Annotation {
	return findAnnotation(anns, name)
}
