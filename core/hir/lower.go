package hir

import (
	"github.com/kqllang/kql/core/ast"
	"github.com/kqllang/kql/core/diagnostics"
	"github.com/kqllang/kql/core/hirtypes"
	"github.com/kqllang/kql/core/ids"
)

// pendingForeignKey records a `ForeignKey<T>` field type that could not be
// fully resolved during the first content-lowering pass because T's own
// fields (and thus its primary key's column type) may not have been lowered
// yet — KQL permits forward references across declarations (spec.md §4.3).
type pendingForeignKey struct {
	key      *hirtypes.Type // the Key{} node to backfill Inner on
	target   ids.HirId
	site     diagnostics.Span
}

type lowerer struct {
	prog    *Program
	alloc   *ids.Allocator
	pending []pendingForeignKey
}

// Lower runs the full two-phase lowering of an AST File into a Program.
// This is the `compile(source) -> HIR` half of the parse+lower pair named
// in spec.md §6 (the other half is core/parser.New(source).Parse()).
func Lower(file *ast.File) (*Program, error) {
	l := &lowerer{prog: newProgram(), alloc: ids.NewAllocator()}

	if err := l.registerNames("", file.Decls); err != nil {
		return nil, err
	}
	if err := l.lowerDecls("", nil, file.Decls); err != nil {
		return nil, err
	}
	if err := l.resolvePendingForeignKeys(); err != nil {
		return nil, err
	}
	return l.prog, nil
}

// registerNames is Phase 1 (spec.md §4.3): allocate a HirId for every
// struct/enum/let/alias, recursing into namespace blocks. No type
// resolution happens here.
func (l *lowerer) registerNames(namespace string, decls []ast.Decl) error {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.StructDecl:
			if err := l.register(namespace, d.Name, DeclStruct, d.Span()); err != nil {
				return err
			}
		case *ast.EnumDecl:
			if err := l.register(namespace, d.Name, DeclEnum, d.Span()); err != nil {
				return err
			}
		case *ast.LetDecl:
			if err := l.register(namespace, d.Name, DeclLet, d.Span()); err != nil {
				return err
			}
		case *ast.TypeAliasDecl:
			if err := l.register(namespace, d.Name, DeclAlias, d.Span()); err != nil {
				return err
			}
		case *ast.NamespaceDecl:
			if err := l.registerNames(qualify(namespace, d.Name), d.Decls); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *lowerer) register(namespace, name string, kind DeclKind, span diagnostics.Span) error {
	q := qualify(namespace, name)
	if _, exists := l.prog.NameToID[q]; exists {
		return diagnostics.At(diagnostics.Semantic, span, "%q is already declared", q)
	}
	id := l.alloc.Next()
	l.prog.NameToID[q] = id
	l.prog.IDToKind[id] = kind
	return nil
}

// lowerDecls is Phase 2: resolve types, lower expressions, and attach
// inherited schema. schema is the `@schema("...")` value inherited from an
// enclosing namespace, if any.
func (l *lowerer) lowerDecls(namespace string, schema *string, decls []ast.Decl) error {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.StructDecl:
			if err := l.lowerStruct(namespace, schema, d); err != nil {
				return err
			}
		case *ast.EnumDecl:
			if err := l.lowerEnum(namespace, schema, d); err != nil {
				return err
			}
		case *ast.LetDecl:
			if err := l.lowerLet(namespace, d); err != nil {
				return err
			}
		case *ast.TypeAliasDecl:
			if err := l.lowerAlias(namespace, d); err != nil {
				return err
			}
		case *ast.NamespaceDecl:
			nsSchema := schema
			if s := namespaceSchema(d); s != nil {
				nsSchema = s
			}
			if err := l.lowerDecls(qualify(namespace, d.Name), nsSchema, d.Decls); err != nil {
				return err
			}
		}
	}
	return nil
}

// namespaceSchema looks for a `@schema("...")` annotation directly on a
// namespace block. Namespace blocks carry no annotations in the current
// grammar (ast.NamespaceDecl has no Annotations field), so this always
// returns nil today; kept as the single seam a future grammar extension
// would need, per the inherited-schema rule in spec.md §4.3.
func namespaceSchema(*ast.NamespaceDecl) *string { return nil }

func (l *lowerer) lowerStruct(namespace string, inheritedSchema *string, d *ast.StructDecl) error {
	id := l.prog.NameToID[qualify(namespace, d.Name)]
	anns, err := lowerAnnotations(d.Annotations)
	if err != nil {
		return err
	}
	s := &Struct{ID: id, Name: d.Name, Namespace: namespace, Annotations: anns, Span: d.Span()}

	if schemaAnn := findAnnotation(anns, "schema"); schemaAnn != nil {
		v := schemaAnn.Str
		s.Schema = &v
	} else {
		s.Schema = inheritedSchema
	}

	if layoutAnn := findAnnotation(anns, "layout"); layoutAnn != nil {
		if len(layoutAnn.Idents) != 1 || layoutAnn.Idents[0] != "json" {
			return diagnostics.At(diagnostics.Semantic, layoutAnn.Span,
				"struct @layout only accepts json, per the struct/enum asymmetry kept from the source")
		}
		s.Layout = &Layout{Json: true}
	}

	ctx := &lowerCtx{namespace: namespace}
	for _, f := range d.Fields {
		field, err := l.lowerField(ctx, f)
		if err != nil {
			return err
		}
		s.Fields = append(s.Fields, field)
	}

	l.prog.Structs[id] = s
	l.prog.StructOrder = append(l.prog.StructOrder, id)
	return nil
}

func (l *lowerer) lowerEnum(namespace string, inheritedSchema *string, d *ast.EnumDecl) error {
	id := l.prog.NameToID[qualify(namespace, d.Name)]
	anns, err := lowerAnnotations(d.Annotations)
	if err != nil {
		return err
	}
	e := &Enum{ID: id, Name: d.Name, Namespace: namespace, Annotations: anns, Span: d.Span()}

	if schemaAnn := findAnnotation(anns, "schema"); schemaAnn != nil {
		v := schemaAnn.Str
		e.Schema = &v
	} else {
		e.Schema = inheritedSchema
	}

	if layoutAnn := findAnnotation(anns, "layout"); layoutAnn != nil {
		if len(layoutAnn.Idents) != 1 {
			return diagnostics.At(diagnostics.Semantic, layoutAnn.Span, "@layout takes exactly one argument")
		}
		v := layoutAnn.Idents[0]
		if v == "json" {
			e.Layout = &Layout{Json: true}
		} else if p, ok := hirtypes.PrimitiveByName[v]; ok {
			e.Layout = &Layout{Primitive: p, IsPrimitive: true}
		} else {
			return diagnostics.At(diagnostics.Semantic, layoutAnn.Span, "unknown @layout backing %q", v)
		}
	}

	ctx := &lowerCtx{namespace: namespace}
	for _, v := range d.Variants {
		variant := Variant{Name: v.Name, Span: v.Span}
		for _, f := range v.Fields {
			field, err := l.lowerField(ctx, f)
			if err != nil {
				return err
			}
			variant.Fields = append(variant.Fields, field)
		}
		e.Variants = append(e.Variants, variant)
	}

	l.prog.Enums[id] = e
	return nil
}

func (l *lowerer) lowerField(ctx *lowerCtx, f ast.Field) (Field, error) {
	anns, err := lowerAnnotations(f.Annotations)
	if err != nil {
		return Field{}, err
	}
	typ, err := l.resolveType(ctx, f.Type)
	if err != nil {
		return Field{}, err
	}
	return Field{Name: f.Name, Type: typ, Annotations: anns, Span: f.Span}, nil
}

func (l *lowerer) lowerLet(namespace string, d *ast.LetDecl) error {
	id := l.prog.NameToID[qualify(namespace, d.Name)]
	ctx := &lowerCtx{namespace: namespace}

	value, err := l.lowerExpr(ctx, d.Value)
	if err != nil {
		return err
	}

	var declared *hirtypes.Type
	if d.Type != nil {
		declared, err = l.resolveType(ctx, d.Type)
		if err != nil {
			return err
		}
		if !declared.Equal(value.Type) {
			return diagnostics.At(diagnostics.Semantic, d.Span(),
				"let %s: declared type %s does not match value type %s", d.Name, declared, value.Type)
		}
	}

	typ := value.Type
	if declared != nil {
		typ = declared
	}
	l.prog.Lets[id] = &Let{ID: id, Name: d.Name, Namespace: namespace, Type: typ, Value: value, Span: d.Span()}
	l.prog.LetOrder = append(l.prog.LetOrder, id)
	return nil
}

func (l *lowerer) lowerAlias(namespace string, d *ast.TypeAliasDecl) error {
	id := l.prog.NameToID[qualify(namespace, d.Name)]
	ctx := &lowerCtx{namespace: namespace, visitingAliases: map[ids.HirId]bool{id: true}}
	target, err := l.resolveType(ctx, d.Type)
	if err != nil {
		return err
	}
	l.prog.Aliases[id] = &Alias{ID: id, Name: d.Name, Namespace: namespace, Target: target, Span: d.Span()}
	return nil
}

// lowerCtx threads namespace scope and alias-cycle detection state through
// a single top-level declaration's lowering.
type lowerCtx struct {
	namespace       string
	visitingAliases map[ids.HirId]bool
}

// resolveType implements the lookup order from spec.md §4.3: Key<...>,
// ForeignKey<T>, List<T>, global name table, qualified namespace lookup,
// primitive name table.
func (l *lowerer) resolveType(ctx *lowerCtx, t ast.Type) (*hirtypes.Type, error) {
	switch t := t.(type) {
	case *ast.OptionalType:
		inner, err := l.resolveType(ctx, t.Inner)
		if err != nil {
			return nil, err
		}
		return hirtypes.NewOptional(inner), nil
	case *ast.ListType:
		elem, err := l.resolveType(ctx, t.Elem)
		if err != nil {
			return nil, err
		}
		return hirtypes.NewList(elem), nil
	case *ast.NamedType:
		switch t.Name {
		case "Key":
			if len(t.Args) != 1 {
				return nil, diagnostics.At(diagnostics.Parse, t.Span(), "Key<...> takes exactly one type argument")
			}
			inner, err := l.resolveType(ctx, t.Args[0])
			if err != nil {
				return nil, err
			}
			return hirtypes.NewKey(ids.Invalid, inner), nil
		case "ForeignKey":
			if len(t.Args) != 1 {
				return nil, diagnostics.At(diagnostics.Parse, t.Span(), "ForeignKey<...> takes exactly one type argument")
			}
			targetID, err := l.lookupEntityName(ctx, t.Args[0])
			if err != nil {
				return nil, err
			}
			key := hirtypes.NewKey(targetID, hirtypes.NewUnknown())
			l.pending = append(l.pending, pendingForeignKey{key: key, target: targetID, site: t.Span()})
			return key, nil
		case "List":
			if len(t.Args) != 1 {
				return nil, diagnostics.At(diagnostics.Parse, t.Span(), "List<...> takes exactly one type argument")
			}
			elem, err := l.resolveType(ctx, t.Args[0])
			if err != nil {
				return nil, err
			}
			return hirtypes.NewList(elem), nil
		default:
			return l.resolveNamedType(ctx, t)
		}
	default:
		return nil, diagnostics.At(diagnostics.Internal, t.Span(), "unhandled AST type node")
	}
}

func (l *lowerer) lookupEntityName(ctx *lowerCtx, t ast.Type) (ids.HirId, error) {
	named, ok := t.(*ast.NamedType)
	if !ok || len(named.Args) != 0 {
		return ids.Invalid, diagnostics.At(diagnostics.Semantic, t.Span(), "expected a struct name")
	}
	return l.lookupQualified(ctx.namespace, named.Name, t.Span())
}

func (l *lowerer) resolveNamedType(ctx *lowerCtx, t *ast.NamedType) (*hirtypes.Type, error) {
	if id, ok := l.prog.NameToID[t.Name]; ok {
		return l.typeForID(ctx, id, t)
	}
	if ctx.namespace != "" {
		if id, ok := l.prog.NameToID[qualify(ctx.namespace, t.Name)]; ok {
			return l.typeForID(ctx, id, t)
		}
	}
	if p, ok := hirtypes.PrimitiveByName[t.Name]; ok {
		return hirtypes.NewPrimitive(p), nil
	}
	return nil, diagnostics.At(diagnostics.Semantic, t.Span(), "unresolved type name %q", t.Name)
}

func (l *lowerer) typeForID(ctx *lowerCtx, id ids.HirId, t *ast.NamedType) (*hirtypes.Type, error) {
	switch l.prog.IDToKind[id] {
	case DeclStruct:
		return hirtypes.NewStructRef(id), nil
	case DeclEnum:
		return hirtypes.NewEnumRef(id), nil
	case DeclAlias:
		if ctx.visitingAliases[id] {
			return nil, diagnostics.At(diagnostics.Semantic, t.Span(), "recursive type alias %q", t.Name)
		}
		alias, ok := l.prog.Aliases[id]
		if !ok {
			// Alias not yet lowered in this pass (forward reference):
			// aliases are lowered in declaration order, so a use that
			// precedes the alias's own declaration is rejected here,
			// not resolved.
			return nil, diagnostics.At(diagnostics.Semantic, t.Span(),
				"type alias %q used before its own declaration was lowered", t.Name)
		}
		return alias.Target, nil
	default:
		return nil, diagnostics.At(diagnostics.Semantic, t.Span(), "%q does not name a type", t.Name)
	}
}

func (l *lowerer) lookupQualified(namespace, name string, span diagnostics.Span) (ids.HirId, error) {
	if id, ok := l.prog.NameToID[name]; ok {
		return id, nil
	}
	if namespace != "" {
		if id, ok := l.prog.NameToID[qualify(namespace, name)]; ok {
			return id, nil
		}
	}
	return ids.Invalid, diagnostics.At(diagnostics.Semantic, span, "unresolved name %q", name)
}

// resolvePendingForeignKeys backfills the Inner type of every ForeignKey<T>
// Key node once every struct's fields have been lowered, by locating T's
// primary-key field (spec.md §4.3: "T.primary_column_type").
func (l *lowerer) resolvePendingForeignKeys() error {
	for _, pfk := range l.pending {
		target, ok := l.prog.Structs[pfk.target]
		if !ok {
			return diagnostics.At(diagnostics.Semantic, pfk.site, "ForeignKey<...> target is not a struct")
		}
		field, err := primaryKeyField(target)
		if err != nil {
			return diagnostics.At(diagnostics.Semantic, pfk.site, "%s", err.Error())
		}
		pfk.key.Inner = field.Type
	}
	return nil
}

// primaryKeyField finds the single field that determines a struct's
// primary-key column type: an explicit `@primary_key` field annotation, a
// `Key<...>` typed field, or (failing both) a field literally named "id".
func primaryKeyField(s *Struct) (*Field, error) {
	for i := range s.Fields {
		f := &s.Fields[i]
		if findAnnotation(f.Annotations, "primary_key") != nil || f.Type.Kind == hirtypes.KindKey {
			return f, nil
		}
	}
	for i := range s.Fields {
		if s.Fields[i].Name == "id" {
			return &s.Fields[i], nil
		}
	}
	return nil, errNoPrimaryKey(s.Name)
}

func errNoPrimaryKey(name string) error {
	return &noPrimaryKeyError{name: name}
}

type noPrimaryKeyError struct{ name string }

func (e *noPrimaryKeyError) Error() string {
	return "struct " + e.name + " referenced by ForeignKey<...> has no primary key"
}
