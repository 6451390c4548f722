package mir

import (
	"strings"

	"github.com/kqllang/kql/core/diagnostics"
	"github.com/kqllang/kql/core/hir"
	"github.com/kqllang/kql/core/hirtypes"
	"github.com/kqllang/kql/core/ids"
)

// pendingColumnType is an implicit struct-reference column (a field whose
// type is a plain entity reference, not an explicit ForeignKey<T>) whose
// physical type cannot be known until the referenced struct's own table —
// possibly declared later in the file — has been built.
type pendingColumnType struct {
	tableIdx int
	colIdx   int
	target   ids.HirId
	site     diagnostics.Span
}

// pendingM2M is one side of a many-to-many relation, collected while
// walking fields and paired up by relation name once every struct has been
// seen (spec.md §4.4: "fields on both sides sharing @relation(name: ...)").
type pendingM2M struct {
	relationName string
	ownerStruct  ids.HirId
	targetStruct ids.HirId
	fieldName    string
	site         diagnostics.Span
}

type lowering struct {
	prog            *hir.Program
	schema          *Schema
	tableIndexByID  map[ids.HirId]int
	pendingColumns  []pendingColumnType
	pendingM2M      []pendingM2M
}

// Lower projects a fully-resolved HIR program into a relational MIR schema,
// per spec.md §4.4.
func Lower(prog *hir.Program) (*Schema, error) {
	l := &lowering{
		prog:           prog,
		schema:         &Schema{FormatVersion: CurrentFormatVersion},
		tableIndexByID: map[ids.HirId]int{},
	}

	for _, id := range prog.StructOrder {
		s := prog.Structs[id]
		if s.Layout != nil && s.Layout.Json {
			continue // spec.md §3: a @layout(json) struct never produces a table
		}
		l.tableIndexByID[id] = len(l.schema.Tables)
		l.schema.Tables = append(l.schema.Tables, l.tableSkeleton(s))
	}

	for _, id := range prog.StructOrder {
		s := prog.Structs[id]
		if s.Layout != nil && s.Layout.Json {
			continue
		}
		if err := l.lowerFields(s); err != nil {
			return nil, err
		}
	}

	if err := l.resolvePendingColumns(); err != nil {
		return nil, err
	}
	if err := l.resolveManyToMany(); err != nil {
		return nil, err
	}
	if err := l.lowerQueries(); err != nil {
		return nil, err
	}
	return l.schema, nil
}

func tableName(s *hir.Struct) string {
	if tableAnn := hir.FindAnnotation(s.Annotations, "table"); tableAnn != nil {
		return tableAnn.Str
	}
	return strings.ToLower(s.Name)
}

func (l *lowering) tableSkeleton(s *hir.Struct) Table {
	t := Table{Name: tableName(s)}
	if s.Schema != nil {
		t.Schema = *s.Schema
	}

	if pk := hir.FindAnnotation(s.Annotations, "primary_key"); pk != nil {
		t.PrimaryKey = append([]string{}, pk.Idents...)
	}
	if idx := hir.FindAnnotation(s.Annotations, "index"); idx != nil {
		t.Indexes = append(t.Indexes, Index{
			Name:    t.Name + "_" + strings.Join(idx.Idents, "_") + "_idx",
			Columns: append([]string{}, idx.Idents...),
			Unique:  idx.HasFlag("unique"),
		})
	}

	audit := hir.FindAnnotation(s.Annotations, "audit") != nil
	softDelete := hir.FindAnnotation(s.Annotations, "soft_delete") != nil
	t.LifecycleMetadata = LifecycleMetadata{Audit: audit, SoftDelete: softDelete}
	if bs := hir.FindAnnotation(s.Annotations, "before_save"); bs != nil && len(bs.Idents) == 1 {
		t.LifecycleMetadata.BeforeSave = bs.Idents[0]
	}
	if ad := hir.FindAnnotation(s.Annotations, "after_delete"); ad != nil && len(ad.Idents) == 1 {
		t.LifecycleMetadata.AfterDelete = ad.Idents[0]
	}
	return t
}

func (l *lowering) lowerFields(s *hir.Struct) error {
	tableIdx := l.tableIndexByID[s.ID]
	table := &l.schema.Tables[tableIdx]

	for _, f := range s.Fields {
		if err := l.lowerField(table, tableIdx, s.ID, f); err != nil {
			return err
		}
	}

	if table.LifecycleMetadata.Audit {
		table.Columns = append(table.Columns,
			Column{Name: "created_at", Type: DateTime, Default: "CURRENT_TIMESTAMP"},
			Column{Name: "updated_at", Type: DateTime, Default: "CURRENT_TIMESTAMP"},
		)
	}
	if table.LifecycleMetadata.SoftDelete {
		table.Columns = append(table.Columns, Column{Name: "deleted_at", Type: DateTime, Nullable: true})
	}

	if len(table.PrimaryKey) == 0 {
		hint := primaryKeyColumnHint(s)
		for _, c := range table.Columns {
			if c.Name == hint {
				table.PrimaryKey = []string{c.Name}
				break
			}
		}
	}
	return nil
}

// primaryKeyColumnHint finds the field-level @primary_key column name for a
// struct that did not declare a struct-level composite @primary_key.
func primaryKeyColumnHint(s *hir.Struct) string {
	for _, f := range s.Fields {
		if hir.FindAnnotation(f.Annotations, "primary_key") != nil || f.Type.Kind == hirtypes.KindKey {
			return f.Name
		}
	}
	return ""
}

func (l *lowering) lowerField(table *Table, tableIdx int, ownerID ids.HirId, f hir.Field) error {
	relAnn := hir.FindAnnotation(f.Annotations, "relation")

	isPK := false
	isNullable := false
	fkEntity := ids.Invalid
	t := f.Type
	for {
		switch t.Kind {
		case hirtypes.KindKey:
			isPK = true
			fkEntity = t.Entity
			t = t.Inner
			continue
		case hirtypes.KindOptional:
			isNullable = true
			t = t.Elem
			continue
		}
		break
	}

	// List fields are relations (one-to-many or many-to-many) when
	// annotated @relation, otherwise a serialized Json column.
	if t.Kind == hirtypes.KindList {
		if relAnn == nil {
			table.Columns = append(table.Columns, Column{Name: f.Name, Type: Json, Nullable: isNullable})
			return nil
		}
		elem := t.Elem
		if elem.Kind != hirtypes.KindStruct {
			return diagnostics.At(diagnostics.Semantic, f.Span, "@relation list field %q must reference a struct", f.Name)
		}
		if name := relAnn.Named["name"].Str; name != "" {
			l.pendingM2M = append(l.pendingM2M, pendingM2M{
				relationName: name, ownerStruct: ownerID, targetStruct: elem.Ref, fieldName: f.Name, site: f.Span,
			})
			return nil
		}
		targetTable := l.tableNameFor(elem.Ref)
		table.Relations = append(table.Relations, Relation{
			Name: f.Name, TargetTable: targetTable, ForeignKeyColumn: relAnn.Named["foreign_key"].Str,
		})
		return nil
	}

	if t.Kind == hirtypes.KindEnum {
		col := enumColumn(l.prog.Enums[t.Ref], f.Name, isNullable)
		applyFieldAnnotations(table, &col, f.Annotations, isPK)
		table.Columns = append(table.Columns, col)
		return nil
	}

	if t.Kind == hirtypes.KindStruct {
		target := l.prog.Structs[t.Ref]
		if target.Layout != nil && target.Layout.Json {
			table.Columns = append(table.Columns, Column{Name: f.Name, Type: Json, Nullable: isNullable})
			return nil
		}
		col := Column{Name: f.Name, Nullable: isNullable}
		applyFieldAnnotations(table, &col, f.Annotations, isPK)
		colIdx := len(table.Columns)
		table.Columns = append(table.Columns, col)
		l.pendingColumns = append(l.pendingColumns, pendingColumnType{tableIdx: tableIdx, colIdx: colIdx, target: t.Ref, site: f.Span})
		targetTableName := l.tableNameFor(t.Ref)
		table.ForeignKeys = append(table.ForeignKeys, ForeignKey{
			Name:              table.Name + "_" + f.Name + "_fk",
			Columns:           []string{f.Name},
			ReferencedTable:   targetTableName,
			ReferencedColumns: []string{"id"}, // backfilled below once the target's PK is known
		})
		if relAnn != nil {
			name := relAnn.Named["name"].Str
			if name == "" {
				name = f.Name
			}
			table.Relations = append(table.Relations, Relation{Name: name, TargetTable: targetTableName, ForeignKeyColumn: f.Name})
		}
		return nil
	}

	if t.Kind == hirtypes.KindPrimitive {
		col := Column{Name: f.Name, Type: mapPrimitive(t.Primitive), Nullable: isNullable}
		if t.Primitive == hirtypes.String {
			col.Type = StringType
		}
		if fkEntity != ids.Invalid {
			// An explicit ForeignKey<T> column: HIR already resolved Inner
			// to T's primary-key column type, so no deferred pass is needed.
			targetTableName := l.tableNameFor(fkEntity)
			table.ForeignKeys = append(table.ForeignKeys, ForeignKey{
				Name:              table.Name + "_" + f.Name + "_fk",
				Columns:           []string{f.Name},
				ReferencedTable:   targetTableName,
				ReferencedColumns: []string{"id"},
			})
		}
		applyFieldAnnotations(table, &col, f.Annotations, isPK)
		table.Columns = append(table.Columns, col)
		return nil
	}

	// Kind == KindUnknown: a field whose type could not be resolved to
	// anything concrete. Stored as Json so a compile doesn't silently lose
	// the column; this should not occur for a program that lowered cleanly
	// through HIR.
	table.Columns = append(table.Columns, Column{Name: f.Name, Type: Json, Nullable: isNullable})
	return nil
}

func applyFieldAnnotations(table *Table, col *Column, anns []*hir.Annotation, isPK bool) {
	if hir.FindAnnotation(anns, "primary_key") != nil {
		isPK = true
	}
	if isPK {
		table.PrimaryKey = appendIfMissing(table.PrimaryKey, col.Name)
	}
	if hir.FindAnnotation(anns, "auto_increment") != nil {
		col.AutoIncrement = true
	}
	if hir.FindAnnotation(anns, "nullable") != nil {
		col.Nullable = true
	}
	if hir.FindAnnotation(anns, "unique") != nil {
		table.Indexes = append(table.Indexes, Index{Name: table.Name + "_" + col.Name + "_key", Columns: []string{col.Name}, Unique: true})
	}
}

func appendIfMissing(cols []string, name string) []string {
	for _, c := range cols {
		if c == name {
			return cols
		}
	}
	return append(cols, name)
}

func enumColumn(e *hir.Enum, name string, nullable bool) Column {
	if e.Layout != nil {
		if e.Layout.Json {
			return Column{Name: name, Type: Json, Nullable: nullable}
		}
		if e.Layout.IsPrimitive {
			return Column{Name: name, Type: mapPrimitive(e.Layout.Primitive), Nullable: nullable}
		}
	}
	// No @layout: store the variant name as text, the simplest backing
	// that needs no extra type declaration from the caller.
	return Column{Name: name, Type: StringType, Nullable: nullable}
}

func mapPrimitive(p hirtypes.Primitive) ColumnType {
	switch p {
	case hirtypes.I8:
		return I8
	case hirtypes.I16:
		return I16
	case hirtypes.I32:
		return I32
	case hirtypes.I64:
		return I64
	case hirtypes.U8:
		return U8
	case hirtypes.U16:
		return U16
	case hirtypes.U32:
		return U32
	case hirtypes.U64:
		return U64
	case hirtypes.F32:
		return F32
	case hirtypes.F64:
		return F64
	case hirtypes.String:
		return StringType
	case hirtypes.Bool:
		return Bool
	case hirtypes.DateTime:
		return DateTime
	case hirtypes.Date:
		return Date
	case hirtypes.Time:
		return Time
	case hirtypes.Uuid:
		return Uuid
	case hirtypes.Decimal:
		return Decimal
	case hirtypes.Bytes:
		return Bytes
	case hirtypes.Json:
		return Json
	default:
		return Json
	}
}

// tableNameFor returns the qualified ("schema.table", or bare "table") name
// of the table a struct lowered to, matching Schema.Table's lookup key.
func (l *lowering) tableNameFor(id ids.HirId) string {
	if idx, ok := l.tableIndexByID[id]; ok {
		return l.schema.Tables[idx].QualifiedName()
	}
	return ""
}

// resolvePendingColumns backfills the physical type (and referenced PK
// column name) of implicit struct-reference columns once every table's
// own primary key is known.
func (l *lowering) resolvePendingColumns() error {
	for _, p := range l.pendingColumns {
		idx, ok := l.tableIndexByID[p.target]
		if !ok {
			return diagnostics.At(diagnostics.Semantic, p.site, "foreign-key target struct has no table")
		}
		target := &l.schema.Tables[idx]
		if len(target.PrimaryKey) == 0 {
			return diagnostics.At(diagnostics.Semantic, p.site, "foreign-key target table %q has no primary key", target.Name)
		}
		pkCol := target.Column(target.PrimaryKey[0])
		col := &l.schema.Tables[p.tableIdx].Columns[p.colIdx]
		col.Type = pkCol.Type
		col.StringLen = pkCol.StringLen

		for i := range l.schema.Tables[p.tableIdx].ForeignKeys {
			fk := &l.schema.Tables[p.tableIdx].ForeignKeys[i]
			if len(fk.Columns) == 1 && fk.Columns[0] == col.Name && fk.ReferencedTable == target.QualifiedName() {
				fk.ReferencedColumns = []string{target.PrimaryKey[0]}
			}
		}
	}
	return nil
}

// resolveManyToMany pairs up deferred many-to-many relation sides by
// relation name and synthesizes the junction table (spec.md §4.4, §8
// invariant: exactly 2 columns, 2 foreign keys, composite PK of both).
func (l *lowering) resolveManyToMany() error {
	byName := map[string][]pendingM2M{}
	var order []string
	for _, p := range l.pendingM2M {
		if _, seen := byName[p.relationName]; !seen {
			order = append(order, p.relationName)
		}
		byName[p.relationName] = append(byName[p.relationName], p)
	}

	for _, name := range order {
		sides := byName[name]
		if len(sides) != 2 {
			return diagnostics.At(diagnostics.Semantic, sides[0].site,
				"many-to-many relation %q must have exactly two sides sharing @relation(name: %q), found %d", name, name, len(sides))
		}
		a, b := sides[0], sides[1]
		aTable := l.tableNameFor(a.ownerStruct)
		bTable := l.tableNameFor(b.ownerStruct)
		aPK := l.schema.Table(aTable).PrimaryKey[0]
		bPK := l.schema.Table(bTable).PrimaryKey[0]
		aCol := aTable + "_id"
		bCol := bTable + "_id"

		junction := Table{
			Name:       name,
			PrimaryKey: []string{aCol, bCol},
			Columns: []Column{
				{Name: aCol, Type: l.schema.Table(aTable).Column(aPK).Type},
				{Name: bCol, Type: l.schema.Table(bTable).Column(bPK).Type},
			},
			ForeignKeys: []ForeignKey{
				{Name: name + "_" + aCol + "_fk", Columns: []string{aCol}, ReferencedTable: aTable, ReferencedColumns: []string{aPK}, OnDelete: "CASCADE"},
				{Name: name + "_" + bCol + "_fk", Columns: []string{bCol}, ReferencedTable: bTable, ReferencedColumns: []string{bPK}, OnDelete: "CASCADE"},
			},
		}
		l.schema.Tables = append(l.schema.Tables, junction)

		aSide := l.schema.Table(aTable)
		aSide.Relations = append(aSide.Relations, Relation{Name: a.fieldName, TargetTable: bTable, JunctionTable: name})
		bSide := l.schema.Table(bTable)
		bSide.Relations = append(bSide.Relations, Relation{Name: b.fieldName, TargetTable: aTable, JunctionTable: name})
	}
	return nil
}
