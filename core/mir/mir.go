// Package mir models the dialect-agnostic relational schema HIR projects
// into: tables, columns, keys, indexes, relations and lifecycle metadata.
//
// Grounded on core/goschema/types.go's Field/Table/Index/Enum shapes and
// core/convert/fromschema's per-entity conversion functions, generalized
// one level: the teacher converts a flat, string-typed goschema.Field
// straight into a rendering AST node, whereas MIR sits in between as a
// real typed relational model (spec.md §3) and the fromschema-style
// conversion happens one stage later, in core/sqlgen.
package mir

// ColumnType is the enumeration of physical column types named in
// spec.md §3/§4.4. Dialect-specific SQL type names are chosen from this by
// core/sqlgen, never here — MIR stays completely dialect-agnostic
// (spec.md §9 "Dialect dispatch").
type ColumnType int

const (
	I8 ColumnType = iota
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	StringType
	Bool
	DateTime
	Date
	Time
	Uuid
	Decimal
	Bytes
	Json
)

// Column is one table column.
type Column struct {
	Name          string
	Type          ColumnType
	StringLen     int // meaningful only when Type == StringType; 0 = unbounded
	Nullable      bool
	AutoIncrement bool
	Default       string // raw SQL default expression, "" when absent
}

// ForeignKey is a single- or multi-column reference to another table.
type ForeignKey struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          string // "", "CASCADE", "SET NULL", "RESTRICT", ...
	OnUpdate          string
}

// Index is a secondary index over one or more columns.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Relation is a virtual, column-less link between two tables that drives
// JOIN generation (spec.md §3).
type Relation struct {
	Name              string
	TargetTable       string
	ForeignKeyColumn  string // FK column, on this table or on the target; "" for many-to-many
	JunctionTable     string // "" unless this is a many-to-many relation
}

// LifecycleMetadata records the behavioral annotations attached to a table
// (spec.md §3/§4.4): `@audit`, `@soft_delete`, `@before_save`, `@after_delete`.
type LifecycleMetadata struct {
	Audit       bool
	SoftDelete  bool
	BeforeSave  string // hook function name, "" when absent
	AfterDelete string
}

// Table is one relational table.
type Table struct {
	Schema            string // "" when the struct had no inherited @schema
	Name              string
	Columns           []Column
	PrimaryKey        []string // column names, in declared order
	Indexes           []Index
	ForeignKeys       []ForeignKey
	Relations         []Relation
	LifecycleMetadata LifecycleMetadata
}

// QualifiedName is "schema.table", or plain "table" when Schema is empty.
func (t *Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Column looks up a column by name, or returns nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// QueryExprKind discriminates one projected expression in a lowered Query.
type QueryExprKind int

const (
	QueryExprColumn QueryExprKind = iota
	QueryExprAggregate
)

// QueryOrderTerm is one ORDER BY entry inside a window function's OVER
// clause (spec.md §4.5).
type QueryOrderTerm struct {
	Column string
	Desc   bool
}

// QueryExpr is one column or aggregate/window-function projection of a
// Query, per spec.md §4.5's "Aggregates & window functions": `count(*) |
// sum(x) | avg(x) | max(x) | min(x)`, optionally carrying a
// `.over(partition_by: ..., order_by: ...)` clause.
type QueryExpr struct {
	Kind        QueryExprKind
	Column      string // QueryExprColumn, and the aggregated column for QueryExprAggregate ("*" for count(*))
	FuncName    string // QueryExprAggregate only
	PartitionBy []string
	OrderBy     []QueryOrderTerm
}

// QueryJoin is one relation a Query auto-joins through, resolved against
// its source table's Relations by name when the query is generated.
type QueryJoin struct {
	RelationName string
	TargetTable  string
}

// Query is one `let name = Table.select(...)` (or bare relation-member)
// binding lowered to a relational query (spec.md §4.5).
type Query struct {
	Name        string // namespace-qualified, e.g. "db::user_rank"
	SourceTable string
	Joins       []QueryJoin
	Projection  []QueryExpr
}

// Schema is the full MIR snapshot: every table produced by one compilation,
// plus a format-version tag for the JSON snapshot format (spec.md §9
// "Serialization").
type Schema struct {
	FormatVersion int
	Tables        []Table
	Queries       []Query
}

// Query looks up a named query by its qualified name, or returns nil.
func (s *Schema) Query(name string) *Query {
	for i := range s.Queries {
		if s.Queries[i].Name == name {
			return &s.Queries[i]
		}
	}
	return nil
}

// CurrentFormatVersion is the format-version written by this build of the
// migration snapshot writer.
const CurrentFormatVersion = 1

// Table looks up a table by qualified name, or returns nil.
func (s *Schema) Table(qualifiedName string) *Table {
	for i := range s.Tables {
		if s.Tables[i].QualifiedName() == qualifiedName {
			return &s.Tables[i]
		}
	}
	return nil
}
