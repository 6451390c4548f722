// Package render turns a core/sqlgen/ast tree — already dialect-resolved by
// core/sqlgen/convert — into SQL text.
//
// Grounded on core/renderer/dialects/{mysql,mariadb}: each is a thin
// Renderer wrapping one shared base renderer, exposing Render/Reset/
// Output/GetDialect/GetOutput. This package collapses the
// one-shared-base-plus-three-thin-wrappers shape into a single Renderer
// parameterized by a profile (NewPostgres/NewMySQL/NewSQLite below each
// just call newRenderer with their profile), since every dialect here renders from the
// same already-resolved AST rather than three divergent node sets.
package render

import (
	"fmt"
	"strings"

	"github.com/kqllang/kql/core/sqlgen/ast"
)

// Renderer is the sole ast.Visitor implementation. Construct one per
// dialect via NewPostgres/NewMySQL/NewSQLite.
type Renderer struct {
	dialectName string
	p           profile
	w           strings.Builder
}

func newRenderer(dialectName string, p profile) *Renderer {
	return &Renderer{dialectName: dialectName, p: p}
}

// NewPostgres returns a Renderer targeting PostgreSQL.
func NewPostgres() *Renderer { return newRenderer("postgres", postgresProfile{}) }

// NewMySQL returns a Renderer targeting MySQL.
func NewMySQL() *Renderer { return newRenderer("mysql", mysqlProfile{}) }

// NewSQLite returns a Renderer targeting SQLite.
func NewSQLite() *Renderer { return newRenderer("sqlite", sqliteProfile{}) }

func (r *Renderer) Dialect() string { return r.dialectName }
func (r *Renderer) Reset()          { r.w.Reset() }
func (r *Renderer) Output() string  { return r.w.String() }

// Render renders a single node and returns the accumulated output since the
// last Reset.
func (r *Renderer) Render(node ast.Node) (string, error) {
	if err := node.Accept(r); err != nil {
		return "", err
	}
	return r.Output(), nil
}

func (r *Renderer) writeLine(format string, args ...any) {
	fmt.Fprintf(&r.w, format, args...)
	r.w.WriteByte('\n')
}

func (r *Renderer) VisitCreateTable(n *ast.CreateTableNode) error {
	var parts []string
	for _, col := range n.Columns {
		def, err := r.columnDef(col)
		if err != nil {
			return err
		}
		parts = append(parts, def)
	}
	for _, c := range n.Constraints {
		parts = append(parts, r.constraintDef(c))
	}
	r.writeLine("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n);", n.Name, strings.Join(parts, ",\n\t"))
	return nil
}

func (r *Renderer) columnDef(c *ast.ColumnNode) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", c.Name, c.Type)
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.AutoIncrement {
		b.WriteString(r.p.autoIncrementClause())
	}
	if c.Default != nil {
		switch {
		case c.Default.Expression != "":
			fmt.Fprintf(&b, " DEFAULT %s", c.Default.Expression)
		case c.Default.Value != "":
			fmt.Fprintf(&b, " DEFAULT %s", c.Default.Value)
		}
	}
	return b.String(), nil
}

func (r *Renderer) constraintDef(c *ast.ConstraintNode) string {
	switch c.Type {
	case ast.PrimaryKeyConstraint:
		return fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(c.Columns, ", "))
	case ast.UniqueConstraint:
		return fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", c.Name, strings.Join(c.Columns, ", "))
	case ast.ForeignKeyConstraint:
		s := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
			c.Name, strings.Join(c.Columns, ", "), c.Reference.Table, strings.Join(c.Reference.Columns, ", "))
		if c.Reference.OnDelete != "" {
			s += " ON DELETE " + c.Reference.OnDelete
		}
		if c.Reference.OnUpdate != "" {
			s += " ON UPDATE " + c.Reference.OnUpdate
		}
		return s
	default:
		return ""
	}
}

func (r *Renderer) VisitDropTable(n *ast.DropTableNode) error {
	r.writeLine("DROP TABLE IF EXISTS %s;", n.Name)
	return nil
}

func (r *Renderer) VisitRenameTable(n *ast.RenameTableNode) error {
	r.writeLine("ALTER TABLE %s RENAME TO %s;", n.OldName, n.NewName)
	return nil
}

func (r *Renderer) VisitColumn(n *ast.ColumnNode) error {
	def, err := r.columnDef(n)
	if err != nil {
		return err
	}
	r.w.WriteString(def)
	return nil
}

func (r *Renderer) VisitConstraint(n *ast.ConstraintNode) error {
	r.w.WriteString(r.constraintDef(n))
	return nil
}

func (r *Renderer) VisitIndex(n *ast.IndexNode) error {
	kw := "INDEX"
	if n.Unique {
		kw = "UNIQUE INDEX"
	}
	r.writeLine("CREATE %s IF NOT EXISTS %s ON %s (%s);", kw, n.Name, n.Table, strings.Join(n.Columns, ", "))
	return nil
}

func (r *Renderer) VisitDropIndex(n *ast.DropIndexNode) error {
	if n.Table != "" && r.dialectName == "mysql" {
		r.writeLine("DROP INDEX %s ON %s;", n.Name, n.Table)
		return nil
	}
	r.writeLine("DROP INDEX IF EXISTS %s;", n.Name)
	return nil
}

func (r *Renderer) VisitAlterTable(n *ast.AlterTableNode) error {
	for _, op := range n.Operations {
		if err := r.alterOp(n.Name, op); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) alterOp(table string, op ast.AlterOperation) error {
	switch o := op.(type) {
	case ast.AddColumnOp:
		def, err := r.columnDef(o.Column)
		if err != nil {
			return err
		}
		r.writeLine("ALTER TABLE %s ADD COLUMN %s;", table, def)
	case ast.DropColumnOp:
		r.writeLine("ALTER TABLE %s DROP COLUMN %s;", table, o.Name)
	case ast.RenameColumnOp:
		r.writeLine("ALTER TABLE %s RENAME COLUMN %s TO %s;", table, o.OldName, o.NewName)
	case ast.AlterColumnOp:
		def, err := r.columnDef(o.New)
		if err != nil {
			return err
		}
		r.writeLine("ALTER TABLE %s %s %s;", table, r.p.alterColumnKeyword(), def)
	case ast.AddForeignKeyOp:
		r.writeLine("ALTER TABLE %s ADD %s;", table, r.constraintDef(o.Constraint))
	case ast.DropForeignKeyOp:
		r.writeLine("ALTER TABLE %s DROP CONSTRAINT %s;", table, o.Name)
	default:
		return fmt.Errorf("sqlgen/render: unknown alter operation %T", op)
	}
	return nil
}

func (r *Renderer) VisitInsert(n *ast.InsertNode) error {
	placeholders := make([]string, len(n.Columns))
	for i := range n.Columns {
		placeholders[i] = r.p.placeholder(i + 1)
	}
	r.writeLine("INSERT INTO %s (%s) VALUES (%s);", n.Table, strings.Join(n.Columns, ", "), strings.Join(placeholders, ", "))
	return nil
}

func (r *Renderer) VisitUpdate(n *ast.UpdateNode) error {
	idx := 1
	sets := make([]string, len(n.SetColumns))
	for i, col := range n.SetColumns {
		sets[i] = fmt.Sprintf("%s = %s", col, r.p.placeholder(idx))
		idx++
	}
	wheres := make([]string, len(n.PrimaryKey))
	for i, col := range n.PrimaryKey {
		wheres[i] = fmt.Sprintf("%s = %s", col, r.p.placeholder(idx))
		idx++
	}
	r.writeLine("UPDATE %s SET %s WHERE %s;", n.Table, strings.Join(sets, ", "), strings.Join(wheres, " AND "))
	return nil
}

func (r *Renderer) VisitDelete(n *ast.DeleteNode) error {
	wheres := make([]string, len(n.PrimaryKey))
	for i, col := range n.PrimaryKey {
		wheres[i] = fmt.Sprintf("%s = %s", col, r.p.placeholder(i+1))
	}
	r.writeLine("DELETE FROM %s WHERE %s;", n.Table, strings.Join(wheres, " AND "))
	return nil
}

func (r *Renderer) VisitSelect(n *ast.SelectNode) error {
	proj := make([]string, len(n.Projection))
	for i, e := range n.Projection {
		proj[i] = r.renderExpr(e)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s AS %s", strings.Join(proj, ", "), n.Table, n.Alias)
	for _, j := range n.Joins {
		fmt.Fprintf(&b, " LEFT JOIN %s AS %s ON %s.%s = %s.%s",
			j.Table, j.Alias, j.Table, j.OnRight, j.OnLeftTable, j.OnLeft)
	}
	b.WriteByte(';')
	r.writeLine("%s", b.String())
	return nil
}

func (r *Renderer) renderExpr(e *ast.Expr) string {
	var s string
	switch e.Kind {
	case ast.ExprStar:
		s = "*"
	case ast.ExprColumn:
		if e.Table != "" {
			s = e.Table + "." + e.Column
		} else {
			s = e.Column
		}
	case ast.ExprCall:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = r.renderExpr(a)
		}
		s = fmt.Sprintf("%s(%s)", e.FuncName, strings.Join(args, ", "))
	}
	if e.Over != nil {
		s += " OVER (" + r.renderOverClause(e.Over) + ")"
	}
	return s
}

func (r *Renderer) renderOverClause(o *ast.OverClause) string {
	var parts []string
	if len(o.PartitionBy) > 0 {
		parts = append(parts, "PARTITION BY "+strings.Join(o.PartitionBy, ", "))
	}
	if len(o.OrderBy) > 0 {
		terms := make([]string, len(o.OrderBy))
		for i, t := range o.OrderBy {
			dir := "ASC"
			if t.Desc {
				dir = "DESC"
			}
			terms[i] = t.Column + " " + dir
		}
		parts = append(parts, "ORDER BY "+strings.Join(terms, ", "))
	}
	return strings.Join(parts, " ")
}
