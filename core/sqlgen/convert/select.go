package convert

import (
	"fmt"

	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/core/sqlgen/ast"
)

// SelectWithJoins builds `SELECT * FROM src AS src_alias LEFT JOIN ...`
// for each named relation on srcTable, per spec.md §4.5's auto-JOIN rules:
// one-to-many/many-to-one joins directly on `src.fk = tgt.ref`; many-to-many
// joins twice, through the junction table, aliased by junction name and
// relation name respectively.
func SelectWithJoins(schema *mir.Schema, srcTable string, relationNames []string) (*ast.SelectNode, error) {
	src := schema.Table(srcTable)
	if src == nil {
		return nil, fmt.Errorf("sqlgen/convert: unknown table %q", srcTable)
	}
	if len(src.PrimaryKey) == 0 {
		return nil, fmt.Errorf("sqlgen/convert: table %q has no primary key", srcTable)
	}

	srcAlias := srcTable
	node := &ast.SelectNode{Table: srcTable, Alias: srcAlias, Projection: []*ast.Expr{ast.Star()}}

	for _, relName := range relationNames {
		rel := findRelation(src, relName)
		if rel == nil {
			return nil, fmt.Errorf("sqlgen/convert: table %q has no relation %q", srcTable, relName)
		}
		target := schema.Table(rel.TargetTable)
		if target == nil {
			return nil, fmt.Errorf("sqlgen/convert: relation %q targets unknown table %q", relName, rel.TargetTable)
		}

		if rel.JunctionTable != "" {
			junction := schema.Table(rel.JunctionTable)
			if junction == nil {
				return nil, fmt.Errorf("sqlgen/convert: relation %q has unknown junction table %q", relName, rel.JunctionTable)
			}
			srcFK := junctionColumnFor(junction, srcTable, src)
			tgtFK := junctionColumnFor(junction, rel.TargetTable, target)
			if srcFK == "" || tgtFK == "" {
				return nil, fmt.Errorf("sqlgen/convert: junction table %q has no foreign key back to %q or %q", rel.JunctionTable, srcTable, rel.TargetTable)
			}

			node.Joins = append(node.Joins,
				ast.JoinClause{
					Kind: ast.LeftJoin, Table: rel.JunctionTable, Alias: rel.JunctionTable,
					OnLeftTable: srcAlias, OnLeft: src.PrimaryKey[0], OnRight: srcFK,
				},
				ast.JoinClause{
					Kind: ast.LeftJoin, Table: rel.TargetTable, Alias: relName,
					OnLeftTable: rel.JunctionTable, OnLeft: tgtFK, OnRight: target.PrimaryKey[0],
				},
			)
			continue
		}

		if src.Column(rel.ForeignKeyColumn) != nil {
			// The "many" side: the FK column lives on src itself.
			node.Joins = append(node.Joins, ast.JoinClause{
				Kind: ast.LeftJoin, Table: rel.TargetTable, Alias: relName,
				OnLeftTable: srcAlias, OnLeft: rel.ForeignKeyColumn, OnRight: target.PrimaryKey[0],
			})
			continue
		}

		// The "one" side: the FK column lives on the target table.
		node.Joins = append(node.Joins, ast.JoinClause{
			Kind: ast.LeftJoin, Table: rel.TargetTable, Alias: relName,
			OnLeftTable: srcAlias, OnLeft: src.PrimaryKey[0], OnRight: rel.ForeignKeyColumn,
		})
	}

	return node, nil
}

func findRelation(t *mir.Table, name string) *mir.Relation {
	for i := range t.Relations {
		if t.Relations[i].Name == name {
			return &t.Relations[i]
		}
	}
	return nil
}

// junctionColumnFor finds the junction table's FK column pointing back at
// side (identified by sideTable), by matching ForeignKey.ReferencedTable.
func junctionColumnFor(junction *mir.Table, sideTable string, side *mir.Table) string {
	for _, fk := range junction.ForeignKeys {
		if fk.ReferencedTable == side.QualifiedName() || fk.ReferencedTable == sideTable {
			if len(fk.Columns) > 0 {
				return fk.Columns[0]
			}
		}
	}
	return ""
}
