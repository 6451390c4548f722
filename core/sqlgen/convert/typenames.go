package convert

import (
	"fmt"

	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/core/sqlgen/dialect"
)

// typeName resolves a MIR column type to a dialect-specific SQL type name,
// per spec.md §4.5's abridged type-rendering matrix. This is new relative
// to the teacher (whose goschema.Field already carries a concrete type
// string per platform, via struct-tag-driven Overrides) but follows the
// same "resolve the platform-specific string before constructing the AST
// node" shape as fromschema.FromField/applyPlatformOverrides.
//
// Bool and Time are not in spec.md §4.5's abridged table; both dialect
// conventions (Postgres BOOLEAN/TIME, MySQL TINYINT(1)/TIME, SQLite
// INTEGER/TEXT) were filled in as an Open Question decision (DESIGN.md).
func typeName(d dialect.Dialect, t mir.ColumnType, length int) string {
	switch d {
	case dialect.Postgres:
		return postgresTypeName(t, length)
	case dialect.MySQL:
		return mysqlTypeName(t, length)
	case dialect.SQLite:
		return sqliteTypeName(t, length)
	default:
		panic(fmt.Sprintf("sqlgen/convert: unknown dialect %q", d))
	}
}

func postgresTypeName(t mir.ColumnType, length int) string {
	switch t {
	case mir.I8, mir.I16:
		return "SMALLINT"
	case mir.I32:
		return "INT"
	case mir.I64:
		return "BIGINT"
	case mir.U8:
		return "SMALLINT"
	case mir.U16:
		return "INT"
	case mir.U32:
		return "NUMERIC(10)"
	case mir.U64:
		return "NUMERIC(20)"
	case mir.F32:
		return "REAL"
	case mir.F64:
		return "DOUBLE PRECISION"
	case mir.StringType:
		if length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", length)
		}
		return "VARCHAR"
	case mir.Bool:
		return "BOOLEAN"
	case mir.DateTime:
		return "TIMESTAMP"
	case mir.Date:
		return "DATE"
	case mir.Time:
		return "TIME"
	case mir.Uuid:
		return "UUID"
	case mir.Decimal:
		return "NUMERIC(38,10)"
	case mir.Bytes:
		return "BYTEA"
	case mir.Json:
		return "JSONB"
	default:
		panic(fmt.Sprintf("sqlgen/convert: unknown column type %v", t))
	}
}

func mysqlTypeName(t mir.ColumnType, length int) string {
	switch t {
	case mir.I8:
		return "TINYINT"
	case mir.I16:
		return "SMALLINT"
	case mir.I32:
		return "INT"
	case mir.I64:
		return "BIGINT"
	case mir.U8:
		return "TINYINT UNSIGNED"
	case mir.U16:
		return "SMALLINT UNSIGNED"
	case mir.U32:
		return "INT UNSIGNED"
	case mir.U64:
		return "BIGINT UNSIGNED"
	case mir.F32:
		return "FLOAT"
	case mir.F64:
		return "DOUBLE"
	case mir.StringType:
		if length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", length)
		}
		return "TEXT"
	case mir.Bool:
		return "TINYINT(1)"
	case mir.DateTime:
		return "DATETIME"
	case mir.Date:
		return "DATE"
	case mir.Time:
		return "TIME"
	case mir.Uuid:
		return "CHAR(36)"
	case mir.Decimal:
		return "DECIMAL(38,10)"
	case mir.Bytes:
		return "BLOB"
	case mir.Json:
		return "JSON"
	default:
		panic(fmt.Sprintf("sqlgen/convert: unknown column type %v", t))
	}
}

// sqliteTypeName follows SQLite's type-affinity model (spec.md §4.5): nearly
// everything that isn't a 64-bit-representable integer collapses to TEXT,
// BLOB, or INTEGER/REAL affinity classes rather than a dedicated type name.
func sqliteTypeName(t mir.ColumnType, _ int) string {
	switch t {
	case mir.I8, mir.I16, mir.I32, mir.I64, mir.U8, mir.U16, mir.U32, mir.U64, mir.Bool:
		return "INTEGER"
	case mir.F32, mir.F64:
		return "REAL"
	case mir.Bytes:
		return "BLOB"
	case mir.StringType, mir.DateTime, mir.Date, mir.Time, mir.Uuid, mir.Decimal, mir.Json:
		return "TEXT"
	default:
		panic(fmt.Sprintf("sqlgen/convert: unknown column type %v", t))
	}
}
