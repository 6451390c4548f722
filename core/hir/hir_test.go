package hir_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/kqllang/kql/core/hir"
	"github.com/kqllang/kql/core/hirtypes"
	"github.com/kqllang/kql/core/parser"
)

func lowerSrc(c *qt.C, src string) *hir.Program {
	file, err := parser.New(src).Parse()
	c.Assert(err, qt.IsNil)
	prog, err := hir.Lower(file)
	c.Assert(err, qt.IsNil)
	return prog
}

func TestLowerSimpleStruct(t *testing.T) {
	c := qt.New(t)
	prog := lowerSrc(c, `struct User { @primary_key id: i32, name: String }`)

	id, ok := prog.NameToID["User"]
	c.Assert(ok, qt.IsTrue)
	c.Assert(prog.IDToKind[id], qt.Equals, hir.DeclStruct)

	s := prog.Structs[id]
	c.Assert(s.Fields, qt.HasLen, 2)
	c.Assert(s.Fields[0].Type.Kind, qt.Equals, hirtypes.KindPrimitive)
	c.Assert(s.Fields[0].Type.Primitive, qt.Equals, hirtypes.I32)
}

func TestLowerNamespaceQualifiesNames(t *testing.T) {
	c := qt.New(t)
	prog := lowerSrc(c, `
namespace billing {
	struct Invoice { @primary_key id: i64 }
}
`)
	_, ok := prog.NameToID["billing::Invoice"]
	c.Assert(ok, qt.IsTrue)
}

func TestLowerForwardReferenceForeignKey(t *testing.T) {
	c := qt.New(t)
	prog := lowerSrc(c, `
struct Post {
	@primary_key id: i64,
	author: ForeignKey<User>,
}
struct User {
	@primary_key id: i64,
	name: String,
}
`)
	postID := prog.NameToID["Post"]
	post := prog.Structs[postID]
	authorField := post.Fields[1]
	c.Assert(authorField.Type.Kind, qt.Equals, hirtypes.KindKey)
	c.Assert(authorField.Type.Inner.Kind, qt.Equals, hirtypes.KindPrimitive)
	c.Assert(authorField.Type.Inner.Primitive, qt.Equals, hirtypes.I64)
}

func TestLowerDuplicateNameIsSemanticError(t *testing.T) {
	c := qt.New(t)
	file, err := parser.New(`struct User { id: i32 } struct User { id: i32 }`).Parse()
	c.Assert(err, qt.IsNil)
	_, err = hir.Lower(file)
	c.Assert(err, qt.ErrorMatches, "semantic error.*already declared.*")
}

func TestLowerRecursiveAliasFails(t *testing.T) {
	c := qt.New(t)
	file, err := parser.New(`type A = A;`).Parse()
	c.Assert(err, qt.IsNil)
	_, err = hir.Lower(file)
	c.Assert(err, qt.ErrorMatches, "(?s).*recursive.*")
}

func TestLowerLayoutJsonOnStruct(t *testing.T) {
	c := qt.New(t)
	prog := lowerSrc(c, `@layout(json) struct Address { line1: String }`)
	id := prog.NameToID["Address"]
	c.Assert(prog.Structs[id].Layout.Json, qt.IsTrue)
}

func TestLowerLayoutRejectsNonJsonOnStruct(t *testing.T) {
	c := qt.New(t)
	file, err := parser.New(`@layout(u8) struct Address { line1: String }`).Parse()
	c.Assert(err, qt.IsNil)
	_, err = hir.Lower(file)
	c.Assert(err, qt.ErrorMatches, "semantic error.*")
}

func TestLowerLetArithmeticWidening(t *testing.T) {
	c := qt.New(t)
	prog := lowerSrc(c, `let total: f64 = 1 + 2.5;`)
	id := prog.NameToID["total"]
	l := prog.Lets[id]
	c.Assert(l.Type.Primitive, qt.Equals, hirtypes.F64)
	c.Assert(l.Value.Type.Primitive, qt.Equals, hirtypes.F64)
}

func TestLowerComparisonRequiresEqualTypes(t *testing.T) {
	c := qt.New(t)
	file, err := parser.New(`let ok = 1 == "x";`).Parse()
	c.Assert(err, qt.IsNil)
	_, err = hir.Lower(file)
	c.Assert(err, qt.ErrorMatches, "semantic error.*")
}

func TestLowerBuiltinCalls(t *testing.T) {
	c := qt.New(t)
	prog := lowerSrc(c, `let ts = now();`)
	id := prog.NameToID["ts"]
	c.Assert(prog.Lets[id].Type.Primitive, qt.Equals, hirtypes.DateTime)
}
