package parser_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/kqllang/kql/core/ast"
	"github.com/kqllang/kql/core/parser"
)

func TestParseStructDecl(t *testing.T) {
	c := qt.New(t)
	src := `
struct User {
	@primary_key @auto_increment
	id: i64,
	name: String,
	email: String?,
	tags: [String],
}
`
	file, err := parser.New(src).Parse()
	c.Assert(err, qt.IsNil)
	c.Assert(file.Decls, qt.HasLen, 1)

	sd, ok := file.Decls[0].(*ast.StructDecl)
	c.Assert(ok, qt.IsTrue)
	c.Assert(sd.Name, qt.Equals, "User")
	c.Assert(sd.Fields, qt.HasLen, 4)

	c.Assert(sd.Fields[0].Name, qt.Equals, "id")
	c.Assert(sd.Fields[0].Annotations, qt.HasLen, 2)
	c.Assert(sd.Fields[0].Annotations[0].Name, qt.Equals, "primary_key")
	c.Assert(sd.Fields[0].Annotations[1].Name, qt.Equals, "auto_increment")

	_, isNamed := sd.Fields[1].Type.(*ast.NamedType)
	c.Assert(isNamed, qt.IsTrue)

	opt, isOpt := sd.Fields[2].Type.(*ast.OptionalType)
	c.Assert(isOpt, qt.IsTrue)
	inner, _ := opt.Inner.(*ast.NamedType)
	c.Assert(inner.Name, qt.Equals, "String")

	list, isList := sd.Fields[3].Type.(*ast.ListType)
	c.Assert(isList, qt.IsTrue)
	elem, _ := list.Elem.(*ast.NamedType)
	c.Assert(elem.Name, qt.Equals, "String")
}

func TestParseEnumDecl(t *testing.T) {
	c := qt.New(t)
	src := `
enum Status {
	Active,
	Suspended { reason: String },
}
`
	file, err := parser.New(src).Parse()
	c.Assert(err, qt.IsNil)
	ed, ok := file.Decls[0].(*ast.EnumDecl)
	c.Assert(ok, qt.IsTrue)
	c.Assert(ed.Variants, qt.HasLen, 2)
	c.Assert(ed.Variants[0].Name, qt.Equals, "Active")
	c.Assert(ed.Variants[0].Fields, qt.HasLen, 0)
	c.Assert(ed.Variants[1].Name, qt.Equals, "Suspended")
	c.Assert(ed.Variants[1].Fields, qt.HasLen, 1)
}

func TestParseNamespaceDecl(t *testing.T) {
	c := qt.New(t)
	src := `
namespace billing {
	struct Invoice { id: i64 }
}
`
	file, err := parser.New(src).Parse()
	c.Assert(err, qt.IsNil)
	ns, ok := file.Decls[0].(*ast.NamespaceDecl)
	c.Assert(ok, qt.IsTrue)
	c.Assert(ns.Name, qt.Equals, "billing")
	c.Assert(ns.Decls, qt.HasLen, 1)
}

func TestParseBareNamespaceIsError(t *testing.T) {
	c := qt.New(t)
	_, err := parser.New(`namespace billing;`).Parse()
	c.Assert(err, qt.ErrorMatches, ".*bare top-level namespace.*")
}

func TestParseLetDeclWithExpr(t *testing.T) {
	c := qt.New(t)
	file, err := parser.New(`let maxRetries: i32 = 3 + 2 * 4;`).Parse()
	c.Assert(err, qt.IsNil)
	ld, ok := file.Decls[0].(*ast.LetDecl)
	c.Assert(ok, qt.IsTrue)
	c.Assert(ld.Name, qt.Equals, "maxRetries")

	bin, ok := ld.Value.(*ast.BinaryExpr)
	c.Assert(ok, qt.IsTrue)
	c.Assert(bin.Op, qt.Equals, "+")
	// precedence: '*' binds tighter than '+', so RHS is the product.
	_, rhsIsBinary := bin.RHS.(*ast.BinaryExpr)
	c.Assert(rhsIsBinary, qt.IsTrue)
}

func TestParseCallAndMemberExpr(t *testing.T) {
	c := qt.New(t)
	file, err := parser.New(`let x = now().year;`).Parse()
	c.Assert(err, qt.IsNil)
	ld := file.Decls[0].(*ast.LetDecl)
	member, ok := ld.Value.(*ast.MemberExpr)
	c.Assert(ok, qt.IsTrue)
	c.Assert(member.Name, qt.Equals, "year")
	call, ok := member.Receiver.(*ast.CallExpr)
	c.Assert(ok, qt.IsTrue)
	callee, ok := call.Callee.(*ast.Ident)
	c.Assert(ok, qt.IsTrue)
	c.Assert(callee.Name, qt.Equals, "now")
}

func TestParseTypeAliasDecl(t *testing.T) {
	c := qt.New(t)
	file, err := parser.New(`type UserId = Key<i64>;`).Parse()
	c.Assert(err, qt.IsNil)
	ta, ok := file.Decls[0].(*ast.TypeAliasDecl)
	c.Assert(ok, qt.IsTrue)
	c.Assert(ta.Name, qt.Equals, "UserId")
	named, ok := ta.Type.(*ast.NamedType)
	c.Assert(ok, qt.IsTrue)
	c.Assert(named.Name, qt.Equals, "Key")
	c.Assert(named.Args, qt.HasLen, 1)
}

func TestParseAnnotationWithNamedArgs(t *testing.T) {
	c := qt.New(t)
	src := `
struct Post {
	@index(name: "idx_author", unique: true)
	authorId: i64,
}
`
	file, err := parser.New(src).Parse()
	c.Assert(err, qt.IsNil)
	sd := file.Decls[0].(*ast.StructDecl)
	ann := sd.Fields[0].Annotations[0]
	c.Assert(ann.Name, qt.Equals, "index")
	c.Assert(ann.Args, qt.HasLen, 2)
	c.Assert(ann.Args[0].Name, qt.Equals, "name")
	c.Assert(ann.Args[1].Name, qt.Equals, "unique")
}

func TestParseUnexpectedTokenIsParseError(t *testing.T) {
	c := qt.New(t)
	_, err := parser.New(`struct 123 {}`).Parse()
	c.Assert(err, qt.ErrorMatches, "parse error.*")
}
