package lexer_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/kqllang/kql/core/lexer"
)

func nonTrivia(src string) []lexer.Token {
	l := lexer.NewLexer(src)
	var out []lexer.Token
	for {
		tok := l.NextToken()
		if tok.Kind == lexer.KindEOF {
			out = append(out, tok)
			return out
		}
		if tok.IsTrivia() {
			continue
		}
		out = append(out, tok)
	}
}

func TestLexerKeywordsAndPunctuation(t *testing.T) {
	c := qt.New(t)
	toks := nonTrivia(`struct User { @primary_key id: i32, name: String }`)
	kinds := make([]lexer.Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	c.Assert(kinds, qt.DeepEquals, []lexer.Kind{
		lexer.KindStruct, lexer.KindIdent, lexer.KindLBrace,
		lexer.KindAt, lexer.KindIdent, lexer.KindIdent, lexer.KindColon, lexer.KindIdent, lexer.KindComma,
		lexer.KindIdent, lexer.KindColon, lexer.KindIdent,
		lexer.KindRBrace, lexer.KindEOF,
	})
}

func TestLexerStringEscape(t *testing.T) {
	c := qt.New(t)
	toks := nonTrivia(`"hello\nworld"`)
	c.Assert(toks[0].Kind, qt.Equals, lexer.KindString)
	c.Assert(toks[0].Literal, qt.Equals, "hello\nworld")
}

func TestLexerNumber(t *testing.T) {
	c := qt.New(t)
	toks := nonTrivia(`3.14 42`)
	c.Assert(toks[0].Kind, qt.Equals, lexer.KindNumber)
	c.Assert(toks[0].Lexeme, qt.Equals, "3.14")
	c.Assert(toks[1].Lexeme, qt.Equals, "42")
}

func TestLexerTwoCharOperators(t *testing.T) {
	c := qt.New(t)
	toks := nonTrivia(`== != <= >= -> => || &&`)
	want := []lexer.Kind{
		lexer.KindEqEq, lexer.KindNotEq, lexer.KindLtEq, lexer.KindGtEq,
		lexer.KindArrow, lexer.KindFatArrow, lexer.KindOrOr, lexer.KindAndAnd,
		lexer.KindEOF,
	}
	kinds := make([]lexer.Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	c.Assert(kinds, qt.DeepEquals, want)
}

func TestLexerUnterminatedStringIsError(t *testing.T) {
	c := qt.New(t)
	toks := nonTrivia(`"oops`)
	c.Assert(toks[0].Kind, qt.Equals, lexer.KindError)
}

func TestLexerLosslessTrivia(t *testing.T) {
	c := qt.New(t)
	src := "struct // comment\nUser {}"
	l := lexer.NewLexer(src)
	var rebuilt string
	for {
		tok := l.NextToken()
		if tok.Kind == lexer.KindEOF {
			break
		}
		rebuilt += tok.Lexeme
	}
	c.Assert(rebuilt, qt.Equals, src)
}
