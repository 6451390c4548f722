// Package parser converts a KQL token stream into an AST.
//
// Hand-written with three-token lookahead, grounded on stokaro/ptah's
// core/parser.Parser (the prev/curr/peek field names, advance()-driven
// loop, timeout guard against pathological input) generalized from
// parsing SQL DDL tokens to parsing KQL declarations, plus a Pratt
// expression parser per spec.md §4.2 built on the precedence table in
// precedence.go.
package parser

import (
	"time"

	"github.com/kqllang/kql/core/ast"
	"github.com/kqllang/kql/core/diagnostics"
	"github.com/kqllang/kql/core/lexer"
)

// Parser holds the token lookahead window and the source lexer.
type Parser struct {
	lex     *lexer.Lexer
	prev    lexer.Token
	curr    lexer.Token
	peek    lexer.Token
	start   time.Time
	timeout time.Duration
}

// New creates a parser over the given KQL source text.
func New(src string) *Parser {
	p := &Parser{
		lex:     lexer.NewLexer(src),
		start:   time.Now(),
		timeout: 30 * time.Second,
	}
	p.curr = p.nextSignificant()
	p.peek = p.nextSignificant()
	return p
}

// nextSignificant pulls tokens from the lexer, skipping trivia.
func (p *Parser) nextSignificant() lexer.Token {
	for {
		tok := p.lex.NextToken()
		if !tok.IsTrivia() {
			return tok
		}
	}
}

func (p *Parser) advance() lexer.Token {
	p.prev = p.curr
	p.curr = p.peek
	p.peek = p.nextSignificant()
	return p.prev
}

func (p *Parser) checkTimeout() error {
	if time.Since(p.start) > p.timeout {
		return diagnostics.At(diagnostics.Internal, spanOf(p.curr), "parser exceeded timeout, possible infinite loop")
	}
	return nil
}

func spanOf(tok lexer.Token) diagnostics.Span {
	return diagnostics.Span{Start: tok.Start, End: tok.End, Line: tok.Line, Col: tok.Col}
}

func (p *Parser) errorf(kind diagnostics.Kind, tok lexer.Token, format string, args ...any) error {
	return diagnostics.At(kind, spanOf(tok), format, args...)
}

func (p *Parser) expect(kind lexer.Kind, what string) (lexer.Token, error) {
	if p.curr.Kind != kind {
		return lexer.Token{}, p.errorf(diagnostics.Parse, p.curr, "expected %s, found %s %q", what, p.curr.Kind, p.curr.Lexeme)
	}
	return p.advance(), nil
}

func (p *Parser) atEnd() bool { return p.curr.Kind == lexer.KindEOF }

// Parse parses the whole token stream into a File. It returns the first
// error encountered (per §7 propagation policy: stages return on first
// non-lexical error).
func (p *Parser) Parse() (*ast.File, error) {
	file := &ast.File{}
	startTok := p.curr
	for !p.atEnd() {
		if err := p.checkTimeout(); err != nil {
			return nil, err
		}
		decl, err := p.parseTopLevelDecl()
		if err != nil {
			return nil, err
		}
		file.Decls = append(file.Decls, decl)
	}
	file.Span = diagnostics.Span{Start: startTok.Start, End: p.curr.End}
	return file, nil
}

// parseTopLevelDecl parses one declaration, with the Phase-1 constraint
// that a bare (non-block) namespace declaration is rejected here — only
// `namespace Name { ... }` is legal, anywhere.
func (p *Parser) parseTopLevelDecl() (ast.Decl, error) {
	annotations, err := p.parseAnnotations()
	if err != nil {
		return nil, err
	}

	switch p.curr.Kind {
	case lexer.KindStruct:
		return p.parseStructDecl(annotations)
	case lexer.KindEnum:
		return p.parseEnumDecl(annotations)
	case lexer.KindLet:
		if len(annotations) > 0 {
			return nil, p.errorf(diagnostics.Parse, p.curr, "let bindings do not accept annotations")
		}
		return p.parseLetDecl()
	case lexer.KindNamespace:
		if len(annotations) > 0 {
			return nil, p.errorf(diagnostics.Parse, p.curr, "namespace blocks do not accept annotations")
		}
		return p.parseNamespaceDecl()
	case lexer.KindType:
		if len(annotations) > 0 {
			return nil, p.errorf(diagnostics.Parse, p.curr, "type aliases do not accept annotations")
		}
		return p.parseTypeAliasDecl()
	default:
		return nil, p.errorf(diagnostics.Parse, p.curr, "expected a declaration, found %s %q", p.curr.Kind, p.curr.Lexeme)
	}
}

func (p *Parser) parseAnnotations() ([]ast.Annotation, error) {
	var out []ast.Annotation
	for p.curr.Kind == lexer.KindAt {
		ann, err := p.parseAnnotation()
		if err != nil {
			return nil, err
		}
		out = append(out, ann)
	}
	return out, nil
}

func (p *Parser) parseAnnotation() (ast.Annotation, error) {
	at := p.advance() // '@'
	nameTok, err := p.expect(lexer.KindIdent, "annotation name")
	if err != nil {
		return ast.Annotation{}, err
	}
	ann := ast.Annotation{Name: nameTok.Literal.(string)}
	end := nameTok.End
	if p.curr.Kind == lexer.KindLParen {
		p.advance()
		for p.curr.Kind != lexer.KindRParen {
			arg, err := p.parseAnnotationArg()
			if err != nil {
				return ast.Annotation{}, err
			}
			ann.Args = append(ann.Args, arg)
			if p.curr.Kind == lexer.KindComma {
				p.advance()
				continue
			}
			break
		}
		closeTok, err := p.expect(lexer.KindRParen, "')'")
		if err != nil {
			return ast.Annotation{}, err
		}
		end = closeTok.End
	}
	ann.Span = diagnostics.Span{Start: at.Start, End: end, Line: at.Line, Col: at.Col}
	return ann, nil
}

func (p *Parser) parseAnnotationArg() (ast.AnnotationArg, error) {
	// named form: IDENT ':' Expr
	if p.curr.Kind == lexer.KindIdent && p.peek.Kind == lexer.KindColon {
		name := p.curr.Literal.(string)
		p.advance() // ident
		p.advance() // colon
		val, err := p.parseExpr(precAssignment)
		if err != nil {
			return ast.AnnotationArg{}, err
		}
		return ast.AnnotationArg{Name: name, Value: val}, nil
	}
	val, err := p.parseExpr(precAssignment)
	if err != nil {
		return ast.AnnotationArg{}, err
	}
	return ast.AnnotationArg{Value: val}, nil
}

func (p *Parser) parseStructDecl(annotations []ast.Annotation) (*ast.StructDecl, error) {
	kw := p.advance() // 'struct'
	nameTok, err := p.expect(lexer.KindIdent, "struct name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindLBrace, "'{'"); err != nil {
		return nil, err
	}
	decl := ast.NewStructDecl(nameTok.Literal.(string), spanOf(kw))
	decl.Annotations = annotations
	for p.curr.Kind != lexer.KindRBrace {
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		decl.Fields = append(decl.Fields, field)
		if p.curr.Kind == lexer.KindComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.KindRBrace, "'}'"); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseField() (ast.Field, error) {
	annotations, err := p.parseAnnotations()
	if err != nil {
		return ast.Field{}, err
	}
	nameTok, err := p.expect(lexer.KindIdent, "field name")
	if err != nil {
		return ast.Field{}, err
	}
	if _, err := p.expect(lexer.KindColon, "':'"); err != nil {
		return ast.Field{}, err
	}
	typ, err := p.parseType()
	if err != nil {
		return ast.Field{}, err
	}
	return ast.Field{
		Name:        nameTok.Literal.(string),
		Type:        typ,
		Annotations: annotations,
		Span:        diagnostics.Span{Start: nameTok.Start, End: typ.Span().End},
	}, nil
}

func (p *Parser) parseEnumDecl(annotations []ast.Annotation) (*ast.EnumDecl, error) {
	kw := p.advance() // 'enum'
	nameTok, err := p.expect(lexer.KindIdent, "enum name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindLBrace, "'{'"); err != nil {
		return nil, err
	}
	decl := ast.NewEnumDecl(nameTok.Literal.(string), spanOf(kw))
	decl.Annotations = annotations
	for p.curr.Kind != lexer.KindRBrace {
		variant, err := p.parseVariant()
		if err != nil {
			return nil, err
		}
		decl.Variants = append(decl.Variants, variant)
		if p.curr.Kind == lexer.KindComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.KindRBrace, "'}'"); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseVariant() (ast.Variant, error) {
	nameTok, err := p.expect(lexer.KindIdent, "variant name")
	if err != nil {
		return ast.Variant{}, err
	}
	v := ast.Variant{Name: nameTok.Literal.(string), Span: spanOf(nameTok)}
	if p.curr.Kind == lexer.KindLBrace {
		p.advance()
		for p.curr.Kind != lexer.KindRBrace {
			field, err := p.parseField()
			if err != nil {
				return ast.Variant{}, err
			}
			v.Fields = append(v.Fields, field)
			if p.curr.Kind == lexer.KindComma {
				p.advance()
				continue
			}
			break
		}
		closeTok, err := p.expect(lexer.KindRBrace, "'}'")
		if err != nil {
			return ast.Variant{}, err
		}
		v.Span.End = closeTok.End
	}
	return v, nil
}

func (p *Parser) parseLetDecl() (*ast.LetDecl, error) {
	kw := p.advance() // 'let'
	nameTok, err := p.expect(lexer.KindIdent, "binding name")
	if err != nil {
		return nil, err
	}
	decl := ast.NewLetDecl(nameTok.Literal.(string), spanOf(kw))
	if p.curr.Kind == lexer.KindColon {
		p.advance()
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		decl.Type = typ
	}
	if _, err := p.expect(lexer.KindEq, "'='"); err != nil {
		return nil, err
	}
	val, err := p.parseExpr(precAssignment)
	if err != nil {
		return nil, err
	}
	decl.Value = val
	if p.curr.Kind == lexer.KindSemicolon {
		p.advance()
	}
	return decl, nil
}

func (p *Parser) parseNamespaceDecl() (*ast.NamespaceDecl, error) {
	kw := p.advance() // 'namespace'
	nameTok, err := p.expect(lexer.KindIdent, "namespace name")
	if err != nil {
		return nil, err
	}
	if p.curr.Kind != lexer.KindLBrace {
		return nil, p.errorf(diagnostics.Parse, p.curr,
			"namespace %q must be followed by a block; a bare top-level namespace declaration is not allowed", nameTok.Literal)
	}
	p.advance() // '{'
	decl := ast.NewNamespaceDecl(nameTok.Literal.(string), spanOf(kw))
	for p.curr.Kind != lexer.KindRBrace {
		if err := p.checkTimeout(); err != nil {
			return nil, err
		}
		inner, err := p.parseTopLevelDecl()
		if err != nil {
			return nil, err
		}
		decl.Decls = append(decl.Decls, inner)
	}
	if _, err := p.expect(lexer.KindRBrace, "'}'"); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseTypeAliasDecl() (*ast.TypeAliasDecl, error) {
	kw := p.advance() // 'type'
	nameTok, err := p.expect(lexer.KindIdent, "type alias name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindEq, "'='"); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	decl := ast.NewTypeAliasDecl(nameTok.Literal.(string), spanOf(kw))
	decl.Type = typ
	if p.curr.Kind == lexer.KindSemicolon {
		p.advance()
	}
	return decl, nil
}

// parseType parses a type reference: named type with optional generic
// args, list sugar `[T]`, and the trailing optional suffix `T?`.
func (p *Parser) parseType() (ast.Type, error) {
	var base ast.Type
	switch p.curr.Kind {
	case lexer.KindLBracket:
		open := p.advance()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		closeTok, err := p.expect(lexer.KindRBracket, "']'")
		if err != nil {
			return nil, err
		}
		base = ast.NewListType(elem, diagnostics.Span{Start: open.Start, End: closeTok.End})
	case lexer.KindIdent:
		nameTok := p.advance()
		named := ast.NewNamedType(nameTok.Literal.(string), spanOf(nameTok))
		if p.curr.Kind == lexer.KindLt {
			p.advance()
			for {
				argType, err := p.parseType()
				if err != nil {
					return nil, err
				}
				named.Args = append(named.Args, argType)
				if p.curr.Kind == lexer.KindComma {
					p.advance()
					continue
				}
				break
			}
			closeTok, err := p.expect(lexer.KindGt, "'>'")
			if err != nil {
				return nil, err
			}
			named.SetSpanEnd(closeTok.End)
		}
		base = named
	default:
		return nil, p.errorf(diagnostics.Parse, p.curr, "expected a type, found %s %q", p.curr.Kind, p.curr.Lexeme)
	}

	if p.curr.Kind == lexer.KindQuestion {
		q := p.advance()
		base = ast.NewOptionalType(base, diagnostics.Span{Start: base.Span().Start, End: q.End})
	}
	return base, nil
}

// parseExpr is the Pratt expression parser entry point.
func (p *Parser) parseExpr(minPrec precedence) (ast.Expr, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := infixPrecedence[p.curr.Kind]
		if !ok || prec < minPrec {
			break
		}
		left, err = p.parseInfix(left, prec)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parsePrefix() (ast.Expr, error) {
	switch p.curr.Kind {
	case lexer.KindMinus, lexer.KindBang:
		opTok := p.advance()
		operand, err := p.parseExpr(precUnary)
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExpr(opTok.Kind.String(), operand, diagnostics.Span{Start: opTok.Start, End: operand.Span().End}), nil
	case lexer.KindNumber:
		tok := p.advance()
		return ast.NewNumberLit(tok.Literal.(string), spanOf(tok)), nil
	case lexer.KindString:
		tok := p.advance()
		return ast.NewStringLit(tok.Literal.(string), spanOf(tok)), nil
	case lexer.KindTrue:
		tok := p.advance()
		return ast.NewBoolLit(true, spanOf(tok)), nil
	case lexer.KindFalse:
		tok := p.advance()
		return ast.NewBoolLit(false, spanOf(tok)), nil
	case lexer.KindIdent:
		tok := p.advance()
		return ast.NewIdent(tok.Literal.(string), spanOf(tok)), nil
	case lexer.KindLParen:
		p.advance()
		inner, err := p.parseExpr(precAssignment)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.KindRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case lexer.KindLBracket:
		open := p.advance()
		var elems []ast.Expr
		for p.curr.Kind != lexer.KindRBracket {
			elem, err := p.parseExpr(precAssignment)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
			if p.curr.Kind == lexer.KindComma {
				p.advance()
				continue
			}
			break
		}
		closeTok, err := p.expect(lexer.KindRBracket, "']'")
		if err != nil {
			return nil, err
		}
		return ast.NewListExpr(elems, diagnostics.Span{Start: open.Start, End: closeTok.End}), nil
	case lexer.KindStar:
		tok := p.advance()
		return ast.NewStarExpr(spanOf(tok)), nil
	default:
		return nil, p.errorf(diagnostics.Parse, p.curr, "expected an expression, found %s %q", p.curr.Kind, p.curr.Lexeme)
	}
}

func (p *Parser) parseInfix(left ast.Expr, prec precedence) (ast.Expr, error) {
	switch p.curr.Kind {
	case lexer.KindLParen:
		p.advance()
		var args []ast.Expr
		var names []string
		for p.curr.Kind != lexer.KindRParen {
			name := ""
			if p.curr.Kind == lexer.KindIdent && p.peek.Kind == lexer.KindColon {
				name = p.curr.Literal.(string)
				p.advance() // ident
				p.advance() // colon
			}
			arg, err := p.parseExpr(precAssignment)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			names = append(names, name)
			if p.curr.Kind == lexer.KindComma {
				p.advance()
				continue
			}
			break
		}
		closeTok, err := p.expect(lexer.KindRParen, "')'")
		if err != nil {
			return nil, err
		}
		return ast.NewCallExpr(left, args, names, diagnostics.Span{Start: left.Span().Start, End: closeTok.End}), nil
	case lexer.KindDot:
		p.advance()
		nameTok, err := p.expect(lexer.KindIdent, "member name")
		if err != nil {
			return nil, err
		}
		return ast.NewMemberExpr(left, nameTok.Literal.(string), diagnostics.Span{Start: left.Span().Start, End: nameTok.End}), nil
	default:
		opTok := p.advance()
		// left-associative: parse the RHS at prec+1
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryExpr(opTok.Kind.String(), left, right, diagnostics.Span{Start: left.Span().Start, End: right.Span().End}), nil
	}
}
