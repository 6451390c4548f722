package parser

import "github.com/kqllang/kql/core/lexer"

// precedence rungs, low to high, per spec.md §4.2.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precSum
	precProduct
	precUnary
	precCall
	precMember
	precPrimary
)

// infixPrecedence maps a token kind to the precedence rung it binds at
// when used as an infix/postfix operator. Tokens absent from this table
// are not valid infix operators.
var infixPrecedence = map[lexer.Kind]precedence{
	lexer.KindEq:       precAssignment,
	lexer.KindOrOr:     precOr,
	lexer.KindAndAnd:   precAnd,
	lexer.KindEqEq:     precEquality,
	lexer.KindNotEq:    precEquality,
	lexer.KindLt:       precComparison,
	lexer.KindLtEq:     precComparison,
	lexer.KindGt:       precComparison,
	lexer.KindGtEq:     precComparison,
	lexer.KindPlus:     precSum,
	lexer.KindMinus:    precSum,
	lexer.KindStar:     precProduct,
	lexer.KindSlash:    precProduct,
	lexer.KindPercent:  precProduct,
	lexer.KindLParen:   precCall,
	lexer.KindDot:      precMember,
}

// All binary/call/member operators are left-associative (spec.md §4.2).
