// Package filter implements the infix filter-expression compiler and its
// postfix-VM evaluator: tokenizer, shunting-yard compiler to a postfix
// program, and a typed runtime that resolves selectors against JSON
// attributes supplied at evaluation time.
package filter

// tokenKind classifies one lexeme.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokSelector
	tokOp
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
)

// token is one lexeme with its source byte offset, used for syntax-error
// reporting.
type token struct {
	kind tokenKind
	pos  int
	text string  // operator name, or the raw selector path incl. leading dot
	num  float64 // valid when kind == tokNumber
	str  string  // valid when kind == tokString, escapes already resolved
}

// opInfo describes one operator's precedence, associativity and arity, the
// way original_source/expr.c's operator table does.
type opInfo struct {
	precedence int
	rightAssoc bool
	unary      bool
}

var operators = map[string]opInfo{
	"or":  {0, false, false},
	"||":  {0, false, false},
	"and": {1, false, false},
	"&&":  {1, false, false},
	"<":   {2, false, false},
	"<=":  {2, false, false},
	">":   {2, false, false},
	">=":  {2, false, false},
	"==":  {2, false, false},
	"!=":  {2, false, false},
	"in":  {2, false, false},
	"+":   {3, false, false},
	"-":   {3, false, false},
	"*":   {4, false, false},
	"/":   {4, false, false},
	"%":   {4, false, false},
	"**":  {5, true, false},
	"!":   {6, true, true},
	"not": {6, true, true},
}
