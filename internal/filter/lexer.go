package filter

import (
	"strconv"
	"strings"
)

// tokenize scans src into a token stream. The lone context-sensitive rule
// is unary minus: '-' opens a number literal when no value could precede
// it (start of input, right after an operator, '(', '[' or ',') and is
// read as part of that literal; otherwise it is the binary '-' operator.
func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	n := len(src)

	canStartValue := func() bool {
		if len(toks) == 0 {
			return true
		}
		last := toks[len(toks)-1]
		switch last.kind {
		case tokOp, tokLParen, tokLBracket, tokComma:
			return true
		default:
			return false
		}
	}

	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		case c == '(':
			toks = append(toks, token{kind: tokLParen, pos: i, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, pos: i, text: ")"})
			i++
		case c == '[':
			toks = append(toks, token{kind: tokLBracket, pos: i, text: "["})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokRBracket, pos: i, text: "]"})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, pos: i, text: ","})
			i++
		case c == '.':
			tok, next, err := lexSelector(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case c == '\'' || c == '"':
			tok, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case c >= '0' && c <= '9':
			tok, next, err := lexNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case c == '-' && canStartValue() && i+1 < n && src[i+1] >= '0' && src[i+1] <= '9':
			tok, next, err := lexNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		default:
			tok, next, err := lexOperator(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: n})
	return toks, nil
}

func lexSelector(src string, start int) (token, int, error) {
	i := start + 1
	n := len(src)
	if i >= n || !isIdentStart(src[i]) {
		return token{}, 0, syntaxErr(start, "expected identifier after '.'")
	}
	for i < n && (isIdentPart(src[i]) || src[i] == '.') {
		i++
	}
	return token{kind: tokSelector, pos: start, text: src[start:i]}, i, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func lexString(src string, start int) (token, int, error) {
	quote := src[start]
	n := len(src)
	var b strings.Builder
	i := start + 1
	for i < n && src[i] != quote {
		c := src[i]
		if c == '\\' && i+1 < n {
			i++
			switch src[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			case '\'':
				b.WriteByte('\'')
			case '"':
				b.WriteByte('"')
			default:
				b.WriteByte(src[i])
			}
			i++
			continue
		}
		b.WriteByte(c)
		i++
	}
	if i >= n {
		return token{}, 0, syntaxErr(start, "unterminated string literal")
	}
	return token{kind: tokString, pos: start, str: b.String()}, i + 1, nil
}

func lexNumber(src string, start int) (token, int, error) {
	n := len(src)
	i := start
	if src[i] == '-' {
		i++
	}
	for i < n && src[i] >= '0' && src[i] <= '9' {
		i++
	}
	if i < n && src[i] == '.' && i+1 < n && src[i+1] >= '0' && src[i+1] <= '9' {
		i++
		for i < n && src[i] >= '0' && src[i] <= '9' {
			i++
		}
	}
	if i < n && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < n && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < n && src[j] >= '0' && src[j] <= '9' {
			for j < n && src[j] >= '0' && src[j] <= '9' {
				j++
			}
			i = j
		}
	}
	val, err := strconv.ParseFloat(src[start:i], 64)
	if err != nil {
		return token{}, 0, syntaxErr(start, "malformed number literal %q", src[start:i])
	}
	return token{kind: tokNumber, pos: start, num: val}, i, nil
}

// lexOperator matches the longest operator or word-keyword ("and", "or",
// "not", "in") starting at start.
func lexOperator(src string, start int) (token, int, error) {
	n := len(src)
	two := ""
	if start+2 <= n {
		two = src[start : start+2]
	}
	switch two {
	case "&&", "||", "<=", ">=", "==", "!=", "**":
		return token{kind: tokOp, pos: start, text: two}, start + 2, nil
	}
	c := src[start]
	switch c {
	case '<', '>', '+', '-', '*', '/', '%', '!':
		return token{kind: tokOp, pos: start, text: string(c)}, start + 1, nil
	}
	if isIdentStart(c) {
		i := start + 1
		for i < n && isIdentPart(src[i]) {
			i++
		}
		word := src[start:i]
		switch word {
		case "and", "or", "not", "in":
			return token{kind: tokOp, pos: start, text: word}, i, nil
		}
		return token{}, 0, syntaxErr(start, "unknown identifier %q", word)
	}
	return token{}, 0, syntaxErr(start, "unexpected character %q", string(c))
}
