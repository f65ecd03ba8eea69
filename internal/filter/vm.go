package filter

import (
	"encoding/json"
	"math"
)

// Evaluate runs prog against a node's JSON attributes and returns the
// final boolean coercion of the result. Malformed JSON is treated as an
// empty object rather than an error, matching the rule that a node with
// unreadable attributes simply fails every selector-based predicate
// instead of aborting the search. No error from selector resolution or
// operator application escapes this call; every failure mode collapses
// to a null value that propagates to a false result.
// Evaluate is Program's method form of the package-level Evaluate
// function, for callers that already hold a compiled Program.
func (p *Program) Evaluate(attrs []byte) bool {
	return Evaluate(p, attrs)
}

func Evaluate(prog *Program, attrs []byte) bool {
	var root any
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &root); err != nil {
			root = map[string]any{}
		}
	} else {
		root = map[string]any{}
	}
	return runProgram(prog, root).truthy()
}

func runProgram(prog *Program, root any) value {
	stack := make([]value, 0, len(prog.instrs))
	pop := func() value {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}

	for _, in := range prog.instrs {
		switch in.kind {
		case instrNumber:
			stack = append(stack, numberValue(in.num))
		case instrString:
			stack = append(stack, stringValue(in.str))
		case instrTuple:
			stack = append(stack, value{kind: kindTuple, tuple: in.tuple})
		case instrSelector:
			stack = append(stack, resolveSelector(root, in.selector))
		case instrOp:
			info := operators[in.op]
			if info.unary {
				a := pop()
				stack = append(stack, applyUnary(in.op, a))
			} else {
				b := pop()
				a := pop()
				stack = append(stack, applyBinary(in.op, a, b))
			}
		}
	}
	if len(stack) != 1 {
		return nullValue
	}
	return stack[0]
}

// resolveSelector walks a dotted path through decoded JSON, resolving to
// null on any missing key or non-object intermediate.
func resolveSelector(root any, path []string) value {
	cur := root
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nullValue
		}
		next, present := m[key]
		if !present {
			return nullValue
		}
		cur = next
	}
	return jsonToValue(cur)
}

func jsonToValue(v any) value {
	switch t := v.(type) {
	case float64:
		return numberValue(t)
	case string:
		return stringValue(t)
	default:
		return nullValue
	}
}

func applyUnary(op string, a value) value {
	switch op {
	case "!", "not":
		if a.kind == kindNull {
			return numberValue(1)
		}
		if a.truthy() {
			return numberValue(0)
		}
		return numberValue(1)
	default:
		return nullValue
	}
}

func applyBinary(op string, a, b value) value {
	switch op {
	case "and", "&&":
		if !a.truthy() {
			return a
		}
		return b
	case "or", "||":
		if a.truthy() {
			return a
		}
		return b
	case "in":
		return applyIn(a, b)
	case "+", "-", "*", "/", "%", "**":
		return applyArith(op, a, b)
	case "<", "<=", ">", ">=", "==", "!=":
		return applyCompare(op, a, b)
	default:
		return nullValue
	}
}

func applyArith(op string, a, b value) value {
	if a.kind != kindNumber || b.kind != kindNumber {
		return nullValue
	}
	switch op {
	case "+":
		return numberValue(a.num + b.num)
	case "-":
		return numberValue(a.num - b.num)
	case "*":
		return numberValue(a.num * b.num)
	case "/":
		if b.num == 0 {
			return nullValue
		}
		return numberValue(a.num / b.num)
	case "%":
		if b.num == 0 {
			return nullValue
		}
		return numberValue(math.Mod(a.num, b.num))
	case "**":
		return numberValue(math.Pow(a.num, b.num))
	default:
		return nullValue
	}
}

func applyCompare(op string, a, b value) value {
	if a.kind == kindNull && b.kind == kindNull {
		if op == "==" {
			return boolNum(true)
		}
		if op == "!=" {
			return boolNum(false)
		}
		return nullValue
	}
	if a.kind == kindNull || b.kind == kindNull || a.kind != b.kind {
		return nullValue
	}
	switch a.kind {
	case kindNumber:
		switch op {
		case "<":
			return boolNum(a.num < b.num)
		case "<=":
			return boolNum(a.num <= b.num)
		case ">":
			return boolNum(a.num > b.num)
		case ">=":
			return boolNum(a.num >= b.num)
		case "==":
			return boolNum(a.num == b.num)
		case "!=":
			return boolNum(a.num != b.num)
		}
	case kindString:
		switch op {
		case "<":
			return boolNum(a.str < b.str)
		case "<=":
			return boolNum(a.str <= b.str)
		case ">":
			return boolNum(a.str > b.str)
		case ">=":
			return boolNum(a.str >= b.str)
		case "==":
			return boolNum(a.str == b.str)
		case "!=":
			return boolNum(a.str != b.str)
		}
	}
	return nullValue
}

func applyIn(a, b value) value {
	if b.kind != kindTuple {
		return nullValue
	}
	for _, e := range b.tuple {
		if e.kind == a.kind {
			switch a.kind {
			case kindNumber:
				if a.num == e.num {
					return numberValue(1)
				}
			case kindString:
				if a.str == e.str {
					return numberValue(1)
				}
			}
		}
	}
	return numberValue(0)
}

func boolNum(b bool) value {
	if b {
		return numberValue(1)
	}
	return numberValue(0)
}
