package filter

import "testing"

func TestTokenizeBasic(t *testing.T) {
	toks, err := tokenize(".a.b >= -3.5 and 'hi\\'there'")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []tokenKind{tokSelector, tokOp, tokNumber, tokOp, tokString, tokEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].kind != k {
			t.Errorf("token %d: kind = %v, want %v", i, toks[i].kind, k)
		}
	}
	if toks[2].num != -3.5 {
		t.Errorf("number = %v, want -3.5", toks[2].num)
	}
	if toks[4].str != "hi'there" {
		t.Errorf("string = %q, want %q", toks[4].str, "hi'there")
	}
}

func TestTokenizeLongestOperatorMatch(t *testing.T) {
	toks, err := tokenize("1 >= 2 && 3 == 4")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	ops := []string{}
	for _, tk := range toks {
		if tk.kind == tokOp {
			ops = append(ops, tk.text)
		}
	}
	want := []string{">=", "&&", "=="}
	if len(ops) != len(want) {
		t.Fatalf("got ops %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op %d = %q, want %q", i, ops[i], want[i])
		}
	}
}

func TestTokenizeBinaryMinusAfterValue(t *testing.T) {
	toks, err := tokenize("5 - 3")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(toks) != 4 { // 5, -, 3, EOF
		t.Fatalf("got %d tokens, want 4: %+v", len(toks), toks)
	}
	if toks[1].kind != tokOp || toks[1].text != "-" {
		t.Errorf("expected binary '-' operator token, got %+v", toks[1])
	}
	if toks[2].num != 3 {
		t.Errorf("expected 3 as a separate positive number, got %v", toks[2].num)
	}
}

func TestTokenizeUnknownCharacter(t *testing.T) {
	if _, err := tokenize("1 @ 2"); err == nil {
		t.Error("expected syntax error for unrecognized character '@'")
	}
}
