package sam

import "testing"

func tokenTexts(ts *TokenStream) []string {
	out := make([]string, len(ts.Tokens))
	for i, t := range ts.Tokens {
		out[i] = t.Text(ts.Raw)
	}
	return out
}

func TestLexBasic(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  ", nil},
		{"d", []string{"d"}},
		{"1,5p", []string{"1", ",", "5", "p"}},
		{"/abc/ d", []string{"/", "abc", "/", "d"}},
		{"x/a/ c/b/", []string{"x", "/", "a", "/", "c", "/", "b", "/"}},
		{"{a\nd}", []string{"{", "a", "d", "}"}},
		{">cat", []string{">", "cat"}},
		{"5,$p", []string{"5", ",", "$", "p"}},
	}
	for _, c := range cases {
		ts := Lex([]byte(c.in))
		got := tokenTexts(ts)
		if len(got) != len(c.want) {
			t.Errorf("Lex(%q) = %q, want %q", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("Lex(%q)[%d] = %q, want %q", c.in, i, got[i], c.want[i])
			}
		}
	}
}

func TestLexNumberBoundary(t *testing.T) {
	ts := Lex([]byte("12abc"))
	if len(ts.Tokens) != 2 {
		t.Fatalf("got %d tokens, want 2", len(ts.Tokens))
	}
	if ts.Tokens[0].Kind != Number || ts.Text(ts.Tokens[0]) != "12" {
		t.Errorf("token 0 = %+v", ts.Tokens[0])
	}
	if ts.Tokens[1].Kind != String || ts.Text(ts.Tokens[1]) != "abc" {
		t.Errorf("token 1 = %+v", ts.Tokens[1])
	}
}

func TestTokenStreamPeekPop(t *testing.T) {
	ts := Lex([]byte("1,5"))
	if ts.AtEnd() {
		t.Fatal("expected tokens")
	}
	if got := ts.Peek(); ts.Text(got) != "1" {
		t.Fatalf("Peek = %q", ts.Text(got))
	}
	// Peek must not advance the cursor.
	if got := ts.Peek(); ts.Text(got) != "1" {
		t.Fatalf("second Peek = %q", ts.Text(got))
	}
	ts.Pop()
	if got := ts.Peek(); ts.Text(got) != "," {
		t.Fatalf("Peek after Pop = %q", ts.Text(got))
	}
	ts.Pop()
	ts.Pop()
	if !ts.AtEnd() {
		t.Fatal("expected end of stream")
	}
	inv := ts.Peek()
	if inv.Kind != Invalid {
		t.Fatalf("Peek past end = %+v, want Invalid", inv)
	}
}

func TestValidateUnmatchedBrace(t *testing.T) {
	if err := Lex([]byte("{d")).Validate(); err == nil {
		t.Fatal("expected unmatched '{' error")
	}
	if err := Lex([]byte("d}")).Validate(); err == nil {
		t.Fatal("expected unmatched '}' error")
	}
	if err := Lex([]byte("{d}")).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckPopForceFlag(t *testing.T) {
	ts := Lex([]byte("!x"))
	if !ts.CheckPopForceFlag() {
		t.Fatal("expected force flag")
	}
	if ts.Text(ts.Peek()) != "x" {
		t.Fatalf("remaining token = %q", ts.Text(ts.Peek()))
	}

	ts2 := Lex([]byte("x"))
	if ts2.CheckPopForceFlag() {
		t.Fatal("unexpected force flag")
	}
}

func TestJoinCommandName(t *testing.T) {
	ts := Lex([]byte("wq"))
	joined := ts.JoinCommandName()
	if ts.Text(joined) != "wq" {
		t.Fatalf("joined = %q, want %q", ts.Text(joined), "wq")
	}
}
