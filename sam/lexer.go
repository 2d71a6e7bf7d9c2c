package sam

// TokenStream is an ordered sequence of Tokens plus a non-destructive read
// cursor. Raw is retained for error reporting and for slicing token text.
//
// Grounded on the SamTokenStream structure and sam_token_peek/pop family
// from the original sam/vis lexer: peeking and popping only ever advance
// Read, never mutate Tokens.
type TokenStream struct {
	Raw    []byte
	Tokens []Token
	Read   int
}

// Lex tokenizes raw per the engine's lexical rules:
//
//   - ASCII whitespace flushes the accumulator and is discarded.
//   - A run of decimal digits produces a Number.
//   - '{' and '}' produce GroupStart/GroupEnd.
//   - A leading '>', '<', or '|' with an empty accumulator produces a
//     one-character String (the pipe commands).
//   - Any byte in samDelimiters produces a one-byte Delimiter.
//   - Any other byte extends the current string accumulator.
//   - End of input flushes the accumulator.
//
// Zero-length accumulators are never emitted. Lex never fails: malformed
// input surfaces as parse errors downstream.
func Lex(raw []byte) *TokenStream {
	ts := &TokenStream{Raw: raw}
	accStart := -1

	flush := func(end int) {
		if accStart >= 0 && end > accStart {
			ts.Tokens = append(ts.Tokens, Token{Kind: String, Start: accStart, Length: end - accStart})
		}
		accStart = -1
	}

	i := 0
	for i < len(raw) {
		b := raw[i]
		switch {
		case isSpace(b):
			flush(i)
			i++
		case isDigit(b) && accStart < 0:
			start := i
			for i < len(raw) && isDigit(raw[i]) {
				i++
			}
			ts.Tokens = append(ts.Tokens, Token{Kind: Number, Start: start, Length: i - start})
		case b == '{':
			flush(i)
			ts.Tokens = append(ts.Tokens, Token{Kind: GroupStart, Start: i, Length: 1})
			i++
		case b == '}':
			flush(i)
			ts.Tokens = append(ts.Tokens, Token{Kind: GroupEnd, Start: i, Length: 1})
			i++
		case accStart < 0 && (b == '>' || b == '<' || b == '|'):
			ts.Tokens = append(ts.Tokens, Token{Kind: String, Start: i, Length: 1})
			i++
		case isSamDelimiter(b):
			flush(i)
			ts.Tokens = append(ts.Tokens, Token{Kind: Delimiter, Start: i, Length: 1})
			i++
		default:
			if accStart < 0 {
				accStart = i
			}
			i++
		}
	}
	flush(len(raw))
	return ts
}

// Peek returns the next unread token without consuming it. At end of
// stream it returns an Invalid, zero-length token positioned at the end
// of Raw.
func (ts *TokenStream) Peek() Token {
	if ts.Read >= len(ts.Tokens) {
		return Token{Kind: Invalid, Start: len(ts.Raw)}
	}
	return ts.Tokens[ts.Read]
}

// PeekAt returns the token offset positions ahead of the read cursor
// without consuming anything, or an Invalid token past the end.
func (ts *TokenStream) PeekAt(offset int) Token {
	idx := ts.Read + offset
	if idx < 0 || idx >= len(ts.Tokens) {
		return Token{Kind: Invalid, Start: len(ts.Raw)}
	}
	return ts.Tokens[idx]
}

// Pop consumes and returns the next token.
func (ts *TokenStream) Pop() Token {
	t := ts.Peek()
	if ts.Read < len(ts.Tokens) {
		ts.Read++
	}
	return t
}

// AtEnd reports whether all tokens have been consumed.
func (ts *TokenStream) AtEnd() bool {
	return ts.Read >= len(ts.Tokens)
}

// Text returns the raw text denoted by t.
func (ts *TokenStream) Text(t Token) string {
	return t.Text(ts.Raw)
}

// Validate checks the two structural invariants the engine relies on
// before any parsing begins: token offsets are monotone and group
// delimiters are balanced. It returns an *Error positioned at the first
// violation, or nil.
func (ts *TokenStream) Validate() error {
	depth := 0
	last := -1
	for _, t := range ts.Tokens {
		if t.Start < last {
			return newError(ErrMemory, t.Start, "token offsets out of order")
		}
		last = t.Start
		if t.Kind == Invalid {
			return newError(ErrCommand, t.Start, "invalid token")
		}
		switch t.Kind {
		case GroupStart:
			depth++
		case GroupEnd:
			depth--
			if depth < 0 {
				return newError(ErrUnmatchedBrace, t.Start, "unmatched '}'")
			}
		}
	}
	if depth != 0 {
		return newError(ErrUnmatchedBrace, len(ts.Raw), "unmatched '{'")
	}
	return nil
}

// TryPopNumber pops and returns the next token only if it is a Number;
// otherwise the cursor is left unchanged and an Invalid token is returned.
func (ts *TokenStream) TryPopNumber() Token {
	if ts.Peek().Kind == Number {
		return ts.Pop()
	}
	return Token{Kind: Invalid, Start: len(ts.Raw)}
}

// CheckPopForceFlag consumes a trailing '!' delimiter if present, and
// reports whether it did.
func (ts *TokenStream) CheckPopForceFlag() bool {
	t := ts.Peek()
	if t.Kind == Delimiter && ts.Text(t) == "!" {
		ts.Pop()
		return true
	}
	return false
}

// JoinUntilSpace joins the current token with subsequent tokens that
// begin exactly where the previous one ended, stopping once a gap
// (originally whitespace) appears, and returns the merged span as a
// synthetic String token. Used to reassemble multi-token runs such as
// file name patterns or long command names that the lexer split on
// embedded delimiters.
func (ts *TokenStream) JoinUntilSpace() Token {
	start := ts.Peek().Start
	end := start
	for {
		t := ts.Peek()
		if t.Kind == Invalid || t.Start != end {
			break
		}
		end = t.End()
		ts.Pop()
	}
	return Token{Kind: String, Start: start, Length: end - start}
}

// JoinCommandName joins a String token with adjacent non-space tokens
// until the first byte that cannot continue an identifier (anything but
// a letter, digit, or underscore), matching the original lexer's
// sam_token_join_command_name behaviour so that multi-character command
// names (e.g. "earlier", "wq") survive being split by the generic
// delimiter rules whenever a command name happens to embed one of them.
func (ts *TokenStream) JoinCommandName() Token {
	first := ts.Pop()
	if first.Kind != String {
		return first
	}
	start, end := first.Start, first.End()
	for {
		t := ts.Peek()
		if t.Kind == Invalid || t.Start != end {
			break
		}
		text := ts.Text(t)
		ok := true
		for i := 0; i < len(text); i++ {
			c := text[i]
			if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || isDigit(c)) {
				ok = false
				break
			}
		}
		if !ok {
			break
		}
		end = t.End()
		ts.Pop()
	}
	return Token{Kind: String, Start: start, Length: end - start}
}
