package ruby

// Token is the atomic unit over which diffing and weaving operate: a single
// plain rune, or one indivisible annotated span.
//
// Token is comparable; two tokens are equal exactly under the structural
// equality the diff requires (same rune for plain tokens, same base and
// reading for annotated ones — a plain token never equals an annotated one).
type Token struct {
	// Base is the token's surface text: one rune for plain tokens, the
	// annotation's base span otherwise.
	Base string

	// Reading is the pronunciation attached to an annotated span. Always
	// empty for plain tokens.
	Reading string

	// Annotated reports whether this token is an indivisible [Base](Reading)
	// span.
	Annotated bool
}

// Text returns the token's source text. Concatenating Text over a token
// sequence reproduces the string it was tokenized from exactly.
func (t Token) Text() string {
	if t.Annotated {
		return "[" + t.Base + "](" + t.Reading + ")"
	}
	return t.Base
}

// Tokenize scans text left to right and yields its token sequence. At each
// position it attempts to match a well-formed [base](reading) annotation; on
// success it emits one annotated token and advances past the whole match, on
// failure it emits the current rune as a plain token and advances by one.
//
// Malformed markup is never an error: an unmatched opening bracket is just a
// literal character. Tokenize runs in linear time and is idempotent — the
// concatenated Text of the result re-tokenizes to the same sequence.
func Tokenize(text string) []Token {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	tokens := make([]Token, 0, len(runes))
	for i := 0; i < len(runes); {
		if runes[i] == '[' {
			if tok, next, ok := matchAnnotation(runes, i); ok {
				tokens = append(tokens, tok)
				i = next
				continue
			}
		}
		tokens = append(tokens, Token{Base: string(runes[i])})
		i++
	}
	return tokens
}

// matchAnnotation attempts to match [base](reading) starting at runes[start],
// which must be '['. The base must be non-empty and free of brackets, the
// reading free of parentheses, and both delimiters must close. next is the
// index just past the closing ')'.
func matchAnnotation(runes []rune, start int) (tok Token, next int, ok bool) {
	i := start + 1
	baseStart := i
	for i < len(runes) && runes[i] != ']' && runes[i] != '[' {
		i++
	}
	if i >= len(runes) || runes[i] != ']' || i == baseStart {
		return Token{}, 0, false
	}
	base := string(runes[baseStart:i])
	i++
	if i >= len(runes) || runes[i] != '(' {
		return Token{}, 0, false
	}
	i++
	readingStart := i
	for i < len(runes) && runes[i] != ')' && runes[i] != '(' {
		i++
	}
	if i >= len(runes) || runes[i] != ')' {
		return Token{}, 0, false
	}
	reading := string(runes[readingStart:i])
	return Token{Base: base, Reading: reading, Annotated: true}, i + 1, true
}
