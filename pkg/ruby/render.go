package ruby

import "strings"

// Render converts annotation markup into its display form: each
// [base](reading) span becomes a two-part ruby unit,
// <ruby>base<rt>reading</rt></ruby>, with the base as the primary text and
// the reading as the subordinate annotation. Plain text passes through
// unchanged. Linear time, pure.
func Render(markup string) string {
	var out strings.Builder
	for _, tok := range Tokenize(markup) {
		if tok.Annotated {
			out.WriteString("<ruby>")
			out.WriteString(tok.Base)
			out.WriteString("<rt>")
			out.WriteString(tok.Reading)
			out.WriteString("</rt></ruby>")
		} else {
			out.WriteString(tok.Base)
		}
	}
	return out.String()
}

// Strip reduces annotated text to plain base text: both the wire markup
// [base](reading) and the rendered <ruby> display form collapse to base, so
// Strip(Render(s)) == Strip(s) for any s. Use it wherever a downstream
// consumer (speech synthesis in particular) must not see annotation syntax.
func Strip(markup string) string {
	var out strings.Builder
	for _, tok := range Tokenize(stripRuby(markup)) {
		out.WriteString(tok.Base)
	}
	return out.String()
}

// stripRuby removes well-formed <ruby>base<rt>reading</rt></ruby> spans,
// keeping only base. Malformed spans are left as literal text.
func stripRuby(s string) string {
	if !strings.Contains(s, "<ruby>") {
		return s
	}
	var out strings.Builder
	for {
		start := strings.Index(s, "<ruby>")
		if start < 0 {
			out.WriteString(s)
			return out.String()
		}
		rest := s[start+len("<ruby>"):]
		rt := strings.Index(rest, "<rt>")
		end := strings.Index(rest, "</rt></ruby>")
		if rt < 0 || end < 0 || rt > end {
			out.WriteString(s[:start+len("<ruby>")])
			s = rest
			continue
		}
		out.WriteString(s[:start])
		out.WriteString(rest[:rt])
		s = rest[end+len("</rt></ruby>"):]
	}
}
