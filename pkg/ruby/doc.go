// Package ruby implements the annotated text diff and pronunciation-alignment
// engine used throughout Kotoba.
//
// Annotated text carries inline ruby markup of the form [Base](Reading): a
// base span in square brackets immediately followed by its pronunciation in
// parentheses, e.g. "[食](た)べます". The package provides five operations
// over this markup:
//
//   - [Tokenize] splits a string into atomic tokens, treating each annotation
//     as one indivisible unit and every other rune as its own token.
//   - [Diff] computes a minimal edit script between two strings and renders
//     it as <ins>/<del> markup. Annotations are compared as whole units and
//     are never split across edit boundaries.
//   - [Weave] inserts the minimal [Base](Reading) markup into plain text from
//     a caller-supplied reading table, trimming shared phonetic tails so
//     inflectional endings stay unannotated.
//   - [Render] converts annotations to their two-part display form.
//   - [Strip] reduces annotated (or rendered) text back to plain base text
//     for consumers such as speech synthesis.
//
// Every function is a pure function of its inputs: no I/O, no shared state,
// no error returns. Malformed markup never fails — an unterminated
// annotation degrades to its literal characters. All operations are safe to
// call concurrently.
package ruby
