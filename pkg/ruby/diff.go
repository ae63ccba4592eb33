package ruby

import (
	"slices"
	"strings"
)

// editKind classifies one operation of an edit script.
type editKind int

const (
	opEqual editKind = iota
	opInsert
	opDelete
)

// editOp is one edit-script operation wrapping a single token's source text.
// Ops exist only between backtracking and serialization.
type editOp struct {
	kind editKind
	text string
}

// Diff computes a minimal edit script between oldText and newText and
// serializes it inline: inserted runs are wrapped in <ins>…</ins>, deleted
// runs in <del>…</del>, unchanged runs appear bare. Both inputs are
// tokenized first, so annotated spans move as whole units and are never cut
// by an edit boundary.
//
// The script is deterministic. During backtracking a skip move that keeps
// the remaining common-subsequence length is taken before consuming a match,
// with inserts checked before deletes; this groups edits into maximal runs —
// Diff("I go school", "I go to school") is exactly "I go <ins>to </ins>school",
// and the reverse call yields "I go <del>to </del>school".
//
// O(n·m) time and space in token counts, which is fine for journal-entry
// sized inputs.
func Diff(oldText, newText string) string {
	oldTokens := Tokenize(oldText)
	newTokens := Tokenize(newText)
	table := lcsTable(oldTokens, newTokens)
	return serialize(backtrack(oldTokens, newTokens, table))
}

// lcsTable fills the classic (n+1)×(m+1) longest-common-subsequence length
// table: table[i][j] is the LCS length of the first i tokens of a and the
// first j tokens of b.
func lcsTable(a, b []Token) [][]int {
	table := make([][]int, len(a)+1)
	for i := range table {
		table[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				table[i][j] = table[i-1][j-1] + 1
			case table[i-1][j] >= table[i][j-1]:
				table[i][j] = table[i-1][j]
			default:
				table[i][j] = table[i][j-1]
			}
		}
	}
	return table
}

// backtrack walks the table from (len(a), len(b)) to (0, 0) and returns the
// edit script in forward order.
//
// At each cell, an insert move is taken whenever it preserves the remaining
// LCS value, then a delete move under the same condition, and a match is
// consumed only when neither skip preserves it. Every move keeps the cell
// value invariant except Equal, which decrements it by one, so exactly
// LCS-many Equal ops are emitted and the script is minimal.
func backtrack(a, b []Token, table [][]int) []editOp {
	i, j := len(a), len(b)
	ops := make([]editOp, 0, i+j)
	for i > 0 || j > 0 {
		switch {
		case j > 0 && table[i][j-1] == table[i][j]:
			ops = append(ops, editOp{kind: opInsert, text: b[j-1].Text()})
			j--
		case i > 0 && table[i-1][j] == table[i][j]:
			ops = append(ops, editOp{kind: opDelete, text: a[i-1].Text()})
			i--
		default:
			// Neither skip preserves the value, so the tokens here match.
			ops = append(ops, editOp{kind: opEqual, text: a[i-1].Text()})
			i--
			j--
		}
	}
	slices.Reverse(ops)
	return ops
}

// serialize merges consecutive same-kind ops into single spans. Adjacent
// same-kind spans cannot occur by construction and empty spans are suppressed.
func serialize(ops []editOp) string {
	var out strings.Builder
	for i := 0; i < len(ops); {
		kind := ops[i].kind
		var run strings.Builder
		for ; i < len(ops) && ops[i].kind == kind; i++ {
			run.WriteString(ops[i].text)
		}
		if run.Len() == 0 {
			continue
		}
		switch kind {
		case opInsert:
			out.WriteString("<ins>")
			out.WriteString(run.String())
			out.WriteString("</ins>")
		case opDelete:
			out.WriteString("<del>")
			out.WriteString(run.String())
			out.WriteString("</del>")
		default:
			out.WriteString(run.String())
		}
	}
	return out.String()
}
