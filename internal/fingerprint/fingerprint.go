// Package fingerprint builds the canonical AST summary for a block (§4.4)
// and hashes it into a content-addressed fingerprint.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/standardbeagle/dupescan/internal/cst"
)

// BlankAST is the sentinel fingerprint assigned to a block whose AST
// summary is empty (a named node with no named, non-comment descendants
// and an uninformative kind is never emitted with an empty summary in
// practice, but the sentinel keeps the fingerprint space total).
const BlankAST = "blank_ast"

// Summarize walks node's subtree in deterministic left-to-right DFS order
// and returns the canonical AST summary: each named node's kind, one per
// line, with comment nodes elided. The traversal is iterative (an
// explicit stack, not recursion) to keep worst-case stack growth bounded
// on adversarial input depth, per the design note in §9.
func Summarize(node cst.Node) string {
	if node == nil {
		return ""
	}

	var sb strings.Builder
	stack := []cst.Node{node}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}

		if n.IsNamed() && !strings.Contains(n.Kind(), "comment") {
			sb.WriteString(n.Kind())
			sb.WriteByte('\n')
		}

		count := n.ChildCount()
		for i := count; i > 0; i-- {
			stack = append(stack, n.Child(i-1))
		}
	}

	return sb.String()
}

// Of hashes summary with SHA-256 and returns the hex-encoded digest, or
// BlankAST if summary is empty. SHA-256 is used rather than BLAKE3
// because no library in the reference corpus brings in a BLAKE3
// implementation, and SHA-256 is an acceptable
// substitute (§4.4).
func Of(summary string) string {
	if summary == "" {
		return BlankAST
	}
	sum := sha256.Sum256([]byte(summary))
	return hex.EncodeToString(sum[:])
}

// LineCount returns the number of entries in a canonical AST summary
// (one line per emitted node kind), used for the ast_line_count ≥ 10
// down-weighting gate in §4.5.
func LineCount(summary string) int {
	return strings.Count(summary, "\n")
}
