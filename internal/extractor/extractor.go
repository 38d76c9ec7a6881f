// Package extractor walks a parsed concrete syntax tree and extracts
// candidate duplicate blocks per §4.3: every named, non-comment node whose
// line span meets the threshold, skipping generated-literal subtrees entirely and
// tracking each block's nearest emitted ancestor for subsumption pruning
// later in the pipeline.
package extractor

import (
	"strings"

	"github.com/standardbeagle/dupescan/internal/cst"
	"github.com/standardbeagle/dupescan/internal/fingerprint"
)

// Tunables for the large-literal skip rule (§4.3). LargeArrayThreshold's
// production default is set well above the value used in tests, which
// exercise the rule against small fixtures.
const (
	DefaultLargeContentLengthThreshold = 10
	DefaultLargeArrayThreshold         = 120
	DefaultMaxDepth                    = 5000
)

// BlockIndex indexes into a Result's Blocks slice — blocks reference
// their parent by index (an arena) rather than by pointer, so the whole
// result is a flat, easily serializable value with no weak references to
// manage (§9 design note).
type BlockIndex int

// Block is one emitted candidate: a byte/line span with its structural
// fingerprint and a link to the nearest enclosing emitted block, if any.
type Block struct {
	StartByte    uint
	EndByte      uint
	StartLine    int // 1-based
	EndLine      int // 1-based
	Fingerprint  string
	ASTSummary   string
	ASTLineCount int
	Parent       *BlockIndex
}

// Options configures the traversal. Threshold is the minimum line span
// (inclusive) a named node must cover to be emitted as a block.
type Options struct {
	Threshold                   int
	LargeContentLengthThreshold int
	LargeArrayThreshold         int
	MaxDepth                    int
}

// WithDefaults fills zero-valued tunables with their production
// defaults, leaving Threshold (which has no sane default) untouched.
func (o Options) WithDefaults() Options {
	if o.LargeContentLengthThreshold == 0 {
		o.LargeContentLengthThreshold = DefaultLargeContentLengthThreshold
	}
	if o.LargeArrayThreshold == 0 {
		o.LargeArrayThreshold = DefaultLargeArrayThreshold
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

type frame struct {
	node   cst.Node
	parent *BlockIndex
	depth  int
}

// Extract returns every candidate block in root, in the order its
// subtree was visited. The traversal is an iterative DFS over an
// explicit stack rather than recursion, bounding worst-case stack growth
// at MaxDepth regardless of how deep an adversarial input nests (§9).
func Extract(root cst.Node, source []byte, opts Options) []Block {
	opts = opts.WithDefaults()
	if root == nil {
		return nil
	}

	var blocks []Block
	stack := []frame{{node: root, parent: nil, depth: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.node == nil || f.depth > opts.MaxDepth {
			continue
		}

		parentForChildren := f.parent

		if f.node.IsNamed() {
			if isLargeLiteral(f.node, source, opts) {
				// The skip rule fires: no emission, no descent. The
				// whole generated-literal subtree is discarded.
				continue
			}

			lineCount := int(f.node.EndRow()) - int(f.node.StartRow()) + 1
			if lineCount >= opts.Threshold && !strings.Contains(f.node.Kind(), "comment") {
				summary := fingerprint.Summarize(f.node)
				block := Block{
					StartByte:    f.node.StartByte(),
					EndByte:      f.node.EndByte(),
					StartLine:    int(f.node.StartRow()) + 1,
					EndLine:      int(f.node.EndRow()) + 1,
					Fingerprint:  fingerprint.Of(summary),
					ASTSummary:   summary,
					ASTLineCount: fingerprint.LineCount(summary),
					Parent:       f.parent,
				}
				idx := BlockIndex(len(blocks))
				blocks = append(blocks, block)
				parentForChildren = &idx
			}
		}

		count := f.node.ChildCount()
		for i := count; i > 0; i-- {
			stack = append(stack, frame{node: f.node.Child(i - 1), parent: parentForChildren, depth: f.depth + 1})
		}
	}

	return blocks
}

// isLargeLiteral applies the three-part heuristic that skips
// generated-data-table subtrees (long comma-separated literals such as
// embedded hex blobs) so they never pollute the duplicate index:
//
//  1. the node's raw source text exceeds LargeContentLengthThreshold bytes;
//  2. with per-line leading/trailing whitespace trimmed and the lines
//     concatenated, the result still exceeds LargeArrayThreshold bytes;
//  3. that normalized text splits on commas into exclusively non-empty
//     parts, none of which contains a space — the signature of a dense
//     literal list ("0x01,0x02,0x03,...") rather than ordinary code.
func isLargeLiteral(node cst.Node, source []byte, opts Options) bool {
	start, end := node.StartByte(), node.EndByte()
	if end <= start || int(end) > len(source) {
		return false
	}

	raw := source[start:end]
	if len(raw) <= opts.LargeContentLengthThreshold {
		return false
	}

	lines := strings.Split(string(raw), "\n")
	var trimmed strings.Builder
	for _, line := range lines {
		trimmed.WriteString(strings.TrimSpace(line))
	}
	normalized := trimmed.String()
	if len(normalized) <= opts.LargeArrayThreshold {
		return false
	}

	parts := strings.Split(normalized, ",")
	for _, p := range parts {
		if p == "" || strings.Contains(p, " ") {
			return false
		}
	}
	return true
}
