// Package cst defines the parser-provider contract (§6) the extractor
// builds on, and a concrete tree-sitter-backed implementation. The
// extractor never imports go-tree-sitter directly — it only sees this
// package's Node/Tree interfaces — so a different grammar backend could
// be substituted without touching §4.3's traversal logic.
package cst

import "github.com/standardbeagle/dupescan/internal/langtable"

// Node is the minimal view of a concrete syntax tree node the extractor
// needs: its kind, whether it is "named" per the grammar (as opposed to
// an anonymous token like a punctuation mark), its byte/line span, and
// its children in grammar order.
type Node interface {
	Kind() string
	IsNamed() bool
	StartByte() uint
	EndByte() uint
	StartRow() uint
	EndRow() uint
	ChildCount() uint
	Child(i uint) Node
}

// Tree is a parsed concrete syntax tree bound to an immutable source
// buffer. Close releases any backing native resources.
type Tree interface {
	Root() Node
	Close()
}

// Provider resolves a language tag for an extension and parses source
// text for that language into a Tree.
type Provider interface {
	LanguageFor(ext string) (langtable.Tag, bool)
	Parse(tag langtable.Tag, source []byte) (Tree, error)
}
