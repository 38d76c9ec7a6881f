package cst

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"

	"github.com/standardbeagle/dupescan/internal/langtable"
)

// TreeSitterProvider resolves languages from the grammar table and parses
// source with a fresh tree_sitter.Parser per call. Parser instances are
// cheap to build and are not safe to share across goroutines, so each
// call to Parse owns its own parser — this keeps worker goroutines from
// needing to coordinate over a shared pool (spec.md §5).
type TreeSitterProvider struct {
	languages map[langtable.Tag]*tree_sitter.Language
}

// NewTreeSitterProvider builds the language registry once, eagerly, since
// tree_sitter.Language construction is cheap compared to parsing.
func NewTreeSitterProvider() *TreeSitterProvider {
	p := &TreeSitterProvider{languages: make(map[langtable.Tag]*tree_sitter.Language)}
	p.languages[langtable.C] = tree_sitter.NewLanguage(tree_sitter_c.Language())
	p.languages[langtable.Cpp] = tree_sitter.NewLanguage(tree_sitter_cpp.Language())
	p.languages[langtable.Java] = tree_sitter.NewLanguage(tree_sitter_java.Language())
	p.languages[langtable.JavaScript] = tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	p.languages[langtable.TypeScript] = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	p.languages[langtable.Python] = tree_sitter.NewLanguage(tree_sitter_python.Language())
	p.languages[langtable.Go] = tree_sitter.NewLanguage(tree_sitter_go.Language())
	p.languages[langtable.Rust] = tree_sitter.NewLanguage(tree_sitter_rust.Language())
	p.languages[langtable.CSharp] = tree_sitter.NewLanguage(tree_sitter_csharp.Language())
	p.languages[langtable.PHP] = tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP())
	p.languages[langtable.Zig] = tree_sitter.NewLanguage(tree_sitter_zig.Language())
	return p
}

func (p *TreeSitterProvider) LanguageFor(ext string) (langtable.Tag, bool) {
	return langtable.ForExtension(ext)
}

// Parse parses source for the given language tag. The caller retains
// ownership of source; go-tree-sitter's C library mutates the buffer it
// is handed, so Parse takes a defensive copy before parsing — the same
// copy-on-parse discipline needed to protect shared buffers from that mutation.
func (p *TreeSitterProvider) Parse(tag langtable.Tag, source []byte) (Tree, error) {
	lang, ok := p.languages[tag]
	if !ok {
		return nil, fmt.Errorf("unsupported language tag %q", tag)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", tag, err)
	}

	buf := make([]byte, len(source))
	copy(buf, source)

	tree := parser.Parse(buf, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse failed for language %s", tag)
	}

	return &tsTree{tree: tree, source: buf}, nil
}

type tsTree struct {
	tree   *tree_sitter.Tree
	source []byte
}

func (t *tsTree) Root() Node {
	root := t.tree.RootNode()
	if root == nil {
		return nil
	}
	return tsNode{node: root}
}

func (t *tsTree) Close() {
	t.tree.Close()
}

// tsNode adapts *tree_sitter.Node to the Node interface.
type tsNode struct {
	node *tree_sitter.Node
}

func (n tsNode) Kind() string     { return n.node.Kind() }
func (n tsNode) IsNamed() bool    { return n.node.IsNamed() }
func (n tsNode) StartByte() uint  { return uint(n.node.StartByte()) }
func (n tsNode) EndByte() uint    { return uint(n.node.EndByte()) }
func (n tsNode) StartRow() uint   { return uint(n.node.StartPosition().Row) }
func (n tsNode) EndRow() uint     { return uint(n.node.EndPosition().Row) }
func (n tsNode) ChildCount() uint { return uint(n.node.ChildCount()) }
func (n tsNode) Child(i uint) Node {
	c := n.node.Child(uint(i))
	if c == nil {
		return nil
	}
	return tsNode{node: c}
}
