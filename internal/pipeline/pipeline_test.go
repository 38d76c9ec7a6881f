package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/dupescan/internal/cst"
	"github.com/standardbeagle/dupescan/internal/discovery"
	"github.com/standardbeagle/dupescan/internal/extractor"
	"github.com/standardbeagle/dupescan/internal/langtable"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeNode/fakeTree/fakeProvider stand in for a real tree-sitter grammar
// so the worker pool can be exercised deterministically without CGO.
type fakeNode struct {
	kind     string
	named    bool
	startRow uint
	endRow   uint
	start    uint
	end      uint
	children []*fakeNode
}

func (n *fakeNode) Kind() string     { return n.kind }
func (n *fakeNode) IsNamed() bool    { return n.named }
func (n *fakeNode) StartByte() uint  { return n.start }
func (n *fakeNode) EndByte() uint    { return n.end }
func (n *fakeNode) StartRow() uint   { return n.startRow }
func (n *fakeNode) EndRow() uint     { return n.endRow }
func (n *fakeNode) ChildCount() uint { return uint(len(n.children)) }
func (n *fakeNode) Child(i uint) cst.Node {
	if i >= uint(len(n.children)) {
		return nil
	}
	return n.children[i]
}

type fakeTree struct{ root *fakeNode }

func (t fakeTree) Root() cst.Node { return t.root }
func (t fakeTree) Close()         {}

type fakeProvider struct{}

func (fakeProvider) LanguageFor(ext string) (langtable.Tag, bool) {
	return langtable.ForExtension(ext)
}

func (fakeProvider) Parse(tag langtable.Tag, source []byte) (cst.Tree, error) {
	root := &fakeNode{
		kind: "source_file", named: true, startRow: 0, endRow: 20, start: 0, end: uint(len(source)),
		children: []*fakeNode{
			{kind: "function_declaration", named: true, startRow: 0, endRow: 15, start: 0, end: uint(len(source))},
		},
	}
	return fakeTree{root: root}, nil
}

type failingProvider struct{}

func (failingProvider) LanguageFor(ext string) (langtable.Tag, bool) {
	return langtable.ForExtension(ext)
}

func (failingProvider) Parse(tag langtable.Tag, source []byte) (cst.Tree, error) {
	return nil, fmt.Errorf("grammar rejected input")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestRunProcessesFilesAndRecordsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\nfunc F() { println(\"x\") }\n")
	writeFile(t, dir, "b.go", "package b\nfunc G() { println(\"y\") }\n")

	idx, stats, err := Run(context.Background(), fakeProvider{}, dir,
		discovery.Options{MaxFileSize: 1 << 20},
		Options{Threads: 2, Extractor: extractor.Options{Threshold: 5}})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 0, stats.FilesSkipped)

	survivors := idx.Survivors(2, 0)
	require.Len(t, survivors, 1, "both files produce the same structural fingerprint")
	assert.Len(t, survivors[0].Occurrences, 2)
}

func TestRunIsolatesParseFailuresToOneFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")

	_, stats, err := Run(context.Background(), failingProvider{}, dir,
		discovery.Options{MaxFileSize: 1 << 20},
		Options{Threads: 1, Extractor: extractor.Options{Threshold: 5}})

	require.NoError(t, err, "a parse error is file-scoped, not fatal")
	assert.Equal(t, 1, stats.FilesSkipped)
}

func TestRunFatalOnMissingSourcePath(t *testing.T) {
	_, _, err := Run(context.Background(), fakeProvider{}, filepath.Join(t.TempDir(), "missing"),
		discovery.Options{}, Options{Threads: 1})
	assert.Error(t, err)
}
