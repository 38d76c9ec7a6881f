package aggregate

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain ensures no goroutines leak across this package's tests — the
// index is designed for heavy concurrent access from worker goroutines,
// so a leaked goroutine here would signal a real synchronization bug.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRecordAndCount(t *testing.T) {
	idx := New()
	idx.Record("fp1", 12, nil, Occurrence{SourceFile: "a.go", StartLine: 1, EndLine: 10})
	idx.Record("fp1", 12, nil, Occurrence{SourceFile: "b.go", StartLine: 5, EndLine: 14})

	assert.Equal(t, 2, idx.Count("fp1"))
	assert.Equal(t, 12, idx.ASTLineCount("fp1"))
}

func TestRecordCoalescesDuplicateTriples(t *testing.T) {
	idx := New()
	occ := Occurrence{SourceFile: "a.go", StartLine: 1, EndLine: 10}
	idx.Record("fp1", 12, nil, occ)
	idx.Record("fp1", 12, nil, occ)
	idx.Record("fp1", 12, nil, occ)
	idx.Record("fp1", 12, nil, Occurrence{SourceFile: "b.go", StartLine: 5, EndLine: 14})

	assert.Equal(t, 2, idx.Count("fp1"))
}

func TestParentLinkIsFirstWriterWins(t *testing.T) {
	idx := New()
	first := "outer-a"
	second := "outer-b"

	idx.Record("child", 11, &first, Occurrence{SourceFile: "a.go", StartLine: 2, EndLine: 12})
	idx.Record("child", 11, &second, Occurrence{SourceFile: "b.go", StartLine: 2, EndLine: 12})

	parent, ok := idx.ParentOf("child")
	require.True(t, ok)
	assert.Equal(t, first, parent, "parent link is first-writer-wins, not last-writer-wins")
}

func TestSurvivorsAppliesSubsumption(t *testing.T) {
	idx := New()
	outer := "outer-fn"
	idx.Record(outer, 20, nil, Occurrence{SourceFile: "a.go", StartLine: 1, EndLine: 20})
	idx.Record(outer, 20, nil, Occurrence{SourceFile: "b.go", StartLine: 1, EndLine: 20})

	idx.Record("inner-stmt", 11, &outer, Occurrence{SourceFile: "a.go", StartLine: 5, EndLine: 15})
	idx.Record("inner-stmt", 11, &outer, Occurrence{SourceFile: "b.go", StartLine: 5, EndLine: 15})

	survivors := idx.Survivors(2, 10)
	require.Len(t, survivors, 1, "the duplicated inner statement is subsumed by its duplicated enclosing function")
	assert.Equal(t, outer, survivors[0].Fingerprint)
}

func TestSurvivorsRequiresMinOccurrencesAndLineGate(t *testing.T) {
	idx := New()
	idx.Record("once-only", 20, nil, Occurrence{SourceFile: "a.go", StartLine: 1, EndLine: 20})
	idx.Record("too-small", 4, nil, Occurrence{SourceFile: "a.go", StartLine: 1, EndLine: 4})
	idx.Record("too-small", 4, nil, Occurrence{SourceFile: "b.go", StartLine: 1, EndLine: 4})

	survivors := idx.Survivors(2, 10)
	assert.Empty(t, survivors)
}

func TestIndexIsSafeForConcurrentRecord(t *testing.T) {
	idx := New()
	var wg sync.WaitGroup
	for worker := 0; worker < 32; worker++ {
		worker := worker
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				fp := fmt.Sprintf("fp-%d", i%16)
				idx.Record(fp, 15, nil, Occurrence{
					SourceFile: fmt.Sprintf("file-%d.go", worker),
					StartLine:  i,
					EndLine:    i + 15,
				})
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, fp := range idx.Fingerprints() {
		total += idx.Count(fp)
	}
	assert.Equal(t, 32*100, total)
}

func TestOccurrencesAreSortedDeterministically(t *testing.T) {
	idx := New()
	idx.Record("fp", 15, nil, Occurrence{SourceFile: "z.go", StartLine: 1, EndLine: 16})
	idx.Record("fp", 15, nil, Occurrence{SourceFile: "a.go", StartLine: 9, EndLine: 24})
	idx.Record("fp", 15, nil, Occurrence{SourceFile: "a.go", StartLine: 1, EndLine: 16})

	occs := idx.Occurrences("fp")
	require.Len(t, occs, 3)
	assert.Equal(t, "a.go", occs[0].SourceFile)
	assert.Equal(t, 1, occs[0].StartLine)
	assert.Equal(t, "a.go", occs[1].SourceFile)
	assert.Equal(t, 9, occs[1].StartLine)
	assert.Equal(t, "z.go", occs[2].SourceFile)
}
