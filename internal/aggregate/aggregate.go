// Package aggregate is the pipeline's single synchronization point
// (§4.5): it folds every worker's extracted blocks into a shared
// occurrence index, then prunes the result to the outermost duplicated
// level via subsumption.
//
// The index is sharded the way a per-bucket trigram storage layer shards its map
// (internal/core/trigram_sharded_storage.go): each shard owns its own
// mutex, keyed by a fast non-cryptographic hash of the fingerprint, so
// concurrent workers reporting unrelated fingerprints never contend on
// the same lock.
package aggregate

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 256

// Occurrence is one instance of a fingerprint found in a source file.
type Occurrence struct {
	SourceFile string
	StartLine  int
	EndLine    int
}

type shard struct {
	mu          sync.Mutex
	occurrences map[string][]Occurrence
	seen        map[string]map[Occurrence]bool // fingerprint -> triples already recorded
	astLines    map[string]int
	parents     map[string]string // fingerprint -> parent fingerprint, first-writer-wins
	hasParent   map[string]bool
}

// Index is the concurrent occurrence index. Zero value is not usable;
// construct with New.
type Index struct {
	shards [shardCount]*shard
}

// New builds an empty Index with all shards initialized.
func New() *Index {
	idx := &Index{}
	for i := range idx.shards {
		idx.shards[i] = &shard{
			occurrences: make(map[string][]Occurrence),
			seen:        make(map[string]map[Occurrence]bool),
			astLines:    make(map[string]int),
			parents:     make(map[string]string),
			hasParent:   make(map[string]bool),
		}
	}
	return idx
}

func (idx *Index) shardFor(fingerprint string) *shard {
	h := xxhash.Sum64String(fingerprint)
	return idx.shards[h%shardCount]
}

// Record adds one occurrence of fingerprint, with its ast_line_count and
// optional parent fingerprint (the nearest enclosing emitted block's
// fingerprint, if any). ast_line_count and the parent link are
// structural properties of the fingerprint itself — every occurrence of
// the same fingerprint shares the same subtree shape — so they are
// recorded first-writer-wins rather than re-derived per occurrence. A
// (source_file, start_line, end_line) triple already recorded for this
// fingerprint is dropped rather than appended again.
func (idx *Index) Record(fingerprint string, astLineCount int, parent *string, occ Occurrence) {
	s := idx.shardFor(fingerprint)
	s.mu.Lock()
	defer s.mu.Unlock()

	triples, ok := s.seen[fingerprint]
	if !ok {
		triples = make(map[Occurrence]bool)
		s.seen[fingerprint] = triples
	}
	if triples[occ] {
		return
	}
	triples[occ] = true

	s.occurrences[fingerprint] = append(s.occurrences[fingerprint], occ)
	if _, ok := s.astLines[fingerprint]; !ok {
		s.astLines[fingerprint] = astLineCount
	}
	if parent != nil {
		if !s.hasParent[fingerprint] {
			s.parents[fingerprint] = *parent
			s.hasParent[fingerprint] = true
		}
	}
}

// Count returns the number of recorded occurrences for fingerprint.
func (idx *Index) Count(fingerprint string) int {
	s := idx.shardFor(fingerprint)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.occurrences[fingerprint])
}

// ParentOf returns the fingerprint recorded as the nearest enclosing
// emitted block, if any.
func (idx *Index) ParentOf(fingerprint string) (string, bool) {
	s := idx.shardFor(fingerprint)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parents[fingerprint]
	return p, ok
}

// ASTLineCount returns the recorded ast_line_count for fingerprint.
func (idx *Index) ASTLineCount(fingerprint string) int {
	s := idx.shardFor(fingerprint)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.astLines[fingerprint]
}

// Fingerprints returns every fingerprint seen, in no particular order.
func (idx *Index) Fingerprints() []string {
	var all []string
	for _, s := range idx.shards {
		s.mu.Lock()
		for fp := range s.occurrences {
			all = append(all, fp)
		}
		s.mu.Unlock()
	}
	return all
}

// Occurrences returns every recorded occurrence of fingerprint, sorted
// by (source_file, start_line) for deterministic output (§5).
func (idx *Index) Occurrences(fingerprint string) []Occurrence {
	s := idx.shardFor(fingerprint)
	s.mu.Lock()
	occs := make([]Occurrence, len(s.occurrences[fingerprint]))
	copy(occs, s.occurrences[fingerprint])
	s.mu.Unlock()

	sort.Slice(occs, func(i, j int) bool {
		if occs[i].SourceFile != occs[j].SourceFile {
			return occs[i].SourceFile < occs[j].SourceFile
		}
		return occs[i].StartLine < occs[j].StartLine
	})
	return occs
}

// Survivor is a fingerprint that passed the candidate-report gate.
type Survivor struct {
	Fingerprint  string
	Occurrences  []Occurrence
	ASTLineCount int
}

// Survivors applies the full candidate-report rule from §4.5: a
// fingerprint is reported only if it has at least minOccurrences
// recorded occurrences, its ast_line_count is at least lineThreshold,
// and its parent fingerprint (if any) is NOT itself a candidate — this
// subsumption step collapses nested duplicate reports down to the
// outermost duplicated level, so a duplicated function does not also
// produce a redundant report for every duplicated statement inside it.
func (idx *Index) Survivors(minOccurrences, lineThreshold int) []Survivor {
	candidates := make(map[string]bool)
	for _, fp := range idx.Fingerprints() {
		if idx.Count(fp) >= minOccurrences && idx.ASTLineCount(fp) >= lineThreshold {
			candidates[fp] = true
		}
	}

	var out []Survivor
	for fp := range candidates {
		if parent, ok := idx.ParentOf(fp); ok && candidates[parent] {
			continue
		}
		out = append(out, Survivor{
			Fingerprint:  fp,
			Occurrences:  idx.Occurrences(fp),
			ASTLineCount: idx.ASTLineCount(fp),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Fingerprint < out[j].Fingerprint
	})
	return out
}
