package report

import (
	"encoding/json"
	"io"
	"sort"
	"sync"

	"github.com/standardbeagle/dupescan/internal/aggregate"
)

// ContentMapping records one block's raw and AST-summarized text
// alongside its fingerprint, the --debug counterpart to an occurrence.
// Mirrors the original detector's content_fingerprint_mappings tuple
// (content, start_line, end_line, fingerprint, file_name, ast_content).
type ContentMapping struct {
	Content     string `json:"content"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	Fingerprint string `json:"fingerprint"`
	FileName    string `json:"file_name"`
	ASTContent  string `json:"ast_content"`
}

// ParentFingerprint is the debug view of one fingerprint's enclosing
// block: the parent's own fingerprint plus its source and AST text.
type ParentFingerprint struct {
	Fingerprint string `json:"fingerprint"`
	Content     string `json:"content"`
	ASTContent  string `json:"ast_content"`
}

// DebugDump is written to debug_data.json when --debug is set, giving a
// full view of the intermediate indices for offline inspection.
type DebugDump struct {
	ParentFingerprints             map[string]ParentFingerprint `json:"parent_fingerprints"`
	ExceedingThresholdFingerprints []string                     `json:"exceeding_threshold_fingerprints"`
	ContentFingerprintMappings     []ContentMapping             `json:"content_fingerprint_mappings"`
}

// Recorder accumulates ContentMapping entries from every worker
// goroutine. Only populated when --debug is set, since the raw and
// AST-summarized text of every block would otherwise be pure overhead.
type Recorder struct {
	mu       sync.Mutex
	mappings []ContentMapping
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Add appends one mapping. Safe for concurrent use from worker goroutines.
func (r *Recorder) Add(m ContentMapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings = append(r.mappings, m)
}

// Mappings returns a snapshot of every recorded mapping.
func (r *Recorder) Mappings() []ContentMapping {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ContentMapping, len(r.mappings))
	copy(out, r.mappings)
	return out
}

// BuildDebugDump derives a DebugDump from the aggregator's final state
// and the recorded content mappings. exceeding_threshold_fingerprints
// lists every fingerprint that passed the occurrence-count and
// ast_line_count gates in §4.5, before the subsumption prune removes the
// ones nested inside an equally-duplicated ancestor — the pre-prune view
// is what makes the dump useful for diagnosing subsumption decisions.
func BuildDebugDump(idx *aggregate.Index, recorder *Recorder, minOccurrences, lineThreshold int) DebugDump {
	mappings := recorder.Mappings()

	firstByFingerprint := make(map[string]ContentMapping)
	for _, m := range mappings {
		if _, ok := firstByFingerprint[m.Fingerprint]; !ok {
			firstByFingerprint[m.Fingerprint] = m
		}
	}

	fingerprints := idx.Fingerprints()

	parents := make(map[string]ParentFingerprint)
	var exceeding []string
	for _, fp := range fingerprints {
		if parentFP, ok := idx.ParentOf(fp); ok {
			if pm, ok := firstByFingerprint[parentFP]; ok {
				parents[fp] = ParentFingerprint{Fingerprint: parentFP, Content: pm.Content, ASTContent: pm.ASTContent}
			} else {
				parents[fp] = ParentFingerprint{Fingerprint: parentFP}
			}
		}
		if idx.Count(fp) >= minOccurrences && idx.ASTLineCount(fp) >= lineThreshold {
			exceeding = append(exceeding, fp)
		}
	}
	sort.Strings(exceeding)

	sort.Slice(mappings, func(i, j int) bool {
		if mappings[i].FileName != mappings[j].FileName {
			return mappings[i].FileName < mappings[j].FileName
		}
		return mappings[i].StartLine < mappings[j].StartLine
	})

	return DebugDump{
		ParentFingerprints:             parents,
		ExceedingThresholdFingerprints: exceeding,
		ContentFingerprintMappings:     mappings,
	}
}

// WriteDebugDump JSON-encodes dump to w, matching the indentation style
// the rest of the reporter uses for readability.
func WriteDebugDump(w io.Writer, dump DebugDump) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}
