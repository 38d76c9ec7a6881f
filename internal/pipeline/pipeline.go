// Package pipeline wires discovery, parsing, block extraction, and
// aggregation into the bounded worker pool described in §5: a pool of
// goroutines pulls file tasks off a channel, each doing its own
// parse-extract-fingerprint work independently, with the aggregate.Index
// as the sole synchronization point.
package pipeline

import (
	"context"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/dupescan/internal/aggregate"
	"github.com/standardbeagle/dupescan/internal/cst"
	"github.com/standardbeagle/dupescan/internal/debug"
	"github.com/standardbeagle/dupescan/internal/discovery"
	derrors "github.com/standardbeagle/dupescan/internal/errors"
	"github.com/standardbeagle/dupescan/internal/extractor"
	"github.com/standardbeagle/dupescan/internal/report"
)

// Options configures one detection run.
type Options struct {
	Threads   int
	Threshold int // minimum line span (--threshold); extraction reads Extractor.Threshold
	Extractor extractor.Options

	// Recorder, if non-nil, captures per-block content/AST text for the
	// --debug dump. Left nil on normal runs so no extra text is retained.
	Recorder *report.Recorder
}

// Stats tallies per-file outcomes for the run summary.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
}

// Run discovers files under sourcePath, parses and extracts candidate
// blocks from each, folds them into idx, and returns counts of what
// happened. A fatal configuration error (missing source path) returns
// immediately; every other per-file failure is isolated to that file
// per the policy table in §7.
func Run(ctx context.Context, provider cst.Provider, sourcePath string, discoverOpts discovery.Options, opts Options) (*aggregate.Index, Stats, error) {
	tasks, err := discovery.Discover(ctx, sourcePath, discoverOpts)
	if err != nil {
		return nil, Stats{}, err
	}

	idx := aggregate.New()
	taskCh := make(chan discovery.FileTask)

	g, gctx := errgroup.WithContext(ctx)

	var stats Stats
	resultCh := make(chan bool, len(tasks))

	threads := opts.Threads
	if threads <= 0 {
		threads = 1
	}

	for w := 0; w < threads; w++ {
		g.Go(func() error {
			for task := range taskCh {
				select {
				case <-gctx.Done():
					// Cancellation (SIGINT): drain the channel without
					// starting new work and exit without a partial report.
					resultCh <- false
					continue
				default:
				}
				ok := processFile(provider, task, idx, opts)
				resultCh <- ok
			}
			return nil
		})
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case <-gctx.Done():
				return
			case taskCh <- task:
			}
		}
	}()

	if err := g.Wait(); err != nil {
		return nil, stats, err
	}
	close(resultCh)

	for ok := range resultCh {
		if ok {
			stats.FilesProcessed++
		} else {
			stats.FilesSkipped++
		}
	}

	if ctx.Err() != nil {
		return idx, stats, ctx.Err()
	}

	return idx, stats, nil
}

// processFile reads, parses, and extracts blocks from one file, folding
// them into idx. It never returns an error: every failure mode here is
// file-scoped per §7's policy table, so the caller only needs a
// succeeded/skipped signal.
func processFile(provider cst.Provider, task discovery.FileTask, idx *aggregate.Index, opts Options) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("error: recovered from panic processing %s: %v", task.Path, r)
			ok = false
		}
	}()

	source, err := os.ReadFile(task.Path)
	if err != nil {
		log.Printf("warning: skipping %s: %v", task.Path, derrors.New(derrors.KindFileRead, "read file", err).WithPath(task.Path))
		return false
	}

	tree, err := provider.Parse(task.Language, source)
	if err != nil {
		log.Printf("warning: skipping %s: %v", task.Path, derrors.New(derrors.KindParse, "parse file", err).WithPath(task.Path))
		return false
	}
	defer tree.Close()

	root := tree.Root()
	if root == nil {
		return false
	}

	blocks := extractor.Extract(root, source, opts.Extractor)
	fpByIndex := make([]string, len(blocks))
	for i, b := range blocks {
		fpByIndex[i] = b.Fingerprint
	}

	for i, b := range blocks {
		var parentFP *string
		if b.Parent != nil {
			p := fpByIndex[*b.Parent]
			parentFP = &p
		}
		idx.Record(b.Fingerprint, b.ASTLineCount, parentFP, aggregate.Occurrence{
			SourceFile: task.Path,
			StartLine:  b.StartLine,
			EndLine:    b.EndLine,
		})

		if opts.Recorder != nil {
			opts.Recorder.Add(report.ContentMapping{
				Content:     string(source[b.StartByte:b.EndByte]),
				StartLine:   b.StartLine,
				EndLine:     b.EndLine,
				Fingerprint: b.Fingerprint,
				FileName:    task.Path,
				ASTContent:  b.ASTSummary,
			})
		}
	}

	debug.Logf("processed %s: %d blocks", task.Path, len(blocks))
	return true
}
