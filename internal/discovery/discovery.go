// Package discovery walks a source tree and admits files for parsing per
// §4.1: extension maps to a supported language, no exclusion glob
// matches, size is within budget, and (if restricted) the language is in
// the requested set. Enumeration is sorted by path for determinism.
package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	derrors "github.com/standardbeagle/dupescan/internal/errors"
	"github.com/standardbeagle/dupescan/internal/langtable"
	"github.com/standardbeagle/dupescan/pkg/pathutil"
)

// FileTask is one admitted file: a resolved path and language tag, ready
// to be handed to a parser worker. Created by discovery, consumed once.
type FileTask struct {
	Path     string
	Language langtable.Tag
	Size     int64
}

// Options configures admission. It is the subset of config.Config that
// discovery needs, kept separate so this package has no import-time
// dependency on the config package's KDL/CLI concerns.
type Options struct {
	Languages   []string // empty = all
	Excludes    []string // shell-glob patterns, matched against full path
	MaxFileSize int64
}

// Discover walks root (or, if root is itself a regular file, considers
// just that file) and returns every admitted FileTask sorted by path.
func Discover(ctx context.Context, root string, opts Options) ([]FileTask, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, derrors.New(derrors.KindConfig, "stat source path", err).WithPath(root)
	}

	wanted := wantedLanguages(opts.Languages)

	if !info.IsDir() {
		task, ok := admit(root, info, wanted, opts)
		if !ok {
			return nil, nil
		}
		return []FileTask{task}, nil
	}

	var tasks []FileTask
	visited := make(map[string]bool)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			// A file that cannot be stat-ed is skipped with a warning,
			// not a fatal error — only the root itself is fatal (checked
			// above via os.Stat).
			log.Printf("warning: skipping %s: %v", path, err)
			return nil
		}

		if d.IsDir() {
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			if visited[real] {
				return filepath.SkipDir
			}
			visited[real] = true
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			log.Printf("warning: skipping %s: %v", path, err)
			return nil
		}

		if task, ok := admit(path, fi, wanted, opts); ok {
			tasks = append(tasks, task)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Path < tasks[j].Path })
	return tasks, nil
}

func admit(path string, info fs.FileInfo, wanted map[langtable.Tag]bool, opts Options) (FileTask, bool) {
	tag, ok := langtable.ForExtension(filepath.Ext(path))
	if !ok {
		return FileTask{}, false
	}
	if wanted != nil && !wanted[tag] {
		return FileTask{}, false
	}
	if excluded(path, opts.Excludes) {
		return FileTask{}, false
	}
	if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
		return FileTask{}, false
	}
	return FileTask{Path: path, Language: tag, Size: info.Size()}, true
}

func excluded(path string, patterns []string) bool {
	normalized := pathutil.ToSlash(path)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, normalized); err == nil && ok {
			return true
		}
	}
	return false
}

func wantedLanguages(languages []string) map[langtable.Tag]bool {
	if len(languages) == 0 {
		return nil
	}
	set := make(map[langtable.Tag]bool, len(languages))
	for _, l := range languages {
		set[langtable.Tag(l)] = true
	}
	return set
}
