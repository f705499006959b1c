// Package catalog discovers dated source files under an archive directory
// and orders them chronologically.
package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"ercotdata/internal/domain"
)

// Options control which files are considered and how they are dated.
type Options struct {
	// Extensions lists accepted file suffixes, compared case-insensitively.
	// Empty means ".csv".
	Extensions []string
	Extractor  DateExtractor
	// SkipDirs are directories below root that are not walked, such as a
	// staging directory nested inside the archive. Root itself is always
	// walked.
	SkipDirs   []string
	Logger     *slog.Logger
}

// Catalog is the ordered manifest of dated source files plus the files
// that were seen but excluded.
type Catalog struct {
	Root     string
	Files    []domain.SourceFile
	Discards []domain.Discard
}

// Build walks root recursively and returns every matching file that
// carries a valid date, sorted ascending by date. Files with equal dates
// keep their traversal order. Undated files are recorded in Discards. An
// empty catalog is not an error.
func Build(root string, opts Options) (*Catalog, error) {
	if opts.Extractor == nil {
		return nil, fmt.Errorf("catalog: no date extractor")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".csv"}
	}

	skip := make(map[string]struct{}, len(opts.SkipDirs))
	for _, dir := range opts.SkipDirs {
		skip[absPath(dir)] = struct{}{}
	}
	rootAbs := absPath(root)

	cat := &Catalog{Root: root}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			abs := absPath(path)
			if _, ok := skip[abs]; ok && abs != rootAbs {
				log.Debug("skipping directory", "path", path)
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !hasExtension(d.Name(), exts) {
			return nil
		}

		date, err := opts.Extractor.ExtractDate(d.Name())
		if err != nil {
			log.Warn("skipping undated file", "path", path, "reason", err)
			cat.Discards = append(cat.Discards, domain.Discard{Path: path, Reason: err.Error()})
			return nil
		}
		cat.Files = append(cat.Files, domain.SourceFile{Path: path, Date: date})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	slices.SortStableFunc(cat.Files, func(a, b domain.SourceFile) int {
		return a.Date.Compare(b.Date)
	})

	if first, last, ok := cat.DateRange(); ok {
		log.Info("catalog built",
			"root", root,
			"files", len(cat.Files),
			"undated", len(cat.Discards),
			"first_date", first.Format("2006-01-02"),
			"last_date", last.Format("2006-01-02"),
		)
	} else {
		log.Info("catalog built", "root", root, "files", 0, "undated", len(cat.Discards))
	}
	return cat, nil
}

// DateRange returns the first and last dates in the catalog.
func (c *Catalog) DateRange() (first, last time.Time, ok bool) {
	if len(c.Files) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return c.Files[0].Date, c.Files[len(c.Files)-1].Date, true
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func hasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
