// Package stage copies cataloged source files into one flat directory,
// resolving base-name collisions without ever overwriting a file.
package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"ercotdata/internal/domain"
	"ercotdata/internal/util"
)

// ErrAllCopiesFailed is returned when a non-empty catalog produced no
// staged file at all.
var ErrAllCopiesFailed = errors.New("every staging copy failed")

// Options configure a Consolidator.
type Options struct {
	// Attempts is the number of tries per file; values below 1 mean 1.
	Attempts   int
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Consolidator places source files into a staging directory.
type Consolidator struct {
	opts Options
	log  *slog.Logger
}

// Result lists staged files in catalog order and the files that could not
// be staged.
type Result struct {
	Staged   []domain.StagedFile
	Failures []domain.FileError
	Reused   int
}

// NewConsolidator returns a Consolidator with the given options.
func NewConsolidator(opts Options) *Consolidator {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Consolidator{opts: opts, log: log}
}

// Consolidate copies every file into destDir under its base name. A name
// already taken, by an earlier file of this run or by a different file left
// from a previous run, is resolved by probing name_1.ext, name_2.ext, and so
// on. A leftover file with identical content that this run has not yet
// claimed is reused instead, so re-running on the same input creates no new
// suffixes. Copy failures are recorded per file and do not stop the run.
func (c *Consolidator) Consolidate(ctx context.Context, files []domain.SourceFile, destDir string) (*Result, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}

	res := &Result{}
	claimed := make(map[string]struct{}, len(files))

	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		var (
			dst    string
			reused bool
		)
		err := util.Retry(ctx, c.opts.Attempts, c.opts.RetryDelay, func() error {
			var err error
			dst, reused, err = place(src.Path, destDir, claimed)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			c.log.Warn("staging copy failed", "path", src.Path, "error", err)
			res.Failures = append(res.Failures, domain.FileError{Path: src.Path, Err: err})
			continue
		}

		claimed[filepath.Base(dst)] = struct{}{}
		if reused {
			res.Reused++
		}
		res.Staged = append(res.Staged, domain.StagedFile{
			OriginalPath: src.Path,
			StagedPath:   dst,
			Date:         src.Date,
			Reused:       reused,
		})
		c.log.Debug("staged", "src", src.Path, "dst", dst, "reused", reused)
	}

	c.log.Info("staging complete",
		"dir", destDir,
		"staged", len(res.Staged),
		"reused", res.Reused,
		"failed", len(res.Failures),
	)

	if len(files) > 0 && len(res.Staged) == 0 {
		return res, fmt.Errorf("%w (%d files)", ErrAllCopiesFailed, len(files))
	}
	return res, nil
}

// CandidateName returns the n-th probe name for base: base itself for n=0,
// otherwise stem_n.ext.
func CandidateName(base string, n int) string {
	if n == 0 {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%d%s", stem, n, ext)
}

// place finds the first free or reusable name for src in destDir.
func place(src, destDir string, claimed map[string]struct{}) (string, bool, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", false, util.Permanent(err)
	}
	base := filepath.Base(src)

	for n := 0; ; n++ {
		name := CandidateName(base, n)
		if _, taken := claimed[name]; taken {
			continue
		}
		dst := filepath.Join(destDir, name)

		err := copyExclusive(src, dst, info.ModTime())
		if err == nil {
			return dst, false, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", false, err
		}

		same, err := sameContent(src, dst)
		if err != nil {
			return "", false, err
		}
		if same {
			return dst, true, nil
		}
	}
}

// copyExclusive creates dst, failing with fs.ErrExist if it is already
// present, and copies src into it. A partially written dst is removed.
func copyExclusive(src, dst string, modTime time.Time) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err = out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, modTime, modTime)
}

// sameContent reports whether two files have equal size and digest.
func sameContent(a, b string) (bool, error) {
	ai, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if !bi.Mode().IsRegular() || ai.Size() != bi.Size() {
		return false, nil
	}

	ha, err := digest(a)
	if err != nil {
		return false, err
	}
	hb, err := digest(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}

func digest(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
