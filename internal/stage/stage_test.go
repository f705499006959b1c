package stage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ercotdata/internal/domain"
	"ercotdata/internal/util"
)

func writeFile(t *testing.T, path, content string) domain.SourceFile {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return domain.SourceFile{Path: path, Date: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func newTestConsolidator() *Consolidator {
	return NewConsolidator(Options{Attempts: 2, Logger: util.Discard()})
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestConsolidateCollision(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "staged")

	a := writeFile(t, filepath.Join(src, "2022", "data.csv"), "A,B\n1,2\n")
	b := writeFile(t, filepath.Join(src, "2023", "data.csv"), "A,B,C\n3,4,5\n6,7,8\n")

	res, err := newTestConsolidator().Consolidate(context.Background(), []domain.SourceFile{a, b}, dest)
	require.NoError(t, err)
	require.Len(t, res.Staged, 2)
	assert.Empty(t, res.Failures)

	assert.Equal(t, filepath.Join(dest, "data.csv"), res.Staged[0].StagedPath)
	assert.Equal(t, filepath.Join(dest, "data_1.csv"), res.Staged[1].StagedPath)
	assert.Equal(t, a.Path, res.Staged[0].OriginalPath)
	assert.Equal(t, b.Path, res.Staged[1].OriginalPath)

	gotA, err := os.ReadFile(res.Staged[0].StagedPath)
	require.NoError(t, err)
	gotB, err := os.ReadFile(res.Staged[1].StagedPath)
	require.NoError(t, err)
	assert.Equal(t, "A,B\n1,2\n", string(gotA))
	assert.Equal(t, "A,B,C\n3,4,5\n6,7,8\n", string(gotB))

	origA, _ := os.Stat(a.Path)
	origB, _ := os.Stat(b.Path)
	assert.Equal(t, origA.Size()+origB.Size(), int64(len(gotA)+len(gotB)))
}

func TestConsolidateRerunIsIdempotent(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	files := []domain.SourceFile{
		writeFile(t, filepath.Join(src, "x", "data.csv"), "one\n"),
		writeFile(t, filepath.Join(src, "y", "data.csv"), "two\n"),
		writeFile(t, filepath.Join(src, "y", "other.csv"), "three\n"),
	}

	first, err := newTestConsolidator().Consolidate(context.Background(), files, dest)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Reused)

	second, err := newTestConsolidator().Consolidate(context.Background(), files, dest)
	require.NoError(t, err)
	assert.Equal(t, 3, second.Reused)
	assert.ElementsMatch(t, []string{"data.csv", "data_1.csv", "other.csv"}, listDir(t, dest))

	for i := range files {
		assert.Equal(t, first.Staged[i].StagedPath, second.Staged[i].StagedPath)
		assert.True(t, second.Staged[i].Reused)
	}
}

func TestConsolidateIdenticalSourcesInOneRunStayDistinct(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	files := []domain.SourceFile{
		writeFile(t, filepath.Join(src, "v1", "data.csv"), "same\n"),
		writeFile(t, filepath.Join(src, "v2", "data.csv"), "same\n"),
	}

	res, err := newTestConsolidator().Consolidate(context.Background(), files, dest)
	require.NoError(t, err)
	require.Len(t, res.Staged, 2)
	assert.NotEqual(t, res.Staged[0].StagedPath, res.Staged[1].StagedPath)
	assert.ElementsMatch(t, []string{"data.csv", "data_1.csv"}, listDir(t, dest))
}

func TestConsolidateNeverOverwrites(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dest, "data.csv"), []byte("previous run\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "data_1.csv"), []byte("older still\n"), 0o644))

	f := writeFile(t, filepath.Join(src, "data.csv"), "fresh\n")
	res, err := newTestConsolidator().Consolidate(context.Background(), []domain.SourceFile{f}, dest)
	require.NoError(t, err)
	require.Len(t, res.Staged, 1)
	assert.Equal(t, filepath.Join(dest, "data_2.csv"), res.Staged[0].StagedPath)

	prev, err := os.ReadFile(filepath.Join(dest, "data.csv"))
	require.NoError(t, err)
	assert.Equal(t, "previous run\n", string(prev))
	older, err := os.ReadFile(filepath.Join(dest, "data_1.csv"))
	require.NoError(t, err)
	assert.Equal(t, "older still\n", string(older))
}

func TestConsolidatePreservesModTime(t *testing.T) {
	src := t.TempDir()
	f := writeFile(t, filepath.Join(src, "data.csv"), "x\n")
	mtime := time.Date(2022, 4, 6, 12, 29, 34, 0, time.UTC)
	require.NoError(t, os.Chtimes(f.Path, mtime, mtime))

	res, err := newTestConsolidator().Consolidate(context.Background(), []domain.SourceFile{f}, t.TempDir())
	require.NoError(t, err)

	info, err := os.Stat(res.Staged[0].StagedPath)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime), "got %v", info.ModTime())
}

func TestConsolidatePartialFailure(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	good := writeFile(t, filepath.Join(src, "good.csv"), "ok\n")
	missing := domain.SourceFile{Path: filepath.Join(src, "vanished.csv")}

	res, err := newTestConsolidator().Consolidate(context.Background(), []domain.SourceFile{missing, good}, dest)
	require.NoError(t, err)
	require.Len(t, res.Staged, 1)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, missing.Path, res.Failures[0].Path)
	assert.ErrorIs(t, res.Failures[0].Err, os.ErrNotExist)
}

func TestConsolidateAllFail(t *testing.T) {
	src := t.TempDir()
	files := []domain.SourceFile{
		{Path: filepath.Join(src, "a.csv")},
		{Path: filepath.Join(src, "b.csv")},
	}

	res, err := newTestConsolidator().Consolidate(context.Background(), files, t.TempDir())
	assert.ErrorIs(t, err, ErrAllCopiesFailed)
	require.NotNil(t, res)
	assert.Len(t, res.Failures, 2)
}

func TestConsolidateEmpty(t *testing.T) {
	res, err := newTestConsolidator().Consolidate(context.Background(), nil, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, res.Staged)
}

func TestConsolidateCancelled(t *testing.T) {
	src := t.TempDir()
	f := writeFile(t, filepath.Join(src, "a.csv"), "x\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestConsolidator().Consolidate(ctx, []domain.SourceFile{f}, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCandidateName(t *testing.T) {
	assert.Equal(t, "data.csv", CandidateName("data.csv", 0))
	assert.Equal(t, "data_1.csv", CandidateName("data.csv", 1))
	assert.Equal(t, "data_12.csv", CandidateName("data.csv", 12))
	assert.Equal(t, "cdr.20220406.DAM_1.csv", CandidateName("cdr.20220406.DAM.csv", 1))
	assert.Equal(t, "README_2", CandidateName("README", 2))
}
