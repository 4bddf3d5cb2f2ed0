package merge_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mergemaster/internal/config"
	serr "mergemaster/internal/errors"
	"mergemaster/internal/merge"
	"mergemaster/pkg/testutils"
	"mergemaster/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProgress struct {
	total    int
	started  int
	advanced []types.CopyResult
	finished int
	summary  types.Summary
	err      error
}

func (r *recordingProgress) Start(total int) {
	r.started++
	r.total = total
}

func (r *recordingProgress) Advance(result types.CopyResult) {
	r.advanced = append(r.advanced, result)
}

func (r *recordingProgress) Finish(summary types.Summary, err error) {
	r.finished++
	r.summary = summary
	r.err = err
}

func newEngine(t *testing.T, in config.Input, opts ...merge.Option) *merge.Engine {
	t.Helper()
	table := types.DefaultCategories()
	options, err := config.NewOptions(in, table)
	require.NoError(t, err)
	opts = append([]merge.Option{merge.WithLockDir(t.TempDir())}, opts...)
	e, err := merge.New(options, table, opts...)
	require.NoError(t, err)
	return e
}

func TestRunTypeFilterScenario(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	testutils.CreateTree(t, src, map[string]string{
		"A/img.png": "png",
		"A/doc.txt": "txt",
	})

	rec := &recordingProgress{}
	e := newEngine(t, config.Input{
		Sources:     []string{src},
		Destination: dst,
		Types:       []string{"image"},
	}, merge.WithProgress(rec))

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"A/img.png": "png"}, testutils.ReadTree(t, dst))
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Copied)
	assert.NotEmpty(t, summary.RunID)

	// Types alone never flatten
	assert.Equal(t, filepath.Join(dst, "A", "img.png"), summary.Results[0].Destination)

	assert.Equal(t, 1, rec.started)
	assert.Equal(t, 1, rec.total)
	assert.Len(t, rec.advanced, 1)
	assert.Equal(t, 1, rec.finished)
	assert.NoError(t, rec.err)
	assert.Equal(t, summary.RunID, rec.summary.RunID)
}

func TestRunTwoRootsCollide(t *testing.T) {
	base := t.TempDir()
	a := filepath.Join(base, "A")
	b := filepath.Join(base, "B")
	dst := filepath.Join(base, "dst")
	testutils.CreateTree(t, a, map[string]string{"notes.txt": "from a"})
	testutils.CreateTree(t, b, map[string]string{"notes.txt": "from b"})

	e := newEngine(t, config.Input{Sources: []string{a, b}, Destination: dst})
	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Copied)
	assert.Equal(t, map[string]string{
		"notes.txt":   "from a",
		"notes_1.txt": "from b",
	}, testutils.ReadTree(t, dst))
}

func TestRunSkipKeywordScenario(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "dst")
	testutils.CreateTree(t, src, map[string]string{
		"proj/index.js":            "index",
		"proj/node_modules/lib.js": "lib",
	})

	e := newEngine(t, config.Input{
		Sources:      []string{src},
		Destination:  dst,
		SkipKeywords: []string{"node_modules"},
	})
	_, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"proj/index.js"}, testutils.TreeNames(t, dst))
}

func TestRunExcludeBeatsExtensions(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "dst")
	testutils.CreateTree(t, src, map[string]string{
		"a.tmp": "tmp",
		"b.txt": "txt",
	})

	e := newEngine(t, config.Input{
		Sources:     []string{src},
		Destination: dst,
		Extensions:  []string{".tmp", ".txt"},
		Exclude:     []string{".tmp"},
	})
	_, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt"}, testutils.TreeNames(t, dst))
}

func TestRunFlattenAndMirror(t *testing.T) {
	src := t.TempDir()
	testutils.CreateTree(t, src, map[string]string{
		"top.txt":         "top",
		"a/b/c/deep.txt":  "deep",
		"a/other/top.txt": "other",
	})

	flatDst := filepath.Join(t.TempDir(), "flat")
	_, err := newEngine(t, config.Input{Sources: []string{src}, Destination: flatDst, Flatten: true}).
		Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"deep.txt", "top.txt", "top_1.txt"}, testutils.TreeNames(t, flatDst))

	mirrorDst := filepath.Join(t.TempDir(), "mirror")
	_, err = newEngine(t, config.Input{Sources: []string{src}, Destination: mirrorDst}).
		Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/c/deep.txt", "a/other/top.txt", "top.txt"}, testutils.TreeNames(t, mirrorDst))
}

func TestRunRepeatedMergeNeverOverwrites(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "dst")
	testutils.CreateTree(t, src, map[string]string{"photo.jpg": "v1"})

	for i := 0; i < 3; i++ {
		_, err := newEngine(t, config.Input{Sources: []string{src}, Destination: dst}).Run(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"photo.jpg", "photo_1.jpg", "photo_2.jpg"}, testutils.TreeNames(t, dst))
}

func TestRunDryRun(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "dst")
	testutils.CreateTree(t, src, map[string]string{"a.txt": "a", "sub/a.txt": "b"})

	rec := &recordingProgress{}
	e := newEngine(t, config.Input{Sources: []string{src}, Destination: dst, Flatten: true, DryRun: true},
		merge.WithProgress(rec))
	assert.True(t, e.IsDryRun())

	summary, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 0, summary.Copied)
	assert.Equal(t, filepath.Join(dst, "a.txt"), summary.Results[0].Destination)
	assert.Equal(t, filepath.Join(dst, "a_1.txt"), summary.Results[1].Destination)
	assert.Len(t, rec.advanced, 2)

	_, err = os.Stat(dst)
	assert.True(t, os.IsNotExist(err), "dry run must not create the destination")
}

func TestRunAbortsOnFilesystemError(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	testutils.CreateTree(t, src, map[string]string{
		"a.txt":     "a",
		"sub/b.txt": "b",
	})
	// A regular file where the mirrored directory must go
	require.NoError(t, os.WriteFile(filepath.Join(dst, "sub"), []byte("blocker"), 0644))

	rec := &recordingProgress{}
	e := newEngine(t, config.Input{Sources: []string{src}, Destination: dst}, merge.WithProgress(rec))
	summary, err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, serr.IsFileError(err))
	assert.Contains(t, err.Error(), "sub")

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Copied)
	assert.Equal(t, 1, rec.finished)
	assert.Error(t, rec.err)
}

func TestRunMissingSourceFailsBeforeStart(t *testing.T) {
	rec := &recordingProgress{}
	e := newEngine(t, config.Input{
		Sources:     []string{filepath.Join(t.TempDir(), "missing")},
		Destination: filepath.Join(t.TempDir(), "dst"),
	}, merge.WithProgress(rec))

	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, serr.IsFileNotFound(err))
	assert.Equal(t, 0, rec.started)
	assert.Equal(t, 1, rec.finished)
}

func TestRunCancelled(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "dst")
	testutils.CreateTree(t, src, map[string]string{"a.txt": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newEngine(t, config.Input{Sources: []string{src}, Destination: dst}).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Copied)
}

func TestRunDestinationLocked(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "dst")
	lockDir := t.TempDir()
	testutils.CreateTree(t, src, map[string]string{"a.txt": "a"})

	holder := newEngine(t, config.Input{Sources: []string{src}, Destination: dst}, merge.WithLockDir(lockDir))
	unlock, err := holder.Lock()
	require.NoError(t, err)

	e := newEngine(t, config.Input{Sources: []string{src}, Destination: dst}, merge.WithLockDir(lockDir))
	_, err = e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, serr.IsDestinationLocked(err))

	unlock()
	_, err = e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, testutils.TreeNames(t, dst))
}
