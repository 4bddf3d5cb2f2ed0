package progress

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"mergemaster/internal/config"
	"mergemaster/internal/merge"
	"mergemaster/pkg/testutils"
	"mergemaster/pkg/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(name, dest string) types.CopyResult {
	return types.CopyResult{
		Task:        types.CopyTask{Dir: "src", Name: name, Root: "src"},
		Destination: dest,
		Copied:      true,
	}
}

func TestNewPicksSink(t *testing.T) {
	var buf bytes.Buffer

	assert.IsType(t, merge.NopProgress{}, New(config.ProgressNone, &buf))
	assert.IsType(t, &Bar{}, New(config.ProgressBar, &buf))
	assert.IsType(t, &Lines{}, New(config.ProgressPlain, &buf))

	// A buffer is never a terminal
	assert.IsType(t, &Lines{}, New(config.ProgressAuto, &buf))
	assert.False(t, IsTerminal(&buf))
}

func TestLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewLines(&buf)

	l.Start(2)
	l.Advance(result("a.txt", filepath.Join("dst", "a.txt")))
	l.Advance(result("a.txt", filepath.Join("dst", "a_1.txt")))
	l.Finish(types.Summary{Total: 2, Copied: 2}, nil)

	out := testutils.StripANSI(buf.String())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Merging Files (2)", lines[0])
	assert.Equal(t, "[1/2] a.txt", lines[1])
	assert.Equal(t, "[2/2] a.txt -> a_1.txt", lines[2])
	assert.Equal(t, "Merging 2 files completed successfully!", lines[3])
}

func TestLinesFailureAndDryRun(t *testing.T) {
	var buf bytes.Buffer
	l := NewLines(&buf)
	l.Finish(types.Summary{Total: 3, Results: []types.CopyResult{{}}}, errors.New("disk full"))
	assert.Contains(t, testutils.StripANSI(buf.String()), "Merge failed after 1 of 3 files: disk full")

	buf.Reset()
	l.Finish(types.Summary{Total: 4, DryRun: true}, nil)
	assert.Contains(t, testutils.StripANSI(buf.String()), "Dry run: 4 files would be merged")
}

func TestBarModelUpdate(t *testing.T) {
	var m tea.Model = newBarModel()

	m, cmd := m.Update(startMsg{total: 4})
	assert.Nil(t, cmd)
	m, _ = m.Update(advanceMsg{result: result("img.png", filepath.Join("dst", "img.png"))})

	bm := m.(barModel)
	assert.Equal(t, 4, bm.total)
	assert.Equal(t, 1, bm.done)
	assert.Equal(t, "img.png", bm.current)
	assert.InDelta(t, 0.25, bm.percent(), 0.0001)

	view := testutils.StripANSI(bm.View())
	assert.Contains(t, view, "Merging Files")
	assert.Contains(t, view, "1/4")
	assert.Contains(t, view, "img.png")

	m, cmd = m.Update(finishMsg{summary: types.Summary{Total: 4, Copied: 4}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, testutils.StripANSI(m.View()), "Merging 4 files completed successfully!")
}

func TestBarModelFailure(t *testing.T) {
	var m tea.Model = newBarModel()
	m, _ = m.Update(startMsg{total: 2})
	m, _ = m.Update(finishMsg{summary: types.Summary{Total: 2}, err: errors.New("boom")})

	bm := m.(barModel)
	assert.True(t, bm.failed)
	assert.Contains(t, testutils.StripANSI(bm.View()), "Merge failed after 0 of 2 files: boom")
}

func TestBarModelEmptyRun(t *testing.T) {
	m := newBarModel()
	assert.Equal(t, 1.0, m.percent())
}

func TestBarModelWindowSize(t *testing.T) {
	var m tea.Model = newBarModel()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 300, Height: 40})
	assert.Equal(t, maxWidth, m.(barModel).bar.Width)

	m, _ = m.Update(tea.WindowSizeMsg{Width: 5, Height: 40})
	assert.Equal(t, 10, m.(barModel).bar.Width)
}

func TestBarFinishWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf)
	b.Finish(types.Summary{}, errors.New("destination locked"))
	assert.Contains(t, testutils.StripANSI(buf.String()), "Merge failed after 0 of 0 files: destination locked")
}
