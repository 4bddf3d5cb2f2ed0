// Package progress renders merge progress, either as an interactive
// terminal bar or as one line per copied file.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"mergemaster/internal/config"
	"mergemaster/internal/merge"
	"mergemaster/pkg/types"

	"github.com/mattn/go-isatty"
)

// New returns the sink for kind (one of the config.Progress* values).
// "auto" picks the bar when w is a terminal and plain lines otherwise.
func New(kind string, w io.Writer) merge.Progress {
	switch kind {
	case config.ProgressNone:
		return merge.NopProgress{}
	case config.ProgressBar:
		return NewBar(w)
	case config.ProgressPlain:
		return NewLines(w)
	default:
		if IsTerminal(w) {
			return NewBar(w)
		}
		return NewLines(w)
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// describe is the short text shown for one finished task.
func describe(r types.CopyResult) string {
	if r.Renamed() {
		return fmt.Sprintf("%s -> %s", r.Task.Name, filepath.Base(r.Destination))
	}
	return r.Task.Name
}

// completionMessage is printed once a run succeeds.
func completionMessage(s types.Summary) string {
	if s.DryRun {
		return fmt.Sprintf("Dry run: %d files would be merged", s.Total)
	}
	return fmt.Sprintf("Merging %d files completed successfully!", s.Copied)
}

func failureMessage(s types.Summary, err error) string {
	return fmt.Sprintf("Merge failed after %d of %d files: %v", len(s.Results), s.Total, err)
}
