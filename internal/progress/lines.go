package progress

import (
	"fmt"
	"io"
	"sync"

	"mergemaster/pkg/types"
)

// Lines writes one "[n/total] name" line per task. It suits logs and
// pipes where a redrawn bar would be noise.
type Lines struct {
	mu    sync.Mutex
	w     io.Writer
	total int
	done  int
}

// NewLines creates a Lines sink writing to w.
func NewLines(w io.Writer) *Lines {
	return &Lines{w: w}
}

func (l *Lines) Start(total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total = total
	l.done = 0
	fmt.Fprintln(l.w, TitleStyle.Render(fmt.Sprintf("Merging Files (%d)", total)))
}

func (l *Lines) Advance(r types.CopyResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.done++
	text := describe(r)
	if r.Renamed() {
		text = RenamedStyle.Render(text)
	}
	fmt.Fprintf(l.w, "%s %s\n", StatusStyle.Render(fmt.Sprintf("[%d/%d]", l.done, l.total)), text)
}

func (l *Lines) Finish(s types.Summary, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		fmt.Fprintln(l.w, ErrorStyle.Render(failureMessage(s, err)))
		return
	}
	fmt.Fprintln(l.w, SuccessStyle.Render(completionMessage(s)))
}
