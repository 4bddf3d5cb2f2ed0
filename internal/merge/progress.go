package merge

import "mergemaster/pkg/types"

// Progress receives the events of a merge run. Start is called once with
// the number of collected tasks, Advance once per finished task, and Finish
// once at the end with the summary and the error that stopped the run, if
// any.
type Progress interface {
	Start(total int)
	Advance(result types.CopyResult)
	Finish(summary types.Summary, err error)
}

// NopProgress discards all progress events.
type NopProgress struct{}

func (NopProgress) Start(int)                   {}
func (NopProgress) Advance(types.CopyResult)    {}
func (NopProgress) Finish(types.Summary, error) {}
