package types

import (
	"path/filepath"
)

// CopyTask is one file selected for merging. Root is the configured source
// directory the file was discovered under; it anchors the relative layout
// that non-flat merges mirror into the destination.
type CopyTask struct {
	Dir  string `json:"dir"`
	Name string `json:"name"`
	Root string `json:"root"`
}

// Source returns the full path of the file to copy.
func (t CopyTask) Source() string {
	return filepath.Join(t.Dir, t.Name)
}

// RelDir returns the containing directory relative to Root ("." for files
// directly under Root).
func (t CopyTask) RelDir() (string, error) {
	return filepath.Rel(t.Root, t.Dir)
}

// CopyResult holds the outcome of a single copy task
type CopyResult struct {
	Task        CopyTask `json:"task"`
	Destination string   `json:"destination"`
	Copied      bool     `json:"copied"` // false in dry-run mode
}

// Renamed reports whether collision handling changed the file name.
func (r CopyResult) Renamed() bool {
	return filepath.Base(r.Destination) != r.Task.Name
}

// Summary describes a finished merge run.
type Summary struct {
	RunID   string       `json:"run_id"`
	Total   int          `json:"total"`
	Copied  int          `json:"copied"`
	DryRun  bool         `json:"dry_run"`
	Results []CopyResult `json:"results,omitempty"`
}
