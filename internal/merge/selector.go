package merge

import (
	"path/filepath"
	"strings"

	"mergemaster/internal/config"
	serr "mergemaster/internal/errors"
	"mergemaster/pkg/types"

	"github.com/gobwas/glob"
)

// Selector decides which files are copied and which directories are pruned.
// It holds no mutable state after construction.
type Selector struct {
	exclude      map[string]struct{}
	extensions   map[string]struct{} // nil when no explicit extension filter
	categories   map[string]struct{} // nil when no type category filter
	ignore       []glob.Glob
	skipKeywords []string
}

// NewSelector builds a Selector from opts, resolving type categories
// against table.
func NewSelector(opts config.Options, table types.CategoryTable) (*Selector, error) {
	s := &Selector{
		exclude:      toSet(opts.Exclude()),
		skipKeywords: opts.SkipKeywords(),
	}

	if exts := opts.Extensions(); len(exts) > 0 {
		s.extensions = toSet(exts)
	}
	if names := opts.Types(); len(names) > 0 {
		for _, name := range names {
			if !table.Has(name) {
				return nil, serr.NewConfigError("unknown type category", name, serr.InvalidConfig, nil)
			}
		}
		s.categories = table.ExtensionSet(names...)
	}

	for _, pattern := range opts.IgnorePatterns() {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, serr.NewConfigError("invalid ignore pattern", pattern, serr.InvalidConfig, err)
		}
		s.ignore = append(s.ignore, g)
	}

	return s, nil
}

// ShouldCopy reports whether a file with the given base name is selected.
// Exclusion wins over everything; an explicit extension list takes priority
// over type categories; with neither configured every file is accepted.
func (s *Selector) ShouldCopy(name string) bool {
	ext := Extension(name)

	if _, excluded := s.exclude[ext]; excluded {
		return false
	}
	for _, g := range s.ignore {
		if g.Match(name) {
			return false
		}
	}

	if s.extensions != nil {
		_, ok := s.extensions[ext]
		return ok
	}
	if s.categories != nil {
		_, ok := s.categories[ext]
		return ok
	}
	return true
}

// SkipDir reports whether a directory with the given base name is pruned,
// i.e. its name contains a skip keyword, ignoring case.
func (s *Selector) SkipDir(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range s.skipKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Extension returns the lowercase extension of a file name including the
// dot, or "" when there is none. Leading dots do not start an extension, so
// ".bashrc" has none while ".config.json" has ".json".
func Extension(name string) string {
	_, ext := splitName(name)
	return strings.ToLower(ext)
}

// splitName splits a base name into stem and extension, preserving case.
func splitName(name string) (stem, ext string) {
	trimmed := strings.TrimLeft(name, ".")
	ext = filepath.Ext(trimmed)
	return name[:len(name)-len(ext)], ext
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
