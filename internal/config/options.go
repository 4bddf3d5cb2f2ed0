package config

import (
	"path/filepath"
	"strings"

	serr "mergemaster/internal/errors"
	"mergemaster/pkg/types"

	"github.com/gobwas/glob"
)

// Input is a merge request as supplied by a user. List fields may hold
// comma-separated items; NewOptions splits, trims and normalizes them.
type Input struct {
	Sources        []string
	Destination    string
	Types          []string
	Extensions     []string
	Exclude        []string
	SkipKeywords   []string
	IgnorePatterns []string
	Flatten        bool
	DryRun         bool
}

// Options is the validated, normalized merge configuration. It is immutable
// once built: accessors hand out copies.
type Options struct {
	sources      []string
	destination  string
	types        []string
	extensions   []string
	exclude      []string
	skipKeywords []string
	ignore       []string
	flatten      bool
	dryRun       bool
}

// NewOptions validates in against the category table and returns the
// normalized Options. Missing sources or destination, unknown categories and
// malformed ignore globs are reported as configuration errors.
func NewOptions(in Input, table types.CategoryTable) (Options, error) {
	var opts Options

	for _, src := range SplitList(in.Sources) {
		src = filepath.Clean(src)
		if !contains(opts.sources, src) {
			opts.sources = append(opts.sources, src)
		}
	}
	if len(opts.sources) == 0 {
		return Options{}, serr.NewConfigError("at least one source directory is required", "sources", serr.InvalidConfig, nil)
	}

	dest := strings.TrimSpace(in.Destination)
	if dest == "" {
		return Options{}, serr.NewConfigError("a destination directory is required", "destination", serr.InvalidConfig, nil)
	}
	opts.destination = filepath.Clean(dest)

	for _, name := range SplitList(in.Types) {
		name = strings.ToLower(name)
		if !table.Has(name) {
			return Options{}, serr.NewConfigError("unknown type category", name, serr.InvalidConfig, nil)
		}
		if !contains(opts.types, name) {
			opts.types = append(opts.types, name)
		}
	}

	opts.extensions = NormalizeExtensions(in.Extensions)
	opts.exclude = NormalizeExtensions(in.Exclude)

	for _, kw := range SplitList(in.SkipKeywords) {
		kw = strings.ToLower(kw)
		if !contains(opts.skipKeywords, kw) {
			opts.skipKeywords = append(opts.skipKeywords, kw)
		}
	}

	for _, pattern := range SplitList(in.IgnorePatterns) {
		if _, err := glob.Compile(pattern); err != nil {
			return Options{}, serr.NewConfigError("invalid ignore pattern", pattern, serr.InvalidConfig, err)
		}
		opts.ignore = append(opts.ignore, pattern)
	}

	opts.flatten = in.Flatten
	opts.dryRun = in.DryRun
	return opts, nil
}

func (o Options) Sources() []string        { return clone(o.sources) }
func (o Options) Destination() string      { return o.destination }
func (o Options) Types() []string          { return clone(o.types) }
func (o Options) Extensions() []string     { return clone(o.extensions) }
func (o Options) Exclude() []string        { return clone(o.exclude) }
func (o Options) SkipKeywords() []string   { return clone(o.skipKeywords) }
func (o Options) IgnorePatterns() []string { return clone(o.ignore) }
func (o Options) Flatten() bool            { return o.flatten }
func (o Options) DryRun() bool             { return o.dryRun }

// WithDryRun returns a copy of o with dry-run mode set.
func (o Options) WithDryRun(dryRun bool) Options {
	o.dryRun = dryRun
	return o
}

// SplitList splits every item on commas and drops blanks.
func SplitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// NormalizeExtension lowercases ext and ensures a leading dot. A lone "."
// stands for "no extension" and normalizes to the empty string.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// NormalizeExtensions normalizes and de-duplicates a list of extensions.
func NormalizeExtensions(exts []string) []string {
	var out []string
	for _, ext := range SplitList(exts) {
		ext = NormalizeExtension(ext)
		if !contains(out, ext) {
			out = append(out, ext)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func clone(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
