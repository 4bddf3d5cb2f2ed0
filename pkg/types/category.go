package types

import (
	"sort"
	"strings"
)

// CategoryTable maps a type category name (e.g. "image") to the lowercase,
// dot-prefixed extensions that belong to it.
type CategoryTable map[string][]string

// DefaultCategories returns a fresh copy of the built-in category table.
// Callers may extend the returned table without affecting other users.
func DefaultCategories() CategoryTable {
	return CategoryTable{
		"image":    {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp"},
		"video":    {".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm"},
		"audio":    {".mp3", ".wav", ".aac", ".ogg", ".flac", ".m4a"},
		"document": {".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt"},
		"archive":  {".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"},
		"code":     {".py", ".js", ".html", ".css", ".java", ".cpp", ".c", ".cs", ".php", ".rb", ".go", ".ts"},
		"ebook":    {".epub", ".mobi", ".azw3", ".fb2"},
	}
}

// Has reports whether the table defines the named category.
func (t CategoryTable) Has(name string) bool {
	_, ok := t[strings.ToLower(name)]
	return ok
}

// Names returns the category names in sorted order.
func (t CategoryTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtensionSet returns the union of the extensions of the given categories.
// Unknown names contribute nothing.
func (t CategoryTable) ExtensionSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, name := range names {
		for _, ext := range t[strings.ToLower(name)] {
			set[ext] = struct{}{}
		}
	}
	return set
}

// Merge returns a new table holding t overlaid with extra. Entries in extra
// replace same-named entries in t.
func (t CategoryTable) Merge(extra CategoryTable) CategoryTable {
	out := make(CategoryTable, len(t)+len(extra))
	for name, exts := range t {
		out[name] = append([]string(nil), exts...)
	}
	for name, exts := range extra {
		out[strings.ToLower(name)] = append([]string(nil), exts...)
	}
	return out
}
