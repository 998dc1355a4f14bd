package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultPatterns selects every .jpg/.jpeg file.
var DefaultPatterns = []string{"*.jpg", "*.jpeg"}

// Filter selects candidate files by base name. Matching ignores case, so
// "front.jpg" also selects FRONT.JPG.
type Filter struct {
	patterns []string
	globs    []glob.Glob
}

func NewFilter(patterns []string) (*Filter, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	f := &Filter{}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, p)
		f.globs = append(f.globs, g)
	}
	if len(f.globs) == 0 {
		return nil, fmt.Errorf("no usable patterns in %q", patterns)
	}
	return f, nil
}

// Match reports whether the base name of path matches any pattern.
func (f *Filter) Match(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, g := range f.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (f *Filter) Patterns() []string {
	return append([]string(nil), f.patterns...)
}
