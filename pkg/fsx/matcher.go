package fsx

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/gobwas/glob"
)

// Patterns is a compiled set of glob patterns using '/' as the separator, so `*` stays
// within one path element and `**` crosses elements.
type Patterns struct {
	raw      []string
	matchers []glob.Glob
}

// CompilePatterns compiles the given glob patterns. An empty list yields a set that
// matches nothing.
func CompilePatterns(patterns []string) (*Patterns, error) {
	p := &Patterns{raw: patterns}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("failed to compile glob pattern '%s': %w", pattern, err)
		}
		p.matchers = append(p.matchers, g)
	}

	return p, nil
}

// Match reports whether the slash separated relative path, or its last element, matches
// any pattern in the set.
func (p *Patterns) Match(rel string) bool {
	if p == nil {
		return false
	}

	rel = filepath.ToSlash(rel)
	base := path.Base(rel)
	for _, m := range p.matchers {
		if m.Match(rel) || m.Match(base) {
			return true
		}
	}

	return false
}

func (p *Patterns) String() string {
	if p == nil {
		return "[]"
	}
	return fmt.Sprintf("%v", p.raw)
}

// MatchFilePatterns walks dir and returns the regular files whose path relative to dir
// matches any of the patterns.
func MatchFilePatterns(dir string, patterns []string, batchSize int) ([]string, error) {
	compiled, err := CompilePatterns(patterns)
	if err != nil {
		return nil, err
	}

	var matches []string
	err = NewWalker(batchSize).Start(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}

			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}

		if compiled.Match(rel) {
			matches = append(matches, p)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking directory '%s': %w", dir, err)
	}

	return matches, nil
}
