// Package lookup finds windows by name or pattern, backing sam's X/Y
// file-scoped iteration over a host's open window set.
package lookup

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Named is the minimal shape a window must satisfy to participate in a
// lookup: its display name, normally a file path.
type Named interface {
	Name() string
}

// PathMatcher resolves a possibly-relative pattern against a working
// directory before comparing it to a window's name.
type PathMatcher struct {
	workDir string
}

// NewPathMatcher returns a PathMatcher rooted at workDir.
func NewPathMatcher(workDir string) *PathMatcher {
	return &PathMatcher{workDir: workDir}
}

// WorkDir returns the matcher's working directory.
func (pm *PathMatcher) WorkDir() string { return pm.workDir }

// Matches reports whether pattern, resolved against workDir if relative,
// equals target once both are normalized.
func (pm *PathMatcher) Matches(pattern, target string) bool {
	pattern = NormalizePath(pattern)
	target = NormalizePath(target)
	if !filepath.IsAbs(pattern) && pm.workDir != "" {
		pattern = filepath.Join(pm.workDir, pattern)
	}
	return pattern == target
}

// NormalizePath strips a trailing path separator so "/a/b/" and "/a/b"
// compare equal.
func NormalizePath(path string) string {
	return strings.TrimRight(path, `\/`)
}

// FindByName returns the first window in windows whose Name equals name
// under pm, or the zero value and false.
func FindByName[W Named](windows []W, name string, pm *PathMatcher) (W, bool) {
	var zero W
	for _, w := range windows {
		if pm.Matches(name, w.Name()) {
			return w, true
		}
	}
	return zero, false
}

// FindByPattern returns every window in windows whose Name matches re,
// in slice order — the collection X/Y iterates over.
func FindByPattern[W Named](windows []W, re *regexp.Regexp) []W {
	var out []W
	for _, w := range windows {
		if re.MatchString(w.Name()) {
			out = append(out, w)
		}
	}
	return out
}

// Complement returns every window in all not present in matched, by
// Name identity — the set Y iterates over.
func Complement[W Named](all, matched []W) []W {
	skip := make(map[string]bool, len(matched))
	for _, w := range matched {
		skip[w.Name()] = true
	}
	var out []W
	for _, w := range all {
		if !skip[w.Name()] {
			out = append(out, w)
		}
	}
	return out
}

// Finder bundles a window slice with a PathMatcher for repeated lookups
// against the same working directory.
type Finder[W Named] struct {
	windows []W
	pm      *PathMatcher
}

// NewFinder returns a Finder over windows rooted at workDir.
func NewFinder[W Named](windows []W, workDir string) *Finder[W] {
	return &Finder[W]{windows: windows, pm: NewPathMatcher(workDir)}
}

// ByName looks up a window by name.
func (f *Finder[W]) ByName(name string) (W, bool) {
	return FindByName(f.windows, name, f.pm)
}

// ByPattern returns every window matching re.
func (f *Finder[W]) ByPattern(re *regexp.Regexp) []W {
	return FindByPattern(f.windows, re)
}

// All returns every window the Finder was built with.
func (f *Finder[W]) All() []W {
	return f.windows
}
