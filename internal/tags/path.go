package tags

import (
	"path/filepath"
	"strconv"
	"strings"
)

// PathInfo exposes the components of one path. It backs the source and target
// providers.
//
//	absolute, full, ""  /media/raw/clip01.mov
//	name                clip01.mov
//	stem, basename      clip01
//	suffix              .mov
//	ext                 mov
//	parent              /media/raw
//	parent_name         raw
//	parent_N            N-th ancestor, parent_1 == parent
//	parents_N           last N parent names, e.g. parents_2 == media/raw
//	anchor              filesystem root or volume
type PathInfo struct {
	path string
}

// NewPathInfo returns a provider over path. The path is cleaned and made
// absolute when possible.
func NewPathInfo(path string) PathInfo {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return PathInfo{path: filepath.Clean(path)}
}

func (p PathInfo) Resolve(param string) (string, bool) {
	param = strings.ToLower(strings.TrimSpace(param))
	base := filepath.Base(p.path)
	suffix := filepath.Ext(base)

	switch param {
	case "", "absolute", "full", "path":
		return p.path, true
	case "name":
		return base, true
	case "stem", "basename":
		return strings.TrimSuffix(base, suffix), true
	case "suffix":
		return suffix, true
	case "ext":
		return strings.TrimPrefix(suffix, "."), true
	case "parent":
		return filepath.Dir(p.path), true
	case "parent_name":
		return filepath.Base(filepath.Dir(p.path)), true
	case "anchor":
		return anchor(p.path), true
	}

	if n, ok := levelParam(param, "parent_"); ok {
		dir := p.path
		for range n {
			up := filepath.Dir(dir)
			if up == dir {
				break
			}
			dir = up
		}
		return dir, true
	}
	if n, ok := levelParam(param, "parents_"); ok {
		return filepath.Join(ParentNames(p.path, n)...), true
	}
	return "", false
}

// ParentNames returns up to n directory names directly above path, outermost
// first. /proj/a/b/clip.mov with n=2 yields [a b].
func ParentNames(path string, n int) []string {
	if n <= 0 {
		return nil
	}
	var names []string
	dir := filepath.Dir(filepath.Clean(path))
	for len(names) < n {
		name := filepath.Base(dir)
		parent := filepath.Dir(dir)
		if parent == dir || name == string(filepath.Separator) || name == "." {
			break
		}
		names = append(names, name)
		dir = parent
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}

func levelParam(param, prefix string) (int, bool) {
	if !strings.HasPrefix(param, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(param, prefix))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func anchor(path string) string {
	if vol := filepath.VolumeName(path); vol != "" {
		return vol + string(filepath.Separator)
	}
	if filepath.IsAbs(path) {
		return string(filepath.Separator)
	}
	return ""
}
