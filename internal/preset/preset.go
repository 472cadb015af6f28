package preset

import (
	"path/filepath"
	"slices"
	"strings"
)

// Group is one declared input or output: a filename template and its options.
// Options is a string or a (nested) list of strings as decoded from TOML.
type Group struct {
	Filename string
	Options  any
}

// Preset is a declarative transcoding recipe. It is never modified after
// Load returns it.
type Preset struct {
	ID                 string
	Name               string
	Description        string
	Path               string
	Executable         string
	Overwrite          bool
	HardwareAccelerate string
	Options            any
	SourceSuffixes     SuffixSet
	TargetSuffix       string
	TargetFolder       string
	KeepParentLevel    int
	Inputs             []Group
	Outputs            []Group
	Custom             map[string]string
	Raw                map[string]any
}

// Folder is the directory holding the preset file, or "" for presets built in
// code.
func (p *Preset) Folder() string {
	if p.Path == "" {
		return ""
	}
	return filepath.Dir(p.Path)
}

// Label is the display name, falling back to the id.
func (p *Preset) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Accepts reports whether path carries one of the preset's source suffixes.
func (p *Preset) Accepts(path string) bool {
	return p.SourceSuffixes.Contains(filepath.Ext(path))
}

// CustomValue looks up a custom key, exactly first and then case-insensitively.
func (p *Preset) CustomValue(key string) (string, bool) {
	if v, ok := p.Custom[key]; ok {
		return v, true
	}
	for k, v := range p.Custom {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// SuffixSet is a set of lowercase, dot-prefixed file suffixes.
type SuffixSet map[string]struct{}

// NewSuffixSet normalizes and collects suffixes.
func NewSuffixSet(suffixes ...string) SuffixSet {
	set := make(SuffixSet, len(suffixes))
	for _, s := range suffixes {
		if n := NormalizeSuffix(s); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func (s SuffixSet) Contains(suffix string) bool {
	_, ok := s[NormalizeSuffix(suffix)]
	return ok
}

// Sorted returns the suffixes in lexical order.
func (s SuffixSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// NormalizeSuffix lowercases and dot-prefixes a suffix; "MOV" becomes ".mov".
func NormalizeSuffix(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "." {
		return ""
	}
	if !strings.HasPrefix(s, ".") {
		s = "." + s
	}
	return s
}

// ForceSuffix replaces the suffix of path with suffix. An empty suffix keeps
// the original.
func ForceSuffix(path, suffix string) string {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return path
	}
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

// DefaultSuffixes are accepted as sources unless a preset sets
// source.ignore_default_suffixes.
var DefaultSuffixes = []string{
	".mov", ".mp4", ".mkv", ".avi", ".wmv", ".flv", ".webm", ".m4v", ".ts",
	".m2ts", ".m2t", ".mts", ".m2v", ".vob", ".3gp", ".3g2", ".f4v", ".ogv",
	".ogg", ".mpg", ".mpeg", ".mxf", ".asf", ".rm", ".rmvb", ".divx", ".xvid",
	".h264", ".h265", ".hevc", ".vp8", ".vp9", ".av1", ".avc", ".avchd",
	".flac", ".mp3", ".wav", ".m4a", ".aac", ".wma", ".alac", ".aiff", ".ape",
	".dsd", ".pcm", ".ac3", ".dts", ".eac3", ".mp2", ".mpa", ".opus", ".mka",
	".mxf_op1a",
}
