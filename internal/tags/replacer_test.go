package tags_test

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"mediakiller/internal/tags"
)

func sourceReplacer() *tags.Replacer {
	return tags.NewReplacer().
		Install("source", tags.NewPathInfo("/a/b/clip01.mov")).
		Install("target", tags.NewPathInfo("/out/b/clip01.mp4")).
		Install("codec", tags.Static("libx264"))
}

func TestReplaceSourceParts(t *testing.T) {
	r := sourceReplacer()
	cases := map[string]string{
		"${source:stem}":        "clip01",
		"${source:name}":        "clip01.mov",
		"${source:suffix}":      ".mov",
		"${source:ext}":         "mov",
		"${source:parent_name}": "b",
		"${source}":             filepath.Clean("/a/b/clip01.mov"),
		"${target:parent}":      filepath.Clean("/out/b"),
		"${source:parent_2}":    filepath.Clean("/a"),
		"${source:parents_2}":   filepath.Join("a", "b"),
		"${codec}":              "libx264",
		"${codec:anything}":     "libx264",
	}
	for in, want := range cases {
		if got := r.Replace(in); got != want {
			t.Fatalf("Replace(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParentLevelStopsAtRoot(t *testing.T) {
	r := sourceReplacer()
	root := filepath.Dir(filepath.Dir(filepath.Dir(filepath.Clean("/a/b/clip01.mov"))))
	for _, in := range []string{"${source:parent_3}", "${source:parent_9}", "${source:parent_2000000000}"} {
		if got := r.Replace(in); got != root {
			t.Fatalf("Replace(%q) = %q, want %q", in, got, root)
		}
	}
}

func TestReplaceLeavesUnknownTags(t *testing.T) {
	r := sourceReplacer()
	cases := []string{"${nope}", "${nope:param}", "${source:bogus}", "${source:parent_0}", "$source", "${}"}
	for _, in := range cases {
		if got := r.Replace(in); got != in {
			t.Fatalf("Replace(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestReplaceMixedText(t *testing.T) {
	r := sourceReplacer()
	got := r.Replace("${target:parent}/${source:stem}_${nope}.srt")
	want := filepath.Clean("/out/b") + "/clip01_${nope}.srt"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFuncProvider(t *testing.T) {
	custom := map[string]string{"crf": "23"}
	r := tags.NewReplacer().Install("custom", tags.Func(func(param string) (string, bool) {
		v, ok := custom[strings.ToLower(param)]
		return v, ok
	}))
	if got := r.Replace("-crf ${custom:CRF} ${custom:missing}"); got != "-crf 23 ${custom:missing}" {
		t.Fatalf("got %q", got)
	}
	r.Remove("custom")
	if _, ok := r.Provider("custom"); ok {
		t.Fatal("provider should be removed")
	}
	if got := r.Replace("${custom:crf}"); got != "${custom:crf}" {
		t.Fatalf("removed provider should leave tag, got %q", got)
	}
}

func TestReadListSplitsAfterSubstitution(t *testing.T) {
	r := tags.NewReplacer().Install("args", tags.Static("-c:v libx265  -crf 20"))
	got := r.ReadList([]any{"-hide_banner", "${args}", []any{"-preset slow", 42}})
	want := []string{"-hide_banner", "-c:v", "libx265", "-crf", "20", "-preset", "slow", "42"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadList = %q, want %q", got, want)
	}
	if got := r.ReadList(nil); len(got) != 0 {
		t.Fatalf("nil should produce no tokens, got %q", got)
	}
	if got := r.ReadValue(true); got != "true" {
		t.Fatalf("ReadValue(true) = %q", got)
	}
}

func TestParentNames(t *testing.T) {
	cases := []struct {
		path string
		n    int
		want []string
	}{
		{"/proj/raw/clipA.mov", 1, []string{"raw"}},
		{"/proj/raw/clipA.mov", 2, []string{"proj", "raw"}},
		{"/proj/raw/clipA.mov", 5, []string{"proj", "raw"}},
		{"/clipA.mov", 1, nil},
		{"/proj/raw/clipA.mov", 0, nil},
	}
	for _, tc := range cases {
		got := tags.ParentNames(tc.path, tc.n)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("ParentNames(%q, %d) = %v, want %v", tc.path, tc.n, got, tc.want)
		}
	}
}
