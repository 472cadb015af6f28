package expand_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"mediakiller/internal/expand"
	"mediakiller/internal/preset"
	"mediakiller/internal/services"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newExpander(opts expand.Options) *expand.Expander {
	if opts.Suffixes == nil {
		opts.Suffixes = preset.NewSuffixSet(".mov", ".mxf")
	}
	return expand.New(opts)
}

func TestExpandDirectoryFiltersAndSkipsHidden(t *testing.T) {
	root := t.TempDir()
	a := touch(t, filepath.Join(root, "day1", "a.mov"))
	b := touch(t, filepath.Join(root, "day1", "b.MXF"))
	touch(t, filepath.Join(root, "day1", "notes.pdf"))
	touch(t, filepath.Join(root, ".cache", "hidden.mov"))
	touch(t, filepath.Join(root, "day1", ".c.mov"))
	touch(t, filepath.Join(root, "$RECYCLE.BIN", "d.mov"))

	got, err := newExpander(expand.Options{}).Expand(context.Background(), []string{root})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if want := []string{a, b}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expand = %q, want %q", got, want)
	}
}

func TestExpandNeverYieldsTwice(t *testing.T) {
	root := t.TempDir()
	a := touch(t, filepath.Join(root, "media", "a.mov"))
	link := filepath.Join(root, "alias.mov")
	if err := os.Symlink(a, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	loop := filepath.Join(root, "media", "loop")
	if err := os.Symlink(filepath.Join(root, "media"), loop); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	got, err := newExpander(expand.Options{}).Expand(context.Background(),
		[]string{a, filepath.Join(root, "media"), link, a})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if want := []string{a}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expand = %q, want %q", got, want)
	}
}

func TestExpandExplicitFileStillFiltered(t *testing.T) {
	root := t.TempDir()
	doc := touch(t, filepath.Join(root, "report.pdf"))
	got, err := newExpander(expand.Options{}).Expand(context.Background(), []string{doc, filepath.Join(root, "missing.mov")})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected nothing, got %q", got)
	}
}

func TestExpandProjectFileResolvesRelativeRefs(t *testing.T) {
	root := t.TempDir()
	one := touch(t, filepath.Join(root, "edit", "footage1.mov"))
	two := touch(t, filepath.Join(root, "edit", "footage2.mov"))
	list := filepath.Join(root, "edit", "cut.edl")
	if err := os.WriteFile(list, []byte("CLIP NAME: footage1.mov\nCLIP NAME: footage2.mov\nCLIP NAME: gone.mov\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := newExpander(expand.Options{}).Expand(context.Background(), []string{list, one})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if want := []string{one, two}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expand = %q, want %q", got, want)
	}
}

func TestExpandProjectRefToDirectory(t *testing.T) {
	root := t.TempDir()
	clip := touch(t, filepath.Join(root, "cards", "A001", "clip.mxf"))
	list := filepath.Join(root, "sources.txt")
	if err := os.WriteFile(list, []byte(filepath.Join(root, "cards")+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := newExpander(expand.Options{}).Expand(context.Background(), []string{list})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if want := []string{clip}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expand = %q, want %q", got, want)
	}
}

func TestExpandStopsOnCancelCheck(t *testing.T) {
	root := t.TempDir()
	a := touch(t, filepath.Join(root, "a.mov"))
	b := touch(t, filepath.Join(root, "b.mov"))

	calls := 0
	e := newExpander(expand.Options{CancelCheck: func() bool {
		calls++
		return calls > 1
	}})
	got, err := e.Expand(context.Background(), []string{a, b})
	if !errors.Is(err, services.ErrCanceled) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if want := []string{a}; !reflect.DeepEqual(got, want) {
		t.Fatalf("partial result = %q, want %q", got, want)
	}
}

func TestExpandHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newExpander(expand.Options{}).Expand(ctx, []string{t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
