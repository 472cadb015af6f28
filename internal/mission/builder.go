package mission

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"mediakiller/internal/fileutil"
	"mediakiller/internal/preset"
	"mediakiller/internal/services"
	"mediakiller/internal/tags"
)

// Builder turns source paths into Missions for one preset. A Builder only
// reads its preset, so Build may be called from many goroutines at once.
type Builder struct {
	preset    *preset.Preset
	overwrite *bool
	workDir   string
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithOverwrite forces the overwrite flag regardless of the preset.
func WithOverwrite(overwrite bool) BuilderOption {
	return func(b *Builder) {
		b.overwrite = &overwrite
	}
}

// WithWorkDir sets the directory relative target folders resolve against
// when the preset was not loaded from a file.
func WithWorkDir(dir string) BuilderOption {
	return func(b *Builder) {
		b.workDir = dir
	}
}

// NewBuilder returns a Builder for p.
func NewBuilder(p *preset.Preset, opts ...BuilderOption) *Builder {
	b := &Builder{preset: p}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if b.workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			b.workDir = wd
		}
	}
	return b
}

// Preset returns the preset the builder was created with.
func (b *Builder) Preset() *preset.Preset { return b.preset }

// StandardTarget computes the default output path for source: the target
// folder, then the last keep_parent_level parent directory names of the
// source, then the source basename with the target suffix.
func (b *Builder) StandardTarget(source string) string {
	p := b.preset
	folder := strings.TrimSpace(p.TargetFolder)
	if folder == "" {
		folder = "."
	}
	if !filepath.IsAbs(folder) {
		base := p.Folder()
		if base == "" {
			base = b.workDir
		}
		folder = filepath.Join(base, folder)
	}

	parts := []string{folder}
	parts = append(parts, tags.ParentNames(source, p.KeepParentLevel)...)
	parts = append(parts, preset.ForceSuffix(filepath.Base(source), p.TargetSuffix))
	target := filepath.Join(parts...)
	if abs, err := filepath.Abs(target); err == nil {
		target = abs
	}
	return target
}

// Replacer returns the tag replacer bound to source and its standard target.
func (b *Builder) Replacer(source string) *tags.Replacer {
	return b.replacer(source, b.StandardTarget(source))
}

func (b *Builder) replacer(source, target string) *tags.Replacer {
	return tags.NewReplacer().
		Install("preset", presetProvider(b.preset)).
		Install("source", tags.NewPathInfo(source)).
		Install("target", tags.NewPathInfo(target)).
		Install("custom", tags.Func(b.preset.CustomValue))
}

// Build resolves every template of the preset against source.
func (b *Builder) Build(source string) (Mission, error) {
	p := b.preset
	if p == nil {
		return Mission{}, services.Wrap(services.ErrConfiguration, "mission", "build", "no preset", nil)
	}
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}
	source = filepath.Clean(source)
	target := b.StandardTarget(source)
	r := b.replacer(source, target)

	overwrite := p.Overwrite
	if b.overwrite != nil {
		overwrite = *b.overwrite
	}

	m := Mission{
		Preset:             p,
		Source:             source,
		StandardTarget:     target,
		Overwrite:          overwrite,
		HardwareAccelerate: r.ReadValue(p.HardwareAccelerate),
		General:            NewArgumentGroup("", r.ReadList(p.Options)...),
	}

	var err error
	if m.Inputs, err = resolveGroups(r, "input", p.Inputs); err != nil {
		return Mission{}, err
	}
	if m.Outputs, err = resolveGroups(r, "output", p.Outputs); err != nil {
		return Mission{}, err
	}
	return m, nil
}

func resolveGroups(r *tags.Replacer, kind string, groups []preset.Group) ([]ArgumentGroup, error) {
	out := make([]ArgumentGroup, 0, len(groups))
	for i, g := range groups {
		name := strings.TrimSpace(r.ReadValue(g.Filename))
		if name == "" {
			return nil, services.Wrap(services.ErrConfiguration, "mission", "build",
				fmt.Sprintf("%s #%d resolves to an empty filename", kind, i+1), nil)
		}
		if fileutil.IsLocalPath(name) {
			name = filepath.Clean(name)
		}
		out = append(out, NewArgumentGroup(name, r.ReadList(g.Options)...))
	}
	return out, nil
}

func presetProvider(p *preset.Preset) tags.Provider {
	return tags.Func(func(param string) (string, bool) {
		switch strings.ToLower(strings.TrimSpace(param)) {
		case "", "id":
			return p.ID, true
		case "name":
			return p.Label(), true
		case "description":
			return p.Description, true
		case "folder":
			return p.Folder(), true
		case "folder_name":
			if p.Folder() == "" {
				return "", true
			}
			return filepath.Base(p.Folder()), true
		case "executable":
			return p.Executable, true
		case "target_suffix":
			return p.TargetSuffix, true
		case "target_folder":
			return p.TargetFolder, true
		case "input_count":
			return strconv.Itoa(len(p.Inputs)), true
		case "output_count":
			return strconv.Itoa(len(p.Outputs)), true
		}
		return "", false
	})
}

// Batch pairs a builder with the sources expanded for its preset.
type Batch struct {
	Builder *Builder
	Sources []string
}

// BuildAll builds every batch concurrently while holding one limiter slot per
// build. The result keeps batch order and source order. The first error
// stops the remaining builds.
func BuildAll(ctx context.Context, limiter *semaphore.Weighted, batches ...Batch) ([]Mission, error) {
	total := 0
	for _, batch := range batches {
		total += len(batch.Sources)
	}
	missions := make([]Mission, total)

	g, gctx := errgroup.WithContext(ctx)
	slot := 0
	for _, batch := range batches {
		for _, source := range batch.Sources {
			i, b, src := slot, batch.Builder, source
			slot++
			if err := limiter.Acquire(gctx, 1); err != nil {
				break
			}
			g.Go(func() error {
				defer limiter.Release(1)
				m, err := b.Build(src)
				if err != nil {
					return err
				}
				missions[i] = m
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return missions, nil
}
