package expand

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mediakiller/internal/logging"
	"mediakiller/internal/preset"
	"mediakiller/internal/projectfile"
	"mediakiller/internal/services"
)

// systemEntries are skipped during directory walks in addition to dot files.
var systemEntries = map[string]struct{}{
	"$recycle.bin":              {},
	"system volume information": {},
	"@eadir":                    {},
	"lost+found":                {},
	"thumbs.db":                 {},
	"desktop.ini":               {},
}

// Options configures an Expander.
type Options struct {
	// Suffixes lists the accepted media suffixes. Required.
	Suffixes preset.SuffixSet
	// Chain recognizes project files. Nil uses projectfile.DefaultChain.
	Chain *projectfile.Chain
	// CancelCheck is polled between raw inputs; returning true stops the
	// expansion with services.ErrCanceled.
	CancelCheck func() bool
	Logger      *slog.Logger
}

// Expander turns raw inputs (files, folders, project files) into the list of
// media files to process.
type Expander struct {
	suffixes    preset.SuffixSet
	chain       *projectfile.Chain
	cancelCheck func() bool
	logger      *slog.Logger
}

// New returns an Expander.
func New(opts Options) *Expander {
	chain := opts.Chain
	if chain == nil {
		chain = projectfile.DefaultChain()
	}
	return &Expander{
		suffixes:    opts.Suffixes,
		chain:       chain,
		cancelCheck: opts.CancelCheck,
		logger:      logging.NewComponentLogger(opts.Logger, "expand"),
	}
}

// Expand resolves raws into absolute media paths. No path is returned twice,
// even when different inputs lead to the same file. On cancellation the paths
// found so far are returned together with the error.
func (e *Expander) Expand(ctx context.Context, raws []string) ([]string, error) {
	run := &expansion{Expander: e, seen: make(map[string]struct{})}

	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return run.out, err
		}
		if e.cancelCheck != nil && e.cancelCheck() {
			return run.out, services.Wrap(services.ErrCanceled, "expand", "", "stop requested", nil)
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		abs, err := filepath.Abs(raw)
		if err != nil {
			e.logger.Warn("input skipped", logging.String("input", raw), logging.Error(err))
			continue
		}

		if match, ok := e.chain.Probe(abs); ok {
			run.expandProject(abs, match)
			continue
		}
		run.walk(abs, true)
	}
	return run.out, nil
}

// expansion carries the state of one Expand call.
type expansion struct {
	*Expander
	seen    map[string]struct{}
	visited map[string]struct{}
	out     []string
}

func (x *expansion) expandProject(path string, match projectfile.Match) {
	base := filepath.Dir(path)
	refs, added := 0, len(x.out)
	for ref := range match.Refs {
		refs++
		if !filepath.IsAbs(ref) {
			ref = filepath.Join(base, ref)
		}
		x.walk(filepath.Clean(ref), true)
	}
	x.logger.Info("project file expanded",
		logging.String("path", path),
		logging.String("format", match.Prober),
		logging.Int("references", refs),
		logging.Int("accepted", len(x.out)-added),
		logging.String(logging.FieldEventType, "project_expanded"),
	)
}

// walk accepts path when it is a media file, or descends into it when it is a
// directory. Symlinks are followed; directories already visited in this call
// are not entered again.
func (x *expansion) walk(path string, explicit bool) {
	info, err := os.Stat(path)
	if err != nil {
		if explicit {
			level := slog.LevelWarn
			if !errors.Is(err, fs.ErrNotExist) {
				level = slog.LevelError
			}
			x.logger.Log(context.Background(), level, "source not found; skipped",
				logging.String(logging.FieldSource, path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "source_missing"),
			)
		}
		return
	}

	if info.Mode().IsRegular() {
		x.accept(path)
		return
	}
	if !info.IsDir() {
		return
	}

	canonical := path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		canonical = resolved
	}
	if x.visited == nil {
		x.visited = make(map[string]struct{})
	}
	if _, ok := x.visited[canonical]; ok {
		return
	}
	x.visited[canonical] = struct{}{}

	entries, err := os.ReadDir(path)
	if err != nil {
		x.logger.Warn("directory unreadable; skipped",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "directory_unreadable"),
		)
		return
	}
	for _, entry := range entries {
		if skipEntry(entry.Name()) {
			continue
		}
		x.walk(filepath.Join(path, entry.Name()), false)
	}
}

func (x *expansion) accept(path string) {
	if !x.suffixes.Contains(filepath.Ext(path)) {
		x.logger.Debug("suffix not accepted", logging.String(logging.FieldSource, path))
		return
	}
	key := path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		key = resolved
	}
	if _, dup := x.seen[key]; dup {
		return
	}
	x.seen[key] = struct{}{}
	x.out = append(x.out, path)
}

func skipEntry(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ok := systemEntries[strings.ToLower(name)]
	return ok
}
