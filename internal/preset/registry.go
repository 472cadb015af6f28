package preset

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mediakiller/internal/logging"
)

// Conflict records a preset that was ignored because an earlier file already
// claimed its id.
type Conflict struct {
	ID      string
	Kept    string
	Ignored string
}

// Registry holds presets in load order keyed by id. The first preset loaded
// for an id wins.
type Registry struct {
	order     []*Preset
	byID      map[string]*Preset
	conflicts []Conflict
	logger    *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{byID: make(map[string]*Preset), logger: logging.NewComponentLogger(logger, "preset")}
}

// Add registers p. It returns false when the id was already taken; the
// conflict is logged and kept for reporting.
func (r *Registry) Add(p *Preset) bool {
	if existing, ok := r.byID[p.ID]; ok {
		conflict := Conflict{ID: p.ID, Kept: existing.Path, Ignored: p.Path}
		r.conflicts = append(r.conflicts, conflict)
		logging.WarnWithContext(r.logger, "duplicate preset id; later file ignored", "preset_conflict",
			logging.String(logging.FieldPreset, p.ID),
			logging.String("kept", conflict.Kept),
			logging.String("ignored", conflict.Ignored),
			logging.String(logging.FieldErrorHint, "give each preset file a unique general.preset_id"),
			logging.String(logging.FieldImpact, "missions use the first preset with this id"),
		)
		return false
	}
	r.byID[p.ID] = p
	r.order = append(r.order, p)
	return true
}

// LoadFiles loads every path in order. The first load error aborts.
func (r *Registry) LoadFiles(paths ...string) error {
	for _, path := range paths {
		p, err := Load(path)
		if err != nil {
			return err
		}
		r.Add(p)
		r.logger.Debug("preset loaded",
			logging.String(logging.FieldPreset, p.ID),
			logging.String("path", p.Path),
			logging.Int("inputs", len(p.Inputs)),
			logging.Int("outputs", len(p.Outputs)),
		)
	}
	return nil
}

// Presets returns the registered presets in load order.
func (r *Registry) Presets() []*Preset {
	return append([]*Preset(nil), r.order...)
}

// Get returns the preset registered under id.
func (r *Registry) Get(id string) (*Preset, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Conflicts returns every ignored duplicate.
func (r *Registry) Conflicts() []Conflict {
	return append([]Conflict(nil), r.conflicts...)
}

func (r *Registry) Len() int { return len(r.order) }

// IsPresetArg reports whether a command-line argument names a preset: either
// a .toml path, or a suffix-less name whose .toml sibling exists.
func IsPresetArg(arg string) bool {
	suffix := strings.ToLower(filepath.Ext(arg))
	if suffix == ".toml" {
		return true
	}
	if suffix != "" {
		return false
	}
	info, err := os.Stat(arg + ".toml")
	return err == nil && !info.IsDir()
}

// Locate resolves a preset argument to a file path. Bare names that do not
// exist relative to the working directory are looked up in searchDirs.
func Locate(arg string, searchDirs []string) (string, bool) {
	candidates := []string{arg}
	if filepath.Ext(arg) == "" {
		candidates = []string{arg + ".toml", arg}
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	if filepath.IsAbs(arg) || strings.ContainsRune(arg, filepath.Separator) {
		return "", false
	}
	for _, dir := range searchDirs {
		for _, c := range candidates {
			path := filepath.Join(dir, c)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}
