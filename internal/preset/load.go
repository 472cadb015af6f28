package preset

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"mediakiller/internal/services"
)

//go:embed example_preset.toml
var examplePreset []byte

// DefaultHardwareAccelerate is used when general.hardware_accelerate is absent.
const DefaultHardwareAccelerate = "auto"

type fileGroup struct {
	Filename string `toml:"filename"`
	Options  any    `toml:"options"`
}

type fileDocument struct {
	General struct {
		PresetID           string `toml:"preset_id"`
		Name               string `toml:"name"`
		Description        string `toml:"description"`
		Executable         string `toml:"executable"`
		FFmpeg             string `toml:"ffmpeg"`
		Overwrite          bool   `toml:"overwrite"`
		HardwareAccelerate any    `toml:"hardware_accelerate"`
		Options            any    `toml:"options"`
	} `toml:"general"`
	Source struct {
		IgnoreDefaultSuffixes bool `toml:"ignore_default_suffixes"`
		SuffixIncludes        any  `toml:"suffix_includes"`
		SuffixExcludes        any  `toml:"suffix_excludes"`
	} `toml:"source"`
	Target struct {
		Suffix          string `toml:"suffix"`
		Folder          string `toml:"folder"`
		KeepParentLevel int    `toml:"keep_parent_level"`
	} `toml:"target"`
	Input  []fileGroup    `toml:"input"`
	Output []fileGroup    `toml:"output"`
	Custom map[string]any `toml:"custom"`
}

// Load reads and validates a preset file. Every failure wraps
// services.ErrConfiguration.
func Load(path string) (*Preset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "preset", "resolve", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "preset", "read", abs, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "preset", "parse", abs, err)
	}
	p.Path = abs
	return p, nil
}

// Parse decodes a preset document. The returned preset has no Path.
func Parse(data []byte) (*Preset, error) {
	var doc fileDocument
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("line %d column %d: %s", row, col, decodeErr.Error())
		}
		return nil, err
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	g := doc.General
	p := &Preset{
		ID:              strings.TrimSpace(g.PresetID),
		Name:            strings.TrimSpace(g.Name),
		Description:     strings.TrimSpace(g.Description),
		Executable:      firstNonEmpty(g.Executable, g.FFmpeg),
		Overwrite:       g.Overwrite,
		Options:         g.Options,
		TargetSuffix:    NormalizeSuffix(doc.Target.Suffix),
		TargetFolder:    strings.TrimSpace(doc.Target.Folder),
		KeepParentLevel: doc.Target.KeepParentLevel,
		Custom:          make(map[string]string, len(doc.Custom)),
		Raw:             raw,
	}

	hw, err := hardwareAccelerate(g.HardwareAccelerate)
	if err != nil {
		return nil, err
	}
	p.HardwareAccelerate = hw

	p.SourceSuffixes = sourceSuffixes(doc.Source.IgnoreDefaultSuffixes, doc.Source.SuffixIncludes, doc.Source.SuffixExcludes)

	for i, in := range doc.Input {
		group, err := toGroup("input", i, in)
		if err != nil {
			return nil, err
		}
		p.Inputs = append(p.Inputs, group)
	}
	for i, out := range doc.Output {
		group, err := toGroup("output", i, out)
		if err != nil {
			return nil, err
		}
		p.Outputs = append(p.Outputs, group)
	}
	for k, v := range doc.Custom {
		p.Custom[k] = fmt.Sprint(v)
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Preset) validate() error {
	if p.ID == "" {
		return errors.New("general.preset_id must be set")
	}
	if len(p.Inputs) == 0 {
		return errors.New("at least one [[input]] group is required")
	}
	if len(p.Outputs) == 0 {
		return errors.New("at least one [[output]] group is required")
	}
	if p.KeepParentLevel < 0 {
		return errors.New("target.keep_parent_level must be zero or positive")
	}
	if len(p.SourceSuffixes) == 0 {
		return errors.New("source suffix set is empty")
	}
	return nil
}

func toGroup(kind string, index int, g fileGroup) (Group, error) {
	name := strings.TrimSpace(g.Filename)
	if name == "" {
		return Group{}, fmt.Errorf("%s #%d: filename must be set", kind, index+1)
	}
	return Group{Filename: name, Options: g.Options}, nil
}

func hardwareAccelerate(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return DefaultHardwareAccelerate, nil
	case string:
		return strings.TrimSpace(val), nil
	case bool:
		if val {
			return DefaultHardwareAccelerate, nil
		}
		return "", nil
	default:
		return "", fmt.Errorf("general.hardware_accelerate: unsupported value %v", v)
	}
}

func sourceSuffixes(ignoreDefaults bool, includes, excludes any) SuffixSet {
	set := NewSuffixSet()
	if !ignoreDefaults {
		set = NewSuffixSet(DefaultSuffixes...)
	}
	for _, s := range stringList(includes) {
		if n := NormalizeSuffix(s); n != "" {
			set[n] = struct{}{}
		}
	}
	for _, s := range stringList(excludes) {
		delete(set, NormalizeSuffix(s))
	}
	return set
}

// stringList accepts "a b c" or ["a", "b"] as decoded from TOML.
func stringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return strings.Fields(val)
	case []any:
		var out []string
		for _, item := range val {
			out = append(out, stringList(item)...)
		}
		return out
	default:
		return strings.Fields(fmt.Sprint(val))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// WriteExample writes the commented example preset. An existing file is only
// replaced when force is set.
func WriteExample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to replace it)", path)
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preset directory: %w", err)
		}
	}
	if err := os.WriteFile(path, examplePreset, 0o644); err != nil {
		return fmt.Errorf("write example preset: %w", err)
	}
	return nil
}
