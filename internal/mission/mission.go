package mission

import (
	"path/filepath"
	"strings"

	"mediakiller/internal/preset"
)

// Key identifies a job: two missions with the same source and preset id are
// the same job.
type Key struct {
	Source   string
	PresetID string
}

func (k Key) String() string { return k.PresetID + ":" + k.Source }

// Mission is one fully resolved (preset, source) job. Missions are built by a
// Builder and never modified afterwards; the argument groups they hold must be
// treated as read-only.
type Mission struct {
	Preset             *preset.Preset
	Source             string
	StandardTarget     string
	Overwrite          bool
	HardwareAccelerate string
	General            ArgumentGroup
	Inputs             []ArgumentGroup
	Outputs            []ArgumentGroup
}

// Key returns the mission's identity.
func (m Mission) Key() Key {
	id := ""
	if m.Preset != nil {
		id = m.Preset.ID
	}
	return Key{Source: filepath.Clean(m.Source), PresetID: id}
}

// Equal reports whether both missions describe the same job.
func (m Mission) Equal(other Mission) bool { return m.Key() == other.Key() }

// Name is the source basename.
func (m Mission) Name() string { return filepath.Base(m.Source) }

// PresetID returns the id of the preset the mission was built from.
func (m Mission) PresetID() string { return m.Key().PresetID }

// Executable is the encoder binary named by the preset, or "ffmpeg".
func (m Mission) Executable() string {
	if m.Preset != nil && strings.TrimSpace(m.Preset.Executable) != "" {
		return m.Preset.Executable
	}
	return "ffmpeg"
}

// Arguments builds the encoder argument vector: general options, the
// overwrite switch, the hardware acceleration flag, every input as
// "-i filename options..." and every output as "options... filename".
func (m Mission) Arguments() []string {
	args := m.General.Tokens()
	if m.Overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}
	if hw := strings.TrimSpace(m.HardwareAccelerate); hwaccelEnabled(hw) {
		args = append(args, "-hwaccel", hw)
	}
	for _, in := range m.Inputs {
		args = append(args, "-i", in.Filename)
		args = append(args, in.Tokens()...)
	}
	for _, out := range m.Outputs {
		args = append(args, out.Tokens()...)
		args = append(args, out.Filename)
	}
	return args
}

// CommandLine is the executable followed by Arguments.
func (m Mission) CommandLine() []string {
	return append([]string{m.Executable()}, m.Arguments()...)
}

// InputFiles lists the declared input filenames in order.
func (m Mission) InputFiles() []string {
	return filenames(m.Inputs)
}

// OutputFiles lists the declared output filenames in order.
func (m Mission) OutputFiles() []string {
	return filenames(m.Outputs)
}

func filenames(groups []ArgumentGroup) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Filename)
	}
	return out
}

func hwaccelEnabled(v string) bool {
	switch strings.ToLower(v) {
	case "", "none", "off", "false", "no":
		return false
	}
	return true
}
