package mission

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Option is one flag of an ArgumentGroup with its optional value.
type Option struct {
	Flag     string
	Value    string
	HasValue bool
}

// ArgumentGroup is an optional filename plus an ordered set of encoder flags.
// Setting a flag again replaces its value but keeps its original position.
type ArgumentGroup struct {
	Filename string
	options  []Option
	index    map[string]int
}

// NewArgumentGroup parses tokens into a group with the given filename.
func NewArgumentGroup(filename string, tokens ...string) ArgumentGroup {
	g := ArgumentGroup{Filename: filename}
	g.AddTokens(tokens...)
	return g
}

// AddTokens parses a flat token list. A token starting with "-" followed by a
// non-digit is a flag; the next non-flag token becomes its value. Values that
// appear without a preceding flag are ignored.
func (g *ArgumentGroup) AddTokens(tokens ...string) {
	pending := ""
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if IsFlag(tok) {
			if pending != "" {
				g.SetFlag(pending)
			}
			pending = tok
			continue
		}
		if pending != "" {
			g.Set(pending, tok)
			pending = ""
		}
	}
	if pending != "" {
		g.SetFlag(pending)
	}
}

// Set stores flag with a value.
func (g *ArgumentGroup) Set(flag, value string) {
	g.put(Option{Flag: normalizeFlag(flag), Value: value, HasValue: true})
}

// SetFlag stores a flag that carries no value.
func (g *ArgumentGroup) SetFlag(flag string) {
	g.put(Option{Flag: normalizeFlag(flag)})
}

func (g *ArgumentGroup) put(opt Option) {
	if g.index == nil {
		g.index = make(map[string]int)
	}
	if i, ok := g.index[opt.Flag]; ok {
		g.options[i] = opt
		return
	}
	g.index[opt.Flag] = len(g.options)
	g.options = append(g.options, opt)
}

// Get returns the option stored for flag.
func (g ArgumentGroup) Get(flag string) (Option, bool) {
	i, ok := g.index[normalizeFlag(flag)]
	if !ok {
		return Option{}, false
	}
	return g.options[i], true
}

// Options returns a copy of the options in insertion order.
func (g ArgumentGroup) Options() []Option {
	return append([]Option(nil), g.options...)
}

// Len is the number of distinct flags.
func (g ArgumentGroup) Len() int { return len(g.options) }

// Tokens flattens the options into an argument vector. The filename is not
// included; callers place it according to the group's role.
func (g ArgumentGroup) Tokens() []string {
	out := make([]string, 0, 2*len(g.options))
	for _, opt := range g.options {
		out = append(out, opt.Flag)
		if opt.HasValue {
			out = append(out, opt.Value)
		}
	}
	return out
}

func (g ArgumentGroup) String() string {
	tokens := g.Tokens()
	if g.Filename != "" {
		tokens = append(tokens, g.Filename)
	}
	return strings.Join(tokens, " ")
}

// IsFlag reports whether tok names an option rather than a value. Negative
// numbers such as "-5" or "-.5" are values.
func IsFlag(tok string) bool {
	if len(tok) < 2 || tok[0] != '-' {
		return false
	}
	r, _ := utf8.DecodeRuneInString(tok[1:])
	return !unicode.IsDigit(r) && r != '.'
}

func normalizeFlag(flag string) string {
	flag = strings.TrimSpace(flag)
	if !strings.HasPrefix(flag, "-") {
		flag = "-" + flag
	}
	return flag
}
