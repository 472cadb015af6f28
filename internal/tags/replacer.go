package tags

import (
	"fmt"
	"regexp"
	"strings"
)

// tagPattern matches ${key} and ${key:param}.
var tagPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([^{}]*))?\}`)

// Provider resolves a parameter into a substitution value. Returning false
// leaves the tag untouched.
type Provider interface {
	Resolve(param string) (string, bool)
}

// Static is a provider that always yields the same value regardless of the
// parameter.
type Static string

func (s Static) Resolve(string) (string, bool) { return string(s), true }

// Func adapts a parametrized function into a Provider.
type Func func(param string) (string, bool)

func (f Func) Resolve(param string) (string, bool) {
	if f == nil {
		return "", false
	}
	return f(param)
}

// Replacer substitutes tags against a set of named providers. A Replacer is
// not safe for concurrent mutation; build one per mission.
type Replacer struct {
	providers map[string]Provider
}

// NewReplacer returns an empty Replacer.
func NewReplacer() *Replacer {
	return &Replacer{providers: make(map[string]Provider)}
}

// Install registers p under key, replacing any previous provider.
func (r *Replacer) Install(key string, p Provider) *Replacer {
	r.providers[key] = p
	return r
}

// Remove unregisters key.
func (r *Replacer) Remove(key string) {
	delete(r.providers, key)
}

// Provider returns the provider registered under key.
func (r *Replacer) Provider(key string) (Provider, bool) {
	p, ok := r.providers[key]
	return p, ok
}

// Replace substitutes every tag in s. Unknown keys and declined parameters
// keep their original text.
func (r *Replacer) Replace(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return tagPattern.ReplaceAllStringFunc(s, func(tag string) string {
		m := tagPattern.FindStringSubmatch(tag)
		provider, ok := r.providers[m[1]]
		if !ok || provider == nil {
			return tag
		}
		value, ok := provider.Resolve(m[2])
		if !ok {
			return tag
		}
		return value
	})
}

// ReadValue substitutes a scalar value. Non-string scalars (numbers, booleans
// decoded from TOML) are formatted first.
func (r *Replacer) ReadValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return r.Replace(val)
	default:
		return r.Replace(fmt.Sprint(val))
	}
}

// ReadList substitutes v and splits the result on whitespace so a single
// templated string can expand into several argument tokens. Lists are
// flattened recursively.
func (r *Replacer) ReadList(v any) []string {
	var out []string
	r.appendList(&out, v)
	return out
}

func (r *Replacer) appendList(out *[]string, v any) {
	switch val := v.(type) {
	case nil:
	case []string:
		for _, item := range val {
			r.appendList(out, item)
		}
	case []any:
		for _, item := range val {
			r.appendList(out, item)
		}
	default:
		*out = append(*out, strings.Fields(r.ReadValue(val))...)
	}
}
