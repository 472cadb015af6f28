package projectfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// maxDocumentSize bounds how much of a project file is read.
const maxDocumentSize = 64 << 20

// ErrNotText is returned by Open for content that does not decode as text.
var ErrNotText = errors.New("project file is not text")

// Prober extracts media references from one project-file format.
type Prober interface {
	// Name identifies the format in logs.
	Name() string
	// PreCheck is a cheap, suffix-only test.
	PreCheck(path string) bool
	// IsAcceptable sniffs content. The stream position is restored.
	IsAcceptable(r io.ReadSeeker) bool
	// Probe yields each reference once, in document order. It rewinds the
	// stream itself.
	Probe(r io.ReadSeeker) iter.Seq[string]
}

// Match describes a project file claimed by a prober.
type Match struct {
	Prober   string
	Document string
	Refs     iter.Seq[string]
}

// Chain tries probers in order; the first whose PreCheck and IsAcceptable
// both pass claims the file.
type Chain struct {
	probers []Prober
}

// NewChain builds a chain from probers in priority order.
func NewChain(probers ...Prober) *Chain {
	return &Chain{probers: probers}
}

// DefaultChain returns the built-in formats: XML dialects first, then the
// structured timeline, the tabular export, the edit decision list and the
// plain text heuristic last.
func DefaultChain() *Chain {
	return NewChain(
		FCPXMLProber{},
		FCP7XMLProber{},
		OTIOProber{},
		ResolveCSVProber{},
		EDLProber{},
		TextProber{},
	)
}

// Probe runs the chain against path. It reports false when no prober claims
// the file, including when the file cannot be read or decoded; the caller
// then treats path as a literal source.
func (c *Chain) Probe(path string) (Match, bool) {
	var candidates []Prober
	for _, p := range c.probers {
		if p.PreCheck(path) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return Match{}, false
	}

	document := resolveBundle(path)
	r, err := Open(document)
	if err != nil {
		return Match{}, false
	}
	for _, p := range candidates {
		if p.IsAcceptable(r) {
			return Match{Prober: p.Name(), Document: document, Refs: p.Probe(r)}, true
		}
	}
	return Match{}, false
}

// resolveBundle maps a .fcpxmld bundle directory to its Info.fcpxml.
func resolveBundle(path string) string {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path
	}
	return filepath.Join(path, "Info.fcpxml")
}

// Open reads path and decodes it to UTF-8 using its BOM or detected charset.
// Binary content is rejected with ErrNotText.
func Open(path string) (*bytes.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bytes.NewReader(text), nil
}

// Decode converts raw bytes to UTF-8 text. Valid UTF-8 is kept as is;
// anything else goes through BOM and charset detection.
func Decode(raw []byte) ([]byte, error) {
	text := raw
	if !utf8.Valid(raw) {
		enc, _, _ := charset.DetermineEncoding(raw, "text/plain")
		decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotText, err)
		}
		text = decoded
	}
	if bytes.IndexByte(text, 0) >= 0 {
		return nil, ErrNotText
	}
	return bytes.TrimPrefix(text, []byte("\ufeff")), nil
}

// peek runs fn from the start of r and restores the original position.
func peek(r io.ReadSeeker, fn func(io.Reader) bool) bool {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return false
	}
	defer r.Seek(pos, io.SeekStart) //nolint:errcheck
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false
	}
	return fn(r)
}

// rewind seeks r to the start for a probe pass.
func rewind(r io.ReadSeeker) bool {
	_, err := r.Seek(0, io.SeekStart)
	return err == nil
}

// doctypeWithin reports whether pattern matches one of the first n lines.
func doctypeWithin(r io.ReadSeeker, pattern *regexp.Regexp, n int) bool {
	return peek(r, func(rd io.Reader) bool {
		scanner := bufio.NewScanner(rd)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for i := 0; i < n && scanner.Scan(); i++ {
			if pattern.MatchString(scanner.Text()) {
				return true
			}
		}
		return false
	})
}

// guard de-duplicates the references yielded during one probe pass.
type guard map[string]struct{}

func (g guard) isNew(ref string) bool {
	if ref == "" {
		return false
	}
	if _, seen := g[ref]; seen {
		return false
	}
	g[ref] = struct{}{}
	return true
}

func hasSuffix(path string, suffixes ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range suffixes {
		if ext == s {
			return true
		}
	}
	return false
}
