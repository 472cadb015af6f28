package projectfile

import (
	"bufio"
	"io"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	clipNamePattern = regexp.MustCompile(`CLIP NAME:\s*(.+?)\s*$`)
	fileURLPattern  = regexp.MustCompile(`file://\S+`)
	// POSIX absolute, home-relative, drive-letter or UNC paths.
	osPathPattern = regexp.MustCompile(`^(?:/|~[/\\]|[A-Za-z]:[\\/]|\\\\)[^*?"<>|\r\n]*$`)
)

// EDLProber reads CMX-style edit decision lists and yields the clip names of
// their "CLIP NAME:" comments in order.
type EDLProber struct{}

func (EDLProber) Name() string { return "edl" }

func (EDLProber) PreCheck(path string) bool { return hasSuffix(path, ".edl", ".txt") }

func (EDLProber) IsAcceptable(r io.ReadSeeker) bool {
	return peek(r, func(rd io.Reader) bool {
		found := false
		scanLines(rd, func(line string) bool {
			found = clipNamePattern.MatchString(line)
			return !found
		})
		return found
	})
}

func (EDLProber) Probe(r io.ReadSeeker) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !rewind(r) {
			return
		}
		seen := guard{}
		scanLines(r, func(line string) bool {
			m := clipNamePattern.FindStringSubmatch(line)
			if m == nil || !seen.isNew(m[1]) {
				return true
			}
			return yield(m[1])
		})
	}
}

// TextProber is the fallback for plain text lists. Each line may contain
// file:// URLs or be a path on its own.
type TextProber struct{}

func (TextProber) Name() string { return "text" }

func (TextProber) PreCheck(path string) bool { return hasSuffix(path, ".txt") }

func (TextProber) IsAcceptable(io.ReadSeeker) bool { return true }

func (TextProber) Probe(r io.ReadSeeker) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !rewind(r) {
			return
		}
		seen := guard{}
		emit := func(path string) bool {
			if !seen.isNew(path) {
				return true
			}
			return yield(path)
		}
		scanLines(r, func(line string) bool {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				return true
			}
			if urls := fileURLPattern.FindAllString(line, -1); len(urls) > 0 {
				for _, u := range urls {
					if path, ok := FileURLPath(u); ok && !emit(path) {
						return false
					}
				}
				return true
			}
			line = strings.Trim(line, `"'`)
			if !osPathPattern.MatchString(line) {
				return true
			}
			return emit(expandHome(line))
		})
	}
}

func scanLines(r io.Reader, fn func(string) bool) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if !fn(scanner.Text()) {
			return
		}
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
