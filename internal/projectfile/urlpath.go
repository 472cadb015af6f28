package projectfile

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FileURLPath converts a file:// URL into a native path. Plain paths are
// returned unchanged. Paths are NFC-normalized because macOS editors write
// decomposed names.
func FileURLPath(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(ref), "file:") {
		return norm.NFC.String(ref), true
	}

	var p string
	if parsed, err := url.Parse(ref); err == nil {
		p = parsed.Path
		if p == "" {
			p = parsed.Opaque
		}
	} else {
		rest := ref[len("file:"):]
		rest = strings.TrimPrefix(rest, "//")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[i:]
		}
		unescaped, uerr := url.PathUnescape(rest)
		if uerr != nil {
			return "", false
		}
		p = unescaped
	}
	if p == "" {
		return "", false
	}
	// file:///C:/media/clip.mov
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return norm.NFC.String(filepath.FromSlash(p)), true
}
