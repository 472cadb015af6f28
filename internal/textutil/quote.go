package textutil

import "strings"

// isShellSafe reports whether s can appear unquoted in both sh and
// PowerShell command lines.
func isShellSafe(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("_-+=.,/:%@", r):
		default:
			return false
		}
	}
	return true
}

// ShellQuote quotes s for a POSIX shell. Safe words are returned unchanged;
// everything else is single-quoted with embedded quotes spliced as '"'"'.
func ShellQuote(s string) string {
	if isShellSafe(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// PowerShellQuote quotes s for PowerShell, where @ and , are operators too.
// Unsafe words are double-quoted
// with ", ` and $ escaped by a backtick.
func PowerShellQuote(s string) string {
	if isShellSafe(s) && !strings.ContainsAny(s, "@,") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '`' || r == '$' {
			b.WriteByte('`')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
