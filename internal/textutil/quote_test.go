package textutil

import "testing"

func TestShellQuote(t *testing.T) {
	cases := map[string]string{
		"-c:v":              "-c:v",
		"/media/clip.mov":   "/media/clip.mov",
		"":                  "''",
		"/media/clip A.mov": "'/media/clip A.mov'",
		"it's":              `'it'"'"'s'`,
		"a;rm -rf":          "'a;rm -rf'",
		"$HOME":             "'$HOME'",
	}
	for in, want := range cases {
		if got := ShellQuote(in); got != want {
			t.Fatalf("ShellQuote(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestPowerShellQuote(t *testing.T) {
	cases := map[string]string{
		"-c:v":                "-c:v",
		`C:\media\clip A.mov`: `"C:\media\clip A.mov"`,
		"$env":                "\"`$env\"",
		`say "hi"`:            "\"say `\"hi`\"\"",
		"@list":               `"@list"`,
	}
	for in, want := range cases {
		if got := PowerShellQuote(in); got != want {
			t.Fatalf("PowerShellQuote(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName("  proxy: h264/hq?  "); got != "proxy- h264-hq" {
		t.Fatalf("SanitizeFileName = %q", got)
	}
}
