package projectfile

import (
	"encoding/xml"
	"io"
	"iter"
	"regexp"
	"strings"
)

// doctypeLines is how far into a document the DOCTYPE may appear.
const doctypeLines = 10

var (
	fcpxmlDoctype = regexp.MustCompile(`(?i)<!DOCTYPE\s+fcpxml\b`)
	xmemlDoctype  = regexp.MustCompile(`(?i)<!DOCTYPE\s+xmeml\b`)
)

// FCPXMLProber reads Final Cut Pro X interchange files and bundles. Media
// paths come from asset src attributes and from media-rep elements of kind
// original-media.
type FCPXMLProber struct{}

func (FCPXMLProber) Name() string { return "fcpxml" }

func (FCPXMLProber) PreCheck(path string) bool { return hasSuffix(path, ".fcpxml", ".fcpxmld") }

func (FCPXMLProber) IsAcceptable(r io.ReadSeeker) bool {
	return doctypeWithin(r, fcpxmlDoctype, doctypeLines)
}

func (FCPXMLProber) Probe(r io.ReadSeeker) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !rewind(r) {
			return
		}
		seen := guard{}
		walkXML(r, func(dec *xml.Decoder, start xml.StartElement) bool {
			var src string
			switch start.Name.Local {
			case "media-rep":
				if attr(start, "kind") != "original-media" {
					return true
				}
				src = attr(start, "src")
			case "asset":
				src = attr(start, "src")
			default:
				return true
			}
			path, ok := FileURLPath(src)
			if !ok || !seen.isNew(path) {
				return true
			}
			return yield(path)
		})
	}
}

// FCP7XMLProber reads Final Cut Pro 7 / Premiere xmeml exports. Media paths
// come from pathurl elements holding URL-encoded file URLs.
type FCP7XMLProber struct{}

func (FCP7XMLProber) Name() string { return "fcp7xml" }

func (FCP7XMLProber) PreCheck(path string) bool { return hasSuffix(path, ".xml") }

func (FCP7XMLProber) IsAcceptable(r io.ReadSeeker) bool {
	return doctypeWithin(r, xmemlDoctype, doctypeLines)
}

func (FCP7XMLProber) Probe(r io.ReadSeeker) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !rewind(r) {
			return
		}
		seen := guard{}
		walkXML(r, func(dec *xml.Decoder, start xml.StartElement) bool {
			if start.Name.Local != "pathurl" {
				return true
			}
			var text string
			if err := dec.DecodeElement(&text, &start); err != nil {
				return false
			}
			path, ok := FileURLPath(text)
			if !ok || !seen.isNew(path) {
				return true
			}
			return yield(path)
		})
	}
}

// walkXML calls fn for every start element until fn returns false or the
// document ends. Malformed documents simply end the walk.
func walkXML(r io.Reader, fn func(*xml.Decoder, xml.StartElement) bool) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	// Content is already UTF-8; ignore the declared encoding.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		if start, ok := tok.(xml.StartElement); ok {
			if !fn(dec, start) {
				return
			}
		}
	}
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}
