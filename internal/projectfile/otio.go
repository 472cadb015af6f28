package projectfile

import (
	"bytes"
	"encoding/json"
	"io"
	"iter"
)

// OTIOProber reads OpenTimelineIO JSON timelines; every target_url in the
// document is a media reference.
type OTIOProber struct{}

func (OTIOProber) Name() string { return "otio" }

func (OTIOProber) PreCheck(path string) bool { return hasSuffix(path, ".otio") }

func (OTIOProber) IsAcceptable(r io.ReadSeeker) bool {
	return peek(r, func(rd io.Reader) bool {
		head := make([]byte, 4096)
		n, _ := io.ReadFull(rd, head)
		head = bytes.TrimSpace(head[:n])
		return bytes.HasPrefix(head, []byte("{")) && bytes.Contains(head, []byte("OTIO_SCHEMA"))
	})
}

func (OTIOProber) Probe(r io.ReadSeeker) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !rewind(r) {
			return
		}
		var doc any
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return
		}
		seen := guard{}
		walkJSON(doc, func(key string, value any) bool {
			if key != "target_url" {
				return true
			}
			s, ok := value.(string)
			if !ok {
				return true
			}
			path, ok := FileURLPath(s)
			if !ok || !seen.isNew(path) {
				return true
			}
			return yield(path)
		})
	}
}

// walkJSON visits values depth-first. Arrays keep document order; object
// members are visited in map order.
func walkJSON(v any, fn func(key string, value any) bool) bool {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			if !fn(k, item) || !walkJSON(item, fn) {
				return false
			}
		}
	case []any:
		for _, item := range val {
			if !walkJSON(item, fn) {
				return false
			}
		}
	}
	return true
}
