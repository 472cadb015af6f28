package projectfile

import (
	"encoding/csv"
	"io"
	"iter"
	"path/filepath"
	"strings"
)

const (
	resolveNameHeader = "File Name"
	resolveDirHeader  = "Clip Directory"
)

// ResolveCSVProber reads DaVinci Resolve metadata exports. The file must carry
// both the "File Name" and "Clip Directory" columns.
type ResolveCSVProber struct{}

func (ResolveCSVProber) Name() string { return "resolve_csv" }

func (ResolveCSVProber) PreCheck(path string) bool { return hasSuffix(path, ".csv") }

func (ResolveCSVProber) IsAcceptable(r io.ReadSeeker) bool {
	return peek(r, func(rd io.Reader) bool {
		_, _, ok := resolveColumns(newCSVReader(rd))
		return ok
	})
}

func (ResolveCSVProber) Probe(r io.ReadSeeker) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !rewind(r) {
			return
		}
		reader := newCSVReader(r)
		nameCol, dirCol, ok := resolveColumns(reader)
		if !ok {
			return
		}
		seen := guard{}
		for {
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				continue
			}
			if nameCol >= len(record) || dirCol >= len(record) {
				continue
			}
			name := strings.TrimSpace(record[nameCol])
			dir := strings.TrimSpace(record[dirCol])
			if name == "" || name == resolveNameHeader {
				continue
			}
			path := name
			if dir != "" {
				path = filepath.Join(dir, name)
			}
			if !seen.isNew(path) {
				continue
			}
			if !yield(path) {
				return
			}
		}
	}
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// resolveColumns reads the header row and locates the two required columns.
func resolveColumns(reader *csv.Reader) (int, int, bool) {
	header, err := reader.Read()
	if err != nil {
		return 0, 0, false
	}
	nameCol, dirCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case resolveNameHeader:
			nameCol = i
		case resolveDirHeader:
			dirCol = i
		}
	}
	return nameCol, dirCol, nameCol >= 0 && dirCol >= 0
}
