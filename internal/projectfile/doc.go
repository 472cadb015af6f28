// Package projectfile extracts media references from editorial project files
// (FCPXML, FCP7 xmeml, OpenTimelineIO, DaVinci Resolve CSV exports, EDLs and
// plain text lists).
//
// Each format is a Prober. A Chain tries them in priority order and the first
// one whose suffix check and content sniff both pass claims the file. Files are
// decoded best-effort from their BOM or detected charset; anything that does
// not decode as text is simply not a project file.
package projectfile
