// Package journal persists run history in a SQLite database under the state
// directory.
//
// Every scheduler run gets a row keyed by a UUID and one row per mission
// outcome. The CLI reads it back for "mediakiller history" and for continue
// mode, where Pending skips missions whose finished outputs are still on
// disk. A file lock next to the database keeps two runs from writing at once.
package journal
