// Package logs finds and tails the per-run log files.
//
// Every run writes mediakiller-<run id>.log into the configured log directory.
// Find resolves a run id (or the newest run) to its file, and Tail reads the
// last lines or everything after an offset with bounded memory. Follow mode
// polls until new lines arrive or the wait expires.
package logs
