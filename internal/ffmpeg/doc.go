// Package ffmpeg supervises a single encoder process.
//
// A Driver starts the encoder in its own process group, parses the status
// lines it writes to stderr and reports lifecycle events to an Observer.
// Cancel interrupts the encoder (SIGTERM on POSIX, q plus CTRL_BREAK on
// Windows) and kills it when it is still alive after the grace period.
//
// The package also holds the parsers for ffmpeg's text output: status lines,
// the Duration header and the input banner returned by ParseBasicInfo.
package ffmpeg
