// Package deps checks that the external binaries a run depends on exist and
// can be executed.
package deps
