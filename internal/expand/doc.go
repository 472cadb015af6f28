// Package expand resolves command-line inputs into media source files.
package expand
