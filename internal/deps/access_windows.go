//go:build windows

package deps

func canExecute(string) error { return nil }
