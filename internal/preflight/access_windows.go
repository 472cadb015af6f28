//go:build windows

package preflight

import "os"

func accessDir(path string, _ bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
