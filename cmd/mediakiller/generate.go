package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mediakiller/internal/preset"
	"mediakiller/internal/textutil"
)

func newGenerateCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:         "generate PATH...",
		Short:       "Write an example preset file",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				target, err := presetTarget(arg)
				if err != nil {
					return err
				}
				if err := preset.WriteExample(target, force); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote example preset to %s\n", target)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace existing files")
	return cmd
}

// presetTarget resolves where generate writes: directories get example.toml,
// names without a suffix get .toml appended.
func presetTarget(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("empty preset path")
	}
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return filepath.Join(arg, "example.toml"), nil
	}
	dir, base := filepath.Split(arg)
	base = textutil.SanitizeFileName(base)
	if base == "" {
		return "", fmt.Errorf("invalid preset file name %q", arg)
	}
	if filepath.Ext(base) == "" {
		base += ".toml"
	}
	return filepath.Join(dir, base), nil
}
