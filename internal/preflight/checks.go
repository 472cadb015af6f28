package preflight

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"

	"mediakiller/internal/config"
	"mediakiller/internal/deps"
)

// MinFreeBytes is the free space below which CheckFreeSpace fails.
const MinFreeBytes = 1 << 30

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, true)
}

// CheckDirectoryReadable verifies that the directory exists and can be listed.
func CheckDirectoryReadable(name, path string) Result {
	return checkDirectory(name, path, false)
}

func checkDirectory(name, path string, write bool) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := accessDir(path, write); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	if write {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckFreeSpace reports the free space on the volume holding path and fails
// below minFree bytes.
func CheckFreeSpace(ctx context.Context, name, path string, minFree uint64) Result {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s free of %s (%.0f%% used)",
		humanize.IBytes(usage.Free), humanize.IBytes(usage.Total), usage.UsedPercent)
	if usage.Free < minFree {
		return Result{Name: name, Detail: detail + fmt.Sprintf(" (error: below %s)", humanize.IBytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the encoder binaries for the given config. The
// run command and "mediakiller check" share this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.EncoderRequirements(cfg.Encoder.FFmpeg, cfg.FFprobeBinary()))
}
