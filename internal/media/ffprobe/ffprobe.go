package ffprobe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"mediakiller/internal/ffmpeg"
	"mediakiller/internal/services"
)

// Prober reads container metadata by running ffprobe, or ffmpeg -i when no
// ffprobe is available.
type Prober struct {
	FFprobe string
	FFmpeg  string
}

// New returns a Prober. Either binary may be empty.
func New(ffprobeBinary, ffmpegBinary string) *Prober {
	return &Prober{FFprobe: strings.TrimSpace(ffprobeBinary), FFmpeg: strings.TrimSpace(ffmpegBinary)}
}

// Inspect returns the banner summary printed for path.
func (p *Prober) Inspect(ctx context.Context, path string) (ffmpeg.BasicInfo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ffmpeg.BasicInfo{}, errors.New("ffprobe inspect: empty path")
	}

	if p.FFprobe != "" {
		output, err := exec.CommandContext(ctx, p.FFprobe, "-hide_banner", path).CombinedOutput()
		if err == nil || !isMissingBinary(err) {
			info := ffmpeg.ParseBasicInfo(string(output))
			if err != nil && info.Format == "" {
				return info, services.Wrap(services.ErrExternalTool, "ffprobe", "inspect", path,
					fmt.Errorf("%w: %s", err, lastLine(output)))
			}
			return info, nil
		}
	}
	return p.inspectWithEncoder(ctx, path)
}

// inspectWithEncoder runs "ffmpeg -i path". ffmpeg exits non-zero because no
// output is given; the banner is still complete.
func (p *Prober) inspectWithEncoder(ctx context.Context, path string) (ffmpeg.BasicInfo, error) {
	binary := p.FFmpeg
	if binary == "" {
		binary = "ffmpeg"
	}
	output, err := exec.CommandContext(ctx, binary, "-hide_banner", "-i", path).CombinedOutput()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ffmpeg.BasicInfo{}, ctxErr
	}
	info := ffmpeg.ParseBasicInfo(string(output))
	if info.Format == "" && !info.HasDuration() {
		if err == nil {
			err = errors.New("no input banner")
		}
		return info, services.Wrap(services.ErrExternalTool, "ffprobe", "inspect", path,
			fmt.Errorf("%w: %s", err, lastLine(output)))
	}
	return info, nil
}

// Duration returns the media duration of path, zero when the container does
// not report one.
func (p *Prober) Duration(ctx context.Context, path string) (time.Duration, error) {
	info, err := p.Inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

func isMissingBinary(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr)
}

func lastLine(output []byte) string {
	text := strings.TrimSpace(string(output))
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSpace(text)
}
