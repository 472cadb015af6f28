// Package ffprobe reads container metadata from ffprobe's text banner.
//
// Key types:
//   - Prober: runs ffprobe, falling back to "ffmpeg -i" when ffprobe is not
//     installed
//
// The banner is parsed with ffmpeg.ParseBasicInfo, so format, duration and
// stream lines are recognized the same way whichever binary produced them.
// The scheduler uses Duration to seed its progress totals.
package ffprobe
