package ffmpeg

import (
	"strings"
	"testing"
	"time"
)

func TestParseStatusLine(t *testing.T) {
	now := time.Unix(1700000000, 0)
	line := "frame= 1234 fps= 48 q=-1.0 size=   10240kB time=00:01:02.50 bitrate=1342.2kbits/s speed=1.93x    "
	status, ok := ParseStatusLine(line, now)
	if !ok {
		t.Fatal("expected status line to parse")
	}
	if status.Frame != 1234 || status.FPS != 48 || status.Quantizer != -1 {
		t.Fatalf("frame/fps/q = %d/%v/%v", status.Frame, status.FPS, status.Quantizer)
	}
	if status.Size != 10240*1000 {
		t.Fatalf("size = %d", status.Size)
	}
	if status.Time != time.Minute+2500*time.Millisecond {
		t.Fatalf("time = %v", status.Time)
	}
	if status.Bitrate < 1342.1 || status.Bitrate > 1342.3 {
		t.Fatalf("bitrate = %v", status.Bitrate)
	}
	if status.Speed != 1.93 || !status.CreatedAt.Equal(now) || status.Raw != strings.TrimSpace(line) {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestParseStatusLineIgnoresOtherLines(t *testing.T) {
	for _, line := range []string{
		"Stream mapping:",
		"  Stream #0:0 -> #0:0 (h264 (native) -> h264 (libx264))",
		"frame=    0 fps=0.0 q=0.0 size=       0kB time=N/A bitrate=N/A speed=N/A",
	} {
		if _, ok := ParseStatusLine(line, time.Now()); ok {
			t.Fatalf("line %q should not parse as status", line)
		}
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]time.Duration{
		"00:00:10.00":  10 * time.Second,
		"01:02:03.5":   time.Hour + 2*time.Minute + 3500*time.Millisecond,
		"-00:00:00.04": -40 * time.Millisecond,
	}
	for in, want := range cases {
		got, ok := ParseClock(in)
		if !ok || got != want {
			t.Fatalf("ParseClock(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseClock("N/A"); ok {
		t.Fatal("N/A must not parse")
	}
}

func TestParseBasicInfo(t *testing.T) {
	text := `ffprobe version 6.1 Copyright (c) 2007-2023 the FFmpeg developers
Input #0, mov,mp4,m4a,3gp,3g2,mj2, from '/media/clip A.mov':
  Metadata:
    major_brand     : qt
  Duration: 00:02:15.77, start: 0.040000, bitrate: 24567 kb/s
  Stream #0:0[0x1](eng): Video: prores (HQ) (apch / 0x68637061), yuv422p10le, 1920x1080, 23.98 fps
  Stream #0:1[0x2](eng): Audio: pcm_s24le (in24 / 0x34326E69), 48000 Hz, stereo, s32 (24 bit), 2304 kb/s
`
	info := ParseBasicInfo(text)
	if info.Format != "mov,mp4,m4a,3gp,3g2,mj2" || info.Name != "/media/clip A.mov" {
		t.Fatalf("format/name = %q/%q", info.Format, info.Name)
	}
	if info.Duration != 2*time.Minute+15770*time.Millisecond {
		t.Fatalf("duration = %v", info.Duration)
	}
	if info.Start != 40*time.Millisecond {
		t.Fatalf("start = %v", info.Start)
	}
	if info.BitRate != 24567000 {
		t.Fatalf("bitrate = %d", info.BitRate)
	}
	if len(info.Streams) != 2 || !strings.HasPrefix(info.Streams[1], "Stream #0:1") {
		t.Fatalf("streams = %q", info.Streams)
	}
}

func TestParseBasicInfoWithoutBitrate(t *testing.T) {
	info := ParseBasicInfo("  Duration: 00:00:05.00, start: 0.000000, bitrate: N/A\n")
	if !info.HasDuration() || info.Duration != 5*time.Second {
		t.Fatalf("duration = %v", info.Duration)
	}
}

func TestScanStatusLinesSplitsCarriageReturns(t *testing.T) {
	data := []byte("a\rb\nc")
	var tokens []string
	for len(data) > 0 {
		adv, tok, err := scanStatusLines(data, true)
		if err != nil || adv == 0 {
			t.Fatalf("scan stalled: adv=%d err=%v", adv, err)
		}
		tokens = append(tokens, string(tok))
		data = data[adv:]
	}
	if strings.Join(tokens, ",") != "a,b,c" {
		t.Fatalf("tokens = %q", tokens)
	}
}

func TestTailBufferKeepsLastBytes(t *testing.T) {
	tb := newTailBuffer(8)
	tb.WriteLine("12345")
	tb.WriteLine("abcde")
	if got := tb.String(); got != "5\nabcde\n" {
		t.Fatalf("tail = %q", got)
	}
}
