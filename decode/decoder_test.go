package decode

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestBytesToPCM(t *testing.T) {
	samples := []int16{0, math.MaxInt16, math.MinInt16, 16384}
	data := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}

	pcm := bytesToPCM(data)
	if len(pcm) != 4 {
		t.Fatalf("got %d samples, want 4", len(pcm))
	}

	if pcm[0] != 0 {
		t.Errorf("sample 0 = %v, want 0", pcm[0])
	}
	if pcm[1] >= 1.0 || pcm[1] < 0.9999 {
		t.Errorf("max sample = %v, want just below 1", pcm[1])
	}
	if pcm[2] != -1.0 {
		t.Errorf("min sample = %v, want -1", pcm[2])
	}
	if pcm[3] != 0.5 {
		t.Errorf("half-scale sample = %v, want 0.5", pcm[3])
	}
}

func TestBytesToPCMOddLength(t *testing.T) {
	// Trailing odd byte is dropped
	pcm := bytesToPCM([]byte{0, 0, 1})
	if len(pcm) != 1 {
		t.Fatalf("got %d samples, want 1", len(pcm))
	}
}

func TestProbeBinary(t *testing.T) {
	cases := []struct {
		ffmpegPath string
		want       string
	}{
		{"ffmpeg", "ffprobe"},
		{"ffmpeg-custom", "ffprobe"},
		{"/usr/local/bin/ffmpeg", "/usr/local/bin/ffprobe"},
		{"/opt/ffmpeg/bin/ffmpeg", "/opt/ffmpeg/bin/ffprobe"},
		{"./tools/ffmpeg", "tools/ffprobe"},
	}
	for _, tc := range cases {
		if got := probeBinary(tc.ffmpegPath); got != tc.want {
			t.Errorf("probeBinary(%q) = %q, want %q", tc.ffmpegPath, got, tc.want)
		}
	}
}

func TestNewFFmpegDecoderDefaults(t *testing.T) {
	d := NewFFmpegDecoder(Config{})
	if d.config.FFmpegPath != "ffmpeg" {
		t.Errorf("default ffmpeg path = %q, want ffmpeg", d.config.FFmpegPath)
	}
	if d.config.Timeout <= 0 {
		t.Error("default timeout not set")
	}
}
