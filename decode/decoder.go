package decode

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/soundvault/timbre/logging"
)

// AudioSource represents one decoded audio file: mono PCM samples plus the
// stream properties the analyzer needs. It is transient, created per
// analysis task and discarded after feature extraction.
type AudioSource struct {
	SampleRate   int           `json:"sample_rate"`
	TotalSamples int           `json:"total_samples"`
	Duration     time.Duration `json:"duration"`
	PCM          []float64     `json:"-"`
}

// Decoder is the decoding collaborator boundary: given a file path it
// returns decoded mono PCM or a decode error
type Decoder interface {
	Decode(ctx context.Context, path string) (*AudioSource, error)
}

// Config holds decoder configuration
type Config struct {
	FFmpegPath string        `toml:"ffmpeg_path"`
	Timeout    time.Duration `toml:"timeout"`
}

// DefaultConfig returns sensible decoder defaults
func DefaultConfig() Config {
	return Config{
		FFmpegPath: "ffmpeg",
		Timeout:    2 * time.Minute,
	}
}

// FFmpegDecoder decodes audio files by piping them through an external
// ffmpeg process, downmixing to mono and converting to little-endian
// 16-bit PCM at the source sample rate
type FFmpegDecoder struct {
	config Config
	logger logging.Logger
}

// NewFFmpegDecoder creates a decoder with the given configuration
func NewFFmpegDecoder(config Config) *FFmpegDecoder {
	if config.FFmpegPath == "" {
		config.FFmpegPath = "ffmpeg"
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}

	return &FFmpegDecoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "ffmpeg_decoder",
		}),
	}
}

// Decode reads and decodes the file at path into mono float64 PCM
func (d *FFmpegDecoder) Decode(ctx context.Context, path string) (*AudioSource, error) {
	sampleRate, err := d.probeSampleRate(ctx, path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	// -f s16le: raw signed 16-bit PCM on stdout, -ac 1: downmix to mono
	cmd := exec.CommandContext(ctx, d.config.FFmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-f", "s16le",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	d.logger.Debug("decoding file", logging.Fields{
		"path":        path,
		"sample_rate": sampleRate,
	})

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode of %s failed: %w (%s)", path, err, stderr.String())
	}

	pcm := bytesToPCM(stdout.Bytes())
	if len(pcm) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no samples for %s", path)
	}

	return &AudioSource{
		SampleRate:   sampleRate,
		TotalSamples: len(pcm),
		Duration:     time.Duration(float64(len(pcm)) / float64(sampleRate) * float64(time.Second)),
		PCM:          pcm,
	}, nil
}

// probeSampleRate asks ffmpeg for the stream sample rate so decoding can
// keep the source rate instead of resampling
func (d *FFmpegDecoder) probeSampleRate(ctx context.Context, path string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, probeBinary(d.config.FFmpegPath),
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe of %s failed: %w", path, err)
	}

	rate, err := strconv.Atoi(string(bytes.TrimSpace(out)))
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("invalid sample rate for %s: %q", path, bytes.TrimSpace(out))
	}

	return rate, nil
}

// probeBinary returns the ffprobe invocation matching the configured ffmpeg
// binary: a bare command name stays on PATH lookup, a qualified path resolves
// to the sibling ffprobe in the same directory
func probeBinary(ffmpegPath string) string {
	if dir := filepath.Dir(ffmpegPath); dir != "." {
		return filepath.Join(dir, "ffprobe")
	}
	return "ffprobe"
}

// bytesToPCM converts little-endian signed 16-bit samples to float64 in [-1, 1)
func bytesToPCM(data []byte) []float64 {
	numSamples := len(data) / 2
	pcm := make([]float64, numSamples)

	for i := range numSamples {
		sample := int16(binary.LittleEndian.Uint16(data[i*2:]))
		pcm[i] = float64(sample) / float64(math.MaxInt16+1)
	}

	return pcm
}
