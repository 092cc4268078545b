package analysis

import (
	"iter"
)

// Frames returns a lazy, finite, restartable sequence of overlapping frames
// over a mono PCM buffer. Each frame is windowSize samples long and frames
// start hopSize samples apart. A trailing partial frame shorter than
// windowSize is dropped, not zero-padded.
//
// The yielded slice aliases the PCM buffer and is only valid until the next
// iteration step; callers that retain a frame must copy it.
func Frames(pcm []float64, windowSize, hopSize int) iter.Seq[[]float64] {
	return func(yield func([]float64) bool) {
		if windowSize <= 0 || hopSize <= 0 || len(pcm) < windowSize {
			return
		}

		numFrames := (len(pcm)-windowSize)/hopSize + 1
		for i := range numFrames {
			start := i * hopSize
			if !yield(pcm[start : start+windowSize]) {
				return
			}
		}
	}
}

// FrameCount returns the number of full frames Frames will yield for a
// buffer of the given length
func FrameCount(pcmLen, windowSize, hopSize int) int {
	if windowSize <= 0 || hopSize <= 0 || pcmLen < windowSize {
		return 0
	}
	return (pcmLen-windowSize)/hopSize + 1
}
