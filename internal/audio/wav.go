// Package audio inspects WAV payloads before they are handed to the
// transcription engine.
package audio

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
	// Float is set for IEEE float samples, plain or extensible.
	Float    bool
	Duration time.Duration
	// Streamed is set when the header carries no usable data size and the
	// samples run to the end of the file.
	Streamed bool
}

// ValidateWAV reports whether path holds a readable PCM or float WAV file.
func ValidateWAV(path string) error {
	_, err := InspectWAV(path)
	return err
}

func InspectWAV(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	h, err := readHeader(f)
	if err != nil {
		return Format{}, err
	}
	switch h.formatTag {
	case formatPCM, formatIEEEFloat:
	default:
		return Format{}, fmt.Errorf("%w: audio format %d", ErrUnsupportedWAV, h.formatTag)
	}

	info, err := f.Stat()
	if err != nil {
		return Format{}, fmt.Errorf("stat wav: %w", err)
	}
	available := info.Size() - h.dataOffset
	if available < 0 {
		available = 0
	}
	dataBytes := int64(h.dataSize)
	if h.streamed() || dataBytes > available {
		dataBytes = available
	}

	return Format{
		SampleRate: h.sampleRate,
		Channels:   h.channels,
		BitDepth:   h.bitDepth,
		Float:      h.formatTag == formatIEEEFloat,
		Duration:   dataDuration(h, dataBytes),
		Streamed:   h.streamed() && available > 0,
	}, nil
}

func dataDuration(h header, dataBytes int64) time.Duration {
	byteRate := int64(h.byteRate)
	if byteRate <= 0 {
		byteRate = int64(h.sampleRate) * int64(h.blockAlign)
	}
	if byteRate <= 0 {
		return 0
	}
	return time.Duration(float64(dataBytes) / float64(byteRate) * float64(time.Second))
}
