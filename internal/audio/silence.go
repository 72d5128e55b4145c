package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/wav"
)

// ErrStreamedWAV marks a file whose header does not say how many samples it
// holds, as written by encoders streaming to a pipe.
var ErrStreamedWAV = errors.New("wav data length not recorded in header")

type SilenceMetrics struct {
	RMSdBFS  float64
	PeakdBFS float64
	Samples  int64
}

// IsSilentWAV reports whether both the RMS level and the peak (with 6 dB of
// headroom) stay under thresholdDBFS.
func IsSilentWAV(path string, thresholdDBFS float64) (bool, SilenceMetrics, error) {
	metrics, err := analyzeWAV(path)
	if err != nil {
		return false, SilenceMetrics{}, err
	}

	if metrics.Samples == 0 {
		return true, metrics, nil
	}

	if math.IsInf(metrics.RMSdBFS, -1) && math.IsInf(metrics.PeakdBFS, -1) {
		return true, metrics, nil
	}

	peakGate := thresholdDBFS + 6
	return metrics.RMSdBFS <= thresholdDBFS && metrics.PeakdBFS <= peakGate, metrics, nil
}

func analyzeWAV(path string) (SilenceMetrics, error) {
	format, err := InspectWAV(path)
	if err != nil {
		return SilenceMetrics{}, err
	}
	if format.Float {
		return SilenceMetrics{}, fmt.Errorf("%w: float samples", ErrUnsupportedWAV)
	}
	if format.Streamed {
		return SilenceMetrics{}, ErrStreamedWAV
	}
	if format.Duration == 0 {
		return SilenceMetrics{RMSdBFS: math.Inf(-1), PeakdBFS: math.Inf(-1)}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return SilenceMetrics{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	if err != nil {
		return SilenceMetrics{}, fmt.Errorf("%w: read pcm data: %v", ErrInvalidWAV, err)
	}

	if len(buf.Data) == 0 {
		return SilenceMetrics{}, fmt.Errorf("%w: no samples decoded from %s of audio", ErrInvalidWAV, format.Duration)
	}

	normalize, err := sampleNormalizer(format.BitDepth)
	if err != nil {
		return SilenceMetrics{}, err
	}

	var peak, sumSquares float64
	for _, raw := range buf.Data {
		value := normalize(raw)
		abs := math.Abs(value)
		if abs > peak {
			peak = abs
		}
		sumSquares += value * value
	}

	samples := int64(len(buf.Data))
	rms := math.Sqrt(sumSquares / float64(samples))
	return SilenceMetrics{
		RMSdBFS:  amplitudeToDBFS(rms),
		PeakdBFS: amplitudeToDBFS(peak),
		Samples:  samples,
	}, nil
}

// sampleNormalizer maps decoded integer samples into [-1, 1]. 8-bit PCM is
// unsigned and centred on 128.
func sampleNormalizer(bitDepth int) (func(int) float64, error) {
	switch bitDepth {
	case 8:
		return func(v int) float64 { return (float64(v) - 128.0) / 128.0 }, nil
	case 16, 24, 32:
		fullScale := math.Exp2(float64(bitDepth - 1))
		return func(v int) float64 { return float64(v) / fullScale }, nil
	default:
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedWAV, bitDepth)
	}
}

func amplitudeToDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20.0 * math.Log10(amplitude)
}
