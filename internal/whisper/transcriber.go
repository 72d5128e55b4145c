package whisper

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fmueller/voxworker/internal/audio"
)

// BlankAudioToken is what whisper-cli prints for input without speech.
// FileTranscriber reports it as an empty transcript.
const BlankAudioToken = "[BLANK_AUDIO]"

// FileTranscriber binds an Engine to a resolved model so callers only pass
// the audio path. It is built once at startup and shared by every request.
type FileTranscriber struct {
	Engine    Engine
	ModelPath string
	Language  string
	// SilenceGate skips the engine for near-silent WAV input and returns an
	// empty transcript instead.
	SilenceGate bool
	SilenceDBFS float64
	Logger      *zap.Logger
}

func (t *FileTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	log := t.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if t.SilenceGate && strings.EqualFold(filepath.Ext(audioPath), ".wav") {
		silent, metrics, err := audio.IsSilentWAV(audioPath, t.SilenceDBFS)
		switch {
		case err != nil:
			log.Warn("silence gate analysis failed; continuing transcription", zap.Error(err))
		case silent:
			log.Info("audio considered silent; skipping transcription",
				zap.Float64("rms_dbfs", metrics.RMSdBFS),
				zap.Float64("peak_dbfs", metrics.PeakdBFS),
				zap.Float64("threshold_dbfs", t.SilenceDBFS),
			)
			return "", nil
		}
	}

	started := time.Now()
	transcript, err := t.Engine.Transcribe(ctx, TranscriptionRequest{
		AudioPath: audioPath,
		ModelPath: t.ModelPath,
		Language:  t.Language,
	})
	if err != nil {
		log.Warn("transcription failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return "", err
	}

	log.Debug("transcription finished", zap.Duration("elapsed", time.Since(started)))
	if strings.EqualFold(strings.TrimSpace(transcript), BlankAudioToken) {
		return "", nil
	}
	return transcript, nil
}
