package dispatch

import (
	"bytes"
	"context"
	"errors"

	"github.com/fmueller/voxworker/internal/scratch"
	"go.uber.org/zap"
)

const (
	CommandHealthCheck    = "health_check"
	CommandTranscribeFile = "transcribe_file"

	DefaultService = "transcribe"
)

const scratchPattern = "voxworker-*.wav"

// Transcriber turns an audio file on disk into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

func HealthCheck(service string) HandlerFunc {
	if service == "" {
		service = DefaultService
	}
	return func(context.Context, Args) (Response, error) {
		return Healthy(service), nil
	}
}

// FileHandler serves transcribe_file: the payload is staged in a scratch
// file that is gone again once Handle returns.
type FileHandler struct {
	Transcriber Transcriber
	TempDir     string
	// Validate, when set, checks the staged file before it reaches the
	// transcriber.
	Validate func(path string) error
	Logger   *zap.Logger
}

func (h *FileHandler) Handle(ctx context.Context, args Args) (Response, error) {
	content, err := audioContent(args)
	if err != nil {
		message := ErrInvalidContent.Error()
		if errors.Is(err, ErrMissingContent) {
			message = ErrMissingContent.Error()
		}
		return Response{}, Public(message, err)
	}

	log := h.log()
	var text string
	err = scratch.WithFile(h.TempDir, scratchPattern, bytes.NewReader(content), func(path string) error {
		log.Debug("audio payload staged", zap.String("path", path), zap.Int("bytes", len(content)))

		if h.Validate != nil {
			if err := h.Validate(path); err != nil {
				return Public("audio payload is not a readable WAV file", err)
			}
		}

		transcript, err := h.Transcriber.Transcribe(ctx, path)
		if err != nil {
			return Public("transcription failed", err)
		}
		text = transcript
		return nil
	})
	if err != nil {
		var public *PublicError
		if !errors.As(err, &public) {
			err = Public("could not stage audio payload", err)
		}
		return Response{}, err
	}

	log.Info("transcription completed", zap.Int("chars", len(text)))
	return Success(text), nil
}

func (h *FileHandler) log() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
