package whisper

import "context"

type TranscriptionRequest struct {
	AudioPath string
	ModelPath string
	// Language is a whisper language code or "auto".
	Language string
}

// Engine runs one transcription to completion. Implementations must not
// retain AudioPath after returning; callers delete the file.
type Engine interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (string, error)
}

// EngineFunc adapts a plain function to Engine.
type EngineFunc func(ctx context.Context, req TranscriptionRequest) (string, error)

func (f EngineFunc) Transcribe(ctx context.Context, req TranscriptionRequest) (string, error) {
	return f(ctx, req)
}
