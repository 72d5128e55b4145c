package cli

import (
	"strings"

	"github.com/fmueller/voxworker/internal/whisper"
)

func isBlankTranscript(transcript string) bool {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return true
	}

	return strings.EqualFold(trimmed, whisper.BlankAudioToken)
}

func noSpeechHint() string {
	return "No speech detected in the audio file. Check that it contains spoken audio and is not muted."
}
