package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsBlankTranscriptOnEngineOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		output string
		blank  bool
	}{
		{output: "", blank: true},
		{output: "\n", blank: true},
		{output: "[BLANK_AUDIO]\n", blank: true},
		{output: "  [Blank_Audio]  ", blank: true},
		{output: "[BLANK_AUDIO] thanks for calling", blank: false},
		{output: " Please hold the line.", blank: false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.blank, isBlankTranscript(tt.output), "%q", tt.output)
	}
}

func TestWorkerLanguageFlagIsNormalized(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":     "auto",
		"  ":   "auto",
		" PT ": "pt",
		"de":   "de",
		"Auto": "auto",
	}

	for input, want := range tests {
		app := newAppState()
		app.lookupEnv = envLookup(nil)

		cmd := newWorkerCmd(app)
		require.NoError(t, cmd.ParseFlags([]string{"--language", input}))
		require.NoError(t, app.loadConfig(cmd.Flags()))
		require.Equal(t, want, app.config().Language, "%q", input)
	}
}
