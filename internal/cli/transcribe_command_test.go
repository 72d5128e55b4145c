package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fmueller/voxworker/internal/dispatch"
	"github.com/stretchr/testify/require"
)

type transcriberFunc func(ctx context.Context, audioPath string) (string, error)

func (f transcriberFunc) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return f(ctx, audioPath)
}

func TestTranscribeCommandPrintsTranscript(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)
	var gotPath string
	app := &appState{
		transcribeFn: func(_ context.Context, audioPath string) (string, error) {
			gotPath = audioPath
			return "hello world", nil
		},
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"/tmp/audio.wav"})

	require.NoError(t, cmd.Execute())
	require.Equal(t, "/tmp/audio.wav", gotPath)
	require.Equal(t, "hello world\n", out.String())
}

func TestTranscribeCommandPrintsBlankTranscript(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)
	app := &appState{
		transcribeFn: func(_ context.Context, _ string) (string, error) {
			return "[BLANK_AUDIO]", nil
		},
	}

	cmd := newTranscribeCmd(app)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"/tmp/audio.wav"})

	require.NoError(t, cmd.Execute())
	require.Equal(t, "[BLANK_AUDIO]\n", out.String())
}

func TestTranscribeAudioUsesTranscriber(t *testing.T) {
	t.Parallel()

	audioPath := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(audioPath, monoWAV(make([]int16, 160)), 0o644))

	app := &appState{
		noProgress: true,
		transcriberFn: func(context.Context) (dispatch.Transcriber, error) {
			return transcriberFunc(func(_ context.Context, path string) (string, error) {
				require.Equal(t, audioPath, path)
				return "from engine", nil
			}), nil
		},
	}

	text, err := app.transcribeAudio(context.Background(), audioPath)
	require.NoError(t, err)
	require.Equal(t, "from engine", text)
}

func TestTranscribeAudioPropagatesSetupFailure(t *testing.T) {
	t.Parallel()

	audioPath := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(audioPath, []byte("RIFF"), 0o644))

	setupErr := errors.New("bundled engine not found")
	app := &appState{
		noProgress: true,
		transcriberFn: func(context.Context) (dispatch.Transcriber, error) {
			return nil, setupErr
		},
	}

	_, err := app.transcribeAudio(context.Background(), audioPath)
	require.ErrorIs(t, err, setupErr)
}
