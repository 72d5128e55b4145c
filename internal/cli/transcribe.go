package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmueller/voxworker/internal/download"
	"github.com/fmueller/voxworker/internal/whisper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTranscribeCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe a local audio file once and print the text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcribeFn := app.transcribeFn
			if transcribeFn == nil {
				transcribeFn = app.transcribeAudio
			}

			transcript, err := transcribeFn(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), transcript)
			if isBlankTranscript(transcript) {
				app.log().Warn(noSpeechHint())
			}
			return nil
		},
	}

	bindTranscriptionFlags(cmd, app)
	return cmd
}

func (a *appState) transcribeAudio(ctx context.Context, audioPath string) (string, error) {
	audioPath = filepath.Clean(audioPath)
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("audio file not found: %w", err)
	}

	transcriberFn := a.transcriberFn
	if transcriberFn == nil {
		transcriberFn = a.buildTranscriber
	}
	transcriber, err := transcriberFn(ctx)
	if err != nil {
		return "", err
	}

	a.log().Info("transcribing...", zap.String("audio", audioPath), zap.String("language", a.config().Language))
	stopSpinner := startSpinner(ctx, os.Stderr, a.progressEnabled(), "Transcribing "+filepath.Base(audioPath))
	started := time.Now()

	transcript, err := transcriber.Transcribe(ctx, audioPath)
	stopSpinner()
	if err != nil {
		return "", err
	}
	a.log().Info("transcription finished", zap.Duration("elapsed", time.Since(started)))

	return transcript, nil
}

func (a *appState) ensureModelAvailable(ctx context.Context) (whisper.ResolvedModel, error) {
	modelDir, err := a.modelStorageDir()
	if err != nil {
		return whisper.ResolvedModel{}, err
	}

	cfg := a.config()
	resolved, err := whisper.ResolveModel(cfg.Model, modelDir)
	if err != nil {
		return whisper.ResolvedModel{}, err
	}

	if !resolved.NeedsDownload {
		return resolved, nil
	}

	if !cfg.AutoDownload {
		return whisper.ResolvedModel{}, fmt.Errorf("model %q is missing at %s; run `voxworker setup --model %s` or use --auto-download=true", resolved.Name, resolved.Path, resolved.Name)
	}

	a.log().Info("model not found, downloading", zap.String("model", resolved.Name), zap.Int("size_mib", resolved.SizeMiB), zap.String("destination", resolved.Path))
	if err := download.DownloadFile(ctx, download.Options{
		URL:            resolved.URL,
		Destination:    resolved.Path,
		ExpectedSHA256: resolved.SHA256,
		ChecksumURL:    resolved.SHA256URL,
		NoProgress:     a.noProgress,
		Logger:         a.log(),
	}); err != nil {
		return whisper.ResolvedModel{}, fmt.Errorf("download model %q: %w", resolved.Name, err)
	}

	resolved.NeedsDownload = false
	return resolved, nil
}

func sanitizeLanguage(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return "auto"
	}
	return trimmed
}
