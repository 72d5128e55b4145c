package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fmueller/voxworker/internal/download"
	"github.com/fmueller/voxworker/internal/whisper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSetupCmd(app *appState) *cobra.Command {
	var (
		force bool
		list  bool
	)

	cmd := &cobra.Command{
		Use:   "setup [model...]",
		Short: "Install speech models so workers start without downloading",
		Long: "Install catalog models into the model directory ahead of running workers.\n" +
			"Without arguments the configured --model is installed.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			modelDir, err := app.modelStorageDir()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				return printModelCatalog(out, modelDir)
			}

			refs := args
			if len(refs) == 0 {
				refs = []string{app.config().Model}
			}
			for _, ref := range refs {
				model, fetched, err := app.installModel(cmd.Context(), ref, modelDir, force)
				if err != nil {
					return err
				}
				state := "ready"
				if fetched {
					state = "fetched"
				}
				fmt.Fprintf(out, "%-8s %-10s %s\n", state, model.Name, model.Path)
			}
			return nil
		},
	}

	bindModelFlags(cmd, app)
	cmd.Flags().BoolVar(&force, "force", false, "Download again even when a verified copy is installed")
	cmd.Flags().BoolVar(&list, "list", false, "List catalog models and whether they are installed")

	return cmd
}

// installModel makes sure the catalog model ref is present and matches its
// checksum. It reports whether a download happened.
func (a *appState) installModel(ctx context.Context, ref, modelDir string, force bool) (whisper.ResolvedModel, bool, error) {
	resolved, err := whisper.ResolveModel(ref, modelDir)
	if err != nil {
		return whisper.ResolvedModel{}, false, err
	}
	if resolved.IsCustomPath {
		return whisper.ResolvedModel{}, false, fmt.Errorf("setup installs catalog models; %s is a local file workers can use directly via --model", resolved.Path)
	}

	checksum := resolved.SHA256
	if checksum == "" && resolved.SHA256URL != "" {
		checksum, err = download.ResolveExpectedChecksum(ctx, resolved.SHA256URL, filepath.Base(resolved.Path), nil)
		if err != nil {
			return whisper.ResolvedModel{}, false, fmt.Errorf("resolve checksum for model %s: %w", resolved.Name, err)
		}
	}

	if !resolved.NeedsDownload && !force && checksum != "" {
		if err := download.VerifyFileChecksum(resolved.Path, checksum); err != nil {
			a.log().Warn("installed model failed verification; fetching again", zap.String("model", resolved.Name), zap.Error(err))
			resolved.NeedsDownload = true
		}
	}
	if !resolved.NeedsDownload && !force {
		a.log().Debug("model ready", zap.String("model", resolved.Name), zap.String("path", resolved.Path))
		return resolved, false, nil
	}

	a.log().Info("fetching model", zap.String("model", resolved.Name), zap.Int("size_mib", resolved.SizeMiB), zap.Bool("forced", force), zap.String("path", resolved.Path))
	if err := download.DownloadFile(ctx, download.Options{
		URL:            resolved.URL,
		Destination:    resolved.Path,
		ExpectedSHA256: checksum,
		ChecksumURL:    resolved.SHA256URL,
		NoProgress:     a.noProgress,
		Logger:         a.log(),
	}); err != nil {
		return whisper.ResolvedModel{}, false, fmt.Errorf("download model %s: %w", resolved.Name, err)
	}

	resolved.NeedsDownload = false
	return resolved, true, nil
}

func printModelCatalog(out io.Writer, modelDir string) error {
	for _, name := range whisper.ModelNames() {
		model, _ := whisper.LookupModel(name)

		state := "installed"
		_, err := os.Stat(filepath.Join(modelDir, model.FileName))
		switch {
		case errors.Is(err, os.ErrNotExist):
			state = "missing"
		case err != nil:
			return fmt.Errorf("stat model %s: %w", name, err)
		}

		if _, err := fmt.Fprintf(out, "%-10s %6d MiB  %s\n", model.Name, model.SizeMiB, state); err != nil {
			return err
		}
	}
	return nil
}
