package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fmueller/voxworker/internal/config"
	"github.com/fmueller/voxworker/internal/httpapi"
	"github.com/spf13/cobra"
)

func newServeCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve transcriptions of uploaded audio over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := app.config()
			tempDir, err := app.scratchDir()
			if err != nil {
				return err
			}

			transcriberFn := app.transcriberFn
			if transcriberFn == nil {
				transcriberFn = app.buildTranscriber
			}
			transcriber, err := transcriberFn(ctx)
			if err != nil {
				return err
			}

			srv := httpapi.New(httpapi.Options{
				Transcriber:    transcriber,
				TempDir:        tempDir,
				MaxUploadBytes: cfg.MaxUploadBytes,
				Logger:         app.log(),
			})
			return srv.ListenAndServe(ctx, cfg.HTTPAddr)
		},
	}

	cmd.Flags().StringVar(&app.flags.HTTPAddr, "addr", app.flags.HTTPAddr, "Listen address (env "+config.EnvHTTPAddr+")")
	cmd.Flags().Int64Var(&app.flags.MaxUploadBytes, "max-upload-bytes", app.flags.MaxUploadBytes, "Largest accepted upload in bytes")
	bindTranscriptionFlags(cmd, app)
	bindScratchFlag(cmd, app)
	return cmd
}
