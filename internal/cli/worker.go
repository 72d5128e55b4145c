package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fmueller/voxworker/internal/audio"
	"github.com/fmueller/voxworker/internal/dispatch"
	"github.com/fmueller/voxworker/internal/rabbit"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWorkerCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume transcription requests from a RabbitMQ queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.runWorker(ctx)
		},
	}

	bindQueueFlags(cmd, app)
	bindTranscriptionFlags(cmd, app)
	bindScratchFlag(cmd, app)
	return cmd
}

func (a *appState) runWorker(ctx context.Context) error {
	cfg := a.config()
	log := a.log()

	tempDir, err := a.scratchDir()
	if err != nil {
		return err
	}

	transcriberFn := a.transcriberFn
	if transcriberFn == nil {
		transcriberFn = a.buildTranscriber
	}
	transcriber, err := transcriberFn(ctx)
	if err != nil {
		return err
	}

	dialFn := a.dialFn
	if dialFn == nil {
		dialFn = dialRabbit
	}
	bus, err := dialFn(ctx, rabbit.Config{
		URI:          cfg.RabbitMQURL,
		Queue:        cfg.Queue,
		Durable:      cfg.Durable,
		Prefetch:     cfg.Prefetch,
		DialAttempts: cfg.DialAttempts,
		RetryDelay:   cfg.RetryDelay,
	}, log)
	if err != nil {
		if isContextDone(err) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			log.Warn("failed to close broker connection", zap.Error(err))
		}
	}()

	dispatcher := dispatch.New(dispatch.Options{
		Queue:         cfg.Queue,
		Service:       cfg.Service,
		Transcriber:   transcriber,
		TempDir:       tempDir,
		ValidateAudio: audio.ValidateWAV,
		Publisher:     bus,
		Logger:        log,
	})

	log.Info("worker started",
		zap.String("queue", cfg.Queue),
		zap.Strings("commands", dispatcher.Registry().Commands()),
		zap.String("scratch_dir", tempDir),
	)

	worker := &dispatch.Worker{Source: bus, Dispatcher: dispatcher, Logger: log}
	if err := worker.Run(ctx); err != nil {
		return err
	}

	log.Info("worker stopped")
	return nil
}
