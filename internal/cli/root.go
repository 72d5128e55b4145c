package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fmueller/voxworker/internal/config"
	"github.com/fmueller/voxworker/internal/dispatch"
	"github.com/fmueller/voxworker/internal/logging"
	"github.com/fmueller/voxworker/internal/platform"
	"github.com/fmueller/voxworker/internal/rabbit"
	"github.com/fmueller/voxworker/internal/version"
	"github.com/fmueller/voxworker/internal/whisper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// messageBus is the queue side of the worker: it yields deliveries and
// carries replies back.
type messageBus interface {
	dispatch.Source
	dispatch.Publisher
	Close() error
}

type appState struct {
	configPath string
	verbose    bool
	jsonLogs   bool
	noProgress bool

	// flags receives flag values; only flags the user set are copied into cfg.
	flags config.Config
	cfg   *config.Config

	logger    *zap.Logger
	lookupEnv func(string) (string, bool)

	transcribeFn  func(ctx context.Context, audioPath string) (string, error)
	transcriberFn func(ctx context.Context) (dispatch.Transcriber, error)
	dialFn        func(ctx context.Context, cfg rabbit.Config, logger *zap.Logger) (messageBus, error)
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(newAppState())
}

func newAppState() *appState {
	app := &appState{
		flags:     *config.Default(),
		lookupEnv: os.LookupEnv,
	}
	app.transcribeFn = app.transcribeAudio
	app.transcriberFn = app.buildTranscriber
	app.dialFn = dialRabbit
	return app
}

func newRootCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "voxworker",
		Short:         "Transcribe audio from a RabbitMQ queue or HTTP uploads with a bundled whisper engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs, Component: cmd.Name()})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.logger = logger
			return app.loadConfig(cmd.Flags())
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.PersistentFlags().StringVar(&app.configPath, "config", "", "Path to a YAML config file (env "+config.EnvConfigPath+")")
	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", false, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", false, "Enable JSON logging")
	cmd.PersistentFlags().BoolVar(&app.noProgress, "no-progress", false, "Disable progress indicators")

	cmd.AddCommand(newWorkerCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindQueueFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.flags.RabbitMQURL, "rabbitmq-url", app.flags.RabbitMQURL, "AMQP URL of the broker (env "+config.EnvRabbitMQURL+")")
	cmd.Flags().StringVar(&app.flags.Queue, "queue", app.flags.Queue, "Queue to consume transcription requests from (env "+config.EnvQueue+")")
	cmd.Flags().BoolVar(&app.flags.Durable, "durable", app.flags.Durable, "Declare the queue as durable")
	cmd.Flags().IntVar(&app.flags.Prefetch, "prefetch", app.flags.Prefetch, "Unacknowledged deliveries the broker may push")
	cmd.Flags().IntVar(&app.flags.DialAttempts, "dial-attempts", app.flags.DialAttempts, "Connection attempts before giving up")
	cmd.Flags().DurationVar(&app.flags.RetryDelay, "retry-delay", app.flags.RetryDelay, "Delay between connection attempts")
	cmd.Flags().StringVar(&app.flags.Service, "service", app.flags.Service, "Service name reported by health_check")
}

func bindModelFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.flags.Model, "model", app.flags.Model, "Model name or model file path")
	cmd.Flags().StringVar(&app.flags.ModelDir, "model-dir", app.flags.ModelDir, "Directory where models are stored")
}

func bindTranscriptionFlags(cmd *cobra.Command, app *appState) {
	bindModelFlags(cmd, app)
	cmd.Flags().StringVar(&app.flags.Language, "language", app.flags.Language, "Language code (auto|en|de|...) for transcription")
	cmd.Flags().BoolVar(&app.flags.AutoDownload, "auto-download", app.flags.AutoDownload, "Automatically download missing models")
	cmd.Flags().BoolVar(&app.flags.SilenceGate, "silence-gate", app.flags.SilenceGate, "Detect near-silent WAV audio and skip transcription")
	cmd.Flags().Float64Var(&app.flags.SilenceDBFS, "silence-threshold-dbfs", app.flags.SilenceDBFS, "Silence gate threshold in dBFS")
}

func bindScratchFlag(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.flags.ScratchDir, "scratch-dir", app.flags.ScratchDir, "Directory for temporary audio files (env "+config.EnvScratchDir+")")
}

// loadConfig layers defaults, the config file, the environment and the flags
// the user set, in that order.
func (a *appState) loadConfig(flags *pflag.FlagSet) error {
	lookup := a.lookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	path := strings.TrimSpace(a.configPath)
	if path == "" {
		if v, ok := lookup(config.EnvConfigPath); ok {
			path = strings.TrimSpace(v)
		}
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
		a.log().Debug("config file loaded", zap.String("path", path))
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return err
	}

	flags.Visit(func(f *pflag.Flag) {
		cfg.Overlay(&a.flags, f.Name)
	})

	cfg.Language = sanitizeLanguage(cfg.Language)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.cfg = cfg
	return nil
}

func (a *appState) config() *config.Config {
	if a.cfg == nil {
		a.cfg = config.Default()
	}
	return a.cfg
}

func (a *appState) buildTranscriber(ctx context.Context) (dispatch.Transcriber, error) {
	engine, err := whisper.NewBundledEngine(a.log())
	if err != nil {
		return nil, err
	}

	model, err := a.ensureModelAvailable(ctx)
	if err != nil {
		return nil, err
	}

	cfg := a.config()
	return &whisper.FileTranscriber{
		Engine:      engine,
		ModelPath:   model.Path,
		Language:    cfg.Language,
		SilenceGate: cfg.SilenceGate,
		SilenceDBFS: cfg.SilenceDBFS,
		Logger:      a.log(),
	}, nil
}

func (a *appState) modelStorageDir() (string, error) {
	dir, err := platform.ResolveModelDir(a.config().ModelDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory %s: %w", dir, err)
	}
	return dir, nil
}

func (a *appState) scratchDir() (string, error) {
	return platform.ResolveScratchDir(a.config().ScratchDir)
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func dialRabbit(ctx context.Context, cfg rabbit.Config, logger *zap.Logger) (messageBus, error) {
	client, err := rabbit.Dial(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func isContextDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
