// Package dispatch drives the transcription worker: it resolves which command
// an inbound message asks for, runs the matching handler and sends the
// response back to the caller when a reply destination is given.
package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Options struct {
	// Queue is the name the worker listens on.
	Queue       string
	Service     string
	Transcriber Transcriber
	TempDir     string
	// ValidateAudio checks a staged payload before transcription.
	ValidateAudio func(path string) error
	Publisher     Publisher
	Logger        *zap.Logger
}

type Dispatcher struct {
	resolver Resolver
	registry *Registry
	replier  Replier
	logger   *zap.Logger
}

func New(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := NewRegistry(logger)
	registry.Register(CommandHealthCheck, HealthCheck(opts.Service))
	if opts.Transcriber != nil {
		files := &FileHandler{
			Transcriber: opts.Transcriber,
			TempDir:     opts.TempDir,
			Validate:    opts.ValidateAudio,
			Logger:      logger,
		}
		registry.Register(CommandTranscribeFile, files.Handle)
	}

	return &Dispatcher{
		resolver: Resolver{Queue: opts.Queue},
		registry: registry,
		replier:  Replier{Publisher: opts.Publisher, Logger: logger},
		logger:   logger,
	}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Handle resolves and dispatches env. It never fails.
func (d *Dispatcher) Handle(ctx context.Context, env Envelope) Response {
	command, args := d.resolver.Resolve(env)
	return d.registry.Dispatch(ctx, command, args)
}

// Process handles env and replies when asked to. Only transport errors from
// the reply are returned.
func (d *Dispatcher) Process(ctx context.Context, env Envelope) error {
	log := d.logger.With(
		zap.String("job_id", uuid.NewString()),
		zap.String("routing_key", env.RoutingKey),
		zap.String("correlation_id", env.CorrelationID),
		zap.Uint64("delivery_tag", env.DeliveryTag),
	)

	started := time.Now()
	command, args := d.resolver.Resolve(env)
	log.Info("message received", zap.String("pattern", command))

	resp := d.registry.Dispatch(ctx, command, args)
	log.Info("message handled",
		zap.String("pattern", command),
		zap.String("status", string(resp.Status)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return d.replier.MaybeReply(ctx, env, resp)
}
