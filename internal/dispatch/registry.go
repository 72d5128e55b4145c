package dispatch

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

type HandlerFunc func(ctx context.Context, args Args) (Response, error)

// Registry maps command names to handlers. Handlers are registered during
// setup; Dispatch is not safe to call concurrently with Register.
type Registry struct {
	handlers map[string]HandlerFunc
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

func (r *Registry) Register(command string, handler HandlerFunc) {
	r.handlers[command] = handler
}

func (r *Registry) Commands() []string {
	commands := make([]string, 0, len(r.handlers))
	for command := range r.handlers {
		commands = append(commands, command)
	}
	sort.Strings(commands)
	return commands
}

// Dispatch runs the handler for command and always returns a Response.
// Handler errors and panics are converted into error responses here and
// nowhere else.
func (r *Registry) Dispatch(ctx context.Context, command string, args Args) (resp Response) {
	handler, ok := r.handlers[command]
	if !ok {
		r.logger.Warn("unknown pattern", zap.String("pattern", command))
		return Failure(fmt.Sprintf("Unknown pattern: %s", command))
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("handler panicked", zap.String("pattern", command), zap.Any("panic", recovered), zap.Stack("stack"))
			resp = Failure(internalFailureMessage)
		}
	}()

	resp, err := handler(ctx, args)
	if err != nil {
		r.logger.Warn("handler failed", zap.String("pattern", command), zap.Error(err))
		return Failure(publicMessage(err))
	}

	return resp
}
