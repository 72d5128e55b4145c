package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Publisher delivers a reply body to a destination, stamped with the
// caller's correlation id.
type Publisher interface {
	Publish(ctx context.Context, destination string, body []byte, correlationID string) error
}

type Replier struct {
	Publisher Publisher
	Logger    *zap.Logger
}

// MaybeReply publishes resp to env.ReplyTo. Envelopes without a reply
// destination are fire-and-forget. Publish errors are returned untouched in
// meaning and never retried.
func (r Replier) MaybeReply(ctx context.Context, env Envelope, resp Response) error {
	if env.ReplyTo == "" {
		if r.Logger != nil {
			r.Logger.Debug("no reply destination; dropping response", zap.String("status", string(resp.Status)))
		}
		return nil
	}

	if r.Publisher == nil {
		return errors.New("reply requested but no publisher configured")
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}

	if err := r.Publisher.Publish(ctx, env.ReplyTo, body, env.CorrelationID); err != nil {
		return fmt.Errorf("publish reply to %s: %w", env.ReplyTo, err)
	}
	return nil
}
