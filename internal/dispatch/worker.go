package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Delivery is an envelope together with its acknowledgement.
type Delivery struct {
	Envelope Envelope
	Ack      func() error
}

// Source hands out the next envelope, blocking until one is available.
type Source interface {
	Next(ctx context.Context) (Delivery, error)
}

// Worker pulls one delivery at a time, processes it to completion and only
// then acknowledges it. Error responses still count as processed.
type Worker struct {
	Source     Source
	Dispatcher *Dispatcher
	Logger     *zap.Logger
}

// Run returns nil once ctx is cancelled while waiting for the next delivery.
// Cancellation never interrupts a delivery that is already being processed.
// Any transport failure ends the loop with an error.
func (w *Worker) Run(ctx context.Context) error {
	log := w.Logger
	if log == nil {
		log = zap.NewNop()
	}

	processCtx := context.WithoutCancel(ctx)
	for {
		delivery, err := w.Source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				log.Info("worker stopping", zap.Error(ctx.Err()))
				return nil
			}
			return fmt.Errorf("receive message: %w", err)
		}

		if err := w.Dispatcher.Process(processCtx, delivery.Envelope); err != nil {
			return err
		}

		if delivery.Ack != nil {
			if err := delivery.Ack(); err != nil {
				return fmt.Errorf("ack message %d: %w", delivery.Envelope.DeliveryTag, err)
			}
		}
	}
}
