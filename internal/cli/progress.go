package cli

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

const spinnerTick = 120 * time.Millisecond

// startSpinner animates an indeterminate bar on w until the returned func is
// called or ctx ends. The returned func is safe to call more than once.
func startSpinner(ctx context.Context, w io.Writer, enabled bool, description string) func() {
	if !enabled {
		return func() {}
	}

	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSpinnerType(11),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		defer func() { _ = bar.Finish() }()

		_ = bar.Add(1)
		ticker := time.NewTicker(spinnerTick)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopCh)
			<-doneCh
		})
	}
}
