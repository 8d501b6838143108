package quiz

import (
	"context"
	"time"
)

// RunCountdown calls tick once per interval until ctx is cancelled or tick
// reports that the countdown is over. It blocks; run it in a goroutine.
func RunCountdown(ctx context.Context, interval time.Duration, tick func() bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if tick() {
				return
			}
		}
	}
}
