package workers

import (
	"context"
	"log"
	"time"

	"quiz-arena-system/services"
)

// PollSweep runs the reconciliation sweep on a fixed ticker until ctx is
// cancelled. It bounds how long an abandoned match can sit unresolved when
// nobody opens the arena.
func PollSweep(ctx context.Context, sweep *services.SweepService, pollInterval time.Duration) {
	log.Println("Starting arena sweep polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Arena sweep polling stopped.")
			return
		case <-ticker.C:
			result, err := sweep.Sweep()
			if err != nil {
				log.Printf("❌ Sweep pass failed: %v", err)
				continue
			}
			if result.SettledCount == 0 && result.CancelledCount == 0 {
				continue
			}
			log.Printf("📥 Sweep pass resolved %d expired match(es), %d stale invitation(s).",
				result.SettledCount, result.CancelledCount)
		}
	}
}
