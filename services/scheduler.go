// services/scheduler.go
package services

import (
	"log"
	"time"

	"quiz-arena-system/utils"

	"github.com/go-co-op/gocron/v2"
)

// StartArchiveScheduler uploads the previous day's finished matches to R2
// once a day. Skipped entirely when archive storage is not configured.
func (s *ArchiveService) StartArchiveScheduler() {
	if !utils.R2Configured() {
		log.Println("ℹ️ R2 not configured — history archive scheduler disabled")
		return
	}

	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			url, count, err := s.ExportHistory(time.Now().Add(-24 * time.Hour))
			if err != nil {
				log.Printf("[Scheduler] history archive failed: %v", err)
				return
			}
			log.Printf("🗄️ Archived %d finished match(es) to %s", count, url)
		}),
	)
	log.Println("✅ Daily history archive running")
}
