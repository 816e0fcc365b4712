package services

import (
	"log"
	"time"

	"quiz-arena-system/models"

	"gorm.io/gorm"
)

// SweepService is the lazy reconciliation pass: whenever a player opens the
// arena it settles active matches whose play window ran out and cancels
// pending invitations nobody answered. Safe to call repeatedly and
// concurrently: every transition underneath is compare-and-set guarded.
type SweepService struct {
	DB         *gorm.DB
	Arena      *ArenaService
	Settlement *SettlementService
}

func NewSweepService(db *gorm.DB, arena *ArenaService, settlement *SettlementService) *SweepService {
	return &SweepService{DB: db, Arena: arena, Settlement: settlement}
}

// SweepResult reports what one pass resolved
type SweepResult struct {
	SettledCount   int `json:"settled_count"`
	CancelledCount int `json:"cancelled_count"`
}

// Sweep resolves every time-expired match. A failure on one match is logged
// and the pass moves on; the next sweep retries it.
func (s *SweepService) Sweep() (*SweepResult, error) {
	result := &SweepResult{}
	now := time.Now()

	var expiredActive []models.ArenaMatch
	err := s.DB.
		Where("status = ? AND play_expires_at IS NOT NULL AND play_expires_at < ?", models.MatchActive, now).
		Find(&expiredActive).Error
	if err != nil {
		return nil, err
	}
	for _, m := range expiredActive {
		settled, err := s.Settlement.Settle(m.ID, models.SettleReasonExpired)
		if err != nil {
			log.Printf("❌ [SWEEP] failed to settle expired match %s: %v", m.ID, err)
			continue
		}
		if settled {
			result.SettledCount++
		}
	}

	var expiredPending []models.ArenaMatch
	err = s.DB.
		Where("status = ? AND invite_expires_at < ?", models.MatchPending, now).
		Find(&expiredPending).Error
	if err != nil {
		return nil, err
	}
	for _, m := range expiredPending {
		cancelled, err := s.Arena.CancelExpired(m.ID)
		if err != nil {
			log.Printf("❌ [SWEEP] failed to cancel expired invitation %s: %v", m.ID, err)
			continue
		}
		if cancelled {
			result.CancelledCount++
		}
	}

	if result.SettledCount > 0 || result.CancelledCount > 0 {
		log.Printf("🧹 [SWEEP] settled %d, cancelled %d", result.SettledCount, result.CancelledCount)
	}
	return result, nil
}
