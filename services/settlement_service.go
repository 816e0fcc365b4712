package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"quiz-arena-system/models"

	"gorm.io/gorm"
)

// SettlementService finalizes matches: computes the winner, distributes the
// pot and writes the settlement log. Settle is invoked from two places (the
// last grade call and the reconciliation sweep) and must pay out exactly
// once no matter how the two race.
type SettlementService struct {
	DB     *gorm.DB
	Wallet *WalletService
}

func NewSettlementService(db *gorm.DB, wallet *WalletService) *SettlementService {
	return &SettlementService{DB: db, Wallet: wallet}
}

// TrophyPerWin is the secondary-currency award for each winning participant
const TrophyPerWin int64 = 1

// Settle finalizes an active match. Non-submitters count as zero. Returns
// true if this call performed the settlement, false if the match was not
// active (someone else settled it, or it never started).
//
// The active→finished transition is an atomic compare-and-set inside the
// transaction; payouts only run after the CAS wins, so two concurrent callers
// cannot both pay.
func (s *SettlementService) Settle(matchID, reason string) (bool, error) {
	settled := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var match models.ArenaMatch
		if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if match.Status != models.MatchActive {
			return nil
		}

		var participants []models.ArenaParticipant
		if err := tx.Where("match_id = ?", matchID).Find(&participants).Error; err != nil {
			return err
		}

		var scoreA, scoreB int64
		for _, p := range participants {
			if p.Team == models.TeamA {
				scoreA += p.Score
			} else {
				scoreB += p.Score
			}
		}

		winnerTeam := models.WinnerDraw
		switch {
		case scoreA > scoreB:
			winnerTeam = string(models.TeamA)
		case scoreB > scoreA:
			winnerTeam = string(models.TeamB)
		}

		winner, winnerName := designateWinner(match, participants, winnerTeam)
		record := models.SettlementRecord{
			Winner:     winner,
			WinnerName: winnerName,
			Score:      fmt.Sprintf("%d-%d", scoreA, scoreB),
			Reason:     reason,
			Time:       time.Now().Format(time.RFC3339),
		}

		result := tx.Model(&models.ArenaMatch{}).
			Where("id = ? AND status = ?", matchID, models.MatchActive).
			Updates(map[string]interface{}{
				"status":         models.MatchFinished,
				"winner":         winner,
				"settlement_log": record.Marshal(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil // lost the race, the other caller pays out
		}

		if err := s.payOut(tx, match, participants, winnerTeam); err != nil {
			return err
		}
		settled = true
		log.Printf("⚖️ match %s settled: %s (%s, reason=%s)", matchID, winner, record.Score, reason)
		return nil
	})
	return settled, err
}

// payOut distributes the pot. Pot = stake × paying participants, computed
// here from the current participant set, never cached. A draw refunds each
// paying participant their exact stake; otherwise the pot splits evenly
// across the winning team's paying members (integer division, remainder
// undistributed) and each winner takes one trophy.
func (s *SettlementService) payOut(tx *gorm.DB, match models.ArenaMatch, participants []models.ArenaParticipant, winnerTeam string) error {
	var paying []models.ArenaParticipant
	for _, p := range participants {
		if p.Status.Paying() {
			paying = append(paying, p)
		}
	}
	pot := match.Stake * int64(len(paying))

	if winnerTeam == models.WinnerDraw {
		for _, p := range paying {
			if err := s.Wallet.Credit(tx, p.PlayerID, models.CurrencyPoints, match.Stake); err != nil {
				return err
			}
		}
		return nil
	}

	var winners []models.ArenaParticipant
	for _, p := range paying {
		if string(p.Team) == winnerTeam {
			winners = append(winners, p)
		}
	}
	if len(winners) == 0 {
		return nil
	}
	reward := pot / int64(len(winners))
	for _, w := range winners {
		if err := s.Wallet.Credit(tx, w.PlayerID, models.CurrencyPoints, reward); err != nil {
			return err
		}
		if err := s.Wallet.Credit(tx, w.PlayerID, models.CurrencyTrophies, TrophyPerWin); err != nil {
			return err
		}
	}
	return nil
}

// SettleIfComplete settles with reason "submitted" when every participant of
// the match has handed in. Called opportunistically after each grade.
func (s *SettlementService) SettleIfComplete(matchID string) (bool, error) {
	var outstanding int64
	err := s.DB.Model(&models.ArenaParticipant{}).
		Where("match_id = ? AND status <> ?", matchID, models.ParticipantSubmitted).
		Count(&outstanding).Error
	if err != nil {
		return false, err
	}
	if outstanding > 0 {
		return false, nil
	}
	return s.Settle(matchID, models.SettleReasonSubmitted)
}

// designateWinner maps the winning team to the stored winner designator:
// the player identity for duels, the team tag for squads, "Draw" for ties.
// winnerName is a representative member for display either way.
func designateWinner(match models.ArenaMatch, participants []models.ArenaParticipant, winnerTeam string) (winner, winnerName string) {
	if winnerTeam == models.WinnerDraw {
		return models.WinnerDraw, models.WinnerDraw
	}
	for _, p := range participants {
		if string(p.Team) == winnerTeam {
			winnerName = p.PlayerID
			break
		}
	}
	if match.Mode == models.ModeDuel {
		return winnerName, winnerName
	}
	return winnerTeam, winnerName
}
