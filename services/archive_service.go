package services

import (
	"encoding/json"
	"fmt"
	"time"

	"quiz-arena-system/models"
	"quiz-arena-system/utils"

	"gorm.io/gorm"
)

// ArchiveService exports finished-match history to R2-compatible storage.
// Matches are never deleted from the primary store; the archive is a
// convenience snapshot for reporting.
type ArchiveService struct {
	DB *gorm.DB
}

func NewArchiveService(db *gorm.DB) *ArchiveService {
	return &ArchiveService{DB: db}
}

type archivedMatch struct {
	MatchID    string                   `json:"match_id"`
	Code       string                   `json:"code"`
	Mode       models.MatchMode         `json:"mode"`
	Difficulty string                   `json:"difficulty"`
	Stake      int64                    `json:"stake"`
	CreatedBy  string                   `json:"created_by"`
	Winner     string                   `json:"winner"`
	Settlement *models.SettlementRecord `json:"settlement,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
}

// ExportHistory uploads every match finished since the cutoff as one JSON
// object and returns its URL.
func (s *ArchiveService) ExportHistory(since time.Time) (string, int, error) {
	var matches []models.ArenaMatch
	err := s.DB.
		Where("status = ? AND updated_at >= ?", models.MatchFinished, since).
		Order("updated_at ASC").
		Find(&matches).Error
	if err != nil {
		return "", 0, err
	}

	archived := make([]archivedMatch, 0, len(matches))
	for _, m := range matches {
		entry := archivedMatch{
			MatchID:    m.ID,
			Code:       m.Code,
			Mode:       m.Mode,
			Difficulty: m.Difficulty,
			Stake:      m.Stake,
			CreatedBy:  m.CreatedBy,
			Winner:     m.Winner,
			CreatedAt:  m.CreatedAt,
		}
		if m.SettlementLog != "" {
			var record models.SettlementRecord
			if json.Unmarshal([]byte(m.SettlementLog), &record) == nil {
				entry.Settlement = &record
			}
		}
		archived = append(archived, entry)
	}

	key := fmt.Sprintf("arena/history/%s.json", time.Now().UTC().Format("2006-01-02T15-04-05"))
	url, err := utils.UploadJSONToR2(key, map[string]interface{}{
		"exported_at": time.Now().UTC().Format(time.RFC3339),
		"since":       since.UTC().Format(time.RFC3339),
		"count":       len(archived),
		"matches":     archived,
	})
	if err != nil {
		return "", 0, err
	}
	return url, len(archived), nil
}
