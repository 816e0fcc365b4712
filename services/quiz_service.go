package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"quiz-arena-system/models"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// QuizService hands out the shared question set of a match and grades
// submissions. Fairness rule: one set per match, served identically to every
// participant, with answer keys stripped.
type QuizService struct {
	DB         *gorm.DB
	Questions  *QuestionService
	Settlement *SettlementService
}

func NewQuizService(db *gorm.DB, questions *QuestionService, settlement *SettlementService) *QuizService {
	return &QuizService{DB: db, Questions: questions, Settlement: settlement}
}

// QuizQuestion is what a participant sees: never the answer key
type QuizQuestion struct {
	ID      string   `json:"id"`
	Subject string   `json:"subject,omitempty"`
	Content string   `json:"content"`
	Options []string `json:"options"`
}

// GetQuiz returns the match's shared question set, assigning it on first
// call. Only paying participants of an active match may look.
func (s *QuizService) GetQuiz(matchID, playerID string) ([]QuizQuestion, error) {
	var match models.ArenaMatch
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if match.Status != models.MatchActive {
		return nil, ErrNotActive
	}

	var p models.ArenaParticipant
	err := s.DB.Where("match_id = ? AND player_id = ?", matchID, playerID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !p.Status.Paying()) {
		return nil, ErrNotParticipant
	}
	if err != nil {
		return nil, err
	}

	assigned, err := s.assignedQuestions(matchID)
	if err != nil {
		return nil, err
	}
	if len(assigned) == 0 {
		assignErr := s.assignQuestions(&match)
		assigned, err = s.assignedQuestions(matchID)
		if err != nil {
			return nil, err
		}
		if len(assigned) == 0 {
			// Nothing got assigned, so the failure was real, not a race
			if assignErr != nil {
				return nil, assignErr
			}
			return nil, fmt.Errorf("quiz assignment for match %s produced no questions", matchID)
		}
		if assignErr != nil {
			log.Printf("ℹ️ quiz for match %s assigned concurrently, reusing existing set", match.ID)
		}
	}

	quiz := make([]QuizQuestion, 0, len(assigned))
	for _, q := range assigned {
		quiz = append(quiz, QuizQuestion{
			ID:      q.ID,
			Subject: q.Subject,
			Content: q.Content,
			Options: ParseOptions(q),
		})
	}
	return quiz, nil
}

// assignQuestions pins a fresh random set to the match. If two participants
// open the quiz at the same time the unique (match_id, sort_order) index lets
// only one set through; the caller rereads and decides whether the failure
// was a race or a real one.
func (s *QuizService) assignQuestions(match *models.ArenaMatch) error {
	selected, err := s.Questions.Fetch(match.Difficulty, QuizSize)
	if err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for i, q := range selected {
			row := models.MatchQuestion{
				ID:         uuid.NewString(),
				MatchID:    match.ID,
				QuestionID: q.ID,
				SortOrder:  i,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *QuizService) assignedQuestions(matchID string) ([]models.QuestionBank, error) {
	var questions []models.QuestionBank
	err := s.DB.Model(&models.QuestionBank{}).
		Joins("JOIN match_questions ON match_questions.question_id = question_banks.id").
		Where("match_questions.match_id = ?", matchID).
		Order("match_questions.sort_order ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GradeResult is what a submitter gets back
type GradeResult struct {
	Score       int64              `json:"score"`
	MatchStatus models.MatchStatus `json:"match_status"`
}

// Grade scores a participant's answers against the match's assigned set and
// flips them to submitted. Wrong answers just score zero; a malformed
// question is skipped, never fatal. Re-grading is refused. When this was the
// last outstanding submission the settlement engine runs immediately.
func (s *QuizService) Grade(matchID, playerID string, answers map[string]string) (*GradeResult, error) {
	var score int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var match models.ArenaMatch
		if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotEligible
			}
			return err
		}
		if match.Status != models.MatchActive {
			return ErrNotEligible
		}

		var p models.ArenaParticipant
		err := tx.Where("match_id = ? AND player_id = ?", matchID, playerID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEligible
		}
		if err != nil {
			return err
		}
		if p.Status != models.ParticipantAccepted {
			return ErrNotEligible
		}

		assigned, err := s.assignedQuestionsTx(tx, matchID)
		if err != nil {
			return err
		}
		for _, q := range assigned {
			if q.AnswerKey == "" {
				log.Printf("⚠️ question %s has no answer key, skipping", q.ID)
				continue
			}
			given, ok := answers[q.ID]
			if !ok {
				continue
			}
			if NormalizeAnswer(given) == NormalizeAnswer(q.AnswerKey) {
				score++
			}
		}

		now := time.Now()
		result := tx.Model(&models.ArenaParticipant{}).
			Where("id = ? AND status = ?", p.ID, models.ParticipantAccepted).
			Updates(map[string]interface{}{
				"status":       models.ParticipantSubmitted,
				"score":        score,
				"submitted_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotEligible // concurrent duplicate submission
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Last submitter triggers settlement. The sweep covers us if this fails.
	if _, err := s.Settlement.SettleIfComplete(matchID); err != nil {
		log.Printf("❌ settlement check for match %s failed: %v", matchID, err)
	}

	var match models.ArenaMatch
	if err := s.DB.First(&match, "id = ?", matchID).Error; err != nil {
		return nil, err
	}
	return &GradeResult{Score: score, MatchStatus: match.Status}, nil
}

func (s *QuizService) assignedQuestionsTx(tx *gorm.DB, matchID string) ([]models.QuestionBank, error) {
	var questions []models.QuestionBank
	err := tx.Model(&models.QuestionBank{}).
		Joins("JOIN match_questions ON match_questions.question_id = question_banks.id").
		Where("match_questions.match_id = ?", matchID).
		Order("match_questions.sort_order ASC").
		Find(&questions).Error
	return questions, err
}

// NormalizeAnswer compares answers case- and whitespace-insensitively,
// with Unicode case folding so accented content grades correctly.
// A Caser holds transform state, so each call gets its own.
func NormalizeAnswer(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
