package services

import (
	"encoding/json"
	"log"
	"math/rand"

	"quiz-arena-system/models"

	"gorm.io/gorm"
)

// QuizSize is the fixed number of questions every match shares
const QuizSize = 5

// QuestionService reads from the question bank snapshot
type QuestionService struct {
	DB *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{DB: db}
}

// Fetch returns count random questions for a difficulty. Fails only if the
// bank has fewer than count questions at that tier.
func (s *QuestionService) Fetch(difficulty string, count int) ([]models.QuestionBank, error) {
	var questions []models.QuestionBank
	if err := s.DB.Where("difficulty = ?", difficulty).Find(&questions).Error; err != nil {
		return nil, err
	}
	if len(questions) < count {
		return nil, ErrQuestionBankDry
	}
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	return questions[:count], nil
}

// ParseOptions decodes a question's stored options. The bank has been fed by
// several importers over time, so bad rows exist; a row that cannot be
// decoded yields nil rather than an error (callers skip it).
func ParseOptions(q models.QuestionBank) []string {
	if q.OptionsJSON == "" {
		return nil
	}
	var options []string
	if err := json.Unmarshal([]byte(q.OptionsJSON), &options); err != nil {
		log.Printf("⚠️ question %s has malformed options, skipping: %v", q.ID, err)
		return nil
	}
	return options
}
