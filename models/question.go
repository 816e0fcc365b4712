package models

// QuestionBank is the local snapshot of the question repository.
// Authoring happens elsewhere; this service only reads.
type QuestionBank struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Subject     string `gorm:"index" json:"subject"`
	Difficulty  string `gorm:"index;not null" json:"difficulty"`
	Content     string `gorm:"type:text;not null" json:"content"`
	OptionsJSON string `gorm:"type:text" json:"options_json"` // JSON array of answer options
	AnswerKey   string `gorm:"not null" json:"-"`             // never serialized to clients
	Explanation string `gorm:"type:text" json:"explanation,omitempty"`

	Timestamps
}

// MatchQuestion pins one question into a match's shared quiz. Every
// participant of the match is served the same rows, in SortOrder.
type MatchQuestion struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID    string `gorm:"not null;index;uniqueIndex:idx_match_slot" json:"match_id"`
	QuestionID string `gorm:"not null" json:"question_id"`
	SortOrder  int    `gorm:"not null;default:0;uniqueIndex:idx_match_slot" json:"sort_order"`

	Timestamps
}
