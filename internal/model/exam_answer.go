package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExamAnswer is one graded answer row, written exactly once at grading time.
// Correctness is never recomputed after it is persisted.
type ExamAnswer struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	ExamAttemptID uint           `json:"exam_attempt_id" gorm:"not null;index"`
	QuestionID    uint           `json:"question_id" gorm:"not null;index"`
	Question      ExamQuestion   `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	SubmittedKeys datatypes.JSON `json:"submitted_keys"`
	IsCorrect     bool           `json:"is_correct" gorm:"not null"`
	PointsEarned  int            `json:"points_earned" gorm:"not null"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// SubmittedKeySet decodes the submitted key JSON column.
func (a *ExamAnswer) SubmittedKeySet() ([]string, error) {
	if len(a.SubmittedKeys) == 0 {
		return nil, nil
	}
	var keys []string
	if err := json.Unmarshal(a.SubmittedKeys, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}
