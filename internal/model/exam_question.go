package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionOption is one selectable choice, stored inside the Options JSON column.
type QuestionOption struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type ExamQuestion struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	ExamConfigID uint           `json:"exam_config_id" gorm:"not null;index"`
	Section      int            `json:"section" gorm:"not null"`
	OrderInExam  int            `json:"order_in_exam" gorm:"not null"`
	Prompt       string         `json:"prompt" gorm:"type:text;not null"`
	Options      datatypes.JSON `json:"options" gorm:"not null"`
	// CorrectKeys is the answer key set, order-independent. Never exposed to students.
	CorrectKeys datatypes.JSON `json:"-" gorm:"not null"`
	Points      int            `json:"points" gorm:"not null;default:1"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// CorrectKeySet decodes the answer key JSON column.
func (q *ExamQuestion) CorrectKeySet() ([]string, error) {
	var keys []string
	if err := json.Unmarshal(q.CorrectKeys, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// OptionList decodes the Options JSON column.
func (q *ExamQuestion) OptionList() ([]QuestionOption, error) {
	var opts []QuestionOption
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}
