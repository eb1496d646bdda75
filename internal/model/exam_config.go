package model

import (
	"time"

	"gorm.io/gorm"
)

// ExamConfig is one versioned rule set for the certification exam. Exactly one
// config is active at a time; attempts keep a reference to the config they were
// prepared under so later edits never change grading rules retroactively.
type ExamConfig struct {
	ID                             uint           `gorm:"primarykey" json:"id"`
	Title                          string         `json:"title" gorm:"not null"`
	Version                        int            `json:"version" gorm:"not null;default:1"`
	IsActive                       bool           `json:"is_active" gorm:"not null;default:false;index"`
	AttemptsAllowed                int            `json:"attempts_allowed" gorm:"not null;default:4"`
	TotalQuestions                 int            `json:"total_questions" gorm:"not null"`
	QuestionsPerSection            int            `json:"questions_per_section" gorm:"not null"`
	TimeLimitMinutes               int            `json:"time_limit_minutes" gorm:"not null"`
	PassMarkPercent                int            `json:"pass_mark_percent" gorm:"not null"`
	CooldownAfterAttempt2Hours     int            `json:"cooldown_after_attempt2_hours" gorm:"not null;default:24"`
	CooldownAfterAttempt3FailHours int            `json:"cooldown_after_attempt3_fail_hours" gorm:"not null;default:48"`
	UnlockWeek                     int            `json:"unlock_week" gorm:"not null;default:1"`
	Questions                      []ExamQuestion `json:"questions,omitempty" gorm:"foreignKey:ExamConfigID"`
	CreatedAt                      time.Time      `json:"created_at"`
	UpdatedAt                      time.Time      `json:"updated_at"`
	DeletedAt                      gorm.DeletedAt `gorm:"index" json:"-"`
}
