package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AttemptStatus enumerates the attempt lifecycle states.
type AttemptStatus string

const (
	AttemptStatusPrepared   AttemptStatus = "prepared"
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
)

// DraftAnswer is a not-yet-graded answer held on the attempt so that an expired
// attempt can be finalized server-side with whatever the student had selected.
type DraftAnswer struct {
	QuestionID   uint     `json:"question_id"`
	SelectedKeys []string `json:"selected_keys"`
}

// ExamAttempt is one student's timed pass at the certification exam. Attempts are
// append-only history; at most one attempt per (student, cohort) may be in
// prepared or in_progress at a time.
type ExamAttempt struct {
	ID            uint          `gorm:"primarykey" json:"id"`
	StudentUserID uint          `json:"student_user_id" gorm:"not null;index:idx_attempt_student_cohort"`
	CohortID      uint          `json:"cohort_id" gorm:"not null;index:idx_attempt_student_cohort"`
	Cohort        Cohort        `json:"-" gorm:"foreignKey:CohortID"`
	ExamConfigID  uint          `json:"exam_config_id" gorm:"not null;index"`
	ExamConfig    ExamConfig    `json:"-" gorm:"foreignKey:ExamConfigID"`
	AttemptNumber int           `json:"attempt_number" gorm:"not null"`
	Status        AttemptStatus `json:"status" gorm:"not null;default:'prepared';index"`

	PreparedAt  time.Time  `json:"prepared_at" gorm:"not null"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`

	// Set once at grading time, immutable afterwards.
	ScorePercent *float64 `json:"score_percent,omitempty"`
	PassFlag     *bool    `json:"pass_flag,omitempty"`

	CurrentQuestionIndex int            `json:"current_question_index" gorm:"not null;default:0"`
	DraftAnswers         datatypes.JSON `json:"-"`

	Answers   []ExamAnswer   `json:"answers,omitempty" gorm:"foreignKey:ExamAttemptID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Active reports whether the attempt still occupies the single active slot.
func (a *ExamAttempt) Active() bool {
	return a.Status == AttemptStatusPrepared || a.Status == AttemptStatusInProgress
}

// Passed reports whether the attempt was graded as passing.
func (a *ExamAttempt) Passed() bool {
	return a.PassFlag != nil && *a.PassFlag
}

// Expired reports whether an in_progress attempt has run out its timer.
func (a *ExamAttempt) Expired(now time.Time) bool {
	return a.Status == AttemptStatusInProgress && a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}

// DraftAnswerList decodes the saved draft answers, returning an empty slice when
// nothing was saved yet.
func (a *ExamAttempt) DraftAnswerList() ([]DraftAnswer, error) {
	if len(a.DraftAnswers) == 0 {
		return nil, nil
	}
	var drafts []DraftAnswer
	if err := json.Unmarshal(a.DraftAnswers, &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}
