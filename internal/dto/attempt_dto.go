package dto

import "time"

// EligibilityResponseDTO tells the client whether a new attempt may start and,
// when a cooldown is running, the exact moment it ends so the UI can drive its
// countdown from it.
type EligibilityResponseDTO struct {
	Status            string     `json:"status"`
	Reason            string     `json:"reason,omitempty"`
	NextAttemptNumber int        `json:"next_attempt_number,omitempty"`
	WeeksRemaining    int        `json:"weeks_remaining,omitempty"`
	EligibleAt        *time.Time `json:"eligible_at,omitempty"`
	ActiveAttemptID   *uint      `json:"active_attempt_id,omitempty"`
}

// PrepareAttemptDTO identifies the student preparing a new attempt.
type PrepareAttemptDTO struct {
	UserID uint `json:"user_id" binding:"required"`
}

// AnswerSubmissionDTO is one answered question inside a submit or progress
// payload. SelectedKeys may be empty; unanswered questions grade as incorrect.
type AnswerSubmissionDTO struct {
	QuestionID   uint     `json:"question_id" binding:"required"`
	SelectedKeys []string `json:"selected_keys"`
}

// ProgressUpdateDTO saves the resume pointer and the answers currently held by
// the client so an expired attempt can be finalized with them.
type ProgressUpdateDTO struct {
	CurrentQuestionIndex int                   `json:"current_question_index" binding:"min=0"`
	Answers              []AnswerSubmissionDTO `json:"answers" binding:"dive"`
}

// AttemptSubmitDTO carries the final answers for grading.
type AttemptSubmitDTO struct {
	Answers []AnswerSubmissionDTO `json:"answers" binding:"dive"`
}

// AnswerResponseDTO is one graded answer in an attempt detail.
type AnswerResponseDTO struct {
	ID            uint                `json:"id"`
	QuestionID    uint                `json:"question_id"`
	Question      QuestionResponseDTO `json:"question,omitempty"`
	SubmittedKeys []string            `json:"submitted_keys"`
	IsCorrect     bool                `json:"is_correct"`
	PointsEarned  int                 `json:"points_earned"`
}

// AttemptDetailDTO is the full view of one attempt, including graded answers
// once the attempt is submitted.
type AttemptDetailDTO struct {
	ID                   uint                `json:"id"`
	StudentUserID        uint                `json:"student_user_id"`
	CohortID             uint                `json:"cohort_id"`
	ExamConfigID         uint                `json:"exam_config_id"`
	AttemptNumber        int                 `json:"attempt_number"`
	Status               string              `json:"status"`
	PreparedAt           time.Time           `json:"prepared_at"`
	StartedAt            *time.Time          `json:"started_at,omitempty"`
	SubmittedAt          *time.Time          `json:"submitted_at,omitempty"`
	ExpiresAt            *time.Time          `json:"expires_at,omitempty"`
	ScorePercent         *float64            `json:"score_percent,omitempty"`
	PassFlag             *bool               `json:"pass_flag,omitempty"`
	CurrentQuestionIndex int                 `json:"current_question_index"`
	Answers              []AnswerResponseDTO `json:"answers,omitempty"`
}

// AttemptSummaryDTO is one row in a student's attempt history.
type AttemptSummaryDTO struct {
	ID            uint       `json:"id"`
	AttemptNumber int        `json:"attempt_number"`
	Status        string     `json:"status"`
	PreparedAt    time.Time  `json:"prepared_at"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	ScorePercent  *float64   `json:"score_percent,omitempty"`
	PassFlag      *bool      `json:"pass_flag,omitempty"`
}

// PointsSummaryDTO is the student's accumulated points total within a cohort.
type PointsSummaryDTO struct {
	StudentUserID uint  `json:"student_user_id"`
	CohortID      uint  `json:"cohort_id"`
	TotalPoints   int64 `json:"total_points"`
}

// CertificateResponseDTO is the student view of an issued certificate. The URL
// stays empty until the rendering service has produced the document.
type CertificateResponseDTO struct {
	ID                uint      `json:"id"`
	StudentUserID     uint      `json:"student_user_id"`
	CohortID          uint      `json:"cohort_id"`
	CertificateIDCode string    `json:"certificate_id_code"`
	CertificateURL    *string   `json:"certificate_url,omitempty"`
	IssuedAt          time.Time `json:"issued_at"`
}
