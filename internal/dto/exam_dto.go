package dto

import "time"

// QuestionOptionDTO is one selectable choice shown to students.
type QuestionOptionDTO struct {
	Key  string `json:"key" binding:"required"`
	Text string `json:"text" binding:"required"`
}

// QuestionCreateDTO is used within ExamConfigCreateDTO for admin exam authoring.
type QuestionCreateDTO struct {
	Section     int                 `json:"section" binding:"required,min=1"`
	OrderInExam int                 `json:"order_in_exam" binding:"required,min=1"`
	Prompt      string              `json:"prompt" binding:"required"`
	Options     []QuestionOptionDTO `json:"options" binding:"required,min=2,dive"`
	CorrectKeys []string            `json:"correct_keys" binding:"required,min=1"`
	Points      int                 `json:"points" binding:"required,gt=0"`
}

// ExamConfigCreateDTO is for admins to author a new exam version with all of its
// questions in one request.
type ExamConfigCreateDTO struct {
	Title                          string              `json:"title" binding:"required"`
	Version                        int                 `json:"version" binding:"required,min=1"`
	AttemptsAllowed                int                 `json:"attempts_allowed" binding:"required,min=1"`
	TotalQuestions                 int                 `json:"total_questions" binding:"required,min=1"`
	QuestionsPerSection            int                 `json:"questions_per_section" binding:"required,min=1"`
	TimeLimitMinutes               int                 `json:"time_limit_minutes" binding:"required,min=1"`
	PassMarkPercent                int                 `json:"pass_mark_percent" binding:"required,min=1,max=100"`
	CooldownAfterAttempt2Hours     int                 `json:"cooldown_after_attempt2_hours"`
	CooldownAfterAttempt3FailHours int                 `json:"cooldown_after_attempt3_fail_hours"`
	UnlockWeek                     int                 `json:"unlock_week" binding:"required,min=1"`
	Questions                      []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

// QuestionResponseDTO is a question as shown to students. The answer key is
// deliberately absent.
type QuestionResponseDTO struct {
	ID          uint                `json:"id"`
	Section     int                 `json:"section"`
	OrderInExam int                 `json:"order_in_exam"`
	Prompt      string              `json:"prompt"`
	Options     []QuestionOptionDTO `json:"options"`
	Points      int                 `json:"points"`
}

// ExamConfigResponseDTO is the admin view of one exam version.
type ExamConfigResponseDTO struct {
	ID                             uint      `json:"id"`
	Title                          string    `json:"title"`
	Version                        int       `json:"version"`
	IsActive                       bool      `json:"is_active"`
	AttemptsAllowed                int       `json:"attempts_allowed"`
	TotalQuestions                 int       `json:"total_questions"`
	QuestionsPerSection            int       `json:"questions_per_section"`
	TimeLimitMinutes               int       `json:"time_limit_minutes"`
	PassMarkPercent                int       `json:"pass_mark_percent"`
	CooldownAfterAttempt2Hours     int       `json:"cooldown_after_attempt2_hours"`
	CooldownAfterAttempt3FailHours int       `json:"cooldown_after_attempt3_fail_hours"`
	UnlockWeek                     int       `json:"unlock_week"`
	CreatedAt                      time.Time `json:"created_at"`
}

// ExamViewDTO is the student-facing view of the active exam.
type ExamViewDTO struct {
	ConfigID         uint                  `json:"config_id"`
	Title            string                `json:"title"`
	TotalQuestions   int                   `json:"total_questions"`
	TimeLimitMinutes int                   `json:"time_limit_minutes"`
	PassMarkPercent  int                   `json:"pass_mark_percent"`
	Questions        []QuestionResponseDTO `json:"questions"`
}

// CohortCreateDTO is for admins to register a cohort.
type CohortCreateDTO struct {
	Name      string    `json:"name" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
}

// CohortResponseDTO is the admin view of a cohort.
type CohortResponseDTO struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	CreatedAt time.Time `json:"created_at"`
}
