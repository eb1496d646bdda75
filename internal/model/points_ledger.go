package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	PointsSourceTypeExam   = "exam"
	PointsReasonExamPassed = "exam_passed"

	// ExamPassPoints is the fixed award for passing the certification exam.
	ExamPassPoints = 100
)

// PointsLedgerEntry is append-only. Awards are deduplicated by
// (student, source_type, source_id), which makes retried awarding a no-op.
type PointsLedgerEntry struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	StudentUserID uint           `json:"student_user_id" gorm:"not null;index:idx_points_dedup,unique"`
	CohortID      uint           `json:"cohort_id" gorm:"not null;index"`
	Points        int            `json:"points" gorm:"not null"`
	Reason        string         `json:"reason" gorm:"not null"`
	SourceType    string         `json:"source_type" gorm:"not null;index:idx_points_dedup,unique"`
	SourceID      uint           `json:"source_id" gorm:"not null;index:idx_points_dedup,unique"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
