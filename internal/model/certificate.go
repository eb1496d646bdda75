package model

import (
	"time"

	"gorm.io/gorm"
)

// Certificate is issued exactly once per (student, cohort), the first time any
// attempt for that pair passes. CertificateURL is filled in later by the
// external rendering service.
type Certificate struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	StudentUserID     uint           `json:"student_user_id" gorm:"not null;index:idx_cert_student_cohort,unique"`
	CohortID          uint           `json:"cohort_id" gorm:"not null;index:idx_cert_student_cohort,unique"`
	ExamAttemptID     uint           `json:"exam_attempt_id" gorm:"not null"`
	CertificateIDCode string         `json:"certificate_id_code" gorm:"not null;uniqueIndex"`
	CertificateURL    *string        `json:"certificate_url,omitempty"`
	IssuedAt          time.Time      `json:"issued_at" gorm:"not null"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}
