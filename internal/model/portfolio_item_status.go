package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	// PortfolioTemplateCertificationExam is the well-known template key for the
	// certification-exam portfolio item.
	PortfolioTemplateCertificationExam = "certification_exam"

	PortfolioStatusApproved = "approved"
)

// PortfolioItemStatus tracks the review state of one portfolio requirement for a
// student. The certification-exam item is auto-approved when an attempt passes.
type PortfolioItemStatus struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	StudentUserID uint           `json:"student_user_id" gorm:"not null;index:idx_portfolio_item,unique"`
	CohortID      uint           `json:"cohort_id" gorm:"not null;index:idx_portfolio_item,unique"`
	TemplateKey   string         `json:"template_key" gorm:"not null;index:idx_portfolio_item,unique"`
	Status        string         `json:"status" gorm:"not null"`
	ReviewedAt    *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
