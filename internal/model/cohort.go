package model

import (
	"time"

	"gorm.io/gorm"
)

// Cohort is a fixed-membership group of students progressing together. The exam
// unlock gate is computed from the cohort's start date.
type Cohort struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Name      string         `json:"name" gorm:"not null;uniqueIndex"`
	StartDate time.Time      `json:"start_date" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CurrentWeek returns the 1-based program week at the given time. Week 1 covers
// the first seven days from the start date.
func (c *Cohort) CurrentWeek(now time.Time) int {
	if now.Before(c.StartDate) {
		return 0
	}
	return int(now.Sub(c.StartDate).Hours()/(24*7)) + 1
}
