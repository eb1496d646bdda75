package repository

import (
	"github.com/khangnd/certiprep/internal/model"
	"gorm.io/gorm"
)

type ExamAnswerRepository interface {
	CountByAttemptID(attemptID uint) (int64, error)
}

type examAnswerRepository struct {
	db *gorm.DB
}

func NewExamAnswerRepository(db *gorm.DB) ExamAnswerRepository {
	return &examAnswerRepository{db: db}
}

// CountByAttemptID backs the scoring guard that detects a crash which left
// graded answers behind without the attempt row reaching submitted.
func (r *examAnswerRepository) CountByAttemptID(attemptID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.ExamAnswer{}).
		Where("exam_attempt_id = ?", attemptID).
		Count(&count).Error
	return count, err
}
