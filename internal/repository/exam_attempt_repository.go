package repository

import (
	"github.com/khangnd/certiprep/internal/model"
	"gorm.io/gorm"
)

type ExamAttemptRepository interface {
	Create(attempt *model.ExamAttempt) error
	Update(attempt *model.ExamAttempt) error
	FindByID(id uint) (*model.ExamAttempt, error)
	FindByIDWithDetails(id uint) (*model.ExamAttempt, error)
	FindAllByStudentAndCohort(studentUserID, cohortID uint) ([]model.ExamAttempt, error)
}

type examAttemptRepository struct {
	db *gorm.DB
}

func NewExamAttemptRepository(db *gorm.DB) ExamAttemptRepository {
	return &examAttemptRepository{db: db}
}

func (r *examAttemptRepository) Create(attempt *model.ExamAttempt) error {
	return r.db.Create(attempt).Error
}

func (r *examAttemptRepository) Update(attempt *model.ExamAttempt) error {
	return r.db.Save(attempt).Error
}

func (r *examAttemptRepository) FindByID(id uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *examAttemptRepository) FindByIDWithDetails(id uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	err := r.db.
		Preload("ExamConfig").
		Preload("Answers.Question").
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// FindAllByStudentAndCohort returns the full attempt history for the pair, oldest
// first, which is the order the eligibility evaluator expects.
func (r *examAttemptRepository) FindAllByStudentAndCohort(studentUserID, cohortID uint) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.db.
		Where("student_user_id = ? AND cohort_id = ?", studentUserID, cohortID).
		Order("attempt_number ASC").
		Find(&attempts).Error
	return attempts, err
}
