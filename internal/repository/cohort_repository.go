package repository

import (
	"github.com/khangnd/certiprep/internal/model"
	"gorm.io/gorm"
)

type CohortRepository interface {
	Create(cohort *model.Cohort) error
	FindByID(id uint) (*model.Cohort, error)
	FindAll() ([]model.Cohort, error)
}

type cohortRepository struct {
	db *gorm.DB
}

func NewCohortRepository(db *gorm.DB) CohortRepository {
	return &cohortRepository{db: db}
}

func (r *cohortRepository) Create(cohort *model.Cohort) error {
	return r.db.Create(cohort).Error
}

func (r *cohortRepository) FindByID(id uint) (*model.Cohort, error) {
	var cohort model.Cohort
	if err := r.db.First(&cohort, id).Error; err != nil {
		return nil, err
	}
	return &cohort, nil
}

func (r *cohortRepository) FindAll() ([]model.Cohort, error) {
	var cohorts []model.Cohort
	if err := r.db.Order("start_date DESC").Find(&cohorts).Error; err != nil {
		return nil, err
	}
	return cohorts, nil
}
