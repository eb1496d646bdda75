package repository

import (
	"github.com/khangnd/certiprep/internal/model"
	"gorm.io/gorm"
)

type PortfolioItemRepository interface {
	Create(item *model.PortfolioItemStatus) error
	Update(item *model.PortfolioItemStatus) error
	FindByStudentCohortTemplate(studentUserID, cohortID uint, templateKey string) (*model.PortfolioItemStatus, error)
}

type portfolioItemRepository struct {
	db *gorm.DB
}

func NewPortfolioItemRepository(db *gorm.DB) PortfolioItemRepository {
	return &portfolioItemRepository{db: db}
}

func (r *portfolioItemRepository) Create(item *model.PortfolioItemStatus) error {
	return r.db.Create(item).Error
}

func (r *portfolioItemRepository) Update(item *model.PortfolioItemStatus) error {
	return r.db.Save(item).Error
}

func (r *portfolioItemRepository) FindByStudentCohortTemplate(studentUserID, cohortID uint, templateKey string) (*model.PortfolioItemStatus, error) {
	var item model.PortfolioItemStatus
	err := r.db.
		Where("student_user_id = ? AND cohort_id = ? AND template_key = ?", studentUserID, cohortID, templateKey).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}
