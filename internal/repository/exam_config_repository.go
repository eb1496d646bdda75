package repository

import (
	"github.com/khangnd/certiprep/internal/model"
	"gorm.io/gorm"
)

type ExamConfigRepository interface {
	Create(config *model.ExamConfig) error
	FindByID(id uint) (*model.ExamConfig, error)
	FindByIDWithQuestions(id uint) (*model.ExamConfig, error)
	FindActive() (*model.ExamConfig, error)
	FindActiveWithQuestions() (*model.ExamConfig, error)
	FindAll() ([]model.ExamConfig, error)
	Activate(id uint) error
}

type examConfigRepository struct {
	db *gorm.DB
}

func NewExamConfigRepository(db *gorm.DB) ExamConfigRepository {
	return &examConfigRepository{db: db}
}

func (r *examConfigRepository) Create(config *model.ExamConfig) error {
	// GORM creates the associated questions when config.Questions is populated.
	return r.db.Create(config).Error
}

func (r *examConfigRepository) FindByID(id uint) (*model.ExamConfig, error) {
	var config model.ExamConfig
	if err := r.db.First(&config, id).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *examConfigRepository) FindByIDWithQuestions(id uint) (*model.ExamConfig, error) {
	var config model.ExamConfig
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("exam_questions.order_in_exam ASC")
	}).First(&config, id).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *examConfigRepository) FindActive() (*model.ExamConfig, error) {
	var config model.ExamConfig
	if err := r.db.Where("is_active = ?", true).First(&config).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *examConfigRepository) FindActiveWithQuestions() (*model.ExamConfig, error) {
	var config model.ExamConfig
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("exam_questions.order_in_exam ASC")
	}).Where("is_active = ?", true).First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *examConfigRepository) FindAll() ([]model.ExamConfig, error) {
	var configs []model.ExamConfig
	if err := r.db.Order("created_at DESC").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// Activate makes the given config the single active one. Deactivation and
// activation happen in one transaction so there is never zero or two active
// configs visible to readers.
func (r *examConfigRepository) Activate(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ExamConfig{}).Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
			return err
		}
		res := tx.Model(&model.ExamConfig{}).Where("id = ?", id).Update("is_active", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
