package repository

import (
	"github.com/khangnd/certiprep/internal/model"
	"gorm.io/gorm"
)

type CertificateRepository interface {
	Create(cert *model.Certificate) error
	Update(cert *model.Certificate) error
	FindByStudentAndCohort(studentUserID, cohortID uint) (*model.Certificate, error)
}

type certificateRepository struct {
	db *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) Create(cert *model.Certificate) error {
	return r.db.Create(cert).Error
}

func (r *certificateRepository) Update(cert *model.Certificate) error {
	return r.db.Save(cert).Error
}

func (r *certificateRepository) FindByStudentAndCohort(studentUserID, cohortID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.db.
		Where("student_user_id = ? AND cohort_id = ?", studentUserID, cohortID).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}
