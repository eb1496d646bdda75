package repository

import (
	"github.com/khangnd/certiprep/internal/model"
	"gorm.io/gorm"
)

type PointsLedgerRepository interface {
	Create(entry *model.PointsLedgerEntry) error
	FindBySource(studentUserID uint, sourceType string, sourceID uint) (*model.PointsLedgerEntry, error)
	SumByStudentAndCohort(studentUserID, cohortID uint) (int64, error)
}

type pointsLedgerRepository struct {
	db *gorm.DB
}

func NewPointsLedgerRepository(db *gorm.DB) PointsLedgerRepository {
	return &pointsLedgerRepository{db: db}
}

func (r *pointsLedgerRepository) Create(entry *model.PointsLedgerEntry) error {
	return r.db.Create(entry).Error
}

func (r *pointsLedgerRepository) FindBySource(studentUserID uint, sourceType string, sourceID uint) (*model.PointsLedgerEntry, error) {
	var entry model.PointsLedgerEntry
	err := r.db.
		Where("student_user_id = ? AND source_type = ? AND source_id = ?", studentUserID, sourceType, sourceID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *pointsLedgerRepository) SumByStudentAndCohort(studentUserID, cohortID uint) (int64, error) {
	var total int64
	err := r.db.Model(&model.PointsLedgerEntry{}).
		Where("student_user_id = ? AND cohort_id = ?", studentUserID, cohortID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	return total, err
}
