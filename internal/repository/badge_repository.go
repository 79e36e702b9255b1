package repository

import (
	"kids_edu_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) ListAll() ([]model.Badge, error) {
	var badges []model.Badge
	err := r.DB.Order("id ASC").Find(&badges).Error
	return badges, err
}

func (r *BadgeRepository) ListByStudent(studentID string) ([]model.StudentBadge, error) {
	var list []model.StudentBadge
	err := r.DB.Preload("Badge").Where("student_id = ?", studentID).Order("earned_at ASC").Find(&list).Error
	return list, err
}

// Award 幂等授予，返回是否为新获得
func (r *BadgeRepository) Award(studentID string, badgeID uint, at time.Time) (bool, error) {
	sb := model.StudentBadge{StudentID: studentID, BadgeID: badgeID, EarnedAt: at}
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Omit("Badge").Create(&sb)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
