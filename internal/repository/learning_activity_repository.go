package repository

import (
	"kids_edu_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type LearningActivityRepository struct {
	DB *gorm.DB
}

func NewLearningActivityRepository(db *gorm.DB) *LearningActivityRepository {
	return &LearningActivityRepository{DB: db}
}

func (r *LearningActivityRepository) Create(a *model.LearningActivity) error {
	return r.DB.Create(a).Error
}

// ListByStudent activityType 为空时返回全部类型
func (r *LearningActivityRepository) ListByStudent(studentID string, activityType model.ActivityType, limit int) ([]model.LearningActivity, error) {
	var list []model.LearningActivity
	query := r.DB.Where("student_id = ?", studentID)
	if activityType != "" {
		query = query.Where("activity_type = ?", activityType)
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *LearningActivityRepository) CountCompleted(studentID string, activityType model.ActivityType) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LearningActivity{}).
		Where("student_id = ? AND activity_type = ? AND completed = ?", studentID, activityType, true).
		Count(&count).Error
	return count, err
}

// CountSince 统计某时间之后的活动数
func (r *LearningActivityRepository) CountSince(studentID string, since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LearningActivity{}).
		Where("student_id = ? AND created_at >= ?", studentID, since).
		Count(&count).Error
	return count, err
}

type ActivityTypeCount struct {
	ActivityType model.ActivityType `json:"activityType"`
	Total        int64              `json:"total"`
	Completed    int64              `json:"completed"`
}

func (r *LearningActivityRepository) CountByType(studentID string) ([]ActivityTypeCount, error) {
	var rows []ActivityTypeCount
	err := r.DB.Model(&model.LearningActivity{}).
		Select("activity_type, COUNT(*) AS total, SUM(CASE WHEN completed THEN 1 ELSE 0 END) AS completed").
		Where("student_id = ?", studentID).
		Group("activity_type").
		Scan(&rows).Error
	return rows, err
}
