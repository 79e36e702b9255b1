package repository

import (
	"errors"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type LessonProgressRepository struct {
	DB *gorm.DB
}

func NewLessonProgressRepository(db *gorm.DB) *LessonProgressRepository {
	return &LessonProgressRepository{DB: db}
}

func (r *LessonProgressRepository) FindByKey(key model.ProgressKey) (*model.LessonProgress, error) {
	var p model.LessonProgress
	err := r.DB.Where("student_id = ? AND subject = ? AND topic = ? AND grade_level = ?",
		key.StudentID, key.Subject, key.Topic, key.GradeLevel).
		First(&p).Error
	return &p, err
}

func (r *LessonProgressRepository) ListByStudent(studentID string) ([]model.LessonProgress, error) {
	var list []model.LessonProgress
	err := r.DB.Where("student_id = ?", studentID).Order("updated_at DESC").Find(&list).Error
	return list, err
}

// Create 首次写入；唯一键冲突说明并发创建
func (r *LessonProgressRepository) Create(p *model.LessonProgress) error {
	p.Version = 1
	err := r.DB.Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrVersionConflict
	}
	return err
}

// UpdateVersioned 仅当版本号未变时更新
func (r *LessonProgressRepository) UpdateVersioned(p *model.LessonProgress) error {
	result := r.DB.Model(&model.LessonProgress{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"current_chapter": p.CurrentChapter,
			"total_chapters":  p.TotalChapters,
			"completed":       p.Completed,
			"completed_at":    p.CompletedAt,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return util.ErrVersionConflict
	}
	p.Version++
	return nil
}
