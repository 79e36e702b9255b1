package repository

import (
	"errors"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type QuizProgressRepository struct {
	DB *gorm.DB
}

func NewQuizProgressRepository(db *gorm.DB) *QuizProgressRepository {
	return &QuizProgressRepository{DB: db}
}

func (r *QuizProgressRepository) FindByKey(key model.ProgressKey) (*model.QuizProgress, error) {
	var p model.QuizProgress
	err := r.DB.Where("student_id = ? AND subject = ? AND topic = ? AND grade_level = ?",
		key.StudentID, key.Subject, key.Topic, key.GradeLevel).
		First(&p).Error
	return &p, err
}

func (r *QuizProgressRepository) ListByStudent(studentID string, onlyIncomplete bool) ([]model.QuizProgress, error) {
	var list []model.QuizProgress
	query := r.DB.Where("student_id = ?", studentID)
	if onlyIncomplete {
		query = query.Where("is_completed = ?", false)
	}
	err := query.Order("updated_at DESC").Find(&list).Error
	return list, err
}

func (r *QuizProgressRepository) Create(p *model.QuizProgress) error {
	p.Version = 1
	err := r.DB.Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrVersionConflict
	}
	return err
}

// UpdateVersioned 条件更新：id 与 version 都匹配才写入，成功后版本号加一
func (r *QuizProgressRepository) UpdateVersioned(p *model.QuizProgress) error {
	result := r.DB.Model(&model.QuizProgress{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"language":           p.Language,
			"current_question":   p.CurrentQuestion,
			"question_count":     p.QuestionCount,
			"questions_answered": p.QuestionsAnswered,
			"correct_answers":    p.CorrectAnswers,
			"selected_answers":   p.SelectedAnswers,
			"question_snapshot":  p.QuestionSnapshot,
			"score":              p.Score,
			"is_completed":       p.IsCompleted,
			"version":            gorm.Expr("version + 1"),
			"updated_at":         time.Now(),
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
