package repository

import (
	"kids_edu_backend/internal/model"

	"gorm.io/gorm"
)

type QuizScoreRepository struct {
	DB *gorm.DB
}

func NewQuizScoreRepository(db *gorm.DB) *QuizScoreRepository {
	return &QuizScoreRepository{DB: db}
}

func (r *QuizScoreRepository) Create(s *model.QuizScore) error {
	return r.DB.Create(s).Error
}

func (r *QuizScoreRepository) ListByStudent(studentID string, limit int) ([]model.QuizScore, error) {
	var list []model.QuizScore
	err := r.DB.Where("student_id = ?", studentID).Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *QuizScoreRepository) CountPerfect(studentID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizScore{}).
		Where("student_id = ? AND score = max_score AND max_score > 0", studentID).
		Count(&count).Error
	return count, err
}

func (r *QuizScoreRepository) AveragePercentage(studentID string) (float64, error) {
	var avg *float64
	err := r.DB.Model(&model.QuizScore{}).
		Where("student_id = ?", studentID).
		Select("AVG(percentage)").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

// TopicAverage 按 (subject, topic) 聚合的平均得分
type TopicAverage struct {
	Subject    string  `json:"subject"`
	Topic      string  `json:"topic"`
	Average    float64 `json:"average"`
	Attempts   int64   `json:"attempts"`
	GradeLevel int     `json:"gradeLevel"`
}

// WeakTopics 平均分低于阈值的主题，最弱的在前
func (r *QuizScoreRepository) WeakTopics(studentID string, threshold float64, limit int) ([]TopicAverage, error) {
	var rows []TopicAverage
	err := r.DB.Model(&model.QuizScore{}).
		Select("subject, topic, MAX(grade_level) AS grade_level, AVG(percentage) AS average, COUNT(*) AS attempts").
		Where("student_id = ?", studentID).
		Group("subject, topic").
		Having("AVG(percentage) < ?", threshold).
		Order("average ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
