package repository

import (
	"kids_edu_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type RecommendationRepository struct {
	DB *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{DB: db}
}

func (r *RecommendationRepository) CreateBatch(recs []model.AIRecommendation) error {
	if len(recs) == 0 {
		return nil
	}
	return r.DB.Create(&recs).Error
}

func (r *RecommendationRepository) ListByStudent(studentID string, includeCompleted bool) ([]model.AIRecommendation, error) {
	var list []model.AIRecommendation
	query := r.DB.Where("student_id = ?", studentID)
	if !includeCompleted {
		query = query.Where("completed = ?", false)
	}
	err := query.Order("priority DESC, created_at DESC").Find(&list).Error
	return list, err
}

func (r *RecommendationRepository) FindByID(id uint) (*model.AIRecommendation, error) {
	var rec model.AIRecommendation
	err := r.DB.First(&rec, id).Error
	return &rec, err
}

func (r *RecommendationRepository) MarkCompleted(id uint, at time.Time) error {
	return r.DB.Model(&model.AIRecommendation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"completed": true, "completed_at": at}).
		Error
}
