package repository

import (
	"kids_edu_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaterialKey 缓存内容的查找键
type MaterialKey struct {
	ContentType model.ContentType
	Subject     string
	GradeLevel  int
	Topic       string
	Subtopic    string
	Language    string
}

type LessonMaterialRepository struct {
	DB *gorm.DB
}

func NewLessonMaterialRepository(db *gorm.DB) *LessonMaterialRepository {
	return &LessonMaterialRepository{DB: db}
}

func (r *LessonMaterialRepository) FindByKey(key MaterialKey) (*model.LessonMaterial, error) {
	var m model.LessonMaterial
	err := r.DB.Where("content_type = ? AND subject = ? AND grade_level = ? AND topic = ? AND subtopic = ? AND language = ?",
		key.ContentType, key.Subject, key.GradeLevel, key.Topic, key.Subtopic, key.Language).
		First(&m).Error
	return &m, err
}

// Upsert 同一键只保留一行，重复写入时覆盖内容
func (r *LessonMaterialRepository) Upsert(m *model.LessonMaterial) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "content_type"}, {Name: "subject"}, {Name: "grade_level"},
			{Name: "topic"}, {Name: "subtopic"}, {Name: "language"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"content", "archive_url", "model", "updated_at"}),
	}).Create(m).Error
}

// Delete 物理删除，避免软删除行占用唯一索引
func (r *LessonMaterialRepository) Delete(id uint) error {
	return r.DB.Unscoped().Delete(&model.LessonMaterial{}, id).Error
}
