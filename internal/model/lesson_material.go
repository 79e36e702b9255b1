package model

import "gorm.io/datatypes"

type ContentType string

const (
	ContentLesson ContentType = "lesson"
	ContentQuiz   ContentType = "quiz"
	ContentGame   ContentType = "game"
)

// LessonMaterial 缓存的 AI 生成内容（已规范化）
// swagger:model LessonMaterial
type LessonMaterial struct {
	BaseModel
	ContentType ContentType    `gorm:"size:20;uniqueIndex:idx_material_key" json:"contentType"`
	Subject     string         `gorm:"size:64;uniqueIndex:idx_material_key" json:"subject"`
	GradeLevel  int            `gorm:"uniqueIndex:idx_material_key" json:"gradeLevel"`
	Topic       string         `gorm:"size:191;uniqueIndex:idx_material_key" json:"topic"`
	Subtopic    string         `gorm:"size:191;uniqueIndex:idx_material_key" json:"subtopic"`
	Language    string         `gorm:"size:10;uniqueIndex:idx_material_key" json:"language"`
	Content     datatypes.JSON `json:"content"`
	ArchiveURL  string         `gorm:"size:255" json:"archiveUrl,omitempty"`
	Model       string         `gorm:"size:100" json:"model,omitempty"`
}

func (LessonMaterial) TableName() string {
	return "lesson_materials"
}
