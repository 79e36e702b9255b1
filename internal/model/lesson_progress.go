package model

import "time"

// LessonProgress 课程章节的当前位置，每个 (student, subject, topic, grade) 一行
// swagger:model LessonProgress
type LessonProgress struct {
	BaseModel
	StudentID      string     `gorm:"type:varchar(36);uniqueIndex:idx_lesson_progress_key" json:"studentId"`
	Subject        string     `gorm:"size:64;uniqueIndex:idx_lesson_progress_key" json:"subject"`
	Topic          string     `gorm:"size:191;uniqueIndex:idx_lesson_progress_key" json:"topic"`
	GradeLevel     int        `gorm:"uniqueIndex:idx_lesson_progress_key" json:"gradeLevel"`
	CurrentChapter int        `json:"currentChapter"`
	TotalChapters  int        `json:"totalChapters"`
	Completed      bool       `gorm:"default:false" json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	Version        int        `gorm:"not null;default:0" json:"version"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

func (p *LessonProgress) Key() ProgressKey {
	return ProgressKey{StudentID: p.StudentID, Subject: p.Subject, Topic: p.Topic, GradeLevel: p.GradeLevel}
}
