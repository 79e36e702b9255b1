package model

import "gorm.io/datatypes"

// QuizProgress 测验进度，每个 (student, subject, topic, grade) 一行，覆盖写入
// QuestionsAnswered / CorrectAnswers 为题目下标列表；SelectedAnswers 与 QuestionsAnswered 一一对应
// swagger:model QuizProgress
type QuizProgress struct {
	BaseModel
	StudentID         string                   `gorm:"type:varchar(36);uniqueIndex:idx_quiz_progress_key" json:"studentId"`
	Subject           string                   `gorm:"size:64;uniqueIndex:idx_quiz_progress_key" json:"subject"`
	Topic             string                   `gorm:"size:191;uniqueIndex:idx_quiz_progress_key" json:"topic"`
	GradeLevel        int                      `gorm:"uniqueIndex:idx_quiz_progress_key" json:"gradeLevel"`
	Language          string                   `gorm:"size:10" json:"language"`
	CurrentQuestion   int                      `json:"currentQuestion"`
	QuestionCount     int                      `json:"questionCount"`
	QuestionsAnswered datatypes.JSONSlice[int] `json:"questionsAnswered"`
	CorrectAnswers    datatypes.JSONSlice[int] `json:"correctAnswers"`
	SelectedAnswers   datatypes.JSONSlice[int] `json:"selectedAnswers"`
	QuestionSnapshot  datatypes.JSON           `json:"-"`
	Score             int                      `json:"score"`
	IsCompleted       bool                     `gorm:"default:false" json:"isCompleted"`
	Version           int                      `gorm:"not null;default:0" json:"version"`
}

func (QuizProgress) TableName() string {
	return "quiz_progress"
}

func (p *QuizProgress) Key() ProgressKey {
	return ProgressKey{StudentID: p.StudentID, Subject: p.Subject, Topic: p.Topic, GradeLevel: p.GradeLevel}
}
