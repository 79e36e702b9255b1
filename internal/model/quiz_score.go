package model

// QuizScore 每次完成测验的成绩
type QuizScore struct {
	BaseModel
	StudentID  string  `gorm:"type:varchar(36);index;not null" json:"studentId"`
	Subject    string  `gorm:"size:64" json:"subject"`
	Topic      string  `gorm:"size:191" json:"topic"`
	GradeLevel int     `json:"gradeLevel"`
	Score      int     `gorm:"not null" json:"score"`
	MaxScore   int     `gorm:"not null" json:"maxScore"`
	Percentage float64 `json:"percentage"`
	Stars      int     `json:"stars"`
}

func (QuizScore) TableName() string {
	return "quiz_scores"
}
