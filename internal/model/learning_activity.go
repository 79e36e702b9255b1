package model

import "time"

type ActivityType string

const (
	ActivityLesson ActivityType = "lesson"
	ActivityQuiz   ActivityType = "quiz"
	ActivityGame   ActivityType = "game"
)

// LearningActivity 学习活动日志，只追加不修改
// swagger:model LearningActivity
type LearningActivity struct {
	BaseModel
	StudentID        string       `gorm:"type:varchar(36);index;not null" json:"studentId"`
	ActivityType     ActivityType `gorm:"size:20;index" json:"activityType"`
	Subject          string       `gorm:"size:64" json:"subject"`
	Topic            string       `gorm:"size:191" json:"topic"`
	GradeLevel       int          `json:"gradeLevel"`
	Progress         int          `json:"progress"`
	Completed        bool         `gorm:"default:false" json:"completed"`
	StarsEarned      *int         `json:"starsEarned,omitempty"`
	RecommendationID *uint        `gorm:"index" json:"recommendationId,omitempty"`
	Summary          string       `gorm:"type:text" json:"summary,omitempty"`
	StartedAt        time.Time    `json:"startedAt"`
	CompletedAt      *time.Time   `json:"completedAt,omitempty"`
}

func (LearningActivity) TableName() string {
	return "learning_activities"
}
