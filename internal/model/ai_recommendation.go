package model

import "time"

// AIRecommendation AI 生成的学习建议
type AIRecommendation struct {
	BaseModel
	StudentID    string       `gorm:"type:varchar(36);index;not null" json:"studentId"`
	Subject      string       `gorm:"size:64" json:"subject"`
	Topic        string       `gorm:"size:191" json:"topic"`
	ActivityType ActivityType `gorm:"size:20" json:"activityType"`
	Reason       string       `gorm:"type:text" json:"reason"`
	Priority     int          `gorm:"default:0" json:"priority"`
	Completed    bool         `gorm:"default:false" json:"completed"`
	CompletedAt  *time.Time   `json:"completedAt,omitempty"`
}

func (AIRecommendation) TableName() string {
	return "ai_recommendations"
}
