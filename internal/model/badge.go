package model

import "time"

type BadgeCriteria string

const (
	CriteriaQuizzesCompleted BadgeCriteria = "quizzes_completed"
	CriteriaPerfectQuiz      BadgeCriteria = "perfect_quiz"
	CriteriaLessonsCompleted BadgeCriteria = "lessons_completed"
	CriteriaStarsEarned      BadgeCriteria = "stars_earned"
	CriteriaGamesPlayed      BadgeCriteria = "games_played"
)

// Badge 徽章定义
type Badge struct {
	BaseModel
	Code        string        `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name        string        `gorm:"size:100;not null" json:"name"`
	Description string        `gorm:"size:255" json:"description"`
	Icon        string        `gorm:"size:50" json:"icon"`
	Criteria    BadgeCriteria `gorm:"size:30" json:"criteria"`
	Threshold   int           `json:"threshold"`
}

func (Badge) TableName() string {
	return "badges"
}

// StudentBadge 学生获得的徽章
type StudentBadge struct {
	BaseModel
	StudentID string    `gorm:"type:varchar(36);uniqueIndex:idx_student_badge;not null" json:"studentId"`
	BadgeID   uint      `gorm:"uniqueIndex:idx_student_badge;not null" json:"badgeId"`
	Badge     Badge     `gorm:"foreignKey:BadgeID" json:"badge"`
	EarnedAt  time.Time `json:"earnedAt"`
}

func (StudentBadge) TableName() string {
	return "student_badges"
}

func DefaultBadges() []Badge {
	return []Badge{
		{Code: "first_quiz", Name: "Quiz Explorer", Description: "Finished your first quiz", Icon: "compass", Criteria: CriteriaQuizzesCompleted, Threshold: 1},
		{Code: "quiz_champion", Name: "Quiz Champion", Description: "Finished 10 quizzes", Icon: "trophy", Criteria: CriteriaQuizzesCompleted, Threshold: 10},
		{Code: "perfect_score", Name: "Perfect Score", Description: "Answered every question correctly", Icon: "star", Criteria: CriteriaPerfectQuiz, Threshold: 1},
		{Code: "first_lesson", Name: "Bookworm", Description: "Finished your first lesson", Icon: "book", Criteria: CriteriaLessonsCompleted, Threshold: 1},
		{Code: "star_collector", Name: "Star Collector", Description: "Collected 50 stars", Icon: "sparkles", Criteria: CriteriaStarsEarned, Threshold: 50},
		{Code: "game_player", Name: "Game Player", Description: "Played 5 learning games", Icon: "gamepad", Criteria: CriteriaGamesPlayed, Threshold: 5},
	}
}
