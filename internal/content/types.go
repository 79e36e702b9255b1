package content

import (
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/quiz"
)

// Request 内容生成请求，字段与 AI 内容函数的入参一致
type Request struct {
	ContentType    model.ContentType `json:"contentType"`
	Subject        string            `json:"subject" binding:"required"`
	GradeLevel     int               `json:"gradeLevel" binding:"min=0,max=12"`
	Topic          string            `json:"topic" binding:"required"`
	Subtopic       string            `json:"subtopic,omitempty"`
	Language       string            `json:"language"`
	QuestionCount  int               `json:"questionCount,omitempty"`
	EnhancedParams map[string]any    `json:"enhancedParams,omitempty"`
}

// Section 课程的一个章节
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Example string `json:"example,omitempty"`
}

// Lesson 规范化后的课程
type Lesson struct {
	Title        string    `json:"title"`
	Introduction string    `json:"introduction"`
	MainContent  []Section `json:"mainContent"`
	Activities   []string  `json:"activities"`
	Summary      string    `json:"summary"`
	FunFacts     []string  `json:"funFacts"`
}

// Chapters 章节数，课程进度以此为分母
func (l *Lesson) Chapters() int {
	return len(l.MainContent)
}

// QuizContent 规范化后的测验
type QuizContent struct {
	Title     string          `json:"title"`
	Questions []quiz.Question `json:"questions"`
}

// GameItem 游戏中的一个回合
type GameItem struct {
	Prompt  string   `json:"prompt"`
	Answer  string   `json:"answer"`
	Options []string `json:"options,omitempty"`
	Hint    string   `json:"hint,omitempty"`
}

// Game 规范化后的小游戏
type Game struct {
	Title        string     `json:"title"`
	GameType     string     `json:"gameType"`
	Instructions string     `json:"instructions"`
	Items        []GameItem `json:"items"`
}
