package service

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"kids_edu_backend/internal/config"
	"kids_edu_backend/internal/llm"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/repository"
	"kids_edu_backend/internal/testutil"
	"kids_edu_backend/internal/util"

	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	provider *llm.MockProvider

	content         *ContentService
	students        *StudentService
	badges          *BadgeService
	activity        *ActivityService
	quiz            *QuizService
	recommendations *RecommendationService
	dashboard       *DashboardService

	parent  model.User
	teacher model.User
	student model.Student
}

func testConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			Provider:       "mock",
			MaxAttempts:    2,
			TimeoutSeconds: 5,
			MaxTokens:      1000,
		},
		Quiz: config.QuizConfig{
			DefaultQuestions:  3,
			MaxQuestions:      10,
			GuestRatio:        0.3,
			GuestMinimum:      2,
			SessionTTLMinutes: 30,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	cfg := testConfig()
	provider := llm.NewMockProvider()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	materialRepo := repository.NewLessonMaterialRepository(db)
	lessonRepo := repository.NewLessonProgressRepository(db)
	quizRepo := repository.NewQuizProgressRepository(db)
	activityRepo := repository.NewLearningActivityRepository(db)
	scoreRepo := repository.NewQuizScoreRepository(db)
	recRepo := repository.NewRecommendationRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)

	env := &testEnv{db: db, cfg: cfg, provider: provider}
	env.content = NewContentService(materialRepo, provider, nil, nil, cfg)
	env.students = NewStudentService(studentRepo, userRepo)
	env.badges = NewBadgeService(badgeRepo, activityRepo, scoreRepo, studentRepo)
	env.activity = NewActivityService(activityRepo, lessonRepo, recRepo, env.badges)
	env.quiz = NewQuizService(env.content, env.students, quizRepo, scoreRepo, activityRepo, studentRepo,
		env.badges, NewMemorySessionStore(cfg.Quiz.SessionTTL()), cfg.Quiz)
	env.recommendations = NewRecommendationService(recRepo, scoreRepo, activityRepo, provider, cfg)
	env.dashboard = NewDashboardService(studentRepo, activityRepo, scoreRepo, quizRepo, lessonRepo, recRepo, badgeRepo)

	env.parent, env.teacher, env.student = testutil.SeedFamily(t, db)
	return env
}

func (e *testEnv) parentClaims() *util.Claims {
	return &util.Claims{UserID: e.parent.ID, Role: model.Parent, Email: e.parent.Email}
}

func (e *testEnv) teacherClaims() *util.Claims {
	return &util.Claims{UserID: e.teacher.ID, Role: model.Teacher, Email: e.teacher.Email}
}

// quizJSON n 道题，正确答案依次为 0,1,2,3,0...
func quizJSON(n int) json.RawMessage {
	questions := make([]map[string]any, n)
	for i := range questions {
		questions[i] = map[string]any{
			"question":      fmt.Sprintf("Question %d?", i+1),
			"questionType":  "multiple_choice",
			"options":       []string{"a", "b", "c", "d"},
			"correctAnswer": i % 4,
			"explanation":   "because",
		}
	}
	raw, _ := json.Marshal(map[string]any{"title": "Fractions quiz", "questions": questions})
	return raw
}

func lessonJSON(title string) json.RawMessage {
	raw, _ := json.Marshal(map[string]any{
		"title":        title,
		"introduction": "Let's learn!",
		"mainContent": []map[string]any{
			{"title": "Halves", "content": "Cut a pizza in two.", "example": "1/2"},
			{"title": "Quarters", "content": "Cut it again.", "example": "1/4"},
		},
		"activities": []string{"Fold a paper"},
		"summary":    "Fractions are parts of a whole.",
		"funFacts":   []string{"Pizza is round"},
	})
	return raw
}

func (e *testEnv) addScore(t *testing.T, subject, topic string, score, max int) {
	t.Helper()
	s := model.QuizScore{
		StudentID:  e.student.ID,
		Subject:    subject,
		Topic:      topic,
		GradeLevel: e.student.GradeLevel,
		Score:      score,
		MaxScore:   max,
		Percentage: float64(score) * 100 / float64(max),
	}
	if err := e.db.Create(&s).Error; err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) addActivity(t *testing.T, activityType model.ActivityType, completed bool, at time.Time) {
	t.Helper()
	a := model.LearningActivity{
		StudentID:    e.student.ID,
		ActivityType: activityType,
		Subject:      "math",
		Topic:        "fractions",
		Completed:    completed,
		StartedAt:    at,
	}
	if err := e.db.Create(&a).Error; err != nil {
		t.Fatal(err)
	}
}
