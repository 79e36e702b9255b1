package service

import (
	"context"
	"errors"
	"fmt"
	"kids_edu_backend/internal/config"
	"kids_edu_backend/internal/content"
	"kids_edu_backend/internal/llm"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/repository"
	"kids_edu_backend/internal/util"
	"kids_edu_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 平均分低于该值的主题视为薄弱
const weakTopicThreshold = 70.0

type RecommendationService struct {
	RecommendationRepo *repository.RecommendationRepository
	ScoreRepo          *repository.QuizScoreRepository
	ActivityRepo       *repository.LearningActivityRepository
	Provider           llm.Provider
	Cfg                *config.Config
}

func NewRecommendationService(recommendationRepo *repository.RecommendationRepository, scoreRepo *repository.QuizScoreRepository,
	activityRepo *repository.LearningActivityRepository, provider llm.Provider, cfg *config.Config) *RecommendationService {
	return &RecommendationService{
		RecommendationRepo: recommendationRepo,
		ScoreRepo:          scoreRepo,
		ActivityRepo:       activityRepo,
		Provider:           provider,
		Cfg:                cfg,
	}
}

// Generate 根据薄弱主题生成推荐；AI 失败时退回规则推荐
func (s *RecommendationService) Generate(ctx context.Context, student *model.Student) ([]model.AIRecommendation, error) {
	weakRows, err := s.ScoreRepo.WeakTopics(student.ID, weakTopicThreshold, 5)
	if err != nil {
		return nil, err
	}
	weak := make([]content.TopicScore, len(weakRows))
	for i, w := range weakRows {
		weak[i] = content.TopicScore{Subject: w.Subject, Topic: w.Topic, Average: w.Average}
	}

	activities, err := s.ActivityRepo.ListByStudent(student.ID, "", 5)
	if err != nil {
		return nil, err
	}
	recent := make([]string, 0, len(activities))
	for _, a := range activities {
		if a.Summary != "" {
			recent = append(recent, a.Summary)
		} else {
			recent = append(recent, fmt.Sprintf("%s on %s (%d%%)", a.ActivityType, a.Topic, a.Progress))
		}
	}

	recs, err := s.ask(ctx, student, weak, recent)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Log.Warn("AI recommendations failed, using rule based", zap.String("student_id", student.ID), zap.Error(err))
		recs = content.FallbackRecommendations(weak)
	}
	if len(recs) == 0 {
		return nil, util.ErrContentUnavailable
	}

	rows := make([]model.AIRecommendation, len(recs))
	for i, r := range recs {
		subject := r.Subject
		if subject == "" && len(weak) > 0 {
			subject = weak[0].Subject
		}
		rows[i] = model.AIRecommendation{
			StudentID:    student.ID,
			Subject:      subject,
			Topic:        r.Topic,
			ActivityType: r.ActivityType,
			Reason:       r.Reason,
			Priority:     r.Priority,
		}
	}
	if err := s.RecommendationRepo.CreateBatch(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *RecommendationService) ask(ctx context.Context, student *model.Student, weak []content.TopicScore, recent []string) ([]content.Recommendation, error) {
	if s.Provider == nil {
		return nil, errors.New("no AI provider configured")
	}
	req := content.RecommendationRequest(student.GradeLevel, student.Language, weak, recent, s.Cfg.AI.MaxTokens)

	callCtx, cancel := context.WithTimeout(llm.WithPurpose(ctx, "recommendation"), s.Cfg.AI.Timeout())
	defer cancel()

	resp, err := s.Provider.Generate(callCtx, req)
	if err != nil {
		return nil, err
	}
	return content.NormalizeRecommendations(resp.Content)
}

func (s *RecommendationService) List(studentID string, includeCompleted bool) ([]model.AIRecommendation, error) {
	return s.RecommendationRepo.ListByStudent(studentID, includeCompleted)
}

// Complete 只能完成属于该学生的推荐
func (s *RecommendationService) Complete(studentID string, id uint) (*model.AIRecommendation, error) {
	rec, err := s.RecommendationRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && rec.StudentID != studentID) {
		return nil, util.ErrRecommendationNotFound
	}
	if err != nil {
		return nil, err
	}
	if rec.Completed {
		return rec, nil
	}

	now := time.Now()
	if err := s.RecommendationRepo.MarkCompleted(rec.ID, now); err != nil {
		return nil, err
	}
	rec.Completed = true
	rec.CompletedAt = &now
	return rec, nil
}
