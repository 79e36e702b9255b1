package service

import (
	"errors"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/repository"
	"kids_edu_backend/internal/util"
	"kids_edu_backend/pkg/logger"
	"kids_edu_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ActivityService struct {
	ActivityRepo       *repository.LearningActivityRepository
	LessonProgressRepo *repository.LessonProgressRepository
	RecommendationRepo *repository.RecommendationRepository
	Badges             *BadgeService
}

func NewActivityService(activityRepo *repository.LearningActivityRepository, lessonProgressRepo *repository.LessonProgressRepository,
	recommendationRepo *repository.RecommendationRepository, badges *BadgeService) *ActivityService {
	return &ActivityService{
		ActivityRepo:       activityRepo,
		LessonProgressRepo: lessonProgressRepo,
		RecommendationRepo: recommendationRepo,
		Badges:             badges,
	}
}

type ActivityInput struct {
	ActivityType     model.ActivityType `json:"activityType" binding:"required,oneof=lesson quiz game"`
	Subject          string             `json:"subject" binding:"required"`
	Topic            string             `json:"topic" binding:"required"`
	GradeLevel       int                `json:"gradeLevel"`
	Progress         int                `json:"progress" binding:"min=0,max=100"`
	Completed        bool               `json:"completed"`
	StarsEarned      *int               `json:"starsEarned" binding:"omitempty,min=0,max=5"`
	RecommendationID *uint              `json:"recommendationId"`
	Summary          string             `json:"summary"`
}

// ActivityResult 一次活动写入的结果
type ActivityResult struct {
	Activity    *model.LearningActivity `json:"activity,omitempty"`
	Progress    *model.LessonProgress   `json:"lessonProgress,omitempty"`
	NewBadges   []model.Badge           `json:"newBadges,omitempty"`
	Persistence WriteResult             `json:"persistence"`
}

// RecordActivity 追加一条活动日志；完成时检查徽章并关闭对应的推荐
func (s *ActivityService) RecordActivity(student *model.Student, in ActivityInput) (*ActivityResult, error) {
	now := time.Now()
	a := &model.LearningActivity{
		StudentID:        student.ID,
		ActivityType:     in.ActivityType,
		Subject:          in.Subject,
		Topic:            in.Topic,
		GradeLevel:       gradeOr(in.GradeLevel, student.GradeLevel),
		Progress:         in.Progress,
		Completed:        in.Completed,
		StarsEarned:      in.StarsEarned,
		RecommendationID: in.RecommendationID,
		Summary:          in.Summary,
		StartedAt:        now,
	}
	if in.Completed {
		a.CompletedAt = &now
		a.Progress = 100
	}

	if err := s.ActivityRepo.Create(a); err != nil {
		monitoring.ProgressWrites.WithLabelValues("activity", string(WriteFailed)).Inc()
		return nil, err
	}
	monitoring.ProgressWrites.WithLabelValues("activity", string(WriteOK)).Inc()

	res := &ActivityResult{Activity: a, Persistence: WriteResult{Status: WriteOK, Version: 1}}
	if in.Completed {
		res.NewBadges = s.afterCompletion(student.ID, in.RecommendationID)
	}
	return res, nil
}

type LessonAdvanceInput struct {
	Subject       string `json:"subject" binding:"required"`
	Topic         string `json:"topic" binding:"required"`
	GradeLevel    int    `json:"gradeLevel"`
	Chapter       int    `json:"chapter" binding:"min=0"`
	TotalChapters int    `json:"totalChapters" binding:"required,min=1"`
	// Version 客户端持有的版本号；0 表示不做并发检查
	Version int `json:"version"`
}

// AdvanceLesson 更新课程当前章节；读完最后一章时记一条完成活动
func (s *ActivityService) AdvanceLesson(student *model.Student, in LessonAdvanceInput) (*ActivityResult, error) {
	key := model.ProgressKey{
		StudentID:  student.ID,
		Subject:    in.Subject,
		Topic:      in.Topic,
		GradeLevel: gradeOr(in.GradeLevel, student.GradeLevel),
	}
	chapter := in.Chapter
	if chapter > in.TotalChapters-1 {
		chapter = in.TotalChapters - 1
	}
	finished := in.Chapter >= in.TotalChapters-1

	p, err := s.LessonProgressRepo.FindByKey(key)
	isNew := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !isNew {
		return nil, err
	}

	if isNew {
		p = &model.LessonProgress{
			StudentID:  key.StudentID,
			Subject:    key.Subject,
			Topic:      key.Topic,
			GradeLevel: key.GradeLevel,
		}
	} else if in.Version != 0 && in.Version != p.Version {
		return s.lessonConflict(p), nil
	}

	wasCompleted := p.Completed
	p.CurrentChapter = chapter
	p.TotalChapters = in.TotalChapters
	if finished && !p.Completed {
		now := time.Now()
		p.Completed = true
		p.CompletedAt = &now
	}

	if isNew {
		err = s.LessonProgressRepo.Create(p)
	} else {
		err = s.LessonProgressRepo.UpdateVersioned(p)
	}
	if errors.Is(err, util.ErrVersionConflict) {
		return s.lessonConflict(p), nil
	}
	if err != nil {
		monitoring.ProgressWrites.WithLabelValues("lesson", string(WriteFailed)).Inc()
		return &ActivityResult{Progress: p, Persistence: failedWrite(err)}, nil
	}
	monitoring.ProgressWrites.WithLabelValues("lesson", string(WriteOK)).Inc()

	res := &ActivityResult{Progress: p, Persistence: WriteResult{Status: WriteOK, Version: p.Version}}
	if p.Completed && !wasCompleted {
		now := time.Now()
		a := &model.LearningActivity{
			StudentID:    student.ID,
			ActivityType: model.ActivityLesson,
			Subject:      key.Subject,
			Topic:        key.Topic,
			GradeLevel:   key.GradeLevel,
			Progress:     100,
			Completed:    true,
			StartedAt:    p.CreatedAt,
			CompletedAt:  &now,
		}
		if err := s.ActivityRepo.Create(a); err != nil {
			logger.Log.Error("Failed to record lesson completion", zap.String("student_id", student.ID), zap.Error(err))
			res.Persistence = failedWrite(err)
			res.Persistence.Version = p.Version
			return res, nil
		}
		res.Activity = a
		res.NewBadges = s.afterCompletion(student.ID, nil)
	}
	return res, nil
}

func (s *ActivityService) lessonConflict(p *model.LessonProgress) *ActivityResult {
	monitoring.ProgressWrites.WithLabelValues("lesson", string(WriteConflict)).Inc()
	current, err := s.LessonProgressRepo.FindByKey(p.Key())
	if err != nil {
		current = p
	}
	return &ActivityResult{Progress: current, Persistence: conflictWrite(current.Version)}
}

type GameInteractionInput struct {
	Subject     string `json:"subject" binding:"required"`
	Topic       string `json:"topic" binding:"required"`
	GradeLevel  int    `json:"gradeLevel"`
	Correct     int    `json:"correct" binding:"min=0"`
	Total       int    `json:"total" binding:"min=0"`
	Completed   bool   `json:"completed"`
	StarsEarned *int   `json:"starsEarned" binding:"omitempty,min=0,max=5"`
}

// RecordGameInteraction 游戏回合或整局结束都记一条活动
func (s *ActivityService) RecordGameInteraction(student *model.Student, in GameInteractionInput) (*ActivityResult, error) {
	progress := 0
	if in.Total > 0 {
		progress = in.Correct * 100 / in.Total
		if progress > 100 {
			progress = 100
		}
	}
	return s.RecordActivity(student, ActivityInput{
		ActivityType: model.ActivityGame,
		Subject:      in.Subject,
		Topic:        in.Topic,
		GradeLevel:   in.GradeLevel,
		Progress:     progress,
		Completed:    in.Completed,
		StarsEarned:  in.StarsEarned,
	})
}

func (s *ActivityService) ListActivities(studentID string, activityType model.ActivityType, limit int) ([]model.LearningActivity, error) {
	return s.ActivityRepo.ListByStudent(studentID, activityType, limit)
}

func (s *ActivityService) ListLessonProgress(studentID string) ([]model.LessonProgress, error) {
	return s.LessonProgressRepo.ListByStudent(studentID)
}

// afterCompletion 里程碑之后的附带写入，失败只记日志
func (s *ActivityService) afterCompletion(studentID string, recommendationID *uint) []model.Badge {
	if recommendationID != nil && s.RecommendationRepo != nil {
		rec, err := s.RecommendationRepo.FindByID(*recommendationID)
		if err == nil && rec.StudentID == studentID && !rec.Completed {
			if err := s.RecommendationRepo.MarkCompleted(rec.ID, time.Now()); err != nil {
				logger.Log.Warn("Failed to complete recommendation", zap.Uint("id", rec.ID), zap.Error(err))
			}
		}
	}

	if s.Badges == nil {
		return nil
	}
	earned, err := s.Badges.Evaluate(studentID)
	if err != nil {
		logger.Log.Warn("Badge evaluation failed", zap.String("student_id", studentID), zap.Error(err))
	}
	return earned
}

func gradeOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
