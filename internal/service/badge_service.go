package service

import (
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/repository"
	"kids_edu_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

type BadgeService struct {
	BadgeRepo    *repository.BadgeRepository
	ActivityRepo *repository.LearningActivityRepository
	ScoreRepo    *repository.QuizScoreRepository
	StudentRepo  *repository.StudentRepository
}

func NewBadgeService(badgeRepo *repository.BadgeRepository, activityRepo *repository.LearningActivityRepository,
	scoreRepo *repository.QuizScoreRepository, studentRepo *repository.StudentRepository) *BadgeService {
	return &BadgeService{
		BadgeRepo:    badgeRepo,
		ActivityRepo: activityRepo,
		ScoreRepo:    scoreRepo,
		StudentRepo:  studentRepo,
	}
}

// Evaluate 检查所有徽章条件，返回本次新获得的徽章；重复调用不会重复授予
func (s *BadgeService) Evaluate(studentID string) ([]model.Badge, error) {
	badges, err := s.BadgeRepo.ListAll()
	if err != nil {
		return nil, err
	}

	progress := make(map[model.BadgeCriteria]int64)
	measure := func(c model.BadgeCriteria) (int64, error) {
		if v, ok := progress[c]; ok {
			return v, nil
		}
		var (
			v   int64
			err error
		)
		switch c {
		case model.CriteriaQuizzesCompleted:
			v, err = s.ActivityRepo.CountCompleted(studentID, model.ActivityQuiz)
		case model.CriteriaLessonsCompleted:
			v, err = s.ActivityRepo.CountCompleted(studentID, model.ActivityLesson)
		case model.CriteriaGamesPlayed:
			v, err = s.ActivityRepo.CountCompleted(studentID, model.ActivityGame)
		case model.CriteriaPerfectQuiz:
			v, err = s.ScoreRepo.CountPerfect(studentID)
		case model.CriteriaStarsEarned:
			var student *model.Student
			student, err = s.StudentRepo.FindByID(studentID)
			if err == nil {
				v = int64(student.TotalStars)
			}
		}
		progress[c] = v
		return v, err
	}

	var earned []model.Badge
	now := time.Now()
	for _, b := range badges {
		v, err := measure(b.Criteria)
		if err != nil {
			return earned, err
		}
		if v < int64(b.Threshold) {
			continue
		}
		isNew, err := s.BadgeRepo.Award(studentID, b.ID, now)
		if err != nil {
			return earned, err
		}
		if isNew {
			logger.Log.Info("Badge awarded", zap.String("student_id", studentID), zap.String("badge", b.Code))
			earned = append(earned, b)
		}
	}
	return earned, nil
}

func (s *BadgeService) ListForStudent(studentID string) ([]model.StudentBadge, error) {
	return s.BadgeRepo.ListByStudent(studentID)
}
