package service

import (
	"context"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/repository"
	"time"

	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	StudentRepo        *repository.StudentRepository
	ActivityRepo       *repository.LearningActivityRepository
	ScoreRepo          *repository.QuizScoreRepository
	QuizProgressRepo   *repository.QuizProgressRepository
	LessonProgressRepo *repository.LessonProgressRepository
	RecommendationRepo *repository.RecommendationRepository
	BadgeRepo          *repository.BadgeRepository
}

func NewDashboardService(studentRepo *repository.StudentRepository, activityRepo *repository.LearningActivityRepository,
	scoreRepo *repository.QuizScoreRepository, quizProgressRepo *repository.QuizProgressRepository,
	lessonProgressRepo *repository.LessonProgressRepository, recommendationRepo *repository.RecommendationRepository,
	badgeRepo *repository.BadgeRepository) *DashboardService {
	return &DashboardService{
		StudentRepo:        studentRepo,
		ActivityRepo:       activityRepo,
		ScoreRepo:          scoreRepo,
		QuizProgressRepo:   quizProgressRepo,
		LessonProgressRepo: lessonProgressRepo,
		RecommendationRepo: recommendationRepo,
		BadgeRepo:          badgeRepo,
	}
}

// ParentDashboard 家长查看单个孩子
type ParentDashboard struct {
	Student          *model.Student                 `json:"student"`
	AverageScore     float64                        `json:"averageScore"`
	ActivitiesByType []repository.ActivityTypeCount `json:"activitiesByType"`
	ActivitiesWeek   int64                          `json:"activitiesThisWeek"`
	RecentActivities []model.LearningActivity       `json:"recentActivities"`
	RecentScores     []model.QuizScore              `json:"recentScores"`
	OpenQuizzes      []model.QuizProgress           `json:"openQuizzes"`
	Lessons          []model.LessonProgress         `json:"lessons"`
	Recommendations  []model.AIRecommendation       `json:"recommendations"`
	Badges           []model.StudentBadge           `json:"badges"`
}

func (s *DashboardService) Parent(ctx context.Context, student *model.Student) (*ParentDashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := &ParentDashboard{Student: student}
	var g errgroup.Group

	g.Go(func() (err error) {
		d.AverageScore, err = s.ScoreRepo.AveragePercentage(student.ID)
		return
	})
	g.Go(func() (err error) {
		d.ActivitiesByType, err = s.ActivityRepo.CountByType(student.ID)
		return
	})
	g.Go(func() (err error) {
		d.ActivitiesWeek, err = s.ActivityRepo.CountSince(student.ID, time.Now().AddDate(0, 0, -7))
		return
	})
	g.Go(func() (err error) {
		d.RecentActivities, err = s.ActivityRepo.ListByStudent(student.ID, "", 10)
		return
	})
	g.Go(func() (err error) {
		d.RecentScores, err = s.ScoreRepo.ListByStudent(student.ID, 10)
		return
	})
	g.Go(func() (err error) {
		d.OpenQuizzes, err = s.QuizProgressRepo.ListByStudent(student.ID, true)
		return
	})
	g.Go(func() (err error) {
		d.Lessons, err = s.LessonProgressRepo.ListByStudent(student.ID)
		return
	})
	g.Go(func() (err error) {
		d.Recommendations, err = s.RecommendationRepo.ListByStudent(student.ID, false)
		return
	})
	g.Go(func() (err error) {
		d.Badges, err = s.BadgeRepo.ListByStudent(student.ID)
		return
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// StudentSummary 教师面板中的一行
type StudentSummary struct {
	Student          model.Student `json:"student"`
	AverageScore     float64       `json:"averageScore"`
	QuizzesCompleted int64         `json:"quizzesCompleted"`
	LessonsCompleted int64         `json:"lessonsCompleted"`
	ActivitiesWeek   int64         `json:"activitiesThisWeek"`
	OpenQuizzes      int           `json:"openQuizzes"`
}

type TeacherDashboard struct {
	Students     []StudentSummary `json:"students"`
	ClassAverage float64          `json:"classAverage"`
}

// Teacher 分配给该教师的所有学生，按学生并发汇总
func (s *DashboardService) Teacher(ctx context.Context, teacherID uint) (*TeacherDashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	students, err := s.StudentRepo.ListByTeacher(teacherID)
	if err != nil {
		return nil, err
	}

	summaries := make([]StudentSummary, len(students))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	weekAgo := time.Now().AddDate(0, 0, -7)

	for i := range students {
		i := i
		g.Go(func() error {
			// 已有学生出错或请求取消时跳过剩余学生
			if err := gctx.Err(); err != nil {
				return err
			}
			st := students[i]
			sum := StudentSummary{Student: st}
			var err error
			if sum.AverageScore, err = s.ScoreRepo.AveragePercentage(st.ID); err != nil {
				return err
			}
			if sum.QuizzesCompleted, err = s.ActivityRepo.CountCompleted(st.ID, model.ActivityQuiz); err != nil {
				return err
			}
			if sum.LessonsCompleted, err = s.ActivityRepo.CountCompleted(st.ID, model.ActivityLesson); err != nil {
				return err
			}
			if sum.ActivitiesWeek, err = s.ActivityRepo.CountSince(st.ID, weekAgo); err != nil {
				return err
			}
			open, err := s.QuizProgressRepo.ListByStudent(st.ID, true)
			if err != nil {
				return err
			}
			sum.OpenQuizzes = len(open)
			summaries[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &TeacherDashboard{Students: summaries}
	n := 0
	for _, sum := range summaries {
		if sum.AverageScore > 0 {
			d.ClassAverage += sum.AverageScore
			n++
		}
	}
	if n > 0 {
		d.ClassAverage /= float64(n)
	}
	return d, nil
}
