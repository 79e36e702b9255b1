package service

import (
	"context"
	"encoding/json"
	"errors"
	"kids_edu_backend/internal/config"
	"kids_edu_backend/internal/content"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/quiz"
	"kids_edu_backend/internal/repository"
	"kids_edu_backend/internal/util"
	"kids_edu_backend/pkg/logger"
	"kids_edu_backend/pkg/monitoring"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizService struct {
	Content      *ContentService
	Students     *StudentService
	ProgressRepo *repository.QuizProgressRepository
	ScoreRepo    *repository.QuizScoreRepository
	ActivityRepo *repository.LearningActivityRepository
	StudentRepo  *repository.StudentRepository
	Badges       *BadgeService
	Sessions     SessionStore

	limits atomic.Pointer[quiz.Limits]
	locks  sessionLocks
}

func NewQuizService(contentSvc *ContentService, students *StudentService, progressRepo *repository.QuizProgressRepository,
	scoreRepo *repository.QuizScoreRepository, activityRepo *repository.LearningActivityRepository,
	studentRepo *repository.StudentRepository, badges *BadgeService, sessions SessionStore, cfg config.QuizConfig) *QuizService {
	s := &QuizService{
		Content:      contentSvc,
		Students:     students,
		ProgressRepo: progressRepo,
		ScoreRepo:    scoreRepo,
		ActivityRepo: activityRepo,
		StudentRepo:  studentRepo,
		Badges:       badges,
		Sessions:     sessions,
	}
	s.SetLimits(cfg)
	return s
}

// SetLimits 配置热更新时调用
func (s *QuizService) SetLimits(cfg config.QuizConfig) {
	s.limits.Store(&quiz.Limits{
		Default:      cfg.DefaultQuestions,
		Max:          cfg.MaxQuestions,
		GuestRatio:   cfg.GuestRatio,
		GuestMinimum: cfg.GuestMinimum,
	})
}

func (s *QuizService) Limits() quiz.Limits {
	return *s.limits.Load()
}

type StartQuizInput struct {
	StudentID      string         `json:"studentId"`
	Subject        string         `json:"subject" binding:"required"`
	Topic          string         `json:"topic" binding:"required"`
	Subtopic       string         `json:"subtopic"`
	GradeLevel     int            `json:"gradeLevel" binding:"min=0,max=12"`
	Language       string         `json:"language"`
	QuestionCount  int            `json:"questionCount" binding:"min=0"`
	Resume         bool           `json:"resume"`
	EnhancedParams map[string]any `json:"enhancedParams"`
}

// QuizResult 每个操作返回新的会话状态；发生写入时附带写入结果
type QuizResult struct {
	Session       quiz.SessionView  `json:"session"`
	Persistence   *WriteResult      `json:"persistence,omitempty"`
	Correct       *bool             `json:"correct,omitempty"`
	Completion    *CompletionResult `json:"completion,omitempty"`
	ContentSource string            `json:"contentSource,omitempty"`
	MaxSelectable int               `json:"maxSelectable,omitempty"`
}

type CompletionResult struct {
	Score       int           `json:"score"`
	Total       int           `json:"total"`
	Percentage  float64       `json:"percentage"`
	Stars       int           `json:"stars"`
	Summary     string        `json:"summary"`
	NewBadges   []model.Badge `json:"newBadges,omitempty"`
	Persistence WriteResult   `json:"persistence"`
}

// Start 开始测验。claims 为 nil 表示游客：题目数受限且不写进度。
// Resume 为 true 且存在未完成的进度行时从该行恢复，否则重新开始并覆盖旧行。
func (s *QuizService) Start(ctx context.Context, claims *util.Claims, in StartQuizInput) (*QuizResult, error) {
	guest := claims == nil
	limits := s.Limits()

	key := model.ProgressKey{Subject: in.Subject, Topic: in.Topic, GradeLevel: in.GradeLevel}
	language := in.Language
	var ownerID uint

	if !guest {
		if in.StudentID == "" {
			return nil, util.ErrStudentNotFound
		}
		student, err := s.Students.Authorize(claims, in.StudentID)
		if err != nil {
			return nil, err
		}
		key.StudentID = student.ID
		key.GradeLevel = gradeOr(in.GradeLevel, student.GradeLevel)
		if language == "" {
			language = student.Language
		}
		ownerID = claims.UserID
	}
	if language == "" {
		language = util.DefaultLanguage
	}

	count := limits.QuestionCount(in.QuestionCount, guest)
	req := content.Request{
		ContentType:    model.ContentQuiz,
		Subject:        in.Subject,
		GradeLevel:     key.GradeLevel,
		Topic:          in.Topic,
		Subtopic:       in.Subtopic,
		Language:       language,
		QuestionCount:  count,
		EnhancedParams: in.EnhancedParams,
	}

	if in.Resume && !guest {
		res, err := s.resume(ctx, key, req, ownerID)
		if err != nil || res != nil {
			return res, err
		}
	}

	quizContent, err := s.Content.GetQuiz(ctx, req, !guest)
	if err != nil {
		return nil, err
	}
	questions := quizContent.Content.Questions
	if len(questions) > count {
		questions = questions[:count]
	}

	sess, err := quiz.NewSession(model.GenerateUUID(), key, questions, guest)
	if err != nil {
		return nil, err
	}
	sess.Language = language
	stored := &StoredSession{Session: sess, OwnerID: ownerID}

	wr := s.persist(stored, true)
	if err := s.Sessions.Save(ctx, stored); err != nil {
		return nil, err
	}

	return &QuizResult{
		Session:       sess.View(),
		Persistence:   &wr,
		ContentSource: quizContent.Source,
		MaxSelectable: limits.MaxSelectable(guest),
	}, nil
}

// resume 没有可恢复的行时返回 nil, nil
func (s *QuizService) resume(ctx context.Context, key model.ProgressKey, req content.Request, ownerID uint) (*QuizResult, error) {
	row, err := s.ProgressRepo.FindByKey(key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if row.IsCompleted {
		return nil, nil
	}

	source := SourceCache
	var questions []quiz.Question
	if len(row.QuestionSnapshot) > 0 {
		if err := json.Unmarshal(row.QuestionSnapshot, &questions); err != nil {
			logger.Log.Warn("Ignoring unreadable question snapshot", zap.Uint("row_id", row.ID), zap.Error(err))
			questions = nil
		}
	}
	if len(questions) == 0 {
		// 旧数据没有题目快照，重新取题，数量至少覆盖到保存的位置
		req.QuestionCount = quiz.ResumeQuestionCount(req.QuestionCount, row.CurrentQuestion)
		qc, err := s.Content.GetQuiz(ctx, req, true)
		if err != nil {
			return nil, err
		}
		questions = qc.Content.Questions
		source = qc.Source
	}

	sess, err := quiz.Resume(model.GenerateUUID(), key, questions, snapshotFromRow(row), false)
	if err != nil {
		return nil, err
	}
	sess.Language = row.Language
	sess.Version = row.Version
	stored := &StoredSession{Session: sess, OwnerID: ownerID, RowID: row.ID}

	if err := s.Sessions.Save(ctx, stored); err != nil {
		return nil, err
	}

	wr := WriteResult{Status: WriteOK, Version: row.Version}
	return &QuizResult{
		Session:       sess.View(),
		Persistence:   &wr,
		ContentSource: source,
		MaxSelectable: s.Limits().MaxSelectable(false),
	}, nil
}

// Get 已完成的会话读取一次后从会话存储中移除
func (s *QuizService) Get(ctx context.Context, claims *util.Claims, sessionID string) (*QuizResult, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	stored, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}
	res := &QuizResult{Session: stored.Session.View(), MaxSelectable: s.Limits().MaxSelectable(stored.Session.LimitProgress)}

	if stored.Session.State == quiz.StateCompleted {
		if err := s.Sessions.Delete(ctx, sessionID); err != nil {
			logger.Log.Warn("Failed to drop completed quiz session", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return res, nil
}

// SelectAnswer 只改内存状态，不写进度
func (s *QuizService) SelectAnswer(ctx context.Context, claims *util.Claims, sessionID string, index int) (*QuizResult, error) {
	return s.mutate(ctx, claims, sessionID, func(stored *StoredSession, res *QuizResult) error {
		return stored.Session.SelectAnswer(index)
	})
}

func (s *QuizService) CheckAnswer(ctx context.Context, claims *util.Claims, sessionID string) (*QuizResult, error) {
	return s.mutate(ctx, claims, sessionID, func(stored *StoredSession, res *QuizResult) error {
		ok, err := stored.Session.CheckAnswer()
		if err != nil {
			return err
		}
		res.Correct = &ok
		return nil
	})
}

// Next 前进到下一题并写进度；最后一题时完成测验
func (s *QuizService) Next(ctx context.Context, claims *util.Claims, sessionID string) (*QuizResult, error) {
	return s.mutate(ctx, claims, sessionID, func(stored *StoredSession, res *QuizResult) error {
		done, err := stored.Session.Next()
		if err != nil {
			return err
		}
		wr := s.persist(stored, false)
		res.Persistence = &wr
		if done {
			res.Completion = s.complete(stored)
		}
		return nil
	})
}

func (s *QuizService) Pause(ctx context.Context, claims *util.Claims, sessionID string) (*QuizResult, error) {
	return s.mutate(ctx, claims, sessionID, func(stored *StoredSession, res *QuizResult) error {
		if err := stored.Session.Pause(); err != nil {
			return err
		}
		wr := s.persist(stored, false)
		res.Persistence = &wr
		return nil
	})
}

// ListProgress 学生的测验进度行
func (s *QuizService) ListProgress(claims *util.Claims, studentID string, onlyIncomplete bool) ([]model.QuizProgress, error) {
	student, err := s.Students.Authorize(claims, studentID)
	if err != nil {
		return nil, err
	}
	return s.ProgressRepo.ListByStudent(student.ID, onlyIncomplete)
}

func (s *QuizService) mutate(ctx context.Context, claims *util.Claims, sessionID string, fn func(*StoredSession, *QuizResult) error) (*QuizResult, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	stored, err := s.load(ctx, claims, sessionID)
	if err != nil {
		return nil, err
	}

	res := &QuizResult{}
	if err := fn(stored, res); err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, stored); err != nil {
		return nil, err
	}

	res.Session = stored.Session.View()
	res.MaxSelectable = s.Limits().MaxSelectable(stored.Session.LimitProgress)
	return res, nil
}

func (s *QuizService) load(ctx context.Context, claims *util.Claims, sessionID string) (*StoredSession, error) {
	stored, err := s.Sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if stored.OwnerID == 0 {
		return stored, nil
	}
	if claims == nil {
		return nil, util.ErrUnauthorized
	}
	if claims.UserID != stored.OwnerID && claims.Role != model.Admin {
		return nil, util.ErrPermissionDenied
	}
	return stored, nil
}

// persist 把会话写入进度行。fresh 为 true 时覆盖同键的旧行（重新开始）。
// 写入失败不会回滚内存状态，由返回的 WriteResult 告知调用方。
// 版本冲突后本会话的后续写入都会冲突，客户端需要用 resume 从最新的行重新开始。
func (s *QuizService) persist(stored *StoredSession, fresh bool) WriteResult {
	sess := stored.Session
	if sess.LimitProgress || sess.Key.StudentID == "" {
		monitoring.ProgressWrites.WithLabelValues("quiz", string(WriteSkipped)).Inc()
		return guestWrite()
	}

	row := rowFromSession(sess)
	var err error
	switch {
	case fresh:
		err = s.overwrite(row)
	case stored.RowID == 0:
		err = s.ProgressRepo.Create(row)
	default:
		row.ID = stored.RowID
		row.Version = sess.Version
		err = s.ProgressRepo.UpdateVersioned(row)
	}

	var wr WriteResult
	switch {
	case err == nil:
		stored.RowID = row.ID
		sess.Version = row.Version
		wr = WriteResult{Status: WriteOK, Version: row.Version}
	case errors.Is(err, util.ErrVersionConflict):
		current := 0
		if latest, findErr := s.ProgressRepo.FindByKey(sess.Key); findErr == nil {
			current = latest.Version
		}
		logger.Log.Warn("Quiz progress version conflict",
			zap.String("session_id", sess.ID),
			zap.String("student_id", sess.Key.StudentID),
			zap.Int("expected_version", sess.Version),
			zap.Int("current_version", current))
		wr = conflictWrite(current)
	default:
		logger.Log.Error("Failed to save quiz progress",
			zap.String("session_id", sess.ID),
			zap.String("student_id", sess.Key.StudentID),
			zap.Error(err))
		wr = failedWrite(err)
	}

	monitoring.ProgressWrites.WithLabelValues("quiz", string(wr.Status)).Inc()
	return wr
}

// overwrite 重新开始：先读当前版本，再按该版本覆盖
func (s *QuizService) overwrite(row *model.QuizProgress) error {
	existing, err := s.ProgressRepo.FindByKey(row.Key())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.ProgressRepo.Create(row)
	}
	if err != nil {
		return err
	}
	row.ID = existing.ID
	row.Version = existing.Version
	return s.ProgressRepo.UpdateVersioned(row)
}

// complete 完成后的成绩、活动日志、星星和徽章；各步骤失败互不影响
func (s *QuizService) complete(stored *StoredSession) *CompletionResult {
	sess := stored.Session
	total := len(sess.Questions)
	key := sess.Key

	res := &CompletionResult{
		Score:       sess.Score,
		Total:       total,
		Percentage:  quiz.Percentage(sess.Score, total),
		Stars:       sess.Stars,
		Summary:     quiz.Summary(key.Subject, key.Topic, sess.Score, total),
		Persistence: WriteResult{Status: WriteOK, Version: sess.Version},
	}
	if sess.LimitProgress || key.StudentID == "" {
		res.Persistence = guestWrite()
		return res
	}

	fail := func(step string, err error) {
		logger.Log.Error("Quiz completion step failed",
			zap.String("step", step),
			zap.String("session_id", sess.ID),
			zap.String("student_id", key.StudentID),
			zap.Error(err))
		if res.Persistence.OK() {
			res.Persistence = failedWrite(err)
		}
	}

	score := &model.QuizScore{
		StudentID:  key.StudentID,
		Subject:    key.Subject,
		Topic:      key.Topic,
		GradeLevel: key.GradeLevel,
		Score:      sess.Score,
		MaxScore:   total,
		Percentage: res.Percentage,
		Stars:      sess.Stars,
	}
	if err := s.ScoreRepo.Create(score); err != nil {
		fail("quiz_score", err)
	}

	now := time.Now()
	stars := sess.Stars
	activity := &model.LearningActivity{
		StudentID:    key.StudentID,
		ActivityType: model.ActivityQuiz,
		Subject:      key.Subject,
		Topic:        key.Topic,
		GradeLevel:   key.GradeLevel,
		Progress:     100,
		Completed:    true,
		StarsEarned:  &stars,
		Summary:      res.Summary,
		StartedAt:    sess.StartedAt,
		CompletedAt:  &now,
	}
	if err := s.ActivityRepo.Create(activity); err != nil {
		fail("activity", err)
	}

	if stars > 0 {
		if err := s.StudentRepo.AddStars(key.StudentID, stars); err != nil {
			fail("stars", err)
		}
	}

	if s.Badges != nil {
		earned, err := s.Badges.Evaluate(key.StudentID)
		if err != nil {
			fail("badges", err)
		}
		res.NewBadges = earned
	}

	monitoring.ProgressWrites.WithLabelValues("quiz_completion", string(res.Persistence.Status)).Inc()
	return res
}

func rowFromSession(sess *quiz.Session) *model.QuizProgress {
	snap := sess.Snapshot()
	questions, err := json.Marshal(sess.Questions)
	if err != nil {
		logger.Log.Warn("Failed to encode question snapshot", zap.String("session_id", sess.ID), zap.Error(err))
	}
	return &model.QuizProgress{
		StudentID:         sess.Key.StudentID,
		Subject:           sess.Key.Subject,
		Topic:             sess.Key.Topic,
		GradeLevel:        sess.Key.GradeLevel,
		Language:          sess.Language,
		CurrentQuestion:   snap.CurrentQuestion,
		QuestionCount:     len(sess.Questions),
		QuestionsAnswered: snap.QuestionsAnswered,
		CorrectAnswers:    snap.CorrectAnswers,
		SelectedAnswers:   snap.SelectedAnswers,
		QuestionSnapshot:  datatypes.JSON(questions),
		Score:             sess.Score,
		IsCompleted:       snap.IsCompleted,
	}
}

func snapshotFromRow(row *model.QuizProgress) quiz.Snapshot {
	return quiz.Snapshot{
		CurrentQuestion:   row.CurrentQuestion,
		QuestionsAnswered: row.QuestionsAnswered,
		CorrectAnswers:    row.CorrectAnswers,
		SelectedAnswers:   row.SelectedAnswers,
		IsCompleted:       row.IsCompleted,
	}
}
