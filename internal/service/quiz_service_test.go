package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"kids_edu_backend/internal/llm"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/quiz"
	"kids_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) startQuiz(t *testing.T, resume bool) *QuizResult {
	t.Helper()
	res, err := e.quiz.Start(context.Background(), e.parentClaims(), StartQuizInput{
		StudentID: e.student.ID,
		Subject:   "math",
		Topic:     "fractions",
		Resume:    resume,
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) answerCurrent(t *testing.T, sessionID string, correct bool) *QuizResult {
	t.Helper()
	ctx := context.Background()

	view, err := e.quiz.Get(ctx, e.parentClaims(), sessionID)
	require.NoError(t, err)
	choice := view.Session.CurrentQuestionIndex % 4
	if !correct {
		choice = (choice + 1) % 4
	}

	_, err = e.quiz.SelectAnswer(ctx, e.parentClaims(), sessionID, choice)
	require.NoError(t, err)
	checked, err := e.quiz.CheckAnswer(ctx, e.parentClaims(), sessionID)
	require.NoError(t, err)
	require.NotNil(t, checked.Correct)
	assert.Equal(t, correct, *checked.Correct)

	res, err := e.quiz.Next(ctx, e.parentClaims(), sessionID)
	require.NoError(t, err)
	return res
}

func TestQuizService_FullRun(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Content: quizJSON(3)})

	start := env.startQuiz(t, false)
	assert.Equal(t, SourceAI, start.ContentSource)
	assert.Equal(t, WriteOK, start.Persistence.Status)
	assert.Equal(t, 1, start.Persistence.Version)
	assert.Equal(t, 3, start.Session.TotalQuestions)
	assert.Nil(t, start.Session.CurrentQuestion.CorrectAnswer)

	id := start.Session.ID
	env.answerCurrent(t, id, true)
	env.answerCurrent(t, id, true)
	last := env.answerCurrent(t, id, true)

	assert.Equal(t, quiz.StateCompleted, last.Session.State)
	require.NotNil(t, last.Completion)
	assert.Equal(t, 3, last.Completion.Score)
	assert.Equal(t, 5, last.Completion.Stars)
	assert.Equal(t, WriteOK, last.Completion.Persistence.Status)

	codes := make([]string, 0, len(last.Completion.NewBadges))
	for _, b := range last.Completion.NewBadges {
		codes = append(codes, b.Code)
	}
	assert.ElementsMatch(t, []string{"first_quiz", "perfect_score"}, codes)

	row, err := env.quiz.ProgressRepo.FindByKey(model.ProgressKey{StudentID: env.student.ID, Subject: "math", Topic: "fractions", GradeLevel: 3})
	require.NoError(t, err)
	assert.True(t, row.IsCompleted)
	assert.Equal(t, 3, row.Score)
	assert.Equal(t, 4, row.Version)

	student, err := env.quiz.StudentRepo.FindByID(env.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, student.TotalStars)

	scores, err := env.quiz.ScoreRepo.ListByStudent(env.student.ID, 10)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 100.0, scores[0].Percentage)

	_, err = env.quiz.Next(context.Background(), env.parentClaims(), id)
	var te *quiz.TransitionError
	assert.True(t, errors.As(err, &te))
}

func TestQuizService_GuestSkipsPersistence(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Content: quizJSON(10)})

	res, err := env.quiz.Start(context.Background(), nil, StartQuizInput{Subject: "math", Topic: "shapes", QuestionCount: 9})
	require.NoError(t, err)

	assert.True(t, res.Session.LimitProgress)
	assert.Equal(t, 3, res.Session.TotalQuestions)
	assert.Equal(t, 3, res.MaxSelectable)
	assert.Equal(t, WriteSkipped, res.Persistence.Status)
	require.NotNil(t, res.Persistence.Error)
	assert.Equal(t, "guest", res.Persistence.Error.Code)

	_, err = env.quiz.SelectAnswer(context.Background(), nil, res.Session.ID, 0)
	require.NoError(t, err)
	_, err = env.quiz.CheckAnswer(context.Background(), nil, res.Session.ID)
	require.NoError(t, err)
	next, err := env.quiz.Next(context.Background(), nil, res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, WriteSkipped, next.Persistence.Status)

	var rows, materials int64
	env.db.Model(&model.QuizProgress{}).Count(&rows)
	env.db.Model(&model.LessonMaterial{}).Count(&materials)
	assert.Zero(t, rows)
	assert.Zero(t, materials)
}

func TestQuizService_ResumeFromSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Content: quizJSON(3)})

	start := env.startQuiz(t, false)
	env.answerCurrent(t, start.Session.ID, true)
	paused, err := env.quiz.Pause(context.Background(), env.parentClaims(), start.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.StatePaused, paused.Session.State)
	assert.Equal(t, WriteOK, paused.Persistence.Status)

	resumed := env.startQuiz(t, true)
	assert.True(t, resumed.Session.Resumed)
	assert.Equal(t, 1, resumed.Session.CurrentQuestionIndex)
	assert.Equal(t, 1, resumed.Session.Score)
	assert.Nil(t, resumed.Session.SelectedAnswer)
	assert.Equal(t, 1, env.provider.CallCount())

	last := env.answerCurrent(t, resumed.Session.ID, false)
	assert.Equal(t, WriteOK, last.Persistence.Status)
	assert.Equal(t, 2, last.Session.CurrentQuestionIndex)
}

func TestQuizService_ResumeWithoutSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Content: quizJSON(3)})

	start := env.startQuiz(t, false)
	env.answerCurrent(t, start.Session.ID, true)
	env.answerCurrent(t, start.Session.ID, false)

	// 旧版本写入的行没有题目快照和选择记录
	require.NoError(t, env.db.Model(&model.QuizProgress{}).
		Where("student_id = ?", env.student.ID).
		Updates(map[string]any{"question_snapshot": nil, "selected_answers": "[]"}).Error)

	resumed := env.startQuiz(t, true)
	assert.Equal(t, SourceCache, resumed.ContentSource)
	assert.Equal(t, 2, resumed.Session.CurrentQuestionIndex)
	assert.Equal(t, 1, resumed.Session.Score)
	require.Len(t, resumed.Session.Answers, 3)
	assert.Equal(t, quiz.WrongAnswer, *resumed.Session.Answers[1])
	assert.Equal(t, 1, env.provider.CallCount())
}

func TestQuizService_FreshStartOverwritesRow(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Content: quizJSON(3)})

	first := env.startQuiz(t, false)
	env.answerCurrent(t, first.Session.ID, true)

	second := env.startQuiz(t, false)
	assert.Equal(t, SourceCache, second.ContentSource)
	assert.Equal(t, WriteOK, second.Persistence.Status)
	assert.Equal(t, 3, second.Persistence.Version)

	list, err := env.quiz.ListProgress(env.parentClaims(), env.student.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 0, list[0].CurrentQuestion)
	assert.Empty(t, list[0].QuestionsAnswered)
}

func TestQuizService_VersionConflict(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Content: quizJSON(3)})

	start := env.startQuiz(t, false)

	// 另一个设备抢先写入
	require.NoError(t, env.db.Model(&model.QuizProgress{}).
		Where("student_id = ?", env.student.ID).
		Update("version", 7).Error)

	res := env.answerCurrent(t, start.Session.ID, true)
	assert.Equal(t, WriteConflict, res.Persistence.Status)
	assert.Equal(t, 7, res.Persistence.Version)
	require.NotNil(t, res.Persistence.Error)
	assert.Equal(t, "version_conflict", res.Persistence.Error.Code)

	// 内存状态不回滚
	assert.Equal(t, 1, res.Session.CurrentQuestionIndex)

	// 冲突后本会话不再写入
	again := env.answerCurrent(t, start.Session.ID, true)
	assert.Equal(t, WriteConflict, again.Persistence.Status)
	row, err := env.quiz.ProgressRepo.FindByKey(model.ProgressKey{StudentID: env.student.ID, Subject: "math", Topic: "fractions", GradeLevel: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, row.Version)
	assert.Equal(t, 0, row.CurrentQuestion)

	// resume 从最新的行重新开始后可以继续写入
	resumed := env.startQuiz(t, true)
	assert.True(t, resumed.Session.Resumed)
	assert.Equal(t, 7, resumed.Persistence.Version)
	next := env.answerCurrent(t, resumed.Session.ID, true)
	assert.Equal(t, WriteOK, next.Persistence.Status)
	assert.Equal(t, 8, next.Persistence.Version)
}

func TestQuizService_CompletedSessionDroppedAfterRead(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Content: quizJSON(2)})
	ctx := context.Background()

	start := env.startQuiz(t, false)
	id := start.Session.ID
	env.answerCurrent(t, id, true)
	last := env.answerCurrent(t, id, false)
	require.Equal(t, quiz.StateCompleted, last.Session.State)

	view, err := env.quiz.Get(ctx, env.parentClaims(), id)
	require.NoError(t, err)
	assert.Equal(t, quiz.StateCompleted, view.Session.State)
	assert.Len(t, view.Session.Review, 2)

	_, err = env.quiz.Get(ctx, env.parentClaims(), id)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	_, err = env.quiz.Sessions.Load(ctx, id)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestRowFromSession_KeepsQuestionSnapshot(t *testing.T) {
	var payload struct {
		Questions []quiz.Question `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(quizJSON(3), &payload))
	qs := payload.Questions
	sess, err := quiz.NewSession("id", model.ProgressKey{StudentID: "s-1", Subject: "math", Topic: "fractions"}, qs, false)
	require.NoError(t, err)

	row := rowFromSession(sess)
	require.NotEmpty(t, row.QuestionSnapshot)
	var restored []quiz.Question
	require.NoError(t, json.Unmarshal(row.QuestionSnapshot, &restored))
	assert.Equal(t, qs, restored)
	assert.Equal(t, 3, row.QuestionCount)
}

func TestQuizService_OwnershipAndErrors(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Content: quizJSON(3)})
	start := env.startQuiz(t, false)
	ctx := context.Background()

	_, err := env.quiz.Get(ctx, nil, start.Session.ID)
	assert.ErrorIs(t, err, util.ErrUnauthorized)

	_, err = env.quiz.Get(ctx, env.teacherClaims(), start.Session.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = env.quiz.Get(ctx, env.parentClaims(), "missing")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)

	_, err = env.quiz.SelectAnswer(ctx, env.parentClaims(), start.Session.ID, 9)
	assert.ErrorIs(t, err, quiz.ErrInvalidAnswer)

	_, err = env.quiz.Next(ctx, env.parentClaims(), start.Session.ID)
	assert.ErrorIs(t, err, quiz.ErrNoAnswerSelected)

	_, err = env.quiz.Start(ctx, env.parentClaims(), StartQuizInput{Subject: "math", Topic: "x"})
	assert.ErrorIs(t, err, util.ErrStudentNotFound)
}

func TestQuizService_SetLimits(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.cfg.Quiz
	cfg.MaxQuestions = 40
	env.quiz.SetLimits(cfg)

	assert.Equal(t, 40, env.quiz.Limits().Max)
	assert.Equal(t, 12, env.quiz.Limits().MaxSelectable(true))
}
