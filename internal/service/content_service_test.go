package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kids_edu_backend/internal/config"
	"kids_edu_backend/internal/content"
	"kids_edu_backend/internal/llm"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func lessonRequest() content.Request {
	return content.Request{Subject: "math", GradeLevel: 3, Topic: "fractions"}
}

func lessonKey() repository.MaterialKey {
	return repository.MaterialKey{ContentType: model.ContentLesson, Subject: "math", GradeLevel: 3, Topic: "fractions", Language: "en"}
}

func TestContentService_GeneratesThenCaches(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Content: lessonJSON("Fractions")})
	ctx := context.Background()

	first, err := env.content.GetLesson(ctx, lessonRequest(), true)
	require.NoError(t, err)
	assert.Equal(t, SourceAI, first.Source)
	assert.Equal(t, "mock", first.Model)
	assert.Equal(t, 2, first.Content.Chapters())

	second, err := env.content.GetLesson(ctx, lessonRequest(), true)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, "Fractions", second.Content.Title)
	assert.Equal(t, 1, env.provider.CallCount())

	call := env.provider.Calls[0]
	assert.NotNil(t, call.Schema)
	assert.NotNil(t, call.Payload)
	payload, ok := call.Payload.(content.Request)
	require.True(t, ok)
	assert.Equal(t, model.ContentLesson, payload.ContentType)
	assert.Equal(t, "en", payload.Language)
}

func TestContentService_MalformedCacheIsReplaced(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.content.MaterialRepo.Upsert(&model.LessonMaterial{
		ContentType: model.ContentLesson,
		Subject:     "math",
		GradeLevel:  3,
		Topic:       "fractions",
		Language:    "en",
		Content:     datatypes.JSON(`{"title":"Broken","introduction":"no chapters"}`),
	}))
	env.provider.AddResponse(llm.MockResponse{Content: lessonJSON("Fixed")})

	res, err := env.content.GetLesson(context.Background(), lessonRequest(), true)
	require.NoError(t, err)
	assert.Equal(t, SourceAI, res.Source)
	assert.Equal(t, "Fixed", res.Content.Title)

	m, err := env.content.MaterialRepo.FindByKey(lessonKey())
	require.NoError(t, err)
	lesson, err := content.NormalizeLessonContent(m.Content)
	require.NoError(t, err)
	assert.Equal(t, "Fixed", lesson.Title)

	var total int64
	env.db.Unscoped().Model(&model.LessonMaterial{}).Count(&total)
	assert.Equal(t, int64(1), total)
}

func TestContentService_RetriesUnusableOutput(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Content: json.RawMessage(`{"title":"no sections"}`)})
	env.provider.AddResponse(llm.MockResponse{Content: lessonJSON("Second try")})

	res, err := env.content.GetLesson(context.Background(), lessonRequest(), true)
	require.NoError(t, err)
	assert.Equal(t, SourceAI, res.Source)
	assert.Equal(t, "Second try", res.Content.Title)
	assert.Equal(t, 2, env.provider.CallCount())
}

func TestContentService_FallbackAfterMaxAttempts(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Content: json.RawMessage(`{"title":"no sections"}`)})
	env.provider.AddResponse(llm.MockResponse{Content: json.RawMessage(`"not json at all"`)})

	res, err := env.content.GetLesson(context.Background(), lessonRequest(), true)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.NotEmpty(t, res.Content.MainContent)
	assert.Equal(t, 2, env.provider.CallCount())

	_, err = env.content.MaterialRepo.FindByKey(lessonKey())
	assert.Error(t, err, "fallback content is never cached")
}

func TestContentService_ProviderErrorIsNotRetriedTwice(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	env.provider.AddResponse(llm.MockResponse{Content: lessonJSON("Unused")})

	// 没有重试包装时出错直接降级
	res, err := env.content.GetLesson(context.Background(), lessonRequest(), true)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, 1, env.provider.CallCount())
}

func TestContentService_RetryWrapperOwnsTransientErrors(t *testing.T) {
	env := newTestEnv(t)
	failing := llm.NewMockProvider()
	env.content.Provider = llm.WithRetry(failing, llm.RetryConfig{
		MaxAttempts: env.cfg.AI.MaxAttempts,
		InitialWait: time.Millisecond,
		MaxWait:     time.Millisecond,
		Multiplier:  1,
	})

	res, err := env.content.GetLesson(context.Background(), lessonRequest(), true)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, env.cfg.AI.MaxAttempts, failing.CallCount())
}

func TestContentService_MalformedCacheDropsArchive(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	env.content.Storage = NewStorageService(&config.Config{Storage: config.StorageConfig{Type: "local", LocalPath: dir}})
	ctx := context.Background()

	url, err := env.content.Storage.Archive(ctx, "lesson/math/old", []byte(`{"title":"Broken"}`))
	require.NoError(t, err)
	oldPath := filepath.Join(dir, strings.TrimPrefix(url, "/uploads/"))
	require.FileExists(t, oldPath)

	require.NoError(t, env.content.MaterialRepo.Upsert(&model.LessonMaterial{
		ContentType: model.ContentLesson,
		Subject:     "math",
		GradeLevel:  3,
		Topic:       "fractions",
		Language:    "en",
		Content:     datatypes.JSON(`{"title":"Broken","introduction":"no chapters"}`),
		ArchiveURL:  url,
	}))
	env.provider.AddResponse(llm.MockResponse{Content: lessonJSON("Fixed")})

	res, err := env.content.GetLesson(ctx, lessonRequest(), true)
	require.NoError(t, err)
	assert.Equal(t, SourceAI, res.Source)
	assert.NoFileExists(t, oldPath)

	m, err := env.content.MaterialRepo.FindByKey(lessonKey())
	require.NoError(t, err)
	require.NotEmpty(t, m.ArchiveURL)
	assert.NotEqual(t, url, m.ArchiveURL)
	assert.FileExists(t, filepath.Join(dir, strings.TrimPrefix(m.ArchiveURL, "/uploads/")))
}

func TestContentService_QuizNeedsEnoughQuestions(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Content: quizJSON(2)})
	env.provider.AddResponse(llm.MockResponse{Content: quizJSON(5)})

	req := content.Request{Subject: "math", GradeLevel: 3, Topic: "fractions", QuestionCount: 5}
	res, err := env.content.GetQuiz(context.Background(), req, true)
	require.NoError(t, err)
	assert.Equal(t, SourceAI, res.Source)
	assert.Len(t, res.Content.Questions, 5)

	// 缓存里只有 5 题，请求 8 题时重新生成
	env.provider.AddResponse(llm.MockResponse{Content: quizJSON(8)})
	req.QuestionCount = 8
	res, err = env.content.GetQuiz(context.Background(), req, true)
	require.NoError(t, err)
	assert.Equal(t, SourceAI, res.Source)
	assert.Len(t, res.Content.Questions, 8)
	assert.Equal(t, 3, env.provider.CallCount())
}

func TestContentService_GuestBypassesCache(t *testing.T) {
	env := newTestEnv(t)
	env.provider.AddResponse(llm.MockResponse{Content: lessonJSON("One")})
	env.provider.AddResponse(llm.MockResponse{Content: lessonJSON("Two")})

	_, err := env.content.GetLesson(context.Background(), lessonRequest(), false)
	require.NoError(t, err)
	res, err := env.content.GetLesson(context.Background(), lessonRequest(), false)
	require.NoError(t, err)

	assert.Equal(t, "Two", res.Content.Title)
	assert.Equal(t, 2, env.provider.CallCount())
}

func TestContentService_CanceledContext(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.content.GetGame(ctx, content.Request{Subject: "math", Topic: "shapes"}, false)
	assert.ErrorIs(t, err, context.Canceled)
}
