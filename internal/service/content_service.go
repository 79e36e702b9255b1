package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"kids_edu_backend/internal/config"
	"kids_edu_backend/internal/content"
	"kids_edu_backend/internal/llm"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/repository"
	"kids_edu_backend/internal/util"
	"kids_edu_backend/pkg/logger"
	"kids_edu_backend/pkg/monitoring"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SourceCache    = "cache"
	SourceAI       = "ai"
	SourceFallback = "fallback"

	contentCachePrefix = "content:"
	contentCacheTTL    = time.Hour
)

// ContentResult 内容及其来源
type ContentResult[T any] struct {
	Content *T     `json:"content"`
	Source  string `json:"source"`
	Model   string `json:"model,omitempty"`
}

type ContentService struct {
	MaterialRepo *repository.LessonMaterialRepository
	Provider     llm.Provider
	Storage      *StorageService
	Redis        *redis.Client
	Cfg          *config.Config
}

func NewContentService(materialRepo *repository.LessonMaterialRepository, provider llm.Provider, storage *StorageService, rdb *redis.Client, cfg *config.Config) *ContentService {
	return &ContentService{
		MaterialRepo: materialRepo,
		Provider:     provider,
		Storage:      storage,
		Redis:        rdb,
		Cfg:          cfg,
	}
}

// GetLesson cacheable 为 false 时（游客）不读写缓存
func (s *ContentService) GetLesson(ctx context.Context, req content.Request, cacheable bool) (*ContentResult[content.Lesson], error) {
	req.ContentType = model.ContentLesson
	return fetchContent(ctx, s, req, cacheable, contentHandler[content.Lesson]{
		normalize: content.NormalizeLessonContent,
		fallback:  content.FallbackLesson,
	})
}

// GetQuiz 缓存的题目数少于请求数时重新生成
func (s *ContentService) GetQuiz(ctx context.Context, req content.Request, cacheable bool) (*ContentResult[content.QuizContent], error) {
	req.ContentType = model.ContentQuiz
	return fetchContent(ctx, s, req, cacheable, contentHandler[content.QuizContent]{
		normalize: content.NormalizeQuizContent,
		fallback:  content.FallbackQuiz,
		usable: func(q *content.QuizContent, r content.Request) bool {
			return len(q.Questions) >= r.QuestionCount
		},
	})
}

func (s *ContentService) GetGame(ctx context.Context, req content.Request, cacheable bool) (*ContentResult[content.Game], error) {
	req.ContentType = model.ContentGame
	return fetchContent(ctx, s, req, cacheable, contentHandler[content.Game]{
		normalize: content.NormalizeGameContent,
		fallback:  content.FallbackGame,
	})
}

type contentHandler[T any] struct {
	normalize func([]byte) (*T, error)
	fallback  func(content.Request) *T
	usable    func(*T, content.Request) bool
}

func (c contentHandler[T]) accept(raw []byte, req content.Request) (*T, error) {
	v, err := c.normalize(raw)
	if err != nil {
		return nil, err
	}
	if c.usable != nil && !c.usable(v, req) {
		return nil, fmt.Errorf("%w: not enough items", content.ErrMalformedContent)
	}
	return v, nil
}

func materialKey(req content.Request) repository.MaterialKey {
	return repository.MaterialKey{
		ContentType: req.ContentType,
		Subject:     req.Subject,
		GradeLevel:  req.GradeLevel,
		Topic:       req.Topic,
		Subtopic:    req.Subtopic,
		Language:    req.Language,
	}
}

func cacheKey(k repository.MaterialKey) string {
	return fmt.Sprintf("%s%s:%s:%d:%s:%s:%s", contentCachePrefix, k.ContentType, k.Subject, k.GradeLevel, k.Topic, k.Subtopic, k.Language)
}

func fetchContent[T any](ctx context.Context, s *ContentService, req content.Request, cacheable bool, handler contentHandler[T]) (*ContentResult[T], error) {
	req.Normalize(util.DefaultLanguage, s.Cfg.Quiz.DefaultQuestions)
	key := materialKey(req)
	kind := string(req.ContentType)

	if cacheable {
		if v := lookupCache(ctx, s, key, req, handler); v != nil {
			monitoring.ContentCache.WithLabelValues(kind, "hit").Inc()
			return &ContentResult[T]{Content: v, Source: SourceCache}, nil
		}
		monitoring.ContentCache.WithLabelValues(kind, "miss").Inc()
	}

	v, resp, err := generate(ctx, s, req, handler)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Log.Warn("Content generation failed, using fallback",
			zap.String("type", kind),
			zap.String("subject", req.Subject),
			zap.String("topic", req.Topic),
			zap.Error(err))
		monitoring.ContentCache.WithLabelValues(kind, "fallback").Inc()
		return &ContentResult[T]{Content: handler.fallback(req), Source: SourceFallback}, nil
	}

	if cacheable {
		s.store(ctx, key, v, resp)
	}
	return &ContentResult[T]{Content: v, Source: SourceAI, Model: resp.Model}, nil
}

// lookupCache 先查 Redis 再查数据库；损坏的缓存行删除后返回 nil，由调用方重新生成
func lookupCache[T any](ctx context.Context, s *ContentService, key repository.MaterialKey, req content.Request, handler contentHandler[T]) *T {
	if s.Redis != nil {
		if raw, err := s.Redis.Get(ctx, cacheKey(key)).Bytes(); err == nil {
			if v, err := handler.accept(raw, req); err == nil {
				return v
			}
		}
	}

	m, err := s.MaterialRepo.FindByKey(key)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Error("Failed to read lesson material", zap.Error(err))
		}
		return nil
	}

	v, err := handler.accept(m.Content, req)
	if err != nil {
		monitoring.ContentCache.WithLabelValues(string(key.ContentType), "malformed").Inc()
		logger.Log.Warn("Deleting malformed cached content",
			zap.Uint("id", m.ID),
			zap.String("type", string(key.ContentType)),
			zap.String("topic", key.Topic),
			zap.Error(err))
		if err := s.MaterialRepo.Delete(m.ID); err != nil {
			logger.Log.Error("Failed to delete malformed content", zap.Uint("id", m.ID), zap.Error(err))
		}
		if s.Redis != nil {
			s.Redis.Del(ctx, cacheKey(key))
		}
		if m.ArchiveURL != "" && s.Storage != nil {
			if err := s.Storage.DeleteArchive(ctx, m.ArchiveURL); err != nil {
				logger.Log.Warn("Failed to delete archived content", zap.String("url", m.ArchiveURL), zap.Error(err))
			}
		}
		return nil
	}

	s.warm(ctx, key, m.Content)
	return v
}

// generate 返回内容无法规范化时重试，最多 ai.max_attempts 次；
// 调用本身出错直接返回，临时错误的重试由 llm.WithRetry 负责
func generate[T any](ctx context.Context, s *ContentService, req content.Request, handler contentHandler[T]) (*T, *llm.Response, error) {
	attempts := s.Cfg.AI.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	llmReq := req.LLMRequest(s.Cfg.AI.MaxTokens, s.Cfg.AI.Temperature)
	ctx = llm.WithPurpose(ctx, string(req.ContentType))

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.Cfg.AI.Timeout())
		resp, err := s.Provider.Generate(callCtx, llmReq)
		cancel()
		if err != nil {
			lastErr = err
			break
		}

		v, err := handler.accept(resp.Content, req)
		if err != nil {
			logger.Log.Warn("AI returned unusable content",
				zap.Int("attempt", attempt),
				zap.String("type", string(req.ContentType)),
				zap.Error(err))
			lastErr = err
			continue
		}
		return v, resp, nil
	}
	return nil, nil, fmt.Errorf("%w: %v", util.ErrContentUnavailable, lastErr)
}

// store 保存规范化后的内容，原始返回归档到对象存储
func (s *ContentService) store(ctx context.Context, key repository.MaterialKey, v any, resp *llm.Response) {
	normalized, err := json.Marshal(v)
	if err != nil {
		logger.Log.Error("Failed to encode content", zap.Error(err))
		return
	}

	m := &model.LessonMaterial{
		ContentType: key.ContentType,
		Subject:     key.Subject,
		GradeLevel:  key.GradeLevel,
		Topic:       key.Topic,
		Subtopic:    key.Subtopic,
		Language:    key.Language,
		Content:     datatypes.JSON(normalized),
		Model:       resp.Model,
	}

	if s.Storage != nil {
		prefix := archiveSlug(string(key.ContentType), key.Subject, fmt.Sprintf("grade-%d", key.GradeLevel), key.Topic, key.Subtopic, key.Language)
		if url, err := s.Storage.Archive(ctx, prefix, resp.Content); err != nil {
			logger.Log.Warn("Failed to archive AI response", zap.Error(err))
		} else {
			m.ArchiveURL = url
		}
	}

	if err := s.MaterialRepo.Upsert(m); err != nil {
		logger.Log.Error("Failed to cache lesson material", zap.Error(err))
		return
	}
	s.warm(ctx, key, normalized)
}

func (s *ContentService) warm(ctx context.Context, key repository.MaterialKey, data []byte) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Set(ctx, cacheKey(key), data, contentCacheTTL).Err(); err != nil {
		logger.Log.Debug("Failed to warm content cache", zap.Error(err))
	}
}
