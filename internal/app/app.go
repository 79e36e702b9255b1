package app

import (
	"context"
	"errors"
	"kids_edu_backend/internal/config"
	"kids_edu_backend/internal/controller"
	"kids_edu_backend/internal/llm"
	"kids_edu_backend/internal/repository"
	"kids_edu_backend/internal/service"
	"kids_edu_backend/pkg/configwatcher"
	"kids_edu_backend/pkg/database"
	"kids_edu_backend/pkg/logger"
	"kids_edu_backend/pkg/monitoring"
	"kids_edu_backend/pkg/security"
	"kids_edu_backend/pkg/tracing"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	Provider llm.Provider

	services        *services
	configCallbacks []func(*config.Config)
	tracerProvider  *sdktrace.TracerProvider
}

type repositories struct {
	user           *repository.UserRepository
	student        *repository.StudentRepository
	material       *repository.LessonMaterialRepository
	lessonProgress *repository.LessonProgressRepository
	quizProgress   *repository.QuizProgressRepository
	quizScore      *repository.QuizScoreRepository
	activity       *repository.LearningActivityRepository
	recommendation *repository.RecommendationRepository
	badge          *repository.BadgeRepository
}

type services struct {
	auth           *service.AuthService
	storage        *service.StorageService
	student        *service.StudentService
	content        *service.ContentService
	badge          *service.BadgeService
	activity       *service.ActivityService
	quiz           *service.QuizService
	recommendation *service.RecommendationService
	dashboard      *service.DashboardService
}

type controllers struct {
	auth      *controller.AuthController
	student   *controller.StudentController
	content   *controller.ContentController
	quiz      *controller.QuizController
	activity  *controller.ActivityController
	dashboard *controller.DashboardController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:           repository.NewUserRepository(db),
		student:        repository.NewStudentRepository(db),
		material:       repository.NewLessonMaterialRepository(db),
		lessonProgress: repository.NewLessonProgressRepository(db),
		quizProgress:   repository.NewQuizProgressRepository(db),
		quizScore:      repository.NewQuizScoreRepository(db),
		activity:       repository.NewLearningActivityRepository(db),
		recommendation: repository.NewRecommendationRepository(db),
		badge:          repository.NewBadgeRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client, provider llm.Provider) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.student = service.NewStudentService(repos.student, repos.user)
	s.content = service.NewContentService(repos.material, provider, s.storage, rdb, cfg)
	s.badge = service.NewBadgeService(repos.badge, repos.activity, repos.quizScore, repos.student)
	s.activity = service.NewActivityService(repos.activity, repos.lessonProgress, repos.recommendation, s.badge)

	// 有 Redis 时会话可以跨实例共享
	var sessions service.SessionStore
	if rdb != nil {
		sessions = service.NewRedisSessionStore(rdb, cfg.Quiz.SessionTTL())
	} else {
		sessions = service.NewMemorySessionStore(cfg.Quiz.SessionTTL())
	}
	s.quiz = service.NewQuizService(s.content, s.student, repos.quizProgress, repos.quizScore, repos.activity,
		repos.student, s.badge, sessions, cfg.Quiz)

	s.recommendation = service.NewRecommendationService(repos.recommendation, repos.quizScore, repos.activity, provider, cfg)
	s.dashboard = service.NewDashboardService(repos.student, repos.activity, repos.quizScore, repos.quizProgress,
		repos.lessonProgress, repos.recommendation, repos.badge)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		student:   controller.NewStudentController(s.student),
		content:   controller.NewContentController(s.content, s.quiz),
		quiz:      controller.NewQuizController(s.quiz),
		activity:  controller.NewActivityController(s.student, s.activity, s.badge, s.recommendation),
		dashboard: controller.NewDashboardController(s.student, s.dashboard),
		health:    controller.NewHealthController(a.DB, a.Redis, a.Config.AI.Provider),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window()))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// registerReloadable 热更新只影响测验规模和日志级别，其余配置需要重启
func (a *App) registerReloadable() {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.services.quiz.SetLimits(cfg.Quiz)
		logger.ApplyMode(cfg.Server.Mode)
		logger.Log.Info("Quiz limits updated",
			zap.Int("default_questions", cfg.Quiz.DefaultQuestions),
			zap.Int("max_questions", cfg.Quiz.MaxQuestions),
			zap.Float64("guest_ratio", cfg.Quiz.GuestRatio))
	})
}

// New 用已建立的连接组装服务，rdb 可以为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, provider llm.Provider) *App {
	app := &App{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Provider: provider,
	}

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, rdb, provider)
	controllers := app.initControllers(app.services)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)
	app.registerReloadable()

	return app
}

// NewApp 初始化日志、数据库、Redis、AI 和追踪后组装服务
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	// release 模式默认不自动迁移，需要 migrate 命令或 --migrate
	migrate := cfg.ForceMigrate || cfg.Server.Mode != "release"
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Error("Failed to initialize database", zap.Error(err))
		return nil, err
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Error("Failed to initialize redis", zap.Error(err))
		return nil, err
	}

	provider, err := llm.NewProvider(context.Background(), cfg.AI, logger.Log)
	if err != nil {
		logger.Log.Error("Failed to initialize AI provider", zap.Error(err))
		return nil, err
	}
	logger.Log.Info("AI provider ready", zap.String("provider", cfg.AI.Provider), zap.String("model", provider.ModelID()))

	// 监控初始化
	monitoring.Init()

	app := New(cfg, db, rdb, provider)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("kids-edu-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
			return nil, err
		}
		app.tracerProvider = tp
	}

	return app, nil
}

// Run 启动 HTTP 服务并监听配置变更，ctx 结束后优雅关闭
func (a *App) Run(ctx context.Context, configDir string) error {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	if configDir != "" {
		err := configwatcher.WatchConfig(ctx, configDir, func(cfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(cfg)
			}
		})
		if err != nil {
			// 热更新不可用不影响服务
			logger.Log.Warn("Config watcher not started", zap.Error(err))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	logger.Log.Info("Shutting down server...")

	// 设置5秒的超时时间
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	a.Close(shutdownCtx)
	logger.Log.Info("Server exiting")
	return nil
}

// Close 释放追踪、Redis 和数据库连接
func (a *App) Close(ctx context.Context) {
	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Log.Sync()
}
