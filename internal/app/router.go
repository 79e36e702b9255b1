package app

import (
	"kids_edu_backend/docs"
	"kids_edu_backend/internal/config"
	"kids_edu_backend/internal/middleware"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/pkg/monitoring"
	"kids_edu_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 内容生成和测验：可选认证，游客不缓存、题量受限
	a.registerLearningRoutes(router, c, cfg)

	// 3. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		// 家长/通用 授权接口
		a.registerStudentRoutes(authGroup, c, cfg)

		// 面板
		a.registerDashboardRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerLearningRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	// AI 调用单独限流，要在认证之后才能按用户区分
	aiLimit := security.KeyedRateLimiter(security.ByUserOrIP, cfg.RateLimit.AIMaxRequests, cfg.RateLimit.Window())

	learning := router.Group("/api")
	learning.Use(middleware.TryAuthMiddleware(cfg))
	{
		content := learning.Group("/content")
		content.Use(aiLimit)
		{
			content.POST("/lesson", c.content.GetLesson)
			content.POST("/quiz", c.content.GetQuiz)
			content.POST("/game", c.content.GetGame)
		}

		quiz := learning.Group("/quiz/sessions")
		{
			quiz.POST("", aiLimit, c.quiz.StartQuiz)
			quiz.GET("/:sessionId", c.quiz.GetSession)
			quiz.POST("/:sessionId/select", c.quiz.SelectAnswer)
			quiz.POST("/:sessionId/check", c.quiz.CheckAnswer)
			quiz.POST("/:sessionId/next", c.quiz.NextQuestion)
			quiz.POST("/:sessionId/pause", c.quiz.PauseQuiz)
		}
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers, cfg *config.Config) {
	rg.GET("/profile", c.auth.GetProfile)

	// 学生档案
	rg.POST("/students", middleware.RoleMiddleware(model.Parent), c.student.CreateStudent)
	rg.GET("/students", c.student.ListStudents)
	rg.GET("/students/:studentId", c.student.GetStudent)
	rg.PUT("/students/:studentId", c.student.UpdateStudent)

	student := rg.Group("/students/:studentId")
	{
		// 进度
		student.GET("/quiz-progress", c.quiz.ListQuizProgress)
		student.GET("/lessons", c.activity.ListLessonProgress)
		student.POST("/lessons/advance", c.activity.AdvanceLesson)

		// 学习活动
		student.POST("/activities", c.activity.RecordActivity)
		student.GET("/activities", c.activity.ListActivities)
		student.POST("/games/interaction", c.activity.RecordGameInteraction)

		// 徽章
		student.GET("/badges", c.activity.ListBadges)

		// 学习建议
		student.GET("/recommendations", c.activity.ListRecommendations)
		student.POST("/recommendations",
			security.KeyedRateLimiter(security.ByUserOrIP, cfg.RateLimit.AIMaxRequests, cfg.RateLimit.Window()),
			c.activity.GenerateRecommendations)
		student.POST("/recommendations/:id/complete", c.activity.CompleteRecommendation)
	}
}

func (a *App) registerDashboardRoutes(rg *gin.RouterGroup, c *controllers) {
	dashboard := rg.Group("/dashboard")
	{
		dashboard.GET("/parent/:studentId", c.dashboard.GetParentDashboard)
		dashboard.GET("/teacher", middleware.RoleMiddleware(model.Teacher), c.dashboard.GetTeacherDashboard)
	}
}
