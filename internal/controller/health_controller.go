package controller

import (
	"context"
	"kids_edu_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
	// AIProvider 当前使用的内容生成后端
	AIProvider string
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, aiProvider string) *HealthController {
	return &HealthController{DB: db, Redis: rdb, AIProvider: aiProvider}
}

// @Summary 健康检查
// @Description 检查服务状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	// 检查数据库连接
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	if err := sqlDB.Ping(); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	redisStatus := "disabled"
	if c.Redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		redisStatus = "up"
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			// Redis 只做缓存，不可用时服务降级运行
			redisStatus = "down"
		}
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"database": "up",
			"redis":    redisStatus,
			"ai":       c.AIProvider,
		},
	})
}
