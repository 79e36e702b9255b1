package controller

import (
	"kids_edu_backend/internal/content"
	"kids_edu_backend/internal/service"
	"kids_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	ContentService *service.ContentService
	QuizService    *service.QuizService
}

func NewContentController(contentService *service.ContentService, quizService *service.QuizService) *ContentController {
	return &ContentController{ContentService: contentService, QuizService: quizService}
}

func (c *ContentController) bind(ctx *gin.Context) (content.Request, bool, bool) {
	var req content.Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return req, false, false
	}
	// 游客每次都重新生成，不读写缓存
	cacheable := util.GetUserFromContext(ctx) != nil
	return req, cacheable, true
}

// GetLesson godoc
// @Summary 获取课程内容
// @Description 先查缓存，缓存缺失或损坏时调用 AI 生成；生成失败返回兜底内容
// @Tags 内容
// @Accept  json
// @Produce  json
// @Param   body body content.Request true "内容请求"
// @Success 200 {object} util.Response{data=service.ContentResult[content.Lesson]}
// @Router /content/lesson [post]
func (c *ContentController) GetLesson(ctx *gin.Context) {
	req, cacheable, ok := c.bind(ctx)
	if !ok {
		return
	}

	res, err := c.ContentService.GetLesson(ctx.Request.Context(), req, cacheable)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"content":  res.Content,
		"source":   res.Source,
		"model":    res.Model,
		"chapters": res.Content.Chapters(),
	})
}

// GetQuiz godoc
// @Summary 获取测验题目
// @Description 题目数按登录状态限制，游客最多可选 maxSelectable 题
// @Tags 内容
// @Accept  json
// @Produce  json
// @Param   body body content.Request true "内容请求"
// @Success 200 {object} util.Response{data=service.ContentResult[content.QuizContent]}
// @Router /content/quiz [post]
func (c *ContentController) GetQuiz(ctx *gin.Context) {
	req, cacheable, ok := c.bind(ctx)
	if !ok {
		return
	}
	limits := c.QuizService.Limits()
	req.QuestionCount = limits.QuestionCount(req.QuestionCount, !cacheable)

	res, err := c.ContentService.GetQuiz(ctx.Request.Context(), req, cacheable)
	if err != nil {
		handleError(ctx, err)
		return
	}
	if len(res.Content.Questions) > req.QuestionCount {
		res.Content.Questions = res.Content.Questions[:req.QuestionCount]
	}
	util.Success(ctx, gin.H{
		"content":       res.Content,
		"source":        res.Source,
		"model":         res.Model,
		"maxSelectable": limits.MaxSelectable(!cacheable),
	})
}

// GetGame godoc
// @Summary 获取小游戏内容
// @Tags 内容
// @Accept  json
// @Produce  json
// @Param   body body content.Request true "内容请求"
// @Success 200 {object} util.Response{data=service.ContentResult[content.Game]}
// @Router /content/game [post]
func (c *ContentController) GetGame(ctx *gin.Context) {
	req, cacheable, ok := c.bind(ctx)
	if !ok {
		return
	}

	res, err := c.ContentService.GetGame(ctx.Request.Context(), req, cacheable)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
