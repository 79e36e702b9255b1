package controller

import (
	"kids_edu_backend/internal/service"
	"kids_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// StartQuiz godoc
// @Summary 开始或恢复测验
// @Description 登录用户需提供 studentId，resume 为 true 时从未完成的进度恢复；游客题目数受限且不保存进度
// @Tags 测验
// @Accept  json
// @Produce  json
// @Param   body body service.StartQuizInput true "测验参数"
// @Success 201 {object} util.Response{data=service.QuizResult}
// @Failure 403 {object} util.Response
// @Router /quiz/sessions [post]
func (c *QuizController) StartQuiz(ctx *gin.Context) {
	var req service.StartQuizInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.QuizService.Start(ctx.Request.Context(), util.GetUserFromContext(ctx), req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Created(ctx, res)
}

// GetSession godoc
// @Summary 当前测验状态
// @Tags 测验
// @Produce  json
// @Param   sessionId path string true "会话ID"
// @Success 200 {object} util.Response{data=service.QuizResult}
// @Failure 404 {object} util.Response "会话不存在或已过期"
// @Router /quiz/sessions/{sessionId} [get]
func (c *QuizController) GetSession(ctx *gin.Context) {
	res, err := c.QuizService.Get(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("sessionId"))
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// swagger:model SelectAnswerRequest
type SelectAnswerRequest struct {
	Answer *int `json:"answer" binding:"required"`
}

// SelectAnswer godoc
// @Summary 选择答案
// @Description 只修改会话状态，不保存进度
// @Tags 测验
// @Accept  json
// @Produce  json
// @Param   sessionId path string true "会话ID"
// @Param   body body SelectAnswerRequest true "选项下标"
// @Success 200 {object} util.Response{data=service.QuizResult}
// @Failure 400 {object} util.Response "选项越界"
// @Failure 409 {object} util.Response "答案已提交"
// @Router /quiz/sessions/{sessionId}/select [post]
func (c *QuizController) SelectAnswer(ctx *gin.Context) {
	var req SelectAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.QuizService.SelectAnswer(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("sessionId"), *req.Answer)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// CheckAnswer godoc
// @Summary 提交并检查答案
// @Tags 测验
// @Produce  json
// @Param   sessionId path string true "会话ID"
// @Success 200 {object} util.Response{data=service.QuizResult}
// @Router /quiz/sessions/{sessionId}/check [post]
func (c *QuizController) CheckAnswer(ctx *gin.Context) {
	res, err := c.QuizService.CheckAnswer(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("sessionId"))
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// NextQuestion godoc
// @Summary 下一题
// @Description 保存进度；最后一题时完成测验并返回成绩。persistence 字段说明写入结果
// @Tags 测验
// @Produce  json
// @Param   sessionId path string true "会话ID"
// @Success 200 {object} util.Response{data=service.QuizResult}
// @Router /quiz/sessions/{sessionId}/next [post]
func (c *QuizController) NextQuestion(ctx *gin.Context) {
	res, err := c.QuizService.Next(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("sessionId"))
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// PauseQuiz godoc
// @Summary 暂停测验
// @Tags 测验
// @Produce  json
// @Param   sessionId path string true "会话ID"
// @Success 200 {object} util.Response{data=service.QuizResult}
// @Router /quiz/sessions/{sessionId}/pause [post]
func (c *QuizController) PauseQuiz(ctx *gin.Context) {
	res, err := c.QuizService.Pause(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("sessionId"))
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// ListQuizProgress godoc
// @Summary 学生的测验进度
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path string true "学生ID"
// @Param   incomplete query bool false "只返回未完成的"
// @Success 200 {object} util.Response{data=[]model.QuizProgress}
// @Router /students/{studentId}/quiz-progress [get]
func (c *QuizController) ListQuizProgress(ctx *gin.Context) {
	onlyIncomplete := ctx.Query("incomplete") == "true"
	list, err := c.QuizService.ListProgress(util.GetUserFromContext(ctx), ctx.Param("studentId"), onlyIncomplete)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}
