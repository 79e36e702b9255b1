package controller

import (
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/service"
	"kids_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ActivityController 学习活动、课程进度、徽章和推荐
type ActivityController struct {
	StudentService        *service.StudentService
	ActivityService       *service.ActivityService
	BadgeService          *service.BadgeService
	RecommendationService *service.RecommendationService
}

func NewActivityController(studentService *service.StudentService, activityService *service.ActivityService,
	badgeService *service.BadgeService, recommendationService *service.RecommendationService) *ActivityController {
	return &ActivityController{
		StudentService:        studentService,
		ActivityService:       activityService,
		BadgeService:          badgeService,
		RecommendationService: recommendationService,
	}
}

// RecordActivity godoc
// @Summary 记录学习活动
// @Tags 学习活动
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path string true "学生ID"
// @Param   body body service.ActivityInput true "活动"
// @Success 201 {object} util.Response{data=service.ActivityResult}
// @Router /students/{studentId}/activities [post]
func (c *ActivityController) RecordActivity(ctx *gin.Context) {
	student, ok := currentStudent(ctx, c.StudentService)
	if !ok {
		return
	}
	var req service.ActivityInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.ActivityService.RecordActivity(student, req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Created(ctx, res)
}

// ListActivities godoc
// @Summary 学习活动列表
// @Tags 学习活动
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path string true "学生ID"
// @Param   type query string false "lesson | quiz | game"
// @Param   limit query int false "条数"
// @Success 200 {object} util.Response{data=[]model.LearningActivity}
// @Router /students/{studentId}/activities [get]
func (c *ActivityController) ListActivities(ctx *gin.Context) {
	student, ok := currentStudent(ctx, c.StudentService)
	if !ok {
		return
	}

	list, err := c.ActivityService.ListActivities(student.ID, model.ActivityType(ctx.Query("type")), util.ParseLimit(ctx.Query("limit")))
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// AdvanceLesson godoc
// @Summary 更新课程章节进度
// @Description 带上 version 做并发检查；冲突时返回 persistence.status=conflict 和当前进度
// @Tags 学习活动
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path string true "学生ID"
// @Param   body body service.LessonAdvanceInput true "章节"
// @Success 200 {object} util.Response{data=service.ActivityResult}
// @Router /students/{studentId}/lessons/advance [post]
func (c *ActivityController) AdvanceLesson(ctx *gin.Context) {
	student, ok := currentStudent(ctx, c.StudentService)
	if !ok {
		return
	}
	var req service.LessonAdvanceInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.ActivityService.AdvanceLesson(student, req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// ListLessonProgress godoc
// @Summary 课程进度列表
// @Tags 学习活动
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path string true "学生ID"
// @Success 200 {object} util.Response{data=[]model.LessonProgress}
// @Router /students/{studentId}/lessons [get]
func (c *ActivityController) ListLessonProgress(ctx *gin.Context) {
	student, ok := currentStudent(ctx, c.StudentService)
	if !ok {
		return
	}

	list, err := c.ActivityService.ListLessonProgress(student.ID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// RecordGameInteraction godoc
// @Summary 记录小游戏结果
// @Tags 学习活动
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path string true "学生ID"
// @Param   body body service.GameInteractionInput true "游戏结果"
// @Success 201 {object} util.Response{data=service.ActivityResult}
// @Router /students/{studentId}/games/interaction [post]
func (c *ActivityController) RecordGameInteraction(ctx *gin.Context) {
	student, ok := currentStudent(ctx, c.StudentService)
	if !ok {
		return
	}
	var req service.GameInteractionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Correct > req.Total {
		util.BadRequest(ctx, "correct cannot exceed total")
		return
	}

	res, err := c.ActivityService.RecordGameInteraction(student, req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Created(ctx, res)
}

// ListBadges godoc
// @Summary 学生已获得的徽章
// @Tags 徽章
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path string true "学生ID"
// @Success 200 {object} util.Response{data=[]model.StudentBadge}
// @Router /students/{studentId}/badges [get]
func (c *ActivityController) ListBadges(ctx *gin.Context) {
	student, ok := currentStudent(ctx, c.StudentService)
	if !ok {
		return
	}

	badges, err := c.BadgeService.ListForStudent(student.ID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, badges)
}

// ListRecommendations godoc
// @Summary 学习建议列表
// @Tags 推荐
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path string true "学生ID"
// @Param   all query bool false "包含已完成的"
// @Success 200 {object} util.Response{data=[]model.AIRecommendation}
// @Router /students/{studentId}/recommendations [get]
func (c *ActivityController) ListRecommendations(ctx *gin.Context) {
	student, ok := currentStudent(ctx, c.StudentService)
	if !ok {
		return
	}

	list, err := c.RecommendationService.List(student.ID, ctx.Query("all") == "true")
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// GenerateRecommendations godoc
// @Summary 生成学习建议
// @Description 根据薄弱主题调用 AI 生成建议，AI 不可用时按规则生成
// @Tags 推荐
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path string true "学生ID"
// @Success 201 {object} util.Response{data=[]model.AIRecommendation}
// @Failure 502 {object} util.Response "没有可推荐的内容"
// @Router /students/{studentId}/recommendations [post]
func (c *ActivityController) GenerateRecommendations(ctx *gin.Context) {
	student, ok := currentStudent(ctx, c.StudentService)
	if !ok {
		return
	}

	recs, err := c.RecommendationService.Generate(ctx.Request.Context(), student)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Created(ctx, recs)
}

// CompleteRecommendation godoc
// @Summary 标记建议已完成
// @Tags 推荐
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path string true "学生ID"
// @Param   id path int true "建议ID"
// @Success 200 {object} util.Response{data=model.AIRecommendation}
// @Failure 404 {object} util.Response
// @Router /students/{studentId}/recommendations/{id}/complete [post]
func (c *ActivityController) CompleteRecommendation(ctx *gin.Context) {
	student, ok := currentStudent(ctx, c.StudentService)
	if !ok {
		return
	}
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid recommendation id")
		return
	}

	rec, err := c.RecommendationService.Complete(student.ID, id)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, rec)
}
