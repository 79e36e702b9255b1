package controller

import (
	"kids_edu_backend/internal/service"
	"kids_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	StudentService   *service.StudentService
	DashboardService *service.DashboardService
}

func NewDashboardController(studentService *service.StudentService, dashboardService *service.DashboardService) *DashboardController {
	return &DashboardController{StudentService: studentService, DashboardService: dashboardService}
}

// GetParentDashboard godoc
// @Summary 家长面板
// @Description 单个孩子的成绩、活动、进度、徽章和建议
// @Tags 面板
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path string true "学生ID"
// @Success 200 {object} util.Response{data=service.ParentDashboard}
// @Router /dashboard/parent/{studentId} [get]
func (c *DashboardController) GetParentDashboard(ctx *gin.Context) {
	student, ok := currentStudent(ctx, c.StudentService)
	if !ok {
		return
	}

	d, err := c.DashboardService.Parent(ctx.Request.Context(), student)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, d)
}

// GetTeacherDashboard godoc
// @Summary 教师面板
// @Description 分配给当前教师的所有学生的汇总
// @Tags 面板
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.TeacherDashboard}
// @Failure 403 {object} util.Response
// @Router /dashboard/teacher [get]
func (c *DashboardController) GetTeacherDashboard(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	d, err := c.DashboardService.Teacher(ctx.Request.Context(), claims.UserID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, d)
}
