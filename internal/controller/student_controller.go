package controller

import (
	"kids_edu_backend/internal/service"
	"kids_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StudentController struct {
	StudentService *service.StudentService
}

func NewStudentController(studentService *service.StudentService) *StudentController {
	return &StudentController{StudentService: studentService}
}

// CreateStudent godoc
// @Summary 创建孩子档案
// @Description 家长为孩子创建学习档案，可选分配教师
// @Tags 学生
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.StudentInput true "学生信息"
// @Success 201 {object} util.Response{data=model.Student}
// @Failure 403 {object} util.Response "教师不能创建学生"
// @Router /students [post]
func (c *StudentController) CreateStudent(ctx *gin.Context) {
	var req service.StudentInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	student, err := c.StudentService.Create(util.GetUserFromContext(ctx), req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Created(ctx, student)
}

// ListStudents godoc
// @Summary 学生列表
// @Description 家长看到自己的孩子，教师看到分配给自己的学生
// @Tags 学生
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Student}
// @Router /students [get]
func (c *StudentController) ListStudents(ctx *gin.Context) {
	students, err := c.StudentService.List(util.GetUserFromContext(ctx))
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, students)
}

// GetStudent godoc
// @Summary 学生详情
// @Tags 学生
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path string true "学生ID"
// @Success 200 {object} util.Response{data=model.Student}
// @Failure 404 {object} util.Response
// @Router /students/{studentId} [get]
func (c *StudentController) GetStudent(ctx *gin.Context) {
	student, ok := currentStudent(ctx, c.StudentService)
	if !ok {
		return
	}
	util.Success(ctx, student)
}

// UpdateStudent godoc
// @Summary 修改学生档案
// @Tags 学生
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path string true "学生ID"
// @Param   body body service.StudentInput true "学生信息"
// @Success 200 {object} util.Response{data=model.Student}
// @Router /students/{studentId} [put]
func (c *StudentController) UpdateStudent(ctx *gin.Context) {
	var req service.StudentInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	student, err := c.StudentService.Update(util.GetUserFromContext(ctx), ctx.Param("studentId"), req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, student)
}
