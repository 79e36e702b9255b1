package controller

import (
	"context"
	"errors"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/quiz"
	"kids_edu_backend/internal/service"
	"kids_edu_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleError 在 util.HandleError 基础上补充测验状态机的错误
func handleError(ctx *gin.Context, err error) {
	var te *quiz.TransitionError
	switch {
	case errors.Is(err, quiz.ErrInvalidAnswer), errors.Is(err, quiz.ErrNoAnswerSelected),
		errors.Is(err, quiz.ErrNoQuestions):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, quiz.ErrAnswerLocked), errors.As(err, &te):
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		util.Error(ctx, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, context.Canceled):
		// 客户端已断开
		ctx.Status(499)
	default:
		util.HandleError(ctx, err)
	}
}

// currentStudent 读取路径中的 studentId 并检查当前用户的访问权限
func currentStudent(ctx *gin.Context, students *service.StudentService) (*model.Student, bool) {
	student, err := students.Authorize(util.GetUserFromContext(ctx), ctx.Param("studentId"))
	if err != nil {
		handleError(ctx, err)
		return nil, false
	}
	return student, true
}
