package service

import (
	"errors"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/repository"
	"kids_edu_backend/internal/util"
	"strings"

	"gorm.io/gorm"
)

type StudentService struct {
	StudentRepo *repository.StudentRepository
	UserRepo    *repository.UserRepository
}

func NewStudentService(studentRepo *repository.StudentRepository, userRepo *repository.UserRepository) *StudentService {
	return &StudentService{StudentRepo: studentRepo, UserRepo: userRepo}
}

type StudentInput struct {
	Name       string `json:"name" binding:"required,max=100"`
	GradeLevel int    `json:"gradeLevel" binding:"min=0,max=12"`
	Language   string `json:"language"`
	Avatar     string `json:"avatar"`
	// TeacherEmail 可选，把学生分配给已注册的教师
	TeacherEmail string `json:"teacherEmail"`
}

// Authorize 加载学生并检查访问权限：家长本人、被分配的教师或管理员
func (s *StudentService) Authorize(claims *util.Claims, studentID string) (*model.Student, error) {
	if claims == nil {
		return nil, util.ErrUnauthorized
	}

	student, err := s.StudentRepo.FindByID(studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}

	switch {
	case claims.Role == model.Admin:
	case student.ParentID == claims.UserID:
	case student.TeacherID != nil && *student.TeacherID == claims.UserID:
	default:
		return nil, util.ErrPermissionDenied
	}
	return student, nil
}

func (s *StudentService) Create(claims *util.Claims, in StudentInput) (*model.Student, error) {
	if claims == nil {
		return nil, util.ErrUnauthorized
	}
	if claims.Role == model.Teacher {
		return nil, util.ErrPermissionDenied
	}

	student := &model.Student{
		ParentID:   claims.UserID,
		Name:       strings.TrimSpace(in.Name),
		GradeLevel: in.GradeLevel,
		Language:   in.Language,
		Avatar:     in.Avatar,
	}
	if student.Language == "" {
		student.Language = util.DefaultLanguage
	}
	if err := s.assignTeacher(student, in.TeacherEmail); err != nil {
		return nil, err
	}

	if err := s.StudentRepo.Create(student); err != nil {
		return nil, err
	}
	return student, nil
}

func (s *StudentService) Update(claims *util.Claims, studentID string, in StudentInput) (*model.Student, error) {
	student, err := s.Authorize(claims, studentID)
	if err != nil {
		return nil, err
	}
	// 教师只读
	if claims.Role == model.Teacher {
		return nil, util.ErrPermissionDenied
	}

	student.Name = strings.TrimSpace(in.Name)
	student.GradeLevel = in.GradeLevel
	if in.Language != "" {
		student.Language = in.Language
	}
	student.Avatar = in.Avatar
	if err := s.assignTeacher(student, in.TeacherEmail); err != nil {
		return nil, err
	}

	if err := s.StudentRepo.Update(student); err != nil {
		return nil, err
	}
	return student, nil
}

// List 家长看自己的孩子，教师看分配给自己的学生，管理员看全部
func (s *StudentService) List(claims *util.Claims) ([]model.Student, error) {
	if claims == nil {
		return nil, util.ErrUnauthorized
	}
	switch claims.Role {
	case model.Teacher:
		return s.StudentRepo.ListByTeacher(claims.UserID)
	case model.Admin:
		return s.StudentRepo.ListAll(util.MaxPageSize)
	default:
		return s.StudentRepo.ListByParent(claims.UserID)
	}
}

func (s *StudentService) assignTeacher(student *model.Student, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	teacher, err := s.UserRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if teacher.Role != model.Teacher {
		return util.ErrPermissionDenied
	}
	student.TeacherID = &teacher.ID
	return nil
}
