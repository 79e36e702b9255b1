package repository

import (
	"kids_edu_backend/internal/model"

	"gorm.io/gorm"
)

type StudentRepository struct {
	DB *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: db}
}

func (r *StudentRepository) Create(student *model.Student) error {
	return r.DB.Create(student).Error
}

func (r *StudentRepository) FindByID(id string) (*model.Student, error) {
	var student model.Student
	err := r.DB.Where("id = ?", id).First(&student).Error
	return &student, err
}

func (r *StudentRepository) ListByParent(parentID uint) ([]model.Student, error) {
	var students []model.Student
	err := r.DB.Where("parent_id = ?", parentID).Order("created_at ASC").Find(&students).Error
	return students, err
}

func (r *StudentRepository) ListByTeacher(teacherID uint) ([]model.Student, error) {
	var students []model.Student
	err := r.DB.Where("teacher_id = ?", teacherID).Order("name ASC").Find(&students).Error
	return students, err
}

func (r *StudentRepository) ListAll(limit int) ([]model.Student, error) {
	var students []model.Student
	err := r.DB.Order("name ASC").Limit(limit).Find(&students).Error
	return students, err
}

func (r *StudentRepository) Update(student *model.Student) error {
	return r.DB.Model(student).Select("name", "grade_level", "language", "avatar", "teacher_id").Updates(student).Error
}

// AddStars 原子累加星星数
func (r *StudentRepository) AddStars(id string, stars int) error {
	return r.DB.Model(&model.Student{}).
		Where("id = ?", id).
		Update("total_stars", gorm.Expr("total_stars + ?", stars)).
		Error
}
