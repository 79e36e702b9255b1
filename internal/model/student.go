package model

// Student 孩子的学习档案，由家长创建，可分配给教师
// swagger:model Student
type Student struct {
	UUIDBase
	ParentID   uint   `gorm:"index;not null" json:"parentId"`
	TeacherID  *uint  `gorm:"index" json:"teacherId,omitempty"`
	Name       string `gorm:"size:100;not null" json:"name"`
	GradeLevel int    `gorm:"not null" json:"gradeLevel"`
	Language   string `gorm:"size:10;default:'en'" json:"language"`
	Avatar     string `gorm:"size:255" json:"avatar"`
	TotalStars int    `gorm:"default:0" json:"totalStars"`
}

func (Student) TableName() string {
	return "students"
}
