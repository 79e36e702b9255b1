package testutil

import (
	"fmt"
	"strings"
	"testing"

	"kids_edu_backend/internal/model"
	"kids_edu_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB 每个测试一个独立的内存 sqlite 库，已迁移并写入默认徽章
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SeedFamily 创建一个家长、一个教师和一个学生
func SeedFamily(t testing.TB, db *gorm.DB) (parent, teacher model.User, student model.Student) {
	t.Helper()

	parent = model.User{Name: "Pat", Email: "pat@example.com", Password: "x", Role: model.Parent}
	teacher = model.User{Name: "Tess", Email: "tess@example.com", Password: "x", Role: model.Teacher}
	require.NoError(t, db.Create(&parent).Error)
	require.NoError(t, db.Create(&teacher).Error)

	student = model.Student{ParentID: parent.ID, TeacherID: &teacher.ID, Name: "Kim", GradeLevel: 3, Language: "en"}
	require.NoError(t, db.Create(&student).Error)
	return parent, teacher, student
}
