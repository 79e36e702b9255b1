package service

import (
	"context"
	"testing"
	"time"

	"kids_edu_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Parent(t *testing.T) {
	env := newTestEnv(t)
	env.addScore(t, "math", "fractions", 5, 10)
	env.addScore(t, "math", "shapes", 10, 10)
	env.addActivity(t, model.ActivityQuiz, true, time.Now())
	env.addActivity(t, model.ActivityGame, false, time.Now())

	d, err := env.dashboard.Parent(context.Background(), &env.student)
	require.NoError(t, err)

	assert.InDelta(t, 75.0, d.AverageScore, 0.01)
	assert.Equal(t, int64(2), d.ActivitiesWeek)
	assert.Len(t, d.RecentActivities, 2)
	assert.Len(t, d.RecentScores, 2)
	assert.Len(t, d.ActivitiesByType, 2)
	assert.Empty(t, d.OpenQuizzes)
	assert.Equal(t, env.student.ID, d.Student.ID)
}

func TestDashboardService_Teacher(t *testing.T) {
	env := newTestEnv(t)
	env.addScore(t, "math", "fractions", 8, 10)
	env.addActivity(t, model.ActivityQuiz, true, time.Now())

	second := model.Student{ParentID: env.parent.ID, TeacherID: &env.teacher.ID, Name: "Lee", GradeLevel: 2}
	require.NoError(t, env.db.Create(&second).Error)

	d, err := env.dashboard.Teacher(context.Background(), env.teacher.ID)
	require.NoError(t, err)
	require.Len(t, d.Students, 2)
	assert.InDelta(t, 80.0, d.ClassAverage, 0.01)

	for _, s := range d.Students {
		if s.Student.ID == env.student.ID {
			assert.Equal(t, int64(1), s.QuizzesCompleted)
			assert.InDelta(t, 80.0, s.AverageScore, 0.01)
		} else {
			assert.Zero(t, s.QuizzesCompleted)
		}
	}

	empty, err := env.dashboard.Teacher(context.Background(), env.parent.ID)
	require.NoError(t, err)
	assert.Empty(t, empty.Students)
}

func TestDashboardService_CanceledContext(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.dashboard.Parent(ctx, &env.student)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = env.dashboard.Teacher(ctx, env.teacher.ID)
	assert.ErrorIs(t, err, context.Canceled)
}
