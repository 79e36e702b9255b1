package repository

import (
	"testing"
	"time"

	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/testutil"
	"kids_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestLessonMaterialRepository_UpsertAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewLessonMaterialRepository(db)
	key := MaterialKey{ContentType: model.ContentLesson, Subject: "science", GradeLevel: 2, Topic: "plants", Language: "en"}

	m := &model.LessonMaterial{
		ContentType: key.ContentType, Subject: key.Subject, GradeLevel: key.GradeLevel,
		Topic: key.Topic, Language: key.Language, Content: datatypes.JSON(`{"v":1}`),
	}
	require.NoError(t, repo.Upsert(m))

	again := *m
	again.ID = 0
	again.Content = datatypes.JSON(`{"v":2}`)
	require.NoError(t, repo.Upsert(&again))

	found, err := repo.FindByKey(key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(found.Content))

	require.NoError(t, repo.Delete(found.ID))
	_, err = repo.FindByKey(key)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// 删除后可重新写入
	fresh := *m
	fresh.ID = 0
	require.NoError(t, repo.Upsert(&fresh))
}

func TestLessonProgressRepository_Versioning(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewLessonProgressRepository(db)

	p := &model.LessonProgress{StudentID: "s-1", Subject: "math", Topic: "shapes", GradeLevel: 1, TotalChapters: 4}
	require.NoError(t, repo.Create(p))

	p.CurrentChapter = 1
	require.NoError(t, repo.UpdateVersioned(p))

	stale := *p
	stale.Version = 1
	assert.ErrorIs(t, repo.UpdateVersioned(&stale), util.ErrVersionConflict)

	list, err := repo.ListByStudent("s-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].CurrentChapter)
}

func TestStudentRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	parent, teacher, student := testutil.SeedFamily(t, db)
	repo := NewStudentRepository(db)

	require.NoError(t, repo.AddStars(student.ID, 3))
	require.NoError(t, repo.AddStars(student.ID, 2))
	found, err := repo.FindByID(student.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, found.TotalStars)

	byParent, err := repo.ListByParent(parent.ID)
	require.NoError(t, err)
	assert.Len(t, byParent, 1)

	byTeacher, err := repo.ListByTeacher(teacher.ID)
	require.NoError(t, err)
	assert.Len(t, byTeacher, 1)
}

func TestQuizScoreRepository_Aggregates(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewQuizScoreRepository(db)

	scores := []model.QuizScore{
		{StudentID: "s-1", Subject: "math", Topic: "fractions", GradeLevel: 3, Score: 3, MaxScore: 10, Percentage: 30},
		{StudentID: "s-1", Subject: "math", Topic: "fractions", GradeLevel: 3, Score: 5, MaxScore: 10, Percentage: 50},
		{StudentID: "s-1", Subject: "math", Topic: "shapes", GradeLevel: 3, Score: 10, MaxScore: 10, Percentage: 100},
	}
	for i := range scores {
		require.NoError(t, repo.Create(&scores[i]))
	}

	weak, err := repo.WeakTopics("s-1", 70, 5)
	require.NoError(t, err)
	require.Len(t, weak, 1)
	assert.Equal(t, "fractions", weak[0].Topic)
	assert.InDelta(t, 40, weak[0].Average, 0.01)
	assert.EqualValues(t, 2, weak[0].Attempts)

	perfect, err := repo.CountPerfect("s-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, perfect)

	avg, err := repo.AveragePercentage("s-1")
	require.NoError(t, err)
	assert.InDelta(t, 60, avg, 0.01)

	none, err := repo.AveragePercentage("nobody")
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestBadgeRepository_AwardIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewBadgeRepository(db)

	badges, err := repo.ListAll()
	require.NoError(t, err)
	require.Len(t, badges, len(model.DefaultBadges()))

	first, err := repo.Award("s-1", badges[0].ID, time.Now())
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.Award("s-1", badges[0].ID, time.Now())
	require.NoError(t, err)
	assert.False(t, second)

	owned, err := repo.ListByStudent("s-1")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, badges[0].Code, owned[0].Badge.Code)
}

func TestLearningActivityRepository_Counts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewLearningActivityRepository(db)

	now := time.Now()
	acts := []model.LearningActivity{
		{StudentID: "s-1", ActivityType: model.ActivityQuiz, Completed: true, StartedAt: now},
		{StudentID: "s-1", ActivityType: model.ActivityQuiz, Completed: false, StartedAt: now},
		{StudentID: "s-1", ActivityType: model.ActivityGame, Completed: true, StartedAt: now},
	}
	for i := range acts {
		require.NoError(t, repo.Create(&acts[i]))
	}

	n, err := repo.CountCompleted("s-1", model.ActivityQuiz)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	byType, err := repo.CountByType("s-1")
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	list, err := repo.ListByStudent("s-1", model.ActivityQuiz, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
