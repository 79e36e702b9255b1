package service

import (
	"context"
	"encoding/json"
	"testing"

	"kids_edu_backend/internal/llm"
	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendationService_Generate(t *testing.T) {
	env := newTestEnv(t)
	env.addScore(t, "math", "fractions", 2, 10)
	env.provider.AddResponse(llm.MockResponse{Content: json.RawMessage(`{"recommendations":[
		{"subject":"math","topic":"fractions","activityType":"lesson","reason":"Review halves","priority":3},
		{"subject":"math","topic":"pizza fractions","activityType":"game","reason":"Practice","priority":"2"}
	]}`)})

	recs, err := env.recommendations.Generate(context.Background(), &env.student)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, model.ActivityLesson, recs[0].ActivityType)
	assert.NotZero(t, recs[0].ID)

	payload, ok := env.provider.Calls[0].Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "recommendations", payload["contentType"])

	open, err := env.recommendations.List(env.student.ID, false)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestRecommendationService_FallsBackToRules(t *testing.T) {
	env := newTestEnv(t)
	env.addScore(t, "math", "fractions", 2, 10)
	env.addScore(t, "reading", "rhymes", 6, 10)

	recs, err := env.recommendations.Generate(context.Background(), &env.student)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "fractions", recs[0].Topic)
	assert.Equal(t, model.ActivityLesson, recs[0].ActivityType)
	assert.Equal(t, model.ActivityQuiz, recs[1].ActivityType)
}

func TestRecommendationService_NothingToRecommend(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.recommendations.Generate(context.Background(), &env.student)
	assert.ErrorIs(t, err, util.ErrContentUnavailable)
}

func TestRecommendationService_Complete(t *testing.T) {
	env := newTestEnv(t)
	rec := model.AIRecommendation{StudentID: env.student.ID, Topic: "fractions", ActivityType: model.ActivityQuiz}
	other := model.AIRecommendation{StudentID: "someone-else", Topic: "maps", ActivityType: model.ActivityLesson}
	require.NoError(t, env.db.Create(&rec).Error)
	require.NoError(t, env.db.Create(&other).Error)

	done, err := env.recommendations.Complete(env.student.ID, rec.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.NotNil(t, done.CompletedAt)

	_, err = env.recommendations.Complete(env.student.ID, other.ID)
	assert.ErrorIs(t, err, util.ErrRecommendationNotFound)
	_, err = env.recommendations.Complete(env.student.ID, 9999)
	assert.ErrorIs(t, err, util.ErrRecommendationNotFound)

	open, err := env.recommendations.List(env.student.ID, false)
	require.NoError(t, err)
	assert.Empty(t, open)
	all, err := env.recommendations.List(env.student.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
