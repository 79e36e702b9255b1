package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"kids_edu_backend/internal/model"
	"kids_edu_backend/internal/quiz"
	"kids_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredSession(t *testing.T, id string) *StoredSession {
	t.Helper()
	sess, err := quiz.NewSession(id, model.ProgressKey{StudentID: "s-1", Subject: "math", Topic: "fractions", GradeLevel: 3},
		[]quiz.Question{{Question: "1+1?", QuestionType: quiz.TypeMultipleChoice, Options: []string{"1", "2"}, CorrectAnswer: 1}}, false)
	require.NoError(t, err)
	return &StoredSession{Session: sess, OwnerID: 7, RowID: 3}
}

func TestMemorySessionStore_SaveLoadCopy(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()
	stored := newStoredSession(t, "abc")
	require.NoError(t, store.Save(ctx, stored))

	// 保存后修改不影响已存的副本
	require.NoError(t, stored.Session.SelectAnswer(1))

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, loaded.Session.SelectedAnswer)
	assert.Equal(t, uint(7), loaded.OwnerID)
	assert.Equal(t, uint(3), loaded.RowID)
	assert.Equal(t, "fractions", loaded.Session.Key.Topic)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, newStoredSession(t, "old")))

	now = now.Add(2 * time.Minute)
	_, err := store.Load(ctx, "old")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestSessionLocks_Serialize(t *testing.T) {
	var locks sessionLocks
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("same")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}
