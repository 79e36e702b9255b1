package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"kids_edu_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageService_DeleteArchive(t *testing.T) {
	dir := t.TempDir()
	s := NewStorageService(&config.Config{Storage: config.StorageConfig{Type: "local", LocalPath: dir}})
	ctx := context.Background()

	url, err := s.Archive(ctx, "quiz/math", []byte(`{"questions":[]}`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/ai-archive/quiz/math/"))
	path := filepath.Join(dir, strings.TrimPrefix(url, "/uploads/"))
	require.FileExists(t, path)

	require.NoError(t, s.DeleteArchive(ctx, url))
	assert.NoFileExists(t, path)

	// 只删除归档目录下的对象
	assert.Error(t, s.DeleteArchive(ctx, "/uploads/avatars/kim.png"))
	assert.Error(t, s.DeleteArchive(ctx, "https://elsewhere.example.com/ai-archive/x.json"))
}
