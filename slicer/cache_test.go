package slicer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meysamhadeli/assemble/slicer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProgram(text string) *models.AnalyzedProgram {
	return &models.AnalyzedProgram{
		Hash: HashSource(text),
		Statements: []models.Statement{
			{Range: models.LocationRange{FirstLine: 1, LastLine: 1, LastColumn: 5}, Defs: []string{"x"}},
			{Range: models.LocationRange{FirstLine: 2, LastLine: 2, LastColumn: 5}, Defs: []string{"y"}, Uses: []string{"x"}},
		},
	}
}

func TestHashSource_IsContentAddressed(t *testing.T) {
	assert.Equal(t, HashSource("x = 1"), HashSource("x = 1"))
	assert.NotEqual(t, HashSource("x = 1"), HashSource("x = 2"))
	assert.Len(t, HashSource(""), 16)
}

// Test cache manager setup and basic operations
func TestCacheManager_BasicOperations(t *testing.T) {
	cacheManager, err := NewCacheManager(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, cacheManager)

	program := sampleProgram("x = 1\ny = x")

	cached, found := cacheManager.GetProgram(program.Hash)
	assert.False(t, found) // Should not be cached initially
	assert.Nil(t, cached)

	require.NoError(t, cacheManager.SetProgram(program))

	cached, found = cacheManager.GetProgram(program.Hash)
	assert.True(t, found)
	assert.Equal(t, program, cached)

	stats := cacheManager.GetPerformanceStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, int64(1), stats["cache_hits"])
	assert.Equal(t, int64(1), stats["cache_misses"])
	assert.Equal(t, 50.0, stats["hit_rate"])
}

func TestCacheManager_RejectsProgramWithoutHash(t *testing.T) {
	cacheManager, err := NewCacheManager(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, cacheManager.SetProgram(&models.AnalyzedProgram{}))
	assert.Error(t, cacheManager.SetProgram(nil))
}

func TestCacheManager_CorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	cacheManager, err := NewCacheManager(dir)
	require.NoError(t, err)

	hash := HashSource("broken")
	require.NoError(t, os.WriteFile(filepath.Join(dir, hash+".cache"), []byte("not gob"), 0644))

	_, found := cacheManager.GetProgram(hash)
	assert.False(t, found)
}

func TestCacheManager_ClearCache(t *testing.T) {
	cacheManager, err := NewCacheManager(t.TempDir())
	require.NoError(t, err)

	program := sampleProgram("a = 1")
	require.NoError(t, cacheManager.SetProgram(program))

	require.NoError(t, cacheManager.ClearCache())

	_, found := cacheManager.GetProgram(program.Hash)
	assert.False(t, found)

	stats, err := cacheManager.GetCacheStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats["cache_files"])
	assert.Equal(t, true, stats["cache_enabled"])
}

func TestCacheManager_SmartCleanup(t *testing.T) {
	dir := t.TempDir()
	cacheManager, err := NewCacheManager(dir)
	require.NoError(t, err)

	sources := []string{"a = 1", "b = 2", "c = 3"}
	for i, source := range sources {
		program := sampleProgram(source)
		require.NoError(t, cacheManager.SetProgram(program))
		modTime := time.Now().Add(-time.Duration(len(sources)-i) * time.Hour)
		require.NoError(t, os.Chtimes(filepath.Join(dir, program.Hash+".cache"), modTime, modTime))
	}

	wouldDelete, err := cacheManager.SmartCleanupCache(CacheCleanupOptions{MaxFiles: 1, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, wouldDelete)

	deleted, err := cacheManager.SmartCleanupCache(CacheCleanupOptions{MaxAge: 150 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, found := cacheManager.GetProgram(HashSource("a = 1"))
	assert.False(t, found)
	_, found = cacheManager.GetProgram(HashSource("c = 3"))
	assert.True(t, found)
}

func TestCacheManager_ResetPerformanceStats(t *testing.T) {
	cacheManager, err := NewCacheManager(t.TempDir())
	require.NoError(t, err)

	cacheManager.GetProgram("missing")
	cacheManager.ResetPerformanceStats()

	stats := cacheManager.GetPerformanceStats()
	assert.Equal(t, int64(0), stats["total_requests"])
	assert.Equal(t, 0.0, stats["hit_rate"])
}
