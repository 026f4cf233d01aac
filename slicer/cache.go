package slicer

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/meysamhadeli/assemble/slicer/models"
	"github.com/zeebo/xxh3"
)

// CacheEntry is one parsed program stored on disk.
type CacheEntry struct {
	Program   *models.AnalyzedProgram
	Timestamp time.Time
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	TotalRequests int64
	CacheHits     int64
	CacheMisses   int64
	LastResetTime time.Time
	mutex         sync.RWMutex
}

// CacheManager keeps parsed programs keyed by the hash of their source text.
// Entries never go stale: a different source text produces a different key.
type CacheManager struct {
	cacheDir string
	mutex    sync.RWMutex
	stats    *CacheStats
}

// CacheCleanupOptions defines options for cache cleanup
type CacheCleanupOptions struct {
	MaxAge   time.Duration
	MaxFiles int
	DryRun   bool
}

// HashSource returns the cache key of a source text.
func HashSource(text string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(text))
}

// NewCacheManager creates a cache manager rooted at cacheDir.
// If cacheDir is empty, it defaults to ".cache/slices" in the current working directory.
func NewCacheManager(cacheDir string) (*CacheManager, error) {
	if cacheDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		cacheDir = filepath.Join(cwd, ".cache", "slices")
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cm := &CacheManager{
		cacheDir: cacheDir,
		stats:    &CacheStats{LastResetTime: time.Now()},
	}

	go cm.performAutoCleanup()

	return cm, nil
}

func (cm *CacheManager) cachePath(hash string) string {
	return filepath.Join(cm.cacheDir, hash+".cache")
}

// GetProgram returns the cached program for a source hash.
func (cm *CacheManager) GetProgram(hash string) (*models.AnalyzedProgram, bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	data, err := os.ReadFile(cm.cachePath(hash))
	if err != nil {
		cm.recordCacheMiss()
		return nil, false
	}

	var entry CacheEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil || entry.Program == nil {
		cm.recordCacheMiss()
		return nil, false
	}

	cm.recordCacheHit()
	return entry.Program, true
}

// SetProgram stores a parsed program under its hash.
func (cm *CacheManager) SetProgram(program *models.AnalyzedProgram) error {
	if program == nil || program.Hash == "" {
		return fmt.Errorf("program without hash cannot be cached")
	}

	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	var buffer bytes.Buffer
	entry := CacheEntry{Program: program, Timestamp: time.Now()}
	if err := gob.NewEncoder(&buffer).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := os.WriteFile(cm.cachePath(program.Hash), buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// ClearCache removes every cached program.
func (cm *CacheManager) ClearCache() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if err := os.RemoveAll(cm.cacheDir); err != nil {
		return fmt.Errorf("failed to remove cache directory: %w", err)
	}
	return os.MkdirAll(cm.cacheDir, 0755)
}

// GetCacheStats returns cache statistics
func (cm *CacheManager) GetCacheStats() (map[string]interface{}, error) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	files, err := os.ReadDir(cm.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var totalSize int64
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if info, err := file.Info(); err == nil {
			totalSize += info.Size()
		}
	}

	stats := cm.GetPerformanceStats()
	stats["cache_enabled"] = true
	stats["cache_files"] = len(files)
	stats["total_size"] = totalSize
	stats["cache_dir"] = cm.cacheDir

	return stats, nil
}

// SmartCleanupCache removes the oldest entries by age, then by count.
func (cm *CacheManager) SmartCleanupCache(options CacheCleanupOptions) (int, error) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	files, err := os.ReadDir(cm.cacheDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}

	var infos []fileInfo
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo{path: filepath.Join(cm.cacheDir, file.Name()), modTime: info.ModTime()})
	}

	// oldest first
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].modTime.Before(infos[j].modTime)
	})

	var toDelete []string
	kept := infos[:0]
	if options.MaxAge > 0 {
		cutoff := time.Now().Add(-options.MaxAge)
		for _, f := range infos {
			if f.modTime.Before(cutoff) {
				toDelete = append(toDelete, f.path)
			} else {
				kept = append(kept, f)
			}
		}
	} else {
		kept = infos
	}

	if options.MaxFiles > 0 && len(kept) > options.MaxFiles {
		for _, f := range kept[:len(kept)-options.MaxFiles] {
			toDelete = append(toDelete, f.path)
		}
	}

	if options.DryRun {
		return len(toDelete), nil
	}

	deleted := 0
	for _, path := range toDelete {
		if err := os.Remove(path); err == nil {
			deleted++
		}
	}

	return deleted, nil
}

// performAutoCleanup performs background automatic cleanup with conservative defaults
func (cm *CacheManager) performAutoCleanup() {
	_, _ = cm.SmartCleanupCache(CacheCleanupOptions{
		MaxAge:   7 * 24 * time.Hour,
		MaxFiles: 1000,
	})
}

func (cm *CacheManager) recordCacheHit() {
	cm.stats.mutex.Lock()
	defer cm.stats.mutex.Unlock()
	cm.stats.TotalRequests++
	cm.stats.CacheHits++
}

func (cm *CacheManager) recordCacheMiss() {
	cm.stats.mutex.Lock()
	defer cm.stats.mutex.Unlock()
	cm.stats.TotalRequests++
	cm.stats.CacheMisses++
}

// GetPerformanceStats returns hit/miss counters
func (cm *CacheManager) GetPerformanceStats() map[string]interface{} {
	cm.stats.mutex.RLock()
	defer cm.stats.mutex.RUnlock()

	hitRate := 0.0
	if cm.stats.TotalRequests > 0 {
		hitRate = float64(cm.stats.CacheHits) / float64(cm.stats.TotalRequests) * 100
	}

	return map[string]interface{}{
		"total_requests": cm.stats.TotalRequests,
		"cache_hits":     cm.stats.CacheHits,
		"cache_misses":   cm.stats.CacheMisses,
		"hit_rate":       hitRate,
		"last_reset":     cm.stats.LastResetTime.Format(time.RFC3339),
	}
}

// ResetPerformanceStats resets all performance counters
func (cm *CacheManager) ResetPerformanceStats() {
	cm.stats.mutex.Lock()
	defer cm.stats.mutex.Unlock()

	cm.stats.TotalRequests = 0
	cm.stats.CacheHits = 0
	cm.stats.CacheMisses = 0
	cm.stats.LastResetTime = time.Now()
}
