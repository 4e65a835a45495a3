package cache

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"

	"github.com/d1j/facebook-stats/internal/core/model"
	"github.com/d1j/facebook-stats/internal/util"
)

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonError
	MissReasonInode
	MissReasonSize
	MissReasonModTime
	MissReasonFingerprint
	MissReasonNoFingerprint
	MissReasonNotFound
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonError:
		return "error"
	case MissReasonInode:
		return "inode"
	case MissReasonSize:
		return "size"
	case MissReasonModTime:
		return "modtime"
	case MissReasonFingerprint:
		return "fingerprint"
	case MissReasonNoFingerprint:
		return "no_fingerprint"
	case MissReasonNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// CachedFragment is a parsed fragment plus the attributes of the file it was
// parsed from.
type CachedFragment struct {
	Key                string             `json:"key"`
	FilePath           string             `json:"filePath"`
	Fragment           *model.RawFragment `json:"fragment"`
	LastModified       int64              `json:"lastModified"`
	FileSize           int64              `json:"fileSize"`
	Inode              uint64             `json:"inode"`
	ContentFingerprint string             `json:"contentFingerprint"`
}

type CacheResult struct {
	Data       *CachedFragment
	Found      bool
	MissReason CacheMissReason
}

type Cache interface {
	Get(path string) CacheResult
	Set(path string, fragment *model.RawFragment) error
	Clear() error
	Preload() error
}

// FileCache stores fragments as JSON files named by KeyFor and keeps valid
// entries in memory.
type FileCache struct {
	baseDir     string
	mu          sync.RWMutex
	memoryCache map[string]*CachedFragment
}

func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		memoryCache: make(map[string]*CachedFragment),
	}, nil
}

// KeyFor returns the cache key of a fragment path: the CRC32 of its absolute
// path. Fragments from different threads share base names, so the name alone
// is not unique.
func KeyFor(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(path)))
}

func (c *FileCache) cachePath(key string) string {
	return filepath.Join(c.baseDir, key+".json")
}

func (c *FileCache) Get(path string) CacheResult {
	key := KeyFor(path)

	c.mu.RLock()
	memData, exists := c.memoryCache[key]
	c.mu.RUnlock()

	if exists {
		if ret := validateCachedData(memData); ret.cached {
			return CacheResult{Data: memData, Found: true}
		}
		c.mu.Lock()
		delete(c.memoryCache, key)
		c.mu.Unlock()
	}

	return c.getFromFile(key)
}

func (c *FileCache) getFromFile(key string) CacheResult {
	data, err := readCacheFile(c.cachePath(key))
	if os.IsNotExist(err) {
		return CacheResult{MissReason: MissReasonNotFound}
	}
	if err != nil {
		util.LogDebug(fmt.Sprintf("Unreadable cache entry %s: %v", key, err))
		return CacheResult{MissReason: MissReasonError}
	}

	if ret := validateCachedData(data); !ret.cached {
		return CacheResult{MissReason: ret.reason}
	}

	c.mu.Lock()
	c.memoryCache[key] = data
	c.mu.Unlock()

	return CacheResult{Data: data, Found: true}
}

func readCacheFile(path string) (*CachedFragment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var data CachedFragment
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data.Fragment == nil || data.FilePath == "" {
		return nil, fmt.Errorf("incomplete cache entry %s", path)
	}
	return &data, nil
}

type ValidateResult struct {
	cached bool
	reason CacheMissReason
}

func validateCachedData(data *CachedFragment) ValidateResult {
	currentInfo, err := util.GetFileInfo(data.FilePath)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Cache validation failed for %s: unable to get file info: %v", data.FilePath, err))
		return ValidateResult{reason: MissReasonError}
	}

	if currentInfo.Inode != data.Inode {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: inode changed (cached: %d, current: %d)",
			data.FilePath, data.Inode, currentInfo.Inode))
		return ValidateResult{reason: MissReasonInode}
	}
	if currentInfo.Size != data.FileSize {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: size changed (cached: %d, current: %d)",
			data.FilePath, data.FileSize, currentInfo.Size))
		return ValidateResult{reason: MissReasonSize}
	}
	if currentInfo.ModTime != data.LastModified {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: modtime changed (cached: %d, current: %d)",
			data.FilePath, data.LastModified, currentInfo.ModTime))
		return ValidateResult{reason: MissReasonModTime}
	}

	// Exports are rewritten in place by unzip tools that preserve mtimes, so
	// the content is always sampled.
	if data.ContentFingerprint == "" {
		return ValidateResult{reason: MissReasonNoFingerprint}
	}
	fingerprint, err := util.CalculateFileFingerprint(data.FilePath)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: unable to calculate fingerprint: %v", data.FilePath, err))
		return ValidateResult{reason: MissReasonNoFingerprint}
	}
	if fingerprint != data.ContentFingerprint {
		util.LogDebug(fmt.Sprintf("Cache invalidated for %s: fingerprint mismatch (cached: %s, current: %s)",
			data.FilePath, data.ContentFingerprint, fingerprint))
		return ValidateResult{reason: MissReasonFingerprint}
	}

	return ValidateResult{cached: true}
}

// Set stores the parsed fragment of path together with the current file
// attributes.
func (c *FileCache) Set(path string, fragment *model.RawFragment) error {
	fileInfo, err := util.GetFileInfo(path)
	if err != nil {
		return err
	}
	fingerprint, err := util.CalculateFileFingerprint(path)
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data := &CachedFragment{
		Key:                KeyFor(path),
		FilePath:           absPath,
		Fragment:           fragment,
		LastModified:       fileInfo.ModTime,
		FileSize:           fileInfo.Size,
		Inode:              fileInfo.Inode,
		ContentFingerprint: fingerprint,
	}

	encoded, err := sonic.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry for %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tmp, err := os.CreateTemp(c.baseDir, data.Key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), c.cachePath(data.Key)); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	c.memoryCache[data.Key] = data
	return nil
}

// Clear drops every cached fragment from memory and disk.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*CachedFragment)

	entries, err := c.cacheFiles()
	if err != nil {
		return err
	}
	for _, path := range entries {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (c *FileCache) cacheFiles() ([]string, error) {
	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan cache directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			files = append(files, filepath.Join(c.baseDir, entry.Name()))
		}
	}
	return files, nil
}

// Preload loads and validates every cache file into memory concurrently.
func (c *FileCache) Preload() error {
	cacheFiles, err := c.cacheFiles()
	if err != nil {
		return err
	}
	if len(cacheFiles) == 0 {
		util.LogDebug("Cache directory is empty, skipping preload")
		return nil
	}

	results := make([]*CachedFragment, len(cacheFiles))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range cacheFiles {
		i, path := i, path
		g.Go(func() error {
			data, err := readCacheFile(path)
			if err != nil {
				util.LogWarn(fmt.Sprintf("Failed to preload cache file %s: %v", path, err))
				return nil
			}
			if validateCachedData(data).cached {
				results[i] = data
			}
			return nil
		})
	}
	_ = g.Wait()

	loaded := 0
	c.mu.Lock()
	for _, data := range results {
		if data != nil {
			c.memoryCache[data.Key] = data
			loaded++
		}
	}
	c.mu.Unlock()

	util.LogInfof("Cache preload complete: %d loaded, %d skipped (total %d)",
		loaded, len(cacheFiles)-loaded, len(cacheFiles))
	return nil
}

// GetCacheStats returns the number of entries in memory and on disk.
func (c *FileCache) GetCacheStats() (memoryCount, fileCount int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	files, _ := c.cacheFiles()
	return len(c.memoryCache), len(files)
}
