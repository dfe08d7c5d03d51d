package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/penwyp/go-pointer-monitor/internal/util"
)

const fileExt = ".json"

// ErrInvalidKey is returned for keys that cannot be mapped to a file name.
var ErrInvalidKey = errors.New("invalid key")

// FileBackend stores one file per key under a directory, with an in-memory
// read-through cache.
type FileBackend struct {
	baseDir     string
	mu          sync.RWMutex
	memoryCache map[string][]byte

	// generation changes on every write or invalidation. A disk read only
	// fills the cache when no change happened while it was in flight.
	generation uint64

	// afterRead runs between a disk read and the cache fill in tests.
	afterRead func(key string)
}

func NewFileBackend(baseDir string) (*FileBackend, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	return &FileBackend{
		baseDir:     baseDir,
		memoryCache: make(map[string][]byte),
	}, nil
}

// Dir returns the directory holding the key files.
func (f *FileBackend) Dir() string {
	return f.baseDir
}

func (f *FileBackend) keyPath(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(f.baseDir, key+fileExt), nil
}

// keyFromPath maps a file path back to its key, e.g.
// "/data/pointer-events-roi.json" -> "pointer-events-roi".
func keyFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return strings.TrimSuffix(name, fileExt), true
}

func (f *FileBackend) Get(key string) ([]byte, error) {
	path, err := f.keyPath(key)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	cached, ok := f.memoryCache[key]
	generation := f.generation
	f.mu.RUnlock()
	if ok {
		return append([]byte(nil), cached...), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if f.afterRead != nil {
		f.afterRead(key)
	}

	f.mu.Lock()
	if f.generation == generation {
		if _, filled := f.memoryCache[key]; !filled {
			f.memoryCache[key] = data
		}
	}
	f.mu.Unlock()
	return append([]byte(nil), data...), nil
}

// Set writes value through a temporary file so readers never see a partial value.
func (f *FileBackend) Set(key string, value []byte) error {
	path, err := f.keyPath(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.baseDir, "."+key+"-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}

	f.generation++
	f.memoryCache[key] = append([]byte(nil), value...)
	return nil
}

func (f *FileBackend) Delete(key string) error {
	path, err := f.keyPath(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.generation++
	delete(f.memoryCache, key)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Invalidate drops key from the memory cache so the next Get rereads the file.
func (f *FileBackend) Invalidate(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	delete(f.memoryCache, key)
}

// Clear removes every key file and empties the memory cache.
func (f *FileBackend) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.generation++
	f.memoryCache = make(map[string][]byte)

	files, err := f.listFiles()
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("clear %s: %w", path, err)
		}
	}
	return nil
}

func (f *FileBackend) listFiles() ([]string, error) {
	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		return nil, fmt.Errorf("scan data directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := keyFromPath(entry.Name()); ok {
			files = append(files, filepath.Join(f.baseDir, entry.Name()))
		}
	}
	return files, nil
}

type preloadResult struct {
	key  string
	data []byte
	err  error
}

// Preload reads every key file into the memory cache using a worker pool.
func (f *FileBackend) Preload() error {
	f.mu.RLock()
	generation := f.generation
	f.mu.RUnlock()

	files, err := f.listFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		util.LogDebug("Data directory is empty, skipping preload")
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	filesChan := make(chan string, len(files))
	resultsChan := make(chan preloadResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go preloadWorker(filesChan, resultsChan, &wg)
	}
	for _, file := range files {
		filesChan <- file
	}
	close(filesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	var results []preloadResult
	failed := 0
	for result := range resultsChan {
		if result.err != nil {
			failed++
			util.LogWarn(fmt.Sprintf("Failed to preload %s: %v", result.key, result.err))
			continue
		}
		results = append(results, result)
	}

	loaded := 0
	f.mu.Lock()
	if f.generation == generation {
		for _, result := range results {
			if _, cached := f.memoryCache[result.key]; !cached {
				f.memoryCache[result.key] = result.data
				loaded++
			}
		}
	}
	f.mu.Unlock()

	util.LogDebug(fmt.Sprintf("Preload complete: %d loaded, %d errors", loaded, failed))
	return nil
}

func preloadWorker(filesChan <-chan string, resultsChan chan<- preloadResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for path := range filesChan {
		key, _ := keyFromPath(path)
		data, err := os.ReadFile(path)
		resultsChan <- preloadResult{key: key, data: data, err: err}
	}
}

// Stats returns the number of cached keys and of key files on disk.
func (f *FileBackend) Stats() (memoryCount, fileCount int) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	memoryCount = len(f.memoryCache)
	if files, err := f.listFiles(); err == nil {
		fileCount = len(files)
	}
	return memoryCount, fileCount
}

func (f *FileBackend) Close() error {
	return nil
}
