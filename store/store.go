package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// recordingTimeFormat sorts lexically in capture order
const recordingTimeFormat = "20060102T150405.000Z"

// FileStore keeps recorded response bodies on the local file system.
type FileStore struct {
	basePath string
}

// NewFileStore creates a new local file store rooted at basePath.
func NewFileStore(basePath string) *FileStore {
	return &FileStore{
		basePath: basePath,
	}
}

// BasePath returns the directory recordings are written to
func (l *FileStore) BasePath() string {
	return l.basePath
}

// Save saves data to the specified path
func (l *FileStore) Save(path string, data []byte) error {
	fullPath := filepath.Join(l.basePath, path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	return os.WriteFile(fullPath, data, 0644)
}

// Load loads data from the specified path
func (l *FileStore) Load(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(l.basePath, path))
}

// Exists checks if a file exists at the specified path
func (l *FileStore) Exists(path string) (bool, error) {
	_, err := os.Stat(filepath.Join(l.basePath, path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns the recording names in capture order. A missing base directory yields no recordings.
func (l *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// RecordingName builds the file name for a response captured at the given time
func RecordingName(capturedAt time.Time, status int) string {
	return fmt.Sprintf("%s-%d.json", capturedAt.UTC().Format(recordingTimeFormat), status)
}

// SaveResponse stores a raw response body and returns the name it was saved under
func (l *FileStore) SaveResponse(capturedAt time.Time, status int, body []byte) (string, error) {
	name := RecordingName(capturedAt, status)
	if err := l.Save(name, body); err != nil {
		return "", fmt.Errorf("failed to save recording %s: %w", name, err)
	}
	return name, nil
}
