package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Artifact is a processed audio reply kept for the current session
type Artifact struct {
	ID          string
	Name        string
	ContentType string
	SourceURL   string
	Data        []byte
	CreatedAt   time.Time
}

func newArtifact(data []byte, contentType, sourceURL string) *Artifact {
	now := time.Now()
	return &Artifact{
		ID:          uuid.New().String(),
		Name:        "Recording " + now.Format("15:04:05"),
		ContentType: contentType,
		SourceURL:   sourceURL,
		Data:        data,
		CreatedAt:   now,
	}
}

// Extension guesses a file extension from the content type
func (a *Artifact) Extension() string {
	ct := strings.ToLower(a.ContentType)
	switch {
	case strings.Contains(ct, "mpeg"), strings.Contains(ct, "mp3"):
		return ".mp3"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "webm"):
		return ".webm"
	default:
		return ".wav"
	}
}

// Artifacts is the session-local list of replies, most recent first
type Artifacts struct {
	mu    sync.RWMutex
	items []*Artifact
}

// NewArtifacts creates an empty list
func NewArtifacts() *Artifacts {
	return &Artifacts{}
}

// Add prepends an artifact
func (l *Artifacts) Add(a *Artifact) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]*Artifact{a}, l.items...)
}

// List returns the artifacts, most recent first
func (l *Artifacts) List() []*Artifact {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*Artifact(nil), l.items...)
}

// Len returns the number of artifacts
func (l *Artifacts) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Get finds an artifact by ID
func (l *Artifacts) Get(id string) (*Artifact, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, a := range l.items {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// Save writes the artifact into dir and returns the file path
func (l *Artifacts) Save(id, dir string) (string, error) {
	a, ok := l.Get(id)
	if !ok {
		return "", fmt.Errorf("artifact %s not found", id)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	name := "michi-reply-" + a.CreatedAt.Format("20060102-150405") + "-" + a.ID[:8] + a.Extension()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
