package blob

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"phonetrack/internal/sentinel"
)

// MemoryStore keeps objects in process memory. Used for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*Object
	baseURL string
	now     func() time.Time
}

// NewMemory returns a store whose URLs point at baseURL + "/photos/<name>".
func NewMemory(baseURL string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]*Object),
		baseURL: baseURL,
		now:     time.Now,
	}
}

func (s *MemoryStore) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read photo %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[name]; exists {
		return "", fmt.Errorf("photo %s: %w", name, sentinel.ErrAlreadyUsed)
	}
	s.objects[name] = &Object{
		Name:        name,
		ContentType: contentTypeOrDefault(contentType),
		Data:        data,
		UploadedAt:  s.now().UTC(),
	}
	return publicURL(s.baseURL, "photos", name), nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("photo %s: %w", name, sentinel.ErrNotFound)
	}
	cp := *obj
	cp.Data = append([]byte(nil), obj.Data...)
	return &cp, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
