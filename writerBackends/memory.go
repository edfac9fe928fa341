package writerbackends

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Object is an upload captured by the Memory gateway.
type Object struct {
	Data        []byte
	ContentType string
}

// Memory keeps uploads in a map. It backs dry runs and tests.
type Memory struct {
	mu      sync.Mutex
	objects map[string]Object
	calls   int

	// FailKey, when set, makes uploads of matching keys fail.
	FailKey func(key string) bool
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

func (m *Memory) SignedDownloadURL(ctx context.Context, bucket, key string) (string, error) {
	return fmt.Sprintf("memory://%s/%s", bucket, key), nil
}

func (m *Memory) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	m.mu.Lock()
	m.calls++
	fail := m.FailKey
	m.mu.Unlock()

	if fail != nil && fail(key) {
		return "", fmt.Errorf("%w: injected failure for %s", ErrTransport, key)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrTransport, key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = Object{Data: data, ContentType: contentType}
	return fmt.Sprintf("memory://%s/%s", bucket, key), nil
}

// Get returns a stored object.
func (m *Memory) Get(bucket, key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[bucket+"/"+key]
	return obj, ok
}

// Keys lists stored "bucket/key" names in sorted order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns how many uploads were attempted, including failed ones.
func (m *Memory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
