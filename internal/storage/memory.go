package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Gateway used by tests and local dry runs.
// It applies the same compose arity limit as GCS.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(names) > listBound {
		names = names[:listBound]
	}
	return names, nil
}

func (m *Memory) ReadAll(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[path]
	if !ok {
		return nil, fmt.Errorf("read %s: object not found", path)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Write(_ context.Context, path, contentType string) (io.WriteCloser, error) {
	return &memoryWriter{store: m, path: path, contentType: contentType}, nil
}

func (m *Memory) Copy(_ context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[src]
	if !ok {
		return fmt.Errorf("copy %s: object not found", src)
	}
	m.objects[dst] = append([]byte(nil), data...)
	m.types[dst] = m.types[src]
	return nil
}

func (m *Memory) Compose(_ context.Context, srcs []string, dst, contentType string) error {
	if len(srcs) == 0 {
		return fmt.Errorf("compose %s: no sources", dst)
	}
	if len(srcs) > gcsComposeLimit {
		return fmt.Errorf("compose %s: %d sources exceeds limit %d", dst, len(srcs), gcsComposeLimit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var buf bytes.Buffer
	for _, src := range srcs {
		data, ok := m.objects[src]
		if !ok {
			return fmt.Errorf("compose %s: source %s not found", dst, src)
		}
		buf.Write(data)
	}
	m.objects[dst] = buf.Bytes()
	m.types[dst] = contentType
	return nil
}

func (m *Memory) MaxCompose() int {
	return gcsComposeLimit
}

// Put stores an object directly, bypassing the writer.
func (m *Memory) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = append([]byte(nil), data...)
}

// ContentType reports the content type recorded for an object.
func (m *Memory) ContentType(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.types[path]
}

// memoryWriter buffers writes and publishes the object on Close, matching
// the GCS writer's finalize-on-close behavior.
type memoryWriter struct {
	store       *Memory
	path        string
	contentType string
	buf         bytes.Buffer
	closed      bool
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write %s: writer closed", w.path)
	}
	return w.buf.Write(p)
}

func (w *memoryWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.objects[w.path] = w.buf.Bytes()
	w.store.types[w.path] = w.contentType
	return nil
}
