package store

import "context"

// MemoryBackend keeps values in process memory. Used by tests and --backend=memory.
type MemoryBackend struct {
	values map[string][]byte

	// FailPuts makes every Put fail with this error when set.
	FailPuts error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: map[string][]byte{}}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryBackend) Put(_ context.Context, key string, value []byte) error {
	if m.FailPuts != nil {
		return m.FailPuts
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
