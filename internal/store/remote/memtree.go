package remote

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
)

// MemoryTree is an in-process Tree. Watchers on the same MemoryTree see each
// other's writes, which makes it a stand-in for a shared store in tests and
// single-process demos.
type MemoryTree struct {
	mu       sync.Mutex
	paths    map[string]map[string][]byte
	watchers map[string]map[int]func()
	nextID   int
}

var _ Tree = (*MemoryTree)(nil)

// NewMemoryTree returns an empty tree.
func NewMemoryTree() *MemoryTree {
	return &MemoryTree{
		paths:    map[string]map[string][]byte{},
		watchers: map[string]map[int]func(){},
	}
}

func (m *MemoryTree) List(_ context.Context, path, orderChild string) ([]Node, error) {
	m.mu.Lock()
	nodes := make([]Node, 0, len(m.paths[path]))
	for k, v := range m.paths[path] {
		nodes = append(nodes, Node{Key: k, Value: v})
	}
	m.mu.Unlock()
	SortByChild(nodes, orderChild)
	return nodes, nil
}

func (m *MemoryTree) Create(_ context.Context, path, key string, value []byte) error {
	m.mu.Lock()
	if m.paths[path] == nil {
		m.paths[path] = map[string][]byte{}
	}
	if _, ok := m.paths[path][key]; ok {
		m.mu.Unlock()
		return fmt.Errorf("create %s/%s: %w", path, key, ErrNodeExists)
	}
	m.paths[path][key] = slices.Clone(value)
	m.mu.Unlock()
	m.notify(path)
	return nil
}

func (m *MemoryTree) Remove(_ context.Context, path, key string) error {
	m.mu.Lock()
	delete(m.paths[path], key)
	m.mu.Unlock()
	m.notify(path)
	return nil
}

func (m *MemoryTree) Watch(_ context.Context, path string, onChange func()) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	if m.watchers[path] == nil {
		m.watchers[path] = map[int]func(){}
	}
	m.watchers[path][id] = onChange
	return func() {
		m.mu.Lock()
		delete(m.watchers[path], id)
		m.mu.Unlock()
	}, nil
}

func (m *MemoryTree) Close() error { return nil }

func (m *MemoryTree) notify(path string) {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.watchers[path]))
	for _, fn := range m.watchers[path] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// SortByChild orders nodes ascending by the string value of a top-level JSON
// field, then by key. Nodes missing the field sort first.
func SortByChild(nodes []Node, child string) {
	vals := make(map[string]string, len(nodes))
	for _, n := range nodes {
		var obj map[string]json.RawMessage
		if json.Unmarshal(n.Value, &obj) != nil {
			continue
		}
		var s string
		if json.Unmarshal(obj[child], &s) == nil {
			vals[n.Key] = s
		}
	}
	slices.SortFunc(nodes, func(a, b Node) int {
		if c := cmp.Compare(vals[a.Key], vals[b.Key]); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
}
