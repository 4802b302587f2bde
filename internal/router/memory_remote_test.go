package router

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"sftp-gateway/internal/model"
	"sftp-gateway/internal/remote"
)

type memoryNode struct {
	dir     bool
	content []byte
	mtime   time.Time
}

// memoryRemote is a remote.Dialer over an in-process tree.
type memoryRemote struct {
	mu    sync.Mutex
	nodes map[string]*memoryNode
	down  bool
}

func newMemoryRemote() *memoryRemote {
	return &memoryRemote{nodes: map[string]*memoryNode{"/": {dir: true}}}
}

func (m *memoryRemote) addFile(p string, content string, mtime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAllLocked(path.Dir(p))
	m.nodes[p] = &memoryNode{content: []byte(content), mtime: mtime}
}

func (m *memoryRemote) exists(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[p]
	return ok
}

func (m *memoryRemote) mkdirAllLocked(dir string) {
	for d := dir; ; d = path.Dir(d) {
		if _, ok := m.nodes[d]; !ok {
			m.nodes[d] = &memoryNode{dir: true}
		}
		if d == "/" {
			return
		}
	}
}

func (m *memoryRemote) Dial(_ context.Context) (remote.Session, error) {
	if m.down {
		return nil, fmt.Errorf("%w: connection refused", remote.ErrConnection)
	}
	return &memorySession{remote: m}, nil
}

type memorySession struct {
	remote *memoryRemote
}

func notExist(op string, p string) error {
	return fmt.Errorf("%w: %s %s: %w", remote.ErrOperation, op, p, fs.ErrNotExist)
}

func (s *memorySession) entry(p string, n *memoryNode) model.RemoteEntry {
	return model.RemoteEntry{
		Name:       path.Base(p),
		Path:       p,
		Size:       int64(len(n.content)),
		IsDir:      n.dir,
		ModifiedAt: n.mtime,
	}
}

func (s *memorySession) List(_ context.Context, dir string) ([]model.RemoteEntry, error) {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()

	if n, ok := s.remote.nodes[dir]; !ok || !n.dir {
		return nil, notExist("list", dir)
	}

	var out []model.RemoteEntry
	for p, n := range s.remote.nodes {
		if p != dir && path.Dir(p) == dir {
			out = append(out, s.entry(p, n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memorySession) Stat(_ context.Context, p string) (model.RemoteEntry, error) {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()

	n, ok := s.remote.nodes[p]
	if !ok {
		return model.RemoteEntry{}, notExist("stat", p)
	}
	return s.entry(p, n), nil
}

type readSeekCloser struct {
	*bytes.Reader
}

func (readSeekCloser) Close() error { return nil }

func (s *memorySession) Open(_ context.Context, p string) (io.ReadSeekCloser, error) {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()

	n, ok := s.remote.nodes[p]
	if !ok || n.dir {
		return nil, notExist("open", p)
	}
	return readSeekCloser{bytes.NewReader(n.content)}, nil
}

func (s *memorySession) Rename(_ context.Context, oldPath string, newPath string) error {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()

	if _, ok := s.remote.nodes[oldPath]; !ok {
		return notExist("rename", oldPath)
	}
	moved := map[string]*memoryNode{}
	for p, n := range s.remote.nodes {
		if p == oldPath || strings.HasPrefix(p, oldPath+"/") {
			moved[newPath+strings.TrimPrefix(p, oldPath)] = n
			delete(s.remote.nodes, p)
		}
	}
	for p, n := range moved {
		s.remote.nodes[p] = n
	}
	return nil
}

func (s *memorySession) Touch(_ context.Context, p string, at time.Time) error {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()

	n, ok := s.remote.nodes[p]
	if !ok {
		return notExist("touch", p)
	}
	n.mtime = at
	return nil
}

func (s *memorySession) MkdirAll(_ context.Context, dir string) error {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()
	s.remote.mkdirAllLocked(dir)
	return nil
}

func (s *memorySession) Delete(_ context.Context, p string) error {
	s.remote.mu.Lock()
	defer s.remote.mu.Unlock()

	if _, ok := s.remote.nodes[p]; !ok {
		return fmt.Errorf("%w: %s: %w", remote.ErrDelete, p, fs.ErrNotExist)
	}
	for q := range s.remote.nodes {
		if q == p || strings.HasPrefix(q, p+"/") {
			delete(s.remote.nodes, q)
		}
	}
	return nil
}

func (s *memorySession) Close() error { return nil }
