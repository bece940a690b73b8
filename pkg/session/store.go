package session

import "sync"

// Store keeps audit state that spans a whole harness session: the log
// channel kind that proved usable, and the core files already reported.
type Store interface {
	// LogKind returns the sticky log channel kind, if one is known
	LogKind() (string, bool)
	SetLogKind(kind string) error

	// KnownCore reports whether a core file key was already reported
	KnownCore(key string) bool
	AddCore(key string) error

	Close() error
}

// MemoryStore implements Store in memory. It is the default when no data
// directory is configured; state then lasts for one process lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	logKind string
	cores   map[string]struct{}
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cores: make(map[string]struct{}),
	}
}

func (s *MemoryStore) LogKind() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logKind, s.logKind != ""
}

func (s *MemoryStore) SetLogKind(kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logKind = kind
	return nil
}

func (s *MemoryStore) KnownCore(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cores[key]
	return ok
}

func (s *MemoryStore) AddCore(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cores[key] = struct{}{}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
