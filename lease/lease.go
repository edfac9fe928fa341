package lease

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"vodforge/logger"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrBusy is returned when another job already holds the id.
var ErrBusy = errors.New("job already running")

// Manager hands out exclusive per-id leases. Exclusion within the process
// uses a map; across processes sharing the same root it uses a lock file per
// id under dir.
type Manager struct {
	dir  string
	mu   sync.Mutex
	held map[string]*Lease
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir, held: make(map[string]*Lease)}
}

// Lease is one held id.
type Lease struct {
	ID    string
	Token string

	m    *Manager
	lock *flock.Flock
	once sync.Once
}

// Acquire takes the lease for id or fails with ErrBusy.
func (m *Manager) Acquire(id string) (*Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.held[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrBusy, id)
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(filepath.Join(m.dir, id+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked by another process", ErrBusy, id)
	}

	l := &Lease{ID: id, Token: uuid.NewString(), m: m, lock: lock}
	m.held[id] = l
	logger.Debugf("Lease %s acquired for %s", l.Token, id)
	return l, nil
}

// Held reports whether id is currently leased by this manager.
func (m *Manager) Held(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[id]
	return ok
}

// HeldIDs lists the ids currently leased by this manager.
func (m *Manager) HeldIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.held))
	for id := range m.held {
		ids = append(ids, id)
	}
	return ids
}

// Release gives the id back. Calling it more than once is a no-op.
// The lock file stays in place: removing it would let one process lock the
// old inode while another creates and locks a new file.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.m.mu.Lock()
		defer l.m.mu.Unlock()

		if err := l.lock.Unlock(); err != nil {
			logger.Warnf("Failed to release lock for %s: %v", l.ID, err)
		}
		if cur, ok := l.m.held[l.ID]; ok && cur == l {
			delete(l.m.held, l.ID)
		}
		logger.Debugf("Lease %s released for %s", l.Token, l.ID)
	})
}
