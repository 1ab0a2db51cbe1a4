package essay

import "sync"

// studentLocks serializes aggregate recomputation per student so two
// corrections for the same student cannot interleave and stamp a stale
// aggregate over the ledger. Entries are never evicted; the map grows with
// the active student population, which is small.
type studentLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newStudentLocks() *studentLocks {
	return &studentLocks{locks: map[string]*sync.Mutex{}}
}

func (l *studentLocks) Lock(studentID string) (unlock func()) {
	l.mu.Lock()
	m, ok := l.locks[studentID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[studentID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
