package orchestrator

import (
	"sync"
	"time"

	"github.com/careerlog/server/internal/assistant/model"
	logx "github.com/careerlog/server/pkg/logger"
)

// defaultMaxTrackedUsers bounds the lock registry. Idle entries beyond the
// cap are evicted oldest first.
const defaultMaxTrackedUsers = 10000

// userLocks serializes message handling per user. Two concurrent messages
// for the same user are processed one after the other so the
// read-mutate-commit cycle never interleaves.
type userLocks struct {
	mu      sync.Mutex
	entries map[model.UserID]*userLock
	max     int
}

type userLock struct {
	sync.Mutex
	lastUsed time.Time
	// holders is guarded by userLocks.mu, not by the embedded mutex.
	holders int
}

func newUserLocks(max int) *userLocks {
	if max <= 0 {
		max = defaultMaxTrackedUsers
	}
	return &userLocks{
		entries: make(map[model.UserID]*userLock),
		max:     max,
	}
}

// lock blocks until the user's lock is held and returns the release func.
func (l *userLocks) lock(uid model.UserID) func() {
	l.mu.Lock()
	e, ok := l.entries[uid]
	if !ok {
		e = &userLock{}
		l.entries[uid] = e
	}
	e.holders++
	e.lastUsed = time.Now()
	if !ok {
		l.evictLocked()
	}
	l.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		l.mu.Lock()
		e.holders--
		l.mu.Unlock()
	}
}

// evictLocked drops the oldest idle entries once the cap is exceeded. Entries
// with waiters are never evicted.
func (l *userLocks) evictLocked() {
	for len(l.entries) > l.max {
		var (
			oldestID model.UserID
			oldest   *userLock
		)
		for id, e := range l.entries {
			if e.holders > 0 {
				continue
			}
			if oldest == nil || e.lastUsed.Before(oldest.lastUsed) {
				oldestID, oldest = id, e
			}
		}
		if oldest == nil {
			logx.Warn().Int("tracked", len(l.entries)).Msg("user lock registry over capacity with no idle entry")
			return
		}
		delete(l.entries, oldestID)
	}
}

// tracked reports the current registry size.
func (l *userLocks) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
