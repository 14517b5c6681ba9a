package service

import "sync"

// tenantLocks hands out one mutex per tenant and forgets it once nobody holds or waits on it
type tenantLocks struct {
	mu sync.Mutex
	m  map[string]*tenantLock
}

type tenantLock struct {
	sync.Mutex
	refs int
}

func newTenantLocks() *tenantLocks { return &tenantLocks{m: map[string]*tenantLock{}} }

func (l *tenantLocks) lock(tenantID string) (unlock func()) {
	l.mu.Lock()
	tl, ok := l.m[tenantID]
	if !ok {
		tl = &tenantLock{}
		l.m[tenantID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.Lock()
	return func() {
		tl.Unlock()
		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.m, tenantID)
		}
		l.mu.Unlock()
	}
}

func (l *tenantLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
