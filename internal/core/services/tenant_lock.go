package services

import "sync"

// tenantLocker serializes allocations per tenant. The whole
// aggregate-decide-post sequence runs under the tenant's lock so two
// near-simultaneous payments for the same tenant cannot both read the same
// outstanding state. Different tenants proceed in parallel.
type tenantLocker struct {
	mu    sync.Mutex
	locks map[string]*tenantLock
}

type tenantLock struct {
	mu   sync.Mutex
	refs int
}

func newTenantLocker() *tenantLocker {
	return &tenantLocker{locks: make(map[string]*tenantLock)}
}

// Lock acquires the lock for the tenant and returns the unlock function.
// Lock entries are reference counted and removed once unused, so the map
// does not grow with tenant cardinality.
func (l *tenantLocker) Lock(tenantID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[tenantID]
	if !ok {
		lock = &tenantLock{}
		l.locks[tenantID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, tenantID)
		}
		l.mu.Unlock()
	}
}
