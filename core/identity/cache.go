package identity

import "sync"

// Cache holds resolved identities keyed by principal ID so repeated
// resolutions do not refetch profiles. It holds at most one Identity per
// ID; the most recent resolution wins. It is cleared wholesale on logout,
// never partially.
//
// The cache is injected rather than kept as a package variable so tests
// can swap and reset it deterministically.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Identity
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Identity)}
}

func (c *Cache) Get(id string) (*Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ident, ok := c.entries[id]
	return ident, ok
}

func (c *Cache) Put(ident *Identity) {
	if ident == nil || ident.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[ident.ID] = ident
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Identity)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
