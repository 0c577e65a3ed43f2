package filterbank

import "sync"

// Cache memoizes filterbank construction by parameter set. Cached banks
// are immutable, so one Cache can be shared by concurrent pipelines.
// A nil *Cache is valid and builds a fresh bank on every call.
type Cache struct {
	mu  sync.Mutex
	erb map[ERBParams]*ERB
	mod map[ModulationParams]*Modulation
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		erb: make(map[ERBParams]*ERB),
		mod: make(map[ModulationParams]*Modulation),
	}
}

// ERB returns the cochlear filterbank for p, building it on first use.
func (c *Cache) ERB(p ERBParams) (*ERB, error) {
	if c == nil {
		return NewERB(p)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if fb, ok := c.erb[p]; ok {
		return fb, nil
	}
	fb, err := NewERB(p)
	if err != nil {
		return nil, err
	}
	c.erb[p] = fb
	return fb, nil
}

// Modulation returns the modulation filterbank for p, building it on
// first use.
func (c *Cache) Modulation(p ModulationParams) (*Modulation, error) {
	if c == nil {
		return NewModulation(p)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if fb, ok := c.mod[p]; ok {
		return fb, nil
	}
	fb, err := NewModulation(p)
	if err != nil {
		return nil, err
	}
	c.mod[p] = fb
	return fb, nil
}

// Len returns the number of cached banks.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.erb) + len(c.mod)
}
