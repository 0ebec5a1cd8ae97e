package normalizer

import (
	"fmt"
	"sync"
)

// Pool hands out a shared Normalizer whose lemmatizer is loaded on first
// Acquire and dropped when the last holder releases it. A pipeline run
// acquires once at the start and releases when it is done.
type Pool struct {
	load func() (Lemmatizer, error)

	mu     sync.Mutex
	refs   int
	loads  int
	shared *Normalizer
}

// NewPool creates a pool around a lemmatizer loader.
func NewPool(load func() (Lemmatizer, error)) *Pool {
	return &Pool{load: load}
}

// NewFilePool creates a pool that loads the dictionary at path, or the
// built-in dictionary when path is empty.
func NewFilePool(path string) *Pool {
	return NewPool(func() (Lemmatizer, error) {
		return LoadLemmatizerFile(path)
	})
}

// Acquire returns the shared normalizer, loading it if nobody holds it.
// Every successful Acquire must be paired with Release.
func (p *Pool) Acquire() (*Normalizer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shared == nil {
		l, err := p.load()
		if err != nil {
			return nil, fmt.Errorf("failed to load lemmatizer: %w", err)
		}
		p.shared = New(l)
		p.loads++
	}
	p.refs++
	return p.shared, nil
}

// Release drops one reference. The lemmatizer is freed at zero.
func (p *Pool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.refs == 0 {
		return
	}
	p.refs--
	if p.refs == 0 {
		p.shared = nil
	}
}

// Loads reports how many times the lemmatizer has been loaded.
func (p *Pool) Loads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads
}
