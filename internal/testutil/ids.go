package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates predictable identifiers: prefix-1, prefix-2, ...
//
// Used in place of random uuids wherever a test compares identifiers.
//
// Thread-safety: Next is safe for concurrent use.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix defaults to "test".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "test"
	}
	return &SequentialIDs{prefix: prefix}
}

// Next returns the next identifier.
func (g *SequentialIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts the sequence at 1.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
