package ai

import (
	"fmt"
	"sync"
)

// BudgetChecker checks and records token usage per session.
type BudgetChecker interface {
	// Check returns true if the session has budget remaining.
	Check(sessionID string) (bool, error)
	// Record records token usage for a session.
	Record(sessionID string, tokens int) error
	// Usage returns current usage and the limit for a session.
	Usage(sessionID string) (used int64, budget int64, err error)
}

// InMemoryBudget tracks token usage per session in process memory. A limit
// of zero means unlimited.
type InMemoryBudget struct {
	mu        sync.RWMutex
	limit     int64
	overrides map[string]int64 // session -> budget limit
	usage     map[string]int64 // session -> tokens used
}

// NewInMemoryBudget creates a budget tracker applying limit to every session.
func NewInMemoryBudget(limit int64) *InMemoryBudget {
	return &InMemoryBudget{
		limit:     limit,
		overrides: make(map[string]int64),
		usage:     make(map[string]int64),
	}
}

// SetBudget overrides the token budget for one session.
func (b *InMemoryBudget) SetBudget(sessionID string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[sessionID] = tokens
}

func (b *InMemoryBudget) Check(sessionID string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	budget := b.limitFor(sessionID)
	if budget <= 0 {
		return true, nil
	}
	return b.usage[sessionID] < budget, nil
}

func (b *InMemoryBudget) Record(sessionID string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.usage[sessionID] += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(sessionID string) (int64, int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.usage[sessionID], b.limitFor(sessionID), nil
}

// Forget drops the usage of an expired session.
func (b *InMemoryBudget) Forget(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.usage, sessionID)
	delete(b.overrides, sessionID)
}

func (b *InMemoryBudget) limitFor(sessionID string) int64 {
	if v, ok := b.overrides[sessionID]; ok {
		return v
	}
	return b.limit
}
