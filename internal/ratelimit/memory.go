package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// MemoryCounter keeps counts in process. Expired entries are swept by a
// background goroutine started on first use.
type MemoryCounter struct {
	clock   Clock
	mu      sync.Mutex
	entries map[string]*memoryEntry

	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// NewMemoryCounter uses the system clock when clock is nil.
func NewMemoryCounter(clock Clock) *MemoryCounter {
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryCounter{
		clock:         clock,
		entries:       make(map[string]*memoryEntry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine.
func (m *MemoryCounter) Close() {
	m.cleanupCancel()
	m.cleanupWg.Wait()
}

func (m *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.startCleanup()
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[key]
	if e == nil || !now.Before(e.expiresAt) {
		e = &memoryEntry{expiresAt: now.Add(window)}
		m.entries[key] = e
	}
	e.count++
	return e.count, e.expiresAt.Sub(now), nil
}

func (m *MemoryCounter) Get(_ context.Context, key string) (int64, time.Duration, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[key]
	if e == nil || !now.Before(e.expiresAt) {
		return 0, 0, nil
	}
	return e.count, e.expiresAt.Sub(now), nil
}

func (m *MemoryCounter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCounter) startCleanup() {
	m.cleanupOnce.Do(func() {
		m.cleanupWg.Add(1)
		go func() {
			defer m.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-m.cleanupCtx.Done():
					return
				case <-ticker.C:
					m.cleanup()
				}
			}
		}()
	})
}

func (m *MemoryCounter) cleanup() {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}
