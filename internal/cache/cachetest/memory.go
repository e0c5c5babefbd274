// cachetest — in-memory реализация cache.Store для тестов с управляемым временем.
package cachetest

import (
	"context"
	"sync"
	"time"

	"github.com/pribylovaa/go-contacts-api/internal/cache"
)

type entry struct {
	value   []byte
	counter int64
	expires time.Time // нулевое значение — без TTL
}

// Memory — потокобезопасное хранилище с TTL; время берётся из Now.
type Memory struct {
	mu   sync.Mutex
	data map[string]*entry
	now  time.Time
}

// NewMemory создаёт пустое хранилище с «замороженным» временем start.
func NewMemory(start time.Time) *Memory {
	return &Memory{data: make(map[string]*entry), now: start}
}

// Advance сдвигает внутренние часы.
func (m *Memory) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Len возвращает число живых ключей.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.data {
		if m.alive(k) != nil {
			n++
		}
	}
	return n
}

func (m *Memory) alive(key string) *entry {
	e, ok := m.data[key]
	if !ok {
		return nil
	}
	if !e.expires.IsZero() && !m.now.Before(e.expires) {
		delete(m.data, key)
		return nil
	}
	return e
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.alive(key)
	if e == nil || e.value == nil {
		return nil, cache.ErrMiss
	}
	return append([]byte(nil), e.value...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now.Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *Memory) Increment(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.alive(key)
	if e == nil {
		e = &entry{}
		m.data[key] = e
	}
	e.counter++
	if e.expires.IsZero() {
		e.expires = m.now.Add(window)
	}
	return e.counter, e.expires.Sub(m.now), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

var _ cache.Store = (*Memory)(nil)
