package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// listeners is an ordered set of callbacks for one payload type.
type listeners[T any] struct {
	mu      sync.RWMutex
	nextID  int
	entries []listenerEntry[T]
}

type listenerEntry[T any] struct {
	id int
	fn func(T)
}

// add registers fn and returns a func that removes it again.
func (l *listeners[T]) add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, listenerEntry[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *listeners[T]) remove(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return
		}
	}
}

func (l *listeners[T]) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// emit calls every listener in registration order. A panicking listener is
// logged and skipped.
func (l *listeners[T]) emit(v T, logger *zerolog.Logger) {
	l.mu.RLock()
	entries := append([]listenerEntry[T](nil), l.entries...)
	l.mu.RUnlock()

	for _, e := range entries {
		call(e.fn, v, logger)
	}
}

func call[T any](fn func(T), v T, logger *zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("listener panicked")
		}
	}()
	fn(v)
}
