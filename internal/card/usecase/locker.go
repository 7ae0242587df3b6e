package usecase

import (
	"slices"
	"sync"
)

// CardLocker serializes work on individual cards within the process.
//
// Locks for several cards are always taken in ascending card ID order, so two
// transfers over the same pair in opposite directions cannot deadlock. Entries
// are dropped once no goroutine holds or waits for them.
type CardLocker struct {
	mu    sync.Mutex
	locks map[int64]*cardLock
}

type cardLock struct {
	mu   sync.Mutex
	refs int
}

// NewCardLocker creates an empty CardLocker.
func NewCardLocker() *CardLocker {
	return &CardLocker{locks: make(map[int64]*cardLock)}
}

// Lock blocks until every card in cardIDs is held by the caller and returns the
// function that releases them. Duplicate IDs are locked once.
func (l *CardLocker) Lock(cardIDs ...int64) (unlock func()) {
	ids := slices.Clone(cardIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	held := make([]*cardLock, 0, len(ids))
	for _, id := range ids {
		lock := l.acquire(id)
		lock.mu.Lock()
		held = append(held, lock)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].mu.Unlock()
				l.release(ids[i])
			}
		})
	}
}

// Len returns the number of cards currently locked or waited on.
func (l *CardLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *CardLocker) acquire(id int64) *cardLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[id]
	if !ok {
		lock = &cardLock{}
		l.locks[id] = lock
	}
	lock.refs++
	return lock
}

func (l *CardLocker) release(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock := l.locks[id]
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, id)
	}
}
