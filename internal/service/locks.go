package service

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex сериализует операции по идентификатору. Все операции движка
// читают и перезаписывают агрегат заказа, поэтому две операции над одним
// заказом не должны чередоваться. Операции над балансом пользователя
// сериализуются так же; при захвате обоих замков пользовательский всегда
// берётся первым (фиксированный глобальный порядок против дедлоков).
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*lockEntry)}
}

// Lock блокирует ключ и возвращает функцию разблокировки.
func (k *keyedMutex) Lock(id uuid.UUID) func() {
	k.mu.Lock()
	entry, ok := k.locks[id]
	if !ok {
		entry = &lockEntry{}
		k.locks[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}

// Locks объединяет замки движка: по заказам и по пользователям.
type Locks struct {
	Orders *keyedMutex
	Users  *keyedMutex
}

// NewLocks создаёт набор замков, разделяемый всеми сервисами движка.
func NewLocks() *Locks {
	return &Locks{
		Orders: newKeyedMutex(),
		Users:  newKeyedMutex(),
	}
}
