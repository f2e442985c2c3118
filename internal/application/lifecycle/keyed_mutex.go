package lifecycle

import (
	"context"
	"strings"
	"sync"
)

var _ AssetLocker = (*KeyedMutex)(nil)

// KeyedMutex candado por clave en proceso. Los waiters de una misma clave se atienden
// en orden de llegada (FIFO); claves distintas no comparten cola.
type KeyedMutex struct {
	mu     sync.Mutex
	queues map[string][]chan struct{}
}

// NewKeyedMutex construye el candado.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{queues: make(map[string][]chan struct{})}
}

// Lock espera el turno de la clave o hasta que ctx termine.
// La clave se copia: puede venir de un buffer reutilizado (parámetros de ruta de Fiber).
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	key = strings.Clone(key)
	ch := make(chan struct{})

	k.mu.Lock()
	q := k.queues[key]
	k.queues[key] = append(q, ch)
	if len(q) == 0 {
		close(ch) // cola vacía: turno inmediato
	}
	k.mu.Unlock()

	select {
	case <-ch:
		var once sync.Once
		return func() { once.Do(func() { k.release(key) }) }, nil
	case <-ctx.Done():
		k.abandon(key, ch)
		return nil, ctx.Err()
	}
}

// release entrega el turno al siguiente de la cola.
func (k *KeyedMutex) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.popHead(key)
}

func (k *KeyedMutex) popHead(key string) {
	q := k.queues[key][1:]
	if len(q) == 0 {
		delete(k.queues, key)
		return
	}
	k.queues[key] = q
	close(q[0])
}

// abandon retira un waiter cancelado. Si ya había recibido el turno lo libera.
func (k *KeyedMutex) abandon(key string, ch chan struct{}) {
	k.mu.Lock()
	defer k.mu.Unlock()
	q := k.queues[key]
	for i, c := range q {
		if c != ch {
			continue
		}
		if i == 0 {
			k.popHead(key)
			return
		}
		k.queues[key] = append(q[:i:i], q[i+1:]...)
		return
	}
}

// Len cantidad de claves con dueño o waiters (diagnóstico y tests).
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.queues)
}
