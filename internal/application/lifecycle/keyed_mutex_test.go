package lifecycle_test

import (
	"context"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Activos-api/internal/application/lifecycle"
)

func TestKeyedMutex_OrdenDeLlegada(t *testing.T) {
	km := lifecycle.NewKeyedMutex()
	ctx := context.Background()

	unlock, err := km.Lock(ctx, "a1")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			u, err := km.Lock(ctx, "a1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			u()
		}(i)
		// cada waiter entra a la cola antes del siguiente
		time.Sleep(20 * time.Millisecond)
	}
	unlock()
	wg.Wait()

	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, km.Len())
}

func TestKeyedMutex_ClavesDistintasNoSeBloquean(t *testing.T) {
	km := lifecycle.NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := km.Lock(ctx, "a1")
	require.NoError(t, err)
	defer unlockA()

	ctxB, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := km.Lock(ctxB, "a2")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutex_CancelacionLiberaLaCola(t *testing.T) {
	km := lifecycle.NewKeyedMutex()
	ctx := context.Background()

	unlock, err := km.Lock(ctx, "a1")
	require.NoError(t, err)

	ctxW, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = km.Lock(ctxW, "a1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // idempotente
	assert.Equal(t, 0, km.Len())

	again, err := km.Lock(ctx, "a1")
	require.NoError(t, err)
	again()
}

// bufferKey devuelve un string que comparte memoria con buf, como c.Params en Fiber.
func bufferKey(buf []byte) string {
	return unsafe.String(&buf[0], len(buf))
}

func TestKeyedMutex_ClaveConBufferReutilizado(t *testing.T) {
	km := lifecycle.NewKeyedMutex()
	ctx := context.Background()
	holderBuf := []byte("hotasset")
	waiterBuf := []byte("hotasset")

	unlockHolder, err := km.Lock(ctx, bufferKey(holderBuf))
	require.NoError(t, err)

	turn := make(chan func(), 1)
	go func() {
		u, err := km.Lock(ctx, bufferKey(waiterBuf))
		assert.NoError(t, err)
		turn <- u
	}()
	time.Sleep(20 * time.Millisecond)

	unlockHolder()
	copy(holderBuf, "zz000001") // el Ctx del dueño se reutiliza en otra petición

	var unlockWaiter func()
	select {
	case unlockWaiter = <-turn:
	case <-time.After(time.Second):
		t.Fatal("el waiter no recibió el turno")
	}
	require.NotNil(t, unlockWaiter)
	copy(waiterBuf, "zz000002")

	require.NotPanics(t, unlockWaiter)
	assert.Equal(t, 0, km.Len())

	ctxAgain, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	again, err := km.Lock(ctxAgain, "hotasset")
	require.NoError(t, err)
	again()
}
