// Package redislock implementa el candado por activo sobre Redis para despliegues con varias réplicas.
// Adquisición con SET NX PX y token propio; liberación con compare-and-delete en Lua.
package redislock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Activos-api/internal/application/lifecycle"
	"github.com/jhoicas/Activos-api/pkg/logger"
)

var _ lifecycle.AssetLocker = (*Locker)(nil)

const keyPrefix = "activos:lock:"

// releaseScript borra la clave solo si el token coincide (no libera un candado ajeno tras expirar el propio).
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker candado distribuido por clave. No garantiza orden de llegada entre waiters.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	log    *logger.Logger
}

// New construye el candado. ttl acota cuánto puede retenerse si el proceso muere; retry es la espera entre intentos.
func New(client *redis.Client, ttl, retry time.Duration, log *logger.Logger) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Locker{client: client, ttl: ttl, retry: retry, log: log.Component("redislock")}
}

// Lock reintenta hasta obtener la clave o hasta que ctx termine.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("redis SETNX %s: %w", redisKey, err)
		}
		if ok {
			return l.unlockFunc(redisKey, token), nil
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Locker) unlockFunc(redisKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(redisKey, token) })
	}
}

// release no usa el contexto de la solicitud: puede estar cancelado.
func (l *Locker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
		l.log.Warn().Err(err).Str("key", redisKey).Msg("liberar candado")
	}
}

// NewClient crea el cliente Redis y verifica la conexión con PING.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
