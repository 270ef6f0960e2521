package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
)

const defaultJanitorInterval = 1 * time.Minute

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory — потокобезопасный in-memory кэш с TTL и массовой инвалидацией по
// префиксу. Инвалидация — scan-and-delete по карте ключей; скан выполняется
// под write-блокировкой, поэтому не гонится с конкурентными записями.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  *log.Entry
	metrics *metrics.CacheMetrics
	// now подменяется в тестах.
	now func() time.Time
}

// MemoryOption настраивает Memory.
type MemoryOption func(*Memory)

// WithLogger задаёт logger для кэша.
func WithLogger(logger *log.Entry) MemoryOption {
	return func(c *Memory) {
		c.logger = logger
	}
}

// WithMetrics задаёт коллекторы кэша; nil отключает метрики (для тестов).
func WithMetrics(m *metrics.CacheMetrics) MemoryOption {
	return func(c *Memory) {
		c.metrics = m
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) MemoryOption {
	return func(c *Memory) {
		c.now = now
	}
}

// NewMemory создаёт пустой кэш.
func NewMemory(options ...MemoryOption) *Memory {
	c := &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = log.WithField("component", "cache")
	}
	return c
}

// GetOrSet возвращает значение по ключу; при промахе вычисляет его через
// compute, сохраняет с ttl и возвращает. Значения копируются, чтобы избежать
// непредсказуемых мутаций извне.
func (c *Memory) GetOrSet(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if value, ok := c.get(key); ok {
		if c.metrics != nil {
			c.metrics.RecordHit()
		}
		return value, nil
	}
	if c.metrics != nil {
		c.metrics.RecordMiss()
	}

	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = entry{value: cloneBytes(value), expiresAt: c.now().Add(ttl)}
	size := len(c.entries)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SetEntries(size)
	}

	return value, nil
}

// Remove удаляет один ключ. Отсутствие ключа не является ошибкой.
func (c *Memory) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	if existed && c.metrics != nil {
		c.metrics.RecordRemoved(1)
		c.metrics.SetEntries(size)
	}
	return nil
}

// RemoveByPrefix удаляет все ключи с заданным префиксом.
func (c *Memory) RemoveByPrefix(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	if removed > 0 {
		c.logger.WithFields(log.Fields{
			"prefix":  prefix,
			"removed": removed,
		}).Debug("cache invalidated by prefix")
		if c.metrics != nil {
			c.metrics.RecordRemoved(removed)
			c.metrics.SetEntries(size)
		}
	}
	return nil
}

// Len возвращает текущее количество записей, включая ещё не вычищенные
// просроченные.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup удаляет просроченные записи и возвращает их количество.
func (c *Memory) Cleanup() int {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for key, e := range c.entries {
		if !e.expiresAt.After(now) {
			delete(c.entries, key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	if removed > 0 && c.metrics != nil {
		c.metrics.RecordRemoved(removed)
		c.metrics.SetEntries(size)
	}
	return removed
}

// RunJanitor периодически вычищает просроченные записи до отмены ctx.
func (c *Memory) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultJanitorInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

func (c *Memory) get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !e.expiresAt.After(c.now()) {
		// Ленивая очистка: просроченная запись удаляется при чтении.
		c.mu.Lock()
		if current, still := c.entries[key]; still && !current.expiresAt.After(c.now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return cloneBytes(e.value), true
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ domain.Cache = (*Memory)(nil)
