package authclient

import (
	"context"
	"fmt"
	"sync"
)

// Cache mirrors a single named value between durable Storage and memory.
//
// The stored value is read lazily on first access and never again. Writes
// compute the next value from the in-memory mirror, write through to storage
// and then update the mirror. When storage fails the failure is logged and the
// mirror is still updated, so the cache degrades to process-only persistence.
type Cache[T any] struct {
	storage Storage
	key     string
	def     T
	codec   Codec[T]
	logger  Logger

	loadOnce sync.Once
	mu       sync.Mutex
	value    T

	obsMu     sync.Mutex
	observers map[int]func(prev, next T)
	nextObsID int
}

// CacheOption customizes a Cache.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	logger Logger
}

// WithCacheLogger sets the logger used to report storage failures.
func WithCacheLogger(logger Logger) CacheOption {
	return func(o *cacheOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewCache returns a cache for key. def is returned while nothing usable
// is stored.
func NewCache[T any](storage Storage, key string, def T, codec Codec[T], opts ...CacheOption) *Cache[T] {
	options := &cacheOptions{logger: defLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	return &Cache[T]{
		storage:   storage,
		key:       key,
		def:       def,
		codec:     codec,
		logger:    options.logger,
		value:     def,
		observers: map[int]func(prev, next T){},
	}
}

// NewCredentialCache returns the raw string cache holding the credential.
func NewCredentialCache(storage Storage, opts ...CacheOption) *Cache[string] {
	return NewCache[string](storage, CredentialKey, "", RawStringCodec{}, opts...)
}

// Key returns the storage key backing the cache.
func (c *Cache[T]) Key() string {
	return c.key
}

// Get returns the current value, loading it from storage on first use.
func (c *Cache[T]) Get() T {
	c.ensureLoaded()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the current value.
func (c *Cache[T]) Set(v T) {
	c.Update(func(T) T { return v })
}

// Update computes the next value from the current in-memory value and
// writes it through. It returns the new value.
func (c *Cache[T]) Update(fn func(prev T) T) T {
	c.ensureLoaded()

	c.mu.Lock()
	prev := c.value
	next := fn(prev)
	if err := c.persist(next); err != nil {
		c.logger.Error("cache %q write failed, keeping value in memory only: %v", c.key, err)
	}
	c.value = next
	c.mu.Unlock()

	c.notify(prev, next)
	return next
}

// OnChange registers fn to run after every mirror update. Observers run
// synchronously, outside the cache lock.
func (c *Cache[T]) OnChange(fn func(prev, next T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	c.obsMu.Lock()
	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = fn
	c.obsMu.Unlock()

	return func() {
		c.obsMu.Lock()
		delete(c.observers, id)
		c.obsMu.Unlock()
	}
}

func (c *Cache[T]) ensureLoaded() {
	c.loadOnce.Do(func() {
		v := c.read()
		c.mu.Lock()
		c.value = v
		c.mu.Unlock()
	})
}

func (c *Cache[T]) read() T {
	if c.storage == nil {
		return c.def
	}

	raw, ok, err := c.storage.Get(context.Background(), c.key)
	if err != nil {
		c.logger.Error("cache %q read failed: %v", c.key, fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
		return c.def
	}
	if !ok {
		return c.def
	}

	v, err := c.codec.Decode(raw)
	if err != nil {
		c.logger.Warn("cache %q holds an undecodable value, using default: %v", c.key, err)
		return c.def
	}
	return v
}

func (c *Cache[T]) persist(v T) error {
	if c.storage == nil {
		return ErrStorageUnavailable
	}

	ctx := context.Background()
	if c.codec.IsZero(v) {
		if err := c.storage.Delete(ctx, c.key); err != nil {
			return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
		return nil
	}

	raw, err := c.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", c.key, err)
	}

	if err := c.storage.Set(ctx, c.key, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

func (c *Cache[T]) notify(prev, next T) {
	c.obsMu.Lock()
	observers := make([]func(prev, next T), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.obsMu.Unlock()

	for _, fn := range observers {
		fn(prev, next)
	}
}
