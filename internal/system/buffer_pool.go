package system

import (
	"image"
	"sync"
)

// KeyedPool keeps one sync.Pool per key so that objects whose shape depends
// on the key (image bounds, FFT length) are only handed back to callers
// asking for the same shape.
type KeyedPool[K comparable, V any] struct {
	pools map[K]*sync.Pool
	mu    sync.RWMutex
	newFn func(K) V
}

func NewKeyedPool[K comparable, V any](newFn func(K) V) *KeyedPool[K, V] {
	return &KeyedPool[K, V]{
		pools: make(map[K]*sync.Pool),
		newFn: newFn,
	}
}

// Get returns a pooled value for key or builds a new one.
func (p *KeyedPool[K, V]) Get(key K) V {
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[key]
		if !exists {
			pool = &sync.Pool{
				New: func() any {
					return p.newFn(key)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(V)
}

// Put returns v to the pool for key. Values for keys that were never
// requested through Get are dropped.
func (p *KeyedPool[K, V]) Put(key K, v V) {
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		pool.Put(v)
	}
}

var imagePool = NewKeyedPool(func(rect image.Rectangle) *image.RGBA {
	return image.NewRGBA(rect)
})

// GetImage returns an *image.RGBA with bounds rect. Its pixels are not
// cleared.
func GetImage(rect image.Rectangle) *image.RGBA {
	return imagePool.Get(rect)
}

// PutImage hands img back for reuse.
func PutImage(img *image.RGBA) {
	if img == nil {
		return
	}
	imagePool.Put(img.Rect, img)
}
