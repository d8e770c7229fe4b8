package system

import (
	"image"
	"sync"
)

// ImagePool reuses *image.RGBA buffers between frames to keep GC
// pressure down. Output frames all share one size, so the pool is
// keyed by dimensions.
type ImagePool struct {
	pools map[image.Point]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = &ImagePool{
	pools: make(map[image.Point]*sync.Pool),
}

// GetImage returns a zero-origin *image.RGBA of the given size, reused
// when a matching buffer is available. Contents are undefined; callers
// must fully overwrite.
func GetImage(w, h int) *image.RGBA {
	return globalPool.Get(w, h)
}

// PutImage returns a buffer to the pool.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *ImagePool) Get(w, h int) *image.RGBA {
	key := image.Pt(w, h)
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[key]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewRGBA(image.Rect(0, 0, key.X, key.Y))
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil || img.Rect.Min != (image.Point{}) {
		return
	}
	key := image.Pt(img.Rect.Dx(), img.Rect.Dy())
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
