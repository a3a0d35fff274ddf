package system

import (
	"image"
	"sync"
)

// Компоновка кадров перехода создает много короткоживущих RGBA-буферов
// одинаковых размеров (слой → кадр → слой...). Пул по размеру прямоугольника
// снимает это давление с GC.
type imagePool struct {
	pools map[string]*sync.Pool
	mu    sync.RWMutex
}

var framePool = &imagePool{
	pools: make(map[string]*sync.Pool),
}

// GetImage возвращает *image.RGBA из пула или создает новый,
// если в пуле нет подходящего по размеру объекта.
func GetImage(rect image.Rectangle) *image.RGBA {
	return framePool.get(rect)
}

// PutImage возвращает буфер в пул для повторного использования.
func PutImage(img *image.RGBA) {
	framePool.put(img)
}

func (p *imagePool) get(rect image.Rectangle) *image.RGBA {
	key := rect.String()
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
					return image.NewRGBA(rect)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.RGBA)
}

func (p *imagePool) put(img *image.RGBA) {
	if img == nil {
		return
	}
	key := img.Rect.String()
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
