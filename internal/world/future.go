package world

import (
	"context"
	"sync"
)

// LoadFuture - сигнал завершения асинхронной загрузки чанка.
// Несёт либо материализованный чанк, либо ошибку.
type LoadFuture struct {
	pos   ChunkPos
	done  chan struct{}
	once  sync.Once
	chunk *Chunk
	err   error
}

func newLoadFuture(pos ChunkPos) *LoadFuture {
	return &LoadFuture{pos: pos, done: make(chan struct{})}
}

func failedFuture(pos ChunkPos, err error) *LoadFuture {
	f := newLoadFuture(pos)
	f.complete(nil, err)
	return f
}

func (f *LoadFuture) complete(chunk *Chunk, err error) {
	f.once.Do(func() {
		f.chunk = chunk
		f.err = err
		close(f.done)
	})
}

// Pos возвращает позицию загружаемого чанка
func (f *LoadFuture) Pos() ChunkPos {
	return f.pos
}

// Done закрывается по завершении загрузки
func (f *LoadFuture) Done() <-chan struct{} {
	return f.done
}

// Wait ждёт завершения загрузки или отмены ctx
func (f *LoadFuture) Wait(ctx context.Context) (*Chunk, error) {
	select {
	case <-f.done:
		return f.chunk, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Err возвращает ошибку завершённой загрузки; до завершения - nil
func (f *LoadFuture) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}
