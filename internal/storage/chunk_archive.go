package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/annel0/voxelworld/internal/world"
)

const chunkKeyPrefix = "chunk:"

// ChunkArchive - дополнительный уровень хранения для чанков, лежащих за
// пределами куба октодерева. Каждый чанк хранится отдельной записью
// BadgerDB: список непустых ячеек, сжатый zstd.
type ChunkArchive struct {
	db      *badger.DB
	dbPath  string
	codec   *blobCodec
	mutex   sync.RWMutex
	isReady bool
}

// NewChunkArchive открывает (или создаёт) архив в каталоге dataPath
func NewChunkArchive(dataPath string) (*ChunkArchive, error) {
	dbPath := filepath.Join(dataPath, "chunks")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %v: %w", err, voxel.ErrIOFailure)
	}

	codec, err := newBlobCodec()
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ChunkArchive{
		db:      db,
		dbPath:  dbPath,
		codec:   codec,
		isReady: true,
	}, nil
}

// Close закрывает архив
func (a *ChunkArchive) Close() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if !a.isReady {
		return nil
	}

	a.isReady = false
	a.codec.close()
	return a.db.Close()
}

func chunkKey(pos world.ChunkPos) []byte {
	return []byte(fmt.Sprintf("%s%d:%d:%d", chunkKeyPrefix, pos.X, pos.Y, pos.Z))
}

// SaveChunk записывает содержимое чанка. Пустой чанк удаляет запись.
func (a *ChunkArchive) SaveChunk(chunk *world.Chunk) error {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	if !a.isReady {
		return fmt.Errorf("архив чанков закрыт: %w", voxel.ErrIOFailure)
	}

	key := chunkKey(chunk.Pos())
	blob := a.codec.encode(chunk)

	err := a.db.Update(func(txn *badger.Txn) error {
		if blob == nil {
			return txn.Delete(key)
		}
		return txn.Set(key, blob)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения чанка %s в BadgerDB: %v: %w", chunk.Pos(), err, voxel.ErrIOFailure)
	}
	return nil
}

// LoadChunk заполняет пустой чанк сохранёнными данными.
// Возвращает false, если для позиции чанка записи нет.
func (a *ChunkArchive) LoadChunk(chunk *world.Chunk) (bool, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	if !a.isReady {
		return false, fmt.Errorf("архив чанков закрыт: %w", voxel.ErrIOFailure)
	}

	var data []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(chunk.Pos()))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	// Отсутствие записи - пустой чанк
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка чтения чанка %s из BadgerDB: %v: %w", chunk.Pos(), err, voxel.ErrIOFailure)
	}

	if err := a.codec.decode(data, chunk); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteChunk удаляет запись чанка
func (a *ChunkArchive) DeleteChunk(pos world.ChunkPos) error {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	if !a.isReady {
		return fmt.Errorf("архив чанков закрыт: %w", voxel.ErrIOFailure)
	}

	err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(chunkKey(pos))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления чанка %s: %v: %w", pos, err, voxel.ErrIOFailure)
	}
	return nil
}

// Count возвращает количество чанков в архиве
func (a *ChunkArchive) Count() (int, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	if !a.isReady {
		return 0, fmt.Errorf("архив чанков закрыт: %w", voxel.ErrIOFailure)
	}

	count := 0
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(chunkKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка обхода архива: %v: %w", err, voxel.ErrIOFailure)
	}
	return count, nil
}
