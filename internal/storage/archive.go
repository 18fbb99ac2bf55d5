package storage

import (
	"fmt"

	"github.com/annel0/voxelworld/internal/world"
)

// Archive - архив чанков с обслуживающими операциями
type Archive interface {
	world.ChunkStore
	DeleteChunk(pos world.ChunkPos) error
	Count() (int, error)
	Close() error
}

// Поддерживаемые бэкенды архива
const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMaria  = "maria"
)

// Options выбирает и настраивает бэкенд архива
type Options struct {
	Backend  string
	DataPath string       // Каталог BadgerDB
	Redis    *RedisConfig // nil - DefaultRedisConfig
	MariaDSN string
}

// Open открывает архив выбранного бэкенда. Пустой Backend означает badger.
func Open(opts Options) (Archive, error) {
	var (
		archive Archive
		err     error
	)
	switch opts.Backend {
	case "", BackendBadger:
		archive, err = NewChunkArchive(opts.DataPath)
	case BackendRedis:
		archive, err = NewRedisChunkArchive(opts.Redis)
	case BackendMaria:
		if opts.MariaDSN == "" {
			return nil, fmt.Errorf("для бэкенда %s не задан DSN", BackendMaria)
		}
		archive, err = NewMariaChunkArchive(opts.MariaDSN)
	default:
		return nil, fmt.Errorf("неизвестный бэкенд архива %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return archive, nil
}
