package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/annel0/voxelworld/internal/world"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей, 0 - бессрочно
	Timeout   time.Duration // Таймаут одной операции
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "voxel:chunk:",
		Timeout:   2 * time.Second,
	}
}

// RedisChunkArchive хранит чанки вне октодерева в Redis.
// Формат значения совпадает с ChunkArchive.
type RedisChunkArchive struct {
	client    *redis.Client
	codec     *blobCodec
	keyPrefix string
	ttl       time.Duration
	timeout   time.Duration
	logger    *logging.Logger
}

// NewRedisChunkArchive подключается к Redis и проверяет соединение
func NewRedisChunkArchive(config *RedisConfig) (*RedisChunkArchive, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis %s: %v: %w", config.Addr, err, voxel.ErrIOFailure)
	}

	codec, err := newBlobCodec()
	if err != nil {
		client.Close()
		return nil, err
	}

	logger := logging.GetStorageLogger()
	logger.Info("🔴 Архив чанков подключён к Redis %s", config.Addr)

	return &RedisChunkArchive{
		client:    client,
		codec:     codec,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

func (r *RedisChunkArchive) key(pos world.ChunkPos) string {
	return fmt.Sprintf("%s%d:%d:%d", r.keyPrefix, pos.X, pos.Y, pos.Z)
}

// SaveChunk записывает чанк. Пустой чанк удаляет ключ.
func (r *RedisChunkArchive) SaveChunk(chunk *world.Chunk) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	key := r.key(chunk.Pos())
	blob := r.codec.encode(chunk)

	var err error
	if blob == nil {
		err = r.client.Del(ctx, key).Err()
	} else {
		err = r.client.Set(ctx, key, blob, r.ttl).Err()
	}
	if err != nil {
		return fmt.Errorf("ошибка сохранения чанка %s в Redis: %v: %w", chunk.Pos(), err, voxel.ErrIOFailure)
	}
	return nil
}

// LoadChunk заполняет пустой чанк; false - ключа нет
func (r *RedisChunkArchive) LoadChunk(chunk *world.Chunk) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.key(chunk.Pos())).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка чтения чанка %s из Redis: %v: %w", chunk.Pos(), err, voxel.ErrIOFailure)
	}

	if err := r.codec.decode(data, chunk); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteChunk удаляет запись чанка
func (r *RedisChunkArchive) DeleteChunk(pos world.ChunkPos) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Del(ctx, r.key(pos)).Err(); err != nil {
		return fmt.Errorf("ошибка удаления чанка %s: %v: %w", pos, err, voxel.ErrIOFailure)
	}
	return nil
}

// Count считает ключи архива через SCAN
func (r *RedisChunkArchive) Count() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	count := 0
	iter := r.client.Scan(ctx, 0, r.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("ошибка обхода архива: %v: %w", err, voxel.ErrIOFailure)
	}
	return count, nil
}

// Close закрывает соединение с Redis
func (r *RedisChunkArchive) Close() error {
	r.codec.close()
	return r.client.Close()
}
