package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/annel0/voxelworld/internal/world"
)

const mariaQueryTimeout = 5 * time.Second

// MariaChunkArchive хранит чанки вне октодерева в таблице voxel_chunks
// MariaDB/MySQL. Значение - тот же zstd блоб, что и у ChunkArchive.
type MariaChunkArchive struct {
	db     *sql.DB
	codec  *blobCodec
	logger *logging.Logger
}

// NewMariaChunkArchive подключается к базе и создаёт таблицу, если её нет.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaChunkArchive(dsn string) (*MariaChunkArchive, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %v: %w", err, voxel.ErrIOFailure)
	}

	ctx, cancel := context.WithTimeout(context.Background(), mariaQueryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %v: %w", err, voxel.ErrIOFailure)
	}

	codec, err := newBlobCodec()
	if err != nil {
		db.Close()
		return nil, err
	}

	archive := &MariaChunkArchive{
		db:     db,
		codec:  codec,
		logger: logging.GetStorageLogger(),
	}

	if err := archive.createTable(ctx); err != nil {
		archive.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	archive.logger.Info("🐬 Архив чанков подключён к MariaDB")
	return archive, nil
}

func (m *MariaChunkArchive) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS voxel_chunks (
			cx          INT          NOT NULL,
			cy          INT          NOT NULL,
			cz          INT          NOT NULL,
			voxel_count INT          NOT NULL,
			data        MEDIUMBLOB   NOT NULL,
			updated_at  TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			            ON UPDATE    CURRENT_TIMESTAMP,
			PRIMARY KEY (cx, cy, cz)
		) ENGINE=InnoDB
	`

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы voxel_chunks: %v: %w", err, voxel.ErrIOFailure)
	}
	return nil
}

// SaveChunk сохраняет чанк через INSERT ... ON DUPLICATE KEY UPDATE.
// Пустой чанк удаляет строку.
func (m *MariaChunkArchive) SaveChunk(chunk *world.Chunk) error {
	ctx, cancel := context.WithTimeout(context.Background(), mariaQueryTimeout)
	defer cancel()

	pos := chunk.Pos()
	blob := m.codec.encode(chunk)
	if blob == nil {
		return m.deleteChunk(ctx, pos)
	}

	query := `
		INSERT INTO voxel_chunks (cx, cy, cz, voxel_count, data)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			voxel_count = VALUES(voxel_count),
			data = VALUES(data),
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := m.db.ExecContext(ctx, query, pos.X, pos.Y, pos.Z, chunk.VoxelCount(), blob); err != nil {
		return fmt.Errorf("ошибка сохранения чанка %s в MariaDB: %v: %w", pos, err, voxel.ErrIOFailure)
	}
	return nil
}

// LoadChunk заполняет пустой чанк; false - строки нет
func (m *MariaChunkArchive) LoadChunk(chunk *world.Chunk) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mariaQueryTimeout)
	defer cancel()

	pos := chunk.Pos()
	query := `SELECT data FROM voxel_chunks WHERE cx = ? AND cy = ? AND cz = ?`

	var data []byte
	err := m.db.QueryRowContext(ctx, query, pos.X, pos.Y, pos.Z).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка загрузки чанка %s из MariaDB: %v: %w", pos, err, voxel.ErrIOFailure)
	}

	if err := m.codec.decode(data, chunk); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteChunk удаляет строку чанка
func (m *MariaChunkArchive) DeleteChunk(pos world.ChunkPos) error {
	ctx, cancel := context.WithTimeout(context.Background(), mariaQueryTimeout)
	defer cancel()
	return m.deleteChunk(ctx, pos)
}

func (m *MariaChunkArchive) deleteChunk(ctx context.Context, pos world.ChunkPos) error {
	query := `DELETE FROM voxel_chunks WHERE cx = ? AND cy = ? AND cz = ?`
	if _, err := m.db.ExecContext(ctx, query, pos.X, pos.Y, pos.Z); err != nil {
		return fmt.Errorf("ошибка удаления чанка %s: %v: %w", pos, err, voxel.ErrIOFailure)
	}
	return nil
}

// Count возвращает количество строк в таблице
func (m *MariaChunkArchive) Count() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mariaQueryTimeout)
	defer cancel()

	var count int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM voxel_chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта чанков: %v: %w", err, voxel.ErrIOFailure)
	}
	return count, nil
}

// Close закрывает соединение с базой данных
func (m *MariaChunkArchive) Close() error {
	m.codec.close()
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
