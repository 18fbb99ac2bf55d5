package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/annel0/voxelworld/internal/world"
)

// blobCodec переводит чанк в сжатый zstd блоб и обратно.
// Формат общий для всех бэкендов архива.
type blobCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newBlobCodec() (*blobCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать zstd-кодировщик: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("не удалось создать zstd-декодер: %w", err)
	}
	return &blobCodec{encoder: encoder, decoder: decoder}, nil
}

// encode возвращает nil для пустого чанка
func (c *blobCodec) encode(chunk *world.Chunk) []byte {
	raw := encodeCells(chunk)
	if raw == nil {
		return nil
	}
	return c.encoder.EncodeAll(raw, nil)
}

func (c *blobCodec) decode(blob []byte, chunk *world.Chunk) error {
	raw, err := c.decoder.DecodeAll(blob, nil)
	if err != nil {
		return fmt.Errorf("повреждённые данные чанка %s: %v: %w", chunk.Pos(), err, voxel.ErrIOFailure)
	}
	if err := decodeCells(raw, chunk); err != nil {
		return fmt.Errorf("повреждённые данные чанка %s: %v: %w", chunk.Pos(), err, voxel.ErrIOFailure)
	}
	return nil
}

func (c *blobCodec) close() {
	c.decoder.Close()
	c.encoder.Close()
}

// encodeCells упаковывает непустые ячейки: uint32 количество, затем пары
// (uint32 локальный индекс, uint32 упакованный воксель), little endian.
// Для пустого чанка возвращает nil.
func encodeCells(chunk *world.Chunk) []byte {
	n := chunk.VoxelCount()
	if n == 0 {
		return nil
	}

	buf := make([]byte, 4, 4+n*8)
	count := uint32(0)
	chunk.ForEachVoxel(func(local vec.Vec3, v voxel.Voxel) {
		idx := uint32(local.X) | uint32(local.Y)<<8 | uint32(local.Z)<<16
		buf = binary.LittleEndian.AppendUint32(buf, idx)
		buf = binary.LittleEndian.AppendUint32(buf, v.Pack())
		count++
	})
	binary.LittleEndian.PutUint32(buf, count)
	return buf
}

func decodeCells(raw []byte, chunk *world.Chunk) error {
	if len(raw) < 4 {
		return errors.New("нет заголовка")
	}
	count := binary.LittleEndian.Uint32(raw)
	body := raw[4:]
	if uint64(len(body)) != uint64(count)*8 {
		return fmt.Errorf("ожидалось %d записей, получено %d байт", count, len(body))
	}

	if count > world.DenseThreshold {
		chunk.Decompress()
	}
	for i := 0; i < len(body); i += 8 {
		idx := binary.LittleEndian.Uint32(body[i:])
		local := vec.Vec3{X: int32(idx & 0xFF), Y: int32((idx >> 8) & 0xFF), Z: int32((idx >> 16) & 0xFF)}
		if !world.InChunk(local) {
			return fmt.Errorf("локальная позиция %v вне чанка", local)
		}
		chunk.SetVoxel(local, voxel.Unpack(binary.LittleEndian.Uint32(body[i+4:])))
	}
	return nil
}
