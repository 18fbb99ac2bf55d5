package world

import (
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/svo"
)

// BoundsPolicy определяет реакцию на запись за пределами адресуемого мира
type BoundsPolicy uint8

const (
	// BoundsSilent - запись молча отбрасывается, чтение возвращает воздух
	BoundsSilent BoundsPolicy = iota
	// BoundsReport - запись возвращает voxel.ErrOutOfBounds
	BoundsReport
)

func (p BoundsPolicy) String() string {
	if p == BoundsReport {
		return "report"
	}
	return "silent"
}

// ParseBoundsPolicy разбирает значение bounds_policy из конфигурации
func ParseBoundsPolicy(name string) (BoundsPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "silent":
		return BoundsSilent, nil
	case "report":
		return BoundsReport, nil
	default:
		return BoundsSilent, fmt.Errorf("неизвестная политика границ %q", name)
	}
}

// Config - параметры менеджера мира
type Config struct {
	MaxActiveChunks int          // Бюджет резидентных чанков
	LoadDistance    float64      // Радиус подгрузки вокруг игрока (воксели)
	UnloadDistance  float64      // Радиус выгрузки (больше LoadDistance)
	LoadingThreads  int          // Размер пула загрузчиков
	OctreeDepth     int          // Глубина октодерева
	QueueCapacity   int          // Предел очереди для несрочных загрузок
	BoundsPolicy    BoundsPolicy // Реакция на запись вне мира
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		MaxActiveChunks: 1000,
		LoadDistance:    300,
		UnloadDistance:  500,
		LoadingThreads:  4,
		OctreeDepth:     svo.DefaultMaxDepth,
		QueueCapacity:   4096,
		BoundsPolicy:    BoundsSilent,
	}
}

// ChunkStore - уровень хранения для чанков вне куба октодерева
type ChunkStore interface {
	SaveChunk(chunk *Chunk) error
	// LoadChunk заполняет пустой чанк; false - данных нет
	LoadChunk(chunk *Chunk) (bool, error)
}

// DirtyNotifier получает переходы dirty-состояний чанков
type DirtyNotifier interface {
	NotifyDirty(pos ChunkPos, level State)
}

// Recorder принимает метрики менеджера
type Recorder interface {
	ObserveLoad(d time.Duration, err error)
	ObserveUnload()
	ObserveStats(stats Statistics)
}

// Option настраивает WorldManager
type Option func(*WorldManager)

// WithArchive подключает архив чанков; мир становится неограниченным
func WithArchive(store ChunkStore) Option {
	return func(wm *WorldManager) { wm.archive = store }
}

// WithNotifier подключает рассылку dirty-событий
func WithNotifier(n DirtyNotifier) Option {
	return func(wm *WorldManager) { wm.notifier = n }
}

// WithRecorder подключает приёмник метрик
func WithRecorder(r Recorder) Option {
	return func(wm *WorldManager) { wm.recorder = r }
}

// WithLogger заменяет логгер компонента
func WithLogger(l *logging.Logger) Option {
	return func(wm *WorldManager) { wm.logger = l }
}

// WithTracer заменяет трассировщик
func WithTracer(t trace.Tracer) Option {
	return func(wm *WorldManager) { wm.tracer = t }
}
