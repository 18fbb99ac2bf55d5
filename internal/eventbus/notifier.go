package eventbus

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/world"
)

// publishTimeout ограничивает ожидание места в шине для структурных событий
const publishTimeout = 100 * time.Millisecond

// ChunkNotifier публикует dirty-переходы менеджера мира в шину событий
type ChunkNotifier struct {
	bus    EventBus
	source string
	logger *logging.Logger
}

var _ world.DirtyNotifier = (*ChunkNotifier)(nil)

// NewChunkNotifier создаёт нотификатор; source - идентификатор менеджера мира
func NewChunkNotifier(bus EventBus, source string) *ChunkNotifier {
	return &ChunkNotifier{
		bus:    bus,
		source: source,
		logger: logging.GetComponentLogger(logging.ComponentEventBus),
	}
}

// SetSource меняет источник событий (менеджер создаётся после нотификатора)
func (n *ChunkNotifier) SetSource(source string) {
	n.source = source
}

// NotifyDirty реализует world.DirtyNotifier
func (n *ChunkNotifier) NotifyDirty(pos world.ChunkPos, level world.State) {
	ev := &DirtyEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    n.source,
		Chunk:     pos,
		Level:     level,
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := n.bus.Publish(ctx, ev); err != nil {
		n.logger.Warn("Событие чанка %s (%s) не опубликовано: %v", pos, level, err)
	}
}
