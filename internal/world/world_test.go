package world

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelworld/internal/svo"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
)

// memStore - ChunkStore в памяти с возможностью задержать загрузку
type memStore struct {
	mu      sync.Mutex
	data    map[ChunkPos]map[vec.Vec3]voxel.Voxel
	order   []ChunkPos
	gate    chan struct{} // если не nil, LoadChunk ждёт закрытия
	entered chan ChunkPos
	failErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[ChunkPos]map[vec.Vec3]voxel.Voxel)}
}

func (s *memStore) SaveChunk(chunk *Chunk) error {
	cells := make(map[vec.Vec3]voxel.Voxel)
	chunk.ForEachVoxel(func(local vec.Vec3, v voxel.Voxel) {
		cells[local] = v
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[chunk.Pos()] = cells
	return nil
}

func (s *memStore) LoadChunk(chunk *Chunk) (bool, error) {
	if s.entered != nil {
		s.entered <- chunk.Pos()
	}
	if s.gate != nil {
		<-s.gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = append(s.order, chunk.Pos())
	if s.failErr != nil {
		return false, s.failErr
	}
	cells, ok := s.data[chunk.Pos()]
	for p, v := range cells {
		chunk.SetVoxel(p, v)
	}
	return ok, nil
}

func (s *memStore) loadOrder() []ChunkPos {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChunkPos(nil), s.order...)
}

// recordingNotifier запоминает dirty-события
type recordingNotifier struct {
	mu     sync.Mutex
	events []State
}

func (n *recordingNotifier) NotifyDirty(_ ChunkPos, level State) {
	n.mu.Lock()
	n.events = append(n.events, level)
	n.mu.Unlock()
}

func (n *recordingNotifier) snapshot() []State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]State(nil), n.events...)
}

func newTestManager(t *testing.T, mutate func(*Config), opts ...Option) *WorldManager {
	t.Helper()

	cfg := DefaultConfig()
	cfg.OctreeDepth = 10
	cfg.LoadingThreads = 2
	if mutate != nil {
		mutate(&cfg)
	}

	wm, err := NewWorldManager(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(wm.Close)
	return wm
}

func waitLoaded(t *testing.T, f *LoadFuture) *Chunk {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chunk, err := f.Wait(ctx)
	require.NoError(t, err)
	require.NotNil(t, chunk)
	return chunk
}

func TestWorldManagerEvictionDurability(t *testing.T) {
	wm := newTestManager(t, nil)
	pos := vec.Vec3{X: 5, Y: 5, Z: 5}
	stone := voxel.New(voxel.MaterialStone, 255)

	require.NoError(t, wm.SetVoxel(pos, stone))
	require.NoError(t, wm.UnloadChunk(ChunkPos{}))

	_, resident := wm.Chunk(ChunkPos{})
	assert.False(t, resident, "Чанк должен быть выгружен")
	assert.Equal(t, voxel.Air, wm.Voxel(pos), "Промах по таблице возвращает воздух")

	waitLoaded(t, wm.LoadChunk(ChunkPos{}, PriorityNormal))
	assert.Equal(t, stone, wm.Voxel(pos))
}

func TestWorldManagerRoundTripKeepsDamage(t *testing.T) {
	wm := newTestManager(t, nil)

	writes := []VoxelWrite{
		{Pos: vec.Vec3{X: 0, Y: 0, Z: 0}, Voxel: voxel.New(voxel.MaterialDirt, 255)},
		{Pos: vec.Vec3{X: 200, Y: 130, Z: 64}, Voxel: voxel.Voxel{Material: voxel.MaterialWood, Health: 3, Flags: voxel.FlagOnFire, StructuralSupport: 7}},
		{Pos: vec.Vec3{X: 1023, Y: 1023, Z: 1023}, Voxel: voxel.New(voxel.MaterialIce, 90)},
	}
	require.NoError(t, wm.SetVoxelBulk(writes))

	positions := make([]vec.Vec3, len(writes))
	for i, w := range writes {
		positions[i] = w.Pos
	}
	got := wm.VoxelBulk(positions)
	for i, w := range writes {
		assert.Equal(t, w.Voxel, got[i])
	}

	// После выгрузки и повторной загрузки значения не теряют здоровье и флаги
	for _, w := range writes {
		require.NoError(t, wm.UnloadChunk(ChunkPosOf(w.Pos, ChunkSize)))
		waitLoaded(t, wm.LoadChunk(ChunkPosOf(w.Pos, ChunkSize), PriorityHigh))
		assert.Equal(t, w.Voxel, wm.Voxel(w.Pos))
	}
}

func TestWorldManagerAtMostOneLoad(t *testing.T) {
	wm := newTestManager(t, nil)
	cp := ChunkPos{X: 2, Y: 3, Z: 4}

	first := wm.LoadChunk(cp, PriorityNormal)
	second := wm.LoadChunk(cp, PriorityHigh)
	assert.Same(t, first, second, "Повторный запрос должен вернуть тот же future")

	chunk, ok := wm.Chunk(cp)
	require.True(t, ok, "Чанк виден в таблице сразу после запроса")
	assert.Same(t, waitLoaded(t, first), chunk)

	assert.Equal(t, StateActive, chunk.State())
	assert.Equal(t, uint64(1), wm.Statistics().LoadedChunks)

	third := wm.LoadChunk(cp, PriorityNormal)
	assert.Same(t, first, third)
	assert.Equal(t, uint64(1), wm.Statistics().LoadedChunks)
}

func TestWorldManagerBoundsPolicy(t *testing.T) {
	outside := []vec.Vec3{{X: -1}, {X: 1 << 10}, {Z: -5000}}

	silent := newTestManager(t, nil)
	for _, p := range outside {
		assert.NoError(t, silent.SetVoxel(p, voxel.New(voxel.MaterialStone, 255)))
		assert.Equal(t, voxel.Air, silent.Voxel(p))
	}
	assert.Empty(t, silent.residentPositions(), "Запись вне мира не создаёт чанков")

	report := newTestManager(t, func(c *Config) { c.BoundsPolicy = BoundsReport })
	for _, p := range outside {
		err := report.SetVoxel(p, voxel.New(voxel.MaterialStone, 255))
		assert.True(t, errors.Is(err, voxel.ErrOutOfBounds), "позиция %v", p)
	}

	_, err := report.LoadChunk(ChunkPos{X: -1}, PriorityNormal).Wait(context.Background())
	assert.True(t, errors.Is(err, voxel.ErrOutOfBounds))

	policy, err := ParseBoundsPolicy("REPORT")
	require.NoError(t, err)
	assert.Equal(t, BoundsReport, policy)
	_, err = ParseBoundsPolicy("clamp")
	assert.Error(t, err)
}

func TestWorldManagerArchiveTier(t *testing.T) {
	store := newMemStore()
	wm := newTestManager(t, nil, WithArchive(store))

	pos := vec.Vec3{X: -10, Y: 5, Z: 2000}
	v := voxel.Voxel{Material: voxel.MaterialCoal, Health: 40, StructuralSupport: 9}
	require.NoError(t, wm.SetVoxel(pos, v))

	cp := ChunkPosOf(pos, ChunkSize)
	require.NoError(t, wm.UnloadChunk(cp))
	assert.Contains(t, store.data, cp, "Чанк вне октодерева уходит в архив")

	waitLoaded(t, wm.LoadChunk(cp, PriorityNormal))
	assert.Equal(t, v, wm.Voxel(pos))
}

func TestWorldManagerLoadFailure(t *testing.T) {
	store := newMemStore()
	store.failErr = errors.New("диск недоступен")
	wm := newTestManager(t, nil, WithArchive(store))

	cp := ChunkPos{X: -1}
	_, err := wm.LoadChunk(cp, PriorityNormal).Wait(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, voxel.ErrIOFailure))

	_, resident := wm.Chunk(cp)
	assert.False(t, resident, "Неудачная загрузка удаляет чанк из таблицы")

	err = wm.SetVoxel(vec.Vec3{X: -1}, voxel.New(voxel.MaterialStone, 255))
	assert.True(t, errors.Is(err, voxel.ErrIOFailure))
}

func TestWorldManagerPriorityAndQueueLimit(t *testing.T) {
	store := newMemStore()
	store.gate = make(chan struct{})
	store.entered = make(chan ChunkPos, 8)

	// Мир глубины 6 - один чанк, остальные позиции обслуживает архив
	wm := newTestManager(t, func(c *Config) {
		c.OctreeDepth = 6
		c.LoadingThreads = 1
		c.QueueCapacity = 1
	}, WithArchive(store))

	a, b, c, d := ChunkPos{X: 1}, ChunkPos{X: 2}, ChunkPos{X: 3}, ChunkPos{X: 4}

	fa := wm.LoadChunk(a, PriorityLow)
	assert.Equal(t, a, <-store.entered, "Единственный загрузчик занят чанком A")

	fb := wm.LoadChunk(b, PriorityNormal)
	assert.Equal(t, 1, wm.Statistics().PendingLoads)

	fc := wm.LoadChunk(c, PriorityNormal)
	assert.True(t, errors.Is(fc.Err(), voxel.ErrQueueFull), "Несрочная загрузка при полной очереди отклоняется")
	_, resident := wm.Chunk(c)
	assert.False(t, resident)

	fd := wm.LoadChunk(d, PriorityUrgent)
	require.NoError(t, fd.Err(), "Срочная загрузка принимается всегда")

	close(store.gate)
	waitLoaded(t, fa)
	waitLoaded(t, fb)
	waitLoaded(t, fd)

	assert.Equal(t, []ChunkPos{a, d, b}, store.loadOrder(), "Срочная задача обслуживается раньше обычной")
}

func TestWorldManagerPriorityBoost(t *testing.T) {
	store := newMemStore()
	store.gate = make(chan struct{})
	store.entered = make(chan ChunkPos, 8)

	wm := newTestManager(t, func(c *Config) {
		c.OctreeDepth = 6
		c.LoadingThreads = 1
	}, WithArchive(store))

	a, b, c := ChunkPos{X: 1}, ChunkPos{X: 2}, ChunkPos{X: 3}
	wm.LoadChunk(a, PriorityLow)
	<-store.entered

	wm.LoadChunk(b, PriorityNormal)
	wm.LoadChunk(c, PriorityLow)
	wm.LoadChunk(c, PriorityUrgent) // запись в чанк, уже стоящий в очереди

	close(store.gate)
	require.Eventually(t, func() bool { return len(store.loadOrder()) == 3 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []ChunkPos{a, c, b}, store.loadOrder())
}

func TestWorldManagerDirtyTracking(t *testing.T) {
	notifier := &recordingNotifier{}
	wm := newTestManager(t, nil, WithNotifier(notifier))

	require.NoError(t, wm.SetVoxel(vec.Vec3{X: 70, Y: 1, Z: 1}, voxel.New(voxel.MaterialSand, 255)))
	require.NoError(t, wm.SetVoxel(vec.Vec3{X: 1, Y: 1, Z: 1}, voxel.New(voxel.MaterialSand, 255)))

	assert.Equal(t, []ChunkPos{{X: 0}, {X: 1}}, wm.DirtyChunks(StateDirtyMesh))
	assert.Empty(t, wm.DirtyChunks(StateDirtyPhysics))

	require.True(t, wm.MarkChunkDirty(ChunkPos{X: 1}, StateDirtyStructure))
	assert.Equal(t, []ChunkPos{{X: 1}}, wm.DirtyChunks(StateDirtyPhysics))
	assert.Equal(t, []ChunkPos{{X: 1}}, wm.DirtyChunks(StateDirtyStructure))

	require.True(t, wm.ClearDirtyFlag(ChunkPos{X: 1}))
	assert.Equal(t, []ChunkPos{{X: 0}}, wm.DirtyChunks(StateDirtyMesh))

	assert.False(t, wm.MarkChunkDirty(ChunkPos{X: 9}, StateDirtyMesh), "Нерезидентный чанк не помечается")

	events := notifier.snapshot()
	require.NotEmpty(t, events)
	assert.Equal(t, StateActive, events[len(events)-1])
	assert.Contains(t, events, StateDirtyStructure)
}

func TestWorldManagerGarbageCollect(t *testing.T) {
	wm := newTestManager(t, nil)

	for x := int32(0); x < 4; x++ {
		waitLoaded(t, wm.LoadChunk(ChunkPos{X: x}, PriorityNormal))
	}
	require.NoError(t, wm.SetVoxel(vec.Vec3{X: 64 * 3}, voxel.New(voxel.MaterialStone, 255)))

	// Три чистых чанка: выгружается половина, грязный не трогается
	assert.Equal(t, 1, wm.GarbageCollect())
	_, dirtyResident := wm.Chunk(ChunkPos{X: 3})
	assert.True(t, dirtyResident)
	assert.Equal(t, 3, wm.Statistics().ActiveChunks)
}

func TestWorldManagerEnforceChunkBudget(t *testing.T) {
	wm := newTestManager(t, func(c *Config) {
		c.MaxActiveChunks = 2
		c.LoadDistance = 1
		c.UnloadDistance = 1000
	})

	for x := int32(0); x < 5; x++ {
		waitLoaded(t, wm.LoadChunk(ChunkPos{X: x}, PriorityNormal))
	}
	wm.UpdateActiveRegion(vec.Vec3Float{X: 32, Y: 32, Z: 32}, 0)

	st := wm.Statistics()
	assert.LessOrEqual(t, st.ActiveChunks, 2)
	_, nearest := wm.Chunk(ChunkPos{})
	assert.True(t, nearest, "Ближайший к игроку чанк остаётся в памяти")
}

func TestWorldManagerUpdateActiveRegion(t *testing.T) {
	wm := newTestManager(t, func(c *Config) {
		c.LoadDistance = 100
		c.UnloadDistance = 150
	})

	player := vec.Vec3Float{X: 512, Y: 512, Z: 512}
	wm.UpdateActiveRegion(player, 100)

	require.Eventually(t, func() bool {
		st := wm.Statistics()
		return st.PendingLoads == 0 && st.ActiveChunks == len(wm.residentPositions())
	}, 5*time.Second, 10*time.Millisecond)

	for _, cp := range wm.residentPositions() {
		assert.LessOrEqual(t, cp.Center().DistanceTo(player), 100.0)
	}
	_, ok := wm.Chunk(ChunkPosOf(player.Floor(), ChunkSize))
	assert.True(t, ok)

	// Игрок переместился: старые чанки за пределами UnloadDistance выгружаются
	far := vec.Vec3Float{X: 100, Y: 100, Z: 100}
	wm.UpdateActiveRegion(far, 100)
	for _, cp := range wm.residentPositions() {
		assert.LessOrEqual(t, cp.Center().DistanceTo(far), 150.0)
	}
}

func TestWorldManagerSaveAndLoadWorld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planet.svo")

	wm := newTestManager(t, nil)
	lava := voxel.New(voxel.MaterialLava, 255)
	require.NoError(t, wm.SetVoxel(vec.Vec3{X: 300, Y: 10, Z: 10}, lava))
	require.NoError(t, wm.SaveWorld(path))

	_, stillResident := wm.Chunk(ChunkPosOf(vec.Vec3{X: 300, Y: 10, Z: 10}, ChunkSize))
	assert.True(t, stillResident, "Сохранение не выгружает чанки")

	other := newTestManager(t, nil)
	waitLoaded(t, other.LoadChunk(ChunkPos{X: 4}, PriorityNormal))
	require.NoError(t, other.LoadWorld(path))

	_, resident := other.Chunk(ChunkPos{X: 4})
	assert.False(t, resident, "Чистые чанки сбрасываются после загрузки мира")

	waitLoaded(t, other.LoadChunk(ChunkPos{X: 4}, PriorityNormal))
	assert.Equal(t, lava, other.Voxel(vec.Vec3{X: 300, Y: 10, Z: 10}))

	err := other.LoadWorld(filepath.Join(t.TempDir(), "missing.svo"))
	assert.True(t, errors.Is(err, voxel.ErrIOFailure))
}

func TestWorldManagerLoadWorldRejectsShallowOctree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.svo")
	tiny, err := svo.New(3)
	require.NoError(t, err)
	require.NoError(t, tiny.SaveToFile(path))

	wm := newTestManager(t, nil)
	err = wm.LoadWorld(path)
	assert.True(t, errors.Is(err, voxel.ErrOutOfRange), "Дерево мельче уровня чанка не принимается")
	assert.Equal(t, 10, wm.Octree().MaxDepth(), "Прежнее октодерево сохраняется")

	pos := vec.Vec3{X: 5, Y: 5, Z: 5}
	stone := voxel.New(voxel.MaterialStone, 255)
	require.NoError(t, wm.SetVoxel(pos, stone))
	require.NoError(t, wm.UnloadChunk(ChunkPos{}))

	waitLoaded(t, wm.LoadChunk(ChunkPos{}, PriorityNormal))
	assert.Equal(t, stone, wm.Voxel(pos), "Правка переживает выгрузку")
}

func TestWorldManagerUnloadReportsUnstorableChunk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "single.svo")
	single, err := svo.New(svo.ChunkLevel)
	require.NoError(t, err)
	require.NoError(t, single.SaveToFile(path))

	wm := newTestManager(t, nil)
	pos := vec.Vec3{X: 300, Y: 10, Z: 10}
	cp := ChunkPosOf(pos, ChunkSize)
	require.NoError(t, wm.SetVoxel(pos, voxel.New(voxel.MaterialWood, 255)))

	// Грязный чанк остаётся в таблице, но в новое дерево уже не помещается
	require.NoError(t, wm.LoadWorld(path))

	err = wm.UnloadChunk(cp)
	assert.True(t, errors.Is(err, voxel.ErrOutOfBounds), "Выгрузка без уровня хранения - ошибка")

	chunk, resident := wm.Chunk(cp)
	require.True(t, resident, "Непринятый чанк не удаляется из таблицы")
	assert.Equal(t, voxel.MaterialWood, chunk.Voxel(vec.Vec3{X: 300 - 4*ChunkSize, Y: 10, Z: 10}).Material)

	assert.Error(t, wm.SaveWorld(filepath.Join(t.TempDir(), "out.svo")))
}

func TestWorldManagerStatistics(t *testing.T) {
	wm := newTestManager(t, nil)

	assert.Equal(t, voxel.Air, wm.Voxel(vec.Vec3{X: 1}))
	require.NoError(t, wm.SetVoxel(vec.Vec3{X: 1}, voxel.New(voxel.MaterialMetal, 255)))
	assert.True(t, wm.HasVoxel(vec.Vec3{X: 1}))

	st := wm.Update()
	assert.Equal(t, 1, st.ActiveChunks)
	assert.Equal(t, uint64(1), st.LoadedChunks)
	assert.Equal(t, 0, st.PendingLoads)
	assert.Greater(t, st.MemoryUsage, int64(0))
	assert.InDelta(t, 0.5, st.ChunkHitRate, 1e-9)
}

func TestWorldManagerCompressInactiveChunks(t *testing.T) {
	wm := newTestManager(t, nil)

	chunk := waitLoaded(t, wm.LoadChunk(ChunkPos{}, PriorityNormal))
	chunk.Decompress()
	require.True(t, chunk.IsDense())

	wm.CompressInactiveChunks()
	assert.False(t, chunk.IsDense())
}

func TestWorldManagerDenseMaterialization(t *testing.T) {
	wm := newTestManager(t, nil)

	grid := NewChunk(ChunkPos{X: 1})
	grid.Fill(voxel.New(voxel.MaterialStone, 255))
	require.True(t, wm.Octree().StoreChunkData(grid.Origin(), grid))

	chunk := waitLoaded(t, wm.LoadChunk(ChunkPos{X: 1}, PriorityNormal))
	assert.True(t, chunk.IsDense(), "Заполненный чанк материализуется в плотном режиме")
	assert.Equal(t, ChunkVolume, chunk.VoxelCount())
}

func TestWorldManagerSetLoadingWorkerCount(t *testing.T) {
	wm := newTestManager(t, nil)

	wm.SetLoadingWorkerCount(6)
	wm.SetMaxActiveChunks(17)
	assert.Equal(t, 6, wm.Config().LoadingThreads)
	assert.Equal(t, 17, wm.Config().MaxActiveChunks)

	waitLoaded(t, wm.LoadChunk(ChunkPos{X: 7}, PriorityNormal))
}

func TestWorldManagerClose(t *testing.T) {
	store := newMemStore()
	store.gate = make(chan struct{})
	store.entered = make(chan ChunkPos, 8)

	wm := newTestManager(t, func(c *Config) {
		c.OctreeDepth = 6
		c.LoadingThreads = 1
	}, WithArchive(store))

	fa := wm.LoadChunk(ChunkPos{X: 1}, PriorityNormal)
	<-store.entered
	fb := wm.LoadChunk(ChunkPos{X: 2}, PriorityNormal)

	closed := make(chan struct{})
	go func() {
		wm.Close()
		close(closed)
	}()
	require.Eventually(t, wm.closed.Load, time.Second, 5*time.Millisecond)
	close(store.gate)
	<-closed

	waitLoaded(t, fa)
	_, err := fb.Wait(context.Background())
	assert.True(t, errors.Is(err, voxel.ErrClosed), "Задачи из очереди отменяются")

	assert.True(t, errors.Is(wm.SetVoxel(vec.Vec3{}, voxel.New(voxel.MaterialStone, 255)), voxel.ErrClosed))
	assert.True(t, errors.Is(wm.LoadChunk(ChunkPos{}, PriorityUrgent).Err(), voxel.ErrClosed))
}

// waitSettled ждёт завершения future: успех или отмена при остановке
func waitSettled(t *testing.T, f *LoadFuture) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := f.Wait(ctx)
	if err != nil {
		require.True(t, errors.Is(err, voxel.ErrClosed), "Неожиданная ошибка загрузки: %v", err)
	}
}

func TestWorldManagerLoadRacingClose(t *testing.T) {
	for round := 0; round < 20; round++ {
		wm := newTestManager(t, nil)

		var (
			mu      sync.Mutex
			futures []*LoadFuture
			wg      sync.WaitGroup
		)
		start := make(chan struct{})
		for g := int32(0); g < 4; g++ {
			wg.Add(1)
			go func(g int32) {
				defer wg.Done()
				<-start
				for x := int32(0); x < 16; x++ {
					f := wm.LoadChunk(ChunkPos{X: x, Y: g}, PriorityUrgent)
					mu.Lock()
					futures = append(futures, f)
					mu.Unlock()
				}
			}(g)
		}

		close(start)
		wm.Close()
		wg.Wait()

		for _, f := range futures {
			waitSettled(t, f)
		}
	}
}

func TestWorldManagerLoadRacingPoolResize(t *testing.T) {
	wm := newTestManager(t, nil)

	done := make(chan struct{})
	resized := make(chan struct{})
	go func() {
		defer close(resized)
		for n := 1; ; n = n%4 + 1 {
			select {
			case <-done:
				return
			default:
				wm.SetLoadingWorkerCount(n)
			}
		}
	}()

	var futures []*LoadFuture
	for x := int32(0); x < 16; x++ {
		for y := int32(0); y < 8; y++ {
			futures = append(futures, wm.LoadChunk(ChunkPos{X: x, Y: y}, PriorityUrgent))
		}
	}
	for _, f := range futures {
		waitLoaded(t, f)
	}

	close(done)
	<-resized
	assert.Zero(t, wm.Statistics().PendingLoads, "В очереди не остаётся задач без обработчика")
}

func TestNewWorldManagerRejectsShallowOctree(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OctreeDepth = 4
	_, err := NewWorldManager(cfg)
	assert.True(t, errors.Is(err, voxel.ErrOutOfRange))
}
