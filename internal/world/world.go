package world

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/svo"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
)

const tracerName = "github.com/annel0/voxelworld/internal/world"

// writeAttempts - сколько раз запись повторяет загрузку, если чанк
// выгрузили между материализацией и записью
const writeAttempts = 4

// VoxelWrite - элемент пакетной записи
type VoxelWrite struct {
	Pos   vec.Vec3
	Voxel voxel.Voxel
}

// entry - запись таблицы резидентных чанков
type entry struct {
	chunk  *Chunk
	future *LoadFuture
	task   *loadTask // nil после извлечения из очереди
}

// WorldManager управляет активным набором чанков поверх октодерева:
// асинхронная подгрузка, выгрузка, отслеживание изменений, сохранение мира.
type WorldManager struct {
	id      string
	cfg     Config
	palette *voxel.MaterialPalette
	octree  *svo.Octree

	archive  ChunkStore
	notifier DirtyNotifier
	recorder Recorder
	logger   *logging.Logger
	tracer   trace.Tracer

	mu     sync.RWMutex // Таблица чанков и очередь загрузки
	chunks map[ChunkPos]*entry
	queue  loadQueue
	seq    uint64
	focus  vec.Vec3Float // Последняя позиция игрока

	poolMu sync.Mutex
	pool   pond.Pool
	closed atomic.Bool

	stats loadStats
}

// NewWorldManager создаёт менеджер мира и пул загрузчиков
func NewWorldManager(cfg Config, opts ...Option) (*WorldManager, error) {
	def := DefaultConfig()
	if cfg.MaxActiveChunks <= 0 {
		cfg.MaxActiveChunks = def.MaxActiveChunks
	}
	if cfg.LoadingThreads <= 0 {
		cfg.LoadingThreads = def.LoadingThreads
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = def.QueueCapacity
	}
	if cfg.OctreeDepth == 0 {
		cfg.OctreeDepth = def.OctreeDepth
	}
	if cfg.OctreeDepth < svo.ChunkLevel {
		return nil, fmt.Errorf("глубина октодерева %d меньше уровня чанка %d: %w",
			cfg.OctreeDepth, svo.ChunkLevel, voxel.ErrOutOfRange)
	}
	if cfg.UnloadDistance < cfg.LoadDistance {
		cfg.UnloadDistance = cfg.LoadDistance
	}

	octree, err := svo.New(cfg.OctreeDepth)
	if err != nil {
		return nil, err
	}

	wm := &WorldManager{
		id:      uuid.NewString(),
		cfg:     cfg,
		palette: voxel.NewMaterialPalette(),
		octree:  octree,
		chunks:  make(map[ChunkPos]*entry),
		pool:    pond.NewPool(cfg.LoadingThreads),
	}
	for _, opt := range opts {
		opt(wm)
	}
	if wm.logger == nil {
		wm.logger = logging.GetWorldLogger()
	}
	if wm.tracer == nil {
		wm.tracer = otel.Tracer(tracerName)
	}

	wm.logger.Info("🌍 Менеджер мира %s: глубина октодерева %d, загрузчиков %d, бюджет %d чанков",
		wm.id, cfg.OctreeDepth, cfg.LoadingThreads, cfg.MaxActiveChunks)
	return wm, nil
}

// ID возвращает идентификатор экземпляра
func (wm *WorldManager) ID() string {
	return wm.id
}

// Palette возвращает палитру материалов мира
func (wm *WorldManager) Palette() *voxel.MaterialPalette {
	return wm.palette
}

// Octree возвращает октодерево мира
func (wm *WorldManager) Octree() *svo.Octree {
	return wm.octree
}

// Config возвращает действующие параметры
func (wm *WorldManager) Config() Config {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return wm.cfg
}

// addressable проверяет, что чанк может быть сохранён хотя бы на одном уровне
func (wm *WorldManager) addressable(cp ChunkPos) bool {
	return wm.archive != nil || wm.octree.InBounds(cp.ToVoxelPos(ChunkSize))
}

// Voxel возвращает воксель по мировой позиции. Промах по таблице
// чанков возвращает воздух без загрузки.
func (wm *WorldManager) Voxel(pos vec.Vec3) voxel.Voxel {
	cp := ChunkPosOf(pos, ChunkSize)

	wm.mu.RLock()
	e := wm.chunks[cp]
	wm.mu.RUnlock()

	wm.stats.recordLookup(e != nil)
	if e == nil {
		return voxel.Air
	}
	return e.chunk.Voxel(LocalPos(pos))
}

// HasVoxel возвращает true, если по позиции лежит не-воздух
func (wm *WorldManager) HasVoxel(pos vec.Vec3) bool {
	return !wm.Voxel(pos).IsAir()
}

// SetVoxel записывает воксель. Незагруженный чанк загружается с
// приоритетом PriorityUrgent, запись ждёт его материализации.
func (wm *WorldManager) SetVoxel(pos vec.Vec3, v voxel.Voxel) error {
	if wm.closed.Load() {
		return voxel.ErrClosed
	}

	cp := ChunkPosOf(pos, ChunkSize)
	if !wm.addressable(cp) {
		if wm.cfg.BoundsPolicy == BoundsReport {
			return fmt.Errorf("запись в %v: %w", pos, voxel.ErrOutOfBounds)
		}
		return nil
	}

	local := LocalPos(pos)
	for attempt := 0; attempt < writeAttempts; attempt++ {
		chunk, err := wm.LoadChunk(cp, PriorityUrgent).Wait(context.Background())
		if err != nil {
			return fmt.Errorf("загрузка чанка %s для записи: %w", cp, err)
		}

		// Таблица удерживается на чтение: выгрузка не может пройти между
		// проверкой принадлежности и записью
		wm.mu.RLock()
		e := wm.chunks[cp]
		if e == nil || e.chunk != chunk {
			wm.mu.RUnlock()
			continue
		}
		chunk.SetVoxel(local, v)
		wm.mu.RUnlock()

		wm.MarkChunkDirty(cp, StateDirtyMesh)
		return nil
	}

	return fmt.Errorf("чанк %s выгружался во время записи %d раз", cp, writeAttempts)
}

// Chunk возвращает резидентный чанк
func (wm *WorldManager) Chunk(cp ChunkPos) (*Chunk, bool) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	e, ok := wm.chunks[cp]
	if !ok {
		return nil, false
	}
	return e.chunk, true
}

// LoadChunk ставит чанк в очередь загрузки. Для резидентного чанка
// возвращает существующий future: на позицию приходится не более одной
// загрузки. Пустой чанк в состоянии StateLoading сразу виден в таблице.
func (wm *WorldManager) LoadChunk(cp ChunkPos, priority Priority) *LoadFuture {
	if wm.closed.Load() {
		return failedFuture(cp, voxel.ErrClosed)
	}
	if !wm.addressable(cp) {
		return failedFuture(cp, fmt.Errorf("чанк %s: %w", cp, voxel.ErrOutOfBounds))
	}

	wm.mu.Lock()
	// Close выставляет флаг до разбора очереди под wm.mu: задача,
	// добавленная после этой проверки, будет завершена в Close
	if wm.closed.Load() {
		wm.mu.Unlock()
		return failedFuture(cp, voxel.ErrClosed)
	}
	if e, ok := wm.chunks[cp]; ok {
		if e.task != nil {
			wm.queue.boost(e.task, priority)
		}
		wm.mu.Unlock()
		return e.future
	}

	if priority < PriorityUrgent && wm.queue.Len() >= wm.cfg.QueueCapacity {
		wm.mu.Unlock()
		return failedFuture(cp, fmt.Errorf("чанк %s: %w", cp, voxel.ErrQueueFull))
	}

	chunk := NewChunk(cp)
	chunk.SetState(StateLoading)
	wm.seq++
	task := &loadTask{
		pos:      cp,
		chunk:    chunk,
		future:   newLoadFuture(cp),
		priority: priority,
		seq:      wm.seq,
		queuedAt: time.Now(),
	}
	heap.Push(&wm.queue, task)
	wm.chunks[cp] = &entry{chunk: chunk, future: task.future, task: task}
	wm.mu.Unlock()

	// Отправка под poolMu: SetLoadingWorkerCount не остановит пул между
	// выбором пула и Submit
	wm.poolMu.Lock()
	wm.pool.Submit(wm.runLoadJob)
	wm.poolMu.Unlock()

	return task.future
}

// runLoadJob извлекает из очереди самую приоритетную задачу
func (wm *WorldManager) runLoadJob() {
	if wm.closed.Load() {
		return
	}

	wm.mu.Lock()
	if wm.queue.Len() == 0 {
		wm.mu.Unlock()
		return
	}
	task := heap.Pop(&wm.queue).(*loadTask)
	if e, ok := wm.chunks[task.pos]; ok && e.task == task {
		e.task = nil
	}
	wm.mu.Unlock()

	wm.materialize(task)
}

// materialize заполняет чанк из октодерева или архива
func (wm *WorldManager) materialize(task *loadTask) {
	start := time.Now()
	_, span := wm.tracer.Start(context.Background(), "world.LoadChunk", trace.WithAttributes(
		attribute.String("chunk", task.pos.String()),
		attribute.String("priority", task.priority.String()),
	))
	defer span.End()

	chunk := task.chunk
	err := wm.readChunk(chunk)
	elapsed := time.Since(start)

	wm.stats.recordLoad(elapsed, err)
	if wm.recorder != nil {
		wm.recorder.ObserveLoad(elapsed, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		wm.logger.Error("Ошибка загрузки чанка %s: %v", task.pos, err)

		wm.mu.Lock()
		if e, ok := wm.chunks[task.pos]; ok && e.chunk == chunk {
			delete(wm.chunks, task.pos)
		}
		wm.mu.Unlock()

		chunk.SetState(StateUnloaded)
		task.future.complete(nil, err)
		return
	}

	if chunk.VoxelCount() > DenseThreshold {
		chunk.Decompress()
	}
	chunk.SetState(StateActive)

	wm.logger.Trace("Чанк %s загружен за %v (в очереди %v)", task.pos, elapsed, start.Sub(task.queuedAt))
	task.future.complete(chunk, nil)
}

func (wm *WorldManager) readChunk(chunk *Chunk) error {
	if wm.octree.LoadChunkData(chunk.Origin(), chunk) {
		return nil
	}
	if wm.archive == nil {
		return nil
	}
	if _, err := wm.archive.LoadChunk(chunk); err != nil {
		if errors.Is(err, voxel.ErrIOFailure) {
			return err
		}
		return fmt.Errorf("%v: %w", err, voxel.ErrIOFailure)
	}
	return nil
}

// writeChunk сбрасывает содержимое чанка в октодерево или архив
func (wm *WorldManager) writeChunk(chunk *Chunk) error {
	if wm.octree.StoreChunkData(chunk.Origin(), chunk) {
		return nil
	}
	if wm.archive == nil {
		return fmt.Errorf("чанк %s вне октодерева, архив не подключён: %w", chunk.Pos(), voxel.ErrOutOfBounds)
	}
	return wm.archive.SaveChunk(chunk)
}

// UnloadChunk сбрасывает чанк на уровень хранения и удаляет его из таблицы.
// Это единственный путь, которым правки становятся долговечными.
// Загружающийся чанк пропускается.
func (wm *WorldManager) UnloadChunk(cp ChunkPos) error {
	_, span := wm.tracer.Start(context.Background(), "world.UnloadChunk",
		trace.WithAttributes(attribute.String("chunk", cp.String())))
	defer span.End()

	// Сброс выполняется под блокировкой таблицы, чтобы повторная загрузка
	// той же позиции не прочитала октодерево до записи
	wm.mu.Lock()
	e, ok := wm.chunks[cp]
	if !ok || e.chunk.State() < StateActive {
		wm.mu.Unlock()
		return nil
	}

	err := wm.writeChunk(e.chunk)
	if err != nil {
		wm.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("выгрузка чанка %s: %w", cp, err)
	}
	delete(wm.chunks, cp)
	wm.mu.Unlock()

	e.chunk.SetState(StateUnloaded)
	if wm.recorder != nil {
		wm.recorder.ObserveUnload()
	}
	wm.logger.Trace("Чанк %s выгружен", cp)
	return nil
}

// UpdateActiveRegion подгружает чанки вокруг игрока и выгружает далёкие.
// Расстояние выгрузки больше расстояния загрузки, чтобы чанки на границе
// не загружались и не выгружались попеременно.
func (wm *WorldManager) UpdateActiveRegion(player vec.Vec3Float, radius float64) {
	wm.mu.Lock()
	wm.focus = player
	loadDist, unloadDist := wm.cfg.LoadDistance, wm.cfg.UnloadDistance
	wm.mu.Unlock()

	r := int32(radius/ChunkSize) + 1
	center := ChunkPosOf(player.Floor(), ChunkSize)

	for dz := -r; dz <= r; dz++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				cp := ChunkPos{X: center.X + dx, Y: center.Y + dy, Z: center.Z + dz}
				if cp.Center().DistanceTo(player) > loadDist || !wm.addressable(cp) {
					continue
				}
				if err := wm.LoadChunk(cp, PriorityNormal).Err(); err != nil && !errors.Is(err, voxel.ErrQueueFull) {
					wm.logger.Warn("Не удалось поставить чанк %s в очередь: %v", cp, err)
				}
			}
		}
	}

	for _, cp := range wm.residentPositions() {
		if cp.Center().DistanceTo(player) <= unloadDist {
			continue
		}
		if err := wm.UnloadChunk(cp); err != nil {
			wm.logger.Error("Не удалось выгрузить чанк %s: %v", cp, err)
		}
	}

	wm.EnforceChunkBudget()
}

func (wm *WorldManager) residentPositions() []ChunkPos {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	out := make([]ChunkPos, 0, len(wm.chunks))
	for cp := range wm.chunks {
		out = append(out, cp)
	}
	return out
}

// MarkChunkDirty поднимает dirty-уровень резидентного чанка
func (wm *WorldManager) MarkChunkDirty(cp ChunkPos, level State) bool {
	chunk, ok := wm.Chunk(cp)
	if !ok {
		return false
	}

	chunk.MarkDirty(level)
	wm.notify(cp, chunk.State())
	return true
}

// DirtyChunks возвращает отсортированный список чанков с уровнем не ниже minLevel
func (wm *WorldManager) DirtyChunks(minLevel State) []ChunkPos {
	if minLevel < StateDirtyMesh {
		minLevel = StateDirtyMesh
	}

	wm.mu.RLock()
	out := make([]ChunkPos, 0)
	for cp, e := range wm.chunks {
		if e.chunk.State() >= minLevel {
			out = append(out, cp)
		}
	}
	wm.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// ClearDirtyFlag возвращает чанк в StateActive
func (wm *WorldManager) ClearDirtyFlag(cp ChunkPos) bool {
	chunk, ok := wm.Chunk(cp)
	if !ok {
		return false
	}

	chunk.ClearDirty()
	wm.notify(cp, chunk.State())
	return true
}

func (wm *WorldManager) notify(cp ChunkPos, level State) {
	if wm.notifier != nil {
		wm.notifier.NotifyDirty(cp, level)
	}
}

// cleanByDistance возвращает чистые активные чанки, самые далёкие от игрока первыми
func (wm *WorldManager) cleanByDistance() []ChunkPos {
	wm.mu.RLock()
	focus := wm.focus
	out := make([]ChunkPos, 0, len(wm.chunks))
	for cp, e := range wm.chunks {
		if e.chunk.State() == StateActive {
			out = append(out, cp)
		}
	}
	wm.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Center().DistanceTo(focus), out[j].Center().DistanceTo(focus)
		if di != dj {
			return di > dj
		}
		return out[i].Less(out[j])
	})
	return out
}

// GarbageCollect выгружает половину чистых активных чанков, начиная с самых далёких
func (wm *WorldManager) GarbageCollect() int {
	candidates := wm.cleanByDistance()
	return wm.unloadAll(candidates[:len(candidates)/2])
}

// EnforceChunkBudget выгружает самые далёкие чистые чанки сверх MaxActiveChunks
func (wm *WorldManager) EnforceChunkBudget() int {
	wm.mu.RLock()
	excess := len(wm.chunks) - wm.cfg.MaxActiveChunks
	wm.mu.RUnlock()

	if excess <= 0 {
		return 0
	}

	candidates := wm.cleanByDistance()
	if excess < len(candidates) {
		candidates = candidates[:excess]
	}
	return wm.unloadAll(candidates)
}

func (wm *WorldManager) unloadAll(positions []ChunkPos) int {
	unloaded := 0
	for _, cp := range positions {
		if err := wm.UnloadChunk(cp); err != nil {
			wm.logger.Error("Не удалось выгрузить чанк %s: %v", cp, err)
			continue
		}
		unloaded++
	}
	return unloaded
}

// CompressInactiveChunks переводит все активные чанки в разреженный режим
func (wm *WorldManager) CompressInactiveChunks() {
	wm.mu.RLock()
	chunks := make([]*Chunk, 0, len(wm.chunks))
	for _, e := range wm.chunks {
		chunks = append(chunks, e.chunk)
	}
	wm.mu.RUnlock()

	for _, c := range chunks {
		if c.State() >= StateActive {
			c.Compress()
		}
	}
}

// SetVoxelBulk выполняет записи по одной с той же семантикой, что SetVoxel.
// Ошибки отдельных элементов объединяются.
func (wm *WorldManager) SetVoxelBulk(writes []VoxelWrite) error {
	var errs []error
	for _, w := range writes {
		if err := wm.SetVoxel(w.Pos, w.Voxel); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// VoxelBulk читает воксели по одному с той же семантикой, что Voxel
func (wm *WorldManager) VoxelBulk(positions []vec.Vec3) []voxel.Voxel {
	out := make([]voxel.Voxel, len(positions))
	for i, p := range positions {
		out[i] = wm.Voxel(p)
	}
	return out
}

// SaveWorld сбрасывает резидентные чанки в октодерево, оптимизирует его
// и записывает в файл. Чанки остаются в памяти.
func (wm *WorldManager) SaveWorld(path string) error {
	_, span := wm.tracer.Start(context.Background(), "world.SaveWorld",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	start := time.Now()

	wm.mu.RLock()
	chunks := make([]*Chunk, 0, len(wm.chunks))
	for _, e := range wm.chunks {
		if e.chunk.State() >= StateActive {
			chunks = append(chunks, e.chunk)
		}
	}
	wm.mu.RUnlock()

	for _, c := range chunks {
		if err := wm.writeChunk(c); err != nil {
			span.RecordError(err)
			return fmt.Errorf("сохранение чанка %s: %w", c.Pos(), err)
		}
	}

	wm.octree.Optimize()
	if err := wm.octree.SaveToFile(path); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int("chunks", len(chunks)), attribute.Int("nodes", wm.octree.NodeCount()))
	wm.logger.Info("💾 Мир сохранён в %s: %d чанков, %d узлов, %v",
		path, len(chunks), wm.octree.NodeCount(), time.Since(start))
	return nil
}

// LoadWorld заменяет октодерево содержимым файла. Чистые резидентные чанки
// удаляются из таблицы и материализуются заново при обращении; грязные остаются.
func (wm *WorldManager) LoadWorld(path string) error {
	_, span := wm.tracer.Start(context.Background(), "world.LoadWorld",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	fresh, err := svo.ReadFile(path)
	if err == nil && fresh.MaxDepth() < svo.ChunkLevel {
		err = fmt.Errorf("глубина октодерева %d в %s меньше уровня чанка %d: %w",
			fresh.MaxDepth(), path, svo.ChunkLevel, voxel.ErrOutOfRange)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	wm.octree.Replace(fresh)

	dropped := 0
	wm.mu.Lock()
	for cp, e := range wm.chunks {
		if e.chunk.State() == StateActive {
			delete(wm.chunks, cp)
			dropped++
		}
	}
	wm.mu.Unlock()

	wm.logger.Info("📂 Мир загружен из %s: глубина %d, узлов %d, сброшено чанков %d",
		path, wm.octree.MaxDepth(), wm.octree.NodeCount(), dropped)
	return nil
}

// Statistics возвращает снимок статистики
func (wm *WorldManager) Statistics() Statistics {
	var st Statistics

	wm.mu.RLock()
	st.PendingLoads = wm.queue.Len()
	chunks := make([]*Chunk, 0, len(wm.chunks))
	for _, e := range wm.chunks {
		chunks = append(chunks, e.chunk)
	}
	wm.mu.RUnlock()

	for _, c := range chunks {
		if c.State() >= StateActive {
			st.ActiveChunks++
		}
		st.MemoryUsage += c.MemoryUsage()
	}
	st.MemoryUsage += wm.octree.MemoryUsage()

	wm.stats.fill(&st)
	return st
}

// Update выполняет периодическое обслуживание: бюджет чанков и метрики
func (wm *WorldManager) Update() Statistics {
	if evicted := wm.EnforceChunkBudget(); evicted > 0 {
		wm.logger.Debug("Бюджет чанков: выгружено %d", evicted)
	}

	st := wm.Statistics()
	if wm.recorder != nil {
		wm.recorder.ObserveStats(st)
	}
	return st
}

// SetMaxActiveChunks меняет бюджет резидентных чанков
func (wm *WorldManager) SetMaxActiveChunks(n int) {
	if n <= 0 {
		return
	}
	wm.mu.Lock()
	wm.cfg.MaxActiveChunks = n
	wm.mu.Unlock()
}

// SetLoadingWorkerCount пересоздаёт пул загрузчиков. Задачи старого пула
// дорабатывают до конца: каждая из них берёт задачу из общей очереди.
func (wm *WorldManager) SetLoadingWorkerCount(n int) {
	if n <= 0 {
		return
	}

	wm.poolMu.Lock()
	if wm.closed.Load() {
		wm.poolMu.Unlock()
		return
	}
	old := wm.pool
	wm.pool = pond.NewPool(n)
	wm.poolMu.Unlock()

	wm.mu.Lock()
	wm.cfg.LoadingThreads = n
	wm.mu.Unlock()

	old.StopAndWait()
	wm.logger.Info("Пул загрузчиков изменён: %d", n)
}

// Close останавливает пул загрузчиков. Задачи, оставшиеся в очереди,
// завершаются с voxel.ErrClosed. Резидентные чанки не сбрасываются:
// для сохранения вызывайте SaveWorld до Close.
func (wm *WorldManager) Close() {
	if !wm.closed.CompareAndSwap(false, true) {
		return
	}

	wm.poolMu.Lock()
	pool := wm.pool
	wm.poolMu.Unlock()
	pool.StopAndWait()

	wm.mu.Lock()
	var failed []*loadTask
	for wm.queue.Len() > 0 {
		task := heap.Pop(&wm.queue).(*loadTask)
		if e, ok := wm.chunks[task.pos]; ok && e.chunk == task.chunk {
			delete(wm.chunks, task.pos)
		}
		failed = append(failed, task)
	}
	wm.mu.Unlock()

	for _, task := range failed {
		task.chunk.SetState(StateUnloaded)
		task.future.complete(nil, voxel.ErrClosed)
	}
	wm.logger.Info("Менеджер мира %s остановлен, отменено загрузок: %d", wm.id, len(failed))
}
