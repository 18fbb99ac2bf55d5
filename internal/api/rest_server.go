package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/metrics"
	"github.com/annel0/voxelworld/internal/middleware"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/annel0/voxelworld/internal/world"
)

// loadWaitTimeout ограничивает ожидание загрузки чанка в запросе
const loadWaitTimeout = 10 * time.Second

// RestServer представляет административный REST API мира
type RestServer struct {
	router     *gin.Engine
	httpServer *http.Server
	world      *world.WorldManager
	collector  *metrics.Collector
	worldFile  string
	port       string
	logger     *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port      string              // порт для запуска сервера
	World     *world.WorldManager // менеджер мира
	Collector *metrics.Collector  // метрики; nil - без /metrics
	WorldFile string              // файл для POST /api/world/save
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("voxel_api"))
	router.Use(middleware.NewRequestLogger().Handler())

	if config.Collector != nil {
		promMw := middleware.NewPrometheusMiddleware("voxel_api", config.Collector.Registry())
		router.Use(promMw.Handler())
		promMw.RegisterMetricsEndpoint(router, config.Collector.Handler())
	}

	server := &RestServer{
		router:    router,
		world:     config.World,
		collector: config.Collector,
		worldFile: config.WorldFile,
		port:      config.Port,
		logger:    logging.GetAPILogger(),
	}
	server.httpServer = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/materials", rs.handleMaterials)

		api.GET("/voxel", rs.handleGetVoxel)
		api.PUT("/voxel", rs.handleSetVoxel)
		api.POST("/voxels/bulk", rs.handleSetVoxelBulk)

		api.GET("/chunks/dirty", rs.handleDirtyChunks)
		api.GET("/chunks/:x/:y/:z", rs.handleGetChunk)
		api.POST("/chunks/:x/:y/:z/load", rs.handleLoadChunk)
		api.POST("/chunks/:x/:y/:z/unload", rs.handleUnloadChunk)
		api.DELETE("/chunks/:x/:y/:z/dirty", rs.handleClearDirty)

		api.POST("/world/save", rs.handleSaveWorld)
		api.POST("/world/gc", rs.handleGarbageCollect)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// Handler возвращает http.Handler роутера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// VoxelDTO - воксель в JSON-представлении
type VoxelDTO struct {
	X        int32 `json:"x"`
	Y        int32 `json:"y"`
	Z        int32 `json:"z"`
	Material uint8 `json:"material"`
	Health   uint8 `json:"health"`
	Flags    uint8 `json:"flags"`
	Support  uint8 `json:"support"`
}

func toDTO(pos vec.Vec3, v voxel.Voxel) VoxelDTO {
	return VoxelDTO{
		X:        pos.X,
		Y:        pos.Y,
		Z:        pos.Z,
		Material: v.Material,
		Health:   v.Health,
		Flags:    uint8(v.Flags),
		Support:  v.StructuralSupport,
	}
}

func (d VoxelDTO) write() world.VoxelWrite {
	return world.VoxelWrite{
		Pos: vec.Vec3{X: d.X, Y: d.Y, Z: d.Z},
		Voxel: voxel.Voxel{
			Material:          d.Material,
			Health:            d.Health,
			Flags:             voxel.Flags(d.Flags),
			StructuralSupport: d.Support,
		},
	}
}

// statusFor переводит ошибки мира в HTTP-коды
func statusFor(err error) int {
	switch {
	case errors.Is(err, voxel.ErrOutOfBounds), errors.Is(err, voxel.ErrOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, voxel.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, voxel.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (rs *RestServer) fail(c *gin.Context, status int, message string) {
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

func queryInt32(c *gin.Context, key string) (int32, error) {
	v, err := strconv.ParseInt(c.Query(key), 10, 32)
	return int32(v), err
}

func paramChunk(c *gin.Context) (world.ChunkPos, bool) {
	var cp world.ChunkPos
	for _, p := range []struct {
		name string
		dst  *int32
	}{{"x", &cp.X}, {"y", &cp.Y}, {"z", &cp.Z}} {
		v, err := strconv.ParseInt(c.Param(p.name), 10, 32)
		if err != nil {
			return cp, false
		}
		*p.dst = int32(v)
	}
	return cp, true
}

func parsePriority(name string) (world.Priority, bool) {
	switch name {
	case "low":
		return world.PriorityLow, true
	case "", "normal":
		return world.PriorityNormal, true
	case "high":
		return world.PriorityHigh, true
	case "urgent":
		return world.PriorityUrgent, true
	default:
		return world.PriorityNormal, false
	}
}

// handleHealth отвечает на проверку живости
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"world":  rs.world.ID(),
		"time":   time.Now().Unix(),
	})
}

// handleStats возвращает статистику мира и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := map[string]interface{}{
		"world": rs.world.Statistics(),
	}

	if rs.collector != nil {
		proc := rs.collector.Process()
		server := map[string]interface{}{
			"uptime":      proc.Uptime(),
			"server_time": time.Now().Unix(),
		}
		if rss, err := proc.RSS(); err == nil {
			server["rss_bytes"] = rss
		}
		stats["server"] = server
		stats["memory_details"] = proc.MemoryStats()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleMaterials возвращает палитру материалов
func (rs *RestServer) handleMaterials(c *gin.Context) {
	palette := rs.world.Palette()
	out := make([]gin.H, 0, palette.Count())
	for id := 0; id < palette.Count(); id++ {
		m, err := palette.Material(uint8(id))
		if err != nil {
			break
		}
		out = append(out, gin.H{
			"id":        id,
			"name":      m.Name,
			"density":   m.Density,
			"hardness":  m.Hardness,
			"liquid":    m.Liquid,
			"flammable": m.Flammable,
		})
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Палитра получена", Data: out})
}

// handleGetVoxel читает воксель; незагруженный чанк читается как воздух
func (rs *RestServer) handleGetVoxel(c *gin.Context) {
	x, errX := queryInt32(c, "x")
	y, errY := queryInt32(c, "y")
	z, errZ := queryInt32(c, "z")
	if errX != nil || errY != nil || errZ != nil {
		rs.fail(c, http.StatusBadRequest, "Нужны целые параметры x, y, z")
		return
	}

	pos := vec.Vec3{X: x, Y: y, Z: z}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Воксель прочитан", Data: toDTO(pos, rs.world.Voxel(pos))})
}

// handleSetVoxel записывает один воксель
func (rs *RestServer) handleSetVoxel(c *gin.Context) {
	var req VoxelDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	w := req.write()
	if err := rs.world.SetVoxel(w.Pos, w.Voxel); err != nil {
		rs.logger.Warn("Запись вокселя %v отклонена: %v", w.Pos, err)
		rs.fail(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Воксель записан", Data: toDTO(w.Pos, rs.world.Voxel(w.Pos))})
}

// handleSetVoxelBulk записывает набор вокселей
func (rs *RestServer) handleSetVoxelBulk(c *gin.Context) {
	var req []VoxelDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	writes := make([]world.VoxelWrite, len(req))
	for i, d := range req {
		writes[i] = d.write()
	}
	if err := rs.world.SetVoxelBulk(writes); err != nil {
		rs.fail(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Записано вокселей: " + strconv.Itoa(len(writes))})
}

// handleDirtyChunks возвращает грязные чанки не ниже уровня min_level
func (rs *RestServer) handleDirtyChunks(c *gin.Context) {
	level := world.StateDirtyMesh
	if name := c.Query("min_level"); name != "" {
		parsed, ok := world.ParseState(name)
		if !ok {
			rs.fail(c, http.StatusBadRequest, "Неизвестный уровень "+name)
			return
		}
		level = parsed
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Грязные чанки", Data: rs.world.DirtyChunks(level)})
}

// handleGetChunk описывает резидентный чанк
func (rs *RestServer) handleGetChunk(c *gin.Context) {
	cp, ok := paramChunk(c)
	if !ok {
		rs.fail(c, http.StatusBadRequest, "Неверные координаты чанка")
		return
	}

	chunk, resident := rs.world.Chunk(cp)
	if !resident {
		rs.fail(c, http.StatusNotFound, "Чанк "+cp.String()+" не загружен")
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Чанк найден", Data: gin.H{
		"pos":          cp,
		"state":        chunk.State(),
		"voxels":       chunk.VoxelCount(),
		"dense":        chunk.IsDense(),
		"memory_bytes": chunk.MemoryUsage(),
	}})
}

// handleLoadChunk ставит чанк в очередь и ждёт материализации
func (rs *RestServer) handleLoadChunk(c *gin.Context) {
	cp, ok := paramChunk(c)
	if !ok {
		rs.fail(c, http.StatusBadRequest, "Неверные координаты чанка")
		return
	}
	priority, ok := parsePriority(c.Query("priority"))
	if !ok {
		rs.fail(c, http.StatusBadRequest, "Неизвестный приоритет")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), loadWaitTimeout)
	defer cancel()

	chunk, err := rs.world.LoadChunk(cp, priority).Wait(ctx)
	if err != nil {
		rs.fail(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Чанк загружен", Data: gin.H{
		"pos":    cp,
		"state":  chunk.State(),
		"voxels": chunk.VoxelCount(),
	}})
}

// handleUnloadChunk сбрасывает чанк на уровень хранения
func (rs *RestServer) handleUnloadChunk(c *gin.Context) {
	cp, ok := paramChunk(c)
	if !ok {
		rs.fail(c, http.StatusBadRequest, "Неверные координаты чанка")
		return
	}
	if err := rs.world.UnloadChunk(cp); err != nil {
		rs.fail(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Чанк выгружен"})
}

// handleClearDirty снимает dirty-флаг (потребитель обработал изменения)
func (rs *RestServer) handleClearDirty(c *gin.Context) {
	cp, ok := paramChunk(c)
	if !ok {
		rs.fail(c, http.StatusBadRequest, "Неверные координаты чанка")
		return
	}
	if !rs.world.ClearDirtyFlag(cp) {
		rs.fail(c, http.StatusNotFound, "Чанк "+cp.String()+" не загружен")
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Флаг снят"})
}

// handleSaveWorld сохраняет мир в файл
func (rs *RestServer) handleSaveWorld(c *gin.Context) {
	if rs.worldFile == "" {
		rs.fail(c, http.StatusConflict, "Файл мира не настроен")
		return
	}
	if err := rs.world.SaveWorld(rs.worldFile); err != nil {
		rs.logger.Error("Ошибка сохранения мира: %v", err)
		rs.fail(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Мир сохранён", Data: rs.world.Statistics()})
}

// handleGarbageCollect выгружает половину чистых чанков
func (rs *RestServer) handleGarbageCollect(c *gin.Context) {
	unloaded := rs.world.GarbageCollect()
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Сборка выполнена", Data: gin.H{"unloaded": unloaded}})
}

// Start запускает HTTP сервер (блокирующий вызов)
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.port)

	err := rs.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop корректно останавливает HTTP сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.httpServer.Shutdown(ctx)
}
