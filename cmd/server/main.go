package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/annel0/voxelworld/internal/api"
	"github.com/annel0/voxelworld/internal/config"
	"github.com/annel0/voxelworld/internal/eventbus"
	"github.com/annel0/voxelworld/internal/generator"
	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/metrics"
	"github.com/annel0/voxelworld/internal/observability"
	"github.com/annel0/voxelworld/internal/storage"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
)

func main() {
	configPath := flag.String("config", "", "Путь к YAML конфигурации (по умолчанию $VOXEL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	consoleLevel, _ := logging.ParseLevel(cfg.Logging.ConsoleLevel)
	fileLevel, _ := logging.ParseLevel(cfg.Logging.FileLevel)
	logging.Configure(cfg.Logging.Dir, consoleLevel, fileLevel)

	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🪐 Запуск сервера воксельного мира...")

	// === ТРАССИРОВКА ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(context.Background(), "voxelworld", cfg.Telemetry.Endpoint, cfg.Telemetry.Insecure)
		if err != nil {
			logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Error("Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	// === ШИНА СОБЫТИЙ ===
	bus, err := openBus(cfg.EventBus)
	if err != nil {
		log.Fatalf("❌ Ошибка подключения к шине событий: %v", err)
	}
	defer bus.Close()
	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Error("Ошибка подписки LoggingListener: %v", err)
	}

	collector := metrics.NewCollector()
	busMetrics := eventbus.NewMetricsExporter(bus, collector.Registry())
	busMetrics.Start(time.Second)
	defer busMetrics.Stop()

	// === МЕНЕДЖЕР МИРА ===
	managerCfg, err := cfg.World.ManagerConfig()
	if err != nil {
		log.Fatalf("❌ Неверная секция world: %v", err)
	}

	notifier := eventbus.NewChunkNotifier(bus, "")
	opts := []world.Option{world.WithNotifier(notifier), world.WithRecorder(collector)}

	if cfg.Storage.UseArchive {
		archive, err := storage.Open(storage.Options{
			Backend:  cfg.Storage.Backend,
			DataPath: cfg.Storage.DataPath,
			Redis: &storage.RedisConfig{
				Addr:      cfg.Storage.GetRedisAddr(),
				Password:  cfg.Storage.RedisPassword,
				DB:        cfg.Storage.RedisDB,
				KeyPrefix: "voxel:chunk:",
				Timeout:   2 * time.Second,
			},
			MariaDSN: cfg.Storage.GetMariaDSN(),
		})
		if err != nil {
			log.Fatalf("❌ Ошибка открытия архива чанков: %v", err)
		}
		defer archive.Close()
		opts = append(opts, world.WithArchive(archive))
	}

	wm, err := world.NewWorldManager(managerCfg, opts...)
	if err != nil {
		log.Fatalf("❌ Ошибка создания менеджера мира: %v", err)
	}
	notifier.SetSource(wm.ID())

	worldFile := filepath.Join(cfg.Storage.DataPath, cfg.Storage.WorldFile)
	if _, err := os.Stat(worldFile); err == nil {
		if err := wm.LoadWorld(worldFile); err != nil {
			log.Fatalf("❌ Ошибка загрузки мира: %v", err)
		}
	} else if cfg.Generator.Enabled {
		if err := generate(wm, cfg.Generator); err != nil {
			logging.Error("❌ Ошибка генерации планеты: %v", err)
		}
	}

	// === HTTP ===
	restServer := api.NewRestServer(api.Config{
		Port:      fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		World:     wm,
		Collector: collector,
		WorldFile: worldFile,
	})
	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ Ошибка REST API: %v", err)
		}
	}()

	metricsAddr := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())
	metricsServer := &http.Server{Addr: metricsAddr, Handler: collector.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()

	// === ОБСЛУЖИВАНИЕ ===
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go maintain(ctx, wm, cfg, worldFile, done)

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost:%d", cfg.Server.GetRESTPort())
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetRESTPort())

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	cancel()
	<-done

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("Ошибка остановки сервера метрик: %v", err)
	}

	if err := wm.SaveWorld(worldFile); err != nil {
		logging.Error("❌ Мир не сохранён: %v", err)
	}
	wm.Close()

	logging.Info("👋 Сервер успешно остановлен")
}

// openBus выбирает NATS JetStream при заданном URL, иначе in-memory шину
func openBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	url := cfg.GetURL()
	if url == "" {
		logging.Info("🚌 Шина событий: in-memory (буфер %d)", cfg.Buffer)
		return eventbus.NewMemoryBus(cfg.Buffer), nil
	}

	bus, err := eventbus.NewNATSBus(url, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, err
	}
	logging.Info("🚌 Шина событий: NATS %s, стрим %s", url, cfg.Stream)
	return bus, nil
}

// generate заполняет пустой мир планетой
func generate(wm *world.WorldManager, cfg config.GeneratorConfig) error {
	size := float64(wm.Octree().WorldSize())
	center := vec.Vec3Float{X: size / 2, Y: size / 2, Z: size / 2}

	g := generator.NewPlanetGenerator(generator.Planet{
		Center:     center,
		Radius:     cfg.Radius,
		SeaLevel:   cfg.SeaLevel,
		CoreRadius: cfg.CoreRadius,
	}, generator.DefaultSettings(cfg.Seed))

	return g.GeneratePlanet(context.Background(), wm)
}

// maintain периодически обновляет статистику и сохраняет мир
func maintain(ctx context.Context, wm *world.WorldManager, cfg *config.Config, worldFile string, done chan<- struct{}) {
	defer close(done)

	interval := time.Duration(cfg.World.UpdateInterval) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var saveCh <-chan time.Time
	if cfg.Storage.SaveInterval > 0 {
		saveTicker := time.NewTicker(time.Duration(cfg.Storage.SaveInterval) * time.Second)
		defer saveTicker.Stop()
		saveCh = saveTicker.C
	}

	for {
		select {
		case <-ticker.C:
			wm.Update()
		case <-saveCh:
			if err := wm.SaveWorld(worldFile); err != nil {
				logging.Error("❌ Периодическое сохранение мира: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
