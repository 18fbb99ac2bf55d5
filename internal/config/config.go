package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/annel0/voxelworld/internal/world"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Generator GeneratorConfig `yaml:"generator"`
}

type WorldConfig struct {
	MaxActiveChunks int     `yaml:"max_active_chunks"`
	LoadDistance    float64 `yaml:"load_distance"`
	UnloadDistance  float64 `yaml:"unload_distance"`
	LoadingThreads  int     `yaml:"loading_threads"`
	OctreeDepth     int     `yaml:"octree_depth"`
	QueueCapacity   int     `yaml:"queue_capacity"`
	BoundsPolicy    string  `yaml:"bounds_policy"` // silent | report
	UpdateInterval  int     `yaml:"update_interval_seconds"`
}

type StorageConfig struct {
	DataPath      string `yaml:"data_path"`
	WorldFile     string `yaml:"world_file"`
	UseArchive    bool   `yaml:"use_archive"`
	Backend       string `yaml:"backend"` // badger | redis | maria
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	MariaDSN      string `yaml:"maria_dsn"`
	SaveInterval  int    `yaml:"save_interval_seconds"` // 0 - только при остановке
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // Пусто - in-memory шина
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type LoggingConfig struct {
	Dir          string `yaml:"dir"` // Пусто - только консоль
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

type GeneratorConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Seed       int64   `yaml:"seed"`
	Radius     float64 `yaml:"radius"`
	SeaLevel   float64 `yaml:"sea_level"`
	CoreRadius float64 `yaml:"core_radius"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	wc := world.DefaultConfig()
	return &Config{
		World: WorldConfig{
			MaxActiveChunks: wc.MaxActiveChunks,
			LoadDistance:    wc.LoadDistance,
			UnloadDistance:  wc.UnloadDistance,
			LoadingThreads:  wc.LoadingThreads,
			OctreeDepth:     wc.OctreeDepth,
			QueueCapacity:   wc.QueueCapacity,
			BoundsPolicy:    wc.BoundsPolicy.String(),
			UpdateInterval:  1,
		},
		Storage: StorageConfig{
			DataPath:   "data",
			WorldFile:  "world.svo",
			UseArchive: true,
			Backend:    "badger",
		},
		EventBus: EventBusConfig{
			Stream:    "VOXEL",
			Retention: 24,
			Buffer:    1024,
		},
		Logging: LoggingConfig{
			ConsoleLevel: "INFO",
			FileLevel:    "DEBUG",
		},
		Generator: GeneratorConfig{
			Seed:       1,
			Radius:     200,
			SeaLevel:   190,
			CoreRadius: 40,
		},
	}
}

// ManagerConfig переводит секцию world в параметры менеджера
func (w WorldConfig) ManagerConfig() (world.Config, error) {
	policy, err := world.ParseBoundsPolicy(w.BoundsPolicy)
	if err != nil {
		return world.Config{}, err
	}
	return world.Config{
		MaxActiveChunks: w.MaxActiveChunks,
		LoadDistance:    w.LoadDistance,
		UnloadDistance:  w.UnloadDistance,
		LoadingThreads:  getIntWithEnvFallback(w.LoadingThreads, "VOXEL_LOADING_THREADS", 4),
		OctreeDepth:     w.OctreeDepth,
		QueueCapacity:   w.QueueCapacity,
		BoundsPolicy:    policy,
	}, nil
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getIntWithEnvFallback(s.RESTPort, "VOXEL_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getIntWithEnvFallback(s.MetricsPort, "VOXEL_METRICS_PORT", 2112)
}

// GetURL возвращает адрес NATS: config -> env NATS_URL -> пусто (in-memory)
func (e *EventBusConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	return os.Getenv("NATS_URL")
}

// GetRedisAddr возвращает адрес Redis: config -> env REDIS_ADDR -> localhost:6379
func (s *StorageConfig) GetRedisAddr() string {
	if s.RedisAddr != "" {
		return s.RedisAddr
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// GetMariaDSN возвращает DSN MariaDB: config -> env MARIA_DSN
func (s *StorageConfig) GetMariaDSN() string {
	if s.MariaDSN != "" {
		return s.MariaDSN
	}
	return os.Getenv("MARIA_DSN")
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	// Если значение задано в конфиге и больше 0, используем его
	if configValue > 0 {
		return configValue
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	// Используем дефолтное значение
	return defaultValue
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG или возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан - использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if _, err := world.ParseBoundsPolicy(cfg.World.BoundsPolicy); err != nil {
		return nil, err
	}
	switch cfg.Storage.Backend {
	case "", "badger", "redis", "maria":
	default:
		return nil, fmt.Errorf("неизвестный бэкенд архива %q", cfg.Storage.Backend)
	}
	return cfg, nil
}
