package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelworld/internal/world"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaultsWithoutPath(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "silent", cfg.World.BoundsPolicy)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
world:
  max_active_chunks: 64
  octree_depth: 12
  bounds_policy: report
storage:
  data_path: /tmp/voxel
eventbus:
  url: nats://nats:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.World.MaxActiveChunks)
	assert.Equal(t, "/tmp/voxel", cfg.Storage.DataPath)
	assert.Equal(t, "world.svo", cfg.Storage.WorldFile, "Незаданные поля сохраняют значения по умолчанию")
	assert.Equal(t, "nats://nats:4222", cfg.EventBus.GetURL())

	mc, err := cfg.World.ManagerConfig()
	require.NoError(t, err)
	assert.Equal(t, 12, mc.OctreeDepth)
	assert.Equal(t, world.BoundsReport, mc.BoundsPolicy)
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "server:\n  rest_port: 9000\n")
	t.Setenv("VOXEL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.GetRESTPort())
}

func TestLoadRejectsBadInput(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "world: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "world:\n  bounds_policy: clamp\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "storage:\n  backend: mongo\n"))
	assert.Error(t, err, "Неизвестный бэкенд архива должен отклоняться")
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("VOXEL_METRICS_PORT", "9100")
	t.Setenv("VOXEL_REST_PORT", "не число")
	t.Setenv("NATS_URL", "nats://env:4222")

	var s ServerConfig
	assert.Equal(t, 9100, s.GetMetricsPort())
	assert.Equal(t, 8088, s.GetRESTPort())

	var e EventBusConfig
	assert.Equal(t, "nats://env:4222", e.GetURL())
}

func TestStorageBackendFallbacks(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("MARIA_DSN", "voxel:voxel@tcp(db:3306)/voxel")

	var s StorageConfig
	assert.Equal(t, "localhost:6379", s.GetRedisAddr())
	assert.Equal(t, "voxel:voxel@tcp(db:3306)/voxel", s.GetMariaDSN())

	t.Setenv("REDIS_ADDR", "redis:6379")
	assert.Equal(t, "redis:6379", s.GetRedisAddr())

	s.RedisAddr = "cache:6380"
	assert.Equal(t, "cache:6380", s.GetRedisAddr(), "Значение из конфига важнее окружения")
}
