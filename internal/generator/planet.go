package generator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/annel0/voxelworld/internal/world"
)

// Параметры шума Перлина
const (
	noiseAlpha   = 2.0 // Сглаживание шума
	noiseBeta    = 2.0 // Частота шума
	noiseOctaves = 3   // Количество октав
)

// Planet описывает форму планеты
type Planet struct {
	Center     vec.Vec3Float
	Radius     float64 // Радиус поверхности без рельефа
	SeaLevel   float64 // Радиус уровня моря; 0 - без океана
	CoreRadius float64 // Радиус лавового ядра; 0 - без ядра
}

// Settings - параметры генерации
type Settings struct {
	Seed            int64
	NoiseScale      float64 // Масштаб шума рельефа
	Amplitude       float64 // Высота рельефа в вокселях
	SurfaceDepth    float64 // Толщина слоя травы
	SubsurfaceDepth float64 // Глубина, до которой лежит земля
	CaveScale       float64 // Масштаб шума пещер
	CaveThreshold   float64 // Порог шума пещер; 0 отключает пещеры
	CoalDensity     float64 // Доля угля в камне (от 0 до 1)
}

// DefaultSettings возвращает параметры по умолчанию
func DefaultSettings(seed int64) Settings {
	return Settings{
		Seed:            seed,
		NoiseScale:      0.02,
		Amplitude:       12,
		SurfaceDepth:    3,
		SubsurfaceDepth: 10,
		CaveScale:       0.05,
		CaveThreshold:   0.35,
		CoalDensity:     0.01,
	}
}

// VoxelWriter принимает сгенерированные воксели
type VoxelWriter interface {
	SetVoxelBulk(writes []world.VoxelWrite) error
}

// Stats - статистика генерации
type Stats struct {
	ChunksGenerated int           `json:"chunks_generated"`
	VoxelsWritten   int           `json:"voxels_written"`
	TotalTime       time.Duration `json:"total_time"`
}

// PlanetGenerator заполняет мир по полю плотности: плотность > 0 означает
// твёрдый воксель, материал выбирается по глубине под поверхностью.
type PlanetGenerator struct {
	planet   Planet
	settings Settings
	terrain  *perlin.Perlin
	caves    *perlin.Perlin
	logger   *logging.Logger

	mu    sync.Mutex
	stats Stats
}

// NewPlanetGenerator создаёт генератор планеты
func NewPlanetGenerator(planet Planet, settings Settings) *PlanetGenerator {
	return &PlanetGenerator{
		planet:   planet,
		settings: settings,
		terrain:  perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, settings.Seed),
		caves:    perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, settings.Seed+1),
		logger:   logging.GetComponentLogger(logging.ComponentGenerator),
	}
}

// Density возвращает плотность в точке: расстояние до поверхности
// с учётом рельефа, положительное внутри планеты
func (g *PlanetGenerator) Density(p vec.Vec3Float) float64 {
	dist := p.DistanceTo(g.planet.Center)
	density := g.planet.Radius - dist
	if g.settings.Amplitude != 0 {
		s := g.settings.NoiseScale
		density += g.settings.Amplitude * g.terrain.Noise3D(p.X*s, p.Y*s, p.Z*s)
	}
	return density
}

// MaterialAt выбирает материал для точки с заданной плотностью
func (g *PlanetGenerator) MaterialAt(p vec.Vec3Float, density float64, rng *rand.Rand) uint8 {
	dist := p.DistanceTo(g.planet.Center)

	if density <= 0 {
		if dist <= g.planet.SeaLevel {
			return voxel.MaterialWater
		}
		return voxel.MaterialAir
	}

	switch {
	case dist < g.planet.CoreRadius:
		return voxel.MaterialLava
	case density <= g.settings.SurfaceDepth:
		if dist <= g.planet.SeaLevel {
			return voxel.MaterialSand // Дно океана
		}
		return voxel.MaterialGrass
	case density <= g.settings.SubsurfaceDepth:
		return voxel.MaterialDirt
	}

	if g.isCave(p) {
		return voxel.MaterialAir
	}
	if rng != nil && rng.Float64() < g.settings.CoalDensity {
		return voxel.MaterialCoal
	}
	return voxel.MaterialStone
}

func (g *PlanetGenerator) isCave(p vec.Vec3Float) bool {
	if g.settings.CaveThreshold <= 0 {
		return false
	}
	s := g.settings.CaveScale
	return g.caves.Noise3D(p.X*s, p.Y*s, p.Z*s) > g.settings.CaveThreshold
}

// GenerateChunk возвращает записи для всех не-воздушных вокселей чанка
func (g *PlanetGenerator) GenerateChunk(cp world.ChunkPos) []world.VoxelWrite {
	// Детерминированный генератор для каждого чанка на основе сида и координат
	chunkSeed := g.settings.Seed + int64(cp.X)*31 + int64(cp.Y)*17 + int64(cp.Z)*13
	rng := rand.New(rand.NewSource(chunkSeed))

	origin := cp.ToVoxelPos(world.ChunkSize)
	var writes []world.VoxelWrite

	for z := int32(0); z < world.ChunkSize; z++ {
		for y := int32(0); y < world.ChunkSize; y++ {
			for x := int32(0); x < world.ChunkSize; x++ {
				pos := origin.Add(vec.Vec3{X: x, Y: y, Z: z})
				p := pos.ToFloat()

				material := g.MaterialAt(p, g.Density(p), rng)
				if material == voxel.MaterialAir {
					continue
				}
				writes = append(writes, world.VoxelWrite{Pos: pos, Voxel: voxel.New(material, voxel.HealthIndestructible)})
			}
		}
	}
	return writes
}

// chunkIntersects отбрасывает чанки, целиком лежащие вне планеты и океана
func (g *PlanetGenerator) chunkIntersects(cp world.ChunkPos) bool {
	reach := g.planet.Radius + g.settings.Amplitude
	if g.planet.SeaLevel > reach {
		reach = g.planet.SeaLevel
	}
	// Половина диагонали чанка
	const halfDiagonal = world.ChunkSize * 0.8661
	return cp.Center().DistanceTo(g.planet.Center) <= reach+halfDiagonal
}

// GenerateRegion генерирует чанки в кубе [lo, hi] и записывает их в w
func (g *PlanetGenerator) GenerateRegion(ctx context.Context, w VoxelWriter, lo, hi world.ChunkPos) error {
	start := time.Now()
	chunks, voxels := 0, 0

	for z := lo.Z; z <= hi.Z; z++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for x := lo.X; x <= hi.X; x++ {
				if err := ctx.Err(); err != nil {
					return err
				}

				cp := world.ChunkPos{X: x, Y: y, Z: z}
				if !g.chunkIntersects(cp) {
					continue
				}

				writes := g.GenerateChunk(cp)
				if err := w.SetVoxelBulk(writes); err != nil {
					return err
				}
				chunks++
				voxels += len(writes)
			}
		}
	}

	elapsed := time.Since(start)
	g.mu.Lock()
	g.stats.ChunksGenerated += chunks
	g.stats.VoxelsWritten += voxels
	g.stats.TotalTime += elapsed
	g.mu.Unlock()

	g.logger.Info("🌋 Сгенерировано чанков: %d, вокселей: %d за %v", chunks, voxels, elapsed)
	return nil
}

// GeneratePlanet генерирует все чанки, пересекающие планету
func (g *PlanetGenerator) GeneratePlanet(ctx context.Context, w VoxelWriter) error {
	reach := g.planet.Radius + g.settings.Amplitude
	if g.planet.SeaLevel > reach {
		reach = g.planet.SeaLevel
	}

	lo := vec.Vec3Float{X: g.planet.Center.X - reach, Y: g.planet.Center.Y - reach, Z: g.planet.Center.Z - reach}
	hi := vec.Vec3Float{X: g.planet.Center.X + reach, Y: g.planet.Center.Y + reach, Z: g.planet.Center.Z + reach}

	return g.GenerateRegion(ctx, w,
		world.ChunkPosOf(lo.Floor(), world.ChunkSize),
		world.ChunkPosOf(hi.Floor(), world.ChunkSize))
}

// Stats возвращает накопленную статистику
func (g *PlanetGenerator) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}
