package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/voxelworld/internal/world"
)

const namespace = "voxel_world"

// Collector экспортирует метрики менеджера мира в собственный регистр Prometheus.
// Реализует world.Recorder.
type Collector struct {
	registry *prometheus.Registry
	process  *ProcessMetrics

	loads        *prometheus.CounterVec
	unloads      prometheus.Counter
	loadDuration prometheus.Histogram

	activeChunks prometheus.Gauge
	loadedChunks prometheus.Gauge
	pendingLoads prometheus.Gauge
	memoryUsage  prometheus.Gauge
	hitRate      prometheus.Gauge
	avgLoadTime  prometheus.Gauge
	processRSS   prometheus.Gauge
	processCPU   prometheus.Gauge
}

var _ world.Recorder = (*Collector)(nil)

// NewCollector создаёт регистр и регистрирует в нём метрики мира и рантайма Go
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		process:  NewProcessMetrics(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_loads_total",
			Help:      "Число завершённых загрузок чанков.",
		}, []string{"result"}),
		unloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_unloads_total",
			Help:      "Число выгруженных чанков.",
		}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_load_duration_seconds",
			Help:      "Длительность материализации чанка.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}),
		activeChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_chunks",
			Help:      "Резидентные чанки в состоянии Active и выше.",
		}),
		loadedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loaded_chunks",
			Help:      "Успешные материализации с момента запуска.",
		}),
		pendingLoads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_loads",
			Help:      "Задачи в очереди загрузки.",
		}),
		memoryUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_usage_bytes",
			Help:      "Оценка памяти чанков и октодерева.",
		}),
		hitRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunk_hit_rate",
			Help:      "Доля чтений, попавших в резидентный чанк.",
		}),
		avgLoadTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "average_load_seconds",
			Help:      "Среднее время загрузки чанка.",
		}),
		processRSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_rss_bytes",
			Help:      "Резидентная память процесса (gopsutil).",
		}),
		processCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_cpu_percent",
			Help:      "Загрузка CPU процессом (gopsutil).",
		}),
	}

	c.registry.MustRegister(
		c.loads, c.unloads, c.loadDuration,
		c.activeChunks, c.loadedChunks, c.pendingLoads, c.memoryUsage,
		c.hitRate, c.avgLoadTime, c.processRSS, c.processCPU,
		collectors.NewGoCollector(),
	)
	return c
}

// Registry возвращает регистр для дополнительных метрик (шина событий, HTTP)
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Process возвращает метрики процесса
func (c *Collector) Process() *ProcessMetrics {
	return c.process
}

// Handler возвращает HTTP-обработчик /metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveLoad учитывает завершённую загрузку
func (c *Collector) ObserveLoad(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.loads.WithLabelValues(result).Inc()
	c.loadDuration.Observe(d.Seconds())
}

// ObserveUnload учитывает выгрузку
func (c *Collector) ObserveUnload() {
	c.unloads.Inc()
}

// ObserveStats обновляет gauge-метрики по снимку статистики
func (c *Collector) ObserveStats(st world.Statistics) {
	c.activeChunks.Set(float64(st.ActiveChunks))
	c.loadedChunks.Set(float64(st.LoadedChunks))
	c.pendingLoads.Set(float64(st.PendingLoads))
	c.memoryUsage.Set(float64(st.MemoryUsage))
	c.hitRate.Set(st.ChunkHitRate)
	c.avgLoadTime.Set(st.AverageLoadTime.Seconds())

	if rss, err := c.process.RSS(); err == nil {
		c.processRSS.Set(float64(rss))
	}
	if cpu, err := c.process.CPUPercent(); err == nil {
		c.processCPU.Set(cpu)
	}
}
