package world

import (
	"sync"
	"time"
)

// Statistics - снимок состояния менеджера мира
type Statistics struct {
	ActiveChunks    int           `json:"active_chunks"`     // Резидентные чанки в состоянии Active и выше
	LoadedChunks    uint64        `json:"loaded_chunks"`     // Всего успешных материализаций
	PendingLoads    int           `json:"pending_loads"`     // Задач в очереди
	MemoryUsage     int64         `json:"memory_usage"`      // Байт: чанки + октодерево
	AverageLoadTime time.Duration `json:"average_load_time"` // Среднее время загрузки
	ChunkHitRate    float64       `json:"chunk_hit_rate"`    // Доля чтений, попавших в резидентный чанк
}

// loadStats - счётчики под отдельным мьютексом, чтобы не конкурировать с таблицей чанков
type loadStats struct {
	mu        sync.Mutex
	loads     uint64
	failures  uint64
	totalLoad time.Duration
	hits      uint64
	misses    uint64
}

func (s *loadStats) recordLoad(d time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.failures++
		return
	}
	s.loads++
	s.totalLoad += d
}

func (s *loadStats) recordLookup(hit bool) {
	s.mu.Lock()
	if hit {
		s.hits++
	} else {
		s.misses++
	}
	s.mu.Unlock()
}

func (s *loadStats) fill(st *Statistics) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st.LoadedChunks = s.loads
	if s.loads > 0 {
		st.AverageLoadTime = s.totalLoad / time.Duration(s.loads)
	}
	if total := s.hits + s.misses; total > 0 {
		st.ChunkHitRate = float64(s.hits) / float64(total)
	}
}
