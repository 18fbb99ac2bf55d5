package world

import (
	"container/heap"
	"time"
)

// Priority - приоритет загрузки чанка
type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent // Запись в незагруженный чанк
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// loadTask - задача загрузки в очереди
type loadTask struct {
	pos      ChunkPos
	chunk    *Chunk
	future   *LoadFuture
	priority Priority
	seq      uint64    // порядок постановки, FIFO внутри одного приоритета
	queuedAt time.Time
	index    int // позиция в куче, -1 после извлечения
}

// loadQueue - приоритетная очередь задач (container/heap)
type loadQueue []*loadTask

func (q loadQueue) Len() int { return len(q) }

func (q loadQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q loadQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *loadQueue) Push(x any) {
	task := x.(*loadTask)
	task.index = len(*q)
	*q = append(*q, task)
}

func (q *loadQueue) Pop() any {
	old := *q
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*q = old[:n-1]
	return task
}

// boost поднимает приоритет ещё не извлечённой задачи
func (q *loadQueue) boost(task *loadTask, p Priority) {
	if task.index < 0 || p <= task.priority {
		return
	}
	task.priority = p
	heap.Fix(q, task.index)
}
