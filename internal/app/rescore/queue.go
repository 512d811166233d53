// Package rescore keeps cached signal scores fresh: intake pushes urgent
// jobs, a scheduler sweeps LIVE campaigns at routine priority, and a bounded
// worker pool drains the queue.
package rescore

import (
	"sync"
	"time"

	"github.com/productlobby/signal/internal/infra/observability"
)

// ─── Priority Queue (Min-Heap) ──────────────────────────────────────────────
// Binary min-heap keyed by campaign ID.
//
// Operations:
//   Push:    O(log n): sift up, or in-place promotion when already queued
//   Pop:     O(log n): sift down (extract-min)
//   Len:     O(1)
//
// Starvation prevention:
//   effective_priority = priority - age / BoostInterval, capped at MaxBoost.
//   Routine sweeps cannot be starved by a steady stream of urgent jobs.

// Priority orders jobs. Lower is served first.
type Priority int

const (
	PriorityUrgent  Priority = 0
	PriorityRoutine Priority = 2
)

// QueueConfig configures starvation prevention.
type QueueConfig struct {
	BoostInterval time.Duration // Age before a job is boosted by one level
	MaxBoost      int           // Maximum levels a job can be boosted
}

// DefaultQueueConfig boosts a routine job to urgent after two minutes.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		BoostInterval: time.Minute,
		MaxBoost:      2,
	}
}

type job struct {
	campaignID  string
	priority    Priority
	submittedAt time.Time
}

// Queue is a thread-safe, de-duplicating min-heap of campaign rescore jobs.
// A campaign appears at most once; pushing it again keeps the better priority.
type Queue struct {
	mu     sync.Mutex
	heap   []job
	index  map[string]int
	config QueueConfig
	ready  chan struct{}
	now    func() time.Time // injectable clock for testing
}

// NewQueue creates an empty queue.
func NewQueue(cfg QueueConfig) *Queue {
	return &Queue{
		index:  make(map[string]int),
		config: cfg,
		ready:  make(chan struct{}, 1),
		now:    time.Now,
	}
}

// Push enqueues a campaign. It returns false when the campaign was already
// queued at the same or better priority.
func (q *Queue) Push(campaignID string, p Priority) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if i, ok := q.index[campaignID]; ok {
		if p >= q.heap[i].priority {
			return false
		}
		q.heap[i].priority = p
		q.siftUp(i)
		q.signal()
		return true
	}

	q.heap = append(q.heap, job{campaignID: campaignID, priority: p, submittedAt: q.now()})
	last := len(q.heap) - 1
	q.index[campaignID] = last
	q.siftUp(last)
	observability.RescoreQueueDepth.Set(float64(len(q.heap)))
	q.signal()
	return true
}

// Urgent enqueues a campaign at urgent priority.
func (q *Queue) Urgent(campaignID string) {
	q.Push(campaignID, PriorityUrgent)
}

// Pop removes and returns the next campaign to rescore.
func (q *Queue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return "", false
	}

	top := q.heap[0]
	last := len(q.heap) - 1
	q.swap(0, last)
	q.heap = q.heap[:last]
	delete(q.index, top.campaignID)
	if len(q.heap) > 0 {
		q.siftDown(0)
	}
	observability.RescoreQueueDepth.Set(float64(len(q.heap)))
	return top.campaignID, true
}

// Len returns the number of queued campaigns.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// Ready is signalled after every successful Push. Consumers should drain the
// queue with Pop until it reports empty before waiting again.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// effectivePriority applies the age-based boost. Lower value = served first.
func (q *Queue) effectivePriority(j *job) int {
	p := int(j.priority)
	if q.config.BoostInterval <= 0 {
		return p
	}
	boost := int(q.now().Sub(j.submittedAt) / q.config.BoostInterval)
	if boost > q.config.MaxBoost {
		boost = q.config.MaxBoost
	}
	return max(p-boost, 0)
}

// less returns true if job i should be dequeued before job j.
func (q *Queue) less(i, j int) bool {
	pi := q.effectivePriority(&q.heap[i])
	pj := q.effectivePriority(&q.heap[j])
	if pi != pj {
		return pi < pj
	}
	// FIFO within the same priority.
	return q.heap[i].submittedAt.Before(q.heap[j].submittedAt)
}

func (q *Queue) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.index[q.heap[i].campaignID] = i
	q.index[q.heap[j].campaignID] = j
}

func (q *Queue) siftUp(idx int) {
	for idx > 0 {
		parent := (idx - 1) / 2
		if !q.less(idx, parent) {
			break
		}
		q.swap(idx, parent)
		idx = parent
	}
}

func (q *Queue) siftDown(idx int) {
	n := len(q.heap)
	for {
		smallest := idx
		left := 2*idx + 1
		right := 2*idx + 2

		if left < n && q.less(left, smallest) {
			smallest = left
		}
		if right < n && q.less(right, smallest) {
			smallest = right
		}
		if smallest == idx {
			break
		}
		q.swap(idx, smallest)
		idx = smallest
	}
}
