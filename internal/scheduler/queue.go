package scheduler

import (
	"container/heap"
	"time"

	"github.com/example/ebbinghausbot/pkg/models"
)

type job struct {
	key   models.JobKey
	due   time.Time
	index int
}

// jobQueue is a min-heap of jobs ordered by due time
type jobQueue []*job

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool { return q[i].due.Before(q[j].due) }

func (q jobQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *jobQueue) Push(x any) {
	j := x.(*job)
	j.index = len(*q)
	*q = append(*q, j)
}

func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	j.index = -1
	*q = old[:n-1]
	return j
}

func (q jobQueue) peek() (*job, bool) {
	if len(q) == 0 {
		return nil, false
	}
	return q[0], true
}

var _ heap.Interface = (*jobQueue)(nil)
