package scheduler

import (
	"container/heap"
	"time"
)

// fireQueue is a min-heap of league states ordered by next fire time.
// Leagues with a tick in flight are not in the queue.
type fireQueue []*leagueState

func (q fireQueue) Len() int { return len(q) }

func (q fireQueue) Less(i, j int) bool {
	if q[i].nextFire.Equal(q[j].nextFire) {
		return q[i].rank < q[j].rank
	}
	return q[i].nextFire.Before(q[j].nextFire)
}

func (q fireQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *fireQueue) Push(x interface{}) {
	st := x.(*leagueState)
	st.index = len(*q)
	*q = append(*q, st)
}

func (q *fireQueue) Pop() interface{} {
	old := *q
	n := len(old)
	st := old[n-1]
	old[n-1] = nil
	st.index = -1
	*q = old[:n-1]
	return st
}

// popDue removes and returns every state due at or before now
func (q *fireQueue) popDue(now time.Time) []*leagueState {
	var due []*leagueState
	for q.Len() > 0 && !(*q)[0].nextFire.After(now) {
		due = append(due, heap.Pop(q).(*leagueState))
	}
	return due
}

// reschedule moves st to its new position, pushing it if it is not queued
func (q *fireQueue) reschedule(st *leagueState) {
	if st.index >= 0 {
		heap.Fix(q, st.index)
		return
	}
	heap.Push(q, st)
}

// peek returns the earliest next fire time
func (q fireQueue) peek() (time.Time, bool) {
	if len(q) == 0 {
		return time.Time{}, false
	}
	return q[0].nextFire, true
}
