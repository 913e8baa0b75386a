package simclock

type wakeReason int

const (
	wakeTimeout wakeReason = iota
	wakeInterrupt
	wakeKill
)

type wakeup struct {
	at     Time
	seq    uint64
	proc   *Process
	reason wakeReason
	index  int
}

// wakeupQueue is a min-heap of wakeups ordered by (at, seq)
type wakeupQueue []*wakeup

func (q wakeupQueue) Len() int { return len(q) }

func (q wakeupQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q wakeupQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *wakeupQueue) Push(x any) {
	w := x.(*wakeup)
	w.index = len(*q)
	*q = append(*q, w)
}

func (q *wakeupQueue) Pop() any {
	old := *q
	n := len(old)
	w := old[n-1]
	old[n-1] = nil // avoid memory leak
	w.index = -1
	*q = old[:n-1]
	return w
}
