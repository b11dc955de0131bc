package solver

import "container/heap"

// varQueue orders unassigned variables by decreasing activity (VSIDS).
// It is a max-heap over var activity, implemented with container/heap
// the same way the wider SAT-solving corpus orders its pick-branch
// queue over a mutable priority (there it is watch-list size; here it
// is conflict activity), so bumping a variable's activity means a
// decrease-key style fix rather than a full rebuild.
type varQueue struct {
	activity []float64 // shared with the solver; read-only from here
	heap     []varQueueItem
	pos      map[Var]int // var -> index in heap; absent if not present
}

type varQueueItem struct {
	v Var
}

func newVarQueue(activity []float64) *varQueue {
	q := &varQueue{
		activity: activity,
		pos:      make(map[Var]int, len(activity)),
	}
	return q
}

func (q *varQueue) Len() int { return len(q.heap) }

func (q *varQueue) Less(i, j int) bool {
	return q.activity[q.heap[i].v] > q.activity[q.heap[j].v]
}

func (q *varQueue) Swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.pos[q.heap[i].v] = i
	q.pos[q.heap[j].v] = j
}

func (q *varQueue) Push(x interface{}) {
	item := x.(varQueueItem)
	q.pos[item.v] = len(q.heap)
	q.heap = append(q.heap, item)
}

func (q *varQueue) Pop() interface{} {
	n := len(q.heap)
	item := q.heap[n-1]
	q.heap = q.heap[:n-1]
	delete(q.pos, item.v)
	return item
}

// contains reports whether v is currently in the queue.
func (q *varQueue) contains(v Var) bool {
	_, ok := q.pos[v]
	return ok
}

// insert adds v to the queue. It is a no-op if v is already present.
func (q *varQueue) insert(v Var) {
	if q.contains(v) {
		return
	}
	heap.Push(q, varQueueItem{v: v})
}

// bump re-establishes heap order for v after its activity increased.
func (q *varQueue) bump(v Var) {
	if i, ok := q.pos[v]; ok {
		heap.Fix(q, i)
	}
}

// removeMax pops the highest-activity variable, or -1 if the queue is empty.
func (q *varQueue) removeMax() Var {
	if len(q.heap) == 0 {
		return -1
	}
	item := heap.Pop(q).(varQueueItem)
	return item.v
}

func (q *varQueue) empty() bool { return len(q.heap) == 0 }

// rebuild replaces the queue contents with exactly the given variables.
func (q *varQueue) rebuild(vars []Var) {
	q.heap = q.heap[:0]
	for k := range q.pos {
		delete(q.pos, k)
	}
	for _, v := range vars {
		q.insert(v)
	}
}
