package abstraction

import "container/heap"

type queueItem struct {
	state        int
	cost         float64
	indexInQueue int
}

type priorityQueue []*queueItem

func (queue priorityQueue) Len() int           { return len(queue) }
func (queue priorityQueue) Less(i, j int) bool { return queue[i].cost < queue[j].cost }
func (queue priorityQueue) Swap(i, j int) {
	queue[i], queue[j] = queue[j], queue[i]
	queue[i].indexInQueue = i
	queue[j].indexInQueue = j
}

func (queue *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.indexInQueue = len(*queue)
	*queue = append(*queue, item)
}

func (queue *priorityQueue) Pop() any {
	oldQueue := *queue
	n := len(oldQueue)
	item := oldQueue[n-1]
	oldQueue[n-1] = nil
	item.indexInQueue = -1
	*queue = oldQueue[:n-1]
	return item
}

// openList is a min-queue over dense state ids with decrease-key.
type openList struct {
	queue priorityQueue
	items map[int]*queueItem
}

func newOpenList() *openList {
	return &openList{items: make(map[int]*queueItem)}
}

func (o *openList) Len() int {
	return o.queue.Len()
}

// Push inserts state with cost, or lowers its cost if it is queued with
// a higher one.
func (o *openList) Push(state int, cost float64) {
	if item, ok := o.items[state]; ok {
		if cost < item.cost {
			item.cost = cost
			heap.Fix(&o.queue, item.indexInQueue)
		}
		return
	}
	item := &queueItem{state: state, cost: cost}
	o.items[state] = item
	heap.Push(&o.queue, item)
}

func (o *openList) Pop() (int, float64) {
	item := heap.Pop(&o.queue).(*queueItem)
	delete(o.items, item.state)
	return item.state, item.cost
}
