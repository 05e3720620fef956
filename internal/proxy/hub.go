package proxy

import "sync"

// hub fans values out to subscriber channels. It is only touched on the loop.
// Each channel holds at most one value; a newer value replaces an unread one.
type hub[T any] struct {
	sched Scheduler
	subs  map[int]chan T
	next  int
}

func newHub[T any](sched Scheduler) *hub[T] {
	return &hub[T]{sched: sched, subs: make(map[int]chan T)}
}

// subscribe registers a channel from any goroutine. The current value is
// delivered once registration reaches the loop. cancel closes the channel.
func (h *hub[T]) subscribe(current func() T) (<-chan T, func()) {
	ch := make(chan T, 1)
	idc := make(chan int, 1)
	h.sched.Post(func() {
		id := h.next
		h.next++
		h.subs[id] = ch
		idc <- id
		offer(ch, current())
	})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.sched.Post(func() {
				id := <-idc
				if sub, ok := h.subs[id]; ok {
					delete(h.subs, id)
					close(sub)
				}
			})
		})
	}
	return ch, cancel
}

func (h *hub[T]) publish(v T) {
	for _, ch := range h.subs {
		offer(ch, v)
	}
}

func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
