package services

import (
	"context"
	"sync"
)

// changeNotifier fans a value out to registered listeners. Listeners run
// synchronously on the publishing goroutine, in registration order.
type changeNotifier[T any] struct {
	mu        sync.Mutex
	nextID    int
	listeners []listenerEntry[T]
}

type listenerEntry[T any] struct {
	id int
	fn func(ctx context.Context, v T)
}

// subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (n *changeNotifier[T]) subscribe(fn func(ctx context.Context, v T)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, listenerEntry[T]{id: id, fn: fn})

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, l := range n.listeners {
			if l.id == id {
				n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
				return
			}
		}
	}
}

func (n *changeNotifier[T]) notify(ctx context.Context, v T) {
	n.mu.Lock()
	ls := make([]listenerEntry[T], len(n.listeners))
	copy(ls, n.listeners)
	n.mu.Unlock()

	for _, l := range ls {
		l.fn(ctx, v)
	}
}
