package chat

import "sync"

// mailbox is an unbounded FIFO of pending deliveries for one subscriber,
// drained by a single goroutine so the handler sees messages in enqueue order.
type mailbox struct {
	mu     sync.Mutex
	queue  []Message
	closed bool
	wake   chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

// push enqueues msg. It never blocks; pushes after close are dropped.
func (mb *mailbox) push(msg Message) {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return
	}
	mb.queue = append(mb.queue, msg)
	mb.mu.Unlock()
	mb.signal()
}

// close stops accepting messages. Already queued messages are still drained.
func (mb *mailbox) close() {
	mb.mu.Lock()
	mb.closed = true
	mb.mu.Unlock()
	mb.signal()
}

func (mb *mailbox) signal() {
	select {
	case mb.wake <- struct{}{}:
	default:
	}
}

// drain calls deliver for every queued message until the mailbox is closed
// and empty.
func (mb *mailbox) drain(deliver func(Message)) {
	for {
		mb.mu.Lock()
		batch := mb.queue
		mb.queue = nil
		closed := mb.closed
		mb.mu.Unlock()

		for _, msg := range batch {
			deliver(msg)
		}

		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-mb.wake
	}
}
