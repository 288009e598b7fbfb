package session

import "sync"

// Notifier receives messages produced outside a Submit call: deferred
// announcements, integrity warnings and persistence failures.
type Notifier interface {
	Notify(Message)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Message)

func (f NotifierFunc) Notify(m Message) { f(m) }

type discardNotifier struct{}

func (discardNotifier) Notify(Message) {}

// ChanNotifier delivers messages on a buffered channel. After Close further
// messages are dropped.
type ChanNotifier struct {
	mu     sync.RWMutex
	ch     chan Message
	closed bool
}

// NewChanNotifier creates a ChanNotifier with the given buffer size.
func NewChanNotifier(size int) *ChanNotifier {
	return &ChanNotifier{ch: make(chan Message, size)}
}

func (n *ChanNotifier) Notify(m Message) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	n.ch <- m
}

// C returns the receive side.
func (n *ChanNotifier) C() <-chan Message { return n.ch }

// Close closes the channel.
func (n *ChanNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		close(n.ch)
	}
}
