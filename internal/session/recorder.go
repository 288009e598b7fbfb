package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// writeTimeout bounds a single persistence write.
const writeTimeout = 10 * time.Second

// Recorder applies persistence writes one at a time, in the order they were
// queued, on a background goroutine. A failed write is logged and reported
// through the notifier; the session carries on.
type Recorder struct {
	notifier Notifier
	logger   *slog.Logger

	mu      sync.Mutex
	closed  bool
	pending chan recordJob
	done    chan struct{}
}

type recordJob struct {
	name  string
	write func(ctx context.Context) error
	// barrier is closed once every earlier job has run.
	barrier chan struct{}
}

// NewRecorder starts a recorder. A nil notifier drops failure reports and a
// nil logger means slog.Default().
func NewRecorder(notifier Notifier, logger *slog.Logger) *Recorder {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		notifier: notifier,
		logger:   logger,
		pending:  make(chan recordJob, 64),
		done:     make(chan struct{}),
	}
	go r.processLoop()
	return r
}

// Enqueue queues a write. It blocks only while the queue is full. Writes
// queued after Close are dropped.
func (r *Recorder) Enqueue(name string, write func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Warn("recorder closed, dropping write", "write", name)
		return
	}
	r.pending <- recordJob{name: name, write: write}
}

// Flush blocks until every write queued before the call has run.
func (r *Recorder) Flush() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	barrier := make(chan struct{})
	r.pending <- recordJob{barrier: barrier}
	r.mu.Unlock()
	<-barrier
}

// Close drains queued writes and stops the worker.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.pending)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) processLoop() {
	defer close(r.done)
	for job := range r.pending {
		if job.barrier != nil {
			close(job.barrier)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := job.write(ctx)
		cancel()
		if err != nil {
			r.logger.Error("persist progress", "write", job.name, "error", err)
			r.notifier.Notify(Message{Sender: SenderBot, Text: writeFailedText, Kind: KindError})
		}
	}
}
