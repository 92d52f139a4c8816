package poststate

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type mirrorOpKind int

const (
	opWrite mirrorOpKind = iota // state changed, persist after the debounce window
	opDelete                    // state cleared, erase the persisted blob now
	opFlush                     // persist pending changes now and signal done
	opClose                     // final flush, then stop the writer
)

type mirrorOp struct {
	done chan struct{}
	kind mirrorOpKind
}

// mirror keeps a best-effort copy of the state map in a KeyValueStore.
// A single writer goroutine applies operations in the order they were queued,
// so a delete issued by Clear can never be overtaken by an older write.
// Bursts of writes inside one debounce window collapse into a single WriteKey.
type mirror struct {
	kv           KeyValueStore
	encode       func() (string, error)
	logger       *slog.Logger
	wake         chan struct{}
	stopped      chan struct{}
	key          string
	queue        []mirrorOp
	debounce     time.Duration
	writeTimeout time.Duration
	mu           sync.Mutex
	closed       bool
}

func newMirror(kv KeyValueStore, key string, debounce, writeTimeout time.Duration, encode func() (string, error), logger *slog.Logger) *mirror {
	m := &mirror{
		kv:           kv,
		key:          key,
		debounce:     debounce,
		writeTimeout: writeTimeout,
		encode:       encode,
		logger:       logger,
		wake:         make(chan struct{}, 1),
		stopped:      make(chan struct{}),
	}
	go m.run()
	return m
}

// enqueue never blocks, so it is safe to call while holding the store lock.
// Returns false once the mirror has been closed.
func (m *mirror) enqueue(op mirrorOp) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	if op.kind == opClose {
		m.closed = true
	}
	m.queue = append(m.queue, op)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return true
}

func (m *mirror) scheduleWrite() {
	m.enqueue(mirrorOp{kind: opWrite})
}

func (m *mirror) scheduleDelete() {
	m.enqueue(mirrorOp{kind: opDelete})
}

// flush waits until every operation queued before it has been applied
func (m *mirror) flush(ctx context.Context) error {
	done := make(chan struct{})
	if !m.enqueue(mirrorOp{kind: opFlush, done: done}) {
		return ErrMirrorClosed
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close flushes pending state and stops the writer. Safe to call more than once.
func (m *mirror) close(ctx context.Context) error {
	m.enqueue(mirrorOp{kind: opClose})
	select {
	case <-m.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mirror) drain() []mirrorOp {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops := m.queue
	m.queue = nil
	return ops
}

func (m *mirror) run() {
	defer close(m.stopped)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
		dirty  bool
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}
	writeNow := func() {
		stopTimer()
		if dirty {
			m.write()
			dirty = false
		}
	}

	for {
		select {
		case <-m.wake:
			for _, op := range m.drain() {
				switch op.kind {
				case opWrite:
					dirty = true
					if m.debounce <= 0 {
						writeNow()
					} else if timer == nil {
						// The window starts at the first change so steady toggling
						// cannot postpone the write forever.
						timer = time.NewTimer(m.debounce)
						timerC = timer.C
					}
				case opDelete:
					stopTimer()
					dirty = false
					m.delete()
				case opFlush:
					writeNow()
					close(op.done)
				case opClose:
					writeNow()
					if op.done != nil {
						close(op.done)
					}
					return
				}
			}
		case <-timerC:
			timer = nil
			timerC = nil
			if dirty {
				m.write()
				dirty = false
			}
		}
	}
}

// write persists the current state. Failures are logged and dropped; the
// in-memory map stays authoritative.
func (m *mirror) write() {
	value, err := m.encode()
	if err != nil {
		m.logger.Warn("failed to encode post states for persistence",
			"error", err,
			"key", m.key)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.writeTimeout)
	defer cancel()

	if err := m.kv.WriteKey(ctx, m.key, value); err != nil {
		m.logger.Warn("failed to persist post states",
			"error", err,
			"key", m.key,
			"bytes", len(value))
		return
	}

	m.logger.Debug("post states persisted",
		"key", m.key,
		"bytes", len(value))
}

func (m *mirror) delete() {
	ctx, cancel := context.WithTimeout(context.Background(), m.writeTimeout)
	defer cancel()

	if err := m.kv.DeleteKey(ctx, m.key); err != nil {
		m.logger.Warn("failed to erase persisted post states",
			"error", err,
			"key", m.key)
		return
	}

	m.logger.Debug("persisted post states erased", "key", m.key)
}
