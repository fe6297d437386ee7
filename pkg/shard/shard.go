package shard

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/aretw0/finjector/pkg/registry"
	"github.com/eapache/queue"
)

// Task is a unit of work executed on a shard.
// ctx carries the shard's Local; see LocalFrom and Registry.
type Task func(ctx context.Context) error

type envelope struct {
	ctx  context.Context
	task Task
	done chan error // nil for fire-and-forget
}

// Shard owns a mailbox, a goroutine draining it and the state that goroutine touches.
type Shard struct {
	id     int
	logger *slog.Logger
	pin    bool

	mu      sync.Mutex // guards mailbox and closed only
	cond    *sync.Cond
	mailbox *queue.Queue
	closed  bool
	stopped chan struct{}

	local *Local
}

// New starts a shard with the given id.
func New(id int, opts ...Option) *Shard {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Shard{
		id:      id,
		logger:  cfg.logger.With("shard", id),
		pin:     cfg.pin,
		mailbox: queue.New(),
		stopped: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	s.local = &Local{
		shardID: id,
		newRegistry: func() *registry.Registry {
			regOpts := []registry.Option{registry.WithLogger(s.logger)}
			if cfg.observers != nil {
				if obs := cfg.observers(id); obs != nil {
					regOpts = append(regOpts, registry.WithObserver(obs))
				}
			}
			s.logger.Debug("Creating shard-local registry")
			return registry.NewRegistry(regOpts...)
		},
	}

	go s.run()
	return s
}

// ID returns the shard id.
func (s *Shard) ID() int {
	return s.id
}

// Submit enqueues task without waiting for it. Task errors are logged.
func (s *Shard) Submit(task Task) error {
	return s.enqueue(envelope{ctx: context.Background(), task: task})
}

// Invoke enqueues task and waits for its result or for ctx to be done.
// A task whose ctx is already done when dequeued is skipped.
func (s *Shard) Invoke(ctx context.Context, task Task) error {
	done := make(chan error, 1)
	if err := s.enqueue(envelope{ctx: ctx, task: task, done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, drains the ones already queued and waits for the
// shard goroutine to exit. It is safe to call more than once.
func (s *Shard) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()

	<-s.stopped
	return nil
}

func (s *Shard) enqueue(env envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("shard %d: %w", s.id, ErrShardClosed)
	}
	s.mailbox.Add(env)
	s.cond.Signal()
	return nil
}

func (s *Shard) run() {
	defer close(s.stopped)

	if s.pin {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		cpu := s.id % runtime.NumCPU()
		if err := setAffinity(cpu); err != nil {
			s.logger.Warn("Shard pinning unavailable, running unpinned", "cpu", cpu, "err", err)
		} else {
			s.logger.Debug("Shard pinned", "cpu", cpu)
		}
	}

	for {
		s.mu.Lock()
		for s.mailbox.Length() == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.mailbox.Length() == 0 {
			s.mu.Unlock()
			return
		}
		env := s.mailbox.Remove().(envelope)
		s.mu.Unlock()

		err := s.execute(env)
		if env.done != nil {
			env.done <- err
		} else if err != nil {
			s.logger.Warn("Shard task failed", "err", err)
		}
	}
}

func (s *Shard) execute(env envelope) (err error) {
	if err := env.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("shard %d: task panicked: %v", s.id, r)
		}
	}()
	return env.task(withLocal(env.ctx, s.local))
}
