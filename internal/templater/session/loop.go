package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrClosed = errors.New("session closed")

type task struct {
	fn   func() error
	err  error
	done chan struct{}
}

type deferredTask struct {
	key string
	fn  func()
}

// Loop - однопоточный цикл событий сессии. Все задачи выполняются по одной в
// собственной горутине цикла.
//
// Отложенные задачи (Defer) выполняются после завершения текущей задачи и до
// следующей. Отложенные задачи с одинаковым ключом, поставленные до их запуска,
// выполняются один раз.
type Loop struct {
	tasks chan *task
	wake  chan struct{}
	quit  chan struct{}
	done  chan struct{}

	mu       sync.Mutex
	deferred []deferredTask
	pending  map[string]struct{}

	closeOnce sync.Once
}

func NewLoop() *Loop {
	l := &Loop{
		tasks:   make(chan *task),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		pending: make(map[string]struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case t := <-l.tasks:
			t.err = l.exec(t.fn)
			close(t.done)
			l.runDeferred()
		case <-l.wake:
			l.runDeferred()
		case <-l.quit:
			return
		}
	}
}

func (l *Loop) exec(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Session task panic", "panic", r)
			err = fmt.Errorf("session task panic: %v", r)
		}
	}()
	return fn()
}

func (l *Loop) runDeferred() {
	for {
		l.mu.Lock()
		batch := l.deferred
		l.deferred = nil
		clear(l.pending)
		l.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, d := range batch {
			l.exec(func() error {
				d.fn()
				return nil
			})
		}
	}
}

// Do ставит задачу в очередь и ждет ее выполнения. ctx ограничивает только
// ожидание места в очереди: начатая задача выполняется полностью.
// Нельзя вызывать из задачи этого же цикла.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	t := &task{fn: fn, done: make(chan struct{})}
	select {
	case <-l.quit:
		return ErrClosed
	default:
	}

	select {
	case l.tasks <- t:
	case <-l.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-t.done
	return t.err
}

// Defer ставит отложенную задачу. Повторный вызов с тем же ключом до запуска
// задачи ничего не делает.
func (l *Loop) Defer(key string, fn func()) {
	l.mu.Lock()
	if _, ok := l.pending[key]; ok {
		l.mu.Unlock()
		return
	}
	l.pending[key] = struct{}{}
	l.deferred = append(l.deferred, deferredTask{key: key, fn: fn})
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Close останавливает цикл и ждет завершения текущей задачи. Отложенные задачи,
// не успевшие запуститься, отбрасываются.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.quit)
	})
	<-l.done
}

func (l *Loop) Closed() bool {
	select {
	case <-l.quit:
		return true
	default:
		return false
	}
}
