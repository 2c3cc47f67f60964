package syncctl

import (
	"context"
	"errors"
	"sync"
)

var ErrLoopStopped = errors.New("event loop stopped")

// Dispatcher runs controller work. Every call a controller makes goes through the same
// dispatcher, so the controller only needs one to be sequential.
type Dispatcher interface {
	Dispatch(fn func())
}

type DispatcherFunc func(fn func())

func (that DispatcherFunc) Dispatch(fn func()) {
	that(fn)
}

// Immediate runs work on the calling goroutine.
var Immediate = DispatcherFunc(func(fn func()) { fn() })

// Loop serializes work onto the goroutine that calls Run.
type Loop struct {
	inbox chan func()
	done  chan struct{}
	once  sync.Once
}

func NewLoop(buffer int) *Loop {
	return &Loop{
		inbox: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Dispatch queues fn. Work queued after the loop stopped is dropped.
func (that *Loop) Dispatch(fn func()) {
	select {
	case that.inbox <- fn:
	case <-that.done:
	}
}

// Do runs fn on the loop and waits for it to finish.
func (that *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})

	select {
	case that.inbox <- func() {
		defer close(finished)
		fn()
	}:
	case <-that.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-that.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (that *Loop) Run(ctx context.Context) error {
	defer that.once.Do(func() { close(that.done) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-that.inbox:
			fn()
		}
	}
}
