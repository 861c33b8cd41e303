package actorutil

import (
	"errors"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/primetalk/goio/io"
)

var ErrNilResult = errors.New("background task returned no result")

// BackgroundTask runs a blocking call (Modbus, HTTP) on behalf of an actor and
// delivers the result as a message. Errors are turned into a message by the
// Recover function; without one, failed tasks deliver nothing.
type BackgroundTask[T any] struct {
	ctx     actor.Context
	fn      func() (*T, error)
	timeout time.Duration
	recover func(error) T
	async   bool
}

func NewBackgroundTask[T any](ctx actor.Context, fn func() (*T, error)) *BackgroundTask[T] {
	return &BackgroundTask[T]{
		ctx: ctx,
		fn:  fn,
	}
}

// MapBackgroundTask chains mapFn after the task function. Timeout and
// recovery must be set on the returned task.
func MapBackgroundTask[T, T2 any](task *BackgroundTask[T], mapFn func(*T) *T2) *BackgroundTask[T2] {
	return &BackgroundTask[T2]{
		ctx: task.ctx,
		fn: func() (*T2, error) {
			r, err := task.fn()
			if err != nil {
				return nil, err
			}
			return mapFn(r), nil
		},
		async: task.async,
	}
}

func (t *BackgroundTask[T]) WithTimeout(timeout time.Duration) *BackgroundTask[T] {
	t.timeout = timeout
	return t
}

func (t *BackgroundTask[T]) Recover(fn func(error) T) *BackgroundTask[T] {
	t.recover = fn
	return t
}

// Async runs the task on its own goroutine so the actor keeps receiving
// messages (health checks) until the result arrives.
func (t *BackgroundTask[T]) Async() *BackgroundTask[T] {
	t.async = true
	return t
}

func (t *BackgroundTask[T]) PipeTo(pid *actor.PID) {
	if !t.async {
		if value, ok := t.run(); ok {
			t.ctx.Send(pid, value)
		}
		return
	}
	// the actor context must not be used outside its goroutine
	root := t.ctx.ActorSystem().Root
	go func() {
		if value, ok := t.run(); ok {
			root.Send(pid, value)
		}
	}()
}

func (t *BackgroundTask[T]) run() (T, bool) {
	task := io.Eval(func() (T, error) {
		var zero T
		value, err := t.fn()
		if err != nil {
			return zero, err
		}
		if value == nil {
			return zero, ErrNilResult
		}
		return *value, nil
	})
	if t.timeout > 0 {
		task = io.WithTimeout[T](t.timeout)(task)
	}
	result := io.RunSync(task)
	if result.Error == nil {
		return result.Value, true
	}
	if t.recover != nil {
		return t.recover(result.Error), true
	}
	var zero T
	return zero, false
}
