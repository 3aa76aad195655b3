// Package wait реализует опрос предиката с фиксированным интервалом до успеха
// или до истечения таймаута.
//
// Предикат сообщает "ещё не готово" через ErrNotYetAvailable. Любая другая ошибка
// считается неожиданной и завершает ожидание с KindError, а не с KindTimedOut:
// отвалившийся браузер и медленная страница - разные классы отказов.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotYetAvailable - штатный сигнал предиката, что результата пока нет.
	ErrNotYetAvailable = errors.New("not yet available")
	ErrTimedOut        = errors.New("wait timed out")
	ErrNotFound        = errors.New("not found")
)

type Kind int

const (
	KindSuccess Kind = iota
	KindNotFound
	KindTimedOut
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNotFound:
		return "not_found"
	case KindTimedOut:
		return "timed_out"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Predicate возвращает значение либо ErrNotYetAvailable (возможно обёрнутую).
type Predicate[T any] func(ctx context.Context) (T, error)

// Outcome - результат ожидания. Value осмысленно только при KindSuccess.
type Outcome[T any] struct {
	Kind    Kind
	Value   T
	Err     error
	Elapsed time.Duration
	Polls   int
}

func (o Outcome[T]) Ok() bool {
	return o.Kind == KindSuccess
}

// Get сворачивает исход в опциональное значение.
func (o Outcome[T]) Get() (T, bool) {
	if o.Kind != KindSuccess {
		var zero T
		return zero, false
	}
	return o.Value, true
}

// AsError возвращает nil для успеха и классифицированную ошибку для остальных исходов.
func (o Outcome[T]) AsError() error {
	switch o.Kind {
	case KindSuccess:
		return nil
	case KindNotFound:
		return ErrNotFound
	case KindTimedOut:
		return fmt.Errorf("%w after %v (%d polls)", ErrTimedOut, o.Elapsed, o.Polls)
	default:
		return o.Err
	}
}

// Until опрашивает pred каждые poll до успеха, неожиданной ошибки или истечения timeout.
//
// timeout <= 0 даёт немедленный KindTimedOut без вызова предиката. poll <= 0 или
// poll > timeout приравнивается к timeout. Последний сон укорачивается до дедлайна,
// поэтому последний опрос приходится на сам дедлайн.
func Until[T any](ctx context.Context, clock Clock, pred Predicate[T], timeout, poll time.Duration) Outcome[T] {
	if clock == nil {
		clock = SystemClock{}
	}
	if timeout <= 0 {
		return Outcome[T]{Kind: KindTimedOut}
	}
	if poll <= 0 || poll > timeout {
		poll = timeout
	}

	start := clock.Now()
	polls := 0
	for {
		if err := ctx.Err(); err != nil {
			return Outcome[T]{Kind: KindError, Err: err, Elapsed: clock.Now().Sub(start), Polls: polls}
		}

		polls++
		v, err := pred(ctx)
		elapsed := clock.Now().Sub(start)
		if err == nil {
			return Outcome[T]{Kind: KindSuccess, Value: v, Elapsed: elapsed, Polls: polls}
		}
		if !errors.Is(err, ErrNotYetAvailable) {
			return Outcome[T]{Kind: KindError, Err: err, Elapsed: elapsed, Polls: polls}
		}
		if elapsed >= timeout {
			return Outcome[T]{Kind: KindTimedOut, Elapsed: elapsed, Polls: polls}
		}

		sleep := poll
		if remaining := timeout - elapsed; remaining < sleep {
			sleep = remaining
		}
		if err := clock.Sleep(ctx, sleep); err != nil {
			return Outcome[T]{Kind: KindError, Err: err, Elapsed: clock.Now().Sub(start), Polls: polls}
		}
	}
}

// Check вычисляет предикат один раз, без ожидания.
func Check[T any](ctx context.Context, pred Predicate[T]) Outcome[T] {
	v, err := pred(ctx)
	switch {
	case err == nil:
		return Outcome[T]{Kind: KindSuccess, Value: v, Polls: 1}
	case errors.Is(err, ErrNotYetAvailable):
		return Outcome[T]{Kind: KindNotFound, Polls: 1}
	default:
		return Outcome[T]{Kind: KindError, Err: err, Polls: 1}
	}
}
