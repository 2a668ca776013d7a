// Copyright 2023 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package imf

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stockparfait/errors"
)

// Limiter blocks until the caller is allowed to make one more call.
type Limiter interface {
	Wait(ctx context.Context) error
}

// WindowLimiter allows at most Calls calls within any interval of length
// Period. It is safe for concurrent use.
type WindowLimiter struct {
	mu     sync.Mutex
	calls  int
	period time.Duration
	clock  clockwork.Clock
	stamps []time.Time // start times of the calls in the current window, ascending
}

var _ Limiter = &WindowLimiter{}

// NewWindowLimiter creates a limiter of calls per period. A nil clock means the
// real clock.
func NewWindowLimiter(calls int, period time.Duration, clock clockwork.Clock) *WindowLimiter {
	if calls < 1 {
		panic(errors.Reason("calls = %d must be >= 1", calls))
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &WindowLimiter{calls: calls, period: period, clock: clock}
}

// DefaultLimiter is the budget shared by all the requests to the service
// within the process: 10 calls per 5 seconds.
var DefaultLimiter = NewWindowLimiter(10, 5*time.Second, nil)

// expire drops the calls which are no longer in the window ending at now.
// Must be called under the lock.
func (l *WindowLimiter) expire(now time.Time) {
	i := 0
	for i < len(l.stamps) && !now.Before(l.stamps[i].Add(l.period)) {
		i++
	}
	l.stamps = append(l.stamps[:0], l.stamps[i:]...)
}

// reserve records a call at the current time if the budget permits. Otherwise
// it returns how long to wait before trying again.
func (l *WindowLimiter) reserve() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.expire(now)
	if len(l.stamps) < l.calls {
		l.stamps = append(l.stamps, now)
		return true, 0
	}
	return false, l.stamps[0].Add(l.period).Sub(now)
}

// Wait suspends until a call slot frees up, or the context is done.
func (l *WindowLimiter) Wait(ctx context.Context) error {
	for {
		ok, wait := l.reserve()
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.clock.After(wait):
		}
	}
}
