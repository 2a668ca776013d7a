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
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

type countingLimiter struct {
	waits int
}

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.waits++
	return nil
}

// countingTransport counts the HTTP requests leaving the client.
type countingTransport struct {
	next http.RoundTripper
	hits int
}

func (t *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	t.hits++
	return t.next.RoundTrip(r)
}

func TestLimiter(t *testing.T) {
	t.Parallel()

	Convey("WindowLimiter", t, func() {
		ctx := context.Background()
		clock := clockwork.NewFakeClock()
		l := NewWindowLimiter(10, 5*time.Second, clock)

		Convey("suspends the 11th call until the window rolls", func() {
			for i := 0; i < 10; i++ {
				So(l.Wait(ctx), ShouldBeNil)
			}
			done := make(chan error, 1)
			go func() { done <- l.Wait(ctx) }()
			So(clock.BlockUntilContext(ctx, 1), ShouldBeNil)

			blocked := func() bool {
				select {
				case err := <-done:
					So(err, ShouldBeNil)
					return false
				default:
					return true
				}
			}
			So(blocked(), ShouldBeTrue)
			clock.Advance(4 * time.Second)
			So(blocked(), ShouldBeTrue)
			clock.Advance(time.Second)
			select {
			case err := <-done:
				So(err, ShouldBeNil)
			case <-time.After(10 * time.Second):
				So("the 11th call is still blocked", ShouldBeEmpty)
			}
		})

		Convey("counts calls in a sliding window", func() {
			for i := 0; i < 5; i++ {
				ok, _ := l.reserve()
				So(ok, ShouldBeTrue)
			}
			clock.Advance(3 * time.Second)
			for i := 0; i < 5; i++ {
				ok, _ := l.reserve()
				So(ok, ShouldBeTrue)
			}
			ok, wait := l.reserve()
			So(ok, ShouldBeFalse)
			So(wait, ShouldEqual, 2*time.Second)

			clock.Advance(2 * time.Second)
			for i := 0; i < 5; i++ {
				ok, _ := l.reserve()
				So(ok, ShouldBeTrue)
			}
			ok, wait = l.reserve()
			So(ok, ShouldBeFalse)
			So(wait, ShouldEqual, 3*time.Second)
		})

		Convey("stops waiting when the context is canceled", func() {
			for i := 0; i < 10; i++ {
				So(l.Wait(ctx), ShouldBeNil)
			}
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(l.Wait(cctx), ShouldEqual, context.Canceled)
		})

		Convey("rejects an empty budget", func() {
			So(func() { NewWindowLimiter(0, time.Second, clock) }, ShouldPanic)
		})
	})
}

func TestTransport(t *testing.T) {
	t.Parallel()

	Convey("RetryPolicy", t, func() {
		ctx := context.Background()
		calls := 0
		failing := func(n int) func() error {
			return func() error {
				calls++
				if calls <= n {
					return errors.Reason("attempt %d failed", calls)
				}
				return nil
			}
		}

		Convey("succeeds on the last attempt", func() {
			So(RetryPolicy{Attempts: 3}.Do(ctx, "X", failing(2)), ShouldBeNil)
			So(calls, ShouldEqual, 3)
		})

		Convey("returns the last error after all attempts", func() {
			err := RetryPolicy{Attempts: 3}.Do(ctx, "X", failing(5))
			So(calls, ShouldEqual, 3)
			te, ok := err.(*TransportError)
			So(ok, ShouldBeTrue)
			So(te.Attempts, ShouldEqual, 3)
			So(te.Endpoint, ShouldEqual, "X")
			So(te.Unwrap().Error(), ShouldContainSubstring, "attempt 3 failed")
			So(te.Error(), ShouldContainSubstring, "failed after 3 attempt(s)")
		})

		Convey("does not retry a canceled context", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := RetryPolicy{Attempts: 3}.Do(cctx, "X", failing(5))
			So(calls, ShouldEqual, 1)
			So(err.(*TransportError).Attempts, ShouldEqual, 1)
		})

		Convey("makes at least one attempt", func() {
			So(RetryPolicy{}.Do(ctx, "X", failing(0)), ShouldBeNil)
			So(calls, ShouldEqual, 1)
		})
	})

	Convey("Requester chain", t, func() {
		ctx := context.Background()
		s := newFakeService()
		l := &countingLimiter{}
		r := WithRetry(RetryPolicy{Attempts: 3}, WithLimiter(l, s))

		Convey("every attempt waits for the limiter", func() {
			s.failures["Dataflow"] = 2
			var resp dataflowResponse
			So(r.Request(ctx, "Dataflow", nil, &resp), ShouldBeNil)
			So(s.calls["Dataflow"], ShouldEqual, 3)
			So(l.waits, ShouldEqual, 3)
			So(len(resp.Structure.Dataflows.Dataflow), ShouldEqual, 2)
		})

		Convey("a transport failure propagates through the client", func() {
			s.failures["Dataflow"] = 3
			c := NewClient(r)
			_, err := c.ListDatasets(ctx)
			te, ok := err.(*TransportError)
			So(ok, ShouldBeTrue)
			So(te.Attempts, ShouldEqual, 3)
			So(s.calls["Dataflow"], ShouldEqual, 3)
		})

		Convey("RequesterFunc", func() {
			var endpoint string
			f := RequesterFunc(func(ctx context.Context, e string, p url.Values, res interface{}) error {
				endpoint = e
				return nil
			})
			So(f.Request(ctx, "E", nil, nil), ShouldBeNil)
			So(endpoint, ShouldEqual, "E")
		})
	})

	Convey("HTTPRequester talks to the server", t, func() {
		server := testutil.NewTestServer()
		defer server.Close()
		ctx := fetch.UseClient(context.Background(), server.Client())
		r := NewRequester(server.URL()+"/REST/SDMX_JSON.svc",
			NewWindowLimiter(100, time.Second, nil), DefaultRetryPolicy)

		server.ResponseBody = []string{testDataflowJSON}
		var resp dataflowResponse
		So(r.Request(ctx, "Dataflow", url.Values{"a": {"b"}}, &resp), ShouldBeNil)
		So(server.RequestPath, ShouldEqual, "/REST/SDMX_JSON.svc/Dataflow")
		So(server.RequestQuery, ShouldResemble, url.Values{"a": {"b"}})
		So(len(resp.Structure.Dataflows.Dataflow), ShouldEqual, 2)
	})

	Convey("HTTP failures are retried through the limiter", t, func() {
		server := testutil.NewTestServer()
		defer server.Close()
		ct := &countingTransport{next: server.Client().Transport}
		ctx := fetch.UseClient(context.Background(), &http.Client{Transport: ct})
		l := &countingLimiter{}
		r := NewRequester(server.URL()+"/REST/SDMX_JSON.svc", l, DefaultRetryPolicy)

		Convey("server errors then success", func() {
			server.ResponseStatus = []int{
				http.StatusInternalServerError, http.StatusInternalServerError, http.StatusOK}
			server.ResponseBody = []string{"", "", testDataflowJSON}
			start := time.Now()
			var resp dataflowResponse
			So(r.Request(ctx, "Dataflow", nil, &resp), ShouldBeNil)
			So(ct.hits, ShouldEqual, 3)
			So(l.waits, ShouldEqual, 3)
			So(len(resp.Structure.Dataflows.Dataflow), ShouldEqual, 2)
			So(time.Since(start), ShouldBeLessThan, time.Second)
		})

		Convey("persistent server errors", func() {
			server.ResponseStatus = []int{http.StatusServiceUnavailable}
			var resp dataflowResponse
			err := r.Request(ctx, "Dataflow", nil, &resp)
			te, ok := err.(*TransportError)
			So(ok, ShouldBeTrue)
			So(te.Attempts, ShouldEqual, 3)
			So(te.Error(), ShouldContainSubstring, "503")
			So(ct.hits, ShouldEqual, 3)
			So(l.waits, ShouldEqual, 3)
		})

		Convey("client errors and bad JSON count as failures", func() {
			server.ResponseStatus = []int{http.StatusNotFound, http.StatusOK}
			server.ResponseBody = []string{"not found", "{not json", testDataflowJSON}
			var resp dataflowResponse
			So(r.Request(ctx, "Dataflow", nil, &resp), ShouldBeNil)
			So(ct.hits, ShouldEqual, 3)
			So(l.waits, ShouldEqual, 3)
		})
	})
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	Convey("TransportError tolerates an empty cause", t, func() {
		err := &TransportError{Endpoint: "X", Attempts: 3, Err: fetch.NewRetriableError(nil)}
		So(err.Error(), ShouldContainSubstring, "request to X failed after 3 attempt(s)")
		err = &TransportError{Endpoint: "X", Attempts: 1}
		So(err.Error(), ShouldContainSubstring, "unknown error")
	})
}
