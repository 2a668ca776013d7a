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
	"encoding/json"
	"io"
	"net/url"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"
)

// URL is the default base URL of the service. It may be overwritten in tests
// before creating a new client.
var URL = "http://dataservices.imf.org/REST/SDMX_JSON.svc"

// Requester executes a GET request to the service endpoint, such as
// "Dataflow", and decodes the JSON response into result.
type Requester interface {
	Request(ctx context.Context, endpoint string, params url.Values, result interface{}) error
}

// RequesterFunc adapts a function to the Requester interface.
type RequesterFunc func(ctx context.Context, endpoint string, params url.Values, result interface{}) error

// Request implements Requester.
func (f RequesterFunc) Request(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	return f(ctx, endpoint, params, result)
}

// HTTPRequester sends exactly one HTTP request per call using the http.Client
// from the context (see fetch.UseClient). Retries are left to RetryPolicy, so
// that each of them passes through the rate limiter.
type HTTPRequester struct {
	BaseURL string
}

var _ Requester = &HTTPRequester{}

// Request implements Requester.
func (h *HTTPRequester) Request(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	uri := strings.TrimSuffix(h.BaseURL, "/") + "/" + endpoint
	if params == nil {
		params = make(url.Values)
	}
	logging.Debugf(ctx, "IMF: GET %s?%s", uri, params.Encode())
	resp, err := fetch.Get(ctx, uri, params)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		// fetch reports 5xx as a RetriableError with no cause.
		var re *fetch.RetriableError
		if errors.As(err, &re) && re.Err == nil {
			status := "5xx"
			if resp != nil {
				status = resp.Status
			}
			return errors.Reason("failed to fetch %s: response code %s", uri, status)
		}
		return errors.Annotate(err, "failed to fetch %s", uri)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Annotate(err, "failed to read response from %s", uri)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return errors.Annotate(err, "failed to decode JSON from %s", uri)
	}
	return nil
}

type limitedRequester struct {
	limiter Limiter
	next    Requester
}

// WithLimiter makes every request wait for the limiter first.
func WithLimiter(l Limiter, r Requester) Requester {
	return &limitedRequester{limiter: l, next: r}
}

// Request implements Requester.
func (r *limitedRequester) Request(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return errors.Annotate(err, "interrupted while waiting for rate limit")
	}
	return r.next.Request(ctx, endpoint, params, result)
}

// RetryPolicy retries a failed request immediately, up to Attempts attempts
// in total.
type RetryPolicy struct {
	Attempts int
}

// DefaultRetryPolicy is 3 attempts in total.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3}

// Do calls f until it succeeds, the attempts are exhausted, or ctx is done.
// The final failure is returned as *TransportError.
func (p RetryPolicy) Do(ctx context.Context, endpoint string, f func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return &TransportError{Endpoint: endpoint, Attempts: i, Err: err}
		}
		if i < attempts {
			logging.Warningf(ctx, "IMF: request to %s failed, retrying (attempt %d/%d): %s",
				endpoint, i, attempts, errorString(err))
		}
	}
	return &TransportError{Endpoint: endpoint, Attempts: attempts, Err: err}
}

type retryingRequester struct {
	policy RetryPolicy
	next   Requester
}

// WithRetry retries failed requests according to the policy.
func WithRetry(p RetryPolicy, r Requester) Requester {
	return &retryingRequester{policy: p, next: r}
}

// Request implements Requester.
func (r *retryingRequester) Request(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	return r.policy.Do(ctx, endpoint, func() error {
		return r.next.Request(ctx, endpoint, params, result)
	})
}

// NewRequester assembles the standard request chain: retries on top of the
// rate limiter on top of HTTP, so that every attempt counts against the limit.
func NewRequester(baseURL string, l Limiter, p RetryPolicy) Requester {
	return WithRetry(p, WithLimiter(l, &HTTPRequester{BaseURL: baseURL}))
}

// DefaultRequester is NewRequester with the process-wide DefaultLimiter and
// DefaultRetryPolicy.
func DefaultRequester(baseURL string) Requester {
	return NewRequester(baseURL, DefaultLimiter, DefaultRetryPolicy)
}
