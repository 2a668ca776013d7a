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

	"github.com/stockparfait/errors"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// Client for the IMF SDMX-JSON service. It caches the dataflow catalog and the
// data structures it has fetched for its lifetime.
//
// The caches are not synchronized: a Client must not be used by concurrent
// goroutines without external locking. The rate limit budget of
// DefaultLimiter is shared by all clients and is safe for concurrent use.
type Client struct {
	requester  Requester
	flows      dataflowCache
	structures structureCache
}

// NewClient creates a client sending its requests through r.
func NewClient(r Requester) *Client {
	return &Client{
		requester:  r,
		structures: make(structureCache),
	}
}

// UseClient injects the client into the context.
func UseClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, clientContextKey, c)
}

// UseDefaultClient creates a client for URL with the default rate limiter and
// retry policy, and injects it into the context.
func UseDefaultClient(ctx context.Context) context.Context {
	return UseClient(ctx, NewClient(DefaultRequester(URL)))
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

// ListDatasets is Client.ListDatasets for the client in the context.
func ListDatasets(ctx context.Context) ([]Dataflow, error) {
	c := GetClient(ctx)
	if c == nil {
		return nil, errors.Reason("no client in context")
	}
	return c.ListDatasets(ctx)
}

// LoadDataset is Client.LoadDataset for the client in the context.
func LoadDataset(ctx context.Context, id string) (*Dataset, error) {
	c := GetClient(ctx)
	if c == nil {
		return nil, errors.Reason("no client in context")
	}
	return c.LoadDataset(ctx, id)
}

// LoadDataset discovers the schema and the vocabulary of the dataset. It does
// not fetch any data; use Dataset.FetchSeries for that.
func (c *Client) LoadDataset(ctx context.Context, id string) (*Dataset, error) {
	schema, err := c.Schema(ctx, id)
	if err != nil {
		return nil, err
	}
	vocab, err := c.Vocabulary(ctx, id, schema)
	if err != nil {
		return nil, err
	}
	return NewDataset(id, schema, vocab, c.requester), nil
}
