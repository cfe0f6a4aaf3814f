// Copyright 2023 Outpost Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package future runs a credential fetch asynchronously with an awaited
// completion, so continuations like "re-arm after the fetch finishes" are
// explicit rather than buried in callback chains.
package future

import (
	"context"

	"github.com/outpost-labs/credcache/pkg/creds"
)

// Fetch is a single-assignment holder for the outcome of one fetch.
type Fetch struct {
	credentials *creds.Credentials
	err         error
	done        chan struct{}
}

type FetchFn func() (*creds.Credentials, error)

// Start runs fn in its own goroutine. The fetch is never cancelled once
// started; Get abandons the wait but the goroutine runs to completion.
func Start(fn FetchFn) *Fetch {
	f := &Fetch{done: make(chan struct{})}
	go func() {
		f.credentials, f.err = fn()
		close(f.done)
	}()
	return f
}

// Get blocks until the fetch completes or ctx is done.
func (f *Fetch) Get(ctx context.Context) (*creds.Credentials, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return f.credentials, f.err
	}
}
