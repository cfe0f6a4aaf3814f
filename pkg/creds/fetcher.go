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
package creds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/outpost-labs/credcache/pkg/store"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

// Issuer performs the round-trip to the credential issuing endpoint.
type Issuer interface {
	Fetch(ctx context.Context) (*Credentials, error)
}

// Fetcher requests credentials from the issuing endpoint over HTTP and
// persists them before returning, so callers never observe a fetched but
// uncached record. It never retries; retry policy belongs to callers.
type Fetcher struct {
	endpoint string
	client   *http.Client
	store    store.Store
	key      string
}

const maxResponseBytes = 1 << 20

func NewFetcher(endpoint string, client *http.Client, st store.Store, key string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{endpoint: endpoint, client: client, store: st, key: key}
}

func (f *Fetcher) Fetch(ctx context.Context) (*Credentials, error) {
	if f.endpoint == "" {
		return nil, &ConfigError{Reason: "issuer URL not configured"}
	}

	timer := metrics.GetOrRegisterTimer("issuer.fetch", metrics.DefaultRegistry)
	started := time.Now()
	defer timer.UpdateSince(started)
	defer func() { fetchTiming.Observe(time.Since(started).Seconds()) }()

	fetchExecuting.Inc()
	defer fetchExecuting.Dec()

	req, err := http.NewRequest("POST", f.endpoint, strings.NewReader("{}"))
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("invalid issuer URL: %s", err.Error())}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req.WithContext(ctx))
	if err != nil {
		errorFetching.Inc()
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorFetching.Inc()
		return nil, &NetworkError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		errorFetching.Inc()
		return nil, &NetworkError{Err: err}
	}

	credentials, err := ParseCredentials(body)
	if err != nil {
		errorFetching.Inc()
		return nil, err
	}

	encoded, err := Encode(credentials)
	if err != nil {
		return nil, err
	}
	if err := f.store.Set(f.key, encoded); err != nil {
		return nil, fmt.Errorf("caching fetched credentials: %w", err)
	}

	log.WithFields(Fields(credentials)).Infof("fetched new credentials from issuer")
	return credentials, nil
}
