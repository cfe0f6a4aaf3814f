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
	"sync"
	"testing"
	"time"

	"github.com/outpost-labs/credcache/pkg/clock"
	"github.com/outpost-labs/credcache/pkg/store"
)

type countingIssuer struct {
	mutex       sync.Mutex
	count       int
	credentials *Credentials
	err         error
	store       store.Store
}

func (i *countingIssuer) Fetch(ctx context.Context) (*Credentials, error) {
	i.mutex.Lock()
	i.count++
	i.mutex.Unlock()

	if i.err != nil {
		return nil, i.err
	}
	if i.store != nil {
		b, err := Encode(i.credentials)
		if err != nil {
			return nil, err
		}
		if err := i.store.Set(DefaultStoreKey, b); err != nil {
			return nil, err
		}
	}
	return i.credentials, nil
}

func storeRecord(t *testing.T, st store.Store, c *Credentials) {
	t.Helper()
	b, err := Encode(c)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Set(DefaultStoreKey, b); err != nil {
		t.Fatal(err)
	}
}

func TestManagerServesCachedRecordWithoutFetching(t *testing.T) {
	clk := clock.NewFake(now)
	st := store.NewMemory()
	storeRecord(t, st, complete(now.Add(10*time.Minute)))

	issuer := &countingIssuer{}
	manager := NewManager(st, issuer, 5*time.Minute, clk)

	first, err := manager.GetValidCredentials(context.Background())
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	second, err := manager.GetValidCredentials(context.Background())
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if issuer.count != 0 {
		t.Error("expected zero fetches for a valid cached record, was", issuer.count)
	}
	if first.AccessKeyId != second.AccessKeyId {
		t.Error("expected identical records")
	}
}

func TestManagerFetchesOnEmptyStore(t *testing.T) {
	clk := clock.NewFake(now)
	st := store.NewMemory()
	issuer := &countingIssuer{credentials: complete(now.Add(time.Hour)), store: st}
	manager := NewManager(st, issuer, 5*time.Minute, clk)

	credentials, err := manager.GetValidCredentials(context.Background())
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if issuer.count != 1 {
		t.Error("expected exactly one fetch, was", issuer.count)
	}
	if !Valid(credentials, 5*time.Minute, clk.Now()) {
		t.Error("fetched record should pass the validity check")
	}
	if !manager.HasValidCredentials() {
		t.Error("expected record in store after fetch")
	}
}

func TestManagerFetchesWhenStoredRecordInsideBuffer(t *testing.T) {
	clk := clock.NewFake(now)
	st := store.NewMemory()
	storeRecord(t, st, complete(now.Add(2*time.Minute)))

	issuer := &countingIssuer{credentials: complete(now.Add(time.Hour)), store: st}
	manager := NewManager(st, issuer, 5*time.Minute, clk)

	if manager.HasValidCredentials() {
		t.Error("record expiring within buffer should not be valid")
	}

	credentials, err := manager.GetValidCredentials(context.Background())
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if issuer.count != 1 {
		t.Error("expected an immediate fetch, was", issuer.count)
	}
	if !credentials.Expiration.Equal(now.Add(time.Hour)) {
		t.Error("expected fresh record, was", credentials.Expiration)
	}
}

func TestManagerTreatsMalformedStoreAsAbsent(t *testing.T) {
	clk := clock.NewFake(now)
	st := store.NewMemory()
	if err := st.Set(DefaultStoreKey, []byte("not json")); err != nil {
		t.Fatal(err)
	}

	issuer := &countingIssuer{credentials: complete(now.Add(time.Hour)), store: st}
	manager := NewManager(st, issuer, 5*time.Minute, clk)

	if _, err := manager.GetValidCredentials(context.Background()); err != nil {
		t.Fatal("malformed store contents should trigger a fetch, not fail:", err)
	}
	if issuer.count != 1 {
		t.Error("expected one fetch, was", issuer.count)
	}
}

func TestManagerPropagatesFetcherErrors(t *testing.T) {
	clk := clock.NewFake(now)
	issuer := &countingIssuer{err: &ConfigError{Reason: "issuer URL not configured"}}
	manager := NewManager(store.NewMemory(), issuer, 5*time.Minute, clk)

	_, err := manager.GetValidCredentials(context.Background())
	if !IsConfigError(err) {
		t.Error("expected config error to propagate, was", err)
	}
}

func TestManagerExpiration(t *testing.T) {
	clk := clock.NewFake(now)
	st := store.NewMemory()
	manager := NewManager(st, &countingIssuer{}, 5*time.Minute, clk)

	if _, ok := manager.Expiration(); ok {
		t.Error("empty store should have no expiration")
	}

	expiry := now.Add(42 * time.Minute)
	storeRecord(t, st, complete(expiry))

	got, ok := manager.Expiration()
	if !ok || !got.Equal(expiry) {
		t.Error("unexpected expiration, was", got)
	}

	if err := manager.Invalidate(); err != nil {
		t.Fatal(err)
	}
	if _, ok := manager.Expiration(); ok {
		t.Error("expected no expiration after invalidate")
	}
}
