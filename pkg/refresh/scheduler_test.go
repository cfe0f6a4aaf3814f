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
package refresh

import (
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/outpost-labs/credcache/pkg/clock"
	"github.com/outpost-labs/credcache/pkg/creds"
	"github.com/outpost-labs/credcache/pkg/statsd"
	"github.com/outpost-labs/credcache/pkg/store"
	tu "github.com/outpost-labs/credcache/pkg/testutil"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	statsd.New("", "", time.Millisecond)
}

var start = time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

func record(expiry time.Time) *creds.Credentials {
	return &creds.Credentials{
		AccessKeyId:     "AKID",
		SecretAccessKey: "secret",
		SessionToken:    "token",
		Expiration:      expiry,
	}
}

// deleteCountingStore records deletions so tests can observe the forced
// invalidation before a genuine refresh.
type deleteCountingStore struct {
	store.Store
	deletes int
}

func (s *deleteCountingStore) Delete(key string) error {
	s.deletes++
	return s.Store.Delete(key)
}

func storeRecord(t *testing.T, st store.Store, c *creds.Credentials) {
	t.Helper()
	b, err := creds.Encode(c)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Set(creds.DefaultStoreKey, b); err != nil {
		t.Fatal(err)
	}
}

func newScheduler(t *testing.T, st store.Store, issuer *tu.StubIssuer, clk clock.Clock) *Scheduler {
	t.Helper()
	manager := creds.NewManager(st, issuer, 5*time.Minute, clk)
	return NewScheduler(manager, 5*time.Minute, DefaultFallbackDelay, clk)
}

func TestFiresAtExpiryMinusBuffer(t *testing.T) {
	defer leaktest.Check(t)()

	clk := clock.NewFake(start)
	st := store.NewMemory()
	storeRecord(t, st, record(start.Add(10*time.Minute)))

	issuer := &tu.StubIssuer{Credentials: record(start.Add(time.Hour)), TTL: time.Hour, Clock: clk, Store: st, Key: creds.DefaultStoreKey}
	scheduler := newScheduler(t, st, issuer, clk)

	scheduler.Start()
	if !scheduler.IsArmed() {
		t.Error("expected scheduler to be armed")
	}

	// expiry 10m away with a 5m buffer fires at exactly 5m
	clk.Advance(5*time.Minute - time.Second)
	if issuer.FetchCount() != 0 {
		t.Error("fired too early, fetches:", issuer.FetchCount())
	}

	clk.Advance(time.Second)
	if issuer.FetchCount() != 1 {
		t.Error("expected one fetch at expiry minus buffer, was", issuer.FetchCount())
	}

	if !scheduler.IsArmed() {
		t.Error("expected scheduler to re-arm after firing")
	}
}

func TestStartingTwiceLeavesOneTimer(t *testing.T) {
	defer leaktest.Check(t)()

	clk := clock.NewFake(start)
	st := store.NewMemory()
	storeRecord(t, st, record(start.Add(10*time.Minute)))

	issuer := &tu.StubIssuer{Credentials: record(start.Add(time.Hour)), TTL: time.Hour, Clock: clk, Store: st, Key: creds.DefaultStoreKey}
	scheduler := newScheduler(t, st, issuer, clk)

	scheduler.Start()
	scheduler.Start()

	if clk.Pending() != 1 {
		t.Error("expected a single pending timer, was", clk.Pending())
	}

	clk.Advance(5 * time.Minute)
	if issuer.FetchCount() != 1 {
		t.Error("expected a single fire, was", issuer.FetchCount())
	}
}

func TestGenuineRefreshDeletesStoredRecordFirst(t *testing.T) {
	defer leaktest.Check(t)()

	clk := clock.NewFake(start)
	counting := &deleteCountingStore{Store: store.NewMemory()}
	storeRecord(t, counting, record(start.Add(10*time.Minute)))

	issuer := &tu.StubIssuer{Credentials: record(start.Add(time.Hour)), TTL: time.Hour, Clock: clk, Store: counting, Key: creds.DefaultStoreKey}
	scheduler := newScheduler(t, counting, issuer, clk)

	scheduler.Start()
	clk.Advance(5 * time.Minute)

	if counting.deletes != 1 {
		t.Error("expected stored record to be deleted before refresh, deletes:", counting.deletes)
	}
	if issuer.FetchCount() != 1 {
		t.Error("expected a real fetch, was", issuer.FetchCount())
	}
}

func TestArmsFallbackDelayWithEmptyStore(t *testing.T) {
	defer leaktest.Check(t)()

	clk := clock.NewFake(start)
	st := store.NewMemory()
	issuer := &tu.StubIssuer{Credentials: record(start.Add(time.Hour)), TTL: time.Hour, Clock: clk, Store: st, Key: creds.DefaultStoreKey}
	scheduler := newScheduler(t, st, issuer, clk)

	scheduler.Start()

	clk.Advance(DefaultFallbackDelay)
	if issuer.FetchCount() != 1 {
		t.Error("expected initial fetch after fallback delay, was", issuer.FetchCount())
	}

	// the fresh record drives the next genuine refresh
	clk.Advance(time.Hour)
	if issuer.FetchCount() != 2 {
		t.Error("expected genuine refresh from fresh expiry, was", issuer.FetchCount())
	}
}

func TestFetchErrorsKeepLoopAlive(t *testing.T) {
	defer leaktest.Check(t)()

	clk := clock.NewFake(start)
	issuer := &tu.StubIssuer{Err: &creds.ConfigError{Reason: "issuer URL not configured"}}
	scheduler := newScheduler(t, store.NewMemory(), issuer, clk)

	errorsBefore := testutil.ToFloat64(refreshErrors)

	scheduler.Start()
	clk.Advance(DefaultFallbackDelay)
	clk.Advance(DefaultFallbackDelay)

	if issuer.FetchCount() != 2 {
		t.Error("expected loop to keep retrying on the fallback delay, was", issuer.FetchCount())
	}
	if !scheduler.IsArmed() {
		t.Error("expected scheduler to stay armed after errors")
	}
	if testutil.ToFloat64(refreshErrors)-errorsBefore != 2 {
		t.Error("expected refresh errors to be recorded")
	}
}

func TestStopCancelsPendingTimer(t *testing.T) {
	defer leaktest.Check(t)()

	clk := clock.NewFake(start)
	st := store.NewMemory()
	storeRecord(t, st, record(start.Add(10*time.Minute)))

	issuer := &tu.StubIssuer{Credentials: record(start.Add(time.Hour)), TTL: time.Hour, Clock: clk, Store: st, Key: creds.DefaultStoreKey}
	scheduler := newScheduler(t, st, issuer, clk)

	scheduler.Start()
	scheduler.Stop()

	if scheduler.IsArmed() {
		t.Error("expected scheduler to be idle after stop")
	}
	if clk.Pending() != 0 {
		t.Error("expected no pending timers, was", clk.Pending())
	}

	clk.Advance(time.Hour)
	if issuer.FetchCount() != 0 {
		t.Error("expected no autonomous fetch after stop, was", issuer.FetchCount())
	}

	// restart resumes the loop
	scheduler.Start()
	clk.Advance(time.Minute)
	if issuer.FetchCount() != 1 {
		t.Error("expected refresh after restart, was", issuer.FetchCount())
	}
}
