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
	"time"

	"github.com/outpost-labs/credcache/pkg/clock"
	"github.com/outpost-labs/credcache/pkg/store"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultStoreKey is the store key the credential record lives under.
	DefaultStoreKey = "awsCredentials"
	// DefaultExpiryBuffer is the safety margin before actual expiry within
	// which a stored credential is no longer considered usable.
	DefaultExpiryBuffer = 5 * time.Minute
)

// Manager is the single entry point credential consumers use. It serves the
// stored record while valid and fetches through the Issuer otherwise. The
// store is the source of truth; the Manager keeps no in-memory copy.
//
// Concurrent callers may race benignly: both can observe a stale record and
// both fetch, with the last store write winning. Credentials are idempotently
// re-fetchable so no mutual exclusion is enforced around read-check-fetch.
type Manager struct {
	store  store.Store
	issuer Issuer
	key    string
	buffer time.Duration
	clock  clock.Clock
}

func NewManager(st store.Store, issuer Issuer, buffer time.Duration, clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{store: st, issuer: issuer, key: DefaultStoreKey, buffer: buffer, clock: clk}
}

// GetValidCredentials returns the stored record when it passes the validity
// check, without touching the network. Otherwise it fetches, which caches the
// fresh record before returning. Fetch errors propagate unchanged.
func (m *Manager) GetValidCredentials(ctx context.Context) (*Credentials, error) {
	current := m.stored()
	if Valid(current, m.buffer, m.clock.Now()) {
		cacheHit.Inc()
		return current, nil
	}

	cacheMiss.Inc()
	return m.issuer.Fetch(ctx)
}

// HasValidCredentials reports whether a usable record is stored. No side
// effects, no network.
func (m *Manager) HasValidCredentials() bool {
	return Valid(m.stored(), m.buffer, m.clock.Now())
}

// Expiration returns the stored record's expiry, ok false when no complete
// record is stored.
func (m *Manager) Expiration() (time.Time, bool) {
	current := m.stored()
	if current == nil || current.Expiration.IsZero() {
		return time.Time{}, false
	}
	return current.Expiration, true
}

// Invalidate removes the stored record.
func (m *Manager) Invalidate() error {
	return m.store.Delete(m.key)
}

// ExpiryBuffer returns the configured safety margin.
func (m *Manager) ExpiryBuffer() time.Duration {
	return m.buffer
}

// stored reads the current record, treating absent keys and malformed
// contents identically as no credential.
func (m *Manager) stored() *Credentials {
	b, err := m.store.Get(m.key)
	if err != nil {
		if err != store.ErrNotFound {
			log.Errorf("error reading credential store: %s", err.Error())
		}
		return nil
	}

	credentials, err := ParseCredentials(b)
	if err != nil {
		log.Debugf("ignoring malformed stored credentials: %s", err.Error())
		return nil
	}
	return credentials
}
