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

// Package refresh keeps the credential cache warm. A single self-rearming
// timer fires shortly before the stored record expires, forces a fresh fetch
// through the manager and arms itself again from the new expiry.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/outpost-labs/credcache/pkg/clock"
	"github.com/outpost-labs/credcache/pkg/creds"
	"github.com/outpost-labs/credcache/pkg/future"
	"github.com/outpost-labs/credcache/pkg/statsd"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultFallbackDelay is used when no stored expiration is available,
	// so an initial fetch is attempted soon after start.
	DefaultFallbackDelay = 2 * time.Second
)

// Manager is the credential manager surface the scheduler drives.
type Manager interface {
	GetValidCredentials(ctx context.Context) (*creds.Credentials, error)
	Expiration() (time.Time, bool)
	Invalidate() error
}

// Scheduler owns the process-wide refresh timer. At most one timer is ever
// pending: arming always cancels the previous one. Fetch errors in the
// autonomous path are logged and never stop the loop; re-arming happens
// unconditionally after every firing.
type Scheduler struct {
	manager  Manager
	buffer   time.Duration
	fallback time.Duration
	clock    clock.Clock

	mutex      sync.Mutex
	timer      clock.Timer
	armed      bool
	generation uint64
}

func NewScheduler(manager Manager, buffer, fallback time.Duration, clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	if fallback <= 0 {
		fallback = DefaultFallbackDelay
	}
	return &Scheduler{manager: manager, buffer: buffer, fallback: fallback, clock: clk}
}

// Start arms the refresh timer from the stored record's expiry. Calling it
// while already armed cancels the pending timer first, so restarts are
// idempotent.
func (s *Scheduler) Start() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.generation++
	s.cancelLocked()
	s.armLocked()
}

// Stop cancels any pending timer. A firing already in flight completes its
// fetch but will not re-arm.
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.generation++
	s.cancelLocked()
}

// IsArmed reports whether a timer is pending.
func (s *Scheduler) IsArmed() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.armed
}

func (s *Scheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.armed = false
}

// armLocked computes the next fire time and arms the timer. Genuine
// refreshes fire at expiration minus buffer, clamped at zero; without a
// usable expiration the fallback delay schedules an initial fetch instead.
func (s *Scheduler) armLocked() {
	delay := s.fallback
	genuine := false

	if expiry, ok := s.manager.Expiration(); ok {
		genuine = true
		delay = expiry.Sub(s.clock.Now()) - s.buffer
		if delay < 0 {
			delay = 0
		}
	}

	generation := s.generation
	s.armed = true
	s.timer = s.clock.AfterFunc(delay, func() { s.fire(generation, genuine) })

	log.WithFields(log.Fields{"refresh.delay": delay.String(), "refresh.genuine": genuine}).Debugf("armed refresh timer")
}

// fire is the timer callback. The re-arm in the deferred step is
// unconditional so a failed fetch can never leave the loop dark.
func (s *Scheduler) fire(generation uint64, genuine bool) {
	s.mutex.Lock()
	if generation != s.generation {
		s.mutex.Unlock()
		return
	}
	s.armed = false
	s.timer = nil
	s.mutex.Unlock()

	defer s.rearm(generation)

	if genuine {
		// delete first so the manager performs a real fetch rather than
		// serving the nearly-expired record back
		if err := s.manager.Invalidate(); err != nil {
			log.Errorf("error invalidating credentials before refresh: %s", err.Error())
		}
	}

	f := future.Start(func() (*creds.Credentials, error) {
		return s.manager.GetValidCredentials(context.Background())
	})

	credentials, err := f.Get(context.Background())
	if err != nil {
		refreshErrors.Inc()
		statsd.Increment("refresh.error")
		log.WithField("operation", "refresh").Errorf("error refreshing credentials: %s", err.Error())
		return
	}

	refreshSuccess.Inc()
	statsd.Increment("refresh.success")
	log.WithFields(creds.Fields(credentials)).Infof("refreshed credentials")
}

func (s *Scheduler) rearm(generation uint64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if generation != s.generation {
		return
	}
	s.armLocked()
}
