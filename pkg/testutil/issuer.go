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

// Package testutil holds stubs shared across package tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/outpost-labs/credcache/pkg/clock"
	"github.com/outpost-labs/credcache/pkg/creds"
	"github.com/outpost-labs/credcache/pkg/store"
)

// StubIssuer counts fetches and mimics the fetch-then-cache side effect of
// the real fetcher when given a store. With TTL and Clock set each fetch
// mints a fresh expiration, the way a real issuer would.
type StubIssuer struct {
	Credentials *creds.Credentials
	Err         error
	Store       store.Store
	Key         string
	TTL         time.Duration
	Clock       clock.Clock

	mutex      sync.Mutex
	fetchCount int
}

func (s *StubIssuer) Fetch(ctx context.Context) (*creds.Credentials, error) {
	s.mutex.Lock()
	s.fetchCount++
	s.mutex.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	issued := *s.Credentials
	if s.TTL > 0 && s.Clock != nil {
		issued.Expiration = s.Clock.Now().Add(s.TTL)
	}

	if s.Store != nil {
		encoded, err := creds.Encode(&issued)
		if err != nil {
			return nil, err
		}
		if err := s.Store.Set(s.Key, encoded); err != nil {
			return nil, err
		}
	}
	return &issued, nil
}

func (s *StubIssuer) FetchCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.fetchCount
}
