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

// Package session tears down the credential session on logout.
package session

import (
	log "github.com/sirupsen/logrus"
)

// CredentialCache is the manager surface needed to drop the stored record.
type CredentialCache interface {
	Invalidate() error
}

// Canceller stops the pending refresh timer.
type Canceller interface {
	Stop()
}

// Invalidator clears the cached credential and cancels the refresh loop.
// OnLogout, when set, notifies the surrounding application so it can restart
// its session.
type Invalidator struct {
	cache     CredentialCache
	scheduler Canceller
	OnLogout  func()
}

func NewInvalidator(cache CredentialCache, scheduler Canceller) *Invalidator {
	return &Invalidator{cache: cache, scheduler: scheduler}
}

// Logout cancels the refresh timer first so no autonomous fetch can re-fill
// the store behind the delete.
func (i *Invalidator) Logout() error {
	i.scheduler.Stop()

	if err := i.cache.Invalidate(); err != nil {
		return err
	}

	log.Infof("logged out, credential cache cleared")

	if i.OnLogout != nil {
		i.OnLogout()
	}
	return nil
}
