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
package store

import (
	gocache "github.com/patrickmn/go-cache"
)

// Memory is a non-persistent Store for development and tests. Entries never
// expire; lifecycle is owned entirely by the callers.
type Memory struct {
	cache *gocache.Cache
}

func NewMemory() *Memory {
	return &Memory{cache: gocache.New(gocache.NoExpiration, 0)}
}

func (m *Memory) Get(key string) ([]byte, error) {
	item, found := m.cache.Get(key)
	if !found {
		return nil, ErrNotFound
	}
	return item.([]byte), nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.cache.Set(key, value, gocache.NoExpiration)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.cache.Delete(key)
	return nil
}
