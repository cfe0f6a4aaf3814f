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

// Package awscreds exposes managed credentials to AWS SDK clients through
// the credentials.Provider interface.
package awscreds

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/outpost-labs/credcache/pkg/clock"
	"github.com/outpost-labs/credcache/pkg/creds"
)

// ProviderName identifies values produced by this provider.
const ProviderName = "CredCacheProvider"

// Source is the manager surface the provider reads from.
type Source interface {
	GetValidCredentials(ctx context.Context) (*creds.Credentials, error)
}

// Provider adapts the credential manager to aws-sdk-go. Retrieve goes
// through the manager so an expired cache triggers a fetch; IsExpired only
// consults the expiry remembered from the last Retrieve.
type Provider struct {
	source Source
	clock  clock.Clock

	mutex      sync.Mutex
	expiration time.Time
}

func NewProvider(source Source, clk clock.Clock) *Provider {
	if clk == nil {
		clk = clock.New()
	}
	return &Provider{source: source, clock: clk}
}

// NewCredentials wraps a Provider for use with session and service configs.
func NewCredentials(source Source) *credentials.Credentials {
	return credentials.NewCredentials(NewProvider(source, nil))
}

func (p *Provider) Retrieve() (credentials.Value, error) {
	c, err := p.source.GetValidCredentials(context.Background())
	if err != nil {
		return credentials.Value{ProviderName: ProviderName}, err
	}

	p.mutex.Lock()
	p.expiration = c.Expiration
	p.mutex.Unlock()

	return credentials.Value{
		AccessKeyID:     c.AccessKeyId,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
		ProviderName:    ProviderName,
	}, nil
}

func (p *Provider) IsExpired() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.expiration.IsZero() {
		return true
	}
	return !p.clock.Now().Before(p.expiration)
}
