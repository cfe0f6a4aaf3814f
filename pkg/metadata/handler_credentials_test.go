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
package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/gorilla/mux"
	"github.com/outpost-labs/credcache/pkg/creds"
	"github.com/outpost-labs/credcache/pkg/statsd"
	"github.com/rcrowley/go-metrics"
)

func init() {
	statsd.New("", "", time.Millisecond)
	// Start go-metrics' process-wide meter ticker before leaktest
	// baselines, so it isn't reported as a leaked goroutine. Sleep so
	// the ticker goroutine is scheduled (and visible to leaktest's
	// baseline snapshot) before any test runs.
	metrics.GetOrRegisterMeter("test-warmup", metrics.DefaultRegistry)
	time.Sleep(50 * time.Millisecond)
}

type stubSource struct {
	credentials *creds.Credentials
	err         error
	valid       bool
}

func (s *stubSource) GetValidCredentials(ctx context.Context) (*creds.Credentials, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.credentials, nil
}

func (s *stubSource) HasValidCredentials() bool {
	return s.valid
}

func TestReturnsCredentials(t *testing.T) {
	defer leaktest.Check(t)()

	expiry := time.Date(2023, 6, 1, 13, 0, 0, 0, time.UTC)
	source := &stubSource{credentials: &creds.Credentials{
		AccessKeyId:     "A1",
		SecretAccessKey: "S1",
		SessionToken:    "T1",
		Expiration:      expiry,
	}}

	r, _ := http.NewRequest("GET", "/credentials", nil)
	rr := httptest.NewRecorder()

	router := mux.NewRouter()
	newCredentialsHandler(source).Install(router)
	router.ServeHTTP(rr, r)

	if rr.Code != http.StatusOK {
		t.Error("unexpected status, was", rr.Code)
	}
	if content := rr.Header().Get("Content-Type"); content != "application/json" {
		t.Error("expected json result", content)
	}

	var payload credentialsPayload
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatal(err.Error())
	}

	if payload.Code != "Success" {
		t.Error("unexpected code, was", payload.Code)
	}
	if payload.AccessKeyId != "A1" {
		t.Error("unexpected key, was", payload.AccessKeyId)
	}
	if payload.Token != "T1" {
		t.Error("unexpected token, was", payload.Token)
	}
	if payload.Expiration != "2023-06-01T13:00:00Z" {
		t.Error("unexpected expiration, was", payload.Expiration)
	}
}

func TestReturnsErrorWhenFetchFails(t *testing.T) {
	defer leaktest.Check(t)()

	source := &stubSource{err: &creds.NetworkError{StatusCode: 502, Status: "502 Bad Gateway"}}

	r, _ := http.NewRequest("GET", "/credentials", nil)
	rr := httptest.NewRecorder()

	router := mux.NewRouter()
	newCredentialsHandler(source).Install(router)
	router.ServeHTTP(rr, r)

	if rr.Code != http.StatusInternalServerError {
		t.Error("unexpected status", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "error fetching credentials") {
		t.Error("unexpected error", rr.Body.String())
	}
}
