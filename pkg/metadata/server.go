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

// Package metadata serves the managed credential to local consumers over
// HTTP, in the shape the EC2 instance metadata API uses.
package metadata

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/outpost-labs/credcache/pkg/creds"
	log "github.com/sirupsen/logrus"
)

// CredentialsSource is the manager surface the handlers read from.
type CredentialsSource interface {
	GetValidCredentials(ctx context.Context) (*creds.Credentials, error)
	HasValidCredentials() bool
}

// SessionInvalidator tears the session down on POST /logout.
type SessionInvalidator interface {
	Logout() error
}

type Server struct {
	cfg         *ServerOptions
	credentials CredentialsSource
	invalidator SessionInvalidator
	mutex       sync.Mutex
	server      *http.Server
}

type ServerOptions struct {
	ListenPort int
}

func DefaultOptions() *ServerOptions {
	return &ServerOptions{ListenPort: 3100}
}

func NewWebServer(config *ServerOptions, source CredentialsSource, invalidator SessionInvalidator) *Server {
	return &Server{cfg: config, credentials: source, invalidator: invalidator}
}

func (s *Server) listenAddress() string {
	return fmt.Sprintf(":%d", s.cfg.ListenPort)
}

func (s *Server) Serve() error {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Handle("/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "pong") }))

	newHealthHandler(s.credentials).Install(router)
	newCredentialsHandler(s.credentials).Install(router)
	newLogoutHandler(s.invalidator).Install(router)

	s.mutex.Lock()
	s.server = &http.Server{Addr: s.listenAddress(), Handler: router}
	s.mutex.Unlock()

	log.Infof("listening %s", s.listenAddress())

	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.server == nil {
		return nil
	}

	log.Infoln("starting server shutdown")
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(c)
}
