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
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/outpost-labs/credcache/pkg/clock"
	"github.com/outpost-labs/credcache/pkg/creds"
	"github.com/outpost-labs/credcache/pkg/metadata"
	"github.com/outpost-labs/credcache/pkg/refresh"
	"github.com/outpost-labs/credcache/pkg/session"
	"github.com/outpost-labs/credcache/pkg/store"
	log "github.com/sirupsen/logrus"
)

type serverCommand struct {
	logOptions
	telemetryOptions
	*metadata.ServerOptions

	issuerURL     string
	storePath     string
	expiryBuffer  time.Duration
	fallbackDelay time.Duration
	fetchTimeout  time.Duration
}

func (cmd *serverCommand) Bind(parser parser) {
	cmd.logOptions.bind(parser)
	cmd.telemetryOptions.bind(parser)

	cmd.ServerOptions = metadata.DefaultOptions()

	parser.Flag("issuer-url", "Credential issuing endpoint URL.").Envar("CREDCACHE_ISSUER_URL").Required().StringVar(&cmd.issuerURL)
	parser.Flag("store", "Path to the credential store database.").Default(defaultStorePath()).StringVar(&cmd.storePath)
	parser.Flag("port", "HTTP port").Default("3100").IntVar(&cmd.ListenPort)
	parser.Flag("expiry-buffer", "How soon before expiration credentials stop being served and get refreshed.").Default("5m").DurationVar(&cmd.expiryBuffer)
	parser.Flag("fallback-delay", "Refresh retry delay when no stored expiration is available.").Default("2s").DurationVar(&cmd.fallbackDelay)
	parser.Flag("fetch-timeout", "Timeout for issuer fetch requests.").Default("10s").DurationVar(&cmd.fetchTimeout)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".credcache/store.db"
	}
	return filepath.Join(home, ".credcache", "store.db")
}

func (opts *serverCommand) run() error {
	opts.configureLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go opts.telemetryOptions.start(ctx, "server")

	db, err := store.NewSQLite(opts.storePath)
	if err != nil {
		log.Errorf("error opening credential store: %s", err.Error())
		return err
	}
	defer db.Close()

	clk := clock.New()
	fetcher := creds.NewFetcher(opts.issuerURL, &http.Client{Timeout: opts.fetchTimeout}, db, creds.DefaultStoreKey)
	manager := creds.NewManager(db, fetcher, opts.expiryBuffer, clk)
	scheduler := refresh.NewScheduler(manager, opts.expiryBuffer, opts.fallbackDelay, clk)
	invalidator := session.NewInvalidator(manager, scheduler)

	scheduler.Start()
	defer scheduler.Stop()

	server := metadata.NewWebServer(opts.ServerOptions, manager, invalidator)

	stopChan := make(chan os.Signal, 8)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Errorf("error running server: %s", err.Error())
			return err
		}
	case sig := <-stopChan:
		log.Infof("received signal (%s): starting server shutdown", sig.String())
		if err := server.Stop(ctx); err != nil {
			log.Errorf("error shutting down server: %s", err.Error())
			return err
		}
		log.Infoln("gracefully shutdown server")
	}
	log.Infoln("stopped")
	return nil
}

func (opts *serverCommand) Run() {
	if err := opts.run(); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}
