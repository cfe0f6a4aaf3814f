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
	"time"

	"github.com/outpost-labs/credcache/pkg/pprof"
	"github.com/outpost-labs/credcache/pkg/prometheus"
	"github.com/outpost-labs/credcache/pkg/statsd"
	log "github.com/sirupsen/logrus"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

type parser interface {
	Flag(name, help string) *kingpin.FlagClause
}

type logOptions struct {
	jsonLog  bool
	logLevel string
}

func (o *logOptions) bind(parser parser) {
	parser.Flag("json-log", "Output log in JSON").BoolVar(&o.jsonLog)
	parser.Flag("level", "Log level: debug, info, warn, error.").Default("info").EnumVar(&o.logLevel, "debug", "info", "warn", "error")
}

func (o *logOptions) configureLogger() {
	if o.jsonLog {
		log.SetFormatter(&log.JSONFormatter{})
	}

	switch o.logLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}
}

type telemetryOptions struct {
	prometheusListen string
	prometheusSync   time.Duration
	pprofListen      string
	statsdAddress    string
	statsdPrefix     string
	statsdInterval   time.Duration
}

func (o *telemetryOptions) bind(parser parser) {
	parser.Flag("prometheus-listen-addr", "Prometheus HTTP listen address. e.g. localhost:9620").StringVar(&o.prometheusListen)
	parser.Flag("prometheus-sync-interval", "How frequently to update Prometheus metrics").Default("5s").DurationVar(&o.prometheusSync)

	parser.Flag("pprof-listen-addr", "Address to bind pprof HTTP server. e.g. localhost:9990").Default("").StringVar(&o.pprofListen)

	parser.Flag("statsd", "statsd address. e.g. 127.0.0.1:8125").Default("").StringVar(&o.statsdAddress)
	parser.Flag("statsd-prefix", "statsd metric prefix").Default("credcache").StringVar(&o.statsdPrefix)
	parser.Flag("statsd-interval", "statsd flush interval").Default("100ms").DurationVar(&o.statsdInterval)
}

func (o telemetryOptions) start(ctx context.Context, identifier string) {
	if err := statsd.New(o.statsdAddress, o.statsdPrefix, o.statsdInterval); err != nil {
		log.Errorf("error configuring statsd: %s", err.Error())
	}

	if o.prometheusListen != "" {
		metrics := prometheus.NewServer(identifier, o.prometheusListen, o.prometheusSync)
		metrics.Listen(ctx)
	}

	if o.pprofListen != "" {
		log.Infof("pprof listen address specified, will listen on %s", o.pprofListen)
		server := pprof.NewServer(o.pprofListen)
		go pprof.ListenAndWait(ctx, server)
	}
}
