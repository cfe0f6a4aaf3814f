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
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	log "github.com/sirupsen/logrus"
)

type healthCommand struct {
	logOptions

	serverAddress string
	timeout       time.Duration
	deep          bool
}

func (cmd *healthCommand) Bind(parser parser) {
	cmd.logOptions.bind(parser)

	parser.Flag("server-address", "Address of the credcache server").Default("localhost:3100").StringVar(&cmd.serverAddress)
	parser.Flag("timeout", "Timeout for health check").Default("1s").DurationVar(&cmd.timeout)
	parser.Flag("deep", "Also require a valid cached credential").BoolVar(&cmd.deep)
}

func (opts *healthCommand) Run() {
	opts.configureLogger()

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s/health", opts.serverAddress)
	if opts.deep {
		url = url + "?deep=1"
	}

	op := func() error {
		message, err := checkHealth(ctx, url)
		if err != nil {
			log.Warnf("error checking health: %s", err.Error())
			return err
		}

		log.Infof("healthy: %s", message)
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(100*time.Millisecond), ctx))
	if err != nil {
		log.Fatalf("error retrieving health: %s", err.Error())
	}
}

func checkHealth(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unhealthy: %s", string(body))
	}
	return string(body), nil
}
