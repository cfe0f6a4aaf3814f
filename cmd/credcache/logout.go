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
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

type logoutCommand struct {
	logOptions

	serverAddress string
	timeout       time.Duration
}

func (cmd *logoutCommand) Bind(parser parser) {
	cmd.logOptions.bind(parser)

	parser.Flag("server-address", "Address of the credcache server").Default("localhost:3100").StringVar(&cmd.serverAddress)
	parser.Flag("timeout", "Timeout for the logout request").Default("5s").DurationVar(&cmd.timeout)
}

func (opts *logoutCommand) Run() {
	opts.configureLogger()

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s/logout", opts.serverAddress)
	req, err := http.NewRequest("POST", url, strings.NewReader(""))
	if err != nil {
		log.Fatalf("error creating logout request: %s", err.Error())
	}

	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		log.Fatalf("error calling logout: %s", err.Error())
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("logout failed: %s", string(body))
	}

	log.Infof("logged out")
}
