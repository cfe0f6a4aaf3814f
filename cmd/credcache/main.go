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
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	rootParser := kingpin.CommandLine

	serverParser := rootParser.Command("server", "run the credential cache server")
	serverCmd := &serverCommand{}
	serverCmd.Bind(serverParser)

	healthParser := rootParser.Command("health", "probe a running server")
	healthCmd := &healthCommand{}
	healthCmd.Bind(healthParser)

	logoutParser := rootParser.Command("logout", "clear the cached credential and stop refreshing")
	logoutCmd := &logoutCommand{}
	logoutCmd.Bind(logoutParser)

	switch kingpin.Parse() {
	case "server":
		serverCmd.Run()
	case "health":
		healthCmd.Run()
	case "logout":
		logoutCmd.Run()
	}
}
