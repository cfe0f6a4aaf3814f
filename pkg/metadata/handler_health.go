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
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

type healthHandler struct {
	credentials CredentialsSource
}

func newHealthHandler(source CredentialsSource) *healthHandler {
	return &healthHandler{credentials: source}
}

func (h *healthHandler) Install(router *mux.Router) {
	router.Handle("/health", adapt(withMeter("health", h)))
}

// Handle reports ok while the server runs. ?deep additionally requires a
// valid stored credential, checked without side effects.
func (h *healthHandler) Handle(ctx context.Context, w http.ResponseWriter, req *http.Request) (int, error) {
	timer := prometheus.NewTimer(handlerTimer.WithLabelValues("health"))
	defer timer.ObserveDuration()

	deep := req.URL.Query().Get("deep")
	if deep != "" && !h.credentials.HasValidCredentials() {
		return http.StatusServiceUnavailable, fmt.Errorf("no valid credential cached")
	}

	fmt.Fprint(w, "ok")
	success.WithLabelValues("health").Inc()
	return http.StatusOK, nil
}
